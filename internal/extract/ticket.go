package extract

import (
	"strconv"
	"strings"
)

// Segment is one flight leg. Every field is optional: source images rarely
// show everything, and absence is an empty string, never a missing key.
type Segment struct {
	Airline        string `json:"airline"`
	FlightNumber   string `json:"flight_number"`
	FromCode       string `json:"from_code"`
	FromCity       string `json:"from_city"`
	ToCode         string `json:"to_code"`
	ToCity         string `json:"to_city"`
	DepartureDate  string `json:"departure_date"`
	DepartureTime  string `json:"departure_time"`
	ArrivalTime    string `json:"arrival_time"`
	Duration       string `json:"duration"`
	Stops          string `json:"stops"`
	CabinBaggage   string `json:"cabin_baggage"`
	CheckinBaggage string `json:"checkin_baggage"`
}

// Ticket is the structured extraction result for one booking. Immutable
// after creation; consumed only by the presentation formatter.
type Ticket struct {
	BookingRef    string    `json:"booking_ref"`
	PassengerName string    `json:"passenger_name"`
	TotalPrice    string    `json:"total_price"`
	Currency      string    `json:"currency"`
	ContactEmail  string    `json:"contact_email"`
	ContactPhone  string    `json:"contact_phone"`
	Segments      []Segment `json:"segments"`
	RawNotes      string    `json:"raw_notes"`
}

// DisplayPrice returns the total price grouped in thousands when it parses
// as an integer. An unparseable price is returned verbatim: raw data is
// never discarded over a formatting convenience.
func (t *Ticket) DisplayPrice() string {
	raw := strings.TrimSpace(t.TotalPrice)
	if raw == "" {
		return ""
	}
	compact := strings.NewReplacer(",", "", " ", "").Replace(raw)
	n, err := strconv.ParseInt(compact, 10, 64)
	if err != nil {
		return raw
	}
	return groupThousands(n)
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		return "-" + out
	}
	return out
}
