package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/exileautomate/flightbot/internal/extract"
)

func sampleTicket() *extract.Ticket {
	return &extract.Ticket{
		BookingRef:    "ABC123",
		PassengerName: "Jane Traveller",
		TotalPrice:    "14000",
		Currency:      "INR",
		Segments: []extract.Segment{
			{
				Airline: "Air India Express", FlightNumber: "IX 342",
				FromCode: "CNN", FromCity: "Kozhikode", ToCode: "DOH", ToCity: "Doha",
				DepartureDate: "02 Mar 2025", DepartureTime: "19:15", ArrivalTime: "21:20",
				Duration: "4h 35m", Stops: "Direct", CabinBaggage: "7 kg", CheckinBaggage: "30 kg",
			},
			{
				Airline: "Air India Express", FlightNumber: "IX 343",
				FromCode: "DOH", ToCode: "CNN",
				DepartureDate: "09 Mar 2025", DepartureTime: "22:10", ArrivalTime: "04:05",
				Duration: "4h 25m", Stops: "Direct",
			},
		},
	}
}

func TestPDFProducesDocument(t *testing.T) {
	data, err := PDF(sampleTicket(), "Exile Automate")
	if err != nil {
		t.Fatalf("PDF: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output does not look like a PDF: %q", data[:min(8, len(data))])
	}
}

func TestPDFToleratesSparseTicket(t *testing.T) {
	ticket := &extract.Ticket{Segments: []extract.Segment{{}}}
	data, err := PDF(ticket, "Exile Automate")
	if err != nil {
		t.Fatalf("PDF with empty fields: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty output")
	}
}

func TestCaptionContent(t *testing.T) {
	caption := Caption(sampleTicket())

	for _, want := range []string{
		"Jane Traveller",
		"Ref: ABC123",
		"CNN → DOH",
		"02 Mar 2025",
		"Dep: 19:15",
		"Cabin 7 kg + Check-in 30 kg",
		"₹14,000",
	} {
		if !strings.Contains(caption, want) {
			t.Errorf("caption missing %q:\n%s", want, caption)
		}
	}
}

func TestCaptionEscapesHTML(t *testing.T) {
	ticket := &extract.Ticket{
		PassengerName: "A <b>bold</b> name",
		Segments:      []extract.Segment{{Airline: "Fly & Co"}},
	}
	caption := Caption(ticket)
	if strings.Contains(caption, "<b>bold</b>") {
		t.Fatal("passenger name must be escaped")
	}
	if !strings.Contains(caption, "Fly &amp; Co") {
		t.Fatalf("airline not escaped:\n%s", caption)
	}
}

func TestCaptionUnknownCurrency(t *testing.T) {
	ticket := &extract.Ticket{TotalPrice: "500", Currency: "OMR"}
	caption := Caption(ticket)
	if !strings.Contains(caption, "OMR 500") {
		t.Fatalf("expected currency-code prefix:\n%s", caption)
	}
}

func TestFilename(t *testing.T) {
	cases := []struct {
		name   string
		ticket *extract.Ticket
		want   string
	}{
		{"full", sampleTicket(), "ticket_CNN_DOH_02_Mar_2025.pdf"},
		{"no segments", &extract.Ticket{}, "ticket.pdf"},
		{"missing codes", &extract.Ticket{Segments: []extract.Segment{{DepartureDate: "01 Jan 2026"}}}, "ticket_XX_XX_01_Jan_2026.pdf"},
	}
	for _, tc := range cases {
		if got := Filename(tc.ticket); got != tc.want {
			t.Errorf("%s: Filename = %q, want %q", tc.name, got, tc.want)
		}
	}
}
