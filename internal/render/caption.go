package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/exileautomate/flightbot/internal/extract"
)

// currencySymbols maps currency codes to display prefixes for the caption.
// Codes without a symbol fall back to "CODE ".
var currencySymbols = map[string]string{
	"INR": "₹",
	"USD": "$",
	"AED": "AED ",
	"QAR": "QAR ",
}

// Caption builds the HTML summary sent alongside the ticket document.
func Caption(ticket *extract.Ticket) string {
	lines := []string{"<b>✈️ Flight Ticket Summary</b>"}
	if ticket.PassengerName != "" {
		lines = append(lines, "👤 "+html.EscapeString(ticket.PassengerName))
	}
	if ticket.BookingRef != "" {
		lines = append(lines, "🔖 Ref: "+html.EscapeString(ticket.BookingRef))
	}

	for _, seg := range ticket.Segments {
		from := seg.FromCode
		if from == "" {
			from = seg.FromCity
		}
		to := seg.ToCode
		if to == "" {
			to = seg.ToCity
		}
		lines = append(lines, fmt.Sprintf("\n🛫 <b>%s</b>", html.EscapeString(seg.Airline)))
		lines = append(lines, fmt.Sprintf("📍 %s → %s", html.EscapeString(from), html.EscapeString(to)))
		if seg.DepartureDate != "" {
			lines = append(lines, "📅 "+html.EscapeString(seg.DepartureDate))
		}
		if seg.DepartureTime != "" {
			lines = append(lines, fmt.Sprintf("🕐 Dep: %s  |  Arr: %s",
				html.EscapeString(seg.DepartureTime), html.EscapeString(seg.ArrivalTime)))
		}
		if seg.Duration != "" {
			lines = append(lines, fmt.Sprintf("⏱ %s  •  %s",
				html.EscapeString(seg.Duration), html.EscapeString(seg.Stops)))
		}
		var bag []string
		if seg.CabinBaggage != "" {
			bag = append(bag, "Cabin "+html.EscapeString(seg.CabinBaggage))
		}
		if seg.CheckinBaggage != "" {
			bag = append(bag, "Check-in "+html.EscapeString(seg.CheckinBaggage))
		}
		if len(bag) > 0 {
			lines = append(lines, "🧳 "+strings.Join(bag, " + "))
		}
	}

	if ticket.TotalPrice != "" {
		sym, ok := currencySymbols[ticket.Currency]
		if !ok && ticket.Currency != "" {
			sym = ticket.Currency + " "
		}
		lines = append(lines, fmt.Sprintf("\n💰 <b>%s%s</b>", sym, html.EscapeString(ticket.DisplayPrice())))
	}

	return strings.Join(lines, "\n")
}

// Filename derives the attachment name from the first segment's route and
// date, falling back to a generic name when nothing is known.
func Filename(ticket *extract.Ticket) string {
	if len(ticket.Segments) == 0 {
		return "ticket.pdf"
	}
	seg := ticket.Segments[0]
	parts := []string{"ticket"}
	if seg.FromCode != "" {
		parts = append(parts, seg.FromCode)
	} else {
		parts = append(parts, "XX")
	}
	if seg.ToCode != "" {
		parts = append(parts, seg.ToCode)
	} else {
		parts = append(parts, "XX")
	}
	if seg.DepartureDate != "" {
		parts = append(parts, strings.ReplaceAll(seg.DepartureDate, " ", "_"))
	}
	return strings.Join(parts, "_") + ".pdf"
}
