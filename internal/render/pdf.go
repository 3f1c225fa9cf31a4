// Package render formats an extracted ticket for delivery: the branded PDF
// document, the Telegram caption, and the attachment filename.
package render

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/exileautomate/flightbot/internal/extract"
)

// Palette mirrors the agency branding used in the document.
var (
	colNavy   = rgb{13, 27, 62}
	colGold   = rgb{200, 150, 62}
	colLGray  = rgb{244, 246, 250}
	colMGray  = rgb{136, 146, 164}
	colDGray  = rgb{45, 55, 72}
	colBorder = rgb{209, 217, 230}
)

type rgb struct{ r, g, b int }

// PDF renders the ticket summary as A4 PDF bytes.
func PDF(ticket *extract.Ticket, agencyName string) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(20, 18, 20)
	doc.SetAutoPageBreak(true, 18)
	doc.AddPage()

	usable := 170.0 // page width minus margins

	// Header
	setText(doc, colNavy)
	doc.SetFont("Helvetica", "B", 24)
	doc.CellFormat(usable, 10, agencyName, "", 1, "C", false, 0, "")
	setText(doc, colMGray)
	doc.SetFont("Helvetica", "", 9)
	doc.CellFormat(usable, 5, "Flight Ticket Summary", "", 1, "C", false, 0, "")
	doc.Ln(3)
	setDraw(doc, colGold)
	doc.SetLineWidth(0.8)
	x, y := doc.GetX(), doc.GetY()
	doc.Line(x, y, x+usable, y)
	doc.Ln(6)

	// Passenger / booking reference row
	if ticket.PassengerName != "" || ticket.BookingRef != "" {
		half := usable / 2
		label(doc, half, "PASSENGER", "L")
		label(doc, half, "BOOKING REF", "R")
		doc.Ln(4)
		value(doc, half, orDash(ticket.PassengerName), 12, "L")
		value(doc, half, orDash(ticket.BookingRef), 12, "R")
		doc.Ln(9)
	}

	for i, seg := range ticket.Segments {
		renderSegment(doc, usable, i, len(ticket.Segments), seg)
	}

	// Price footer
	if ticket.TotalPrice != "" {
		doc.Ln(4)
		setFill(doc, colNavy)
		doc.SetTextColor(255, 255, 255)
		doc.SetFont("Helvetica", "B", 13)
		price := ticket.DisplayPrice()
		if ticket.Currency != "" {
			price = ticket.Currency + " " + price
		}
		doc.CellFormat(usable, 12, "TOTAL   "+price, "", 1, "C", true, 0, "")
	}

	doc.Ln(6)
	setText(doc, colMGray)
	doc.SetFont("Helvetica", "", 7)
	doc.CellFormat(usable, 4, "Generated by "+agencyName+" - details as extracted from the supplied documents", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func renderSegment(doc *fpdf.Fpdf, usable float64, idx, total int, seg extract.Segment) {
	if total > 1 {
		setText(doc, colMGray)
		doc.SetFont("Helvetica", "B", 8)
		header := "OUTBOUND FLIGHT"
		if idx > 0 {
			header = "RETURN FLIGHT"
		}
		doc.CellFormat(usable, 5, header, "", 1, "L", false, 0, "")
		doc.Ln(1)
	}

	// Airline and flight number
	setText(doc, colDGray)
	doc.SetFont("Helvetica", "B", 13)
	airline := seg.Airline
	if airline == "" {
		airline = "Unknown Airline"
	}
	if seg.FlightNumber != "" {
		airline += "   " + seg.FlightNumber
	}
	doc.CellFormat(usable, 7, airline, "", 1, "L", false, 0, "")
	doc.Ln(1)

	// Date badge
	setFill(doc, colNavy)
	doc.SetTextColor(255, 255, 255)
	doc.SetFont("Helvetica", "B", 9)
	doc.CellFormat(48, 7, orDash(seg.DepartureDate), "", 1, "C", true, 0, "")
	doc.Ln(2)

	// Route
	from := seg.FromCode
	if from == "" {
		from = seg.FromCity
	}
	to := seg.ToCode
	if to == "" {
		to = seg.ToCity
	}
	setText(doc, colNavy)
	doc.SetFont("Helvetica", "B", 28)
	doc.CellFormat(usable, 12, orDash(from)+"  ->  "+orDash(to), "", 1, "L", false, 0, "")
	if seg.FromCity != "" || seg.ToCity != "" {
		setText(doc, colMGray)
		doc.SetFont("Helvetica", "", 9)
		doc.CellFormat(usable, 5, seg.FromCity+" - "+seg.ToCity, "", 1, "L", false, 0, "")
	}
	doc.Ln(2)

	// Times and stops on a light panel
	setFill(doc, colLGray)
	setDraw(doc, colBorder)
	doc.SetLineWidth(0.2)
	third := usable / 3
	label(doc, third, "DEPARTURE", "L")
	label(doc, third, "ARRIVAL", "L")
	label(doc, third, "DURATION / STOPS", "L")
	doc.Ln(4)
	setText(doc, colDGray)
	doc.SetFont("Helvetica", "B", 11)
	duration := seg.Duration
	if seg.Stops != "" {
		if duration != "" {
			duration += "  -  "
		}
		duration += seg.Stops
	}
	doc.CellFormat(third, 7, orDash(seg.DepartureTime), "", 0, "L", false, 0, "")
	doc.CellFormat(third, 7, orDash(seg.ArrivalTime), "", 0, "L", false, 0, "")
	doc.CellFormat(third, 7, orDash(duration), "", 1, "L", false, 0, "")
	doc.Ln(2)

	// Baggage
	if seg.CabinBaggage != "" || seg.CheckinBaggage != "" {
		half := usable / 2
		label(doc, half, "CABIN BAGGAGE", "L")
		label(doc, half, "CHECK-IN BAGGAGE", "L")
		doc.Ln(4)
		setText(doc, colDGray)
		doc.SetFont("Helvetica", "B", 10)
		doc.CellFormat(half, 6, orDash(seg.CabinBaggage), "", 0, "L", false, 0, "")
		doc.CellFormat(half, 6, orDash(seg.CheckinBaggage), "", 1, "L", false, 0, "")
	}
	doc.Ln(6)
}

func label(doc *fpdf.Fpdf, w float64, text, align string) {
	setText(doc, colMGray)
	doc.SetFont("Helvetica", "", 7)
	doc.CellFormat(w, 4, text, "", 0, align, false, 0, "")
}

func value(doc *fpdf.Fpdf, w float64, text string, size float64, align string) {
	setText(doc, colDGray)
	doc.SetFont("Helvetica", "B", size)
	doc.CellFormat(w, 6, text, "", 0, align, false, 0, "")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func setText(doc *fpdf.Fpdf, c rgb) { doc.SetTextColor(c.r, c.g, c.b) }
func setFill(doc *fpdf.Fpdf, c rgb) { doc.SetFillColor(c.r, c.g, c.b) }
func setDraw(doc *fpdf.Fpdf, c rgb) { doc.SetDrawColor(c.r, c.g, c.b) }
