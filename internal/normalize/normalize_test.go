package normalize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/go-pdf/fpdf"

	"github.com/exileautomate/flightbot/internal/session"
)

func testImage(t *testing.T, encode func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, x, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := encode(&buf, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func testPDF(t *testing.T, pages int) []byte {
	t.Helper()
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 12)
	for i := 0; i < pages; i++ {
		doc.AddPage()
		doc.Cell(40, 10, fmt.Sprintf("page %d", i+1))
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("build test pdf: %v", err)
	}
	return buf.Bytes()
}

func TestNormalizeSingleImage(t *testing.T) {
	raw := testImage(t, func(buf *bytes.Buffer, img image.Image) error {
		return jpeg.Encode(buf, img, nil)
	})

	pages, err := Normalize(context.Background(), raw, session.KindImage, "shot.jpg")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if _, format, err := image.Decode(bytes.NewReader(pages[0].Data)); err != nil || format != "png" {
		t.Fatalf("expected PNG output, got format=%q err=%v", format, err)
	}
}

func TestNormalizePNGPassesThrough(t *testing.T) {
	raw := testImage(t, func(buf *bytes.Buffer, img image.Image) error {
		return png.Encode(buf, img)
	})

	pages, err := Normalize(context.Background(), raw, session.KindImage, "shot.png")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !bytes.Equal(pages[0].Data, raw) {
		t.Fatal("PNG input should not be re-encoded")
	}
}

func TestNormalizeUndecodableImageFallsBack(t *testing.T) {
	raw := []byte("definitely not an image")

	pages, err := Normalize(context.Background(), raw, session.KindImage, "mystery.bin")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(pages) != 1 || !bytes.Equal(pages[0].Data, raw) {
		t.Fatal("undecodable image must pass through unchanged")
	}
}

func TestNormalizePDFPageOrder(t *testing.T) {
	const pageCount = 3
	raw := testPDF(t, pageCount)

	pages, err := Normalize(context.Background(), raw, session.KindPDF, "ticket.pdf")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(pages) != pageCount {
		t.Fatalf("expected %d pages, got %d", pageCount, len(pages))
	}
	for i, p := range pages {
		if p.Page != i {
			t.Fatalf("page %d carries index %d", i, p.Page)
		}
		if p.Source != "ticket.pdf" {
			t.Fatalf("page %d source = %q", i, p.Source)
		}
		if _, format, err := image.Decode(bytes.NewReader(p.Data)); err != nil || format != "png" {
			t.Fatalf("page %d: expected PNG, got format=%q err=%v", i, format, err)
		}
	}
}

func TestNormalizeInvalidPDF(t *testing.T) {
	if _, err := Normalize(context.Background(), []byte("%PDF-bogus"), session.KindPDF, "broken.pdf"); err == nil {
		t.Fatal("expected error for invalid PDF")
	}
}

func TestNormalizeUnknownKind(t *testing.T) {
	if _, err := Normalize(context.Background(), []byte("x"), session.FileKind("video"), "clip.mp4"); err == nil {
		t.Fatal("expected error for unsupported kind")
	}
}
