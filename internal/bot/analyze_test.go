package bot

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/exileautomate/flightbot/internal/extract"
	"github.com/exileautomate/flightbot/internal/session"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(1, 1, color.Black)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func twoSegmentTicket() *extract.Ticket {
	return &extract.Ticket{
		BookingRef:    "ABC123",
		PassengerName: "Jane Traveller",
		TotalPrice:    "14000",
		Currency:      "INR",
		Segments: []extract.Segment{
			{Airline: "Air India Express", FromCode: "CNN", ToCode: "DOH", DepartureDate: "02 Mar 2025"},
			{Airline: "Air India Express", FromCode: "DOH", ToCode: "CNN", DepartureDate: "09 Mar 2025"},
		},
	}
}

// seedSession uploads n image files for the user and returns the session.
func seedSession(t *testing.T, r *Router, tr *fakeTransport, in Incoming, n int) *session.Session {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("file-%d", i)
		tr.files[id] = pngBytes(t)
		file := IncomingFile{FileID: id, Kind: session.KindImage, Name: "photo.jpg"}
		if err := r.ReceiveFile(ctx, tr, in, file); err != nil {
			t.Fatalf("ReceiveFile %d: %v", i, err)
		}
	}
	s, err := r.sessions.GetActive(ctx, in.UserID)
	if err != nil || s == nil {
		t.Fatalf("no active session: %v %v", s, err)
	}
	return s
}

func TestAnalyzeNoFiles(t *testing.T) {
	r, _ := newTestRouter(&fakeExtractor{})
	tr := newFakeTransport()

	if err := r.Analyze(context.Background(), tr, Incoming{UserID: 1}); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !strings.Contains(tr.lastText(t), "No files found") {
		t.Fatalf("expected no-files reply, got: %s", tr.lastText(t))
	}
}

func TestAnalyzeHappyPath(t *testing.T) {
	ex := &fakeExtractor{ticket: twoSegmentTicket()}
	r, store := newTestRouter(ex)
	tr := newFakeTransport()
	in := Incoming{UserID: 1, ChatID: 10}
	seedSession(t, r, tr, in, 2)

	if err := r.Analyze(context.Background(), tr, in); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if ex.gotPages != 2 {
		t.Fatalf("extractor received %d pages, want 2", ex.gotPages)
	}
	if len(tr.documents) != 1 {
		t.Fatalf("expected one document, got %d", len(tr.documents))
	}
	doc := tr.documents[0]
	if doc.Name != "ticket_CNN_DOH_02_Mar_2025.pdf" {
		t.Fatalf("filename = %q", doc.Name)
	}
	if !strings.Contains(doc.Caption, "Flight Ticket Summary") {
		t.Fatalf("caption missing summary header: %s", doc.Caption)
	}
	if !bytes.HasPrefix(doc.Data, []byte("%PDF")) {
		t.Fatal("document payload is not a PDF")
	}
	if got := store.lastStatus(t); got != session.StatusDone {
		t.Fatalf("final status = %q, want done", got)
	}

	var sawProcessing bool
	for _, text := range tr.texts {
		if strings.Contains(text, "Processing <b>2 file(s)</b>") {
			sawProcessing = true
		}
	}
	if !sawProcessing {
		t.Fatalf("missing processing notice in %v", tr.texts)
	}
}

func TestAnalyzeNoFlightData(t *testing.T) {
	r, store := newTestRouter(&fakeExtractor{err: extract.ErrNoFlightData})
	tr := newFakeTransport()
	in := Incoming{UserID: 2, ChatID: 20}
	seedSession(t, r, tr, in, 1)

	if err := r.Analyze(context.Background(), tr, in); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !strings.Contains(tr.lastText(t), "couldn't identify flight details") {
		t.Fatalf("expected no-data reply, got: %s", tr.lastText(t))
	}
	if got := store.lastStatus(t); got != session.StatusError {
		t.Fatalf("final status = %q, want error", got)
	}
}

func TestAnalyzeMalformedExtraction(t *testing.T) {
	failure := fmt.Errorf("decode: %w", extract.ErrMalformedExtraction)
	r, store := newTestRouter(&fakeExtractor{err: failure})
	tr := newFakeTransport()
	in := Incoming{UserID: 3, ChatID: 30}
	seedSession(t, r, tr, in, 1)

	if err := r.Analyze(context.Background(), tr, in); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !strings.Contains(tr.lastText(t), "Processing failed") {
		t.Fatalf("expected failure reply, got: %s", tr.lastText(t))
	}
	if got := store.lastStatus(t); got != session.StatusError {
		t.Fatalf("final status = %q, want error", got)
	}
}

func TestAnalyzeSkipsFailedDownloads(t *testing.T) {
	ex := &fakeExtractor{ticket: twoSegmentTicket()}
	r, _ := newTestRouter(ex)
	tr := newFakeTransport()
	in := Incoming{UserID: 4, ChatID: 40}
	seedSession(t, r, tr, in, 2)

	// One of the two files vanishes from storage before analyze runs.
	delete(tr.files, "file-1")

	if err := r.Analyze(context.Background(), tr, in); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if ex.gotPages != 1 {
		t.Fatalf("extractor received %d pages, want 1", ex.gotPages)
	}
	if len(tr.documents) != 1 {
		t.Fatalf("expected delivery despite one failed download, got %d", len(tr.documents))
	}
}

func TestAnalyzeAllDownloadsFail(t *testing.T) {
	r, store := newTestRouter(&fakeExtractor{ticket: twoSegmentTicket()})
	tr := newFakeTransport()
	in := Incoming{UserID: 5, ChatID: 50}
	seedSession(t, r, tr, in, 2)
	delete(tr.files, "file-0")
	delete(tr.files, "file-1")

	if err := r.Analyze(context.Background(), tr, in); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !strings.Contains(tr.lastText(t), "Could not read any of the uploaded files") {
		t.Fatalf("expected unreadable reply, got: %s", tr.lastText(t))
	}
	if got := store.lastStatus(t); got != session.StatusError {
		t.Fatalf("final status = %q, want error", got)
	}
}

func TestAnalyzeRejectsConcurrentRun(t *testing.T) {
	r, _ := newTestRouter(&fakeExtractor{ticket: twoSegmentTicket()})
	tr := newFakeTransport()
	in := Incoming{UserID: 6, ChatID: 60}
	s := seedSession(t, r, tr, in, 1)

	if !r.sessions.BeginAnalyze(s.ID) {
		t.Fatal("could not take the in-flight marker")
	}
	defer r.sessions.EndAnalyze(s.ID)

	if err := r.Analyze(context.Background(), tr, in); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !strings.Contains(tr.lastText(t), "Already processing") {
		t.Fatalf("expected busy reply, got: %s", tr.lastText(t))
	}
	if len(tr.documents) != 0 {
		t.Fatal("busy run must not deliver a document")
	}
}

func TestAnalyzeDownloadTimeout(t *testing.T) {
	r, store := newTestRouter(&fakeExtractor{ticket: twoSegmentTicket()})
	tr := newFakeTransport()
	in := Incoming{UserID: 8, ChatID: 80}
	seedSession(t, r, tr, in, 2)

	// Downloads hang until the phase deadline cancels them.
	r.downloads = 50 * time.Millisecond
	tr.downloadFn = func(ctx context.Context, _ string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	done := make(chan error, 1)
	go func() { done <- r.Analyze(context.Background(), tr, in) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("analyze did not return after the download deadline")
	}

	if !strings.Contains(tr.lastText(t), "Could not read any of the uploaded files") {
		t.Fatalf("expected unreadable reply, got: %s", tr.lastText(t))
	}
	if got := store.lastStatus(t); got != session.StatusError {
		t.Fatalf("final status = %q, want error", got)
	}
}

func TestAnalyzeDeliveryFailure(t *testing.T) {
	r, store := newTestRouter(&fakeExtractor{ticket: twoSegmentTicket()})
	tr := newFakeTransport()
	in := Incoming{UserID: 7, ChatID: 70}
	seedSession(t, r, tr, in, 1)
	tr.documentErr = fmt.Errorf("telegram: Request Entity Too Large (413)")

	if err := r.Analyze(context.Background(), tr, in); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !strings.Contains(tr.lastText(t), "Processing failed") {
		t.Fatalf("expected failure reply, got: %s", tr.lastText(t))
	}
	if got := store.lastStatus(t); got != session.StatusError {
		t.Fatalf("final status = %q, want error", got)
	}
}
