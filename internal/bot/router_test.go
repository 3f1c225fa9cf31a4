package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/exileautomate/flightbot/internal/extract"
	"github.com/exileautomate/flightbot/internal/normalize"
	"github.com/exileautomate/flightbot/internal/session"
)

type fakeTransport struct {
	mu        sync.Mutex
	texts     []string
	actions   []string
	documents []*OutDocument

	files       map[string][]byte
	sendErr     error
	documentErr error

	// downloadFn, when set, replaces the map-backed Download.
	downloadFn func(ctx context.Context, fileID string) ([]byte, error)
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{files: make(map[string][]byte)}
}

func (f *fakeTransport) SendHTML(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeTransport) SendDocument(_ context.Context, doc *OutDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.documentErr != nil {
		return f.documentErr
	}
	f.documents = append(f.documents, doc)
	return nil
}

func (f *fakeTransport) Notify(_ context.Context, action string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
	return nil
}

func (f *fakeTransport) Download(ctx context.Context, fileID string) ([]byte, error) {
	if f.downloadFn != nil {
		return f.downloadFn(ctx, fileID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[fileID]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", fileID)
	}
	return data, nil
}

func (f *fakeTransport) lastText(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		t.Fatal("no messages sent")
	}
	return f.texts[len(f.texts)-1]
}

type fakeExtractor struct {
	ticket *extract.Ticket
	err    error

	mu       sync.Mutex
	gotPages int
}

func (f *fakeExtractor) Extract(_ context.Context, pages []normalize.PageImage) (*extract.Ticket, error) {
	f.mu.Lock()
	f.gotPages = len(pages)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.ticket, nil
}

// recordingStore tracks status transitions on top of the in-memory store.
type recordingStore struct {
	session.Store
	mu     sync.Mutex
	status []session.Status
}

func (r *recordingStore) SetStatus(ctx context.Context, id string, st session.Status) error {
	r.mu.Lock()
	r.status = append(r.status, st)
	r.mu.Unlock()
	return r.Store.SetStatus(ctx, id, st)
}

func (r *recordingStore) lastStatus(t *testing.T) session.Status {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.status) == 0 {
		t.Fatal("no status transitions recorded")
	}
	return r.status[len(r.status)-1]
}

func newTestRouter(ex Extractor) (*Router, *recordingStore) {
	store := &recordingStore{Store: session.NewMemoryStore()}
	mgr := session.NewManager(store, 15)
	return NewRouter(mgr, ex, "Exile Automate"), store
}

func TestStartSendsWelcome(t *testing.T) {
	r, _ := newTestRouter(&fakeExtractor{})
	tr := newFakeTransport()

	if err := r.Start(context.Background(), tr); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !strings.Contains(tr.lastText(t), "Welcome to the Flight Ticket Bot") {
		t.Fatalf("unexpected welcome: %s", tr.lastText(t))
	}
}

func TestReceiveFileConfirmsWithCount(t *testing.T) {
	r, _ := newTestRouter(&fakeExtractor{})
	tr := newFakeTransport()
	ctx := context.Background()
	in := Incoming{UserID: 1, ChatID: 10}

	for i := 1; i <= 3; i++ {
		err := r.ReceiveFile(ctx, tr, in, IncomingFile{FileID: fmt.Sprintf("f%d", i), Kind: session.KindImage, Name: "photo.jpg"})
		if err != nil {
			t.Fatalf("ReceiveFile %d: %v", i, err)
		}
		want := fmt.Sprintf("File %d received", i)
		if !strings.Contains(tr.lastText(t), want) {
			t.Fatalf("confirmation %d missing %q: %s", i, want, tr.lastText(t))
		}
	}
	if len(tr.actions) != 3 || tr.actions[0] != actionTyping {
		t.Fatalf("expected typing actions, got %v", tr.actions)
	}
}

func TestReceiveFileCapacity(t *testing.T) {
	r, _ := newTestRouter(&fakeExtractor{})
	tr := newFakeTransport()
	ctx := context.Background()
	in := Incoming{UserID: 2, ChatID: 20}

	for i := 0; i < 15; i++ {
		file := IncomingFile{FileID: fmt.Sprintf("f%d", i), Kind: session.KindImage, Name: "photo.jpg"}
		if err := r.ReceiveFile(ctx, tr, in, file); err != nil {
			t.Fatalf("ReceiveFile %d: %v", i, err)
		}
	}

	overflow := IncomingFile{FileID: "f15", Kind: session.KindImage, Name: "photo.jpg"}
	if err := r.ReceiveFile(ctx, tr, in, overflow); err != nil {
		t.Fatalf("ReceiveFile overflow: %v", err)
	}
	if !strings.Contains(tr.lastText(t), "Maximum 15 files") {
		t.Fatalf("expected capacity message, got: %s", tr.lastText(t))
	}

	s, err := r.sessions.GetActive(ctx, in.UserID)
	if err != nil || s == nil {
		t.Fatalf("GetActive: %v %v", s, err)
	}
	if len(s.Files) != 15 {
		t.Fatalf("overflow file was appended: %d files", len(s.Files))
	}
}

func TestNewStartsFreshSession(t *testing.T) {
	r, _ := newTestRouter(&fakeExtractor{})
	tr := newFakeTransport()
	ctx := context.Background()
	in := Incoming{UserID: 3, ChatID: 30}

	for i := 0; i < 3; i++ {
		file := IncomingFile{FileID: fmt.Sprintf("f%d", i), Kind: session.KindImage, Name: "photo.jpg"}
		if err := r.ReceiveFile(ctx, tr, in, file); err != nil {
			t.Fatalf("ReceiveFile: %v", err)
		}
	}

	if err := r.New(ctx, tr, in); err != nil {
		t.Fatalf("New: %v", err)
	}
	if !strings.Contains(tr.lastText(t), "Session cleared") {
		t.Fatalf("expected confirmation, got: %s", tr.lastText(t))
	}

	file := IncomingFile{FileID: "fresh", Kind: session.KindPDF, Name: "ticket.pdf"}
	if err := r.ReceiveFile(ctx, tr, in, file); err != nil {
		t.Fatalf("ReceiveFile after New: %v", err)
	}
	if !strings.Contains(tr.lastText(t), "File 1 received") {
		t.Fatalf("upload after /new did not start fresh: %s", tr.lastText(t))
	}
}

func TestHintAndUnsupported(t *testing.T) {
	r, _ := newTestRouter(&fakeExtractor{})
	tr := newFakeTransport()
	ctx := context.Background()

	if err := r.Hint(ctx, tr); err != nil {
		t.Fatalf("Hint: %v", err)
	}
	if !strings.Contains(tr.lastText(t), "/analyze") {
		t.Fatalf("hint should mention /analyze: %s", tr.lastText(t))
	}

	if err := r.Unsupported(ctx, tr); err != nil {
		t.Fatalf("Unsupported: %v", err)
	}
	if !strings.Contains(tr.lastText(t), "Unsupported file type") {
		t.Fatalf("unexpected reply: %s", tr.lastText(t))
	}
}
