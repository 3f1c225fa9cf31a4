package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestGetOrCreateSingleActiveSession(t *testing.T) {
	m := NewManager(NewMemoryStore(), 15)
	ctx := context.Background()

	const workers = 16
	ids := make([]string, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			s, err := m.GetOrCreate(ctx, 1, 100)
			if err != nil {
				t.Errorf("GetOrCreate: %v", err)
				return
			}
			ids[i] = s.ID
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("concurrent GetOrCreate produced distinct sessions: %s vs %s", ids[i], ids[0])
		}
	}

	active, err := m.GetActive(ctx, 1)
	if err != nil {
		t.Fatalf("GetActive: %v", err)
	}
	if active == nil || active.ID != ids[0] {
		t.Fatalf("expected active session %s, got %+v", ids[0], active)
	}
}

func TestAddFilePreservesOrder(t *testing.T) {
	m := NewManager(NewMemoryStore(), 50)
	ctx := context.Background()

	s, err := m.GetOrCreate(ctx, 7, 700)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	const n = 20
	for i := 0; i < n; i++ {
		s, err = m.AddFile(ctx, s, FileRef{FileID: fmt.Sprintf("file-%02d", i), Kind: KindImage, Name: "photo.jpg"})
		if err != nil {
			t.Fatalf("AddFile %d: %v", i, err)
		}
	}

	if len(s.Files) != n {
		t.Fatalf("expected %d files, got %d", n, len(s.Files))
	}
	for i, f := range s.Files {
		want := fmt.Sprintf("file-%02d", i)
		if f.FileID != want {
			t.Fatalf("file %d = %s, want %s", i, f.FileID, want)
		}
	}
}

func TestAddFileNoLostUpdatesUnderConcurrency(t *testing.T) {
	m := NewManager(NewMemoryStore(), 100)
	ctx := context.Background()

	s, err := m.GetOrCreate(ctx, 3, 300)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	const n = 40
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			if _, err := m.AddFile(ctx, s, FileRef{FileID: fmt.Sprintf("f%d", i), Kind: KindImage, Name: "p.jpg"}); err != nil {
				t.Errorf("AddFile: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, err := m.GetActive(ctx, 3)
	if err != nil {
		t.Fatalf("GetActive: %v", err)
	}
	if len(got.Files) != n {
		t.Fatalf("lost appends: expected %d files, got %d", n, len(got.Files))
	}
}

func TestAddFileCapacity(t *testing.T) {
	m := NewManager(NewMemoryStore(), 15)
	ctx := context.Background()

	s, err := m.GetOrCreate(ctx, 9, 900)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	for i := 0; i < 15; i++ {
		if s, err = m.AddFile(ctx, s, FileRef{FileID: fmt.Sprintf("f%d", i), Kind: KindPDF, Name: "t.pdf"}); err != nil {
			t.Fatalf("AddFile %d: %v", i, err)
		}
	}

	if _, err := m.AddFile(ctx, s, FileRef{FileID: "overflow", Kind: KindImage, Name: "x.png"}); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	got, err := m.GetActive(ctx, 9)
	if err != nil {
		t.Fatalf("GetActive: %v", err)
	}
	if len(got.Files) != 15 {
		t.Fatalf("file list grew past the cap: %d", len(got.Files))
	}
}

func TestAbandonAllStartsFresh(t *testing.T) {
	m := NewManager(NewMemoryStore(), 15)
	ctx := context.Background()

	s, err := m.GetOrCreate(ctx, 4, 400)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	for i := 0; i < 3; i++ {
		if s, err = m.AddFile(ctx, s, FileRef{FileID: fmt.Sprintf("f%d", i), Kind: KindImage, Name: "p.jpg"}); err != nil {
			t.Fatalf("AddFile: %v", err)
		}
	}

	if err := m.AbandonAll(ctx, 4); err != nil {
		t.Fatalf("AbandonAll: %v", err)
	}
	if active, _ := m.GetActive(ctx, 4); active != nil {
		t.Fatalf("expected no active session after abandon, got %+v", active)
	}

	fresh, err := m.GetOrCreate(ctx, 4, 400)
	if err != nil {
		t.Fatalf("GetOrCreate after abandon: %v", err)
	}
	if fresh.ID == s.ID {
		t.Fatal("expected a brand-new session after abandon")
	}
	fresh, err = m.AddFile(ctx, fresh, FileRef{FileID: "new", Kind: KindImage, Name: "p.jpg"})
	if err != nil {
		t.Fatalf("AddFile on fresh session: %v", err)
	}
	if len(fresh.Files) != 1 {
		t.Fatalf("fresh session should hold exactly one file, got %d", len(fresh.Files))
	}
}

func TestAddFileAfterReplacementRejected(t *testing.T) {
	m := NewManager(NewMemoryStore(), 15)
	ctx := context.Background()

	stale, err := m.GetOrCreate(ctx, 5, 500)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if err := m.AbandonAll(ctx, 5); err != nil {
		t.Fatalf("AbandonAll: %v", err)
	}
	if _, err := m.AddFile(ctx, stale, FileRef{FileID: "f", Kind: KindImage, Name: "p.jpg"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for stale session, got %v", err)
	}
}

func TestStatusTransitions(t *testing.T) {
	m := NewManager(NewMemoryStore(), 15)
	ctx := context.Background()

	s, err := m.GetOrCreate(ctx, 6, 600)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if err := m.SetStatus(ctx, s, StatusProcessing); err != nil {
		t.Fatalf("SetStatus processing: %v", err)
	}
	// Processing sessions are no longer active for collection.
	if active, _ := m.GetActive(ctx, 6); active != nil {
		t.Fatalf("processing session still reported active: %+v", active)
	}
	if err := m.SetStatus(ctx, s, StatusDone); err != nil {
		t.Fatalf("SetStatus done: %v", err)
	}
	if !s.Status.Terminal() {
		t.Fatal("done should be terminal")
	}
}

func TestAnalyzeReentrancyGuard(t *testing.T) {
	m := NewManager(NewMemoryStore(), 15)

	if !m.BeginAnalyze("sess-1") {
		t.Fatal("first BeginAnalyze should succeed")
	}
	if m.BeginAnalyze("sess-1") {
		t.Fatal("second BeginAnalyze should be rejected while in flight")
	}
	if !m.BeginAnalyze("sess-2") {
		t.Fatal("unrelated session should not be blocked")
	}
	m.EndAnalyze("sess-1")
	if !m.BeginAnalyze("sess-1") {
		t.Fatal("BeginAnalyze should succeed again after EndAnalyze")
	}
}
