package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/exileautomate/flightbot/core/logger"
)

// Manager enforces the state machine rules on top of a Store: the file cap,
// ordered appends under concurrent uploads from the same user, and the
// single-analyze-in-flight guard per session.
type Manager struct {
	store    Store
	maxFiles int

	mu       sync.Mutex
	userLock map[int64]*sync.Mutex

	inflightMu sync.Mutex
	inflight   map[string]struct{}
}

// NewManager wraps the store. maxFiles <= 0 falls back to 15.
func NewManager(store Store, maxFiles int) *Manager {
	if maxFiles <= 0 {
		maxFiles = 15
	}
	return &Manager{
		store:    store,
		maxFiles: maxFiles,
		userLock: make(map[int64]*sync.Mutex),
		inflight: make(map[string]struct{}),
	}
}

// MaxFiles returns the per-session file cap.
func (m *Manager) MaxFiles() int {
	return m.maxFiles
}

// lockUser returns the mutex serializing all session writes for one user.
// Locks are never released from the map; the population is bounded by the
// active user count of a single process.
func (m *Manager) lockUser(userID int64) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.userLock[userID]
	if !ok {
		l = &sync.Mutex{}
		m.userLock[userID] = l
	}
	return l
}

// GetActive returns the unique collecting session for the user or nil.
func (m *Manager) GetActive(ctx context.Context, userID int64) (*Session, error) {
	return m.store.GetActive(ctx, userID)
}

// GetOrCreate returns the active session or creates a new empty one. The
// per-user lock keeps two racing uploads from creating duplicate sessions.
func (m *Manager) GetOrCreate(ctx context.Context, userID, chatID int64) (*Session, error) {
	l := m.lockUser(userID)
	l.Lock()
	defer l.Unlock()

	s, err := m.store.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s != nil {
		return s, nil
	}
	s, err = m.store.Create(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	logger.LogEvent(ctx, logger.SESS, slog.LevelInfo, "session.create",
		slog.String("session_id", s.ID),
		slog.Int64("user_id", userID),
	)
	return s, nil
}

// AddFile appends one file reference, enforcing the cap. The read-modify-
// write runs under the owning user's lock so rapid sequential uploads are
// applied in receipt order without lost appends.
func (m *Manager) AddFile(ctx context.Context, s *Session, ref FileRef) (*Session, error) {
	l := m.lockUser(s.UserID)
	l.Lock()
	defer l.Unlock()

	current, err := m.store.GetActive(ctx, s.UserID)
	if err != nil {
		return nil, err
	}
	if current == nil || current.ID != s.ID {
		// Session was replaced or abandoned while the upload was in flight.
		return nil, ErrNotFound
	}
	if len(current.Files) >= m.maxFiles {
		return nil, ErrCapacityExceeded
	}
	updated, err := m.store.AppendFile(ctx, current.ID, ref)
	if err != nil {
		return nil, fmt.Errorf("add file: %w", err)
	}
	return updated, nil
}

// SetStatus transitions the session unconditionally. Transitions out of a
// terminal state are debug-logged to catch router bugs, not rejected.
func (m *Manager) SetStatus(ctx context.Context, s *Session, status Status) error {
	if s.Status.Terminal() {
		logger.LogEvent(ctx, logger.SESS, slog.LevelDebug, "session.status.terminal",
			slog.String("session_id", s.ID),
			slog.String("from", string(s.Status)),
			slog.String("to", string(status)),
		)
	}
	if err := m.store.SetStatus(ctx, s.ID, status); err != nil {
		return err
	}
	s.Status = status
	return nil
}

// AbandonAll marks every collecting session of the user abandoned, ensuring
// the next upload starts from a clean slate.
func (m *Manager) AbandonAll(ctx context.Context, userID int64) error {
	l := m.lockUser(userID)
	l.Lock()
	defer l.Unlock()
	return m.store.AbandonAll(ctx, userID)
}

// BeginAnalyze marks the session's analyze pipeline as in flight. It returns
// false when a run is already active, so duplicate /analyze requests are
// rejected instead of re-entering the pipeline.
func (m *Manager) BeginAnalyze(sessionID string) bool {
	m.inflightMu.Lock()
	defer m.inflightMu.Unlock()
	if _, busy := m.inflight[sessionID]; busy {
		return false
	}
	m.inflight[sessionID] = struct{}{}
	return true
}

// EndAnalyze releases the in-flight marker set by BeginAnalyze.
func (m *Manager) EndAnalyze(sessionID string) {
	m.inflightMu.Lock()
	defer m.inflightMu.Unlock()
	delete(m.inflight, sessionID)
}
