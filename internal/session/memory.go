package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore constructs a single-process in-memory Store. It backs the
// memory strategy and the test suites; it offers no durability.
func NewMemoryStore() Store {
	return &memoryStore{sessions: make(map[string]*Session)}
}

func (m *memoryStore) GetActive(_ context.Context, userID int64) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var active []*Session
	for _, s := range m.sessions {
		if s.UserID == userID && s.Status == StatusCollecting {
			active = append(active, s)
		}
	}
	if len(active) == 0 {
		return nil, nil
	}
	sort.Slice(active, func(i, j int) bool { return active[i].CreatedAt.After(active[j].CreatedAt) })
	return cloneSession(active[0]), nil
}

func (m *memoryStore) Create(_ context.Context, userID, chatID int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	s := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ChatID:    chatID,
		Status:    StatusCollecting,
		Files:     []FileRef{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.sessions[s.ID] = s
	return cloneSession(s), nil
}

func (m *memoryStore) AppendFile(_ context.Context, sessionID string, ref FileRef) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	s.Files = append(s.Files, ref)
	s.UpdatedAt = time.Now().UTC()
	return cloneSession(s), nil
}

func (m *memoryStore) SetStatus(_ context.Context, sessionID string, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	s.Status = status
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memoryStore) AbandonAll(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	for _, s := range m.sessions {
		if s.UserID == userID && s.Status == StatusCollecting {
			s.Status = StatusAbandoned
			s.UpdatedAt = now
		}
	}
	return nil
}

func cloneSession(s *Session) *Session {
	out := *s
	out.Files = append([]FileRef(nil), s.Files...)
	return &out
}
