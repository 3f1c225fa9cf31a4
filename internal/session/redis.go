package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// redisStore keeps each session under session:<id> and a per-user pointer to
// the active collecting session under session:active:<user>. Both keys carry
// the session TTL, so an idle session expires as a whole.
type redisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore constructs a key-value Store with best-effort TTL expiry.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &redisStore{rdb: rdb, ttl: ttl}
}

func sessionKey(id string) string { return "session:" + id }

func activeKey(userID int64) string { return fmt.Sprintf("session:active:%d", userID) }

func (r *redisStore) load(ctx context.Context, id string) (*Session, error) {
	raw, err := r.rdb.Get(ctx, sessionKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (r *redisStore) save(ctx context.Context, s *Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.rdb.Set(ctx, sessionKey(s.ID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

func (r *redisStore) GetActive(ctx context.Context, userID int64) (*Session, error) {
	id, err := r.rdb.Get(ctx, activeKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active pointer: %w", err)
	}
	s, err := r.load(ctx, id)
	if errors.Is(err, ErrNotFound) {
		// Session key expired ahead of the pointer.
		_ = r.rdb.Del(ctx, activeKey(userID)).Err()
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if s.Status != StatusCollecting {
		return nil, nil
	}
	return s, nil
}

func (r *redisStore) Create(ctx context.Context, userID, chatID int64) (*Session, error) {
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
	if err := r.save(ctx, s); err != nil {
		return nil, err
	}
	if err := r.rdb.Set(ctx, activeKey(userID), s.ID, r.ttl).Err(); err != nil {
		return nil, fmt.Errorf("set active pointer: %w", err)
	}
	return s, nil
}

func (r *redisStore) AppendFile(ctx context.Context, sessionID string, ref FileRef) (*Session, error) {
	s, err := r.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.Files = append(s.Files, ref)
	s.UpdatedAt = time.Now().UTC()
	if err := r.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *redisStore) SetStatus(ctx context.Context, sessionID string, status Status) error {
	s, err := r.load(ctx, sessionID)
	if err != nil {
		return err
	}
	s.Status = status
	s.UpdatedAt = time.Now().UTC()
	if err := r.save(ctx, s); err != nil {
		return err
	}
	if status.Terminal() {
		if id, err := r.rdb.Get(ctx, activeKey(s.UserID)).Result(); err == nil && id == s.ID {
			_ = r.rdb.Del(ctx, activeKey(s.UserID)).Err()
		}
	}
	return nil
}

func (r *redisStore) AbandonAll(ctx context.Context, userID int64) error {
	id, err := r.rdb.Get(ctx, activeKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get active pointer: %w", err)
	}
	s, err := r.load(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return r.rdb.Del(ctx, activeKey(userID)).Err()
		}
		return err
	}
	if s.Status == StatusCollecting {
		s.Status = StatusAbandoned
		s.UpdatedAt = time.Now().UTC()
		if err := r.save(ctx, s); err != nil {
			return err
		}
	}
	return r.rdb.Del(ctx, activeKey(userID)).Err()
}
