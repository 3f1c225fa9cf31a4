package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type postgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore constructs a Store over the sessions table. File appends
// use a jsonb concatenation so the append itself is atomic on the row.
func NewPostgresStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

// sessionRow mirrors the sessions table; files arrive as a jsonb blob.
type sessionRow struct {
	ID        string    `db:"id"`
	UserID    int64     `db:"user_id"`
	ChatID    int64     `db:"chat_id"`
	Status    string    `db:"status"`
	Files     []byte    `db:"files"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r sessionRow) toSession() (*Session, error) {
	files := []FileRef{}
	if len(r.Files) > 0 {
		if err := json.Unmarshal(r.Files, &files); err != nil {
			return nil, fmt.Errorf("decode files column: %w", err)
		}
	}
	return &Session{
		ID:        r.ID,
		UserID:    r.UserID,
		ChatID:    r.ChatID,
		Status:    Status(r.Status),
		Files:     files,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

func (p *postgresStore) GetActive(ctx context.Context, userID int64) (*Session, error) {
	var row sessionRow
	err := p.db.GetContext(ctx, &row, `
		SELECT id, user_id, chat_id, status, files, created_at, updated_at
		FROM sessions
		WHERE user_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT 1`, userID, StatusCollecting)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select active session: %w", err)
	}
	return row.toSession()
}

func (p *postgresStore) Create(ctx context.Context, userID, chatID int64) (*Session, error) {
	var row sessionRow
	err := p.db.GetContext(ctx, &row, `
		INSERT INTO sessions (id, user_id, chat_id, files, status)
		VALUES ($1, $2, $3, '[]'::jsonb, $4)
		RETURNING id, user_id, chat_id, status, files, created_at, updated_at`,
		uuid.NewString(), userID, chatID, StatusCollecting)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return row.toSession()
}

func (p *postgresStore) AppendFile(ctx context.Context, sessionID string, ref FileRef) (*Session, error) {
	payload, err := json.Marshal(ref)
	if err != nil {
		return nil, fmt.Errorf("encode file ref: %w", err)
	}
	var row sessionRow
	err = p.db.GetContext(ctx, &row, `
		UPDATE sessions
		SET files = files || $2::jsonb, updated_at = now()
		WHERE id = $1
		RETURNING id, user_id, chat_id, status, files, created_at, updated_at`,
		sessionID, string(payload))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("append file: %w", err)
	}
	return row.toSession()
}

func (p *postgresStore) SetStatus(ctx context.Context, sessionID string, status Status) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE sessions SET status = $2, updated_at = now() WHERE id = $1`,
		sessionID, status)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *postgresStore) AbandonAll(ctx context.Context, userID int64) error {
	_, err := p.db.ExecContext(ctx, `
		UPDATE sessions SET status = $3, updated_at = now()
		WHERE user_id = $1 AND status = $2`,
		userID, StatusCollecting, StatusAbandoned)
	if err != nil {
		return fmt.Errorf("abandon sessions: %w", err)
	}
	return nil
}
