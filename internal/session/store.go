package session

import "context"

// Store is the persistence strategy behind the Manager. Implementations
// must keep Files in append order; they are free to assume the Manager
// serializes writes for a given user.
type Store interface {
	// GetActive returns the collecting-status session for the user, the most
	// recently created one if duplicates exist, or (nil, nil) when none.
	GetActive(ctx context.Context, userID int64) (*Session, error)
	// Create inserts a new empty collecting session.
	Create(ctx context.Context, userID, chatID int64) (*Session, error)
	// AppendFile adds one file reference and returns the updated session.
	AppendFile(ctx context.Context, sessionID string, ref FileRef) (*Session, error)
	// SetStatus unconditionally moves the session to the given status.
	SetStatus(ctx context.Context, sessionID string, status Status) error
	// AbandonAll transitions every collecting session of the user to abandoned.
	AbandonAll(ctx context.Context, userID int64) error
}
