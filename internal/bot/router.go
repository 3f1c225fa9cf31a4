// Package bot maps incoming Telegram updates onto session, extraction and
// rendering operations. Handlers talk to the outside world only through the
// Transport interface so they can be exercised without a live bot.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/exileautomate/flightbot/core/logger"
	"github.com/exileautomate/flightbot/internal/extract"
	"github.com/exileautomate/flightbot/internal/normalize"
	"github.com/exileautomate/flightbot/internal/session"
)

// Chat actions shown to the user while the bot works.
const (
	actionTyping         = "typing"
	actionUploadDocument = "upload_document"
)

// Incoming identifies the update's originator.
type Incoming struct {
	UserID int64
	ChatID int64
}

// IncomingFile is one uploaded artifact reference as delivered by Telegram.
type IncomingFile struct {
	FileID string
	Kind   session.FileKind
	Name   string
}

// OutDocument is a generated document ready for delivery.
type OutDocument struct {
	Name    string
	Caption string
	Data    []byte
}

// Transport abstracts outbound Telegram calls for the current chat.
type Transport interface {
	// SendHTML sends a message with HTML parse mode.
	SendHTML(ctx context.Context, text string) error
	// SendDocument uploads a document with its caption and filename.
	SendDocument(ctx context.Context, doc *OutDocument) error
	// Notify shows a chat action such as "typing".
	Notify(ctx context.Context, action string) error
	// Download fetches file content by its Telegram file id.
	Download(ctx context.Context, fileID string) ([]byte, error)
}

// Extractor turns ordered page images into a structured ticket.
type Extractor interface {
	Extract(ctx context.Context, pages []normalize.PageImage) (*extract.Ticket, error)
}

// Router implements the bot's command and upload handling.
type Router struct {
	sessions  *session.Manager
	extractor Extractor
	agency    string
	downloads time.Duration
}

// NewRouter builds a Router over the given collaborators.
func NewRouter(sessions *session.Manager, extractor Extractor, agency string) *Router {
	return &Router{
		sessions:  sessions,
		extractor: extractor,
		agency:    agency,
		downloads: downloadTimeout,
	}
}

// Start replies with the usage guide.
func (r *Router) Start(ctx context.Context, t Transport) error {
	return t.SendHTML(ctx, msgWelcome)
}

// New abandons every collecting session of the user so the next upload
// starts a fresh one.
func (r *Router) New(ctx context.Context, t Transport, in Incoming) error {
	if err := r.sessions.AbandonAll(ctx, in.UserID); err != nil {
		logger.Warn(ctx, "bot", "session.abandon.fail",
			slog.Int64("user_id", in.UserID),
			slog.String("err", err.Error()),
		)
		return t.SendHTML(ctx, msgSaveFailed)
	}
	return t.SendHTML(ctx, msgNewSession)
}

// ReceiveFile appends one uploaded file to the user's active session,
// creating it on first upload and enforcing the per-session cap.
func (r *Router) ReceiveFile(ctx context.Context, t Transport, in Incoming, file IncomingFile) error {
	_ = t.Notify(ctx, actionTyping)

	s, err := r.sessions.GetOrCreate(ctx, in.UserID, in.ChatID)
	if err != nil {
		logger.Warn(ctx, "bot", "file.session.fail", slog.String("err", err.Error()))
		return t.SendHTML(ctx, msgSaveFailed)
	}

	updated, err := r.sessions.AddFile(ctx, s, session.FileRef{
		FileID: file.FileID,
		Kind:   file.Kind,
		Name:   file.Name,
	})
	switch {
	case errors.Is(err, session.ErrCapacityExceeded):
		return t.SendHTML(ctx, capacityMessage(r.sessions.MaxFiles()))
	case err != nil:
		logger.Warn(ctx, "bot", "file.append.fail",
			slog.String("session_id", s.ID),
			slog.String("err", err.Error()),
		)
		return t.SendHTML(ctx, msgSaveFailed)
	}

	logger.Debug(ctx, "bot", "file.received",
		slog.String("session_id", updated.ID),
		slog.Int("files", len(updated.Files)),
		slog.String("kind", string(file.Kind)),
	)
	return t.SendHTML(ctx, fileReceivedMessage(len(updated.Files), file.Name))
}

// Unsupported replies to uploads the bot cannot process.
func (r *Router) Unsupported(ctx context.Context, t Transport) error {
	return t.SendHTML(ctx, msgUnsupported)
}

// Hint replies to plain text that is not a known command.
func (r *Router) Hint(ctx context.Context, t Transport) error {
	return t.SendHTML(ctx, msgHint)
}
