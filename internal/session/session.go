// Package session implements the per-user file-collection state machine.
//
// A session gathers uploaded ticket artifacts until the user asks for
// analysis. At most one session per user is in the collecting state at any
// time; the file list grows only while collecting and is frozen once
// processing starts.
package session

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a session.
type Status string

const (
	// StatusCollecting accepts file uploads; the initial state.
	StatusCollecting Status = "collecting"
	// StatusProcessing marks an analyze run in flight; the file list is frozen.
	StatusProcessing Status = "processing"
	// StatusDone is terminal: extraction and delivery succeeded.
	StatusDone Status = "done"
	// StatusError is terminal: some step of the analyze run failed.
	StatusError Status = "error"
	// StatusAbandoned is terminal: the user reset or replaced the session.
	StatusAbandoned Status = "abandoned"
)

// Terminal reports whether no further transitions are expected from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusDone, StatusError, StatusAbandoned:
		return true
	}
	return false
}

// FileKind classifies an uploaded artifact.
type FileKind string

const (
	// KindImage is a photo or an image sent as a document.
	KindImage FileKind = "image"
	// KindPDF is a PDF document, scanned or digital.
	KindPDF FileKind = "pdf"
)

// FileRef points at one uploaded artifact awaiting processing. The FileID is
// the opaque transport handle used to download the bytes later.
type FileRef struct {
	FileID string   `json:"file_id" db:"file_id"`
	Kind   FileKind `json:"kind" db:"kind"`
	Name   string   `json:"name" db:"name"`
}

// Session tracks the files collected for one analyze run.
type Session struct {
	ID        string    `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	ChatID    int64     `json:"chat_id" db:"chat_id"`
	Status    Status    `json:"status" db:"status"`
	Files     []FileRef `json:"files"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ErrCapacityExceeded is returned when a session already holds the maximum
// allowed number of files. User-correctable; not a system error.
var ErrCapacityExceeded = errors.New("session: file capacity exceeded")

// ErrNotFound is returned by stores when a session id does not resolve.
var ErrNotFound = errors.New("session: not found")
