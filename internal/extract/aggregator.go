// Package extract turns collected page images into a structured Ticket via
// a vision-capable model backend.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/exileautomate/flightbot/core/logger"
	"github.com/exileautomate/flightbot/internal/normalize"
)

var (
	// ErrMalformedExtraction reports a backend response that does not parse
	// as the expected schema. Fatal for the analyze run.
	ErrMalformedExtraction = errors.New("extract: malformed backend response")
	// ErrNoFlightData reports a well-formed response with zero segments.
	// A valid empty result, distinct from failure, so the caller can ask
	// for better input instead of reporting a fault.
	ErrNoFlightData = errors.New("extract: no flight data found")
	// ErrNoImages reports an extraction attempt without any usable pages.
	ErrNoImages = errors.New("extract: no page images to analyze")
)

// Backend is the opaque vision extraction call: ordered image bytes plus a
// schema prompt in, raw JSON text out.
type Backend interface {
	Extract(ctx context.Context, images [][]byte, prompt string) (string, error)
}

// Aggregator batches all page images of a session into one backend request.
// Images from one booking are frequently split across screenshots (route in
// one, baggage in another, price in a third); a single batched call lets
// the model cross-reference them instead of us merging partial results.
type Aggregator struct {
	backend Backend
}

// NewAggregator builds an Aggregator over the given backend.
func NewAggregator(backend Backend) *Aggregator {
	return &Aggregator{backend: backend}
}

// Extract sends every page image, in upload order, in one request and
// decodes the result into a Ticket.
func (a *Aggregator) Extract(ctx context.Context, pages []normalize.PageImage) (*Ticket, error) {
	if len(pages) == 0 {
		return nil, ErrNoImages
	}

	images := make([][]byte, 0, len(pages))
	for _, p := range pages {
		images = append(images, p.Data)
	}

	logger.LogEvent(ctx, logger.EXT, slog.LevelInfo, "extract.request",
		slog.Int("images", len(images)),
	)

	raw, err := a.backend.Extract(ctx, images, schemaPrompt)
	if err != nil {
		return nil, fmt.Errorf("extraction backend: %w", err)
	}

	ticket, err := decodeTicket(raw)
	if err != nil {
		return nil, err
	}
	if len(ticket.Segments) == 0 {
		return nil, ErrNoFlightData
	}

	logger.LogEvent(ctx, logger.EXT, slog.LevelInfo, "extract.result",
		slog.Int("segments", len(ticket.Segments)),
		slog.String("currency", ticket.Currency),
	)
	return ticket, nil
}

// decodeTicket parses the backend response, tolerating incidental wrapping
// such as markdown code fences around the JSON body.
func decodeTicket(raw string) (*Ticket, error) {
	cleaned := stripFences(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedExtraction)
	}

	var ticket Ticket
	dec := json.NewDecoder(strings.NewReader(cleaned))
	if err := dec.Decode(&ticket); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedExtraction, err)
	}
	return &ticket, nil
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag, and trims whitespace.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		// Drop a language tag like "json" on the opening fence line.
		first := strings.TrimSpace(s[:idx])
		if !strings.HasPrefix(first, "{") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
