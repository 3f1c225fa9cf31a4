package bot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/exileautomate/flightbot/core/logger"
	"github.com/exileautomate/flightbot/internal/extract"
	"github.com/exileautomate/flightbot/internal/normalize"
	"github.com/exileautomate/flightbot/internal/render"
	"github.com/exileautomate/flightbot/internal/session"
)

const (
	// downloadTimeout bounds the whole download phase of one analyze run.
	downloadTimeout = 60 * time.Second
	// downloadParallel caps concurrent file downloads per run.
	downloadParallel = 4
)

// Analyze runs the full pipeline for the user's active session: download all
// collected files, normalize them to page images, extract the ticket in one
// batched call, render the PDF and deliver it. Any fatal step moves the
// session to the error status and replies with one actionable message; the
// handler itself never fails the update.
func (r *Router) Analyze(ctx context.Context, t Transport, in Incoming) error {
	s, err := r.sessions.GetActive(ctx, in.UserID)
	if err != nil {
		logger.Warn(ctx, "bot", "analyze.session.fail", slog.String("err", err.Error()))
		return t.SendHTML(ctx, msgSaveFailed)
	}
	if s == nil || len(s.Files) == 0 {
		return t.SendHTML(ctx, msgNoFiles)
	}

	if !r.sessions.BeginAnalyze(s.ID) {
		return t.SendHTML(ctx, msgBusy)
	}
	defer r.sessions.EndAnalyze(s.ID)

	names := make([]string, len(s.Files))
	for i, f := range s.Files {
		names[i] = f.Name
	}
	summary, truncated := logger.SummarizeStrings(names, 5)
	if truncated {
		summary += ", ..."
	}

	start := time.Now()
	logger.Info(ctx, "bot", "analyze.start",
		slog.String("session_id", s.ID),
		slog.Int("files", len(s.Files)),
		slog.String("names", summary),
	)

	if err := t.SendHTML(ctx, processingMessage(len(s.Files))); err != nil {
		logger.Warn(ctx, "bot", "analyze.notify.fail", slog.String("err", err.Error()))
	}
	_ = t.Notify(ctx, actionUploadDocument)

	if err := r.sessions.SetStatus(ctx, s, session.StatusProcessing); err != nil {
		logger.Warn(ctx, "bot", "analyze.status.fail", slog.String("err", err.Error()))
		return t.SendHTML(ctx, msgSaveFailed)
	}

	pages := r.collectPages(ctx, t, s.Files)
	if len(pages) == 0 {
		return r.fail(ctx, t, s, msgUnreadable)
	}

	ticket, err := r.extractor.Extract(ctx, pages)
	if err != nil {
		if errors.Is(err, extract.ErrNoFlightData) {
			return r.fail(ctx, t, s, msgNoFlightData)
		}
		logger.Error(ctx, "bot", "analyze.extract.fail",
			slog.String("session_id", s.ID),
			slog.String("err", err.Error()),
		)
		return r.fail(ctx, t, s, failureMessage(err))
	}

	data, err := render.PDF(ticket, r.agency)
	if err != nil {
		logger.Error(ctx, "bot", "analyze.render.fail", slog.String("err", err.Error()))
		return r.fail(ctx, t, s, failureMessage(err))
	}

	doc := &OutDocument{
		Name:    render.Filename(ticket),
		Caption: render.Caption(ticket),
		Data:    data,
	}
	if err := t.SendDocument(ctx, doc); err != nil {
		logger.Error(ctx, "bot", "analyze.deliver.fail", slog.String("err", err.Error()))
		return r.fail(ctx, t, s, failureMessage(err))
	}

	if err := r.sessions.SetStatus(ctx, s, session.StatusDone); err != nil {
		logger.Warn(ctx, "bot", "analyze.status.fail", slog.String("err", err.Error()))
	}
	logger.Info(ctx, "bot", "analyze.done",
		slog.String("session_id", s.ID),
		slog.Int("pages", len(pages)),
		slog.Int("segments", len(ticket.Segments)),
		slog.Duration("took", logger.Took(start)),
	)
	return nil
}

// fail moves the session to the error status and replies with the message.
func (r *Router) fail(ctx context.Context, t Transport, s *session.Session, msg string) error {
	if err := r.sessions.SetStatus(ctx, s, session.StatusError); err != nil {
		logger.Warn(ctx, "bot", "analyze.status.fail",
			slog.String("session_id", s.ID),
			slog.String("err", err.Error()),
		)
	}
	return t.SendHTML(ctx, msg)
}

// collectPages downloads and normalizes every session file, preserving the
// upload order. A file that fails to download or decode is logged and
// skipped; the run continues with what remains.
func (r *Router) collectPages(ctx context.Context, t Transport, files []session.FileRef) []normalize.PageImage {
	dctx, cancel := context.WithTimeout(ctx, r.downloads)
	defer cancel()

	slots := make([][]normalize.PageImage, len(files))
	g, gctx := errgroup.WithContext(dctx)
	g.SetLimit(downloadParallel)

	for i, f := range files {
		g.Go(func() error {
			raw, err := t.Download(gctx, f.FileID)
			if err != nil {
				logger.Warn(gctx, "bot", "analyze.download.fail",
					slog.String("name", f.Name),
					slog.String("err", err.Error()),
				)
				return nil
			}
			pages, err := normalize.Normalize(gctx, raw, f.Kind, f.Name)
			if err != nil {
				logger.Warn(gctx, "bot", "analyze.normalize.fail",
					slog.String("name", f.Name),
					slog.String("err", err.Error()),
				)
				return nil
			}
			slots[i] = pages
			return nil
		})
	}
	_ = g.Wait()

	var out []normalize.PageImage
	for _, pages := range slots {
		out = append(out, pages...)
	}
	return out
}
