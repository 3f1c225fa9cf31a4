package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/exileautomate/flightbot/core/logger"
	"github.com/exileautomate/flightbot/core/telegram"
	"github.com/exileautomate/flightbot/core/telegram/commands"
	tghelpers "github.com/exileautomate/flightbot/core/telegram/helpers"
	"github.com/exileautomate/flightbot/internal/session"
)

// BuildRegistry declares the bot's command set over the router.
func BuildRegistry(r *Router) *telegram.Registry {
	reg := telegram.NewRegistry()
	reg.RegisterCommand("/start", commands.Command{
		Description: "Show the usage guide",
		Handler: handle(func(ctx context.Context, t Transport, _ Incoming) error {
			return r.Start(ctx, t)
		}),
	})
	reg.RegisterCommand("/new", commands.Command{
		Description: "Clear current files and start fresh",
		Handler:     handle(r.New),
	})
	reg.RegisterCommand("/analyze", commands.Command{
		Description: "Process uploaded files and generate PDF",
		Handler:     handle(r.Analyze),
	})
	reg.SetTextFallback(handle(func(ctx context.Context, t Transport, _ Incoming) error {
		return r.Hint(ctx, t)
	}))
	return reg
}

// MediaRoutes binds photo and document uploads to the router.
func MediaRoutes(r *Router) []telegram.Route {
	return []telegram.Route{
		{Endpoint: tele.OnPhoto, Handler: onPhoto(r)},
		{Endpoint: tele.OnDocument, Handler: onDocument(r)},
	}
}

// onPhoto accepts a photo upload. Telegram delivers several resolutions of
// the same photo; telebot exposes the largest one, which is what extraction
// wants.
func onPhoto(r *Router) tele.HandlerFunc {
	return func(c tele.Context) error {
		msg := c.Message()
		if msg == nil || msg.Photo == nil {
			return nil
		}
		return ack(c, r.ReceiveFile(tghelpers.BuildContext(c), &teleTransport{c: c}, incomingFrom(c), IncomingFile{
			FileID: msg.Photo.FileID,
			Kind:   session.KindImage,
			Name:   "photo.jpg",
		}))
	}
}

// onDocument accepts a document upload, keyed on its MIME type. PDFs and
// images are collected; anything else gets the unsupported reply.
func onDocument(r *Router) tele.HandlerFunc {
	return func(c tele.Context) error {
		msg := c.Message()
		if msg == nil || msg.Document == nil {
			return nil
		}
		doc := msg.Document
		ctx := tghelpers.BuildContext(c)
		t := &teleTransport{c: c}

		var kind session.FileKind
		switch {
		case doc.MIME == "application/pdf":
			kind = session.KindPDF
		case strings.HasPrefix(doc.MIME, "image/"):
			kind = session.KindImage
		default:
			return ack(c, r.Unsupported(ctx, t))
		}

		name := doc.FileName
		if name == "" {
			name = "document"
		}
		return ack(c, r.ReceiveFile(ctx, t, incomingFrom(c), IncomingFile{
			FileID: doc.FileID,
			Kind:   kind,
			Name:   name,
		}))
	}
}

// handle adapts a router method to a telebot handler.
func handle(fn func(ctx context.Context, t Transport, in Incoming) error) tele.HandlerFunc {
	return func(c tele.Context) error {
		return ack(c, fn(tghelpers.BuildContext(c), &teleTransport{c: c}, incomingFrom(c)))
	}
}

// ack logs a handler error without returning it: a webhook delivery is
// always acknowledged.
func ack(c tele.Context, err error) error {
	if err != nil {
		logger.Error(tghelpers.BuildContext(c), "bot", "handler.fail", slog.String("err", err.Error()))
	}
	return nil
}

func incomingFrom(c tele.Context) Incoming {
	var in Incoming
	if u := c.Sender(); u != nil {
		in.UserID = u.ID
	}
	if chat := c.Chat(); chat != nil {
		in.ChatID = chat.ID
	}
	return in
}

// teleTransport implements Transport over a live update context.
type teleTransport struct {
	c tele.Context
}

func (tt *teleTransport) SendHTML(_ context.Context, text string) error {
	return tghelpers.SendHTML(tt.c, text)
}

func (tt *teleTransport) SendDocument(_ context.Context, doc *OutDocument) error {
	return tghelpers.SendDocument(tt.c, doc.Data, doc.Name, doc.Caption)
}

func (tt *teleTransport) Notify(_ context.Context, action string) error {
	return tt.c.Notify(tele.ChatAction(action))
}

// downloadClient fetches file payloads. No client timeout: each request is
// bounded by the caller's context so the download phase deadline holds.
var downloadClient = &http.Client{}

func (tt *teleTransport) Download(ctx context.Context, fileID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bot, ok := tt.c.Bot().(*tele.Bot)
	if !ok {
		return nil, fmt.Errorf("file download: unexpected bot API implementation %T", tt.c.Bot())
	}
	f, err := bot.FileByID(fileID)
	if err != nil {
		return nil, err
	}
	fileURL := bot.URL + "/file/bot" + bot.Token + "/" + f.FilePath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := downloadClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file download: unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
