package helpers

import (
	"bytes"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/exileautomate/flightbot/core/logger"
	"github.com/exileautomate/flightbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := currentDispatcher()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	if err := disp.Enqueue(ctx, action, endpoint, run); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			logger.Warn(ctx, "tg.sender", "queue.fallback",
				slog.String("action", action),
				slog.String("endpoint", endpoint),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

// sendSync runs the call on the caller's goroutine through the dispatcher's
// retry policy. The caller gets the final send error, unlike sendAsync which
// acknowledges before the send runs.
func sendSync(c tele.Context, action, endpoint string, run func() error) error {
	disp := currentDispatcher()
	if disp == nil {
		return run()
	}
	return disp.Execute(BuildContext(c), action, endpoint, run)
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var sendOpts *tele.SendOptions
	if len(opts) > 0 {
		sendOpts = opts[0]
	}
	return sendAsync(c, "send.text", "sendMessage", func() error {
		if sendOpts != nil {
			return c.Send(text, sendOpts)
		}
		return c.Send(text)
	})
}

// SendHTML sends a message with HTML parse mode.
func SendHTML(c tele.Context, text string) error {
	return SendText(c, text, &tele.SendOptions{ParseMode: tele.ModeHTML})
}

// SendDocument uploads a document with the given filename and HTML caption.
// The send is synchronous: the analyze pipeline marks the session done or
// failed based on whether the document actually reached the user. The payload
// is rebuilt per attempt so retries reread from the start.
func SendDocument(c tele.Context, data []byte, filename, caption string) error {
	return sendSync(c, "send.document", "sendDocument", func() error {
		doc := &tele.Document{
			File:     tele.FromReader(bytes.NewReader(data)),
			FileName: filename,
			Caption:  caption,
		}
		return c.Send(doc, &tele.SendOptions{ParseMode: tele.ModeHTML})
	})
}
