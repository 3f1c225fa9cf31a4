package telegram

import (
	"github.com/exileautomate/flightbot/core/telegram/middleware"
)

// DefaultMiddlewares builds the shared middleware chain: panic recovery
// first, then per-update receipt logging with rid propagation.
func DefaultMiddlewares() []Middleware {
	return []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logger", Use: middleware.LoggerMiddleware},
	}
}
