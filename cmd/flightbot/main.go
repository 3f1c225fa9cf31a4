// Command flightbot runs the flight ticket Telegram bot: it collects ticket
// images and PDFs per user session, extracts the itinerary with a vision
// model, and replies with a branded PDF summary.
package main

import (
	"log"
	"time"

	"github.com/exileautomate/flightbot/core/bootstrap"
	"github.com/exileautomate/flightbot/core/cmd"
	coreconfig "github.com/exileautomate/flightbot/core/config"
	coretelegram "github.com/exileautomate/flightbot/core/telegram"
	tgsender "github.com/exileautomate/flightbot/core/telegram/sender"
	"github.com/exileautomate/flightbot/internal/bot"
	"github.com/exileautomate/flightbot/internal/extract"
	"github.com/exileautomate/flightbot/internal/session"
)

func main() {
	err := cmd.Run(cmd.Options{
		DefaultConfigPath: "config.yaml",
		Build:             build,
	})
	if err != nil {
		log.Fatalf("flightbot: %v", err)
	}
}

func build(cfg *coreconfig.Config) (coretelegram.RunOptions, func() error, error) {
	infra, err := bootstrap.Run(cfg)
	if err != nil {
		return coretelegram.RunOptions{}, nil, err
	}

	sessions := session.NewManager(infra.Store, cfg.Session.MaxFiles)
	backend := extract.NewGeminiBackend(
		cfg.Extractor.APIKey,
		cfg.Extractor.Model,
		time.Duration(cfg.Extractor.TimeoutSeconds)*time.Second,
	)
	router := bot.NewRouter(sessions, extract.NewAggregator(backend), cfg.AgencyName)

	runOpts := coretelegram.RunOptions{
		Config:      cfg,
		Registry:    bot.BuildRegistry(router),
		Middlewares: coretelegram.DefaultMiddlewares(),
		Routes:      bot.MediaRoutes(router),
		// Document uploads retry within a budget wide enough for a slow
		// multi-megabyte send.
		DispatcherOptions: tgsender.Options{MaxDuration: 90 * time.Second},
	}
	return runOpts, infra.Close, nil
}
