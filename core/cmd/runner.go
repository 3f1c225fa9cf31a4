package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/exileautomate/flightbot/core/buildinfo"
	coreconfig "github.com/exileautomate/flightbot/core/config"
	"github.com/exileautomate/flightbot/core/logger"
	coretelegram "github.com/exileautomate/flightbot/core/telegram"
)

// Options describe how to locate configuration and assemble the bot.
type Options struct {
	ConfigEnvVar      string
	DefaultConfigPath string

	// Build assembles the bot from loaded configuration. The returned
	// cleanup runs after the bot stops; it may be nil.
	Build func(cfg *coreconfig.Config) (coretelegram.RunOptions, func() error, error)
}

// Run loads configuration, builds the bot, and drives the Telegram runtime
// until SIGINT or SIGTERM.
func Run(opts Options) error {
	if opts.Build == nil {
		return fmt.Errorf("cmd: Build is required")
	}

	env := opts.ConfigEnvVar
	if env == "" {
		env = "CONFIG_PATH"
	}
	cfgPath := os.Getenv(env)
	if cfgPath == "" {
		cfgPath = opts.DefaultConfigPath
	}
	if cfgPath == "" {
		return fmt.Errorf("cmd: config path not provided via %s or DefaultConfigPath", env)
	}

	log.Printf("loading config: %s", cfgPath)
	cfg, err := coreconfig.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("cmd: failed to load config: %w", err)
	}

	runOpts, cleanup, err := opts.Build(cfg)
	if err != nil {
		return fmt.Errorf("cmd: build failed: %w", err)
	}
	if cleanup != nil {
		defer func() {
			if err := cleanup(); err != nil {
				log.Printf("cleanup error: %v", err)
			}
		}()
	}

	startedAt := time.Now()
	prevStart := runOpts.OnStart
	runOpts.OnStart = func(ctx context.Context, rt coretelegram.Runtime) error {
		if prevStart != nil {
			if err := prevStart(ctx, rt); err != nil {
				return err
			}
		}
		logger.L.With("component", "app").Info("app ready",
			slog.String("event", "ready"),
			slog.String("version", buildinfo.Version),
			slog.String("commit", buildinfo.Commit),
			slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))),
		)
		return nil
	}

	prevStop := runOpts.OnStop
	runOpts.OnStop = func(ctx context.Context, rt coretelegram.Runtime) error {
		logger.L.With("component", "app").Info("shutting down...",
			slog.String("event", "shutdown"),
		)
		if prevStop != nil {
			return prevStop(ctx, rt)
		}
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runErr := coretelegram.RunTelegram(ctx, runOpts)
	logger.L.With("component", "app").Info("app exit",
		slog.String("event", "exit"),
		slog.String("status", logger.Status(runErr)),
	)
	return runErr
}
