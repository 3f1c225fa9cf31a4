// Package bootstrap turns loaded configuration into running infrastructure:
// the logger and the session store strategy selected by session.store.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	coreconfig "github.com/exileautomate/flightbot/core/config"
	coredatabase "github.com/exileautomate/flightbot/core/database"
	"github.com/exileautomate/flightbot/core/logger"
	"github.com/exileautomate/flightbot/internal/session"
)

const redisPingTimeout = 5 * time.Second

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	Store session.Store

	closers []func() error
}

// Close releases store connections in reverse initialization order.
func (r *Result) Close() error {
	var firstErr error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Run initializes the logger and builds the configured session store. For
// postgres it connects and applies migrations; for redis it verifies the
// server is reachable before the bot starts taking updates.
func Run(cfg *coreconfig.Config) (*Result, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	if err := logger.InitLogger(logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Profile: cfg.Logging.Profile,
	}); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	switch cfg.Session.Store {
	case coreconfig.StorePostgres:
		db, err := coredatabase.Connect(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
		}
		if err := coredatabase.RunMigrations(cfg.Database); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
		}
		return &Result{
			Store:   session.NewPostgresStore(db),
			closers: []func() error{db.Close},
		}, nil

	case coreconfig.StoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("bootstrap: redis ping failed: %w", err)
		}
		logger.Info(ctx, "app", "store.redis",
			slog.String("addr", cfg.Redis.Addr),
			slog.Int("db", cfg.Redis.DB),
			slog.Duration("ttl", cfg.Session.TTL()),
		)
		return &Result{
			Store:   session.NewRedisStore(rdb, cfg.Session.TTL()),
			closers: []func() error{rdb.Close},
		}, nil

	default:
		logger.Warn(logger.Background(), "app", "store.memory",
			slog.String("note", "sessions are lost on restart"),
		)
		return &Result{Store: session.NewMemoryStore()}, nil
	}
}
