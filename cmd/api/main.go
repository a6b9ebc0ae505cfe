package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tramita_backend/internal/email"
	"tramita_backend/internal/engine"
	"tramita_backend/internal/httpapi"
	"tramita_backend/internal/ledger"
	"tramita_backend/internal/notify"
	"tramita_backend/internal/repository"
	"tramita_backend/internal/scheduler"
	"tramita_backend/internal/settings"
	"tramita_backend/internal/whatsapp"
	"tramita_backend/platform/config"
	"tramita_backend/platform/db"
	"tramita_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting api", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	if cfg.MigrationsEnabled {
		if err := db.RunMigrations(ctx, cfg); err != nil {
			log.Error("failed to run migrations", "error", err)
			panic("failed to run migrations: " + err.Error())
		}
	}

	eng, err := buildEngine(pool, cfg, log)
	if err != nil {
		log.Error("failed to build engine", "error", err)
		panic("failed to build engine: " + err.Error())
	}

	lock := scheduler.NewSweepLock(redisClient(cfg, log), cfg.SweepLockTTL)

	router := httpapi.New(httpapi.Deps{
		Config: cfg,
		Engine: eng,
		Lock:   lock,
		Health: repository.NewHealth(pool),
		Logger: log,
	})

	if err := httpapi.Serve(ctx, cfg, router, log); err != nil {
		log.Error("http server failed", "error", err)
		os.Exit(1)
	}
}

// buildEngine wires the sweep engine over the shared pool. The same wiring
// serves the api, the worker, and the one-shot sweeper.
func buildEngine(pool *pgxpool.Pool, cfg *config.Config, log *logger.Logger) (*engine.Engine, error) {
	resolver := settings.NewResolver(repository.NewSettings(pool), log)

	templates, err := notify.NewTemplates(repository.NewSettings(pool), log)
	if err != nil {
		return nil, err
	}

	dispatcher := notify.NewDispatcher(
		cfg,
		templates,
		notify.NewRouter(repository.NewUsers(pool)),
		whatsapp.NewClient(cfg, log),
		email.NewSender(cfg),
		log,
	)

	return engine.New(engine.Deps{
		Settings:      resolver,
		Leads:         repository.NewLeads(pool),
		Contracts:     repository.NewContracts(pool),
		Opportunities: repository.NewOpportunities(pool),
		Payments:      repository.NewPayments(pool),
		Cascades:      repository.NewCascades(pool),
		Cases:         repository.NewCases(pool),
		Requirements:  repository.NewRequirements(pool),
		Ledger:        ledger.New(pool),
		Notifier:      dispatcher,
		Health:        repository.NewHealth(pool),
		Logger:        log,
	}), nil
}

// redisClient returns nil when no redis is configured: single-instance
// deployments run the sweep lock in-process only.
func redisClient(cfg *config.Config, log *logger.Logger) *redis.Client {
	if cfg.RedisURL == "" {
		return nil
	}
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Warn("invalid redis url, sweep lock disabled", "error", err)
		return nil
	}
	return redis.NewClient(opt)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
