package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tramita_backend/internal/email"
	"tramita_backend/internal/engine"
	"tramita_backend/internal/ledger"
	"tramita_backend/internal/notify"
	"tramita_backend/internal/repository"
	"tramita_backend/internal/settings"
	"tramita_backend/internal/whatsapp"
	"tramita_backend/platform/config"
	"tramita_backend/platform/db"
	"tramita_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// The sweeper binary runs exactly one sweep and prints the result as JSON.
// Useful for backfills and for exercising the engine against a staging
// database without the scheduler.
func main() {
	asOf := flag.String("as-of", "", "run the sweep as of this RFC3339 instant instead of now")
	flag.Parse()

	now := time.Now().UTC()
	if *asOf != "" {
		parsed, err := time.Parse(time.RFC3339, *asOf)
		if err != nil {
			fmt.Fprintln(os.Stderr, "invalid -as-of value:", err)
			os.Exit(2)
		}
		now = parsed.UTC()
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 3, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		fmt.Fprintln(os.Stderr, "failed to connect to database:", err)
		os.Exit(1)
	}
	defer pool.Close()

	eng, err := buildEngine(pool, cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build engine:", err)
		os.Exit(1)
	}

	result, err := eng.RunSweep(ctx, now)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sweep failed:", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintln(os.Stderr, "failed to encode result:", err)
		os.Exit(1)
	}
}

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
