package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Health verifies the store is reachable before a sweep starts.
type Health struct {
	pool *pgxpool.Pool
}

func NewHealth(pool *pgxpool.Pool) *Health {
	return &Health{pool: pool}
}

func (h *Health) Ping(ctx context.Context) error {
	return h.pool.Ping(ctx)
}
