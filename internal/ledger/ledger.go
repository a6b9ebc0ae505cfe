// Package ledger is the append-only reminder deduplication record store.
// One row per (entity, reminder-kind) pair; rows are never updated or
// deleted. This is the at-most-once primitive every scanner depends on.
package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const errRepoNotConfigured = "reminder ledger not configured"

// Repository persists ledger records in the reminder_ledger table.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a ledger repository over the given pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// AlreadySent reports whether a record exists for the (entity, kind) pair.
// Checked immediately before dispatch.
func (r *Repository) AlreadySent(ctx context.Context, entityID uuid.UUID, kind string) (bool, error) {
	if r == nil || r.pool == nil {
		return false, errors.New(errRepoNotConfigured)
	}

	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM reminder_ledger WHERE entity_id = $1 AND kind = $2
		)`,
		entityID, kind,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// MarkSent appends a record for the (entity, kind) pair. Inserting an
// existing pair is a no-op, so a crashed sweep re-marking is harmless.
// The reminder slot is consumed regardless of dispatch outcome: the policy
// is one attempt per threshold, not one successful delivery.
func (r *Repository) MarkSent(ctx context.Context, entityID uuid.UUID, kind string) error {
	if r == nil || r.pool == nil {
		return errors.New(errRepoNotConfigured)
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO reminder_ledger (entity_id, kind)
		 VALUES ($1, $2)
		 ON CONFLICT (entity_id, kind) DO NOTHING`,
		entityID, kind,
	)
	return err
}
