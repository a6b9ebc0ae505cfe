package repository

import (
	"context"

	"tramita_backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Opportunities applies the commercial verdict transitions.
type Opportunities struct {
	pool *pgxpool.Pool
}

func NewOpportunities(pool *pgxpool.Pool) *Opportunities {
	return &Opportunities{pool: pool}
}

func (r *Opportunities) MarkWon(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE opportunities
		 SET status = $2, updated_at = now()
		 WHERE id = $1 AND status = $3`,
		id, domain.OpportunityWon, domain.OpportunityOpen,
	)
	return err
}

func (r *Opportunities) MarkLost(ctx context.Context, id uuid.UUID, reason string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE opportunities
		 SET status = $2, lost_reason = $3, updated_at = now()
		 WHERE id = $1 AND status = $4`,
		id, domain.OpportunityLost, reason, domain.OpportunityOpen,
	)
	return err
}
