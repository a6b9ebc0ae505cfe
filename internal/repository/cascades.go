package repository

import (
	"context"

	"tramita_backend/internal/domain"
	"tramita_backend/internal/engine"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Cascades runs the payment-confirmation cascade in a single transaction.
type Cascades struct {
	pool *pgxpool.Pool
}

func NewCascades(pool *pgxpool.Pool) *Cascades {
	return &Cascades{pool: pool}
}

// StartCase claims the contract's payment state and performs the dependent
// writes inside the same transaction. The conditional update is the guard:
// exactly one transaction ever sees a row count of 1 per contract, and a
// failure on any later statement rolls the claim back with the rest.
func (r *Cascades) StartCase(ctx context.Context, params engine.StartCaseParams) (domain.ServiceCase, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.ServiceCase{}, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE contracts
		 SET payment_state = $2, updated_at = now()
		 WHERE id = $1 AND payment_state = $3`,
		params.ContractID, domain.PaymentStarted, domain.PaymentNotStarted,
	)
	if err != nil {
		return domain.ServiceCase{}, false, err
	}
	if tag.RowsAffected() != 1 {
		return domain.ServiceCase{}, false, nil
	}

	if _, err := tx.Exec(ctx,
		`UPDATE opportunities
		 SET status = $2, updated_at = now()
		 WHERE id = $1 AND status = $3`,
		params.OpportunityID, domain.OpportunityWon, domain.OpportunityOpen,
	); err != nil {
		return domain.ServiceCase{}, false, err
	}

	sc := domain.ServiceCase{
		ID:            uuid.New(),
		ContractID:    params.ContractID,
		Sector:        params.Sector,
		Status:        domain.CaseContatoInicial,
		Priority:      domain.PriorityNormal,
		ClientName:    params.ClientName,
		ClientPhone:   params.ClientPhone,
		LastTouchedAt: params.Now,
		CreatedAt:     params.Now,
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO service_cases
			(id, contract_id, sector, status, priority, client_name, client_phone, last_touched_at, onboarding_done, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false, $9)`,
		sc.ID, sc.ContractID, sc.Sector, sc.Status, sc.Priority,
		sc.ClientName, sc.ClientPhone, sc.LastTouchedAt, sc.CreatedAt,
	); err != nil {
		return domain.ServiceCase{}, false, err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO routing_tasks (case_id, title) VALUES ($1, $2)`,
		sc.ID, params.RoutingTitle,
	); err != nil {
		return domain.ServiceCase{}, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.ServiceCase{}, false, err
	}
	return sc, true, nil
}
