package repository

import (
	"context"

	"tramita_backend/internal/domain"
	"tramita_backend/internal/engine"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Contracts reads unsigned contracts and applies the cancel and claim
// transitions.
type Contracts struct {
	pool *pgxpool.Pool
}

func NewContracts(pool *pgxpool.Pool) *Contracts {
	return &Contracts{pool: pool}
}

func (r *Contracts) ListAwaitingSignature(ctx context.Context) ([]domain.Contract, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, opportunity_id, status, payment_state, sent_at, created_at, updated_at
		 FROM contracts
		 WHERE status = $1`,
		domain.ContractSent,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Contract
	for rows.Next() {
		var c domain.Contract
		if err := rows.Scan(&c.ID, &c.OpportunityID, &c.Status, &c.PaymentState, &c.SentAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Cancel is a conditional update: the row count tells whether this call did
// the cancel or the contract was already terminal.
func (r *Contracts) Cancel(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE contracts
		 SET status = $2, updated_at = now()
		 WHERE id = $1 AND status <> $2`,
		id, domain.ContractCancelled,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Contracts) ClientContact(ctx context.Context, id uuid.UUID) (engine.ClientContact, error) {
	var contact engine.ClientContact
	err := r.pool.QueryRow(ctx,
		`SELECT l.contact_name, l.contact_phone, l.service_interest
		 FROM contracts c
		 JOIN opportunities o ON o.id = c.opportunity_id
		 JOIN leads l ON l.id = o.lead_id
		 WHERE c.id = $1`,
		id,
	).Scan(&contact.Name, &contact.Phone, &contact.ServiceInterest)
	return contact, err
}
