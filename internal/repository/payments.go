package repository

import (
	"context"
	"time"

	"tramita_backend/internal/domain"
	"tramita_backend/internal/engine"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Payments reads due payments and applies the cancel transition.
type Payments struct {
	pool *pgxpool.Pool
}

func NewPayments(pool *pgxpool.Pool) *Payments {
	return &Payments{pool: pool}
}

const paymentColumns = `id, contract_id, opportunity_id, status, amount_cents, due_date, created_at, updated_at`

func (r *Payments) ListDueWithin(ctx context.Context, from, until time.Time) ([]domain.Payment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+paymentColumns+`
		 FROM payments
		 WHERE status = ANY($1) AND due_date >= $2 AND due_date <= $3`,
		statusStrings(domain.DunnablePaymentStatuses), from, until,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPayments(rows)
}

func (r *Payments) ListOverdue(ctx context.Context, now time.Time) ([]domain.Payment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+paymentColumns+`
		 FROM payments
		 WHERE status = ANY($1) AND due_date < $2`,
		statusStrings(domain.DunnablePaymentStatuses), now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPayments(rows)
}

// ListConfirmedAwaitingCascade returns confirmed payments whose contract has
// not been claimed yet. The claim itself stays with the contract update;
// this query only narrows the candidate set.
func (r *Payments) ListConfirmedAwaitingCascade(ctx context.Context) ([]domain.Payment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.contract_id, p.opportunity_id, p.status, p.amount_cents, p.due_date, p.created_at, p.updated_at
		 FROM payments p
		 JOIN contracts c ON c.id = p.contract_id
		 WHERE p.status = $1 AND c.payment_state = $2`,
		domain.PaymentConfirmed, domain.PaymentNotStarted,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPayments(rows)
}

func (r *Payments) Cancel(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE payments
		 SET status = $2, updated_at = now()
		 WHERE id = $1 AND status = ANY($3)`,
		id, domain.PaymentCancelled, statusStrings(domain.DunnablePaymentStatuses),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Payments) ClientContact(ctx context.Context, id uuid.UUID) (engine.ClientContact, error) {
	var contact engine.ClientContact
	err := r.pool.QueryRow(ctx,
		`SELECT l.contact_name, l.contact_phone, l.service_interest
		 FROM payments p
		 JOIN opportunities o ON o.id = p.opportunity_id
		 JOIN leads l ON l.id = o.lead_id
		 WHERE p.id = $1`,
		id,
	).Scan(&contact.Name, &contact.Phone, &contact.ServiceInterest)
	return contact, err
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanPayments(rows pgxRows) ([]domain.Payment, error) {
	var out []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.ContractID, &p.OpportunityID, &p.Status, &p.AmountCents, &p.DueDate, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
