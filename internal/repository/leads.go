// Package repository holds the pgx-backed store implementations behind the
// engine's ports. All queries are plain SQL over the shared pool; each
// method is one statement, so per-entity units of work stay small and
// individually consistent.
package repository

import (
	"context"
	"time"

	"tramita_backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Leads reads lead candidates and applies the archive transition.
type Leads struct {
	pool *pgxpool.Pool
}

func NewLeads(pool *pgxpool.Pool) *Leads {
	return &Leads{pool: pool}
}

func (r *Leads) ListActive(ctx context.Context) ([]domain.Lead, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, status, contact_name, contact_phone, service_interest, created_at, updated_at
		 FROM leads
		 WHERE status = ANY($1)`,
		statusStrings(domain.ArchivableLeadStatuses),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Lead
	for rows.Next() {
		var l domain.Lead
		if err := rows.Scan(&l.ID, &l.Status, &l.ContactName, &l.ContactPhone, &l.ServiceInterest, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *Leads) HasOutboundMessage(ctx context.Context, leadID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM lead_messages WHERE lead_id = $1 AND direction = $2
		)`,
		leadID, domain.MessageOutbound,
	).Scan(&exists)
	return exists, err
}

func (r *Leads) HasOutboundSince(ctx context.Context, leadID uuid.UUID, since time.Time) (bool, error) {
	return r.hasMessageSince(ctx, leadID, domain.MessageOutbound, since)
}

func (r *Leads) HasInboundSince(ctx context.Context, leadID uuid.UUID, since time.Time) (bool, error) {
	return r.hasMessageSince(ctx, leadID, domain.MessageInbound, since)
}

func (r *Leads) hasMessageSince(ctx context.Context, leadID uuid.UUID, direction domain.MessageDirection, since time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM lead_messages
			WHERE lead_id = $1 AND direction = $2 AND created_at >= $3
		)`,
		leadID, direction, since,
	).Scan(&exists)
	return exists, err
}

func (r *Leads) RecordOutbound(ctx context.Context, leadID uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO lead_messages (lead_id, direction, created_at)
		 VALUES ($1, $2, $3)`,
		leadID, domain.MessageOutbound, at,
	)
	return err
}

// Archive moves the lead to ARCHIVED_NO_RESPONSE. The status set in the
// WHERE clause keeps the transition legal even if the lead moved between
// the scan and this write.
func (r *Leads) Archive(ctx context.Context, leadID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE leads
		 SET status = $2, updated_at = now()
		 WHERE id = $1 AND status = ANY($3)`,
		leadID, domain.LeadArchived, statusStrings(domain.ArchivableLeadStatuses),
	)
	return err
}

func statusStrings[S ~string](statuses []S) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
