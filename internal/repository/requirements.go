package repository

import (
	"context"
	"errors"
	"time"

	"tramita_backend/internal/domain"
	"tramita_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Requirements reads authority exigencies and records extensions.
type Requirements struct {
	pool *pgxpool.Pool
}

func NewRequirements(pool *pgxpool.Pool) *Requirements {
	return &Requirements{pool: pool}
}

const requirementColumns = `id, case_id, status, official_deadline, internal_deadline, extension_count, updated_at`

func (r *Requirements) Get(ctx context.Context, id uuid.UUID) (domain.Requirement, error) {
	var req domain.Requirement
	err := r.pool.QueryRow(ctx,
		`SELECT `+requirementColumns+` FROM requirements WHERE id = $1`, id,
	).Scan(&req.ID, &req.CaseID, &req.Status, &req.OfficialDeadline, &req.InternalDeadline, &req.ExtensionCount, &req.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Requirement{}, apperr.NotFound("requirement not found")
	}
	return req, err
}

func (r *Requirements) ListActive(ctx context.Context) ([]domain.Requirement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+requirementColumns+` FROM requirements WHERE status = ANY($1)`,
		statusStrings(domain.ActiveRequirementStatuses),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Requirement
	for rows.Next() {
		var req domain.Requirement
		if err := rows.Scan(&req.ID, &req.CaseID, &req.Status, &req.OfficialDeadline, &req.InternalDeadline, &req.ExtensionCount, &req.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (r *Requirements) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE requirements SET updated_at = $2 WHERE id = $1`,
		id, at,
	)
	return err
}

func (r *Requirements) RecordExtension(ctx context.Context, id uuid.UUID, newDeadline time.Time, newCount int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE requirements
		 SET official_deadline = $2, extension_count = $3, status = $4, updated_at = now()
		 WHERE id = $1`,
		id, newDeadline, newCount, domain.RequirementExtended,
	)
	return err
}
