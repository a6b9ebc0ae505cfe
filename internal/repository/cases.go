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

// Cases reads service cases for the cadence scanners.
type Cases struct {
	pool *pgxpool.Pool
}

func NewCases(pool *pgxpool.Pool) *Cases {
	return &Cases{pool: pool}
}

const caseColumns = `id, contract_id, sector, status, priority, assigned_user_id,
	client_name, client_phone, last_touched_at, huellas_at, tie_available_at,
	tie_picked_up_at, onboarding_done, created_at`

func (r *Cases) Get(ctx context.Context, id uuid.UUID) (domain.ServiceCase, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+caseColumns+` FROM service_cases WHERE id = $1`, id)
	sc, err := scanCase(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ServiceCase{}, apperr.NotFound("case not found")
	}
	return sc, err
}

func (r *Cases) ListByStatus(ctx context.Context, statuses []domain.CaseStatus) ([]domain.ServiceCase, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+caseColumns+` FROM service_cases WHERE status = ANY($1)`,
		statusStrings(statuses),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ServiceCase
	for rows.Next() {
		sc, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (r *Cases) TouchReminder(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE service_cases SET last_touched_at = $2 WHERE id = $1`,
		id, at,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (domain.ServiceCase, error) {
	var sc domain.ServiceCase
	err := row.Scan(
		&sc.ID, &sc.ContractID, &sc.Sector, &sc.Status, &sc.Priority,
		&sc.AssignedUserID, &sc.ClientName, &sc.ClientPhone, &sc.LastTouchedAt,
		&sc.HuellasAt, &sc.TIEAvailableAt, &sc.TIEPickedUpAt,
		&sc.OnboardingDone, &sc.CreatedAt,
	)
	return sc, err
}
