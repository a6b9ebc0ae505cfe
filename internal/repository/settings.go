package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Settings reads the flat key/value workflow_settings table. The resolver
// on top of it handles absent and malformed values.
type Settings struct {
	pool *pgxpool.Pool
}

func NewSettings(pool *pgxpool.Pool) *Settings {
	return &Settings{pool: pool}
}

func (r *Settings) ReadSettings(ctx context.Context, keys []string) (map[string]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT key, value FROM workflow_settings WHERE key = ANY($1)`,
		keys,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string, len(keys))
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, rows.Err()
}
