package postgres

import (
	"context"
	"database/sql"

	"dataplatform/internal/repository"
)

// LocationPostgres resolves coordinates against the points table.
type LocationPostgres struct {
	db *sql.DB
}

// NewLocationPostgres creates a new LocationPostgres repository.
func NewLocationPostgres(db *sql.DB) *LocationPostgres {
	return &LocationPostgres{db: db}
}

var _ repository.LocationRepository = (*LocationPostgres)(nil)

// Resolve returns the id of the point with the given coordinates.
func (r *LocationPostgres) Resolve(ctx context.Context, lat, lon float64) (int64, error) {
	const q = `
		SELECT id
		FROM points
		WHERE latitude = $1 AND longitude = $2
		ORDER BY id
		LIMIT 1
	`
	var id int64
	if err := r.db.QueryRowContext(ctx, q, lat, lon).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
