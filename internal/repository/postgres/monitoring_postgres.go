package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dataplatform/internal/model"
	"dataplatform/internal/repository"
)

// MonitoringPostgres writes monitoring_data rows inside explicit transactions.
type MonitoringPostgres struct {
	db *sql.DB
}

// NewMonitoringPostgres creates a new MonitoringPostgres repository.
func NewMonitoringPostgres(db *sql.DB) *MonitoringPostgres {
	return &MonitoringPostgres{db: db}
}

var _ repository.MonitoringRepository = (*MonitoringPostgres)(nil)

// Begin starts a transaction for one import batch.
func (r *MonitoringPostgres) Begin(ctx context.Context) (repository.MonitoringTx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &monitoringTx{tx: tx}, nil
}

type monitoringTx struct {
	tx *sql.Tx
}

func (t *monitoringTx) Insert(ctx context.Context, d *model.MonitoringData) (*model.MonitoringData, error) {
	const q = `
		INSERT INTO monitoring_data (
			id, point_id, sensor_id, measured_at,
			temperature, humidity, pressure, wind_speed, wind_direction, precipitation,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`
	out := *d
	err := t.tx.QueryRowContext(ctx, q,
		d.ID,
		d.PointID,
		d.SensorID,
		d.MeasuredAt,
		d.Temperature,
		d.Humidity,
		d.Pressure,
		d.WindSpeed,
		d.WindDirection,
		d.Precipitation,
		d.CreatedAt,
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *monitoringTx) Commit() error {
	return t.tx.Commit()
}

// Rollback ignores sql.ErrTxDone so it can be deferred unconditionally.
func (t *monitoringTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}
