// Package repository declares persistence contracts. Implementations live in
// subpackages (postgres) and contain no business logic.
package repository

import (
	"context"

	"dataplatform/internal/model"
)

// LocationRepository resolves coordinates to a known location.
type LocationRepository interface {
	// Resolve returns the id of the location at exactly (lat, lon), or
	// sql.ErrNoRows when there is none.
	Resolve(ctx context.Context, lat, lon float64) (int64, error)
}

// FileRepository stores file metadata.
type FileRepository interface {
	// Create inserts a new file record and returns the stored row.
	// A point id that does not exist fails with a foreign key violation.
	Create(ctx context.Context, f *model.StoredFile) (*model.StoredFile, error)

	// FindByID returns a file record or sql.ErrNoRows.
	FindByID(ctx context.Context, id string) (*model.StoredFile, error)

	// List returns a page of file records, newest first, and the total count.
	List(ctx context.Context, q FileQuery) (*PageResult[model.StoredFile], error)
}

// MonitoringRepository writes imported monitoring data.
type MonitoringRepository interface {
	// Begin opens a transaction scope for one import.
	Begin(ctx context.Context) (MonitoringTx, error)
}

// MonitoringTx is an all-or-nothing batch of monitoring inserts.
// Rollback after Commit is a no-op, so callers may always defer it.
type MonitoringTx interface {
	Insert(ctx context.Context, d *model.MonitoringData) (*model.MonitoringData, error)
	Commit() error
	Rollback() error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// FileQuery filters file listings. PointID 0 means all locations.
type FileQuery struct {
	PageQuery
	PointID int64
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
