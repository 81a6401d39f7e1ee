package postgres

import (
	"context"
	"database/sql"

	"dataplatform/internal/model"
	"dataplatform/internal/repository"
)

// FilePostgres is a PostgreSQL implementation of repository.FileRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type FilePostgres struct {
	db *sql.DB
}

// NewFilePostgres creates a new FilePostgres repository.
func NewFilePostgres(db *sql.DB) *FilePostgres {
	return &FilePostgres{db: db}
}

var _ repository.FileRepository = (*FilePostgres)(nil)

const fileColumns = `id, name, postfix, path, type, point_id, uploaded_at`

// Create inserts a new file row and returns the stored record.
func (r *FilePostgres) Create(ctx context.Context, f *model.StoredFile) (*model.StoredFile, error) {
	const q = `
		INSERT INTO files (id, name, postfix, path, type, point_id, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + fileColumns
	row := r.db.QueryRowContext(ctx, q,
		f.ID,
		f.Name,
		f.Postfix,
		f.Path,
		f.Type,
		f.PointID,
		f.UploadedAt,
	)
	return scanFile(row)
}

// FindByID fetches a single file by its ID.
func (r *FilePostgres) FindByID(ctx context.Context, id string) (*model.StoredFile, error) {
	const q = `SELECT ` + fileColumns + ` FROM files WHERE id = $1`
	return scanFile(r.db.QueryRowContext(ctx, q, id))
}

// List returns files using LIMIT/OFFSET pagination and a total count.
func (r *FilePostgres) List(ctx context.Context, fq repository.FileQuery) (*repository.PageResult[model.StoredFile], error) {
	// $1 = 0 disables the point filter.
	const qCount = `SELECT COUNT(*) FROM files WHERE ($1::bigint = 0 OR point_id = $1::bigint)`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, fq.PointID).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `SELECT ` + fileColumns + `
		FROM files
		WHERE ($1::bigint = 0 OR point_id = $1::bigint)
		ORDER BY uploaded_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, qList, fq.PointID, fq.Limit, fq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.StoredFile, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.StoredFile]{
		Items: items,
		Total: total,
	}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(s scanner) (*model.StoredFile, error) {
	var f model.StoredFile
	if err := s.Scan(
		&f.ID,
		&f.Name,
		&f.Postfix,
		&f.Path,
		&f.Type,
		&f.PointID,
		&f.UploadedAt,
	); err != nil {
		return nil, err
	}
	return &f, nil
}
