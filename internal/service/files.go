package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dataplatform/internal/apperror"
	"dataplatform/internal/model"
	"dataplatform/internal/repository"
	"dataplatform/internal/storage"
)

const (
	defaultLimit  = 10
	maxLimit      = 100
	defaultExpiry = 15 * time.Minute
	maxExpiry     = 7 * 24 * time.Hour
)

// FileView is a stored file with its public URL.
type FileView struct {
	model.StoredFile
	URL string `json:"url"`
}

// PresignResult is a time-limited download link.
type PresignResult struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FileService defines the read-side use cases for uploaded files.
type FileService interface {
	// ListFiles returns files newest first. pointID 0 lists every location.
	ListFiles(ctx context.Context, pointID int64, limit, offset int) (*FileListResult, error)

	// GetFile returns a single file by its ID.
	GetFile(ctx context.Context, id string) (*FileView, error)

	// PresignFile returns a download URL valid for expiry.
	PresignFile(ctx context.Context, id string, expiry time.Duration) (*PresignResult, error)
}

type fileService struct {
	store storage.Storage
	repo  repository.FileRepository
}

// NewFileService constructs a new FileService.
func NewFileService(store storage.Storage, repo repository.FileRepository) FileService {
	return &fileService{store: store, repo: repo}
}

func (s *fileService) ListFiles(ctx context.Context, pointID int64, limit, offset int) (*FileListResult, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	if pointID < 0 {
		return nil, apperror.New(apperror.ParamInvalid)
	}

	res, err := s.repo.List(ctx, repository.FileQuery{
		PageQuery: repository.PageQuery{Limit: limit, Offset: offset},
		PointID:   pointID,
	})
	if err != nil {
		return nil, apperror.Wrap(apperror.ServerError, err)
	}

	items := make([]FileView, 0, len(res.Items))
	for _, f := range res.Items {
		items = append(items, s.view(f))
	}
	return &FileListResult{Items: items, Total: res.Total}, nil
}

func (s *fileService) GetFile(ctx context.Context, id string) (*FileView, error) {
	f, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	v := s.view(*f)
	return &v, nil
}

func (s *fileService) PresignFile(ctx context.Context, id string, expiry time.Duration) (*PresignResult, error) {
	if expiry <= 0 {
		expiry = defaultExpiry
	}
	if expiry > maxExpiry {
		return nil, apperror.New(apperror.ParamInvalid)
	}
	f, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	u, err := s.store.PresignGet(ctx, f.Path, expiry)
	if err != nil {
		return nil, apperror.Wrap(apperror.ServerError, err)
	}
	return &PresignResult{URL: u, ExpiresAt: time.Now().UTC().Add(expiry)}, nil
}

func (s *fileService) find(ctx context.Context, id string) (*model.StoredFile, error) {
	if id == "" {
		return nil, apperror.New(apperror.ParamRequire)
	}
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.Wrap(apperror.DataNotExist, err)
		}
		return nil, apperror.Wrap(apperror.ServerError, err)
	}
	return f, nil
}

func (s *fileService) view(f model.StoredFile) FileView {
	return FileView{StoredFile: f, URL: s.store.PublicURL(f.Path)}
}
