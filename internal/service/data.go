package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"dataplatform/internal/apperror"
	"dataplatform/internal/logging"
	"dataplatform/internal/model"
	"dataplatform/internal/repository"
	"dataplatform/internal/spreadsheet"
	"dataplatform/internal/storage"
	"dataplatform/internal/upload"
)

var tracer = otel.Tracer("dataplatform/internal/service")

// DataService defines the write-side use cases of the platform.
type DataService interface {
	// UploadFile stores the content and records it under the location at the
	// given coordinates. It returns the public path of the stored object.
	UploadFile(ctx context.Context, in UploadInput) (string, error)

	// ImportMonitoringData parses a monitoring spreadsheet and writes every
	// row in one transaction. Nothing is written when any row is malformed.
	ImportMonitoringData(ctx context.Context, in ImportInput) (*ImportResult, error)
}

// DataOptions tune a DataService. Zero values fall back to defaults.
type DataOptions struct {
	MaxFileSize int64
	KeyPrefix   string
	Metrics     *Metrics
	Now         func() time.Time
}

type dataService struct {
	store       storage.Storage
	locations   repository.LocationRepository
	files       repository.FileRepository
	monitoring  repository.MonitoringRepository
	uploadRules upload.Rules
	importRules upload.Rules
	keyPrefix   string
	metrics     *Metrics
	now         func() time.Time
}

// NewDataService constructs a new DataService.
func NewDataService(
	store storage.Storage,
	locations repository.LocationRepository,
	files repository.FileRepository,
	monitoring repository.MonitoringRepository,
	opts DataOptions,
) DataService {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = upload.DefaultMaxSize
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &dataService{
		store:       store,
		locations:   locations,
		files:       files,
		monitoring:  monitoring,
		uploadRules: upload.GenericRules(opts.MaxFileSize),
		importRules: upload.SpreadsheetRules(opts.MaxFileSize),
		keyPrefix:   opts.KeyPrefix,
		metrics:     opts.Metrics,
		now:         opts.Now,
	}
}

func (s *dataService) UploadFile(ctx context.Context, in UploadInput) (string, error) {
	ctx, span := tracer.Start(ctx, "DataService.UploadFile", trace.WithAttributes(
		attribute.String("file.name", in.Filename),
		attribute.Int64("file.size", in.Size),
	))
	defer span.End()

	public, err := s.uploadFile(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperror.CodeOf(err).Message)
	}
	return public, err
}

func (s *dataService) uploadFile(ctx context.Context, in UploadInput) (string, error) {
	ext, err := s.uploadRules.Validate(in.Content, in.Filename, in.Size)
	if err != nil {
		return "", err
	}
	lat, lon, err := parseCoordinates(in.Latitude, in.Longitude)
	if err != nil {
		return "", err
	}

	// Resolve before touching the store so an unknown location leaves no object behind.
	pointID, err := s.resolve(ctx, lat, lon)
	if err != nil {
		return "", err
	}

	key := upload.GenerateName(ext)
	if s.keyPrefix != "" {
		key = path.Join(s.keyPrefix, key)
	}
	info, err := s.store.Put(ctx, key, in.Content, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: in.ContentType,
		Metadata: map[string]string{
			"original-filename": in.Filename,
		},
	})
	if err != nil {
		return "", apperror.Wrap(apperror.ServerError, fmt.Errorf("upload to storage: %w", err))
	}
	if info.Key != "" {
		key = info.Key
	}

	category := upload.CategoryOf(ext)
	f := &model.StoredFile{
		ID:         uuid.NewString(),
		Name:       in.Filename,
		Postfix:    "." + ext,
		Path:       key,
		Type:       category,
		PointID:    pointID,
		UploadedAt: s.now(),
	}
	if _, err := s.files.Create(ctx, f); err != nil {
		// Compensate: the object has no record pointing at it.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return "", apperror.Wrap(apperror.ServerError,
				fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr))
		}
		return "", apperror.Wrap(apperror.ServerError, fmt.Errorf("db save failed: %w", err))
	}

	s.metrics.fileUploaded(category)
	logging.FromContext(ctx).Info("file stored",
		"key", key,
		"category", category,
		"point_id", pointID,
		"size", in.Size,
	)
	return s.store.PublicURL(key), nil
}

func (s *dataService) ImportMonitoringData(ctx context.Context, in ImportInput) (*ImportResult, error) {
	ctx, span := tracer.Start(ctx, "DataService.ImportMonitoringData", trace.WithAttributes(
		attribute.String("file.name", in.Filename),
		attribute.Int64("file.size", in.Size),
	))
	defer span.End()

	res, err := s.importMonitoringData(ctx, in)
	if err != nil {
		code := apperror.CodeOf(err)
		s.metrics.importFailed(strconv.Itoa(code.Value))
		span.RecordError(err)
		span.SetStatus(codes.Error, code.Message)
		return nil, err
	}
	span.SetAttributes(attribute.Int("import.rows", res.Rows))
	return res, nil
}

func (s *dataService) importMonitoringData(ctx context.Context, in ImportInput) (*ImportResult, error) {
	// A present part with a blank name is "no file selected"; missing content
	// is a parameter error and is left to Validate.
	if in.Content != nil && in.Filename == "" {
		return nil, apperror.New(apperror.UnselectedFile)
	}
	ext, err := s.importRules.Validate(in.Content, in.Filename, in.Size)
	if err != nil {
		return nil, err
	}

	var pointID *int64
	if in.Latitude != "" || in.Longitude != "" {
		lat, lon, err := parseCoordinates(in.Latitude, in.Longitude)
		if err != nil {
			return nil, err
		}
		id, err := s.resolve(ctx, lat, lon)
		if err != nil {
			return nil, err
		}
		pointID = &id
	}

	records, err := readRecords(in, ext)
	if err != nil {
		return nil, err
	}

	n, err := s.writeRecords(ctx, records, pointID)
	if err != nil {
		return nil, err
	}

	s.metrics.rowsCommitted(n)
	logging.FromContext(ctx).Info("monitoring data imported",
		"filename", in.Filename,
		"rows", n,
	)
	return &ImportResult{Rows: n}, nil
}

// readRecords drains the whole sheet before anything is written.
func readRecords(in ImportInput, ext string) ([]model.MonitoringRecord, error) {
	rows, err := spreadsheet.Open(in.Content, ext)
	if err != nil {
		return nil, apperror.Wrap(apperror.ReadExcelError, err)
	}
	defer rows.Close()

	var records []model.MonitoringRecord
	for rows.Next() {
		records = append(records, rows.Record())
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Wrap(apperror.ReadExcelError, err)
	}
	return records, nil
}

func (s *dataService) writeRecords(ctx context.Context, records []model.MonitoringRecord, pointID *int64) (int, error) {
	tx, err := s.monitoring.Begin(ctx)
	if err != nil {
		return 0, apperror.Wrap(apperror.ServerError, fmt.Errorf("begin import: %w", err))
	}
	defer tx.Rollback()

	now := s.now()
	for i, rec := range records {
		if _, err := tx.Insert(ctx, model.NewMonitoringData(rec, pointID, now)); err != nil {
			return 0, apperror.Wrap(apperror.ServerError, fmt.Errorf("insert record %d: %w", i+1, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, apperror.Wrap(apperror.ServerError, fmt.Errorf("commit import: %w", err))
	}
	return len(records), nil
}

func (s *dataService) resolve(ctx context.Context, lat, lon float64) (int64, error) {
	id, err := s.locations.Resolve(ctx, lat, lon)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperror.Wrap(apperror.DataNotExist, fmt.Errorf("no location at %v,%v", lat, lon))
		}
		return 0, apperror.Wrap(apperror.ServerError, fmt.Errorf("resolve location: %w", err))
	}
	return id, nil
}
