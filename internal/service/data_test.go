package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"dataplatform/internal/apperror"
	"dataplatform/internal/model"
	repoMocks "dataplatform/internal/repository/mocks"
	"dataplatform/internal/spreadsheet"
	"dataplatform/internal/storage"
	storeMocks "dataplatform/internal/storage/mocks"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var fixedNow = time.Date(2023, 10, 5, 8, 0, 0, 0, time.UTC)

type deps struct {
	store      *storeMocks.MockStorage
	locations  *repoMocks.MockLocationRepository
	files      *repoMocks.MockFileRepository
	monitoring *repoMocks.MockMonitoringRepository
	tx         *repoMocks.MockMonitoringTx
}

func newDeps() *deps {
	return &deps{
		store:      new(storeMocks.MockStorage),
		locations:  new(repoMocks.MockLocationRepository),
		files:      new(repoMocks.MockFileRepository),
		monitoring: new(repoMocks.MockMonitoringRepository),
		tx:         new(repoMocks.MockMonitoringTx),
	}
}

func (d *deps) service(opts DataOptions) DataService {
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	return NewDataService(d.store, d.locations, d.files, d.monitoring, opts)
}

func (d *deps) assertExpectations(t *testing.T) {
	t.Helper()
	d.store.AssertExpectations(t)
	d.locations.AssertExpectations(t)
	d.files.AssertExpectations(t)
	d.monitoring.AssertExpectations(t)
	d.tx.AssertExpectations(t)
}

// spyReader counts reads so tests can assert content was never touched.
type spyReader struct{ reads int }

func (s *spyReader) Read(p []byte) (int, error) {
	s.reads++
	return 0, io.EOF
}

func buildSheet(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	header := make([]any, len(spreadsheet.Columns))
	for i, c := range spreadsheet.Columns {
		header[i] = c
	}
	all := append([][]any{header}, rows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func sheetRows(n int) [][]any {
	rows := make([][]any, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, []any{
			fmt.Sprintf("S-%02d", i+1),
			fmt.Sprintf("2023-10-04 %02d:00:00", i),
			fmt.Sprintf("%d.5", 20+i),
			fmt.Sprint(50 + i),
			"",
			"3.2",
			"",
			"",
		})
	}
	return rows
}

func importInput(content []byte) ImportInput {
	return ImportInput{
		Content:  bytes.NewReader(content),
		Filename: "monitoring.xlsx",
		Size:     int64(len(content)),
	}
}

func returnArg(d *model.MonitoringData) *model.MonitoringData { return d }

func TestDataService_UploadFile(t *testing.T) {
	ctx := context.Background()
	keyPattern := regexp.MustCompile(`^uploads/[0-9a-f]{8}\.png$`)

	t.Run("happy path", func(t *testing.T) {
		d := newDeps()
		r := strings.NewReader("png-bytes")

		d.locations.On("Resolve", mock.Anything, 30.5, 114.25).Return(int64(7), nil)
		d.store.On("Put", mock.Anything, mock.MatchedBy(keyPattern.MatchString), r, mock.MatchedBy(func(o storage.PutObjectOptions) bool {
			return o.Size == 9 && o.ContentType == "image/png" && o.Metadata["original-filename"] == "photo.png"
		})).Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
			return storage.ObjectInfo{Key: key, Size: opt.Size}
		}, nil)
		d.files.On("Create", mock.Anything, mock.MatchedBy(func(f *model.StoredFile) bool {
			return f.ID != "" &&
				f.Name == "photo.png" &&
				f.Postfix == ".png" &&
				keyPattern.MatchString(f.Path) &&
				f.Type == "image" &&
				f.PointID == 7 &&
				f.UploadedAt.Equal(fixedNow)
		})).Return(&model.StoredFile{}, nil)
		d.store.On("PublicURL", mock.MatchedBy(keyPattern.MatchString)).Return("http://minio:9000/files/uploads/ab12cd34.png")

		svc := d.service(DataOptions{KeyPrefix: "uploads"})
		got, err := svc.UploadFile(ctx, UploadInput{
			Latitude:    "30.5",
			Longitude:   " 114.25 ",
			Content:     r,
			Filename:    "photo.png",
			ContentType: "image/png",
			Size:        9,
		})

		require.NoError(t, err)
		assert.Equal(t, "http://minio:9000/files/uploads/ab12cd34.png", got)
		d.assertExpectations(t)
	})

	t.Run("location not found makes no store call", func(t *testing.T) {
		d := newDeps()
		d.locations.On("Resolve", mock.Anything, 1.0, 2.0).Return(int64(0), sql.ErrNoRows)

		svc := d.service(DataOptions{})
		_, err := svc.UploadFile(ctx, UploadInput{
			Latitude: "1", Longitude: "2",
			Content: strings.NewReader("x"), Filename: "a.pdf", Size: 1,
		})

		require.Error(t, err)
		assert.Equal(t, apperror.DataNotExist, apperror.CodeOf(err))
		assert.Equal(t, 1002, apperror.CodeOf(err).Value)
		d.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		d.files.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		d.assertExpectations(t)
	})

	t.Run("storage failure", func(t *testing.T) {
		d := newDeps()
		d.locations.On("Resolve", mock.Anything, 1.0, 2.0).Return(int64(3), nil)
		d.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, errors.New("connection refused"))

		svc := d.service(DataOptions{})
		_, err := svc.UploadFile(ctx, UploadInput{
			Latitude: "1", Longitude: "2",
			Content: strings.NewReader("x"), Filename: "a.pdf", Size: 1,
		})

		assert.Equal(t, apperror.ServerError, apperror.CodeOf(err))
		assert.Contains(t, err.Error(), "upload to storage: connection refused")
		d.files.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		d.assertExpectations(t)
	})

	t.Run("record failure deletes stored object", func(t *testing.T) {
		d := newDeps()
		var storedKey string
		d.locations.On("Resolve", mock.Anything, 1.0, 2.0).Return(int64(3), nil)
		d.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
				storedKey = key
				return storage.ObjectInfo{Key: key}
			}, nil)
		d.files.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("db fail"))
		d.store.On("Delete", mock.Anything, mock.MatchedBy(func(key string) bool { return key == storedKey })).Return(nil)

		svc := d.service(DataOptions{})
		_, err := svc.UploadFile(ctx, UploadInput{
			Latitude: "1", Longitude: "2",
			Content: strings.NewReader("x"), Filename: "a.pdf", Size: 1,
		})

		assert.Equal(t, apperror.ServerError, apperror.CodeOf(err))
		assert.Contains(t, err.Error(), "db save failed: db fail")
		d.assertExpectations(t)
	})

	t.Run("record failure with failed compensation", func(t *testing.T) {
		d := newDeps()
		d.locations.On("Resolve", mock.Anything, 1.0, 2.0).Return(int64(3), nil)
		d.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{Key: "k"}, nil)
		d.files.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("db fail"))
		d.store.On("Delete", mock.Anything, "k").Return(errors.New("delete fail"))

		svc := d.service(DataOptions{})
		_, err := svc.UploadFile(ctx, UploadInput{
			Latitude: "1", Longitude: "2",
			Content: strings.NewReader("x"), Filename: "a.pdf", Size: 1,
		})

		assert.Equal(t, apperror.ServerError, apperror.CodeOf(err))
		assert.Contains(t, err.Error(), "rollback delete failed: delete fail")
		d.assertExpectations(t)
	})
}

func TestDataService_UploadFile_Rejections(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		lat, lon string
		filename string
		size     int64
		nilBody  bool
		wantCode apperror.Code
	}{
		{name: "nil content", lat: "1", lon: "2", filename: "a.png", size: 10, nilBody: true, wantCode: apperror.ParamInvalid},
		{name: "empty content", lat: "1", lon: "2", filename: "a.png", size: 0, wantCode: apperror.ParamInvalid},
		{name: "invalid latitude", lat: "north", lon: "2", filename: "a.png", size: 10, wantCode: apperror.ParamInvalid},
		{name: "latitude out of range", lat: "91", lon: "2", filename: "a.png", size: 10, wantCode: apperror.ParamInvalid},
		{name: "missing longitude", lat: "1", lon: "", filename: "a.png", size: 10, wantCode: apperror.ParamInvalid},
		{name: "NaN latitude", lat: "NaN", lon: "2", filename: "a.png", size: 10, wantCode: apperror.ParamInvalid},
		{name: "NaN longitude", lat: "1", lon: "nan", filename: "a.png", size: 10, wantCode: apperror.ParamInvalid},
		{name: "oversize", lat: "1", lon: "2", filename: "a.png", size: 1025, wantCode: apperror.OverSize},
		{name: "oversize with blank coordinates", filename: "a.png", size: 4096, wantCode: apperror.OverSize},
		{name: "oversize with bad coordinates", lat: "north", lon: "south", filename: "a.png", size: 4096, wantCode: apperror.OverSize},
		{name: "disallowed extension with bad coordinates", lat: "north", lon: "2", filename: "a.exe", size: 10, wantCode: apperror.FileTypeError},
		{name: "disallowed extension", lat: "1", lon: "2", filename: "a.exe", size: 10, wantCode: apperror.FileTypeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDeps()
			spy := &spyReader{}
			var content io.Reader = spy
			if tt.nilBody {
				content = nil
			}

			svc := d.service(DataOptions{MaxFileSize: 1024})
			_, err := svc.UploadFile(ctx, UploadInput{
				Latitude: tt.lat, Longitude: tt.lon,
				Content: content, Filename: tt.filename, Size: tt.size,
			})

			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperror.CodeOf(err))
			assert.Zero(t, spy.reads)
			d.locations.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)
			d.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			d.files.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestDataService_ImportMonitoringData(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip keeps row order and fields", func(t *testing.T) {
		d := newDeps()
		d.monitoring.On("Begin", mock.Anything).Return(d.tx, nil)
		d.tx.On("Insert", mock.Anything, mock.Anything).Return(returnArg, nil)
		d.tx.On("Commit").Return(nil)
		d.tx.On("Rollback").Return(nil)

		src := sheetRows(5)
		svc := d.service(DataOptions{})
		res, err := svc.ImportMonitoringData(ctx, importInput(buildSheet(t, src)))

		require.NoError(t, err)
		assert.Equal(t, 5, res.Rows)
		require.Len(t, d.tx.Inserted, 5)
		for i, got := range d.tx.Inserted {
			assert.Equal(t, src[i][0], got.SensorID)
			assert.Equal(t, time.Date(2023, 10, 4, i, 0, 0, 0, time.UTC), got.MeasuredAt)
			require.NotNil(t, got.Temperature)
			assert.Equal(t, float64(20+i)+0.5, *got.Temperature)
			require.NotNil(t, got.Humidity)
			assert.Equal(t, float64(50+i), *got.Humidity)
			assert.Nil(t, got.Pressure)
			require.NotNil(t, got.WindSpeed)
			assert.Equal(t, 3.2, *got.WindSpeed)
			assert.Nil(t, got.PointID)
			assert.Equal(t, fixedNow, got.CreatedAt)
		}
		d.locations.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)
		d.assertExpectations(t)
	})

	t.Run("coordinates stamp the location on every record", func(t *testing.T) {
		d := newDeps()
		d.locations.On("Resolve", mock.Anything, 30.5, 114.25).Return(int64(9), nil)
		d.monitoring.On("Begin", mock.Anything).Return(d.tx, nil)
		d.tx.On("Insert", mock.Anything, mock.Anything).Return(returnArg, nil)
		d.tx.On("Commit").Return(nil)
		d.tx.On("Rollback").Return(nil)

		in := importInput(buildSheet(t, sheetRows(3)))
		in.Latitude, in.Longitude = "30.5", "114.25"

		res, err := d.service(DataOptions{}).ImportMonitoringData(ctx, in)

		require.NoError(t, err)
		assert.Equal(t, 3, res.Rows)
		for _, got := range d.tx.Inserted {
			require.NotNil(t, got.PointID)
			assert.Equal(t, int64(9), *got.PointID)
		}
		d.assertExpectations(t)
	})

	t.Run("re-import writes duplicates", func(t *testing.T) {
		d := newDeps()
		d.monitoring.On("Begin", mock.Anything).Return(d.tx, nil)
		d.tx.On("Insert", mock.Anything, mock.Anything).Return(returnArg, nil)
		d.tx.On("Commit").Return(nil)
		d.tx.On("Rollback").Return(nil)

		content := buildSheet(t, sheetRows(4))
		svc := d.service(DataOptions{})

		_, err := svc.ImportMonitoringData(ctx, importInput(content))
		require.NoError(t, err)
		_, err = svc.ImportMonitoringData(ctx, importInput(content))
		require.NoError(t, err)

		require.Len(t, d.tx.Inserted, 8)
		for i := 0; i < 4; i++ {
			first, second := d.tx.Inserted[i], d.tx.Inserted[i+4]
			assert.Equal(t, first.SensorID, second.SensorID)
			assert.Equal(t, first.MeasuredAt, second.MeasuredAt)
			assert.NotEqual(t, first.ID, second.ID)
		}
		d.monitoring.AssertNumberOfCalls(t, "Begin", 2)
		d.tx.AssertNumberOfCalls(t, "Commit", 2)
	})

	t.Run("malformed row 7 of 10 writes nothing", func(t *testing.T) {
		d := newDeps()
		src := sheetRows(10)
		src[6][1] = "not-a-time"

		_, err := d.service(DataOptions{}).ImportMonitoringData(ctx, importInput(buildSheet(t, src)))

		require.Error(t, err)
		assert.Equal(t, apperror.ReadExcelError, apperror.CodeOf(err))
		var rowErr *spreadsheet.RowError
		require.ErrorAs(t, err, &rowErr)
		assert.Equal(t, 8, rowErr.Row)
		d.monitoring.AssertNotCalled(t, "Begin", mock.Anything)
		assert.Empty(t, d.tx.Inserted)
	})

	t.Run("failed insert rolls back without commit", func(t *testing.T) {
		d := newDeps()
		d.monitoring.On("Begin", mock.Anything).Return(d.tx, nil)
		d.tx.On("Insert", mock.Anything, mock.Anything).Return(returnArg, nil).Times(2)
		d.tx.On("Insert", mock.Anything, mock.Anything).Return(nil, errors.New("constraint violation")).Once()
		d.tx.On("Rollback").Return(nil)

		_, err := d.service(DataOptions{}).ImportMonitoringData(ctx, importInput(buildSheet(t, sheetRows(5))))

		require.Error(t, err)
		assert.Equal(t, apperror.ServerError, apperror.CodeOf(err))
		assert.Contains(t, err.Error(), "insert record 3")
		d.tx.AssertNotCalled(t, "Commit")
		d.tx.AssertCalled(t, "Rollback")
		d.tx.AssertNumberOfCalls(t, "Insert", 3)
	})

	t.Run("commit failure", func(t *testing.T) {
		d := newDeps()
		d.monitoring.On("Begin", mock.Anything).Return(d.tx, nil)
		d.tx.On("Insert", mock.Anything, mock.Anything).Return(returnArg, nil)
		d.tx.On("Commit").Return(errors.New("serialization failure"))
		d.tx.On("Rollback").Return(nil)

		_, err := d.service(DataOptions{}).ImportMonitoringData(ctx, importInput(buildSheet(t, sheetRows(2))))

		assert.Equal(t, apperror.ServerError, apperror.CodeOf(err))
		assert.Contains(t, err.Error(), "commit import")
		d.assertExpectations(t)
	})

	t.Run("begin failure", func(t *testing.T) {
		d := newDeps()
		d.monitoring.On("Begin", mock.Anything).Return(nil, errors.New("too many connections"))

		_, err := d.service(DataOptions{}).ImportMonitoringData(ctx, importInput(buildSheet(t, sheetRows(2))))

		assert.Equal(t, apperror.ServerError, apperror.CodeOf(err))
		d.assertExpectations(t)
	})

	t.Run("unknown location", func(t *testing.T) {
		d := newDeps()
		d.locations.On("Resolve", mock.Anything, 1.0, 2.0).Return(int64(0), sql.ErrNoRows)

		in := importInput(buildSheet(t, sheetRows(2)))
		in.Latitude, in.Longitude = "1", "2"
		_, err := d.service(DataOptions{}).ImportMonitoringData(ctx, in)

		assert.Equal(t, apperror.DataNotExist, apperror.CodeOf(err))
		d.monitoring.AssertNotCalled(t, "Begin", mock.Anything)
		d.assertExpectations(t)
	})

	t.Run("corrupt workbook", func(t *testing.T) {
		d := newDeps()
		content := []byte("this is not a zip archive")

		_, err := d.service(DataOptions{}).ImportMonitoringData(ctx, importInput(content))

		assert.Equal(t, apperror.ReadExcelError, apperror.CodeOf(err))
		d.monitoring.AssertNotCalled(t, "Begin", mock.Anything)
	})
}

func TestDataService_ImportMonitoringData_Rejections(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		filename string
		size     int64
		nilBody  bool
		lat, lon string
		wantCode apperror.Code
	}{
		{name: "no file selected", filename: "", size: 10, wantCode: apperror.UnselectedFile},
		{name: "nil content", filename: "data.xlsx", size: 10, nilBody: true, wantCode: apperror.ParamInvalid},
		{name: "nil content and no name", filename: "", size: 0, nilBody: true, wantCode: apperror.ParamInvalid},
		{name: "empty content", filename: "data.xlsx", size: 0, wantCode: apperror.ParamInvalid},
		{name: "csv is not a spreadsheet", filename: "data.csv", size: 10, wantCode: apperror.FileTypeError},
		{name: "image is not a spreadsheet", filename: "data.png", size: 10, wantCode: apperror.FileTypeError},
		{name: "oversize", filename: "data.xls", size: 2048, wantCode: apperror.OverSize},
		{name: "only one coordinate", filename: "data.xlsx", size: 10, lat: "1", wantCode: apperror.ParamInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDeps()
			spy := &spyReader{}
			var content io.Reader = spy
			if tt.nilBody {
				content = nil
			}

			_, err := d.service(DataOptions{MaxFileSize: 1024}).ImportMonitoringData(ctx, ImportInput{
				Latitude: tt.lat, Longitude: tt.lon,
				Content: content, Filename: tt.filename, Size: tt.size,
			})

			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperror.CodeOf(err))
			assert.Zero(t, spy.reads)
			d.monitoring.AssertNotCalled(t, "Begin", mock.Anything)
			assert.Empty(t, d.tx.Inserted)
		})
	}
}

func TestDataService_Metrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	d := newDeps()
	d.monitoring.On("Begin", mock.Anything).Return(d.tx, nil)
	d.tx.On("Insert", mock.Anything, mock.Anything).Return(returnArg, nil)
	d.tx.On("Commit").Return(nil)
	d.tx.On("Rollback").Return(nil)
	d.locations.On("Resolve", mock.Anything, 1.0, 2.0).Return(int64(1), nil)
	d.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{Key: "k.pdf"}, nil)
	d.files.On("Create", mock.Anything, mock.Anything).Return(&model.StoredFile{}, nil)
	d.store.On("PublicURL", "k.pdf").Return("http://minio/files/k.pdf")

	svc := d.service(DataOptions{Metrics: metrics})

	_, err = svc.ImportMonitoringData(ctx, importInput(buildSheet(t, sheetRows(3))))
	require.NoError(t, err)
	_, err = svc.ImportMonitoringData(ctx, ImportInput{Filename: "x.csv", Content: strings.NewReader("a"), Size: 1})
	require.Error(t, err)
	_, err = svc.UploadFile(ctx, UploadInput{Latitude: "1", Longitude: "2", Content: strings.NewReader("a"), Filename: "a.pdf", Size: 1})
	require.NoError(t, err)

	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.rowsImported))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.importFailures.WithLabelValues("3002")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.filesUploaded.WithLabelValues("document")))

	_, err = NewMetrics(reg)
	assert.Error(t, err, "registering twice must fail")
}
