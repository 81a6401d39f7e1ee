package mocks

import (
	"context"
	"time"

	"dataplatform/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockDataService struct {
	mock.Mock
}

func (m *MockDataService) UploadFile(ctx context.Context, in service.UploadInput) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}

func (m *MockDataService) ImportMonitoringData(ctx context.Context, in service.ImportInput) (*service.ImportResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ImportResult), args.Error(1)
}

type MockFileService struct {
	mock.Mock
}

func (m *MockFileService) ListFiles(ctx context.Context, pointID int64, limit, offset int) (*service.FileListResult, error) {
	args := m.Called(ctx, pointID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FileListResult), args.Error(1)
}

func (m *MockFileService) GetFile(ctx context.Context, id string) (*service.FileView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FileView), args.Error(1)
}

func (m *MockFileService) PresignFile(ctx context.Context, id string, expiry time.Duration) (*service.PresignResult, error) {
	args := m.Called(ctx, id, expiry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PresignResult), args.Error(1)
}
