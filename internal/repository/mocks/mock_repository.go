package mocks

import (
	"context"

	"dataplatform/internal/model"
	"dataplatform/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockLocationRepository struct {
	mock.Mock
}

func (m *MockLocationRepository) Resolve(ctx context.Context, lat, lon float64) (int64, error) {
	args := m.Called(ctx, lat, lon)
	return args.Get(0).(int64), args.Error(1)
}

type MockFileRepository struct {
	mock.Mock
}

func (m *MockFileRepository) Create(ctx context.Context, f *model.StoredFile) (*model.StoredFile, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StoredFile), args.Error(1)
}

func (m *MockFileRepository) FindByID(ctx context.Context, id string) (*model.StoredFile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StoredFile), args.Error(1)
}

func (m *MockFileRepository) List(ctx context.Context, q repository.FileQuery) (*repository.PageResult[model.StoredFile], error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.StoredFile]), args.Error(1)
}

type MockMonitoringRepository struct {
	mock.Mock
}

func (m *MockMonitoringRepository) Begin(ctx context.Context) (repository.MonitoringTx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.MonitoringTx), args.Error(1)
}

// MockMonitoringTx records inserted rows in Inserted, in call order.
type MockMonitoringTx struct {
	mock.Mock
	Inserted []*model.MonitoringData
}

func (m *MockMonitoringTx) Insert(ctx context.Context, d *model.MonitoringData) (*model.MonitoringData, error) {
	args := m.Called(ctx, d)
	if args.Error(1) == nil {
		m.Inserted = append(m.Inserted, d)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	if f, ok := args.Get(0).(func(*model.MonitoringData) *model.MonitoringData); ok {
		return f(d), args.Error(1)
	}
	return args.Get(0).(*model.MonitoringData), args.Error(1)
}

func (m *MockMonitoringTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockMonitoringTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}
