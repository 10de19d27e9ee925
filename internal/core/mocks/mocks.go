package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/service-desk-books/internal/core/domain"
	"github.com/lorrc/service-desk-books/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// MockTicketRepository is a mock implementation of ports.TicketRepository
type MockTicketRepository struct {
	mock.Mock
}

func NewMockTicketRepository() *MockTicketRepository {
	return &MockTicketRepository{}
}

func (m *MockTicketRepository) Query(ctx context.Context, filter domain.TicketFilter, field domain.DateField, window domain.DateRange) ([]domain.TicketRecord, error) {
	args := m.Called(ctx, filter, field, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TicketRecord), args.Error(1)
}

func (m *MockTicketRepository) QueryBacklog(ctx context.Context, filter domain.TicketFilter) ([]domain.TicketRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TicketRecord), args.Error(1)
}

// MockCompanyRepository is a mock implementation of ports.CompanyRepository
type MockCompanyRepository struct {
	mock.Mock
}

func NewMockCompanyRepository() *MockCompanyRepository {
	return &MockCompanyRepository{}
}

func (m *MockCompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Company), args.Error(1)
}

func (m *MockCompanyRepository) ListActive(ctx context.Context) ([]*domain.Company, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Company), args.Error(1)
}

// MockHourRecordRepository is a mock implementation of ports.HourRecordRepository
type MockHourRecordRepository struct {
	mock.Mock
}

func NewMockHourRecordRepository() *MockHourRecordRepository {
	return &MockHourRecordRepository{}
}

func (m *MockHourRecordRepository) Query(ctx context.Context, companyID uuid.UUID, from, to domain.PeriodWindow) ([]domain.HourRecord, error) {
	args := m.Called(ctx, companyID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HourRecord), args.Error(1)
}

// MockSnapshotStore is a mock implementation of ports.SnapshotStore
type MockSnapshotStore struct {
	mock.Mock
}

func NewMockSnapshotStore() *MockSnapshotStore {
	return &MockSnapshotStore{}
}

func (m *MockSnapshotStore) Save(ctx context.Context, snapshot *domain.BookMetricsSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockSnapshotStore) Latest(ctx context.Context, companyID uuid.UUID, period domain.PeriodWindow) (*domain.BookMetricsSnapshot, error) {
	args := m.Called(ctx, companyID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookMetricsSnapshot), args.Error(1)
}

func (m *MockSnapshotStore) ListByPeriod(ctx context.Context, period domain.PeriodWindow) ([]*domain.BookMetricsSnapshot, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.BookMetricsSnapshot), args.Error(1)
}

// MockSnapshotCache is a mock implementation of ports.SnapshotCache
type MockSnapshotCache struct {
	mock.Mock
}

func NewMockSnapshotCache() *MockSnapshotCache {
	return &MockSnapshotCache{}
}

func (m *MockSnapshotCache) Get(ctx context.Context, companyID uuid.UUID, period domain.PeriodWindow) (*domain.BookMetricsSnapshot, error) {
	args := m.Called(ctx, companyID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookMetricsSnapshot), args.Error(1)
}

func (m *MockSnapshotCache) Set(ctx context.Context, snapshot *domain.BookMetricsSnapshot, ttl time.Duration) error {
	args := m.Called(ctx, snapshot, ttl)
	return args.Error(0)
}

// MockSnapshotAssembler is a mock implementation of ports.SnapshotAssembler
type MockSnapshotAssembler struct {
	mock.Mock
}

func NewMockSnapshotAssembler() *MockSnapshotAssembler {
	return &MockSnapshotAssembler{}
}

func (m *MockSnapshotAssembler) Build(ctx context.Context, companyID uuid.UUID, month, year int) (*domain.BookMetricsSnapshot, error) {
	args := m.Called(ctx, companyID, month, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookMetricsSnapshot), args.Error(1)
}

// MockSnapshotService is a mock implementation of ports.SnapshotService
type MockSnapshotService struct {
	mock.Mock
}

func NewMockSnapshotService() *MockSnapshotService {
	return &MockSnapshotService{}
}

func (m *MockSnapshotService) Generate(ctx context.Context, companyID uuid.UUID, period domain.PeriodWindow) (*domain.BookMetricsSnapshot, error) {
	args := m.Called(ctx, companyID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookMetricsSnapshot), args.Error(1)
}

func (m *MockSnapshotService) Latest(ctx context.Context, companyID uuid.UUID, period domain.PeriodWindow) (*domain.BookMetricsSnapshot, error) {
	args := m.Called(ctx, companyID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookMetricsSnapshot), args.Error(1)
}

// MockBatchService is a mock implementation of ports.BatchService
type MockBatchService struct {
	mock.Mock
}

func NewMockBatchService() *MockBatchService {
	return &MockBatchService{}
}

func (m *MockBatchService) Generate(ctx context.Context, req ports.BatchRequest) (*ports.BatchResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.BatchResult), args.Error(1)
}

var (
	_ ports.TicketRepository     = (*MockTicketRepository)(nil)
	_ ports.CompanyRepository    = (*MockCompanyRepository)(nil)
	_ ports.HourRecordRepository = (*MockHourRecordRepository)(nil)
	_ ports.SnapshotStore        = (*MockSnapshotStore)(nil)
	_ ports.SnapshotCache        = (*MockSnapshotCache)(nil)
	_ ports.SnapshotAssembler    = (*MockSnapshotAssembler)(nil)
	_ ports.SnapshotService      = (*MockSnapshotService)(nil)
	_ ports.BatchService         = (*MockBatchService)(nil)
)
