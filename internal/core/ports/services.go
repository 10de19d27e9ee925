package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/service-desk-books/internal/core/domain"
)

// SnapshotAssembler builds the metrics snapshot for one company and month.
type SnapshotAssembler interface {
	Build(ctx context.Context, companyID uuid.UUID, month, year int) (*domain.BookMetricsSnapshot, error)
}

// BatchRequest defines the input for generating many snapshots at once.
type BatchRequest struct {
	CompanyIDs []uuid.UUID
	Month      int
	Year       int
	Persist    bool
}

// BatchFailure records a company whose snapshot could not be built.
type BatchFailure struct {
	CompanyID uuid.UUID
	Err       error
}

// BatchResult is the outcome of a batch generation.
type BatchResult struct {
	Period    domain.PeriodWindow
	Snapshots []*domain.BookMetricsSnapshot
	Failures  []BatchFailure
	Skipped   []uuid.UUID
	Duration  time.Duration
}

// BatchService generates snapshots for many companies.
type BatchService interface {
	Generate(ctx context.Context, req BatchRequest) (*BatchResult, error)
}

// SnapshotService is the use-case layer the API talks to.
type SnapshotService interface {
	Generate(ctx context.Context, companyID uuid.UUID, period domain.PeriodWindow) (*domain.BookMetricsSnapshot, error)
	Latest(ctx context.Context, companyID uuid.UUID, period domain.PeriodWindow) (*domain.BookMetricsSnapshot, error)
}
