package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/service-desk-books/internal/core/domain"
)

// TicketRepository reads ticket rows from the service-desk store.
type TicketRepository interface {
	// Query returns tickets matching filter whose field falls in window.
	Query(ctx context.Context, filter domain.TicketFilter, field domain.DateField, window domain.DateRange) ([]domain.TicketRecord, error)
	// QueryBacklog returns tickets matching filter whose status keeps them open.
	QueryBacklog(ctx context.Context, filter domain.TicketFilter) ([]domain.TicketRecord, error)
}

// CompanyRepository resolves per-company metadata.
type CompanyRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Company, error)
	ListActive(ctx context.Context) ([]*domain.Company, error)
}

// HourRecordRepository reads billable-hour records.
type HourRecordRepository interface {
	// Query returns a company's records for every period in [from, to].
	Query(ctx context.Context, companyID uuid.UUID, from, to domain.PeriodWindow) ([]domain.HourRecord, error)
}

// SnapshotStore persists generated snapshots. Snapshots are append-only.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot *domain.BookMetricsSnapshot) error
	Latest(ctx context.Context, companyID uuid.UUID, period domain.PeriodWindow) (*domain.BookMetricsSnapshot, error)
	ListByPeriod(ctx context.Context, period domain.PeriodWindow) ([]*domain.BookMetricsSnapshot, error)
}

// SnapshotCache keeps the latest snapshot per company and period.
type SnapshotCache interface {
	Get(ctx context.Context, companyID uuid.UUID, period domain.PeriodWindow) (*domain.BookMetricsSnapshot, error)
	Set(ctx context.Context, snapshot *domain.BookMetricsSnapshot, ttl time.Duration) error
}

// Clock returns the current time. Backlog aging depends on it.
type Clock func() time.Time
