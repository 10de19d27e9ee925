// Package memory holds in-process implementations of the repository ports.
// They apply the same TicketFilter predicate as the SQL adapters and back
// the computation tests.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lorrc/service-desk-books/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-books/internal/core/errors"
	"github.com/lorrc/service-desk-books/internal/core/ports"
)

// TicketRepository is an in-memory ports.TicketRepository.
type TicketRepository struct {
	mu      sync.RWMutex
	tickets []domain.TicketRecord
	err     error
}

var _ ports.TicketRepository = (*TicketRepository)(nil)

func NewTicketRepository(tickets ...domain.TicketRecord) *TicketRepository {
	return &TicketRepository{tickets: slices.Clone(tickets)}
}

// Add appends tickets to the store.
func (r *TicketRepository) Add(tickets ...domain.TicketRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets = append(r.tickets, tickets...)
}

// FailWith makes every subsequent query return err. Pass nil to recover.
func (r *TicketRepository) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *TicketRepository) Query(ctx context.Context, filter domain.TicketFilter, field domain.DateField, window domain.DateRange) ([]domain.TicketRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewRepositoryError("query tickets", err)
	}
	if !field.IsValid() {
		return nil, apperrors.NewRepositoryError("query tickets", apperrors.ErrBadRequest)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.err != nil {
		return nil, apperrors.NewRepositoryError("query tickets", r.err)
	}

	matched := make([]domain.TicketRecord, 0)
	for _, t := range r.tickets {
		at := t.DateOf(field)
		if at == nil || !window.Contains(*at) || !filter.Matches(t) {
			continue
		}
		matched = append(matched, t)
	}
	return matched, nil
}

func (r *TicketRepository) QueryBacklog(ctx context.Context, filter domain.TicketFilter) ([]domain.TicketRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewRepositoryError("query backlog", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.err != nil {
		return nil, apperrors.NewRepositoryError("query backlog", r.err)
	}

	matched := make([]domain.TicketRecord, 0)
	for _, t := range r.tickets {
		if t.IsOpen() && filter.Matches(t) {
			matched = append(matched, t)
		}
	}
	return matched, nil
}

// CompanyRepository is an in-memory ports.CompanyRepository.
type CompanyRepository struct {
	mu        sync.RWMutex
	companies map[uuid.UUID]domain.Company
	order     []uuid.UUID
}

var _ ports.CompanyRepository = (*CompanyRepository)(nil)

func NewCompanyRepository(companies ...domain.Company) *CompanyRepository {
	r := &CompanyRepository{companies: make(map[uuid.UUID]domain.Company)}
	for _, c := range companies {
		r.Put(c)
	}
	return r
}

// Put inserts or replaces a company.
func (r *CompanyRepository) Put(c domain.Company) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.companies[c.ID]; !ok {
		r.order = append(r.order, c.ID)
	}
	r.companies[c.ID] = c
}

func (r *CompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.companies[id]
	if !ok {
		return nil, apperrors.ErrCompanyNotFound
	}
	return &c, nil
}

func (r *CompanyRepository) ListActive(ctx context.Context) ([]*domain.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	active := make([]*domain.Company, 0, len(r.order))
	for _, id := range r.order {
		c := r.companies[id]
		if c.IsActive {
			active = append(active, &c)
		}
	}
	return active, nil
}

// HourRecordRepository is an in-memory ports.HourRecordRepository.
type HourRecordRepository struct {
	mu      sync.RWMutex
	records []domain.HourRecord
	err     error
}

var _ ports.HourRecordRepository = (*HourRecordRepository)(nil)

func NewHourRecordRepository(records ...domain.HourRecord) *HourRecordRepository {
	return &HourRecordRepository{records: slices.Clone(records)}
}

// FailWith makes every subsequent query return err. Pass nil to recover.
func (r *HourRecordRepository) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *HourRecordRepository) Query(ctx context.Context, companyID uuid.UUID, from, to domain.PeriodWindow) ([]domain.HourRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.err != nil {
		return nil, apperrors.NewRepositoryError("query hour records", r.err)
	}

	matched := make([]domain.HourRecord, 0)
	for _, rec := range r.records {
		if rec.CompanyID != companyID || rec.Period.Before(from) || to.Before(rec.Period) {
			continue
		}
		matched = append(matched, rec)
	}
	return matched, nil
}

// SnapshotStore is an in-memory ports.SnapshotStore. Snapshots are kept in
// insertion order and never replaced.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots []*domain.BookMetricsSnapshot
}

var _ ports.SnapshotStore = (*SnapshotStore)(nil)

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

func (s *SnapshotStore) Save(ctx context.Context, snapshot *domain.BookMetricsSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, snapshot)
	return nil
}

func (s *SnapshotStore) Latest(ctx context.Context, companyID uuid.UUID, period domain.PeriodWindow) (*domain.BookMetricsSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.BookMetricsSnapshot
	for _, snap := range s.snapshots {
		if snap.CompanyID != companyID || snap.Period != period {
			continue
		}
		if latest == nil || !snap.GeneratedAt.Before(latest.GeneratedAt) {
			latest = snap
		}
	}
	if latest == nil {
		return nil, apperrors.ErrSnapshotNotFound
	}
	return latest, nil
}

func (s *SnapshotStore) ListByPeriod(ctx context.Context, period domain.PeriodWindow) ([]*domain.BookMetricsSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := make(map[uuid.UUID]*domain.BookMetricsSnapshot)
	order := make([]uuid.UUID, 0)
	for _, snap := range s.snapshots {
		if snap.Period != period {
			continue
		}
		current, ok := latest[snap.CompanyID]
		if !ok {
			order = append(order, snap.CompanyID)
		}
		if !ok || !snap.GeneratedAt.Before(current.GeneratedAt) {
			latest[snap.CompanyID] = snap
		}
	}

	list := make([]*domain.BookMetricsSnapshot, 0, len(order))
	for _, id := range order {
		list = append(list, latest[id])
	}
	return list, nil
}

// Count returns how many snapshots have been saved.
func (s *SnapshotStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}

// FixedClock returns a clock frozen at t.
func FixedClock(t time.Time) ports.Clock {
	return func() time.Time { return t }
}
