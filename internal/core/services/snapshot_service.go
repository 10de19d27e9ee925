package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lorrc/service-desk-books/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-books/internal/core/errors"
	"github.com/lorrc/service-desk-books/internal/core/ports"
)

// snapshotWriter persists a snapshot and refreshes the cache. The cache is
// optional and its failures never fail a write.
type snapshotWriter struct {
	store  ports.SnapshotStore
	cache  ports.SnapshotCache
	ttl    time.Duration
	logger *slog.Logger
}

func (w *snapshotWriter) write(ctx context.Context, snapshot *domain.BookMetricsSnapshot) error {
	if err := w.store.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	w.cacheSnapshot(ctx, snapshot)
	return nil
}

func (w *snapshotWriter) cacheSnapshot(ctx context.Context, snapshot *domain.BookMetricsSnapshot) {
	if w.cache == nil {
		return
	}
	if err := w.cache.Set(ctx, snapshot, w.ttl); err != nil {
		w.logger.WarnContext(ctx, "failed to cache snapshot",
			"company_id", snapshot.CompanyID,
			"period", snapshot.Period.Key(),
			"error", err,
		)
	}
}

// SnapshotService generates, stores and serves book snapshots.
type SnapshotService struct {
	assembler ports.SnapshotAssembler
	writer    *snapshotWriter
	logger    *slog.Logger
}

var _ ports.SnapshotService = (*SnapshotService)(nil)

func NewSnapshotService(
	assembler ports.SnapshotAssembler,
	store ports.SnapshotStore,
	cache ports.SnapshotCache,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *SnapshotService {
	logger = logger.With("component", "snapshot_service")
	return &SnapshotService{
		assembler: assembler,
		writer: &snapshotWriter{
			store:  store,
			cache:  cache,
			ttl:    cacheTTL,
			logger: logger,
		},
		logger: logger,
	}
}

// Generate builds a new snapshot and stores it. Earlier snapshots for the
// same company and period are kept.
func (s *SnapshotService) Generate(ctx context.Context, companyID uuid.UUID, period domain.PeriodWindow) (*domain.BookMetricsSnapshot, error) {
	snapshot, err := s.assembler.Build(ctx, companyID, period.Month, period.Year)
	if err != nil {
		return nil, err
	}

	if err := s.writer.write(ctx, snapshot); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist snapshot",
			"company_id", companyID,
			"period", period.Key(),
			"error", err,
		)
		return nil, err
	}

	return snapshot, nil
}

// Latest returns the newest stored snapshot, reading the cache first.
func (s *SnapshotService) Latest(ctx context.Context, companyID uuid.UUID, period domain.PeriodWindow) (*domain.BookMetricsSnapshot, error) {
	if companyID == uuid.Nil {
		return nil, apperrors.ErrCompanyIDRequired
	}
	if err := period.Validate(); err != nil {
		return nil, err
	}

	if s.writer.cache != nil {
		cached, err := s.writer.cache.Get(ctx, companyID, period)
		switch {
		case err == nil && cached != nil:
			return cached, nil
		case err != nil && !errors.Is(err, apperrors.ErrSnapshotNotFound):
			s.logger.WarnContext(ctx, "snapshot cache read failed",
				"company_id", companyID,
				"period", period.Key(),
				"error", err,
			)
		}
	}

	snapshot, err := s.writer.store.Latest(ctx, companyID, period)
	if err != nil {
		return nil, err
	}

	s.writer.cacheSnapshot(ctx, snapshot)
	return snapshot, nil
}
