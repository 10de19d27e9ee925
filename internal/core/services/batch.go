package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lorrc/service-desk-books/internal/core/domain"
	"github.com/lorrc/service-desk-books/internal/core/ports"
)

// BatchOptions bounds a BatchService.
type BatchOptions struct {
	Workers        int
	CompanyTimeout time.Duration
	CacheTTL       time.Duration
}

// BatchService builds snapshots for many companies with a bounded pool.
type BatchService struct {
	assembler ports.SnapshotAssembler
	companies ports.CompanyRepository
	writer    *snapshotWriter
	opts      BatchOptions
	logger    *slog.Logger
}

var _ ports.BatchService = (*BatchService)(nil)

// NewBatchService wires a batch runner. store may be nil when the batch is
// never asked to persist; cache may be nil.
func NewBatchService(
	assembler ports.SnapshotAssembler,
	companies ports.CompanyRepository,
	store ports.SnapshotStore,
	cache ports.SnapshotCache,
	opts BatchOptions,
	logger *slog.Logger,
) *BatchService {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	logger = logger.With("component", "batch_service")
	return &BatchService{
		assembler: assembler,
		companies: companies,
		writer: &snapshotWriter{
			store:  store,
			cache:  cache,
			ttl:    opts.CacheTTL,
			logger: logger,
		},
		opts:   opts,
		logger: logger,
	}
}

type batchOutcome struct {
	snapshot *domain.BookMetricsSnapshot
	err      error
	skipped  bool
}

// Generate builds one snapshot per company. A failing company does not stop
// the others. Companies not started or still building when ctx is cancelled
// are reported as skipped; a company that exceeds its timeout is a failure.
// Snapshots already built are returned intact.
func (s *BatchService) Generate(ctx context.Context, req ports.BatchRequest) (*ports.BatchResult, error) {
	period, err := domain.NewPeriodWindow(req.Month, req.Year)
	if err != nil {
		return nil, err
	}
	if req.Persist && s.writer.store == nil {
		return nil, errors.New("batch persistence requested without a snapshot store")
	}

	ids := req.CompanyIDs
	if len(ids) == 0 {
		active, err := s.companies.ListActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("list active companies: %w", err)
		}
		ids = make([]uuid.UUID, 0, len(active))
		for _, c := range active {
			ids = append(ids, c.ID)
		}
	}

	start := time.Now()
	s.logger.InfoContext(ctx, "batch started",
		"period", period.Key(),
		"companies", len(ids),
		"workers", s.opts.Workers,
	)

	outcomes := make([]batchOutcome, len(ids))

	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for i, id := range ids {
		g.Go(func() error {
			outcomes[i] = s.runOne(ctx, id, period, req.Persist)
			return nil
		})
	}
	_ = g.Wait()

	result := &ports.BatchResult{
		Period:    period,
		Snapshots: make([]*domain.BookMetricsSnapshot, 0, len(ids)),
		Failures:  make([]ports.BatchFailure, 0),
		Skipped:   make([]uuid.UUID, 0),
	}
	for i, outcome := range outcomes {
		switch {
		case outcome.skipped:
			result.Skipped = append(result.Skipped, ids[i])
		case outcome.err != nil:
			result.Failures = append(result.Failures, ports.BatchFailure{CompanyID: ids[i], Err: outcome.err})
		default:
			result.Snapshots = append(result.Snapshots, outcome.snapshot)
		}
	}
	result.Duration = time.Since(start)

	s.logger.InfoContext(ctx, "batch finished",
		"period", period.Key(),
		"generated", len(result.Snapshots),
		"failed", len(result.Failures),
		"skipped", len(result.Skipped),
		"duration_ms", result.Duration.Milliseconds(),
	)

	return result, nil
}

func (s *BatchService) runOne(ctx context.Context, companyID uuid.UUID, period domain.PeriodWindow, persist bool) batchOutcome {
	if ctx.Err() != nil {
		return batchOutcome{skipped: true}
	}

	companyCtx := ctx
	if s.opts.CompanyTimeout > 0 {
		var cancel context.CancelFunc
		companyCtx, cancel = context.WithTimeout(ctx, s.opts.CompanyTimeout)
		defer cancel()
	}

	snapshot, err := s.assembler.Build(companyCtx, companyID, period.Month, period.Year)
	if err != nil && errors.Is(err, context.Canceled) && ctx.Err() != nil {
		s.logger.WarnContext(ctx, "company snapshot abandoned by cancellation",
			"company_id", companyID,
			"period", period.Key(),
		)
		return batchOutcome{skipped: true}
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "company snapshot failed",
			"company_id", companyID,
			"period", period.Key(),
			"error", err,
		)
		return batchOutcome{err: err}
	}

	if persist {
		if err := s.writer.write(companyCtx, snapshot); err != nil {
			s.logger.ErrorContext(ctx, "company snapshot not persisted",
				"company_id", companyID,
				"period", period.Key(),
				"error", err,
			)
			return batchOutcome{err: err}
		}
	}

	return batchOutcome{snapshot: snapshot}
}
