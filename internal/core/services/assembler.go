package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lorrc/service-desk-books/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-books/internal/core/errors"
	"github.com/lorrc/service-desk-books/internal/core/ports"
)

// Section names reported in CoverSummary.FallbackSections.
const (
	SectionVolumetry   = "volumetry"
	SectionSLA         = "sla"
	SectionBacklog     = "backlog"
	SectionConsumption = "consumption"
)

// SnapshotAssembler composes the four aggregators into a BookMetricsSnapshot.
type SnapshotAssembler struct {
	companies   ports.CompanyRepository
	volumetry   *VolumetryAggregator
	sla         *SLAAggregator
	backlog     *BacklogAggregator
	consumption *ConsumptionAggregator
	clock       ports.Clock
	logger      *slog.Logger
}

var _ ports.SnapshotAssembler = (*SnapshotAssembler)(nil)

func NewSnapshotAssembler(
	companies ports.CompanyRepository,
	tickets ports.TicketRepository,
	hours ports.HourRecordRepository,
	clock ports.Clock,
	logger *slog.Logger,
) *SnapshotAssembler {
	if clock == nil {
		clock = time.Now
	}
	return &SnapshotAssembler{
		companies:   companies,
		volumetry:   NewVolumetryAggregator(tickets, logger),
		sla:         NewSLAAggregator(tickets, logger),
		backlog:     NewBacklogAggregator(tickets, clock, logger),
		consumption: NewConsumptionAggregator(hours, logger),
		clock:       clock,
		logger:      logger.With("component", "snapshot_assembler"),
	}
}

// Build assembles the snapshot for a company and month. An invalid request,
// a failed company lookup or a context that ended during the build is
// returned as an error; other section failures degrade that section and are
// listed in the cover summary.
func (a *SnapshotAssembler) Build(ctx context.Context, companyID uuid.UUID, month, year int) (*domain.BookMetricsSnapshot, error) {
	if companyID == uuid.Nil {
		return nil, apperrors.ErrCompanyIDRequired
	}
	period, err := domain.NewPeriodWindow(month, year)
	if err != nil {
		return nil, err
	}

	company, err := a.companies.GetByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, apperrors.ErrCompanyNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("resolve company %s: %w", companyID, err)
	}
	if company == nil {
		return nil, apperrors.ErrCompanyNotFound
	}

	start := time.Now()

	var (
		wg          sync.WaitGroup
		volumetry   Result[domain.VolumetrySnapshot]
		sla         Result[domain.SLASnapshot]
		backlog     Result[domain.BacklogSnapshot]
		consumption Result[domain.ConsumptionSnapshot]
	)
	wg.Go(func() { volumetry = a.volumetry.Aggregate(ctx, company, period) })
	wg.Go(func() { sla = a.sla.Aggregate(ctx, company, period) })
	wg.Go(func() { backlog = a.backlog.Aggregate(ctx, company) })
	wg.Go(func() { consumption = a.consumption.Aggregate(ctx, company, period) })
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("assemble snapshot for %s: %w", companyID, err)
	}

	snapshot := &domain.BookMetricsSnapshot{
		ID:          uuid.New(),
		CompanyID:   company.ID,
		Period:      period,
		GeneratedAt: a.clock().UTC(),
		Volumetry:   volumetry.Value,
		SLA:         sla.Value,
		Backlog:     backlog.Value,
		Consumption: consumption.Value,
	}
	snapshot.Cover = buildCover(company, snapshot, fallbackSections(volumetry.Err, sla.Err, backlog.Err, consumption.Err))

	logAttrs := []any{
		"company_id", company.ID,
		"period", period.Key(),
		"snapshot_id", snapshot.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if snapshot.IsPartial() {
		a.logger.WarnContext(ctx, "snapshot assembled with fallback sections",
			append(logAttrs, "fallback_sections", snapshot.Cover.FallbackSections)...)
	} else {
		a.logger.InfoContext(ctx, "snapshot assembled", logAttrs...)
	}

	return snapshot, nil
}

func fallbackSections(volumetry, sla, backlog, consumption error) []string {
	sections := make([]string, 0)
	if volumetry != nil {
		sections = append(sections, SectionVolumetry)
	}
	if sla != nil {
		sections = append(sections, SectionSLA)
	}
	if backlog != nil {
		sections = append(sections, SectionBacklog)
	}
	if consumption != nil {
		sections = append(sections, SectionConsumption)
	}
	return sections
}

func buildCover(company *domain.Company, s *domain.BookMetricsSnapshot, fallbacks []string) domain.CoverSummary {
	return domain.CoverSummary{
		CompanyName:      company.Name,
		ContractType:     company.ContractType,
		PeriodLabel:      s.Period.Label(),
		OpenedTickets:    s.Volumetry.Opened.Total,
		ClosedTickets:    s.Volumetry.Closed.Total,
		BacklogTickets:   s.Backlog.Total,
		ResolutionRate:   s.Volumetry.ResolutionRate,
		SLAPercentage:    s.SLA.Percentage,
		SLAStatus:        s.SLA.Status,
		SLAEligible:      s.SLA.Eligible,
		TotalHours:       s.Consumption.TotalHours,
		FallbackSections: fallbacks,
		GeneratedAt:      s.GeneratedAt,
	}
}
