package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/lorrc/service-desk-books/internal/core/domain"
	"github.com/lorrc/service-desk-books/internal/core/ports"
)

// TrendMonths is the length of the opened/closed trend, current month included.
const TrendMonths = 6

// VolumetryAggregator counts opened and closed tickets for a period.
type VolumetryAggregator struct {
	tickets ports.TicketRepository
	logger  *slog.Logger
}

func NewVolumetryAggregator(tickets ports.TicketRepository, logger *slog.Logger) *VolumetryAggregator {
	return &VolumetryAggregator{
		tickets: tickets,
		logger:  logger.With("component", "volumetry"),
	}
}

// Aggregate computes the volumetry section. The trend and the current month
// come from the same two range queries, bucketed by each month's windows.
func (a *VolumetryAggregator) Aggregate(ctx context.Context, company *domain.Company, period domain.PeriodWindow) Result[domain.VolumetrySnapshot] {
	filter := company.TicketFilter()
	from := period.Back(TrendMonths - 1)

	opened, err := a.tickets.Query(ctx, filter, domain.DateFieldOpenedAt, domain.SpanOpenedRange(from, period))
	if err != nil {
		return a.fallback(ctx, company, period, fmt.Errorf("query opened tickets: %w", err))
	}

	closed, err := a.tickets.Query(ctx, filter, domain.DateFieldSolvedAt, domain.SpanClosedRange(from, period))
	if err != nil {
		return a.fallback(ctx, company, period, fmt.Errorf("query closed tickets: %w", err))
	}

	snapshot := BuildVolumetry(period, opened, closed)

	a.logger.DebugContext(ctx, "volumetry computed",
		"company_id", company.ID,
		"period", period.Key(),
		"opened", snapshot.Opened.Total,
		"closed", snapshot.Closed.Total,
		"unique", snapshot.UniqueTickets,
	)

	return Result[domain.VolumetrySnapshot]{Value: snapshot}
}

func (a *VolumetryAggregator) fallback(ctx context.Context, company *domain.Company, period domain.PeriodWindow, err error) Result[domain.VolumetrySnapshot] {
	a.logger.WarnContext(ctx, "volumetry fell back to empty section",
		"company_id", company.ID,
		"period", period.Key(),
		"error", err,
	)
	return Result[domain.VolumetrySnapshot]{Value: EmptyVolumetry(period, err), Err: err}
}

// BuildVolumetry derives the section from tickets opened and closed over
// the trend span ending at period.
func BuildVolumetry(period domain.PeriodWindow, openedSpan, closedSpan []domain.TicketRecord) domain.VolumetrySnapshot {
	opened := inWindow(openedSpan, domain.DateFieldOpenedAt, period.OpenedRange())
	closed := inWindow(closedSpan, domain.DateFieldSolvedAt, period.ClosedRange())
	union := domain.UniqueTickets(opened, closed)

	openedIDs := ticketIDs(opened)
	closedIDs := ticketIDs(closed)

	trend := make([]domain.TrendPoint, 0, TrendMonths)
	for _, month := range period.Series(TrendMonths) {
		trend = append(trend, domain.TrendPoint{
			Period: month,
			Label:  month.Label(),
			Opened: len(inWindow(openedSpan, domain.DateFieldOpenedAt, month.OpenedRange())),
			Closed: len(inWindow(closedSpan, domain.DateFieldSolvedAt, month.ClosedRange())),
		})
	}

	var resolutionRate float64
	if len(union) > 0 {
		resolutionRate = math.Round(float64(len(closed)) / float64(len(union)) * 100)
	}

	return domain.VolumetrySnapshot{
		SectionMeta:    liveMeta(),
		Opened:         domain.SplitByType(opened),
		Closed:         domain.SplitByType(closed),
		Trend:          trend,
		Groups:         groupBreakdown(union, openedIDs, closedIDs),
		Causes:         causeBreakdown(union, openedIDs, closedIDs),
		UniqueTickets:  len(union),
		ResolutionRate: resolutionRate,
	}
}

// EmptyVolumetry is the section reported when the data could not be read.
func EmptyVolumetry(period domain.PeriodWindow, err error) domain.VolumetrySnapshot {
	trend := make([]domain.TrendPoint, 0, TrendMonths)
	for _, month := range period.Series(TrendMonths) {
		trend = append(trend, domain.TrendPoint{Period: month, Label: month.Label()})
	}
	return domain.VolumetrySnapshot{
		SectionMeta: fallbackMeta(err),
		Trend:       trend,
		Groups:      []domain.GroupBreakdown{},
		Causes:      []domain.CauseBreakdown{},
	}
}
