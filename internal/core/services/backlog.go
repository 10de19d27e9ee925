package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/lorrc/service-desk-books/internal/core/domain"
	"github.com/lorrc/service-desk-books/internal/core/ports"
)

// agingBand is one backlog age band, in priority order.
type agingBand struct {
	label string
	min   int
	max   *int
}

func (b agingBand) contains(days int) bool {
	return days >= b.min && (b.max == nil || days <= *b.max)
}

func intPtr(v int) *int { return &v }

// agingBands are evaluated top to bottom; the first match wins.
var agingBands = []agingBand{
	{label: "61+", min: 61},
	{label: "30-60", min: 30, max: intPtr(60)},
	{label: "15-29", min: 15, max: intPtr(29)},
	{label: "5-14", min: 5, max: intPtr(14)},
	{label: "0-4", min: 0, max: intPtr(4)},
}

// BacklogAggregator describes the tickets that are still open.
type BacklogAggregator struct {
	tickets ports.TicketRepository
	clock   ports.Clock
	logger  *slog.Logger
}

func NewBacklogAggregator(tickets ports.TicketRepository, clock ports.Clock, logger *slog.Logger) *BacklogAggregator {
	if clock == nil {
		clock = time.Now
	}
	return &BacklogAggregator{
		tickets: tickets,
		clock:   clock,
		logger:  logger.With("component", "backlog"),
	}
}

// Aggregate computes the backlog section. The backlog is not windowed by
// period; it is whatever is open now.
func (a *BacklogAggregator) Aggregate(ctx context.Context, company *domain.Company) Result[domain.BacklogSnapshot] {
	open, err := a.tickets.QueryBacklog(ctx, company.TicketFilter())
	if err != nil {
		err = fmt.Errorf("query backlog: %w", err)
		a.logger.WarnContext(ctx, "backlog fell back to empty section",
			"company_id", company.ID,
			"error", err,
		)
		return Result[domain.BacklogSnapshot]{Value: EmptyBacklog(err), Err: err}
	}

	snapshot := BuildBacklog(open, a.clock())

	a.logger.DebugContext(ctx, "backlog computed",
		"company_id", company.ID,
		"total", snapshot.Total,
	)

	return Result[domain.BacklogSnapshot]{Value: snapshot}
}

// BuildBacklog derives the section from open tickets as of now. Tickets
// whose status closes them are dropped.
func BuildBacklog(tickets []domain.TicketRecord, now time.Time) domain.BacklogSnapshot {
	open := make([]domain.TicketRecord, 0, len(tickets))
	for _, t := range tickets {
		if t.IsOpen() {
			open = append(open, t)
		}
	}

	aging := emptyAging()
	for _, t := range open {
		days := ageInDays(t.OpenedAt, now)
		for i, band := range agingBands {
			if band.contains(days) {
				aging[i].Count++
				break
			}
		}
	}

	return domain.BacklogSnapshot{
		SectionMeta: liveMeta(),
		Total:       len(open),
		ByType:      domain.SplitByType(open),
		Aging:       aging,
		Groups:      groupBreakdown(open, nil, nil),
		Causes:      causeBreakdown(open, nil, nil),
	}
}

// EmptyBacklog is the section reported when the data could not be read.
func EmptyBacklog(err error) domain.BacklogSnapshot {
	return domain.BacklogSnapshot{
		SectionMeta: fallbackMeta(err),
		Aging:       emptyAging(),
		Groups:      []domain.GroupBreakdown{},
		Causes:      []domain.CauseBreakdown{},
	}
}

func emptyAging() []domain.AgingBucket {
	buckets := make([]domain.AgingBucket, 0, len(agingBands))
	for _, band := range agingBands {
		buckets = append(buckets, domain.AgingBucket{
			Label:   band.label,
			MinDays: band.min,
			MaxDays: band.max,
		})
	}
	return buckets
}

// ageInDays floors the elapsed days; tickets dated in the future are 0.
func ageInDays(openedAt, now time.Time) int {
	days := int(math.Floor(now.Sub(openedAt).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}
