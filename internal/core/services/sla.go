package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/lorrc/service-desk-books/internal/core/domain"
	"github.com/lorrc/service-desk-books/internal/core/ports"
)

const (
	// SLAHistoryMonths is the length of the rolling SLA series.
	SLAHistoryMonths = 5
	// MaxBreachedSample caps the breach list attached to the section.
	MaxBreachedSample = 10

	breachDateLayout = "02/01/2006"
	pendingSolveDate = "Pendente"
)

// SLAAggregator assesses a period's SLA for incidents.
type SLAAggregator struct {
	tickets ports.TicketRepository
	logger  *slog.Logger
}

func NewSLAAggregator(tickets ports.TicketRepository, logger *slog.Logger) *SLAAggregator {
	return &SLAAggregator{
		tickets: tickets,
		logger:  logger.With("component", "sla"),
	}
}

// Aggregate computes the SLA section together with its rolling history.
func (a *SLAAggregator) Aggregate(ctx context.Context, company *domain.Company, period domain.PeriodWindow) Result[domain.SLASnapshot] {
	base := company.TicketFilter()
	from := period.Back(SLAHistoryMonths - 1)

	closed, err := a.tickets.Query(ctx, base.OnlyTypes(domain.TypeIncident), domain.DateFieldSolvedAt, domain.SpanClosedRange(from, period))
	if err != nil {
		return a.fallback(ctx, company, period, fmt.Errorf("query closed incidents: %w", err))
	}

	breaches, err := a.tickets.Query(ctx, base.OnlyBreached(), domain.DateFieldOpenedAt, domain.SpanOpenedRange(from, period))
	if err != nil {
		return a.fallback(ctx, company, period, fmt.Errorf("query breached tickets: %w", err))
	}

	snapshot := BuildSLA(company, period, closed, breaches)

	a.logger.DebugContext(ctx, "sla computed",
		"company_id", company.ID,
		"period", period.Key(),
		"percentage", snapshot.Percentage,
		"status", snapshot.Status,
		"eligible", snapshot.Eligible,
		"breaches", snapshot.Counts.Breaches,
	)

	return Result[domain.SLASnapshot]{Value: snapshot}
}

func (a *SLAAggregator) fallback(ctx context.Context, company *domain.Company, period domain.PeriodWindow, err error) Result[domain.SLASnapshot] {
	a.logger.WarnContext(ctx, "sla fell back to empty section",
		"company_id", company.ID,
		"period", period.Key(),
		"error", err,
	)
	return Result[domain.SLASnapshot]{Value: EmptySLA(company, period, err), Err: err}
}

// slaEvaluation is the outcome of one period's SLA rules.
type slaEvaluation struct {
	counts     domain.SLACounts
	percentage float64
	eligible   bool
	status     domain.SLAStatus
}

// evaluateSLA applies the SLA rules to a single period's closed incidents
// and breaches. Only whitelisted breaches count against the percentage.
func evaluateSLA(company *domain.Company, closedIncidents, breaches []domain.TicketRecord) slaEvaluation {
	var counts domain.SLACounts
	counts.Closed = len(closedIncidents)
	counts.Incidents = len(closedIncidents)
	for _, t := range closedIncidents {
		if domain.IsEligibleResolution(t.ResolutionCode) {
			counts.EligibleIncidents++
		}
	}

	counts.Breaches = len(breaches)
	for _, t := range breaches {
		if domain.IsEligibleResolution(t.ResolutionCode) {
			counts.EligibleBreaches++
		} else {
			counts.NonEligibleBreaches++
		}
	}

	percentage := 100.0
	if counts.Incidents > 0 {
		percentage = math.Round(float64(counts.Incidents-counts.EligibleBreaches) / float64(counts.Incidents) * 100)
		percentage = math.Max(0, math.Min(100, percentage))
	}

	eligible := counts.EligibleIncidents >= company.MinimumIncidentThreshold
	status := domain.SLAOnTime
	if eligible && percentage < company.SLATargetPercent {
		status = domain.SLABreached
	}

	return slaEvaluation{
		counts:     counts,
		percentage: percentage,
		eligible:   eligible,
		status:     status,
	}
}

// BuildSLA derives the SLA section from closed incidents (by solve date)
// and breached tickets (by open date) spanning the history window.
func BuildSLA(company *domain.Company, period domain.PeriodWindow, closedSpan, breachSpan []domain.TicketRecord) domain.SLASnapshot {
	history := make([]domain.SLAHistoryPoint, 0, SLAHistoryMonths)
	for _, month := range period.Series(SLAHistoryMonths) {
		eval := evaluateSLA(company,
			inWindow(closedSpan, domain.DateFieldSolvedAt, month.ClosedRange()),
			inWindow(breachSpan, domain.DateFieldOpenedAt, month.OpenedRange()),
		)
		history = append(history, domain.SLAHistoryPoint{
			Period:     month,
			Label:      month.Label(),
			Percentage: eval.percentage,
			Status:     eval.status,
			Eligible:   eval.eligible,
		})
	}

	breaches := inWindow(breachSpan, domain.DateFieldOpenedAt, period.OpenedRange())
	current := evaluateSLA(company,
		inWindow(closedSpan, domain.DateFieldSolvedAt, period.ClosedRange()),
		breaches,
	)

	snapshot := domain.SLASnapshot{
		SectionMeta:      liveMeta(),
		Percentage:       current.percentage,
		TargetPercent:    company.SLATargetPercent,
		MinimumThreshold: company.MinimumIncidentThreshold,
		Status:           current.status,
		Eligible:         current.eligible,
		Counts:           current.counts,
		History:          history,
		Variance:         historyVariance(history),
		BreachedTickets:  breachSample(breaches),
	}

	if !current.eligible {
		snapshot.NotEligibleMessage = notEligibleMessage(current.counts.EligibleIncidents, company.MinimumIncidentThreshold)
	}
	if current.counts.NonEligibleBreaches > 0 {
		snapshot.NonEligibleBreachNotes = nonEligibleBreachMessage(current.counts.NonEligibleBreaches)
	}

	return snapshot
}

// EmptySLA is the section reported when the data could not be read.
func EmptySLA(company *domain.Company, period domain.PeriodWindow, err error) domain.SLASnapshot {
	history := make([]domain.SLAHistoryPoint, 0, SLAHistoryMonths)
	for _, month := range period.Series(SLAHistoryMonths) {
		history = append(history, domain.SLAHistoryPoint{
			Period: month,
			Label:  month.Label(),
			Status: domain.SLAOnTime,
		})
	}
	return domain.SLASnapshot{
		SectionMeta:      fallbackMeta(err),
		TargetPercent:    company.SLATargetPercent,
		MinimumThreshold: company.MinimumIncidentThreshold,
		Status:           domain.SLAOnTime,
		History:          history,
		BreachedTickets:  []domain.BreachedTicket{},
	}
}

func historyVariance(history []domain.SLAHistoryPoint) *float64 {
	if len(history) < 2 {
		return nil
	}
	last := history[len(history)-1].Percentage
	previous := history[len(history)-2].Percentage
	variance := roundTo(last-previous, 1)
	return &variance
}

func breachSample(breaches []domain.TicketRecord) []domain.BreachedTicket {
	sorted := slices.Clone(breaches)
	slices.SortStableFunc(sorted, func(a, b domain.TicketRecord) int {
		if c := a.OpenedAt.Compare(b.OpenedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	if len(sorted) > MaxBreachedSample {
		sorted = sorted[:MaxBreachedSample]
	}

	sample := make([]domain.BreachedTicket, 0, len(sorted))
	for _, t := range sorted {
		solved := pendingSolveDate
		if t.SolvedAt != nil {
			solved = t.SolvedAt.Format(breachDateLayout)
		}
		sample = append(sample, domain.BreachedTicket{
			ID:       t.ID,
			Type:     t.TypeCode,
			OpenedAt: t.OpenedAt.Format(breachDateLayout),
			SolvedAt: solved,
			Group:    t.GroupLabel(),
		})
	}
	return sample
}

func notEligibleMessage(eligibleIncidents, threshold int) string {
	return fmt.Sprintf(
		"SLA não elegível para avaliação neste período: %d incidente(s) elegível(is) encerrado(s), mínimo contratual de %d.",
		eligibleIncidents, threshold,
	)
}

func nonEligibleBreachMessage(count int) string {
	return fmt.Sprintf(
		"%d violação(ões) de SLA com código de resolução fora da consultoria não foram consideradas no cálculo.",
		count,
	)
}
