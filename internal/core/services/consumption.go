package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/lorrc/service-desk-books/internal/core/domain"
	"github.com/lorrc/service-desk-books/internal/core/ports"
)

// ConsumptionMonths is the length of the billable-hours history.
const ConsumptionMonths = 6

// ConsumptionAggregator sums billable hours for a period.
type ConsumptionAggregator struct {
	hours  ports.HourRecordRepository
	logger *slog.Logger
}

func NewConsumptionAggregator(hours ports.HourRecordRepository, logger *slog.Logger) *ConsumptionAggregator {
	return &ConsumptionAggregator{
		hours:  hours,
		logger: logger.With("component", "consumption"),
	}
}

// Aggregate computes the consumption section. Unparseable hour values count
// as zero and are reported in MalformedRecords.
func (a *ConsumptionAggregator) Aggregate(ctx context.Context, company *domain.Company, period domain.PeriodWindow) Result[domain.ConsumptionSnapshot] {
	records, err := a.hours.Query(ctx, company.ID, period.Back(ConsumptionMonths-1), period)
	if err != nil {
		err = fmt.Errorf("query hour records: %w", err)
		a.logger.WarnContext(ctx, "consumption fell back to empty section",
			"company_id", company.ID,
			"period", period.Key(),
			"error", err,
		)
		return Result[domain.ConsumptionSnapshot]{Value: EmptyConsumption(company, period, err), Err: err}
	}

	for _, r := range records {
		if _, err := r.HoursTotal.Hours(); err != nil {
			a.logger.WarnContext(ctx, "skipping malformed hour record",
				"company_id", company.ID,
				"record_id", r.ID,
				"error", err,
			)
		}
	}

	snapshot := BuildConsumption(company, period, records)

	a.logger.DebugContext(ctx, "consumption computed",
		"company_id", company.ID,
		"period", period.Key(),
		"total_hours", snapshot.TotalHours,
		"malformed", snapshot.MalformedRecords,
	)

	return Result[domain.ConsumptionSnapshot]{Value: snapshot}
}

// BuildConsumption derives the section from hour records spanning the
// history window ending at period.
func BuildConsumption(company *domain.Company, period domain.PeriodWindow, records []domain.HourRecord) domain.ConsumptionSnapshot {
	snapshot := domain.ConsumptionSnapshot{
		SectionMeta:   liveMeta(),
		BaselineHours: company.BaselineHours,
	}

	monthly := make(map[domain.PeriodWindow]float64)
	byCause := make(map[string]float64)
	causeOrder := make([]string, 0)

	for _, r := range records {
		hours, err := r.HoursTotal.Hours()
		if err != nil {
			snapshot.MalformedRecords++
			hours = 0
		}
		monthly[r.Period] += hours
		if r.Period != period {
			continue
		}

		snapshot.TotalHours += hours
		if r.IsIncident() {
			snapshot.IncidentHours += hours
		} else {
			snapshot.OtherHours += hours
		}

		label := r.BillingLabel()
		if _, ok := byCause[label]; !ok {
			causeOrder = append(causeOrder, label)
		}
		byCause[label] += hours
	}

	snapshot.History = make([]domain.HoursPoint, 0, ConsumptionMonths)
	for _, month := range period.Series(ConsumptionMonths) {
		snapshot.History = append(snapshot.History, domain.HoursPoint{
			Period: month,
			Label:  month.Label(),
			Hours:  roundTo(monthly[month], 2),
		})
	}

	snapshot.Causes = make([]domain.HoursByCause, 0, len(causeOrder))
	for _, label := range causeOrder {
		snapshot.Causes = append(snapshot.Causes, domain.HoursByCause{
			Cause:      label,
			Hours:      roundTo(byCause[label], 2),
			Percentage: percentOf(byCause[label], snapshot.TotalHours),
		})
	}
	slices.SortStableFunc(snapshot.Causes, func(a, b domain.HoursByCause) int {
		if a.Hours != b.Hours {
			if a.Hours > b.Hours {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Cause, b.Cause)
	})

	snapshot.BaselinePercentage = percentOf(snapshot.TotalHours, company.BaselineHours)
	snapshot.TotalHours = roundTo(snapshot.TotalHours, 2)
	snapshot.IncidentHours = roundTo(snapshot.IncidentHours, 2)
	snapshot.OtherHours = roundTo(snapshot.OtherHours, 2)

	return snapshot
}

// EmptyConsumption is the section reported when the data could not be read.
func EmptyConsumption(company *domain.Company, period domain.PeriodWindow, err error) domain.ConsumptionSnapshot {
	history := make([]domain.HoursPoint, 0, ConsumptionMonths)
	for _, month := range period.Series(ConsumptionMonths) {
		history = append(history, domain.HoursPoint{Period: month, Label: month.Label()})
	}
	return domain.ConsumptionSnapshot{
		SectionMeta:   fallbackMeta(err),
		BaselineHours: company.BaselineHours,
		History:       history,
		Causes:        []domain.HoursByCause{},
	}
}
