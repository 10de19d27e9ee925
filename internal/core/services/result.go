package services

import (
	"math"
	"slices"
	"strings"

	"github.com/lorrc/service-desk-books/internal/core/domain"
)

// Result carries a section value together with the error that forced it to
// its fallback, if any. Value is always usable.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the value was computed from live data.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

func liveMeta() domain.SectionMeta {
	return domain.SectionMeta{DataSource: domain.DataSourceLive}
}

func fallbackMeta(err error) domain.SectionMeta {
	return domain.SectionMeta{DataSource: domain.DataSourceFallback, Error: err.Error()}
}

func roundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}

// percentOf returns part/total as a percentage with one decimal, 0 when
// total is zero.
func percentOf(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return roundTo(part/total*100, 1)
}

// inWindow keeps the tickets whose field falls in window.
func inWindow(tickets []domain.TicketRecord, field domain.DateField, window domain.DateRange) []domain.TicketRecord {
	kept := make([]domain.TicketRecord, 0, len(tickets))
	for _, t := range tickets {
		if at := t.DateOf(field); at != nil && window.Contains(*at) {
			kept = append(kept, t)
		}
	}
	return kept
}

// ticketIDs indexes a ticket set by id.
func ticketIDs(tickets []domain.TicketRecord) map[string]struct{} {
	ids := make(map[string]struct{}, len(tickets))
	for _, t := range tickets {
		ids[t.ID] = struct{}{}
	}
	return ids
}

// groupBreakdown groups tickets by responsible group. opened and closed
// mark membership in the period's sets; either may be nil.
func groupBreakdown(tickets []domain.TicketRecord, opened, closed map[string]struct{}) []domain.GroupBreakdown {
	index := make(map[string]int)
	groups := make([]domain.GroupBreakdown, 0)
	for _, t := range tickets {
		label := t.GroupLabel()
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, domain.GroupBreakdown{Group: label})
		}
		groups[i].Total++
		if _, ok := opened[t.ID]; ok {
			groups[i].Opened++
		}
		if _, ok := closed[t.ID]; ok {
			groups[i].Closed++
		}
	}

	for i := range groups {
		groups[i].Percentage = percentOf(float64(groups[i].Total), float64(len(tickets)))
	}
	slices.SortStableFunc(groups, func(a, b domain.GroupBreakdown) int {
		if a.Total != b.Total {
			return b.Total - a.Total
		}
		return strings.Compare(a.Group, b.Group)
	})
	return groups
}

// causeBreakdown groups tickets by resolution code.
func causeBreakdown(tickets []domain.TicketRecord, opened, closed map[string]struct{}) []domain.CauseBreakdown {
	index := make(map[string]int)
	causes := make([]domain.CauseBreakdown, 0)
	for _, t := range tickets {
		label := t.CauseLabel()
		i, ok := index[label]
		if !ok {
			i = len(causes)
			index[label] = i
			causes = append(causes, domain.CauseBreakdown{Cause: label})
		}
		causes[i].Total++
		if t.IsIncident() {
			causes[i].Incidents++
		} else {
			causes[i].Requests++
		}
		if _, ok := opened[t.ID]; ok {
			causes[i].Opened++
		}
		if _, ok := closed[t.ID]; ok {
			causes[i].Closed++
		}
	}

	for i := range causes {
		causes[i].Percentage = percentOf(float64(causes[i].Total), float64(len(tickets)))
	}
	slices.SortStableFunc(causes, func(a, b domain.CauseBreakdown) int {
		if a.Total != b.Total {
			return b.Total - a.Total
		}
		return strings.Compare(a.Cause, b.Cause)
	})
	return causes
}
