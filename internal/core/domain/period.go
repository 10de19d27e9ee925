package domain

import (
	"fmt"
	"time"

	apperrors "github.com/lorrc/service-desk-books/internal/core/errors"
)

const (
	MinPeriodYear = 2000
	MaxPeriodYear = 2100
)

// PeriodWindow is a calendar month of a given year.
type PeriodWindow struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// NewPeriodWindow validates and builds a period.
func NewPeriodWindow(month, year int) (PeriodWindow, error) {
	p := PeriodWindow{Month: month, Year: year}
	if err := p.Validate(); err != nil {
		return PeriodWindow{}, err
	}
	return p, nil
}

// Validate checks that the month and year are usable.
func (p PeriodWindow) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidPeriod, apperrors.ErrInvalidMonth)
	}
	if p.Year < MinPeriodYear || p.Year > MaxPeriodYear {
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidPeriod, apperrors.ErrInvalidYear)
	}
	return nil
}

// PeriodOf returns the period a timestamp falls in, in UTC.
func PeriodOf(t time.Time) PeriodWindow {
	t = t.UTC()
	return PeriodWindow{Month: int(t.Month()), Year: t.Year()}
}

// Start is the first instant of the month.
func (p PeriodWindow) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// NextStart is the first instant of the following month.
func (p PeriodWindow) NextStart() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// LastDay is midnight of the last calendar day of the month.
func (p PeriodWindow) LastDay() time.Time {
	return p.NextStart().AddDate(0, 0, -1)
}

// Back returns the period n months earlier, rolling over years.
func (p PeriodWindow) Back(n int) PeriodWindow {
	index := p.Year*12 + (p.Month - 1) - n
	return PeriodWindow{Month: index%12 + 1, Year: index / 12}
}

// Series returns the n periods ending at p, oldest first.
func (p PeriodWindow) Series(n int) []PeriodWindow {
	if n <= 0 {
		return nil
	}
	periods := make([]PeriodWindow, n)
	for i := 0; i < n; i++ {
		periods[i] = p.Back(n - 1 - i)
	}
	return periods
}

// Before reports whether p is an earlier month than other.
func (p PeriodWindow) Before(other PeriodWindow) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

// Label formats the period as MM/YYYY.
func (p PeriodWindow) Label() string {
	return fmt.Sprintf("%02d/%d", p.Month, p.Year)
}

// Key formats the period as YYYY-MM.
func (p PeriodWindow) Key() string {
	return fmt.Sprintf("%d-%02d", p.Year, p.Month)
}

func (p PeriodWindow) String() string {
	return p.Label()
}

// OpenedRange is the window used for tickets opened in the period. Its upper
// bound is the last day of the month at midnight, compared inclusively.
func (p PeriodWindow) OpenedRange() DateRange {
	return DateRange{Start: p.Start(), End: p.LastDay(), EndInclusive: true}
}

// ClosedRange is the window used for tickets solved in the period. Its upper
// bound is the next month's start, compared exclusively.
func (p PeriodWindow) ClosedRange() DateRange {
	return DateRange{Start: p.Start(), End: p.NextStart()}
}

// SpanOpenedRange covers the opened windows of every period in [from, to].
func SpanOpenedRange(from, to PeriodWindow) DateRange {
	return DateRange{Start: from.Start(), End: to.LastDay(), EndInclusive: true}
}

// SpanClosedRange covers the closed windows of every period in [from, to].
func SpanClosedRange(from, to PeriodWindow) DateRange {
	return DateRange{Start: from.Start(), End: to.NextStart()}
}

// DateRange is a time window starting inclusively at Start.
type DateRange struct {
	Start        time.Time
	End          time.Time
	EndInclusive bool
}

// Contains reports whether t falls inside the window.
func (r DateRange) Contains(t time.Time) bool {
	if t.Before(r.Start) {
		return false
	}
	if r.EndInclusive {
		return !t.After(r.End)
	}
	return t.Before(r.End)
}

// RangeFor returns the single-period window for field.
func (p PeriodWindow) RangeFor(field DateField) DateRange {
	if field == DateFieldSolvedAt {
		return p.ClosedRange()
	}
	return p.OpenedRange()
}
