package domain

import (
	"time"

	"github.com/google/uuid"
)

// DataSource tells whether a section was computed from live data or fell
// back to its empty value after a failure.
type DataSource string

const (
	DataSourceLive     DataSource = "live"
	DataSourceFallback DataSource = "fallback"
)

// SLAStatus is the reported outcome of a period's SLA.
type SLAStatus string

const (
	SLAOnTime   SLAStatus = "OnTime"
	SLABreached SLAStatus = "Breached"
)

// SectionMeta is embedded in every snapshot section.
type SectionMeta struct {
	DataSource DataSource `json:"dataSource"`
	Error      string     `json:"error,omitempty"`
}

// IsFallback reports whether the section holds fallback values.
func (m SectionMeta) IsFallback() bool {
	return m.DataSource == DataSourceFallback
}

// TypeSplit counts tickets (or hours) by incident vs. request.
type TypeSplit struct {
	Total     int `json:"total"`
	Incidents int `json:"incidents"`
	Requests  int `json:"requests"`
}

// SplitByType counts tickets into a TypeSplit.
func SplitByType(tickets []TicketRecord) TypeSplit {
	split := TypeSplit{Total: len(tickets)}
	for _, t := range tickets {
		if t.IsIncident() {
			split.Incidents++
		} else {
			split.Requests++
		}
	}
	return split
}

// GroupBreakdown is one responsible group's share of a ticket set.
type GroupBreakdown struct {
	Group      string  `json:"group"`
	Opened     int     `json:"opened"`
	Closed     int     `json:"closed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// CauseBreakdown is one resolution code's share of a ticket set.
type CauseBreakdown struct {
	Cause      string  `json:"cause"`
	Incidents  int     `json:"incidents"`
	Requests   int     `json:"requests"`
	Opened     int     `json:"opened"`
	Closed     int     `json:"closed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// TrendPoint is one month of the opened/closed trend.
type TrendPoint struct {
	Period PeriodWindow `json:"period"`
	Label  string       `json:"label"`
	Opened int          `json:"opened"`
	Closed int          `json:"closed"`
}

// VolumetrySnapshot summarizes opened/closed activity for a period.
type VolumetrySnapshot struct {
	SectionMeta
	Opened         TypeSplit        `json:"opened"`
	Closed         TypeSplit        `json:"closed"`
	Trend          []TrendPoint     `json:"trend"`
	Groups         []GroupBreakdown `json:"groups"`
	Causes         []CauseBreakdown `json:"causes"`
	UniqueTickets  int              `json:"uniqueTickets"`
	ResolutionRate float64          `json:"resolutionRate"`
}

// SLAHistoryPoint is one month of the rolling SLA series.
type SLAHistoryPoint struct {
	Period     PeriodWindow `json:"period"`
	Label      string       `json:"label"`
	Percentage float64      `json:"percentage"`
	Status     SLAStatus    `json:"status"`
	Eligible   bool         `json:"eligible"`
}

// BreachedTicket is a breach listed for human review.
type BreachedTicket struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	OpenedAt string `json:"openedAt"`
	SolvedAt string `json:"solvedAt"`
	Group    string `json:"group"`
}

// SLACounts holds the raw counts behind the SLA percentage.
type SLACounts struct {
	Closed              int `json:"closed"`
	Incidents           int `json:"incidents"`
	EligibleIncidents   int `json:"eligibleIncidents"`
	Breaches            int `json:"breaches"`
	EligibleBreaches    int `json:"eligibleBreaches"`
	NonEligibleBreaches int `json:"nonEligibleBreaches"`
}

// SLASnapshot is the SLA assessment for a period.
type SLASnapshot struct {
	SectionMeta
	Percentage             float64           `json:"percentage"`
	TargetPercent          float64           `json:"targetPercent"`
	MinimumThreshold       int               `json:"minimumThreshold"`
	Status                 SLAStatus         `json:"status"`
	Eligible               bool              `json:"eligible"`
	Counts                 SLACounts         `json:"counts"`
	History                []SLAHistoryPoint `json:"history"`
	Variance               *float64          `json:"variance,omitempty"`
	BreachedTickets        []BreachedTicket  `json:"breachedTickets"`
	NotEligibleMessage     string            `json:"mensagemNaoElegivel,omitempty"`
	NonEligibleBreachNotes string            `json:"nonEligibleBreachMessage,omitempty"`
}

// AgingBucket is one age band of the backlog.
type AgingBucket struct {
	Label   string `json:"label"`
	MinDays int    `json:"minDays"`
	MaxDays *int   `json:"maxDays,omitempty"`
	Count   int    `json:"count"`
}

// BacklogSnapshot describes the tickets that are still open.
type BacklogSnapshot struct {
	SectionMeta
	Total  int              `json:"total"`
	ByType TypeSplit        `json:"byType"`
	Aging  []AgingBucket    `json:"aging"`
	Groups []GroupBreakdown `json:"groups"`
	Causes []CauseBreakdown `json:"causes"`
}

// HoursPoint is one month of billable hours.
type HoursPoint struct {
	Period PeriodWindow `json:"period"`
	Label  string       `json:"label"`
	Hours  float64      `json:"hours"`
}

// HoursByCause is one billing type's share of the period's hours.
type HoursByCause struct {
	Cause      string  `json:"cause"`
	Hours      float64 `json:"hours"`
	Percentage float64 `json:"percentage"`
}

// ConsumptionSnapshot summarizes billable hours.
type ConsumptionSnapshot struct {
	SectionMeta
	TotalHours         float64        `json:"totalHours"`
	IncidentHours      float64        `json:"incidentHours"`
	OtherHours         float64        `json:"otherHours"`
	BaselineHours      float64        `json:"baselineHours"`
	BaselinePercentage float64        `json:"baselinePercentage"`
	History            []HoursPoint   `json:"history"`
	Causes             []HoursByCause `json:"causes"`
	MalformedRecords   int            `json:"malformedRecords"`
}

// CoverSummary is the headline data for the first page of the book.
type CoverSummary struct {
	CompanyName      string    `json:"companyName"`
	ContractType     string    `json:"contractType"`
	PeriodLabel      string    `json:"periodLabel"`
	OpenedTickets    int       `json:"openedTickets"`
	ClosedTickets    int       `json:"closedTickets"`
	BacklogTickets   int       `json:"backlogTickets"`
	ResolutionRate   float64   `json:"resolutionRate"`
	SLAPercentage    float64   `json:"slaPercentage"`
	SLAStatus        SLAStatus `json:"slaStatus"`
	SLAEligible      bool      `json:"slaEligible"`
	TotalHours       float64   `json:"totalHours"`
	FallbackSections []string  `json:"fallbackSections"`
	GeneratedAt      time.Time `json:"generatedAt"`
}

// BookMetricsSnapshot is the assembled metrics for one company and month.
// It is built once and never modified; regenerating yields a new snapshot.
type BookMetricsSnapshot struct {
	ID          uuid.UUID           `json:"id"`
	CompanyID   uuid.UUID           `json:"companyId"`
	Period      PeriodWindow        `json:"period"`
	GeneratedAt time.Time           `json:"generatedAt"`
	Cover       CoverSummary        `json:"cover"`
	Volumetry   VolumetrySnapshot   `json:"volumetry"`
	SLA         SLASnapshot         `json:"sla"`
	Backlog     BacklogSnapshot     `json:"backlog"`
	Consumption ConsumptionSnapshot `json:"consumption"`
}

// IsPartial reports whether any section fell back to its empty value.
func (s *BookMetricsSnapshot) IsPartial() bool {
	return len(s.Cover.FallbackSections) > 0
}
