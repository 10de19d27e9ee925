package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Ticket type codes as recorded by the upstream service desk.
const (
	TypeIncident = "Incidente"
	TypeRequest  = "Solicitação"
	TypeProblem  = "Problema"
)

// Ticket statuses that take a ticket out of the backlog.
const (
	StatusClosed   = "Closed"
	StatusResolved = "Resolved"
	StatusCanceled = "Canceled"
)

// DateField selects which ticket timestamp a date window applies to.
type DateField string

const (
	DateFieldOpenedAt DateField = "openedAt"
	DateFieldSolvedAt DateField = "solvedAt"
)

// IsValid reports whether the field is one a repository can window on.
func (f DateField) IsValid() bool {
	return f == DateFieldOpenedAt || f == DateFieldSolvedAt
}

// TicketRecord is one row of the service-desk ticket store.
type TicketRecord struct {
	ID                string
	OrganizationID    *uuid.UUID
	OrganizationName  string
	TypeCode          string
	ResolutionCode    *string
	GroupName         *string
	ConfigurationItem *string
	IsParentCase      bool
	Status            string
	SLABreached       bool
	OpenedAt          time.Time
	SolvedAt          *time.Time
}

// IsIncident reports whether the ticket is an incident. Every other type
// counts as a request for reporting purposes.
func (t TicketRecord) IsIncident() bool {
	return t.TypeCode == TypeIncident
}

// IsOpen reports whether the ticket's status keeps it in the backlog.
func (t TicketRecord) IsOpen() bool {
	switch strings.ToLower(t.Status) {
	case strings.ToLower(StatusClosed), strings.ToLower(StatusResolved), strings.ToLower(StatusCanceled):
		return false
	}
	return true
}

// DateOf returns the timestamp selected by field, or nil when it is unset.
func (t TicketRecord) DateOf(field DateField) *time.Time {
	switch field {
	case DateFieldOpenedAt:
		opened := t.OpenedAt
		return &opened
	case DateFieldSolvedAt:
		return t.SolvedAt
	}
	return nil
}

// GroupLabel returns the responsible group, or a placeholder when unset.
func (t TicketRecord) GroupLabel() string {
	if t.GroupName == nil || strings.TrimSpace(*t.GroupName) == "" {
		return NoGroupLabel
	}
	return *t.GroupName
}

// CauseLabel returns the resolution code, or a placeholder when unset.
func (t TicketRecord) CauseLabel() string {
	if t.ResolutionCode == nil || strings.TrimSpace(*t.ResolutionCode) == "" {
		return NoResolutionCodeLabel
	}
	return *t.ResolutionCode
}

// Placeholder labels for missing grouping keys.
const (
	NoGroupLabel          = "Sem Grupo"
	NoResolutionCodeLabel = "Sem Código de Resolução"
	NoBillingTypeLabel    = "Sem Tipo"
)

// UniqueTickets merges ticket sets keeping the first occurrence of each id,
// preserving input order.
func UniqueTickets(sets ...[]TicketRecord) []TicketRecord {
	seen := make(map[string]struct{})
	merged := make([]TicketRecord, 0)
	for _, set := range sets {
		for _, t := range set {
			if _, ok := seen[t.ID]; ok {
				continue
			}
			seen[t.ID] = struct{}{}
			merged = append(merged, t)
		}
	}
	return merged
}
