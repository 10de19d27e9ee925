package services_test

import (
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lorrc/service-desk-books/internal/core/domain"
)

var (
	acmeID     = uuid.MustParse("6f1c2a1e-6a1b-4f0e-9c8d-1f2e3d4c5b6a")
	acmeOrgID  = uuid.MustParse("0d9e8f7a-1b2c-4d3e-8f9a-0b1c2d3e4f5a")
	september  = domain.PeriodWindow{Month: 9, Year: 2025}
	testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

func acme() domain.Company {
	return domain.Company{
		ID:                       acmeID,
		Name:                     "ACME",
		OrganizationID:           &acmeOrgID,
		SLATargetPercent:         95,
		MinimumIncidentThreshold: 2,
		ContractType:             "AMS",
		BaselineHours:            100,
		IsActive:                 true,
	}
}

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

type ticketOption func(*domain.TicketRecord)

func solvedAt(t time.Time) ticketOption {
	return func(r *domain.TicketRecord) { r.SolvedAt = &t; r.Status = domain.StatusClosed }
}

func inGroup(name string) ticketOption {
	return func(r *domain.TicketRecord) { r.GroupName = strPtr(name) }
}

func withCause(code string) ticketOption {
	return func(r *domain.TicketRecord) { r.ResolutionCode = strPtr(code) }
}

func breached() ticketOption {
	return func(r *domain.TicketRecord) { r.SLABreached = true }
}

func withStatus(status string) ticketOption {
	return func(r *domain.TicketRecord) { r.Status = status }
}

func forOrganization(name string) ticketOption {
	return func(r *domain.TicketRecord) { r.OrganizationName = name; r.OrganizationID = nil }
}

// ticket builds a valid ACME ticket that the base filter accepts.
func ticket(id, typeCode string, openedAt time.Time, opts ...ticketOption) domain.TicketRecord {
	r := domain.TicketRecord{
		ID:               id,
		OrganizationName: "ACME Indústria S.A.",
		TypeCode:         typeCode,
		IsParentCase:     true,
		Status:           "Open",
		OpenedAt:         openedAt,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}
