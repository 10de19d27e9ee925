package domain

import "github.com/google/uuid"

// Company holds the per-client settings the metrics depend on.
type Company struct {
	ID                       uuid.UUID
	Name                     string
	OrganizationID           *uuid.UUID
	SLATargetPercent         float64
	MinimumIncidentThreshold int
	ContractType             string
	BaselineHours            float64
	IsActive                 bool
}

// TicketFilter returns the base inclusion predicate for the company's tickets.
func (c *Company) TicketFilter() TicketFilter {
	return NewBaseFilter(c.Name, c.OrganizationID)
}
