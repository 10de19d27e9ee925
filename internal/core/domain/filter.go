package domain

import (
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Fixed inclusion constants shared by every report section.
const (
	ExcludedTypeCode         = TypeProblem
	ProjectConfigurationItem = "000000 - PROJETOS APL"
	GroupAMSTechnical        = "AMS APL - TÉCNICO"
	GroupCASDM               = "CA SDM"
)

// ExcludedGroups lists the responsible groups whose tickets never count.
var ExcludedGroups = []string{GroupAMSTechnical, GroupCASDM}

// EligibleResolutionCodes are the consulting resolution codes that make an
// incident assessable for SLA.
var EligibleResolutionCodes = []string{
	"Consultoria",
	"Consultoria - Dúvida",
	"Consultoria - Orientação",
	"Consultoria - Parametrização",
}

// IsEligibleResolution reports whether code is in the consulting whitelist.
func IsEligibleResolution(code *string) bool {
	if code == nil {
		return false
	}
	return slices.Contains(EligibleResolutionCodes, strings.TrimSpace(*code))
}

// TicketFilter is the inclusion predicate passed to every ticket query.
// Build it with NewBaseFilter and narrow it with the copy-returning methods;
// the zero value matches nothing useful.
type TicketFilter struct {
	OrganizationName   string
	OrganizationID     *uuid.UUID
	ExcludedTypeCode   string
	ExcludedGroups     []string
	ExcludedConfigItem string
	RequireParentCase  bool
	TypeCodes          []string
	OnlySLABreached    bool
}

// NewBaseFilter builds the canonical "valid ticket" predicate for an
// organization. orgID may be nil when only the name is known.
func NewBaseFilter(orgName string, orgID *uuid.UUID) TicketFilter {
	return TicketFilter{
		OrganizationName:   strings.TrimSpace(orgName),
		OrganizationID:     orgID,
		ExcludedTypeCode:   ExcludedTypeCode,
		ExcludedGroups:     slices.Clone(ExcludedGroups),
		ExcludedConfigItem: ProjectConfigurationItem,
		RequireParentCase:  true,
	}
}

// OnlyTypes returns a copy restricted to the given type codes.
func (f TicketFilter) OnlyTypes(codes ...string) TicketFilter {
	f.ExcludedGroups = slices.Clone(f.ExcludedGroups)
	f.TypeCodes = slices.Clone(codes)
	return f
}

// OnlyBreached returns a copy restricted to tickets whose SLA was breached.
func (f TicketFilter) OnlyBreached() TicketFilter {
	f.ExcludedGroups = slices.Clone(f.ExcludedGroups)
	f.TypeCodes = slices.Clone(f.TypeCodes)
	f.OnlySLABreached = true
	return f
}

// MatchesOrganization applies the organization part of the predicate:
// case-insensitive substring of the name, or the exact organization id.
func (f TicketFilter) MatchesOrganization(t TicketRecord) bool {
	if f.OrganizationID != nil && t.OrganizationID != nil && *f.OrganizationID == *t.OrganizationID {
		return true
	}
	if f.OrganizationName == "" {
		return false
	}
	return strings.Contains(FoldOrganizationName(t.OrganizationName), FoldOrganizationName(f.OrganizationName))
}

// FoldOrganizationName is the case folding used for organization matching.
// Stores persist it next to the name so their matching never depends on a
// database collation.
func FoldOrganizationName(name string) string {
	return strings.ToLower(name)
}

// Matches evaluates the whole predicate against a ticket.
func (f TicketFilter) Matches(t TicketRecord) bool {
	if !f.MatchesOrganization(t) {
		return false
	}
	if f.ExcludedTypeCode != "" && t.TypeCode == f.ExcludedTypeCode {
		return false
	}
	if f.ExcludedConfigItem != "" && t.ConfigurationItem != nil && *t.ConfigurationItem == f.ExcludedConfigItem {
		return false
	}
	if f.RequireParentCase && !t.IsParentCase {
		return false
	}
	if t.GroupName != nil && slices.Contains(f.ExcludedGroups, *t.GroupName) {
		return false
	}
	if len(f.TypeCodes) > 0 && !slices.Contains(f.TypeCodes, t.TypeCode) {
		return false
	}
	if f.OnlySLABreached && !t.SLABreached {
		return false
	}
	return true
}
