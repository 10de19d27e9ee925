package postgres

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/service-desk-books/internal/adapters/secondary/memory"
	"github.com/lorrc/service-desk-books/internal/core/domain"
)

func strPtr(s string) *string { return &s }

func ts(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

// seedTickets writes a ticket set for a fresh organization and returns the
// organization's name and the tickets.
func seedTickets(t *testing.T, ctx context.Context) (string, uuid.UUID, []domain.TicketRecord) {
	t.Helper()
	require.NotNil(t, testPool, "testPool is nil. TestMain may not have run.")

	orgID := uuid.New()
	orgName := "Org " + orgID.String()[:8]
	prefix := orgID.String()[:8] + "-"
	solved := func(t time.Time) *time.Time { return &t }

	tickets := []domain.TicketRecord{
		{ID: prefix + "1", OrganizationName: orgName + " Ltda", TypeCode: domain.TypeIncident, IsParentCase: true, Status: "Open", OpenedAt: ts(2025, 9, 1, 0)},
		{ID: prefix + "2", OrganizationName: orgName, TypeCode: domain.TypeRequest, IsParentCase: true, Status: "Open", OpenedAt: ts(2025, 9, 30, 0), GroupName: strPtr("N1")},
		{ID: prefix + "3", OrganizationName: orgName, TypeCode: domain.TypeIncident, IsParentCase: true, Status: "Open", OpenedAt: ts(2025, 9, 30, 10)},
		{ID: prefix + "4", OrganizationName: orgName, TypeCode: domain.TypeProblem, IsParentCase: true, Status: "Open", OpenedAt: ts(2025, 9, 10, 9)},
		{ID: prefix + "5", OrganizationName: orgName, TypeCode: domain.TypeIncident, IsParentCase: true, Status: "Open", OpenedAt: ts(2025, 9, 10, 9), GroupName: strPtr(domain.GroupCASDM)},
		{ID: prefix + "6", OrganizationName: orgName, TypeCode: domain.TypeIncident, IsParentCase: false, Status: "Open", OpenedAt: ts(2025, 9, 10, 9)},
		{ID: prefix + "7", OrganizationName: orgName, TypeCode: domain.TypeIncident, IsParentCase: true, Status: "Open", OpenedAt: ts(2025, 9, 10, 9), ConfigurationItem: strPtr(domain.ProjectConfigurationItem)},
		{ID: prefix + "8", OrganizationName: "Someone Else", OrganizationID: &orgID, TypeCode: domain.TypeIncident, IsParentCase: true, Status: "In Progress", OpenedAt: ts(2025, 9, 12, 9), ConfigurationItem: strPtr("ERP")},
		{ID: prefix + "9", OrganizationName: orgName, TypeCode: domain.TypeIncident, IsParentCase: true, Status: "Closed", SLABreached: true, ResolutionCode: strPtr("Consultoria"), OpenedAt: ts(2025, 8, 20, 8), SolvedAt: solved(ts(2025, 9, 30, 23))},
		{ID: prefix + "10", OrganizationName: orgName, TypeCode: domain.TypeRequest, IsParentCase: true, Status: "resolved", OpenedAt: ts(2025, 9, 20, 8), SolvedAt: solved(ts(2025, 10, 1, 0))},
	}

	repo := NewTicketRepository(testPool)
	require.NoError(t, repo.Upsert(ctx, tickets))
	return orgName, orgID, tickets
}

func ticketIDs(tickets []domain.TicketRecord) []string {
	ids := make([]string, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.ID)
	}
	return ids
}

func TestTicketRepository_MatchesInMemoryFilter(t *testing.T) {
	ctx := context.Background()
	orgName, orgID, tickets := seedTickets(t, ctx)
	repo := NewTicketRepository(testPool)
	reference := memory.NewTicketRepository(tickets...)
	september := domain.PeriodWindow{Month: 9, Year: 2025}

	base := domain.NewBaseFilter(orgName, &orgID)
	filters := map[string]domain.TicketFilter{
		"base":           base,
		"incidents only": base.OnlyTypes(domain.TypeIncident),
		"breached only":  base.OnlyBreached(),
		"name only":      domain.NewBaseFilter(orgName, nil),
		"id only":        domain.NewBaseFilter("", &orgID),
		"unknown org":    domain.NewBaseFilter("no such org", nil),
		"lowercase name": domain.NewBaseFilter(strings.ToLower(orgName), nil),
	}
	windows := map[string]struct {
		field  domain.DateField
		window domain.DateRange
	}{
		"opened":      {domain.DateFieldOpenedAt, september.OpenedRange()},
		"closed":      {domain.DateFieldSolvedAt, september.ClosedRange()},
		"opened span": {domain.DateFieldOpenedAt, domain.SpanOpenedRange(september.Back(5), september)},
	}

	for fname, filter := range filters {
		for wname, w := range windows {
			t.Run(fname+"/"+wname, func(t *testing.T) {
				want, err := reference.Query(ctx, filter, w.field, w.window)
				require.NoError(t, err)

				got, err := repo.Query(ctx, filter, w.field, w.window)
				require.NoError(t, err)

				assert.ElementsMatch(t, ticketIDs(want), ticketIDs(got))
			})
		}
	}
}

func TestTicketRepository_AccentedOrganizationNames(t *testing.T) {
	ctx := context.Background()
	suffix := uuid.NewString()[:8]
	opened := ts(2025, 9, 10, 9)

	tickets := []domain.TicketRecord{
		{ID: suffix + "-a", OrganizationName: "Ação Industrial " + suffix, TypeCode: domain.TypeIncident, IsParentCase: true, Status: "Open", OpenedAt: opened},
		{ID: suffix + "-b", OrganizationName: "AÇÃO INDUSTRIAL " + suffix + " S/A", TypeCode: domain.TypeIncident, IsParentCase: true, Status: "Open", OpenedAt: opened},
		{ID: suffix + "-c", OrganizationName: "Acao Industrial " + suffix, TypeCode: domain.TypeIncident, IsParentCase: true, Status: "Open", OpenedAt: opened},
		{ID: suffix + "-d", OrganizationName: "Órgão Técnico " + suffix, TypeCode: domain.TypeRequest, IsParentCase: true, Status: "Open", OpenedAt: opened},
	}
	repo := NewTicketRepository(testPool)
	require.NoError(t, repo.Upsert(ctx, tickets))
	reference := memory.NewTicketRepository(tickets...)
	window := domain.PeriodWindow{Month: 9, Year: 2025}.OpenedRange()

	tests := []struct {
		name string
		want []string
	}{
		{"ação industrial " + suffix, []string{suffix + "-a", suffix + "-b"}},
		{"AÇÃO Industrial " + suffix, []string{suffix + "-a", suffix + "-b"}},
		{"Acao industrial " + suffix, []string{suffix + "-c"}},
		{"órgão técnico " + suffix, []string{suffix + "-d"}},
		{"ÓRGÃO TÉCNICO " + suffix, []string{suffix + "-d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := domain.NewBaseFilter(tt.name, nil)

			want, err := reference.Query(ctx, filter, domain.DateFieldOpenedAt, window)
			require.NoError(t, err)
			got, err := repo.Query(ctx, filter, domain.DateFieldOpenedAt, window)
			require.NoError(t, err)

			assert.ElementsMatch(t, tt.want, ticketIDs(want))
			assert.ElementsMatch(t, tt.want, ticketIDs(got))
		})
	}
}

func TestTicketRepository_Query(t *testing.T) {
	ctx := context.Background()
	orgName, orgID, _ := seedTickets(t, ctx)
	repo := NewTicketRepository(testPool)
	september := domain.PeriodWindow{Month: 9, Year: 2025}
	prefix := orgID.String()[:8] + "-"

	t.Run("opened window includes the last day at midnight only", func(t *testing.T) {
		got, err := repo.Query(ctx, domain.NewBaseFilter(orgName, &orgID), domain.DateFieldOpenedAt, september.OpenedRange())
		require.NoError(t, err)

		assert.ElementsMatch(t, []string{prefix + "1", prefix + "2", prefix + "8", prefix + "10"}, ticketIDs(got))
	})

	t.Run("closed window ends before the next month", func(t *testing.T) {
		got, err := repo.Query(ctx, domain.NewBaseFilter(orgName, &orgID), domain.DateFieldSolvedAt, september.ClosedRange())
		require.NoError(t, err)

		require.Len(t, got, 1)
		ticket := got[0]
		assert.Equal(t, prefix+"9", ticket.ID)
		assert.True(t, ticket.SLABreached)
		require.NotNil(t, ticket.ResolutionCode)
		assert.Equal(t, "Consultoria", *ticket.ResolutionCode)
		require.NotNil(t, ticket.SolvedAt)
		assert.Equal(t, ts(2025, 9, 30, 23), *ticket.SolvedAt)
		assert.Nil(t, ticket.GroupName)
	})

	t.Run("unknown date field is rejected", func(t *testing.T) {
		_, err := repo.Query(ctx, domain.NewBaseFilter(orgName, &orgID), domain.DateField("createdAt"), september.OpenedRange())
		assert.Error(t, err)
	})
}

func TestTicketRepository_QueryBacklog(t *testing.T) {
	ctx := context.Background()
	orgName, orgID, _ := seedTickets(t, ctx)
	repo := NewTicketRepository(testPool)
	prefix := orgID.String()[:8] + "-"

	got, err := repo.QueryBacklog(ctx, domain.NewBaseFilter(orgName, &orgID))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{prefix + "1", prefix + "2", prefix + "3", prefix + "8"}, ticketIDs(got))
}
