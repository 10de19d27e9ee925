package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/service-desk-books/internal/adapters/secondary/memory"
	"github.com/lorrc/service-desk-books/internal/core/domain"
	"github.com/lorrc/service-desk-books/internal/core/services"
)

func TestSLAAggregator_Aggregate(t *testing.T) {
	ctx := context.Background()

	t.Run("eligible period below target is breached", func(t *testing.T) {
		company := acme()
		repo := memory.NewTicketRepository(
			ticket("i1", domain.TypeIncident, at(2025, 9, 2, 9, 0), withCause("Consultoria"), breached(), solvedAt(at(2025, 9, 10, 9, 0))),
			ticket("i2", domain.TypeIncident, at(2025, 8, 25, 9, 0), withCause("Consultoria - Dúvida"), solvedAt(at(2025, 9, 12, 9, 0))),
		)
		agg := services.NewSLAAggregator(repo, testLogger)

		res := agg.Aggregate(ctx, &company, september)

		require.NoError(t, res.Err)
		s := res.Value
		assert.Equal(t, float64(50), s.Percentage)
		assert.True(t, s.Eligible)
		assert.Equal(t, domain.SLABreached, s.Status)
		assert.Equal(t, domain.SLACounts{
			Closed:            2,
			Incidents:         2,
			EligibleIncidents: 2,
			Breaches:          1,
			EligibleBreaches:  1,
		}, s.Counts)
		assert.Empty(t, s.NotEligibleMessage)

		require.Len(t, s.History, services.SLAHistoryMonths)
		assert.Equal(t, "05/2025", s.History[0].Label)
		assert.Equal(t, float64(100), s.History[3].Percentage, "august has no closed incidents")
		assert.Equal(t, float64(50), s.History[4].Percentage)
		require.NotNil(t, s.Variance)
		assert.Equal(t, float64(-50), *s.Variance)

		require.Len(t, s.BreachedTickets, 1)
		assert.Equal(t, domain.BreachedTicket{
			ID:       "i1",
			Type:     domain.TypeIncident,
			OpenedAt: "02/09/2025",
			SolvedAt: "10/09/2025",
			Group:    domain.NoGroupLabel,
		}, s.BreachedTickets[0])
	})

	t.Run("eligible period at target is on time", func(t *testing.T) {
		company := acme()
		company.SLATargetPercent = 50
		repo := memory.NewTicketRepository(
			ticket("i1", domain.TypeIncident, at(2025, 9, 2, 9, 0), withCause("Consultoria"), breached(), solvedAt(at(2025, 9, 10, 9, 0))),
			ticket("i2", domain.TypeIncident, at(2025, 8, 25, 9, 0), withCause("Consultoria"), solvedAt(at(2025, 9, 12, 9, 0))),
		)

		s := services.NewSLAAggregator(repo, testLogger).Aggregate(ctx, &company, september).Value

		assert.Equal(t, float64(50), s.Percentage)
		assert.Equal(t, domain.SLAOnTime, s.Status)
	})

	t.Run("below the minimum threshold is not eligible and on time", func(t *testing.T) {
		company := acme()
		company.MinimumIncidentThreshold = 5
		repo := memory.NewTicketRepository(
			ticket("i1", domain.TypeIncident, at(2025, 9, 2, 9, 0), withCause("Erro de Sistema"), breached(), solvedAt(at(2025, 9, 3, 9, 0))),
			ticket("i2", domain.TypeIncident, at(2025, 9, 4, 9, 0), solvedAt(at(2025, 9, 5, 9, 0))),
		)

		s := services.NewSLAAggregator(repo, testLogger).Aggregate(ctx, &company, september).Value

		assert.False(t, s.Eligible)
		assert.Equal(t, domain.SLAOnTime, s.Status)
		assert.Equal(t, 0, s.Counts.EligibleIncidents)
		assert.Equal(t, 1, s.Counts.NonEligibleBreaches)
		assert.Equal(t, float64(100), s.Percentage, "non-eligible breaches are not subtracted")
		assert.NotEmpty(t, s.NotEligibleMessage)
		assert.NotEmpty(t, s.NonEligibleBreachNotes)

		body, err := json.Marshal(s)
		require.NoError(t, err)
		assert.Contains(t, string(body), `"mensagemNaoElegivel"`)
	})

	t.Run("no closed incidents is fully compliant", func(t *testing.T) {
		company := acme()
		company.MinimumIncidentThreshold = 0
		repo := memory.NewTicketRepository(
			ticket("r1", domain.TypeRequest, at(2025, 9, 2, 9, 0), solvedAt(at(2025, 9, 3, 9, 0))),
		)

		s := services.NewSLAAggregator(repo, testLogger).Aggregate(ctx, &company, september).Value

		assert.Equal(t, float64(100), s.Percentage)
		assert.Equal(t, 0, s.Counts.Incidents)
		assert.True(t, s.Eligible)
		assert.Equal(t, domain.SLAOnTime, s.Status)
	})

	t.Run("breaches are keyed by open date across ticket types", func(t *testing.T) {
		company := acme()
		repo := memory.NewTicketRepository(
			ticket("i1", domain.TypeIncident, at(2025, 9, 2, 9, 0), withCause("Consultoria"), solvedAt(at(2025, 9, 3, 9, 0))),
			ticket("i2", domain.TypeIncident, at(2025, 9, 2, 9, 0), withCause("Consultoria"), solvedAt(at(2025, 9, 3, 9, 0))),
			// opened in August: not a September breach even though solved now
			ticket("b1", domain.TypeIncident, at(2025, 8, 30, 9, 0), withCause("Consultoria"), breached(), solvedAt(at(2025, 9, 1, 9, 0))),
			// a breached request opened this month still counts
			ticket("b2", domain.TypeRequest, at(2025, 9, 8, 9, 0), withCause("Consultoria"), breached()),
		)

		s := services.NewSLAAggregator(repo, testLogger).Aggregate(ctx, &company, september).Value

		assert.Equal(t, 3, s.Counts.Incidents)
		assert.Equal(t, 1, s.Counts.Breaches)
		assert.Equal(t, float64(67), s.Percentage)
		require.Len(t, s.BreachedTickets, 1)
		assert.Equal(t, "b2", s.BreachedTickets[0].ID)
		assert.Equal(t, "Pendente", s.BreachedTickets[0].SolvedAt)
	})

	t.Run("falls back when the repository fails", func(t *testing.T) {
		company := acme()
		repo := memory.NewTicketRepository()
		repo.FailWith(errors.New("timeout"))

		res := services.NewSLAAggregator(repo, testLogger).Aggregate(ctx, &company, september)

		require.Error(t, res.Err)
		s := res.Value
		assert.True(t, s.IsFallback())
		assert.Equal(t, float64(0), s.Percentage)
		assert.Equal(t, domain.SLAOnTime, s.Status)
		assert.False(t, s.Eligible)
		assert.Len(t, s.History, services.SLAHistoryMonths)
		assert.NotNil(t, s.BreachedTickets)
	})
}

func TestBuildSLA(t *testing.T) {
	company := acme()

	t.Run("resolution code changes only eligibility counts", func(t *testing.T) {
		closed := []domain.TicketRecord{
			ticket("i1", domain.TypeIncident, at(2025, 9, 2, 9, 0), withCause("Consultoria"), breached(), solvedAt(at(2025, 9, 3, 9, 0))),
			ticket("i2", domain.TypeIncident, at(2025, 9, 2, 9, 0), withCause("Consultoria"), solvedAt(at(2025, 9, 3, 9, 0))),
		}
		breaches := closed[:1]

		before := services.BuildSLA(&company, september, closed, breaches)

		changed := make([]domain.TicketRecord, len(closed))
		copy(changed, closed)
		changed[1].ResolutionCode = strPtr("Correção de Defeito")
		after := services.BuildSLA(&company, september, changed, changed[:1])

		assert.Equal(t, before.Counts.Incidents, after.Counts.Incidents)
		assert.Equal(t, before.Counts.Breaches, after.Counts.Breaches)
		assert.Equal(t, 2, before.Counts.EligibleIncidents)
		assert.Equal(t, 1, after.Counts.EligibleIncidents)
	})

	t.Run("percentage never drops below zero", func(t *testing.T) {
		closed := []domain.TicketRecord{
			ticket("i1", domain.TypeIncident, at(2025, 9, 2, 9, 0), withCause("Consultoria"), breached(), solvedAt(at(2025, 9, 3, 9, 0))),
		}
		breaches := []domain.TicketRecord{
			closed[0],
			ticket("r1", domain.TypeRequest, at(2025, 9, 4, 9, 0), withCause("Consultoria"), breached()),
			ticket("r2", domain.TypeRequest, at(2025, 9, 5, 9, 0), withCause("Consultoria"), breached()),
		}

		s := services.BuildSLA(&company, september, closed, breaches)

		assert.Equal(t, float64(0), s.Percentage)
	})

	t.Run("breach sample is capped and ordered by open date", func(t *testing.T) {
		breaches := make([]domain.TicketRecord, 0, 12)
		for i := 12; i >= 1; i-- {
			breaches = append(breaches, ticket(fmt.Sprintf("b%02d", i), domain.TypeIncident, at(2025, 9, i, 9, 0), breached()))
		}

		s := services.BuildSLA(&company, september, nil, breaches)

		require.Len(t, s.BreachedTickets, services.MaxBreachedSample)
		assert.Equal(t, "b01", s.BreachedTickets[0].ID)
		assert.Equal(t, "b10", s.BreachedTickets[9].ID)
	})
}
