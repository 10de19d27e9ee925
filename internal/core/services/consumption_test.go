package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/service-desk-books/internal/adapters/secondary/memory"
	"github.com/lorrc/service-desk-books/internal/core/domain"
	"github.com/lorrc/service-desk-books/internal/core/mocks"
	"github.com/lorrc/service-desk-books/internal/core/services"
)

func hourRecord(id string, companyID uuid.UUID, period domain.PeriodWindow, raw, billing string) domain.HourRecord {
	return domain.HourRecord{
		ID:          id,
		CompanyID:   companyID,
		Period:      period,
		HoursTotal:  domain.HourValue{Raw: raw},
		BillingType: billing,
	}
}

func TestConsumptionAggregator_Aggregate(t *testing.T) {
	ctx := context.Background()
	company := acme()
	august := domain.PeriodWindow{Month: 8, Year: 2025}

	t.Run("sums hours and splits by billing type", func(t *testing.T) {
		repo := memory.NewHourRecordRepository(
			hourRecord("h1", acmeID, september, "10:30", "Incidente"),
			hourRecord("h2", acmeID, september, "4,5", "Solicitação"),
			hourRecord("h3", acmeID, september, "abc", ""),
			hourRecord("h4", acmeID, august, "8", "Incidente"),
			hourRecord("h5", uuid.New(), september, "99", "Incidente"),
		)
		agg := services.NewConsumptionAggregator(repo, testLogger)

		res := agg.Aggregate(ctx, &company, september)

		require.NoError(t, res.Err)
		c := res.Value
		assert.Equal(t, domain.DataSourceLive, c.DataSource)
		assert.Equal(t, 15.0, c.TotalHours)
		assert.Equal(t, 10.5, c.IncidentHours)
		assert.Equal(t, 4.5, c.OtherHours)
		assert.Equal(t, 100.0, c.BaselineHours)
		assert.Equal(t, 15.0, c.BaselinePercentage)
		assert.Equal(t, 1, c.MalformedRecords)

		require.Len(t, c.Causes, 3)
		assert.Equal(t, domain.HoursByCause{Cause: "Incidente", Hours: 10.5, Percentage: 70}, c.Causes[0])
		assert.Equal(t, domain.HoursByCause{Cause: "Solicitação", Hours: 4.5, Percentage: 30}, c.Causes[1])
		assert.Equal(t, domain.HoursByCause{Cause: domain.NoBillingTypeLabel, Hours: 0, Percentage: 0}, c.Causes[2])

		require.Len(t, c.History, services.ConsumptionMonths)
		assert.Equal(t, "04/2025", c.History[0].Label)
		assert.Equal(t, 8.0, c.History[4].Hours)
		assert.Equal(t, 15.0, c.History[5].Hours)
	})

	t.Run("zero baseline yields zero percentage", func(t *testing.T) {
		company := acme()
		company.BaselineHours = 0
		repo := memory.NewHourRecordRepository(hourRecord("h1", acmeID, september, "2:00", "Incidente"))

		c := services.NewConsumptionAggregator(repo, testLogger).Aggregate(ctx, &company, september).Value

		assert.Equal(t, 2.0, c.TotalHours)
		assert.Equal(t, 0.0, c.BaselinePercentage)
	})

	t.Run("falls back when the repository fails", func(t *testing.T) {
		repo := memory.NewHourRecordRepository()
		repo.FailWith(errors.New("permission denied"))

		res := services.NewConsumptionAggregator(repo, testLogger).Aggregate(ctx, &company, september)

		require.Error(t, res.Err)
		c := res.Value
		assert.True(t, c.IsFallback())
		assert.Equal(t, 0.0, c.TotalHours)
		assert.Len(t, c.History, services.ConsumptionMonths)
		assert.NotNil(t, c.Causes)
	})

	t.Run("non-finite hour values count as malformed", func(t *testing.T) {
		repo := memory.NewHourRecordRepository(
			hourRecord("h1", acmeID, september, "NaN", "Incidente"),
			hourRecord("h2", acmeID, september, "Inf", "Incidente"),
			hourRecord("h3", acmeID, september, "2", "Incidente"),
		)

		res := services.NewConsumptionAggregator(repo, testLogger).Aggregate(ctx, &company, september)

		require.NoError(t, res.Err)
		assert.Equal(t, 2.0, res.Value.TotalHours)
		assert.Equal(t, 2, res.Value.MalformedRecords)

		_, err := json.Marshal(res.Value)
		assert.NoError(t, err)
	})

	t.Run("reads the whole history window in one query", func(t *testing.T) {
		repo := mocks.NewMockHourRecordRepository()
		repo.On("Query", ctx, acmeID, domain.PeriodWindow{Month: 4, Year: 2025}, september).
			Return([]domain.HourRecord{hourRecord("h1", acmeID, september, "1:30", "Incidente")}, nil).Once()

		res := services.NewConsumptionAggregator(repo, testLogger).Aggregate(ctx, &company, september)

		require.NoError(t, res.Err)
		assert.Equal(t, 1.5, res.Value.TotalHours)
		repo.AssertExpectations(t)
	})
}
