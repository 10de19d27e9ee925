package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/service-desk-books/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-books/internal/core/errors"
)

func createTestCompany(t *testing.T, ctx context.Context, active bool) *domain.Company {
	t.Helper()
	orgID := uuid.New()
	c := &domain.Company{
		ID:                       uuid.New(),
		Name:                     "Company " + uuid.NewString()[:8],
		OrganizationID:           &orgID,
		SLATargetPercent:         92.5,
		MinimumIncidentThreshold: 3,
		ContractType:             "AMS",
		BaselineHours:            120,
		IsActive:                 active,
	}
	require.NoError(t, NewCompanyRepository(testPool).Upsert(ctx, c))
	return c
}

func TestCompanyRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCompanyRepository(testPool)

	t.Run("get by id", func(t *testing.T) {
		created := createTestCompany(t, ctx, true)

		found, err := repo.GetByID(ctx, created.ID)

		require.NoError(t, err)
		assert.Equal(t, created, found)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New())

		assert.ErrorIs(t, err, apperrors.ErrCompanyNotFound)
	})

	t.Run("list active skips inactive companies", func(t *testing.T) {
		active := createTestCompany(t, ctx, true)
		inactive := createTestCompany(t, ctx, false)

		list, err := repo.ListActive(ctx)
		require.NoError(t, err)

		ids := make([]uuid.UUID, 0, len(list))
		for _, c := range list {
			ids = append(ids, c.ID)
		}
		assert.Contains(t, ids, active.ID)
		assert.NotContains(t, ids, inactive.ID)
	})
}

func TestHourRecordRepository_Query(t *testing.T) {
	ctx := context.Background()
	company := createTestCompany(t, ctx, true)
	repo := NewHourRecordRepository(testPool)
	prefix := company.ID.String()[:8] + "-"

	records := []domain.HourRecord{
		{ID: prefix + "dec", CompanyID: company.ID, Period: domain.PeriodWindow{Month: 12, Year: 2024}, HoursTotal: domain.HourValue{Raw: "3"}, BillingType: "Incidente"},
		{ID: prefix + "apr", CompanyID: company.ID, Period: domain.PeriodWindow{Month: 4, Year: 2025}, HoursTotal: domain.HourValue{Raw: "01:15"}, BillingType: "Incidente"},
		{ID: prefix + "sep", CompanyID: company.ID, Period: domain.PeriodWindow{Month: 9, Year: 2025}, HoursTotal: domain.HourValue{Raw: "7,5"}, BillingType: "Melhoria"},
		{ID: prefix + "oct", CompanyID: company.ID, Period: domain.PeriodWindow{Month: 10, Year: 2025}, HoursTotal: domain.HourValue{Raw: "2"}},
	}
	require.NoError(t, repo.Insert(ctx, records))

	got, err := repo.Query(ctx, company.ID, domain.PeriodWindow{Month: 4, Year: 2025}, domain.PeriodWindow{Month: 9, Year: 2025})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, records[1], got[0])
	assert.Equal(t, records[2], got[1])

	got, err = repo.Query(ctx, company.ID, domain.PeriodWindow{Month: 11, Year: 2024}, domain.PeriodWindow{Month: 1, Year: 2025})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, prefix+"dec", got[0].ID)
}

func TestSnapshotRepository(t *testing.T) {
	ctx := context.Background()
	company := createTestCompany(t, ctx, true)
	repo := NewSnapshotRepository(testPool)
	september := domain.PeriodWindow{Month: 9, Year: 2025}
	variance := -2.5

	older := &domain.BookMetricsSnapshot{
		ID:          uuid.New(),
		CompanyID:   company.ID,
		Period:      september,
		GeneratedAt: time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC),
		SLA: domain.SLASnapshot{
			SectionMeta: domain.SectionMeta{DataSource: domain.DataSourceLive},
			Percentage:  90,
			Status:      domain.SLABreached,
			Variance:    &variance,
		},
	}
	newer := &domain.BookMetricsSnapshot{
		ID:          uuid.New(),
		CompanyID:   company.ID,
		Period:      september,
		GeneratedAt: time.Date(2025, 10, 2, 8, 0, 0, 0, time.UTC),
		Cover:       domain.CoverSummary{CompanyName: company.Name, FallbackSections: []string{"sla"}},
	}

	t.Run("latest before any save", func(t *testing.T) {
		_, err := repo.Latest(ctx, company.ID, september)
		assert.ErrorIs(t, err, apperrors.ErrSnapshotNotFound)
	})

	require.NoError(t, repo.Save(ctx, older))
	require.NoError(t, repo.Save(ctx, newer))

	t.Run("latest returns the newest generation", func(t *testing.T) {
		got, err := repo.Latest(ctx, company.ID, september)
		require.NoError(t, err)

		assert.Equal(t, newer.ID, got.ID)
		assert.True(t, got.IsPartial())
	})

	t.Run("payload round trips", func(t *testing.T) {
		got, err := repo.ListByPeriod(ctx, september)
		require.NoError(t, err)

		var mine *domain.BookMetricsSnapshot
		for _, s := range got {
			if s.CompanyID == company.ID {
				require.Nil(t, mine, "one snapshot per company")
				mine = s
			}
		}
		require.NotNil(t, mine)
		assert.Equal(t, newer.ID, mine.ID)
	})

	t.Run("saving never overwrites", func(t *testing.T) {
		var count int
		err := testPool.QueryRow(ctx, "SELECT COUNT(*) FROM book_snapshots WHERE company_id = $1", company.ID).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("older payload keeps its sections", func(t *testing.T) {
		var payload []byte
		err := testPool.QueryRow(ctx, "SELECT payload FROM book_snapshots WHERE id = $1", older.ID).Scan(&payload)
		require.NoError(t, err)

		got, err := decodeSnapshot(payload)
		require.NoError(t, err)
		assert.Equal(t, float64(90), got.SLA.Percentage)
		require.NotNil(t, got.SLA.Variance)
		assert.Equal(t, variance, *got.SLA.Variance)
		assert.Equal(t, older.GeneratedAt, got.GeneratedAt)
	})
}
