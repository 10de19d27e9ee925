package parquet

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/service-desk-books/internal/core/domain"
)

func sampleSnapshots() []*domain.BookMetricsSnapshot {
	variance := 4.5
	generated := time.Date(2025, 10, 3, 14, 0, 0, 0, time.UTC)
	return []*domain.BookMetricsSnapshot{
		{
			ID:          uuid.New(),
			CompanyID:   uuid.New(),
			Period:      domain.PeriodWindow{Month: 9, Year: 2025},
			GeneratedAt: generated,
			Cover:       domain.CoverSummary{CompanyName: "ACME", FallbackSections: []string{}},
			Volumetry:   domain.VolumetrySnapshot{Opened: domain.TypeSplit{Total: 13}, Closed: domain.TypeSplit{Total: 17}, ResolutionRate: 85},
			SLA:         domain.SLASnapshot{Percentage: 96, Status: domain.SLAOnTime, Eligible: true, Variance: &variance},
			Backlog:     domain.BacklogSnapshot{Total: 4},
			Consumption: domain.ConsumptionSnapshot{TotalHours: 42.25, BaselinePercentage: 42.3},
		},
		{
			ID:          uuid.New(),
			CompanyID:   uuid.New(),
			Period:      domain.PeriodWindow{Month: 9, Year: 2025},
			GeneratedAt: generated,
			Cover:       domain.CoverSummary{CompanyName: "Globex", FallbackSections: []string{"volumetry", "sla"}},
			SLA:         domain.SLASnapshot{Status: domain.SLAOnTime},
		},
	}
}

func TestToRows(t *testing.T) {
	snapshots := sampleSnapshots()

	rows := ToRows(snapshots)

	require.Len(t, rows, 2)
	assert.Equal(t, "ACME", rows[0].CompanyName)
	assert.Equal(t, "2025-09", rows[0].Period)
	assert.Equal(t, int32(13), rows[0].OpenedTickets)
	assert.Equal(t, int32(17), rows[0].ClosedTickets)
	assert.Equal(t, "OnTime", rows[0].SLAStatus)
	require.NotNil(t, rows[0].SLAVariance)
	assert.Equal(t, 4.5, *rows[0].SLAVariance)
	assert.Equal(t, "", rows[0].FallbackSections)
	assert.Nil(t, rows[1].SLAVariance)
	assert.Equal(t, "volumetry,sla", rows[1].FallbackSections)
}

func TestWriteSnapshots(t *testing.T) {
	snapshots := sampleSnapshots()
	var buf bytes.Buffer

	require.NoError(t, WriteSnapshots(&buf, snapshots))

	reader := parquet.NewGenericReader[SnapshotRow](bytes.NewReader(buf.Bytes()))
	defer reader.Close()

	require.Equal(t, int64(2), reader.NumRows())
	rows := make([]SnapshotRow, reader.NumRows())
	n, _ := reader.Read(rows)
	require.Equal(t, 2, n)

	want := ToRows(snapshots)
	for i := range want {
		assert.Equal(t, want[i].SnapshotID, rows[i].SnapshotID)
		assert.Equal(t, want[i].TotalHours, rows[i].TotalHours)
		assert.Equal(t, want[i].SLAEligible, rows[i].SLAEligible)
		assert.WithinDuration(t, want[i].GeneratedAt, rows[i].GeneratedAt, time.Microsecond)
	}
}

func TestWriteSnapshotsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.parquet")

	require.NoError(t, WriteSnapshotsFile(path, sampleSnapshots()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	rows, err := parquet.ReadFile[SnapshotRow](path)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
