// Package parquet exports book snapshots to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/lorrc/service-desk-books/internal/core/domain"
)

// SnapshotRow is one snapshot flattened to its headline metrics.
type SnapshotRow struct {
	SnapshotID  string    `parquet:"snapshot_id,snappy"`
	CompanyID   string    `parquet:"company_id,snappy"`
	CompanyName string    `parquet:"company_name,snappy"`
	Period      string    `parquet:"period,snappy"`
	GeneratedAt time.Time `parquet:"generated_at,snappy"`

	OpenedTickets  int32   `parquet:"opened_tickets,snappy"`
	ClosedTickets  int32   `parquet:"closed_tickets,snappy"`
	ResolutionRate float64 `parquet:"resolution_rate,snappy"`

	SLAPercentage float64  `parquet:"sla_percentage,snappy"`
	SLAStatus     string   `parquet:"sla_status,snappy"`
	SLAEligible   bool     `parquet:"sla_eligible,snappy"`
	SLAVariance   *float64 `parquet:"sla_variance,optional,snappy"`

	BacklogTickets int32 `parquet:"backlog_tickets,snappy"`

	TotalHours         float64 `parquet:"total_hours,snappy"`
	BaselinePercentage float64 `parquet:"baseline_percentage,snappy"`

	// FallbackSections is a comma separated list, empty when every section is live.
	FallbackSections string `parquet:"fallback_sections,snappy"`
}

// ToRows flattens snapshots in the order given.
func ToRows(snapshots []*domain.BookMetricsSnapshot) []SnapshotRow {
	rows := make([]SnapshotRow, 0, len(snapshots))
	for _, s := range snapshots {
		rows = append(rows, SnapshotRow{
			SnapshotID:         s.ID.String(),
			CompanyID:          s.CompanyID.String(),
			CompanyName:        s.Cover.CompanyName,
			Period:             s.Period.Key(),
			GeneratedAt:        s.GeneratedAt,
			OpenedTickets:      int32(s.Volumetry.Opened.Total),
			ClosedTickets:      int32(s.Volumetry.Closed.Total),
			ResolutionRate:     s.Volumetry.ResolutionRate,
			SLAPercentage:      s.SLA.Percentage,
			SLAStatus:          string(s.SLA.Status),
			SLAEligible:        s.SLA.Eligible,
			SLAVariance:        s.SLA.Variance,
			BacklogTickets:     int32(s.Backlog.Total),
			TotalHours:         s.Consumption.TotalHours,
			BaselinePercentage: s.Consumption.BaselinePercentage,
			FallbackSections:   strings.Join(s.Cover.FallbackSections, ","),
		})
	}
	return rows
}

// WriteSnapshots writes the snapshots to w as one Parquet file.
func WriteSnapshots(w io.Writer, snapshots []*domain.BookMetricsSnapshot) error {
	writer := parquet.NewGenericWriter[SnapshotRow](w)

	if _, err := writer.Write(ToRows(snapshots)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write snapshot rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return nil
}

// WriteSnapshotsFile writes the snapshots to a new file at path.
func WriteSnapshotsFile(path string, snapshots []*domain.BookMetricsSnapshot) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if err := WriteSnapshots(file, snapshots); err != nil {
		return err
	}
	return file.Sync()
}
