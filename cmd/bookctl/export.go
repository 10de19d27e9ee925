package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lorrc/service-desk-books/internal/adapters/secondary/parquet"
	"github.com/lorrc/service-desk-books/internal/adapters/secondary/postgres"
)

type exportOptions struct {
	periodFlags
	output string
}

func newExportCmd(a *app) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the latest snapshots of a month to a Parquet file",
		Long: `Write one row per company with the cover summary of its newest
snapshot for the month.

Examples:
  bookctl export --month 9 --year 2025 --output books-2025-09.parquet`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runExport(cmd, opts)
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Parquet file to write")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func (a *app) runExport(cmd *cobra.Command, o *exportOptions) error {
	period, err := o.period()
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	pool, err := a.openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	snapshots, err := postgres.NewSnapshotRepository(pool).ListByPeriod(ctx, period)
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		return fmt.Errorf("no snapshots stored for %s", period.Label())
	}

	if err := parquet.WriteSnapshotsFile(o.output, snapshots); err != nil {
		return err
	}

	a.logger.InfoContext(ctx, "snapshots exported", "period", period.Key(), "rows", len(snapshots), "output", o.output)
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d snapshots for %s to %s\n", len(snapshots), period.Label(), o.output)
	return nil
}
