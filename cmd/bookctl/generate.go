package main

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lorrc/service-desk-books/internal/adapters/secondary/postgres"
	"github.com/lorrc/service-desk-books/internal/core/ports"
	"github.com/lorrc/service-desk-books/internal/core/services"
)

type generateOptions struct {
	periodFlags
	companies []string
	workers   int
	timeout   time.Duration
	dryRun    bool
}

func newGenerateCmd(a *app) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Build book snapshots for one month",
		Long: `Build the metrics snapshot of every active company (or of the companies
given with --company) for one month, and store them.

A company whose snapshot fails is reported and does not stop the others.
Interrupting the command stops companies that have not started yet; they are
reported as skipped.

Examples:
  bookctl generate --month 9 --year 2025
  bookctl generate --month 9 --year 2025 --company 1b4e28ba-2fa1-11d2-883f-0016d3cca427 --workers 2
  bookctl generate --month 9 --year 2025 --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runGenerate(cmd, opts)
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringSliceVar(&opts.companies, "company", nil, "Company ID to generate (repeatable; default all active)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Concurrent companies (default BATCH_WORKERS)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Per-company timeout (default BATCH_COMPANY_TIMEOUT)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Build snapshots without storing them")
	return cmd
}

func (o *generateOptions) request() (ports.BatchRequest, error) {
	period, err := o.period()
	if err != nil {
		return ports.BatchRequest{}, err
	}
	ids := make([]uuid.UUID, 0, len(o.companies))
	for _, raw := range o.companies {
		id, err := uuid.Parse(raw)
		if err != nil {
			return ports.BatchRequest{}, fmt.Errorf("invalid --company %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	return ports.BatchRequest{
		CompanyIDs: ids,
		Month:      period.Month,
		Year:       period.Year,
		Persist:    !o.dryRun,
	}, nil
}

func (a *app) batchOptions(o *generateOptions) services.BatchOptions {
	opts := services.BatchOptions{
		Workers:        a.cfg.Batch.Workers,
		CompanyTimeout: a.cfg.Batch.CompanyTimeout,
		CacheTTL:       a.cfg.Redis.TTL,
	}
	if o.workers > 0 {
		opts.Workers = o.workers
	}
	if o.timeout > 0 {
		opts.CompanyTimeout = o.timeout
	}
	return opts
}

func (a *app) runGenerate(cmd *cobra.Command, o *generateOptions) error {
	req, err := o.request()
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

	cache, closeCache, err := a.openCache(ctx)
	if err != nil {
		return err
	}
	defer closeCache()

	companies := postgres.NewCompanyRepository(pool)
	assembler := services.NewSnapshotAssembler(
		companies,
		postgres.NewTicketRepository(pool),
		postgres.NewHourRecordRepository(pool),
		nowFunc,
		a.logger,
	)
	batch := services.NewBatchService(assembler, companies, postgres.NewSnapshotRepository(pool), cache, a.batchOptions(o), a.logger)

	result, err := batch.Generate(ctx, req)
	if err != nil {
		return err
	}

	printBatchSummary(cmd.OutOrStdout(), result, req.Persist)
	if len(result.Failures) > 0 {
		return fmt.Errorf("%d of %d companies failed", len(result.Failures), len(result.Snapshots)+len(result.Failures)+len(result.Skipped))
	}
	return nil
}

func printBatchSummary(w io.Writer, result *ports.BatchResult, persisted bool) {
	action := "generated"
	if !persisted {
		action = "built (dry run)"
	}
	fmt.Fprintf(w, "Books %s for %s in %s\n", action, result.Period.Label(), result.Duration.Round(time.Millisecond))

	for _, s := range result.Snapshots {
		status := "ok"
		if s.IsPartial() {
			status = fmt.Sprintf("partial (fallback: %v)", s.Cover.FallbackSections)
		}
		fmt.Fprintf(w, "  %s  %-30s  SLA %5.1f%% %-8s  %s\n",
			s.CompanyID, s.Cover.CompanyName, s.Cover.SLAPercentage, s.Cover.SLAStatus, status)
	}
	for _, f := range result.Failures {
		fmt.Fprintf(w, "  %s  FAILED: %v\n", f.CompanyID, f.Err)
	}
	for _, id := range result.Skipped {
		fmt.Fprintf(w, "  %s  skipped\n", id)
	}

	fmt.Fprintf(w, "%d %s, %d failed, %d skipped\n", len(result.Snapshots), action, len(result.Failures), len(result.Skipped))
}
