package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/lorrc/service-desk-books/internal/adapters/secondary/redis"
	"github.com/lorrc/service-desk-books/internal/config"
	"github.com/lorrc/service-desk-books/internal/core/domain"
	"github.com/lorrc/service-desk-books/internal/core/ports"
	"github.com/lorrc/service-desk-books/internal/infrastructure/logging"
)

var nowFunc = time.Now

// app holds what every subcommand shares once the root has loaded it.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	logLevel string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "bookctl",
		Short: "Service book snapshot tooling",
		Long: `Generate, export and migrate service book snapshots.

Configuration is read from the environment (and a local .env file), the same
way the API reads it. DATABASE_URL is required.

Examples:
  # Generate September 2025 for every active company
  bookctl generate --month 9 --year 2025

  # Export the generated snapshots
  bookctl export --month 9 --year 2025 --output books-2025-09.parquet`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadCLI()
			if err != nil {
				return err
			}
			level := cfg.Logging.Level
			if a.logLevel != "" {
				if _, err := logging.ParseLevel(a.logLevel); err != nil {
					return fmt.Errorf("--log-level: %w", err)
				}
				level = a.logLevel
			}
			a.cfg = cfg
			a.logger = logging.NewLogger(logging.Config{
				Level:       level,
				Format:      cfg.Logging.Format,
				Output:      cmd.ErrOrStderr(),
				ServiceName: "bookctl",
				Environment: cfg.App.Environment,
			})
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")

	root.AddCommand(
		newGenerateCmd(a),
		newExportCmd(a),
		newMigrateCmd(a),
	)
	return root
}

// openPool connects to the configured database.
func (a *app) openPool(ctx context.Context) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(a.cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(a.cfg.Database.MaxOpenConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// openCache returns the snapshot cache when redis is enabled. The returned
// cache is a nil interface otherwise.
func (a *app) openCache(ctx context.Context) (ports.SnapshotCache, func(), error) {
	if !a.cfg.Redis.Enabled {
		return nil, func() {}, nil
	}
	cache, err := redis.NewSnapshotCache(ctx, redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	if err != nil {
		return nil, nil, err
	}
	return cache, func() { _ = cache.Close() }, nil
}

// periodFlags binds --month and --year, defaulting to the previous month.
type periodFlags struct {
	month int
	year  int
}

func (p *periodFlags) bind(cmd *cobra.Command) {
	last := domain.PeriodOf(nowFunc()).Back(1)
	cmd.Flags().IntVar(&p.month, "month", last.Month, "Month of the book (1-12)")
	cmd.Flags().IntVar(&p.year, "year", last.Year, "Year of the book")
}

func (p *periodFlags) period() (domain.PeriodWindow, error) {
	return domain.NewPeriodWindow(p.month, p.year)
}

// signalContext cancels on interrupt so a batch reports what it skipped.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}
