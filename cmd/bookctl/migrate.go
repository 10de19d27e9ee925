package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lorrc/service-desk-books/internal/adapters/secondary/postgres"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the database schema",
		Long: `Run the schema migrations embedded in the binary.

Subcommands:
  up        - migrate to the latest version
  down      - roll every migration back
  to <n>    - migrate to version n`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Migrate to the latest version",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				return postgres.Migrate(a.cfg.Database.URL, -1, a.logger)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll every migration back",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				return postgres.Migrate(a.cfg.Database.URL, 0, a.logger)
			},
		},
		&cobra.Command{
			Use:   "to <version>",
			Short: "Migrate to a specific version",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				version, err := parseVersion(args[0])
				if err != nil {
					return err
				}
				return postgres.Migrate(a.cfg.Database.URL, version, a.logger)
			},
		},
	)
	return cmd
}

func parseVersion(raw string) (int, error) {
	version, err := strconv.Atoi(raw)
	if err != nil || version < 1 {
		return 0, fmt.Errorf("version must be a positive integer, got %q", raw)
	}
	return version, nil
}
