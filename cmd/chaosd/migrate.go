package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/greggjuri/chaos-dungeon/internal/config"
	"github.com/greggjuri/chaos-dungeon/internal/storage/postgres"
)

type migrateOptions struct {
	down    bool
	steps   int
	version bool
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd(load func() (config.Config, error)) *cobra.Command {
	var opts migrateOptions
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run PostgreSQL schema migrations",
		Long: `Apply the embedded schema migrations to the PostgreSQL database named in
the database section. Requires store.driver=postgres.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runMigrate(cmd, cfg, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.down, "down", false, "roll back every migration")
	cmd.Flags().IntVar(&opts.steps, "steps", 0, "apply N migrations (negative rolls back)")
	cmd.Flags().BoolVar(&opts.version, "version", false, "print the current schema version and exit")
	return cmd
}

func runMigrate(cmd *cobra.Command, cfg config.Config, opts migrateOptions) error {
	if cfg.Store.Driver != "postgres" {
		return oops.Code("CONFIG_INVALID").
			With("driver", cfg.Store.Driver).
			Errorf("migrate requires store.driver=postgres")
	}

	m, err := postgres.NewMigrator(cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	switch {
	case opts.version:
	case opts.down:
		cmd.Println("Rolling back all migrations...")
		err = m.Down()
	case opts.steps != 0:
		cmd.Printf("Applying %d migration step(s)...\n", opts.steps)
		err = m.Steps(opts.steps)
	default:
		cmd.Println("Running migrations...")
		err = m.Up()
	}
	if err != nil {
		return err
	}

	v, dirty, err := m.Version()
	if err != nil {
		return err
	}
	cmd.Printf("Schema version %d (dirty: %t)\n", v, dirty)
	return nil
}
