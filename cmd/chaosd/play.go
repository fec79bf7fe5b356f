package main

import (
	"context"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/greggjuri/chaos-dungeon/internal/config"
	"github.com/greggjuri/chaos-dungeon/internal/server"
)

type playOptions struct {
	name      string
	class     string
	sessionID string
}

// NewPlayCmd creates the play subcommand.
func NewPlayCmd(load func() (config.Config, error)) *cobra.Command {
	var opts playOptions
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play in the terminal",
		Long: `Start a new character (or resume one with --session) and read turns from
standard input. Type "status" for a summary and "quit" to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runPlay(cmd, cfg, opts)
		},
	}
	cmd.Flags().StringVar(&opts.name, "name", "Aria", "character name")
	cmd.Flags().StringVar(&opts.class, "class", "fighter", "character class (fighter, cleric, magic-user, thief, dwarf, elf, halfling)")
	cmd.Flags().StringVar(&opts.sessionID, "session", "", "resume an existing session instead of starting a new one")
	return cmd
}

func runPlay(cmd *cobra.Command, cfg config.Config, opts playOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	app, cleanup, err := initApp(ctx, cfg)
	if err != nil {
		return oops.Code("STARTUP_FAILED").Wrap(err)
	}
	defer cleanup()

	id := opts.sessionID
	if id == "" {
		sess, err := app.Turns.NewGame(ctx, opts.name, opts.class)
		if err != nil {
			return err
		}
		id = sess.ID
		cmd.Printf("Session %s\n", id)
	}

	lc := server.NewLifecycle(app.Logger)
	if app.MetricsServer != nil {
		lc.Add("metrics", server.NewMetricsService(app.MetricsServer, cfg.Narrator.Timeout))
	}
	lc.Add("console", server.NewConsole(cmd.InOrStdin(), cmd.OutOrStdout(), app.Turns, id, app.Logger))

	app.Logger.Info("play started",
		zap.String("session_id", id),
		zap.String("store", cfg.Store.Driver),
		zap.String("narrator", cfg.Narrator.Provider),
	)
	return lc.Run(ctx)
}
