package main

import (
	"github.com/spf13/cobra"

	"github.com/greggjuri/chaos-dungeon/internal/config"
)

// NewRootCmd creates the root command for the chaosd CLI.
func NewRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "chaosd",
		Short: "Chaos Dungeon - a server-authoritative narrative RPG",
		Long: `Chaos Dungeon pairs a language-model narrator with a deterministic rules
engine. The engine rolls every die and owns every coin; the narrator only
tells the story.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (defaults plus CHAOS_* environment when empty)")

	load := func() (config.Config, error) { return config.Load(configFile) }

	cmd.AddCommand(NewPlayCmd(load))
	cmd.AddCommand(NewMigrateCmd(load))
	cmd.AddCommand(NewSchemaCmd())
	return cmd
}
