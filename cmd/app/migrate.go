package main

import (
	"github.com/DRSN-tech/cartwhisper/internal/app"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations for the configured storage driver",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return app.Migrate(cmd.Context(), cfg, log)
	},
}
