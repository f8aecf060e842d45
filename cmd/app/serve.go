package main

import (
	"github.com/DRSN-tech/cartwhisper/internal/app"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run HTTP and gRPC servers and the outbox relay",
	RunE: func(cmd *cobra.Command, _ []string) error {
		application, err := app.New(cmd.Context(), cfg, log, app.Options{})
		if err != nil {
			log.Errorf(err, "failed to initialize app")
			return err
		}

		return application.Serve(cmd.Context())
	},
}
