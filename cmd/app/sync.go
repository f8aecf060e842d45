package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/DRSN-tech/cartwhisper/internal/app"
	"github.com/DRSN-tech/cartwhisper/internal/usecase"
	"github.com/spf13/cobra"
)

var (
	syncShop    string
	syncCatalog string
)

func init() {
	syncCmd.Flags().StringVar(&syncShop, "shop", "", "Shop domain, e.g. example.myshopify.com")
	syncCmd.Flags().StringVar(&syncCatalog, "catalog", "", "Read the catalog from a JSON/YAML file instead of the Shopify Admin API")
	_ = syncCmd.MarkFlagRequired("shop")
	rootCmd.AddCommand(syncCmd)
}

type syncOutput struct {
	Success             bool           `json:"success"`
	Message             string         `json:"message"`
	RunID               string         `json:"run_id"`
	Plan                string         `json:"plan"`
	Stats               map[string]int `json:"stats"`
	RecommendationError string         `json:"recommendation_error,omitempty"`
	Snapshot            string         `json:"snapshot,omitempty"`
	DurationMs          int64          `json:"duration_ms"`
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one recommendation sync for a shop and print the result as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		application, err := app.New(cmd.Context(), cfg, log, app.Options{CatalogFile: syncCatalog, NoOutbox: true})
		if err != nil {
			return err
		}
		defer application.Close(context.Background())

		res, err := application.SyncUC.Sync(cmd.Context(), usecase.NewSyncReq(syncShop))
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(syncOutput{
			Success:             res.Success,
			Message:             res.Message,
			RunID:               res.RunID,
			Plan:                res.Plan,
			Stats:               res.Stats.Map(),
			RecommendationError: res.RecommendationError,
			Snapshot:            res.SnapshotKey,
			DurationMs:          res.Duration.Milliseconds(),
		})
	},
}
