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
	shopToken string
	shopPlan  string
)

func init() {
	shopPutCmd.Flags().StringVar(&shopToken, "token", "", "Shopify Admin API access token")
	shopPutCmd.Flags().StringVar(&shopPlan, "plan", "free", "Plan tier: free, starter, pro, enterprise")

	shopCmd.AddCommand(shopPutCmd)
	rootCmd.AddCommand(shopCmd)
}

var shopCmd = &cobra.Command{
	Use:   "shop",
	Short: "Manage registered shops",
}

var shopPutCmd = &cobra.Command{
	Use:   "put <domain>",
	Short: "Register a shop or update its token and plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := app.New(cmd.Context(), cfg, log, app.Options{NoOutbox: true})
		if err != nil {
			return err
		}
		defer application.Close(context.Background())

		info, err := application.ShopUC.PutShop(cmd.Context(), usecase.NewPutShopReq(args[0], shopToken, shopPlan))
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"domain":    info.Domain,
			"plan":      info.Plan,
			"has_token": info.HasToken,
		})
	},
}
