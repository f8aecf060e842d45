// Package main — точка входа CartWhisper.
//
//	@title						CartWhisper API
//	@version					1.0
//	@description				Рекомендации сопутствующих товаров для магазинов Shopify
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	SessionToken
//	@in							header
//	@name						Authorization
package main

import (
	"os"

	config "github.com/DRSN-tech/cartwhisper/internal/cfg"
	"github.com/DRSN-tech/cartwhisper/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfg *config.Config
	log logger.Logger

	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "cartwhisper",
	Short: "Product similarity and recommendation backend for Shopify stores",
	Long: `cartwhisper syncs a store catalog, ranks products by embedding similarity,
filters candidates by price and category, optionally explains them with an LLM
and serves the stored recommendations over HTTP and gRPC.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file; missing file is ignored")
}

func main() {
	err := rootCmd.Execute()
	if log != nil {
		if err != nil {
			log.Errorf(err, "command failed")
		}
		log.Sync()
	}
	if err != nil {
		if log == nil {
			os.Stderr.WriteString(err.Error() + "\n")
		}
		os.Exit(1)
	}
}

// setup загружает .env, логгер и конфигурацию до запуска любой команды.
func setup(_ *cobra.Command, _ []string) error {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	logCfg := config.LoadLogCfg()
	zl, err := logger.NewZapLogger(logCfg.Mode, logCfg.Level)
	if err != nil {
		return err
	}
	log = zl

	cfg, err = config.Load(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		return err
	}

	return nil
}
