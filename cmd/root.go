package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/collectorvault/appraise/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "appraise",
	Short: "Collectible valuation engine",
	Long:  "Values collectibles by fanning out to pricing sources (catalog lookups, sold listings, market APIs), merging the quotes by weight, and caching the result.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
