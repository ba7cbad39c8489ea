package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nadlan-labs/shuma-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "shuma-cli",
	Short: "Extraction and aggregation pipeline for land appraisal decisions",
	Long:  "Scrapes the decisive appraiser, appeals and expropriation compensation archives, parses Hebrew decision titles, extracts numeric values from decision documents and aggregates them.",
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
