package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/debatelens/factwatch/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "factwatch",
	Short: "Live debate fact-checking backend",
	Long:  "Extracts check-worthy claims from live transcript segments via Claude, verifies them against Factiverse stance detection, and serves session state over a JSON API.",
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
