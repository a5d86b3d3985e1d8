package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/debatelens/factwatch/pkg/factiverse"
)

var detectCmd = &cobra.Command{
	Use:   "detect <text>",
	Short: "Run Factiverse claim detection over free text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Factiverse.Key == "" {
			return eris.New("factiverse key not set")
		}
		checker := factiverse.NewClient(cfg.Factiverse.Key,
			factiverse.WithBaseURL(cfg.Factiverse.BaseURL),
			factiverse.WithRateLimit(cfg.Factiverse.RequestsPerSecond),
			factiverse.WithDetectTimeout(time.Duration(cfg.Factiverse.DetectTimeoutSecs)*time.Second),
		)

		claims, err := checker.DetectClaims(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if len(claims) == 0 {
			fmt.Println("no check-worthy claims detected")
			return nil
		}

		out, err := json.MarshalIndent(claims, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
