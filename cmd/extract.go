package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/debatelens/factwatch/internal/extractor"
	"github.com/debatelens/factwatch/pkg/anthropic"
)

var (
	extractSpeaker   string
	extractFallacies bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <utterance>",
	Short: "Extract a check-worthy claim from one utterance",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var llm anthropic.Client
		if cfg.Anthropic.Key != "" {
			llm = anthropic.NewClient(cfg.Anthropic.Key)
		}
		ex := extractor.New(llm, extractor.Options{
			Model:     cfg.Anthropic.Model,
			MaxTokens: cfg.Anthropic.MaxTokens,
			Interval:  time.Duration(cfg.Extraction.IntervalSecs * float64(time.Second)),
		})

		text := strings.Join(args, " ")

		var (
			cand *extractor.Candidate
			err  error
		)
		if extractFallacies {
			cand, err = ex.AnalyzeWithContext(cmd.Context(), text, extractSpeaker, true)
		} else {
			cand, err = ex.Extract(cmd.Context(), text, extractSpeaker, "")
		}
		if err != nil {
			return err
		}
		if cand == nil {
			fmt.Println("no check-worthy claim found")
			return nil
		}

		out, err := json.MarshalIndent(cand, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractSpeaker, "speaker", "", "speaker name for attribution context")
	extractCmd.Flags().BoolVar(&extractFallacies, "fallacies", false, "also classify logical fallacies")
	rootCmd.AddCommand(extractCmd)
}
