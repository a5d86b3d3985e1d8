package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var factcheckCmd = &cobra.Command{
	Use:   "factcheck <claim text>",
	Short: "Fact-check a single claim and print the verdict",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, orch := buildPipeline()

		claim := strings.Join(args, " ")
		result := orch.FactCheckClaim(cmd.Context(), claim)

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(factcheckCmd)
}
