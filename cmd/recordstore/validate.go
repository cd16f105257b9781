package main

import (
	"fmt"

	"github.com/jpalmerr/recordstore/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a scenario file without running it.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a scenario file",
	Long: `Validate a recordstore scenario file without running it.

This command parses the YAML, expands environment variables, and checks
every step against the record's fields and the live listener labels.

Exit codes:
  0 - Scenario is valid
  1 - Scenario is invalid (error details printed to stderr)

Example:
  recordstore validate -f person.yaml
  recordstore validate --file scenarios/person.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("file", "f", "", "path to scenario file (required)")
	_ = validateCmd.MarkFlagRequired("file")
}

func runValidate(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	sc, err := config.Load(file)
	if err != nil {
		return fmt.Errorf("invalid scenario: %w", err)
	}

	counts := make(map[string]int)
	for _, st := range sc.Steps {
		counts[st.Action()]++
	}

	name := sc.Name
	if name == "" {
		name = "(unnamed)"
	}

	fmt.Printf("Scenario is valid!\n")
	fmt.Printf("  Name:   %s\n", name)
	fmt.Printf("  IDs:    %s\n", sc.IDs)
	fmt.Printf("  Fields: %d\n", len(sc.Record))
	fmt.Printf("  Steps:  %d (%d set, %d listen, %d unlisten, %d get)\n",
		len(sc.Steps), counts["set"], counts["listen"], counts["unlisten"], counts["get"])

	return nil
}
