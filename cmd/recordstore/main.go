// Package main is the entry point for the recordstore CLI.
//
// The recordstore package is a library; this CLI adds tooling around it:
// replaying YAML scenarios against a store and generating typed accessors
// for record structs.
//
// Usage:
//
//	recordstore run -f scenario.yaml          # Replay a scenario, events to stdout
//	recordstore validate -f scenario.yaml     # Validate a scenario file
//	recordstore gen -f person.go -t Person    # Generate typed accessors
//	recordstore version                       # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "recordstore",
	Short: "Tooling for reactive record stores",
	Long: `recordstore holds a fixed-shape record and notifies per-field
listeners when values change.

This CLI replays scenario files against a store, printing every listener
call as a JSON line, and generates typed accessors for record structs.

Quick start:
  1. Create a scenario file (person.yaml)
  2. Run: recordstore run -f person.yaml

Example scenario:
  name: person
  record:
    name: John
    age: 23
  steps:
    - listen: [name, age]
      as: view
    - set: {name: Joe}`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this recordstore binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("recordstore %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
