package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jpalmerr/recordstore/internal/codegen"
	"github.com/spf13/cobra"
)

// genCmd writes typed accessors for a record struct.
var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate typed accessors for a record struct",
	Long: `Generate typed accessors for a record struct.

The generated file declares one field handle per exported field, a
<Type>Store wrapper embedding *recordstore.Store[<Type>], a constructor,
and a getter and setter per field. Field names follow the struct's
store tags.

By default the output is written next to the input file as
<lowercase type>_store_gen.go.

Example:
  recordstore gen -f person.go -t Person
  recordstore gen -f person.go -t Person -o person_accessors.go`,
	RunE: runGen,
}

func init() {
	rootCmd.AddCommand(genCmd)

	genCmd.Flags().StringP("file", "f", "", "path to the Go file declaring the type (required)")
	genCmd.Flags().StringP("type", "t", "", "name of the struct type (required)")
	genCmd.Flags().StringP("output", "o", "", "output file (default <lowercase type>_store_gen.go next to the input)")
	_ = genCmd.MarkFlagRequired("file")
	_ = genCmd.MarkFlagRequired("type")
}

func runGen(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	typeName, _ := cmd.Flags().GetString("type")
	output, _ := cmd.Flags().GetString("output")

	src, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read source: %w", err)
	}

	code, err := codegen.Generate(codegen.Options{
		Source:   src,
		Filename: file,
		TypeName: typeName,
	})
	if err != nil {
		return fmt.Errorf("failed to generate: %w", err)
	}

	if output == "" {
		output = filepath.Join(filepath.Dir(file), codegen.DefaultOutput(typeName))
	}
	if err := os.WriteFile(output, code, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	fmt.Printf("Wrote %s\n", output)
	return nil
}
