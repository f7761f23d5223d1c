package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/netmock/pkg/cli/internal/output"
	"github.com/getmockd/netmock/pkg/config"
)

// ValidateResult is the JSON output of validate for one file.
type ValidateResult struct {
	File  string `json:"file"`
	Valid bool   `json:"valid"`
	Mocks int    `json:"mocks"`
	Error string `json:"error,omitempty"`
}

var validateCmd = &cobra.Command{
	Use:   "validate FILE...",
	Short: "Validate settings files",
	Long: `Validate netmock settings files without running anything.

This command checks:
  - YAML or JSON syntax
  - Schema validation (known fields, status ranges, delay format)
  - URL patterns, passthrough patterns and "when" expressions compile`,
	Example: `  # Validate one file
  netmock validate netmock.yaml

  # Validate several files
  netmock validate mocks/*.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		results := make([]ValidateResult, 0, len(args))
		failed := 0
		for _, path := range args {
			r := ValidateResult{File: path}
			s, err := config.LoadFromFile(path)
			if err != nil {
				r.Error = err.Error()
				failed++
			} else {
				r.Valid = true
				r.Mocks = len(s.Mocks)
			}
			results = append(results, r)
		}

		w := cmd.OutOrStdout()
		if jsonOutput {
			if err := output.JSON(w, results); err != nil {
				return err
			}
		} else {
			for _, r := range results {
				if r.Valid {
					fmt.Fprintf(w, "✓ %s (%d mocks)\n", r.File, r.Mocks)
				} else {
					fmt.Fprintf(w, "✗ %s\n  %s\n", r.File, r.Error)
				}
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d files failed validation", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
