package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sreynich-nang/frontend-PDF-extraction/internal/tabular"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse delimited table text and print it as JSON",
	Long: `Parse a table in the format returned by the extraction service and print
its headers and rows as JSON. A field wrapped in double quotes may contain
commas; the quotes themselves are dropped.

Example:
  extractctl parse table_1.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(tabular.Parse(string(raw)))
	},
}
