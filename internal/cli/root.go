// Package cli provides the command-line interface for document extraction.
package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sreynich-nang/frontend-PDF-extraction/internal/logging"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "extractctl",
	Short: "Extract text and tables from PDFs and images",
	Long: `extractctl sends a PDF or image to the extraction service, then writes
the generated text and every extracted table to disk.

Configuration is read from the environment and an optional .env file, using
the same variables as the server (EXTRACTION_BASE_URL, EXTRACTION_MOCK, ...).`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is fine; real environment variables win.
		_ = godotenv.Load()

		if verbose {
			l, _, err := logging.New(os.Stderr, "debug", "text", "")
			if err != nil {
				return err
			}
			logger = l
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log extraction phases to stderr")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(parseCmd)
}
