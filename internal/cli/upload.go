package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sreynich-nang/frontend-PDF-extraction/internal/config"
	"github.com/sreynich-nang/frontend-PDF-extraction/internal/core"
	"github.com/sreynich-nang/frontend-PDF-extraction/internal/extraction"
	"github.com/sreynich-nang/frontend-PDF-extraction/internal/tabular"
)

var (
	uploadOut  string
	uploadXLSX bool
	uploadMock bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Extract text and tables from a PDF or image",
	Long: `Upload a PDF or image to the extraction service and write the results.

The generated text is written as <name>.md and every table as
<name>_table_N.csv in the output directory. Tables that could not be
fetched are skipped; the command fails only when submission or text
generation fails.

Examples:
  extractctl upload report.pdf
  extractctl upload scan.png --out results --xlsx
  extractctl upload report.pdf --mock`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadOut, "out", "o", ".", "output directory")
	uploadCmd.Flags().BoolVar(&uploadXLSX, "xlsx", false, "also write each table as .xlsx")
	uploadCmd.Flags().BoolVar(&uploadMock, "mock", false, "use the in-process mock extraction service")
}

func runUpload(cmd *cobra.Command, args []string) error {
	if uploadMock {
		os.Setenv("EXTRACTION_MOCK", "true")
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	svc := extraction.FromConfig(cfg.Extraction, logger)
	service := core.NewService(svc, core.ServiceConfig{
		MaxFileSize:      cfg.Upload.MaxFileSize,
		MaxConcurrent:    1,
		MaxWaitTime:      cfg.Upload.MaxWaitTime,
		UploadTimeout:    cfg.Upload.Timeout,
		TableConcurrency: cfg.Extraction.TableConcurrency,
	}, logger)

	doc, edits, err := service.Upload(ctx, core.Upload{Name: filepath.Base(args[0]), Data: data})
	if err != nil {
		return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
	}
	if doc.Status == core.StatusError {
		return fmt.Errorf("extraction failed: %s", core.FormatUserError(doc.Err()))
	}

	written, err := writeArtifacts(uploadOut, edits, uploadXLSX)
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), doc, written)
	return nil
}

// writeArtifacts writes the effective text and tables into dir and returns
// the paths written, text first.
func writeArtifacts(dir string, edits *core.EditState, xlsx bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	var written []string
	write := func(name string, data []byte) error {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
		return nil
	}

	text := edits.Text()
	if err := write(text.Filename, tabular.FormatText(text.Content)); err != nil {
		return written, err
	}

	for _, t := range edits.Tables() {
		if err := write(t.Filename, tabular.FormatCSV(t.Headers, t.Rows)); err != nil {
			return written, err
		}
		if !xlsx {
			continue
		}
		base := strings.TrimSuffix(t.Filename, filepath.Ext(t.Filename))
		var buf bytes.Buffer
		if err := tabular.WriteXLSX(&buf, base, t.Headers, t.Rows); err != nil {
			return written, fmt.Errorf("export %s: %w", t.ID, err)
		}
		if err := write(base+".xlsx", buf.Bytes()); err != nil {
			return written, err
		}
	}
	return written, nil
}

func printSummary(w io.Writer, doc *core.Document, written []string) {
	fmt.Fprintf(w, "%s (%s): %s\n", doc.DisplayName, doc.Kind, doc.Status)
	fmt.Fprintf(w, "Tables: %d\n", len(doc.Tables))
	for _, t := range doc.Tables {
		fmt.Fprintf(w, "  %s  %d columns, %d rows\n", t.ID, len(t.Headers), len(t.Rows))
	}
	fmt.Fprintln(w, "Written:")
	for _, p := range written {
		fmt.Fprintf(w, "  %s\n", p)
	}
}
