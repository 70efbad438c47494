package tabular

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Content types used when serving exports.
const (
	ContentTypeText = "text/plain; charset=utf-8"
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// DefaultSheet is the worksheet name used by WriteXLSX when none is given.
const DefaultSheet = "Table"

// FormatText returns the text export of a generated document.
func FormatText(content string) []byte {
	return []byte(content)
}

// FormatCSV joins the header and every row with commas, one line per row.
//
// No quoting or escaping is applied.
func FormatCSV(headers []string, rows [][]string) []byte {
	var b strings.Builder
	b.WriteString(strings.Join(headers, ","))
	for _, row := range rows {
		b.WriteByte('\n')
		b.WriteString(strings.Join(row, ","))
	}
	return []byte(b.String())
}

// WriteXLSX writes the table as a single-sheet workbook with the headers in
// the first row. Ragged rows are written as they are.
func WriteXLSX(w io.Writer, sheet string, headers []string, rows [][]string) error {
	if sheet == "" {
		sheet = DefaultSheet
	}
	// Excel caps sheet names at 31 characters.
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := writeRow(f, sheet, 1, headers); err != nil {
		return err
	}
	for i, row := range rows {
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	if len(values) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("cell name row %d: %w", rowNum, err)
	}
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
		return fmt.Errorf("write row %d: %w", rowNum, err)
	}
	return nil
}
