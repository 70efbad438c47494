package tabular

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestFormatCSV(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		rows    [][]string
		want    string
	}{
		{
			name:    "header and rows",
			headers: []string{"a", "b"},
			rows:    [][]string{{"1", "2"}, {"3", "4"}},
			want:    "a,b\n1,2\n3,4",
		},
		{
			name:    "header only",
			headers: []string{"a"},
			want:    "a",
		},
		{
			name:    "values are not quoted",
			headers: []string{"name"},
			rows:    [][]string{{"Smith, J"}, {`say "hi"`}},
			want:    "name\nSmith, J\nsay \"hi\"",
		},
		{
			name:    "ragged rows kept",
			headers: []string{"a", "b", "c"},
			rows:    [][]string{{"1"}, {"1", "2", "3", "4"}},
			want:    "a,b,c\n1\n1,2,3,4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(FormatCSV(tt.headers, tt.rows)); got != tt.want {
				t.Errorf("FormatCSV() = %q, want %q", got, tt.want)
			}
		})
	}
}

// Export is not quote-aware, so a comma inside a value splits it on re-import.
func TestFormatCSV_RoundTripHazard(t *testing.T) {
	headers := []string{"name", "city"}
	rows := [][]string{{"Smith, J", "Oslo"}}

	got := Parse(string(FormatCSV(headers, rows)))

	want := []string{"Smith", "J", "Oslo"}
	if !reflect.DeepEqual(got.Rows[0], want) {
		t.Errorf("re-imported row = %q, want %q", got.Rows[0], want)
	}
}

func TestFormatCSV_RoundTripPlainValues(t *testing.T) {
	headers := []string{"a", "b"}
	rows := [][]string{{"1", "2"}, {"x", "y"}}

	got := Parse(string(FormatCSV(headers, rows)))
	if !reflect.DeepEqual(got.Headers, headers) || !reflect.DeepEqual(got.Rows, rows) {
		t.Errorf("round trip = %v, want headers %v rows %v", got, headers, rows)
	}
}

func TestFormatText(t *testing.T) {
	in := "# Title\n\nbody, with commas"
	if got := string(FormatText(in)); got != in {
		t.Errorf("FormatText() = %q, want %q", got, in)
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	headers := []string{"Item", "Amount"}
	rows := [][]string{{"Coffee", "3.50"}, {"Tea"}}

	if err := WriteXLSX(&buf, "report_table_1", headers, rows); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	got, err := f.GetRows("report_table_1")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}

	want := [][]string{{"Item", "Amount"}, {"Coffee", "3.50"}, {"Tea"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rows = %q, want %q", got, want)
	}
}

func TestWriteXLSX_DefaultAndLongSheetName(t *testing.T) {
	tests := []struct {
		name      string
		sheet     string
		wantSheet string
	}{
		{"empty uses default", "", DefaultSheet},
		{"long name truncated", "a_very_long_sheet_name_that_exceeds_the_limit", "a_very_long_sheet_name_that_exc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteXLSX(&buf, tt.sheet, []string{"h"}, nil); err != nil {
				t.Fatalf("WriteXLSX() error = %v", err)
			}
			f, err := excelize.OpenReader(&buf)
			if err != nil {
				t.Fatalf("OpenReader() error = %v", err)
			}
			defer f.Close()

			if idx, _ := f.GetSheetIndex(tt.wantSheet); idx == -1 {
				t.Errorf("sheet %q not found, sheets = %v", tt.wantSheet, f.GetSheetList())
			}
		})
	}
}
