// Package tabular converts between raw delimited text and header/row tables.
//
// Parsing is deliberately small: one record per line, comma separated, with
// double quotes toggling a "inside quotes" state so that commas inside quoted
// values do not split the field. Doubled quotes are not an escape sequence;
// every quote character toggles the state on its own.
//
// Export is the mirror image but is not quote-aware: values are joined with
// commas as-is. A value that contains a comma will therefore not survive an
// export followed by a re-import.
package tabular

import "strings"

// Table is a parsed block of delimited text.
// Rows are not padded or truncated to the header width.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Width returns the number of header columns.
func (t Table) Width() int {
	return len(t.Headers)
}

// Parse turns raw delimited text into a Table.
//
// The input is trimmed, split into lines, and the first line is always used
// as the header row. Parse never fails: malformed input yields whatever fields
// the quote scanner produces.
func Parse(raw string) Table {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Table{Headers: []string{}, Rows: [][]string{}}
	}

	lines := strings.Split(raw, "\n")

	t := Table{
		Headers: ParseLine(lines[0]),
		Rows:    make([][]string, 0, len(lines)-1),
	}
	for _, line := range lines[1:] {
		t.Rows = append(t.Rows, ParseLine(line))
	}
	return t
}

// ParseLine splits a single record into trimmed fields.
//
// A '"' toggles the quote state, a ',' outside quotes ends the current field,
// and anything else is appended to the field buffer. The buffer is emitted as
// the last field at end of line, so an empty line yields one empty field.
func ParseLine(line string) []string {
	line = strings.TrimSuffix(line, "\r")

	var (
		fields   []string
		buf      strings.Builder
		inQuotes bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(buf.String()))
			buf.Reset()
		default:
			buf.WriteRune(r)
		}
	}
	return append(fields, strings.TrimSpace(buf.String()))
}
