package extraction

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// Mock is an in-process stand-in for the extraction service, used for local
// development and demos. It remembers submitted names and returns canned
// text and two tables for every document.
type Mock struct {
	mu    sync.Mutex
	next  int
	names map[string]string
}

// NewMock creates an empty mock service.
func NewMock() *Mock {
	return &Mock{names: make(map[string]string)}
}

var mockTables = []string{
	"Quarter,Revenue,Cost\nQ1,120,80\nQ2,135,82\nQ3,150,90",
	"Region,Manager,Notes\nNorth,\"Smith, J\",on track\nSouth,Lee,\"delayed, see memo\"",
}

func (m *Mock) Submit(ctx context.Context, data []byte, name string) (SubmitResult, error) {
	if err := ctx.Err(); err != nil {
		return SubmitResult{}, &RemoteError{Op: OpSubmit, Err: err}
	}
	if len(data) == 0 {
		return SubmitResult{}, &RemoteError{Op: OpSubmit, StatusCode: 400, Message: "empty file"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	id := fmt.Sprintf("mock-%d", m.next)
	m.names[id] = name
	return SubmitResult{DocumentID: id}, nil
}

func (m *Mock) FetchGeneratedText(ctx context.Context, documentID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &RemoteError{Op: OpFetchText, Err: err}
	}
	name, err := m.lookup(OpFetchText, documentID)
	if err != nil {
		return "", err
	}
	title := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	return fmt.Sprintf("# %s\n\nGenerated summary of %s.\n\nThe document contains %d tables.\n",
		title, name, len(mockTables)), nil
}

func (m *Mock) RequestTableExtraction(ctx context.Context, documentID string) (TableExtraction, error) {
	if err := ctx.Err(); err != nil {
		return TableExtraction{}, &RemoteError{Op: OpRequestTables, Err: err}
	}
	if _, err := m.lookup(OpRequestTables, documentID); err != nil {
		return TableExtraction{}, err
	}
	locs := make([]string, len(mockTables))
	for i := range mockTables {
		locs[i] = fmt.Sprintf("%s/table_%d.csv", documentID, i+1)
	}
	return TableExtraction{TableCount: len(locs), Locations: locs}, nil
}

func (m *Mock) FetchTable(ctx context.Context, documentID, location string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &RemoteError{Op: OpFetchTable, Err: err}
	}
	if _, err := m.lookup(OpFetchTable, documentID); err != nil {
		return "", err
	}
	for i := range mockTables {
		if location == fmt.Sprintf("%s/table_%d.csv", documentID, i+1) {
			return mockTables[i], nil
		}
	}
	return "", &RemoteError{Op: OpFetchTable, StatusCode: 404, Message: "table not found at " + location}
}

// TransformToTidy melts wide rows into (id, variable, value) triples, using
// the first cell of each row as the id.
func (m *Mock) TransformToTidy(ctx context.Context, rows [][]string, tableIndex int) (TidyTable, error) {
	if err := ctx.Err(); err != nil {
		return TidyTable{}, &RemoteError{Op: OpTransformToTidy, Err: err}
	}
	if len(rows) == 0 {
		return TidyTable{}, &RemoteError{Op: OpTransformToTidy, Message: "no rows to transform"}
	}

	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		for j := 1; j < len(row); j++ {
			out = append(out, []string{row[0], fmt.Sprintf("column_%d", j+1), row[j]})
		}
	}
	return TidyTable{Headers: []string{"id", "variable", "value"}, Rows: out}, nil
}

func (m *Mock) lookup(op, documentID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name, ok := m.names[documentID]
	if !ok {
		return "", &RemoteError{Op: op, StatusCode: 404, Message: "document not found"}
	}
	return name, nil
}
