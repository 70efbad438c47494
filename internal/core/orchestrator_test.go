package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sreynich-nang/frontend-PDF-extraction/internal/extraction"
)

// scriptedService is an extraction.Service whose behavior is set per test.
type scriptedService struct {
	submitErr     error
	textErr       error
	tablesErr     error
	text          string
	tables        map[string]string // location -> raw text
	tableErrs     map[string]error
	gates         map[string]chan struct{} // location -> closed when the fetch may return
	fetched       chan string              // receives each location once it resolved
	locations     []string
	tidy          func(rows [][]string, idx int) (extraction.TidyTable, error)
	mu            sync.Mutex
	fetchOrder    []string
	tidyIndexSeen []int
}

func (s *scriptedService) Submit(_ context.Context, _ []byte, _ string) (extraction.SubmitResult, error) {
	if s.submitErr != nil {
		return extraction.SubmitResult{}, s.submitErr
	}
	return extraction.SubmitResult{DocumentID: "remote-1"}, nil
}

func (s *scriptedService) FetchGeneratedText(_ context.Context, _ string) (string, error) {
	if s.textErr != nil {
		return "", s.textErr
	}
	return s.text, nil
}

func (s *scriptedService) RequestTableExtraction(_ context.Context, _ string) (extraction.TableExtraction, error) {
	if s.tablesErr != nil {
		return extraction.TableExtraction{}, s.tablesErr
	}
	return extraction.TableExtraction{TableCount: len(s.locations), Locations: s.locations}, nil
}

func (s *scriptedService) FetchTable(ctx context.Context, _ string, loc string) (string, error) {
	if gate, ok := s.gates[loc]; ok {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	s.mu.Lock()
	s.fetchOrder = append(s.fetchOrder, loc)
	s.mu.Unlock()
	if s.fetched != nil {
		s.fetched <- loc
	}

	if err := s.tableErrs[loc]; err != nil {
		return "", err
	}
	return s.tables[loc], nil
}

func (s *scriptedService) TransformToTidy(_ context.Context, rows [][]string, idx int) (extraction.TidyTable, error) {
	s.mu.Lock()
	s.tidyIndexSeen = append(s.tidyIndexSeen, idx)
	s.mu.Unlock()
	if s.tidy == nil {
		return extraction.TidyTable{}, errors.New("no tidy scripted")
	}
	return s.tidy(rows, idx)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func processingDoc(t *testing.T, name string) *Document {
	t.Helper()
	doc, err := NewDocument(Upload{Name: name, Data: []byte("%PDF-1.4 test")}, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("NewDocument() error = %v", err)
	}
	return doc
}

func threeTableService() *scriptedService {
	return &scriptedService{
		text:      "# Report",
		locations: []string{"loc-0", "loc-1", "loc-2"},
		tables: map[string]string{
			"loc-0": "a,b\n1,2",
			"loc-1": "c,d\n3,4",
			"loc-2": "e,f\n5,6",
		},
	}
}

func TestOrchestrator_Run_Completed(t *testing.T) {
	svc := threeTableService()
	orch := NewOrchestrator(svc, WithOrchestratorLogger(quietLogger()))
	doc := processingDoc(t, "report.pdf")

	got := orch.Run(context.Background(), doc, []byte("%PDF"))

	if got.Status != StatusCompleted {
		t.Fatalf("Status = %q, want completed (failure %q)", got.Status, got.Failure)
	}
	if got.RemoteID != "remote-1" {
		t.Errorf("RemoteID = %q", got.RemoteID)
	}
	if got.Text == nil || got.Text.Content != "# Report" || got.Text.Filename != "report.md" {
		t.Errorf("Text = %+v", got.Text)
	}
	if len(got.Tables) != 3 {
		t.Fatalf("len(Tables) = %d, want 3", len(got.Tables))
	}
	if got.Tables[1].Filename != "report_table_2.csv" {
		t.Errorf("Tables[1].Filename = %q", got.Tables[1].Filename)
	}
	if !reflect.DeepEqual(got.Tables[2].Headers, []string{"e", "f"}) {
		t.Errorf("Tables[2].Headers = %v", got.Tables[2].Headers)
	}
	if doc.Status != StatusProcessing {
		t.Errorf("input Document was modified: status %q", doc.Status)
	}
}

func TestOrchestrator_Run_OutOfOrderFetches(t *testing.T) {
	svc := threeTableService()
	svc.gates = map[string]chan struct{}{
		"loc-0": make(chan struct{}),
		"loc-1": make(chan struct{}),
	}
	svc.fetched = make(chan string, len(svc.locations))
	orch := NewOrchestrator(svc, WithOrchestratorLogger(quietLogger()), WithTableConcurrency(0))

	doc := processingDoc(t, "r.pdf")
	done := make(chan *Document, 1)
	go func() {
		done <- orch.Run(context.Background(), doc, nil)
	}()

	// Resolve the fetches last to first.
	if loc := <-svc.fetched; loc != "loc-2" {
		t.Fatalf("first resolved fetch = %q, want loc-2", loc)
	}
	close(svc.gates["loc-1"])
	if loc := <-svc.fetched; loc != "loc-1" {
		t.Fatalf("second resolved fetch = %q, want loc-1", loc)
	}
	close(svc.gates["loc-0"])
	got := <-done

	if want := []string{"loc-2", "loc-1", "loc-0"}; !reflect.DeepEqual(svc.fetchOrder, want) {
		t.Fatalf("fetch order = %v, want %v", svc.fetchOrder, want)
	}
	if len(got.Tables) != 3 {
		t.Fatalf("len(Tables) = %d, want 3", len(got.Tables))
	}
	wantIDs := []string{"table-0", "table-1", "table-2"}
	wantFirst := []string{"a", "c", "e"}
	for i, tbl := range got.Tables {
		if tbl.ID != wantIDs[i] {
			t.Errorf("Tables[%d].ID = %q, want %q", i, tbl.ID, wantIDs[i])
		}
		if tbl.Headers[0] != wantFirst[i] {
			t.Errorf("Tables[%d] came from the wrong location: headers %v", i, tbl.Headers)
		}
		if tbl.SourceIndex != i {
			t.Errorf("Tables[%d].SourceIndex = %d", i, tbl.SourceIndex)
		}
	}
}

func TestOrchestrator_Run_MandatoryFailures(t *testing.T) {
	tests := []struct {
		name       string
		svc        *scriptedService
		wantRemote string
	}{
		{
			name: "submit fails",
			svc: &scriptedService{
				submitErr: &extraction.RemoteError{Op: extraction.OpSubmit, StatusCode: 500, Message: "boom"},
			},
			wantRemote: "",
		},
		{
			name: "text fetch fails although tables would succeed",
			svc: func() *scriptedService {
				s := threeTableService()
				s.textErr = &extraction.RemoteError{Op: extraction.OpFetchText, StatusCode: 502}
				return s
			}(),
			wantRemote: "remote-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orch := NewOrchestrator(tt.svc, WithOrchestratorLogger(quietLogger()))
			got := orch.Run(context.Background(), processingDoc(t, "a.pdf"), nil)

			if got.Status != StatusError {
				t.Fatalf("Status = %q, want error", got.Status)
			}
			if got.Text != nil || len(got.Tables) != 0 {
				t.Errorf("error Document has artifacts: text %v, %d tables", got.Text, len(got.Tables))
			}
			if got.Err() == nil || got.Failure == "" {
				t.Error("error Document should carry its failure")
			}
			if got.RemoteID != tt.wantRemote {
				t.Errorf("RemoteID = %q, want %q", got.RemoteID, tt.wantRemote)
			}
			if len(tt.svc.fetchOrder) != 0 {
				t.Errorf("tables were fetched after a mandatory failure: %v", tt.svc.fetchOrder)
			}
		})
	}
}

func TestOrchestrator_Run_TableRequestFails(t *testing.T) {
	svc := threeTableService()
	svc.tablesErr = &extraction.RemoteError{Op: extraction.OpRequestTables, StatusCode: 503}
	orch := NewOrchestrator(svc, WithOrchestratorLogger(quietLogger()))

	got := orch.Run(context.Background(), processingDoc(t, "a.png"), nil)

	if got.Status != StatusCompleted {
		t.Fatalf("Status = %q, want completed", got.Status)
	}
	if got.Tables == nil || len(got.Tables) != 0 {
		t.Errorf("Tables = %v, want empty non-nil", got.Tables)
	}
}

func TestOrchestrator_Run_DropsFailedAndEmptyTables(t *testing.T) {
	svc := threeTableService()
	svc.locations = append(svc.locations, "loc-3")
	svc.tables["loc-3"] = "g,h\n7,8"
	svc.tableErrs = map[string]error{"loc-1": errors.New("fetch table failed (status 500)")}
	svc.tables["loc-2"] = "  \n "

	orch := NewOrchestrator(svc, WithOrchestratorLogger(quietLogger()), WithTableConcurrency(2))
	got := orch.Run(context.Background(), processingDoc(t, "r.pdf"), nil)

	if got.Status != StatusCompleted {
		t.Fatalf("Status = %q, want completed", got.Status)
	}
	if len(got.Tables) != 2 {
		t.Fatalf("len(Tables) = %d, want 2", len(got.Tables))
	}

	want := []struct {
		id       string
		source   int
		filename string
		first    string
	}{
		{"table-0", 0, "r_table_1.csv", "a"},
		{"table-1", 3, "r_table_2.csv", "g"},
	}
	for i, w := range want {
		tbl := got.Tables[i]
		if tbl.ID != w.id || tbl.SourceIndex != w.source || tbl.Filename != w.filename || tbl.Headers[0] != w.first {
			t.Errorf("Tables[%d] = %+v, want id %s source %d file %s", i, tbl, w.id, w.source, w.filename)
		}
	}
}

func TestOrchestrator_Run_ConcurrencyCap(t *testing.T) {
	const n = 8
	var (
		mu      sync.Mutex
		running int
		peak    int
	)
	svc := &countingService{
		scriptedService: scriptedService{text: "x"},
		onFetch: func() func() {
			mu.Lock()
			running++
			if running > peak {
				peak = running
			}
			mu.Unlock()
			return func() {
				mu.Lock()
				running--
				mu.Unlock()
			}
		},
	}
	for i := 0; i < n; i++ {
		svc.locations = append(svc.locations, fmt.Sprintf("loc-%d", i))
	}

	orch := NewOrchestrator(svc, WithOrchestratorLogger(quietLogger()), WithTableConcurrency(2))
	got := orch.Run(context.Background(), processingDoc(t, "r.pdf"), nil)

	if len(got.Tables) != n {
		t.Errorf("len(Tables) = %d, want %d", len(got.Tables), n)
	}
	if peak > 2 {
		t.Errorf("peak concurrent fetches = %d, want <= 2", peak)
	}
}

type countingService struct {
	scriptedService
	onFetch func() func()
}

func (c *countingService) FetchTable(_ context.Context, _ string, loc string) (string, error) {
	done := c.onFetch()
	defer done()
	time.Sleep(5 * time.Millisecond)
	return "h\n" + strings.TrimPrefix(loc, "loc-"), nil
}

func TestOrchestrator_Run_TerminalDocumentUnchanged(t *testing.T) {
	svc := threeTableService()
	orch := NewOrchestrator(svc, WithOrchestratorLogger(quietLogger()))
	doc := processingDoc(t, "a.pdf").fail("", errors.New("earlier"))

	if got := orch.Run(context.Background(), doc, nil); got != doc {
		t.Error("Run() on a terminal Document should return it unchanged")
	}
}
