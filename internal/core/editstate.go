package core

// editstate.go holds the user-facing edit layer of a completed Document.
//
// The Document's artifacts are never modified. Each artifact may carry one
// override, always a full replacement, and every read returns
// override-if-present-else-original. A per-Document version counter
// increments on every successful save or transform so views cached by
// (artifact, version) are recomputed after each change.
//
// The remote tidy call runs without holding the lock. Two mutations of the
// same table racing each other apply in whatever order they complete; callers
// must not start a second mutation of a table while one is in flight.

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sreynich-nang/frontend-PDF-extraction/internal/extraction"
)

// TextArtifactKey names the text artifact in cache keys.
const TextArtifactKey = "text"

var (
	// ErrUnknownTable is returned when a table id does not exist on the Document.
	ErrUnknownTable = errors.New("unknown table")

	// ErrTidyShapeMismatch is returned when a tidy result changes the column
	// count without supplying new headers.
	ErrTidyShapeMismatch = errors.New("tidy shape mismatch: column count changed without headers")

	// ErrNoTransformer is returned by TransformTable when no tidy collaborator is set.
	ErrNoTransformer = errors.New("tidy transform not configured")
)

// Transformer is the tidy-reshape collaborator. extraction.Service satisfies it.
type Transformer interface {
	TransformToTidy(ctx context.Context, rows [][]string, tableIndex int) (extraction.TidyTable, error)
}

type tableOverride struct {
	headers []string
	rows    [][]string
}

// EditState is the override layer of one completed Document.
type EditState struct {
	doc         *Document
	transformer Transformer

	mu      sync.RWMutex
	text    *string
	tables  map[string]*tableOverride
	index   map[string]int
	version uint64
}

// TextView is the effective text artifact at a version.
type TextView struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	Edited   bool   `json:"edited"`
	Version  uint64 `json:"version"`
}

// TableView is the effective table artifact at a version.
// Headers and Rows are copies owned by the caller.
type TableView struct {
	ID       string     `json:"id"`
	Filename string     `json:"filename"`
	Headers  []string   `json:"headers"`
	Rows     [][]string `json:"rows"`
	Edited   bool       `json:"edited"`
	Version  uint64     `json:"version"`
}

// NewEditState wraps a completed Document. transformer may be nil, in which
// case TransformTable returns ErrNoTransformer.
func NewEditState(doc *Document, transformer Transformer) (*EditState, error) {
	if doc == nil || doc.Status != StatusCompleted || doc.Text == nil {
		return nil, ErrDocumentNotReady
	}

	index := make(map[string]int, len(doc.Tables))
	for i, t := range doc.Tables {
		index[t.ID] = i
	}

	return &EditState{
		doc:         doc,
		transformer: transformer,
		tables:      make(map[string]*tableOverride),
		index:       index,
	}, nil
}

// Document returns the wrapped Document. Its artifacts hold original values.
func (s *EditState) Document() *Document {
	return s.doc
}

// Version returns the number of successful edits applied so far.
func (s *EditState) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// CacheKey returns the key a consumer should cache a rendered artifact under.
func (s *EditState) CacheKey(artifact string) string {
	return fmt.Sprintf("%s@%d", artifact, s.Version())
}

// Text returns the effective text artifact.
func (s *EditState) Text() TextView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := TextView{
		Filename: s.doc.Text.Filename,
		Content:  s.doc.Text.Content,
		Version:  s.version,
	}
	if s.text != nil {
		v.Content = *s.text
		v.Edited = true
	}
	return v
}

// Table returns the effective table with the given id.
func (s *EditState) Table(tableID string) (TableView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.index[tableID]
	if !ok {
		return TableView{}, fmt.Errorf("%w %q", ErrUnknownTable, tableID)
	}
	return s.viewLocked(pos), nil
}

// Tables returns every effective table in Document order.
func (s *EditState) Tables() []TableView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	views := make([]TableView, len(s.doc.Tables))
	for i := range s.doc.Tables {
		views[i] = s.viewLocked(i)
	}
	return views
}

func (s *EditState) viewLocked(pos int) TableView {
	orig := s.doc.Tables[pos]
	headers, rows, edited := s.effectiveLocked(pos)
	return TableView{
		ID:       orig.ID,
		Filename: orig.Filename,
		Headers:  copyStrings(headers),
		Rows:     copyRows(rows),
		Edited:   edited,
		Version:  s.version,
	}
}

// effectiveLocked returns internal storage; callers must copy before handing it out.
func (s *EditState) effectiveLocked(pos int) ([]string, [][]string, bool) {
	orig := s.doc.Tables[pos]
	if ov, ok := s.tables[orig.ID]; ok {
		return ov.headers, ov.rows, true
	}
	return orig.Headers, orig.Rows, false
}

// SaveText replaces the text override with content verbatim.
func (s *EditState) SaveText(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.text = &content
	s.version++
}

// ResetText drops the text override so the original is effective again.
func (s *EditState) ResetText() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.text = nil
	s.version++
}

// SaveTable replaces a table's headers and rows together. Both are copied,
// so later changes to the caller's slices do not reach the stored override.
func (s *EditState) SaveTable(tableID string, headers []string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[tableID]; !ok {
		return fmt.Errorf("save table: %w %q", ErrUnknownTable, tableID)
	}
	s.setTableLocked(tableID, headers, rows)
	return nil
}

// ResetTable drops a table's override so the original is effective again.
func (s *EditState) ResetTable(tableID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[tableID]; !ok {
		return fmt.Errorf("reset table: %w %q", ErrUnknownTable, tableID)
	}
	delete(s.tables, tableID)
	s.version++
	return nil
}

func (s *EditState) setTableLocked(tableID string, headers []string, rows [][]string) {
	if headers == nil {
		headers = []string{}
	}
	if rows == nil {
		rows = [][]string{}
	}
	s.tables[tableID] = &tableOverride{
		headers: copyStrings(headers),
		rows:    copyRows(rows),
	}
	s.version++
}

// TransformTable sends the table's effective rows to the tidy collaborator
// and stores the result as the table's override. On any failure the current
// state, version included, is left as it was.
func (s *EditState) TransformTable(ctx context.Context, tableID string) error {
	if s.transformer == nil {
		return ErrNoTransformer
	}

	s.mu.RLock()
	pos, ok := s.index[tableID]
	if !ok {
		s.mu.RUnlock()
		return fmt.Errorf("transform table: %w %q", ErrUnknownTable, tableID)
	}
	h, r, _ := s.effectiveLocked(pos)
	headers, rows := copyStrings(h), copyRows(r)
	sourceIndex := s.doc.Tables[pos].SourceIndex
	s.mu.RUnlock()

	res, err := s.transformer.TransformToTidy(ctx, rows, sourceIndex)
	if err != nil {
		return fmt.Errorf("transform table %s: %w", tableID, err)
	}

	newHeaders := res.Headers
	if !res.HasHeaders() {
		for _, row := range res.Rows {
			if len(row) != len(headers) {
				return fmt.Errorf("transform table %s: %w (have %d columns, got %d)",
					tableID, ErrTidyShapeMismatch, len(headers), len(row))
			}
		}
		newHeaders = headers
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.setTableLocked(tableID, newHeaders, res.Rows)
	return nil
}

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func copyRows(in [][]string) [][]string {
	if in == nil {
		return nil
	}
	out := make([][]string, len(in))
	for i, row := range in {
		out[i] = copyStrings(row)
	}
	return out
}
