package core

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrNoDocument is returned when nothing has been uploaded yet.
	ErrNoDocument = errors.New("no document")

	// ErrDocumentNotReady is returned for edits against a Document that has
	// not completed.
	ErrDocumentNotReady = errors.New("document not ready")

	// ErrSuperseded is returned by Complete when a newer upload replaced the
	// Document while it was processing.
	ErrSuperseded = errors.New("document superseded by a newer upload")

	// ErrAlreadyComplete is returned by Complete for a Document that has
	// already been installed.
	ErrAlreadyComplete = errors.New("document already complete")
)

// Session owns the current workspace: one Document and, once it completes,
// its EditState. Starting a new upload replaces the workspace.
type Session struct {
	transformer Transformer
	logger      *slog.Logger
	now         func() time.Time

	mu      sync.RWMutex
	current *Document
	edits   *EditState
}

// NewSession creates an empty Session. transformer is handed to every
// EditState the Session creates.
func NewSession(transformer Transformer, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		transformer: transformer,
		logger:      logger,
		now:         time.Now,
	}
}

// Begin validates the upload and makes its processing Document current.
// Any Document still processing is superseded.
func (s *Session) Begin(up Upload) (*Document, error) {
	doc, err := NewDocument(up, s.now())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && !s.current.Status.Terminal() {
		s.logger.Info("superseding in-flight document",
			"document_id", s.current.ID, "replaced_by", doc.ID)
	}
	s.current = doc
	s.edits = nil
	return doc, nil
}

// Complete installs a terminal Document if it is still the current one and
// returns the EditState created for it. The EditState is nil unless the
// Document completed. A Document is installed at most once.
func (s *Session) Complete(doc *Document) (*EditState, error) {
	if doc == nil || !doc.Status.Terminal() {
		return nil, fmt.Errorf("complete: %w", ErrDocumentNotReady)
	}

	var edits *EditState
	if doc.Status == StatusCompleted {
		var err error
		if edits, err = NewEditState(doc, s.transformer); err != nil {
			return nil, fmt.Errorf("complete: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.current.ID != doc.ID {
		s.logger.Info("discarding superseded result",
			"document_id", doc.ID, "status", doc.Status)
		return nil, fmt.Errorf("complete %s: %w", doc.ID, ErrSuperseded)
	}
	if s.current.Status.Terminal() {
		return nil, fmt.Errorf("complete %s: %w", doc.ID, ErrAlreadyComplete)
	}
	s.current = doc
	s.edits = edits
	return edits, nil
}

// Current returns the current Document and its EditState. The EditState is
// nil unless the Document completed.
func (s *Session) Current() (*Document, *EditState) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.edits
}

// Edits returns the EditState of the current Document.
func (s *Session) Edits() (*EditState, error) {
	doc, edits := s.Current()
	switch {
	case doc == nil:
		return nil, ErrNoDocument
	case edits == nil:
		return nil, ErrDocumentNotReady
	}
	return edits, nil
}
