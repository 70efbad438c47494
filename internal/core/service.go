package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sreynich-nang/frontend-PDF-extraction/internal/extraction"
)

// DefaultUploadTimeout bounds one full extraction run.
const DefaultUploadTimeout = 10 * time.Minute

// ServiceConfig holds the limits the Service enforces around extraction.
type ServiceConfig struct {
	MaxFileSize      int64
	MaxConcurrent    int
	MaxWaitTime      time.Duration
	UploadTimeout    time.Duration
	TableConcurrency int
}

// Service is the entry point used by the web and CLI layers. It runs uploads
// through the Orchestrator under the UploadLimiter and keeps the result in a
// Session.
type Service struct {
	cfg     ServiceConfig
	orch    *Orchestrator
	session *Session
	limiter *UploadLimiter
	logger  *slog.Logger
}

// NewService wires an extraction collaborator into a ready Service.
func NewService(svc extraction.Service, cfg ServiceConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = DefaultUploadTimeout
	}

	return &Service{
		cfg: cfg,
		orch: NewOrchestrator(svc,
			WithOrchestratorLogger(logger),
			WithTableConcurrency(cfg.TableConcurrency),
		),
		session: NewSession(svc, logger),
		limiter: NewUploadLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		logger:  logger,
	}
}

// Upload runs a file through extraction and returns its terminal Document
// together with the EditState installed for it. The EditState is nil unless
// the Document completed, and always wraps the returned Document.
//
// Input problems (empty, too large, unsupported type) are returned as errors
// before any remote call. Remote failures are recorded on the returned
// Document with status error and a nil error. A result superseded by a newer
// upload is returned together with ErrSuperseded and no EditState.
func (s *Service) Upload(ctx context.Context, up Upload) (*Document, *EditState, error) {
	if s.cfg.MaxFileSize > 0 && int64(len(up.Data)) > s.cfg.MaxFileSize {
		return nil, nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, len(up.Data), s.cfg.MaxFileSize)
	}

	doc, err := s.session.Begin(up)
	if err != nil {
		return nil, nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		failed := doc.fail("", err)
		_, _ = s.session.Complete(failed)
		return failed, nil, err
	}
	defer s.limiter.Release()

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.UploadTimeout)
	defer cancel()

	final := s.orch.Run(runCtx, doc, up.Data)
	edits, err := s.session.Complete(final)
	if err != nil {
		return final, nil, err
	}
	return final, edits, nil
}

// Current returns the current Document and its EditState.
func (s *Service) Current() (*Document, *EditState) {
	return s.session.Current()
}

// Edits returns the EditState of the current completed Document.
func (s *Service) Edits() (*EditState, error) {
	return s.session.Edits()
}

// UploadLimiterStatus reports how many extractions are running.
func (s *Service) UploadLimiterStatus() UploadLimiterStatus {
	return s.limiter.Status()
}

// WaitForUploads blocks until running extractions finish or ctx is done.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
