package core

// orchestrator.go drives the remote extraction workflow for one upload.
//
// The workflow has two mandatory steps and one optional phase:
//
//  1. Submit the file (mandatory)
//  2. Fetch the generated text (mandatory)
//  3. Request table extraction and fetch every table (optional)
//
// A failure in steps 1-2 moves the Document to error with no artifacts. Any
// failure in step 3 is logged and costs at most the affected tables: a failed
// extraction request yields zero tables, a failed table fetch drops only that
// table.

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sreynich-nang/frontend-PDF-extraction/internal/extraction"
	"github.com/sreynich-nang/frontend-PDF-extraction/internal/tabular"
)

// DefaultTableConcurrency is the default cap on parallel table fetches.
const DefaultTableConcurrency = 4

// Orchestrator runs the extraction workflow against an extraction.Service.
type Orchestrator struct {
	svc              extraction.Service
	logger           *slog.Logger
	tableConcurrency int
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithOrchestratorLogger sets the logger used for phase logging.
func WithOrchestratorLogger(l *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.logger = l }
}

// WithTableConcurrency caps parallel table fetches. Zero or less removes the cap.
func WithTableConcurrency(n int) OrchestratorOption {
	return func(o *Orchestrator) { o.tableConcurrency = n }
}

// NewOrchestrator creates an Orchestrator bound to svc.
func NewOrchestrator(svc extraction.Service, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		svc:              svc,
		logger:           slog.Default(),
		tableConcurrency: DefaultTableConcurrency,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the workflow for a processing Document and returns its
// terminal copy. doc itself is not modified; a Document that is already
// terminal is returned unchanged.
func (o *Orchestrator) Run(ctx context.Context, doc *Document, data []byte) *Document {
	if doc.Status.Terminal() {
		return doc
	}

	start := time.Now()
	log := o.logger.With("document_id", doc.ID, "file", doc.DisplayName, "kind", doc.Kind)
	log.Info("extraction started", "bytes", len(data))

	phase := time.Now()
	sub, err := o.svc.Submit(ctx, data, doc.DisplayName)
	if err != nil {
		log.Error("extraction failed", "phase", extraction.OpSubmit, "error", err)
		return doc.fail("", err)
	}
	remoteID := sub.DocumentID
	log = log.With("remote_id", remoteID)
	log.Debug("phase completed", "phase", extraction.OpSubmit, "duration_ms", time.Since(phase).Milliseconds())

	phase = time.Now()
	content, err := o.svc.FetchGeneratedText(ctx, remoteID)
	if err != nil {
		log.Error("extraction failed", "phase", extraction.OpFetchText, "error", err)
		return doc.fail(remoteID, err)
	}
	log.Debug("phase completed", "phase", extraction.OpFetchText,
		"chars", len(content), "duration_ms", time.Since(phase).Milliseconds())

	tables := o.extractTables(ctx, log, doc, remoteID)

	done := doc.complete(remoteID, TextArtifact{
		Content:  content,
		Filename: doc.TextFilename(),
	}, tables)

	log.Info("extraction completed",
		"tables", len(tables),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return done
}

// fetchedTable is a parsed table waiting for its final position.
type fetchedTable struct {
	sourceIndex int
	table       tabular.Table
}

// extractTables runs the optional table phase. It never fails; it returns the
// tables that could be fetched, in extraction order, with ids assigned.
func (o *Orchestrator) extractTables(ctx context.Context, log *slog.Logger, doc *Document, remoteID string) []TableArtifact {
	phase := time.Now()

	ext, err := o.svc.RequestTableExtraction(ctx, remoteID)
	if err != nil {
		log.Warn("table extraction unavailable, continuing without tables",
			"phase", extraction.OpRequestTables, "error", err)
		return []TableArtifact{}
	}
	if ext.TableCount != len(ext.Locations) {
		log.Warn("table count does not match locations, using locations",
			"table_count", ext.TableCount, "locations", len(ext.Locations))
	}
	if len(ext.Locations) == 0 {
		return []TableArtifact{}
	}

	// Each goroutine writes only its own slot, so arrival order does not
	// affect the output order.
	results := make([]*fetchedTable, len(ext.Locations))

	var g errgroup.Group
	if o.tableConcurrency > 0 {
		g.SetLimit(o.tableConcurrency)
	}
	for i, loc := range ext.Locations {
		g.Go(func() error {
			raw, err := o.svc.FetchTable(ctx, remoteID, loc)
			if err != nil {
				log.Warn("dropping table", "phase", extraction.OpFetchTable,
					"index", i, "location", loc, "error", err)
				return nil
			}
			if strings.TrimSpace(raw) == "" {
				log.Warn("dropping empty table", "phase", extraction.OpFetchTable,
					"index", i, "location", loc)
				return nil
			}
			results[i] = &fetchedTable{sourceIndex: i, table: tabular.Parse(raw)}
			return nil
		})
	}
	// Workers report failures by leaving their slot empty, never through Wait.
	_ = g.Wait()

	tables := make([]TableArtifact, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		pos := len(tables)
		tables = append(tables, TableArtifact{
			ID:          TableID(pos),
			Filename:    doc.TableFilename(pos),
			SourceIndex: r.sourceIndex,
			Headers:     r.table.Headers,
			Rows:        r.table.Rows,
		})
	}

	log.Debug("phase completed", "phase", extraction.OpFetchTable,
		"requested", len(ext.Locations),
		"kept", len(tables),
		"duration_ms", time.Since(phase).Milliseconds(),
	)
	return tables
}
