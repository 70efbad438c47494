package web

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sreynich-nang/frontend-PDF-extraction/internal/core"
	"github.com/sreynich-nang/frontend-PDF-extraction/internal/tabular"
)

// handleExportText downloads the effective text of the current document.
func (s *Server) handleExportText(w http.ResponseWriter, r *http.Request) {
	edits, ok := s.editState(w, r)
	if !ok {
		return
	}
	text := edits.Text()

	setDownloadHeaders(w, text.Filename, tabular.ContentTypeText, edits.CacheKey(core.TextArtifactKey))
	w.Write(tabular.FormatText(text.Content))
}

// handleExportTable downloads a table as CSV (default) or XLSX.
func (s *Server) handleExportTable(w http.ResponseWriter, r *http.Request) {
	edits, ok := s.editState(w, r)
	if !ok {
		return
	}
	tableID := chi.URLParam(r, "tableID")

	view, err := edits.Table(tableID)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	etag := edits.CacheKey(tableID)

	switch format := strings.ToLower(r.URL.Query().Get("format")); format {
	case "", "csv":
		setDownloadHeaders(w, view.Filename, tabular.ContentTypeCSV, etag)
		w.Write(tabular.FormatCSV(view.Headers, view.Rows))

	case "xlsx":
		var buf bytes.Buffer
		sheet := strings.TrimSuffix(view.Filename, filepath.Ext(view.Filename))
		if err := tabular.WriteXLSX(&buf, sheet, view.Headers, view.Rows); err != nil {
			respondError(w, r, fmt.Errorf("export %s: %w", tableID, err), http.StatusInternalServerError)
			return
		}
		name := strings.TrimSuffix(view.Filename, filepath.Ext(view.Filename)) + ".xlsx"
		setDownloadHeaders(w, name, tabular.ContentTypeXLSX, etag)
		w.Write(buf.Bytes())

	default:
		respondError(w, r, fmt.Errorf("%w %q", errUnknownFormat, format), http.StatusBadRequest)
	}
}

// setDownloadHeaders marks the response as an attachment. The ETag carries the
// edit version so clients refetch after every change.
func setDownloadHeaders(w http.ResponseWriter, filename, contentType, etag string) {
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	h.Set("ETag", `"`+etag+`"`)
	h.Set("Cache-Control", "no-cache")
}
