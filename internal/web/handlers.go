package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sreynich-nang/frontend-PDF-extraction/internal/core"
	"github.com/sreynich-nang/frontend-PDF-extraction/internal/logging"
	"github.com/sreynich-nang/frontend-PDF-extraction/internal/web/templates"
)

// multipartOverhead is the allowance for form boundaries and headers on top
// of the file itself.
const multipartOverhead = 1 << 20

// maxJSONBody caps edit request bodies.
const maxJSONBody = 32 << 20

// documentResponse is the JSON view of the current Document with its
// effective artifacts.
type documentResponse struct {
	ID          string            `json:"id"`
	DisplayName string            `json:"display_name"`
	Kind        core.Kind         `json:"kind"`
	Status      core.Status       `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	Failure     string            `json:"failure,omitempty"`
	Version     uint64            `json:"version"`
	Text        *core.TextView    `json:"text,omitempty"`
	Tables      []core.TableView  `json:"tables"`
	Error       *core.UserMessage `json:"error,omitempty"`
}

func newDocumentResponse(doc *core.Document, edits *core.EditState) documentResponse {
	resp := documentResponse{
		ID:          doc.ID,
		DisplayName: doc.DisplayName,
		Kind:        doc.Kind,
		Status:      doc.Status,
		CreatedAt:   doc.CreatedAt,
		Failure:     doc.Failure,
		Tables:      []core.TableView{},
	}
	if err := doc.Err(); err != nil {
		msg := core.MapError(err)
		resp.Error = &msg
	}
	if edits != nil {
		text := edits.Text()
		resp.Text = &text
		resp.Tables = edits.Tables()
		resp.Version = edits.Version()
	}
	return resp
}

type textRequest struct {
	Content *string `json:"content"`
}

type tableRequest struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"uploads": s.service.UploadLimiterStatus(),
	})
}

// handleIndex renders the summary page of the current document.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	doc, edits := s.service.Current()

	page := templates.DocumentPage{}
	if doc != nil {
		page.Loaded = true
		page.DisplayName = doc.DisplayName
		page.Kind = string(doc.Kind)
		page.Status = string(doc.Status)
		page.Failure = doc.Failure
	}
	if edits != nil {
		text := edits.Text()
		page.TextFile = text.Filename
		page.TextEdited = text.Edited
		page.Version = edits.Version()
		for _, t := range edits.Tables() {
			page.Tables = append(page.Tables, templates.TableSummary{
				ID:       t.ID,
				Filename: t.Filename,
				Columns:  len(t.Headers),
				Rows:     len(t.Rows),
				Edited:   t.Edited,
			})
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Index(page).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render index", "error", err)
	}
}

// handleUpload runs extraction for a multipart "file" field and returns the
// terminal Document. A remote failure is a 200 with status "error".
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondError(w, r, core.ErrFileTooLarge, http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, r, fmt.Errorf("%w: %v", errNoFile, err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, fmt.Errorf("read upload: %w", err), http.StatusInternalServerError)
		return
	}

	logger := logging.WithFields(r.Context(), "file", header.Filename, "bytes", len(data))
	logger.Info("upload received")

	doc, edits, err := s.service.Upload(r.Context(), core.Upload{Name: header.Filename, Data: data})
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, newDocumentResponse(doc, edits))
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, edits := s.service.Current()
	if doc == nil {
		respondError(w, r, core.ErrNoDocument, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, newDocumentResponse(doc, edits))
}

// editState resolves the EditState or writes the error response.
func (s *Server) editState(w http.ResponseWriter, r *http.Request) (*core.EditState, bool) {
	edits, err := s.service.Edits()
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return nil, false
	}
	return edits, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}

func (s *Server) handleSaveText(w http.ResponseWriter, r *http.Request) {
	edits, ok := s.editState(w, r)
	if !ok {
		return
	}

	var req textRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if req.Content == nil {
		respondError(w, r, fmt.Errorf("%w: content is required", errInvalidBody), http.StatusBadRequest)
		return
	}

	edits.SaveText(*req.Content)
	writeJSON(w, http.StatusOK, edits.Text())
}

func (s *Server) handleResetText(w http.ResponseWriter, r *http.Request) {
	edits, ok := s.editState(w, r)
	if !ok {
		return
	}
	edits.ResetText()
	writeJSON(w, http.StatusOK, edits.Text())
}

func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	edits, ok := s.editState(w, r)
	if !ok {
		return
	}
	view, err := edits.Table(chi.URLParam(r, "tableID"))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSaveTable(w http.ResponseWriter, r *http.Request) {
	edits, ok := s.editState(w, r)
	if !ok {
		return
	}
	tableID := chi.URLParam(r, "tableID")

	var req tableRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if req.Headers == nil || req.Rows == nil {
		respondError(w, r, errEmptyTableData, http.StatusBadRequest)
		return
	}

	if err := edits.SaveTable(tableID, req.Headers, req.Rows); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	view, _ := edits.Table(tableID)
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleResetTable(w http.ResponseWriter, r *http.Request) {
	edits, ok := s.editState(w, r)
	if !ok {
		return
	}
	tableID := chi.URLParam(r, "tableID")

	if err := edits.ResetTable(tableID); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	view, _ := edits.Table(tableID)
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleTransformTable(w http.ResponseWriter, r *http.Request) {
	edits, ok := s.editState(w, r)
	if !ok {
		return
	}
	tableID := chi.URLParam(r, "tableID")

	if err := edits.TransformTable(r.Context(), tableID); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	view, _ := edits.Table(tableID)
	logging.WithFields(r.Context(), "table_id", tableID, "version", view.Version).Info("table transformed")
	writeJSON(w, http.StatusOK, view)
}
