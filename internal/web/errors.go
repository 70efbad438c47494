package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err, statusCode), usually via statusFor(err)
//  3. Error is mapped via core.MapError to get a user-friendly message
//  4. Technical error is logged with the request ID for correlation
//  5. User message is rendered as JSON, an HTMX fragment, or plain text

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sreynich-nang/frontend-PDF-extraction/internal/core"
	"github.com/sreynich-nang/frontend-PDF-extraction/internal/extraction"
	"github.com/sreynich-nang/frontend-PDF-extraction/internal/logging"
	"github.com/sreynich-nang/frontend-PDF-extraction/internal/web/templates"
)

var (
	errNoFile         = errors.New("no file provided")
	errInvalidBody    = errors.New("invalid request body")
	errUnknownFormat  = errors.New("invalid request body: unknown export format")
	errEmptyTableData = errors.New("invalid request body: headers and rows are required")
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for an error returned by core.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrUnknownTable), errors.Is(err, core.ErrNoDocument):
		return http.StatusNotFound
	case errors.Is(err, core.ErrDocumentNotReady), errors.Is(err, core.ErrSuperseded),
		errors.Is(err, core.ErrAlreadyComplete):
		return http.StatusConflict
	case errors.Is(err, core.ErrTidyShapeMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNoTransformer):
		return http.StatusNotImplemented
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrEmptyFile), errors.Is(err, errNoFile), errors.Is(err, errInvalidBody),
		errors.Is(err, errUnknownFormat), errors.Is(err, errEmptyTableData):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusServiceUnavailable
	case extraction.IsRemote(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs the technical error and writes the mapped user message.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	switch {
	case isHTMX(r):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(statusCode)
		_ = templates.ErrorAlert(userMsg.Message, userMsg.Action, userMsg.Code).Render(r.Context(), w)
	case wantsJSON(r):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_ = json.NewEncoder(w).Encode(ErrorResponse{
			Error:   userMsg.Message,
			Message: userMsg.Message,
			Action:  userMsg.Action,
			Code:    userMsg.Code,
		})
	default:
		http.Error(w, userMsg.Message+" ("+userMsg.Code+")", statusCode)
	}
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers a JSON response. API routes always do.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json") ||
		strings.HasPrefix(r.URL.Path, "/api/")
}
