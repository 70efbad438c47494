package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout is used when no HTTP timeout is configured.
const DefaultTimeout = 2 * time.Minute

// DefaultMaxResponseSize caps a successful response body when no limit is configured.
const DefaultMaxResponseSize = 64 << 20

// maxErrorBody caps how much of an error response is kept as the message.
const maxErrorBody = 4 << 10

// ErrResponseTooLarge is returned when a response body exceeds the configured cap.
var ErrResponseTooLarge = errors.New("response too large")

// HTTPClient talks to the extraction service over HTTP.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	maxBody    int64
	httpClient *http.Client
	logger     *slog.Logger
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPClient) { h.httpClient = c }
}

// WithAPIKey sends key as a bearer token on every request.
func WithAPIKey(key string) HTTPOption {
	return func(h *HTTPClient) { h.apiKey = key }
}

// WithMaxResponseSize caps successful response bodies at n bytes.
func WithMaxResponseSize(n int64) HTTPOption {
	return func(h *HTTPClient) {
		if n > 0 {
			h.maxBody = n
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) HTTPOption {
	return func(h *HTTPClient) { h.logger = l }
}

// NewHTTPClient creates a client for the service rooted at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration, opts ...HTTPOption) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	h := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxBody:    DefaultMaxResponseSize,
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Submit uploads the file as multipart form field "file".
func (h *HTTPClient) Submit(ctx context.Context, data []byte, name string) (SubmitResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return SubmitResult{}, &RemoteError{Op: OpSubmit, Err: fmt.Errorf("build form: %w", err)}
	}
	if _, err := part.Write(data); err != nil {
		return SubmitResult{}, &RemoteError{Op: OpSubmit, Err: fmt.Errorf("build form: %w", err)}
	}
	if err := mw.Close(); err != nil {
		return SubmitResult{}, &RemoteError{Op: OpSubmit, Err: fmt.Errorf("build form: %w", err)}
	}

	raw, err := h.do(ctx, OpSubmit, http.MethodPost, "/documents", nil, &body, mw.FormDataContentType())
	if err != nil {
		return SubmitResult{}, err
	}

	var res SubmitResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return SubmitResult{}, &RemoteError{Op: OpSubmit, Err: fmt.Errorf("decode response: %w", err)}
	}
	if res.DocumentID == "" {
		return SubmitResult{}, &RemoteError{Op: OpSubmit, Err: ErrEmptyDocumentID}
	}
	return res, nil
}

// FetchGeneratedText returns the decoded body of GET /documents/{id}/text.
func (h *HTTPClient) FetchGeneratedText(ctx context.Context, documentID string) (string, error) {
	raw, err := h.do(ctx, OpFetchText, http.MethodGet, "/documents/"+url.PathEscape(documentID)+"/text", nil, nil, "")
	if err != nil {
		return "", err
	}
	return decodeText(OpFetchText, raw)
}

// RequestTableExtraction calls POST /documents/{id}/tables.
func (h *HTTPClient) RequestTableExtraction(ctx context.Context, documentID string) (TableExtraction, error) {
	raw, err := h.do(ctx, OpRequestTables, http.MethodPost, "/documents/"+url.PathEscape(documentID)+"/tables", nil, nil, "")
	if err != nil {
		return TableExtraction{}, err
	}

	var res TableExtraction
	if err := json.Unmarshal(raw, &res); err != nil {
		return TableExtraction{}, &RemoteError{Op: OpRequestTables, Err: fmt.Errorf("decode response: %w", err)}
	}
	if res.TableCount == 0 {
		res.TableCount = len(res.Locations)
	}
	return res, nil
}

// FetchTable returns the decoded raw text stored at location.
func (h *HTTPClient) FetchTable(ctx context.Context, documentID, location string) (string, error) {
	q := url.Values{"location": []string{location}}
	raw, err := h.do(ctx, OpFetchTable, http.MethodGet, "/documents/"+url.PathEscape(documentID)+"/tables", q, nil, "")
	if err != nil {
		return "", err
	}
	return decodeText(OpFetchTable, raw)
}

type tidyRequest struct {
	Rows       [][]string `json:"rows"`
	TableIndex int        `json:"table_index"`
}

// TransformToTidy posts rows to /tidy and resolves the tagged response.
func (h *HTTPClient) TransformToTidy(ctx context.Context, rows [][]string, tableIndex int) (TidyTable, error) {
	if rows == nil {
		rows = [][]string{}
	}
	bs, err := json.Marshal(tidyRequest{Rows: rows, TableIndex: tableIndex})
	if err != nil {
		return TidyTable{}, &RemoteError{Op: OpTransformToTidy, Err: fmt.Errorf("encode request: %w", err)}
	}

	raw, err := h.do(ctx, OpTransformToTidy, http.MethodPost, "/tidy", nil, bytes.NewReader(bs), "application/json")
	if err != nil {
		return TidyTable{}, err
	}
	return DecodeTidyResponse(raw)
}

// do performs one request and returns the body of a 2xx response.
func (h *HTTPClient) do(ctx context.Context, op, method, path string, query url.Values, body io.Reader, contentType string) ([]byte, error) {
	reqID := uuid.NewString()
	start := time.Now()

	u := h.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, &RemoteError{Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Request-Id", reqID)
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	h.logger.Debug("extraction.http.request", "req_id", reqID, "op", op, "method", method, "url", u)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		h.logger.Error("extraction.http.send_error",
			"req_id", reqID,
			"op", op,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, &RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBody+1))
	if err != nil {
		return nil, &RemoteError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	h.logger.Debug("extraction.http.response",
		"req_id", reqID,
		"op", op,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return nil, &RemoteError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}
	if int64(len(raw)) > h.maxBody {
		h.logger.Warn("extraction.http.response_too_large",
			"req_id", reqID, "op", op, "limit", h.maxBody)
		return nil, &RemoteError{Op: op, StatusCode: resp.StatusCode,
			Err: fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, h.maxBody)}
	}
	return raw, nil
}

// errorMessage pulls a message out of an error body, preferring the JSON
// fields the service uses and falling back to the trimmed text.
func errorMessage(raw []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		for _, m := range []string{payload.Error, payload.Detail, payload.Message} {
			if m != "" {
				return m
			}
		}
	}

	if len(raw) > maxErrorBody {
		raw = raw[:maxErrorBody]
	}
	return strings.TrimSpace(string(raw))
}

// tidyResponse is the wire shape of /tidy. Status selects the variant.
type tidyResponse struct {
	Status  string     `json:"status"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
	Message string     `json:"message"`
	Error   string     `json:"error"`
}

// DecodeTidyResponse resolves a tidy response body into a TidyTable or a
// *RemoteError. A body without a status is treated as success when it carries
// rows and no error message.
func DecodeTidyResponse(raw []byte) (TidyTable, error) {
	var resp tidyResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return TidyTable{}, &RemoteError{Op: OpTransformToTidy, Err: fmt.Errorf("decode response: %w", err)}
	}

	msg := resp.Message
	if msg == "" {
		msg = resp.Error
	}

	switch strings.ToLower(resp.Status) {
	case "ok", "success":
	case "error", "failure", "failed":
		if msg == "" {
			msg = "transform rejected"
		}
		return TidyTable{}, &RemoteError{Op: OpTransformToTidy, Message: msg}
	case "":
		if msg != "" {
			return TidyTable{}, &RemoteError{Op: OpTransformToTidy, Message: msg}
		}
		if resp.Rows == nil {
			return TidyTable{}, &RemoteError{Op: OpTransformToTidy, Message: "response has no rows"}
		}
	default:
		return TidyTable{}, &RemoteError{Op: OpTransformToTidy, Message: fmt.Sprintf("unknown status %q", resp.Status)}
	}

	headers := resp.Headers
	if len(headers) == 0 {
		headers = nil
	}
	rows := resp.Rows
	if rows == nil {
		rows = [][]string{}
	}
	return TidyTable{Headers: headers, Rows: rows}, nil
}
