package web

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/sreynich-nang/frontend-PDF-extraction/internal/config"
	"github.com/sreynich-nang/frontend-PDF-extraction/internal/core"
	"github.com/sreynich-nang/frontend-PDF-extraction/internal/extraction"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second},
		Extraction: config.ExtractionConfig{
			Mock:             true,
			TableConcurrency: 2,
		},
		Upload: config.UploadConfig{
			MaxFileSize:   1 << 20,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
			Timeout:       10 * time.Second,
		},
		Security: config.SecurityConfig{EnableCSP: true},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := core.NewService(extraction.NewMock(), core.ServiceConfig{
		MaxFileSize:      cfg.Upload.MaxFileSize,
		MaxConcurrent:    cfg.Upload.MaxConcurrent,
		MaxWaitTime:      cfg.Upload.MaxWaitTime,
		UploadTimeout:    cfg.Upload.Timeout,
		TableConcurrency: cfg.Extraction.TableConcurrency,
	}, logger)
	s := NewServer(svc, cfg)
	t.Cleanup(func() { _ = s.Shutdown(t.Context()) })
	return s
}

func uploadRequest(t *testing.T, field, name string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, name)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(data)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func mustUpload(t *testing.T, s *Server) documentResponse {
	t.Helper()
	rec := serve(s, uploadRequest(t, "file", "report.pdf", []byte("%PDF-1.7 test")))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body %s", rec.Code, rec.Body)
	}
	return decode[documentResponse](t, rec)
}

func TestServer_UploadAndGetDocument(t *testing.T) {
	s := newTestServer(t, testConfig())

	doc := mustUpload(t, s)
	if doc.Status != core.StatusCompleted || doc.Kind != core.KindPDF {
		t.Fatalf("upload = %+v", doc)
	}
	if doc.Text == nil || doc.Text.Filename != "report.md" {
		t.Errorf("Text = %+v", doc.Text)
	}
	if len(doc.Tables) != 2 || doc.Tables[0].ID != "table-0" || doc.Tables[1].Filename != "report_table_2.csv" {
		t.Errorf("Tables = %+v", doc.Tables)
	}
	if got := doc.Tables[1].Rows[0]; !reflect.DeepEqual(got, []string{"North", "Smith, J", "on track"}) {
		t.Errorf("quoted row = %q", got)
	}

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/document", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/document status = %d", rec.Code)
	}
	if got := decode[documentResponse](t, rec); got.ID != doc.ID {
		t.Errorf("current document = %s, want %s", got.ID, doc.ID)
	}
}

func TestServer_UploadErrors(t *testing.T) {
	tests := []struct {
		name     string
		req      func(t *testing.T) *http.Request
		wantCode int
		wantErr  string
	}{
		{
			name:     "missing file field",
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, "other", "a.pdf", []byte("%PDF")) },
			wantCode: http.StatusBadRequest,
			wantErr:  "FILE003",
		},
		{
			name:     "unsupported type",
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, "file", "notes.txt", []byte("plain words")) },
			wantCode: http.StatusUnsupportedMediaType,
			wantErr:  "FILE002",
		},
		{
			name:     "empty file",
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, "file", "a.pdf", nil) },
			wantCode: http.StatusBadRequest,
			wantErr:  "FILE004",
		},
		{
			name: "too large",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "file", "big.pdf", append([]byte("%PDF"), make([]byte, 1<<20)...))
			},
			wantCode: http.StatusRequestEntityTooLarge,
			wantErr:  "FILE001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, testConfig())
			rec := serve(s, tt.req(t))
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantCode, rec.Body)
			}
			if got := decode[ErrorResponse](t, rec); got.Code != tt.wantErr {
				t.Errorf("code = %q, want %q", got.Code, tt.wantErr)
			}
		})
	}
}

func TestServer_NoDocument(t *testing.T) {
	s := newTestServer(t, testConfig())

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/document", nil),
		jsonRequest(http.MethodPut, "/api/document/text", `{"content":"x"}`),
		httptest.NewRequest(http.MethodGet, "/api/document/tables/table-0/export", nil),
	} {
		rec := serve(s, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s status = %d, want 404", req.Method, req.URL.Path, rec.Code)
		}
		if got := decode[ErrorResponse](t, rec); got.Code != "DOC001" {
			t.Errorf("%s %s code = %q, want DOC001", req.Method, req.URL.Path, got.Code)
		}
	}
}

func TestServer_EditText(t *testing.T) {
	s := newTestServer(t, testConfig())
	mustUpload(t, s)

	rec := serve(s, jsonRequest(http.MethodPut, "/api/document/text", `{"content":"# Edited\n"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT text status = %d, body %s", rec.Code, rec.Body)
	}
	view := decode[core.TextView](t, rec)
	if view.Content != "# Edited\n" || !view.Edited || view.Version != 1 {
		t.Errorf("TextView = %+v", view)
	}

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/document/text/export", nil))
	if rec.Body.String() != "# Edited\n" {
		t.Errorf("export body = %q", rec.Body.String())
	}
	if got := rec.Header().Get("ETag"); got != `"text@1"` {
		t.Errorf("ETag = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "report.md") {
		t.Errorf("Content-Disposition = %q", got)
	}

	rec = serve(s, httptest.NewRequest(http.MethodDelete, "/api/document/text", nil))
	if view := decode[core.TextView](t, rec); view.Edited || view.Version != 2 {
		t.Errorf("after reset TextView = %+v", view)
	}

	rec = serve(s, jsonRequest(http.MethodPut, "/api/document/text", `{"body":"x"}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad body status = %d, want 400", rec.Code)
	}
}

func TestServer_EditTableAndTransform(t *testing.T) {
	s := newTestServer(t, testConfig())
	mustUpload(t, s)

	body := `{"headers":["Quarter","Revenue"],"rows":[["Q1","120"],["Q2","135"]]}`
	rec := serve(s, jsonRequest(http.MethodPut, "/api/document/tables/table-0", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT table status = %d, body %s", rec.Code, rec.Body)
	}

	rec = serve(s, httptest.NewRequest(http.MethodPost, "/api/document/tables/table-0/transform", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("transform status = %d, body %s", rec.Code, rec.Body)
	}
	view := decode[core.TableView](t, rec)
	if !reflect.DeepEqual(view.Headers, []string{"id", "variable", "value"}) {
		t.Errorf("Headers = %v", view.Headers)
	}
	if !reflect.DeepEqual(view.Rows, [][]string{{"Q1", "column_2", "120"}, {"Q2", "column_2", "135"}}) {
		t.Errorf("Rows = %v", view.Rows)
	}
	if view.Version != 2 {
		t.Errorf("Version = %d, want 2", view.Version)
	}

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/document/tables/table-0/export?format=csv", nil))
	want := "id,variable,value\nQ1,column_2,120\nQ2,column_2,135"
	if rec.Body.String() != want {
		t.Errorf("csv export = %q, want %q", rec.Body.String(), want)
	}

	rec = serve(s, httptest.NewRequest(http.MethodDelete, "/api/document/tables/table-0", nil))
	if view := decode[core.TableView](t, rec); view.Edited || view.Headers[0] != "Quarter" || len(view.Rows) != 3 {
		t.Errorf("after reset = %+v", view)
	}
}

func TestServer_TableErrors(t *testing.T) {
	s := newTestServer(t, testConfig())
	mustUpload(t, s)

	tests := []struct {
		name     string
		req      *http.Request
		wantCode int
		wantErr  string
	}{
		{"unknown table save", jsonRequest(http.MethodPut, "/api/document/tables/table-7", `{"headers":[],"rows":[]}`), http.StatusNotFound, "EDIT001"},
		{"unknown table transform", httptest.NewRequest(http.MethodPost, "/api/document/tables/table-7/transform", nil), http.StatusNotFound, "EDIT001"},
		{"missing rows", jsonRequest(http.MethodPut, "/api/document/tables/table-0", `{"headers":["a"]}`), http.StatusBadRequest, "FILE005"},
		{"malformed json", jsonRequest(http.MethodPut, "/api/document/tables/table-0", `{"headers":`), http.StatusBadRequest, "FILE005"},
		{"unknown format", httptest.NewRequest(http.MethodGet, "/api/document/tables/table-0/export?format=pdf", nil), http.StatusBadRequest, "FILE005"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, tt.req)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantCode, rec.Body)
			}
			if got := decode[ErrorResponse](t, rec); got.Code != tt.wantErr {
				t.Errorf("code = %q, want %q", got.Code, tt.wantErr)
			}
		})
	}
}

func TestServer_ExportXLSX(t *testing.T) {
	s := newTestServer(t, testConfig())
	mustUpload(t, s)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/document/tables/table-1/export?format=xlsx", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "report_table_2.xlsx") {
		t.Errorf("Content-Disposition = %q", got)
	}

	f, err := excelize.OpenReader(rec.Body)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("report_table_2")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 || rows[1][1] != "Smith, J" {
		t.Errorf("rows = %q", rows)
	}
}

func TestServer_IndexAndHealth(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(rec.Body.String(), "No document uploaded yet") {
		t.Errorf("empty index = %s", rec.Body)
	}

	mustUpload(t, s)
	rec = serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	body := rec.Body.String()
	for _, want := range []string{"report.pdf", "report.md", "report_table_1.csv", "/api/document/tables/table-1/export?format=xlsx"} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("missing CSP header")
	}

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("healthz = %d %s", rec.Code, rec.Body)
	}
}

func TestServer_HTMXErrorFragment(t *testing.T) {
	s := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/document", nil)
	req.Header.Set("HX-Request", "true")
	rec := serve(s, req)

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Code: DOC001") {
		t.Errorf("fragment = %s", rec.Body)
	}
}

func TestServer_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}
	s := newTestServer(t, cfg)

	for i := 0; i < 2; i++ {
		if rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
}
