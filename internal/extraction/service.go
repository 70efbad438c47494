// Package extraction is the client side of the remote extraction service.
//
// The service receives an uploaded file, generates text from it, locates the
// tables inside it, and can reshape a table into tidy form. This package only
// describes and calls that service; it has no knowledge of documents, edits,
// or sessions.
package extraction

import (
	"context"
	"errors"
	"fmt"
)

// Service is the set of remote calls the orchestrator and the edit layer depend on.
// Every method blocks until the remote side answers or ctx is done.
type Service interface {
	// Submit uploads a file and returns the identifier used by all later calls.
	Submit(ctx context.Context, data []byte, name string) (SubmitResult, error)

	// FetchGeneratedText returns the generated text for a submitted document.
	FetchGeneratedText(ctx context.Context, documentID string) (string, error)

	// RequestTableExtraction asks the service to locate tables in the document.
	RequestTableExtraction(ctx context.Context, documentID string) (TableExtraction, error)

	// FetchTable returns the raw delimited text of one extracted table.
	FetchTable(ctx context.Context, documentID, location string) (string, error)

	// TransformToTidy reshapes rows into tidy form.
	TransformToTidy(ctx context.Context, rows [][]string, tableIndex int) (TidyTable, error)
}

// SubmitResult is the response to a file submission.
type SubmitResult struct {
	DocumentID string `json:"document_id"`
}

// TableExtraction lists the tables found in a document, in extraction order.
type TableExtraction struct {
	TableCount int      `json:"table_count"`
	Locations  []string `json:"table_locations"`
}

// TidyTable is the successful result of a tidy transform.
// Headers is empty when the service did not return a header row.
type TidyTable struct {
	Headers []string
	Rows    [][]string
}

// HasHeaders reports whether the service supplied its own header row. An
// empty header array counts as no header row.
func (t TidyTable) HasHeaders() bool {
	return len(t.Headers) > 0
}

// Remote operation names, used in errors and logs.
const (
	OpSubmit          = "submit"
	OpFetchText       = "fetch generated text"
	OpRequestTables   = "request table extraction"
	OpFetchTable      = "fetch table"
	OpTransformToTidy = "tidy transform"
)

// ErrEmptyDocumentID is returned when submit succeeds but yields no identifier.
var ErrEmptyDocumentID = errors.New("extraction service returned an empty document id")

// RemoteError is a failure reported by, or while talking to, the extraction service.
// Message is the service's own message when it sent one.
type RemoteError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Message != "" && e.StatusCode != 0:
		return fmt.Sprintf("%s failed (status %d): %s", e.Op, e.StatusCode, e.Message)
	case e.Message != "":
		return fmt.Sprintf("%s failed: %s", e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s failed (status %d)", e.Op, e.StatusCode)
	default:
		return e.Op + " failed"
	}
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsRemote reports whether err came from the extraction service boundary.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}
