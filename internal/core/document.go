package core

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a Document.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Kind is the source file category accepted for extraction.
type Kind string

const (
	KindPDF   Kind = "pdf"
	KindImage Kind = "image"
)

var (
	// ErrUnsupportedFileType is returned for files that are neither PDF nor image.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrEmptyFile is returned when the uploaded file has no content.
	ErrEmptyFile = errors.New("empty file")

	// ErrFileTooLarge is returned when the upload exceeds the configured size.
	ErrFileTooLarge = errors.New("file too large")
)

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".webp": true, ".bmp": true, ".tif": true, ".tiff": true,
}

// Upload is a file handed to the client for extraction.
type Upload struct {
	Name string
	Data []byte
}

// DetectKind classifies an upload by extension and sniffed content type.
func DetectKind(name string, data []byte) (Kind, error) {
	ext := strings.ToLower(filepath.Ext(name))
	sniffed := http.DetectContentType(data)

	switch {
	case ext == ".pdf" || sniffed == "application/pdf":
		return KindPDF, nil
	case imageExtensions[ext] || strings.HasPrefix(sniffed, "image/"):
		return KindImage, nil
	default:
		return "", fmt.Errorf("%w: %s (%s)", ErrUnsupportedFileType, name, sniffed)
	}
}

// TextArtifact is the generated text of a completed Document.
type TextArtifact struct {
	Content  string `json:"content"`
	Filename string `json:"filename"`
}

// TableArtifact is one extracted table of a completed Document.
//
// SourceIndex is the table's position in the service's extraction list; it
// differs from the position in Document.Tables when earlier tables were dropped.
type TableArtifact struct {
	ID          string     `json:"id"`
	Filename    string     `json:"filename"`
	SourceIndex int        `json:"source_index"`
	Headers     []string   `json:"headers"`
	Rows        [][]string `json:"rows"`
}

// Document is one upload and its extraction result.
//
// A Document is never modified after it reaches a terminal status; edits live
// in an EditState layered over it.
type Document struct {
	ID          string          `json:"id"`
	DisplayName string          `json:"display_name"`
	Kind        Kind            `json:"kind"`
	CreatedAt   time.Time       `json:"created_at"`
	Status      Status          `json:"status"`
	RemoteID    string          `json:"remote_id,omitempty"`
	Failure     string          `json:"failure,omitempty"`
	Text        *TextArtifact   `json:"text,omitempty"`
	Tables      []TableArtifact `json:"tables"`

	err error
}

// NewDocument validates an upload and returns it as a processing Document.
func NewDocument(up Upload, now time.Time) (*Document, error) {
	if len(up.Data) == 0 {
		return nil, ErrEmptyFile
	}
	kind, err := DetectKind(up.Name, up.Data)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(up.Name)
	if name == "." || name == string(filepath.Separator) {
		name = "upload"
	}

	return &Document{
		ID:          uuid.NewString(),
		DisplayName: name,
		Kind:        kind,
		CreatedAt:   now,
		Status:      StatusProcessing,
		Tables:      []TableArtifact{},
	}, nil
}

// Err returns the failure that moved the Document to error, if any.
func (d *Document) Err() error {
	return d.err
}

// Table returns the table with the given id.
func (d *Document) Table(id string) (TableArtifact, bool) {
	for _, t := range d.Tables {
		if t.ID == id {
			return t, true
		}
	}
	return TableArtifact{}, false
}

// complete returns the completed copy of a processing Document.
func (d *Document) complete(remoteID string, text TextArtifact, tables []TableArtifact) *Document {
	done := *d
	done.Status = StatusCompleted
	done.RemoteID = remoteID
	done.Text = &text
	if tables == nil {
		tables = []TableArtifact{}
	}
	done.Tables = tables
	return &done
}

// fail returns the errored copy of a processing Document. No artifacts are kept.
func (d *Document) fail(remoteID string, err error) *Document {
	failed := *d
	failed.Status = StatusError
	failed.RemoteID = remoteID
	failed.Failure = err.Error()
	failed.Text = nil
	failed.Tables = []TableArtifact{}
	failed.err = err
	return &failed
}

// baseName is the display name without its extension.
func (d *Document) baseName() string {
	base := strings.TrimSuffix(d.DisplayName, filepath.Ext(d.DisplayName))
	if base == "" {
		return d.DisplayName
	}
	return base
}

// TextFilename is the download name of the generated text.
func (d *Document) TextFilename() string {
	return d.baseName() + ".md"
}

// TableFilename is the download name of the table at position i.
func (d *Document) TableFilename(i int) string {
	return fmt.Sprintf("%s_table_%d.csv", d.baseName(), i+1)
}

// TableID is the stable id of the table at position i.
func TableID(i int) string {
	return fmt.Sprintf("table-%d", i)
}
