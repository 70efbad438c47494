// Package templates renders the HTML pages and fragments served by the web
// package. Components are written in .templ files; run `templ generate` after
// editing them.
package templates

// TableSummary is one table row of the document page.
type TableSummary struct {
	ID       string
	Filename string
	Columns  int
	Rows     int
	Edited   bool
}

// DocumentPage is the view model of the index page.
type DocumentPage struct {
	Loaded      bool
	DisplayName string
	Kind        string
	Status      string
	Failure     string
	Version     uint64
	TextFile    string
	TextEdited  bool
	Tables      []TableSummary
}
