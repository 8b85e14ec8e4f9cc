// Package export renders issue lineups as printable PDFs.
package export

import (
	"errors"
	"time"
)

// IssueInfo holds the issue metadata shown in the lineup header.
type IssueInfo struct {
	ID          string
	Name        string
	Type        string
	ReleaseDate time.Time
}

// PitchInfo holds one pitch row of the lineup.
type PitchInfo struct {
	ID                 string
	Title              string
	Description        string
	IssueStatus        string // MAYBE_IN or DEFINITELY_IN
	Writer             string
	PrimaryEditor      string
	EditStatus         string
	FactCheckingStatus string
	VisualStatus       string
	LayoutStatus       string
	WordCount          int
	PageCount          int
}

// Result contains the export output.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// ErrPDFDependencyMissing indicates the headless browser needed for PDF
// rendering is not installed on this host.
var ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
