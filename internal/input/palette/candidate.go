package palette

import (
	"fmt"

	"github.com/dshills/quickjump/internal/engine/document"
)

// MaxResults bounds every result list.
const MaxResults = 10

// Commands dispatched on confirmation of non-action candidates.
const (
	CommandOpenFile  = "project:open-file"
	CommandCheckFile = "session:check-file"
)

// Candidate is one palette result. The set of implementations is closed:
// ActionCandidate, FileCandidate, LocationCandidate and ReferenceCandidate.
type Candidate interface {
	// Label is the primary display text.
	Label() string

	// Sublabel is the secondary display text, possibly empty.
	Sublabel() string

	candidate()
}

// ActionCandidate is a command from the menu tree or the action registry.
type ActionCandidate struct {
	// Name is the menu label.
	Name string

	// PaletteName overrides Name in the palette when set.
	PaletteName string

	CommandID   string
	Argument    any
	RetainFocus bool
}

// Label returns the palette name, falling back to the menu name.
func (c ActionCandidate) Label() string {
	if c.PaletteName != "" {
		return c.PaletteName
	}
	return c.Name
}

// Sublabel returns the command id.
func (c ActionCandidate) Sublabel() string { return c.CommandID }

func (ActionCandidate) candidate() {}

// FileCandidate is an indexed project path.
type FileCandidate struct {
	DisplayName string
	FullPath    string
}

// Label returns the last path segment.
func (c FileCandidate) Label() string { return c.DisplayName }

// Sublabel returns the full path.
func (c FileCandidate) Sublabel() string { return c.FullPath }

func (FileCandidate) candidate() {}

// LocationCandidate is an open document, optionally at a line. Line and
// Column are -1 when absent.
type LocationCandidate struct {
	Document *document.Document
	Line     int
	Column   int

	// Preview is the display-escaped target line, empty for plain documents.
	Preview string
}

// Label returns the document name.
func (c LocationCandidate) Label() string { return c.Document.Name() }

// Sublabel returns the preview, or the document path when there is none.
func (c LocationCandidate) Sublabel() string {
	if c.Preview != "" {
		return c.Preview
	}
	return c.Document.Path()
}

func (LocationCandidate) candidate() {}

// ReferenceCandidate is a symbol occurrence inside an open document.
type ReferenceCandidate struct {
	Document *document.Document
	Line     int
	Column   int
	Symbol   string
	Preview  string
}

// Label returns "name:line" with a one-based line.
func (c ReferenceCandidate) Label() string {
	return fmt.Sprintf("%s:%d", c.Document.Name(), c.Line+1)
}

// Sublabel returns the preview of the source line.
func (c ReferenceCandidate) Sublabel() string { return c.Preview }

func (ReferenceCandidate) candidate() {}

// kindOf names the candidate variant for logs and metrics.
func kindOf(c Candidate) string {
	switch c.(type) {
	case ActionCandidate:
		return "action"
	case FileCandidate:
		return "file"
	case LocationCandidate:
		return "location"
	case ReferenceCandidate:
		return "reference"
	default:
		panic(fmt.Sprintf("palette: unknown candidate %T", c))
	}
}

// target returns where c points inside an open document. Line and column
// are -1 when absent. ok is false for candidates outside any open document.
func target(c Candidate) (doc *document.Document, line, col int, ok bool) {
	switch c := c.(type) {
	case ActionCandidate, FileCandidate:
		return nil, -1, -1, false
	case LocationCandidate:
		return c.Document, c.Line, c.Column, c.Document != nil
	case ReferenceCandidate:
		return c.Document, c.Line, c.Column, c.Document != nil
	default:
		panic(fmt.Sprintf("palette: unknown candidate %T", c))
	}
}
