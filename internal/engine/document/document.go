// Package document holds open documents and the cursor state of the editor
// hosting the palette.
//
// A Document is an in-memory text with a stable identity. Text is addressed
// by byte offset; Point gives the equivalent zero-based line and column.
// Manager owns the set of open documents and implements the session,
// content and editor surfaces the palette drives.
package document

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Point represents a line and column position.
// Both Line and Column are 0-indexed; Column is measured in bytes.
type Point struct {
	Line   int
	Column int
}

// String returns a human-readable representation of the point.
func (p Point) String() string {
	return fmt.Sprintf("(%d:%d)", p.Line, p.Column)
}

// Compare returns -1 if p < other, 0 if p == other, 1 if p > other.
func (p Point) Compare(other Point) int {
	switch {
	case p.Line < other.Line:
		return -1
	case p.Line > other.Line:
		return 1
	case p.Column < other.Column:
		return -1
	case p.Column > other.Column:
		return 1
	}
	return 0
}

// Document is an open text document. It is safe for concurrent use.
type Document struct {
	id uuid.UUID

	mu         sync.RWMutex
	path       string
	language   string
	text       string
	lineStarts []int
	revision   uint64
}

// New creates a document for path holding text. Every document gets a fresh
// ID, so reopening the same path yields a distinct handle.
func New(path, text string) *Document {
	d := &Document{id: uuid.New(), path: path}
	d.setText(text)
	return d
}

// ID returns the unique identity of the document.
func (d *Document) ID() uuid.UUID {
	return d.id
}

// Key returns the ID in string form, suitable as a map or cache key.
func (d *Document) Key() string {
	return d.id.String()
}

// Path returns the file path of the document, which may be empty for
// unsaved buffers.
func (d *Document) Path() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.path
}

// Name returns the last path element, or "untitled".
func (d *Document) Name() string {
	p := d.Path()
	if p == "" {
		return "untitled"
	}
	return filepath.Base(p)
}

// Language returns the language assigned to the document.
func (d *Document) Language() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.language
}

// SetLanguage assigns the language used for tokenizing.
func (d *Document) SetLanguage(language string) {
	d.mu.Lock()
	d.language = language
	d.mu.Unlock()
}

// Text returns the full text.
func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text
}

// SetText replaces the full text.
func (d *Document) SetText(text string) {
	d.mu.Lock()
	d.setText(text)
	d.mu.Unlock()
}

func (d *Document) setText(text string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	d.text = text
	d.lineStarts = d.lineStarts[:0]
	d.lineStarts = append(d.lineStarts, 0)
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			d.lineStarts = append(d.lineStarts, i+1)
		}
	}
	d.revision++
}

// Revision increases on every SetText.
func (d *Document) Revision() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.revision
}

// LineCount returns the number of lines. An empty document has one line.
func (d *Document) LineCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.lineStarts)
}

// Line returns line i without its terminator, or "" when out of range.
func (d *Document) Line(i int) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i < 0 || i >= len(d.lineStarts) {
		return ""
	}
	start := d.lineStarts[i]
	end := len(d.text)
	if i+1 < len(d.lineStarts) {
		end = d.lineStarts[i+1] - 1
	}
	return d.text[start:end]
}

// OffsetToPoint converts a byte offset to a point. Offsets are clamped to
// the text.
func (d *Document) OffsetToPoint(offset int) Point {
	d.mu.RLock()
	defer d.mu.RUnlock()

	offset = min(max(offset, 0), len(d.text))
	line := sort.Search(len(d.lineStarts), func(i int) bool {
		return d.lineStarts[i] > offset
	}) - 1
	return Point{Line: line, Column: offset - d.lineStarts[line]}
}

// PointToOffset converts a point to a byte offset. Points past the end of a
// line or of the document are clamped.
func (d *Document) PointToOffset(p Point) int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if p.Line < 0 {
		return 0
	}
	if p.Line >= len(d.lineStarts) {
		return len(d.text)
	}
	start := d.lineStarts[p.Line]
	end := len(d.text)
	if p.Line+1 < len(d.lineStarts) {
		end = d.lineStarts[p.Line+1] - 1
	}
	return min(start+max(p.Column, 0), end)
}

// ClampPoint returns p moved inside the document.
func (d *Document) ClampPoint(p Point) Point {
	return d.OffsetToPoint(d.PointToOffset(p))
}

// WordAt returns the byte range on p's line of the word containing or
// starting at p. ok is false when p is not on a word character.
func (d *Document) WordAt(p Point) (start, end int, ok bool) {
	line := d.Line(p.Line)
	if p.Column < 0 || p.Column >= len(line) || !isWordByte(line[p.Column]) {
		return 0, 0, false
	}
	start, end = p.Column, p.Column
	for start > 0 && isWordByte(line[start-1]) {
		start--
	}
	for end < len(line) && isWordByte(line[end]) {
		end++
	}
	return start, end, true
}

func isWordByte(b byte) bool {
	return b == '_' || b == '$' || b >= 0x80 ||
		(b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
