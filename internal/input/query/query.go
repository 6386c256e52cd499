// Package query parses palette input into a mode-independent Query value.
//
// Input is split by three sentinels: ':' introduces a line number, '#' a
// text search and '@' a symbol reference. Everything before the first
// sentinel names a file. The rules are independent extractions, not a
// grammar, so one input may carry several parts at once:
//
//	foo.js:12      file "foo.js", line 11 (zero-based)
//	util#TODO      file "util", search "TODO"
//	@render        reference "render"
package query

import (
	"regexp"
	"strconv"
)

// Sentinel characters.
const (
	LineSentinel      = ':'
	SearchSentinel    = '#'
	ReferenceSentinel = '@'
)

var (
	fileRe      = regexp.MustCompile(`^([^:#@]*)`)
	lineRe      = regexp.MustCompile(`:(\d*)`)
	searchRe    = regexp.MustCompile(`#([^:@]*)`)
	referenceRe = regexp.MustCompile(`@([^:#]*)`)
)

// Kind identifies which sub-query governs candidate sourcing.
type Kind uint8

const (
	// KindNone means no sub-field is present.
	KindNone Kind = iota
	KindFile
	KindLine
	KindSearch
	KindReference
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindLine:
		return "line"
	case KindSearch:
		return "search"
	case KindReference:
		return "reference"
	default:
		return "none"
	}
}

// Query is the parsed form of one palette input. It is a value type and is
// never modified after Parse returns.
type Query struct {
	// Raw is the unparsed input.
	Raw string

	File    string
	HasFile bool

	// Line is zero-based.
	Line    int
	HasLine bool

	Search    string
	HasSearch bool

	Reference    string
	HasReference bool
}

// Parse extracts every sub-field from raw.
//
// The file part is present only when non-empty. The line part is present
// whenever ':' occurs; digits are converted to zero-based and clamped at 0,
// and a bare ':' targets the first line.
// Search and reference parts are present whenever their sentinel occurs, even
// with no text after it.
func Parse(raw string) Query {
	q := Query{Raw: raw}

	if m := fileRe.FindStringSubmatch(raw); m != nil && m[1] != "" {
		q.File = m[1]
		q.HasFile = true
	}

	if m := lineRe.FindStringSubmatch(raw); m != nil {
		q.HasLine = true
		if n, err := strconv.Atoi(m[1]); err == nil {
			q.Line = max(n-1, 0)
		}
	}

	if m := searchRe.FindStringSubmatch(raw); m != nil {
		q.Search = m[1]
		q.HasSearch = true
	}

	if m := referenceRe.FindStringSubmatch(raw); m != nil {
		q.Reference = m[1]
		q.HasReference = true
	}

	return q
}

// Kind reports the sub-query that governs sourcing: search, then reference,
// then file, then line.
func (q Query) Kind() Kind {
	switch {
	case q.HasSearch:
		return KindSearch
	case q.HasReference:
		return KindReference
	case q.HasFile:
		return KindFile
	case q.HasLine:
		return KindLine
	default:
		return KindNone
	}
}

// ForcesLocation reports whether raw starts with a sentinel, which takes the
// palette out of command mode.
func ForcesLocation(raw string) bool {
	if raw == "" {
		return false
	}
	switch raw[0] {
	case LineSentinel, SearchSentinel, ReferenceSentinel:
		return true
	}
	return false
}
