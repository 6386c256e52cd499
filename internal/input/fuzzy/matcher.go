package fuzzy

import (
	"fmt"
	"regexp"
	"strings"
)

// gap is the lazy "any characters" separator placed between query characters.
const gap = ".*?"

// Match describes where a pattern matched a candidate.
type Match struct {
	// Start is the byte offset of the first matched character.
	Start int

	// Length is the byte length of the matched span (end - start).
	Length int
}

// End returns the byte offset just past the matched span.
func (m Match) End() int {
	return m.Start + m.Length
}

// Score returns Start+Length. Smaller is better: earlier and tighter spans win.
func (m Match) Score() int {
	return m.Start + m.Length
}

// Pattern is a compiled, case-insensitive matcher.
// A Pattern with a nil expression matches everything.
type Pattern struct {
	query string
	re    *regexp.Regexp
}

// Compile builds an ordered-subsequence pattern for query.
func Compile(query string) (*Pattern, error) {
	if query == "" {
		return &Pattern{}, nil
	}

	parts := make([]string, 0, len(query))
	for _, r := range query {
		parts = append(parts, EscapePattern(string(r)))
	}

	re, err := regexp.Compile("(?i)" + strings.Join(parts, gap))
	if err != nil {
		return nil, fmt.Errorf("compile fuzzy pattern %q: %w", query, err)
	}
	return &Pattern{query: query, re: re}, nil
}

// CompileLiteral builds a case-insensitive pattern matching term literally.
// Used for in-document text search.
func CompileLiteral(term string) (*Pattern, error) {
	if term == "" {
		return &Pattern{}, nil
	}

	re, err := regexp.Compile("(?i)" + EscapePattern(term))
	if err != nil {
		return nil, fmt.Errorf("compile literal pattern %q: %w", term, err)
	}
	return &Pattern{query: term, re: re}, nil
}

// Query returns the text the pattern was compiled from.
func (p *Pattern) Query() string {
	return p.query
}

// IsEmpty reports whether the pattern was compiled from an empty query.
func (p *Pattern) IsEmpty() bool {
	return p.re == nil
}

// Match reports the first match of the pattern in s.
func (p *Pattern) Match(s string) (Match, bool) {
	if p.re == nil {
		return Match{}, true
	}
	loc := p.re.FindStringIndex(s)
	if loc == nil {
		return Match{}, false
	}
	return Match{Start: loc[0], Length: loc[1] - loc[0]}, true
}

// MatchString reports whether the pattern matches s.
func (p *Pattern) MatchString(s string) bool {
	if p.re == nil {
		return true
	}
	return p.re.MatchString(s)
}

// FindAll returns up to n non-overlapping matches in s (n < 0 means all).
// An empty pattern finds nothing.
func (p *Pattern) FindAll(s string, n int) []Match {
	if p.re == nil {
		return nil
	}
	locs := p.re.FindAllStringIndex(s, n)
	matches := make([]Match, 0, len(locs))
	for _, loc := range locs {
		matches = append(matches, Match{Start: loc[0], Length: loc[1] - loc[0]})
	}
	return matches
}
