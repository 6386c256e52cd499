package palette

import (
	"fmt"
	"strings"

	"github.com/dshills/quickjump/internal/engine/document"
	"github.com/dshills/quickjump/internal/input/fuzzy"
	"github.com/dshills/quickjump/internal/input/query"
	"github.com/dshills/quickjump/internal/metrics"
)

// abortError stops an evaluation pass. The previous results stay in place.
type abortError struct {
	reason string
	err    error
}

func (e *abortError) Error() string {
	return fmt.Sprintf("%s: %v", e.reason, e.err)
}

func (e *abortError) Unwrap() error {
	return e.err
}

// findLocations resolves a location-mode query. Document hits come first,
// file hits are appended, and the merged list is cut at MaxResults.
func (p *Palette) findLocations(q query.Query) ([]Candidate, error) {
	docs, files, err := p.domain(q)
	if err != nil {
		return nil, err
	}

	var hits []Candidate
	switch {
	case q.HasSearch:
		hits, err = p.searchText(docs, q.Search)
	case q.HasReference:
		hits, err = p.findReferences(docs, q.Reference)
	default:
		hits = documentHits(docs, q)
	}
	if err != nil {
		return nil, err
	}

	results := append(hits, files...)
	return results[:min(len(results), MaxResults)], nil
}

// domain selects the documents to scan. With a file part, those are the
// open documents whose name matches it, and the project file pool is
// narrowed and ranked as well. Without one, it is the home document plus,
// when searchAll is set, every other open document.
func (p *Palette) domain(q query.Query) ([]*document.Document, []Candidate, error) {
	if !q.HasFile {
		var docs []*document.Document
		if p.home != nil {
			docs = append(docs, p.home)
		}
		if p.searchAll {
			for _, doc := range p.sessions.OpenDocuments() {
				if doc != p.home {
					docs = append(docs, doc)
				}
			}
		}
		return docs, nil, nil
	}

	pat, err := p.patterns.Compile(strings.ReplaceAll(q.File, " ", ""))
	if err != nil {
		return nil, nil, &abortError{reason: metrics.AbortPattern, err: err}
	}

	var docs []*document.Document
	for _, doc := range p.sessions.OpenDocuments() {
		if pat.MatchString(doc.Name()) {
			docs = append(docs, doc)
		}
	}

	p.working = fuzzy.FilterPaths(p.working, pat)
	fuzzy.SortFiles(p.working, pat)

	files := make([]Candidate, 0, min(len(p.working), MaxResults))
	for _, path := range p.working[:min(len(p.working), MaxResults)] {
		files = append(files, FileCandidate{
			DisplayName: fuzzy.FileName(path),
			FullPath:    path,
		})
	}
	return docs, files, nil
}

// documentHits lists the domain documents, carrying the line target.
func documentHits(docs []*document.Document, q query.Query) []Candidate {
	line := -1
	if q.HasLine {
		line = q.Line
	}
	hits := make([]Candidate, 0, min(len(docs), MaxResults))
	for _, doc := range docs[:min(len(docs), MaxResults)] {
		hits = append(hits, LocationCandidate{Document: doc, Line: line, Column: -1})
	}
	return hits
}

// searchText scans the live text of each document for term, case
// insensitively and literally. Each line is reported at most once.
func (p *Palette) searchText(docs []*document.Document, term string) ([]Candidate, error) {
	pat, err := p.patterns.CompileLiteral(term)
	if err != nil {
		return nil, &abortError{reason: metrics.AbortPattern, err: err}
	}

	var hits []Candidate
	for _, doc := range docs {
		lastLine := -1
		for _, m := range pat.FindAll(p.content.FullText(doc), -1) {
			line, _ := p.content.OffsetToPosition(doc, m.Start)
			if line == lastLine {
				continue
			}
			lastLine = line
			hits = append(hits, LocationCandidate{
				Document: doc,
				Line:     line,
				Column:   -1,
				Preview:  fuzzy.EscapeDisplay(p.content.Line(doc, line)),
			})
			if len(hits) >= MaxResults {
				return hits, nil
			}
		}
	}
	return hits, nil
}

// findReferences matches symbol against the cached references of each
// document in domain order.
func (p *Palette) findReferences(docs []*document.Document, symbol string) ([]Candidate, error) {
	pat, err := p.patterns.Compile(symbol)
	if err != nil {
		return nil, &abortError{reason: metrics.AbortPattern, err: err}
	}

	var hits []Candidate
	for _, doc := range docs {
		entry, err := p.refs.Get(doc)
		if err != nil {
			return nil, &abortError{reason: metrics.AbortTokenize, err: err}
		}
		for _, ref := range entry.Find(pat, MaxResults-len(hits)) {
			hits = append(hits, ReferenceCandidate{
				Document: ref.Document,
				Line:     ref.Line,
				Column:   ref.Column,
				Symbol:   ref.Text,
				Preview:  ref.Preview,
			})
		}
		if len(hits) >= MaxResults {
			break
		}
	}
	return hits, nil
}
