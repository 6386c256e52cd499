// Package fuzzy provides the ordered-subsequence matcher used by the palette.
//
// A query matches a candidate when every character of the query appears in
// the candidate in the same relative order, ignoring case, with arbitrary
// gaps in between. There is no word-boundary, case-sensitive or multi-term
// mode: ordered-subsequence containment is the whole contract.
//
// # Matching
//
// Compile turns a query into a Pattern. Each query character is escaped and
// the characters are joined by a lazy gap, so the leftmost match is reported
// together with the tightest span starting there:
//
//	p, err := fuzzy.Compile("fjs")
//	if err != nil {
//	    return err
//	}
//	m, ok := p.Match("src/foo.js") // ok == true, m.Start == 4, m.Length == 6
//
// An empty query matches everything with a zero-length span at index 0.
// Offsets are byte offsets into the candidate.
//
// # Ranking
//
// Two ranking rules are provided because "best match" depends on the shape of
// the candidate:
//
//   - RankCommands orders action labels by Start+Length, then by label.
//   - SortFiles orders paths by a two-phase rule that prefers hits in the
//     file name over hits in directory names.
//
// # Escaping
//
// EscapePattern makes user text safe to embed in a pattern. EscapeDisplay
// makes source text safe to show in a result list; it is never used for
// matching.
//
// # Caching
//
// Cache memoizes compiled patterns. Incremental typing recompiles the same
// prefixes repeatedly, so the palette keeps one Cache for its lifetime.
package fuzzy
