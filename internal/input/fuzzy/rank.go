package fuzzy

import (
	"sort"
	"strings"
)

// RankCommands returns the items whose label matches p, ordered by
// Start+Length of the match, then by label, then by id.
// The input slice is not modified.
func RankCommands[T any](items []T, p *Pattern, label, id func(T) string) []T {
	type scored struct {
		item  T
		label string
		id    string
		score int
	}

	matched := make([]scored, 0, len(items))
	for _, item := range items {
		l := label(item)
		m, ok := p.Match(l)
		if !ok {
			continue
		}
		matched = append(matched, scored{item: item, label: l, id: id(item), score: m.Score()})
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.score != b.score {
			return a.score < b.score
		}
		if a.label != b.label {
			return a.label < b.label
		}
		return a.id < b.id
	})

	ranked := make([]T, len(matched))
	for i, s := range matched {
		ranked[i] = s.item
	}
	return ranked
}

// FileName returns the last segment of a slash- or backslash-separated path.
func FileName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// FilterPaths returns the paths matched by p, preserving order.
func FilterPaths(paths []string, p *Pattern) []string {
	kept := make([]string, 0, len(paths))
	for _, path := range paths {
		if p.MatchString(path) {
			kept = append(kept, path)
		}
	}
	return kept
}

// pathMatch caches the matches used by the file comparator.
type pathMatch struct {
	path   string
	name   Match
	inName bool
	full   Match
}

// SortFiles sorts paths in place by relevance to p.
//
// A match inside the file name always outranks a match found only in the
// directory part. Among file-name matches, the smaller Start+Length on the
// file name wins. Among directory-only matches, the shorter span on the full
// path wins. Remaining ties are broken by path.
func SortFiles(paths []string, p *Pattern) {
	entries := make([]pathMatch, len(paths))
	for i, path := range paths {
		e := pathMatch{path: path}
		e.name, e.inName = p.Match(FileName(path))
		e.full, _ = p.Match(path)
		entries[i] = e
	}

	sort.Slice(entries, func(i, j int) bool {
		return compareFiles(entries[i], entries[j]) < 0
	})

	for i, e := range entries {
		paths[i] = e.path
	}
}

// compareFiles implements the two-phase file ordering.
func compareFiles(a, b pathMatch) int {
	switch {
	case a.inName && !b.inName:
		return -1
	case !a.inName && b.inName:
		return 1
	case a.inName && b.inName:
		if d := a.name.Score() - b.name.Score(); d != 0 {
			return d
		}
	default:
		if d := a.full.Length - b.full.Length; d != 0 {
			return d
		}
	}
	return strings.Compare(a.path, b.path)
}
