package index

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DefaultIgnore lists patterns skipped by every index.
var DefaultIgnore = []string{
	".git/",
	".hg/",
	".svn/",
	"node_modules/",
	".DS_Store",
	"*.swp",
}

// Ignore is a list of gitignore-style patterns:
//   - *.log       files ending in .log, at any depth
//   - /build/     the build directory at the root
//   - docs/*.md   a path relative to the root
//   - !keep.log   negate an earlier match
//
// Later patterns override earlier ones.
type Ignore struct {
	patterns []ignorePattern
}

type ignorePattern struct {
	pattern  string
	negation bool
	dirOnly  bool
	anchored bool
}

// NewIgnore creates a matcher from patterns. Blank lines and comments are
// skipped.
func NewIgnore(patterns ...string) *Ignore {
	ig := &Ignore{}
	for _, p := range patterns {
		ig.Add(p)
	}
	return ig
}

// Add appends one pattern.
func (ig *Ignore) Add(pattern string) {
	pattern = strings.TrimRight(pattern, " \t\r")
	if pattern == "" || strings.HasPrefix(pattern, "#") {
		return
	}

	var p ignorePattern
	if strings.HasPrefix(pattern, "!") {
		p.negation = true
		pattern = pattern[1:]
	}
	if strings.HasSuffix(pattern, "/") {
		p.dirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}
	pattern = strings.TrimPrefix(pattern, "**/")
	if strings.HasPrefix(pattern, "/") {
		p.anchored = true
		pattern = pattern[1:]
	} else if strings.Contains(pattern, "/") {
		p.anchored = true
	}
	p.pattern = pattern
	ig.patterns = append(ig.patterns, p)
}

// AddFile loads patterns from a file such as .gitignore. A missing file is
// not an error.
func (ig *Ignore) AddFile(name string) error {
	f, err := os.Open(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		ig.Add(scanner.Text())
	}
	return scanner.Err()
}

// Match reports whether rel, a slash-separated path relative to the root,
// is ignored.
func (ig *Ignore) Match(rel string, isDir bool) bool {
	if ig == nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	base := path.Base(rel)

	ignored := false
	for _, p := range ig.patterns {
		if p.dirOnly && !isDir {
			continue
		}
		subject := base
		if p.anchored {
			subject = rel
		}
		if ok, _ := path.Match(p.pattern, subject); ok {
			ignored = !p.negation
		}
	}
	return ignored
}
