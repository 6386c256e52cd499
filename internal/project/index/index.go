// Package index maintains the set of project files offered by the palette.
//
// Paths are stored relative to their root with forward slashes, except when
// more than one root is indexed, in which case each path is prefixed with the
// root's base name.
package index

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoRoots is returned when Build is called without roots.
var ErrNoRoots = errors.New("no index roots")

// Config configures a FileIndex.
type Config struct {
	// Roots are the directories to index.
	Roots []string

	// Ignore holds extra gitignore-style patterns.
	Ignore []string

	// UseGitignore loads <root>/.gitignore for each root.
	UseGitignore bool

	// MaxFiles stops a walk after this many files. Zero means no limit.
	MaxFiles int
}

// FileIndex is the set of indexed file paths. It is safe for concurrent use.
type FileIndex struct {
	mu    sync.RWMutex
	paths map[string]string // display path -> absolute path
	roots []root

	config Config
	logger *zap.Logger

	// onChange callbacks are called after the path set changes.
	onChange []func()
}

type root struct {
	abs    string
	prefix string
	ignore *Ignore
}

// New creates an empty index.
func New(config Config, logger *zap.Logger) *FileIndex {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileIndex{
		paths:  make(map[string]string),
		config: config,
		logger: logger.Named("index"),
	}
}

// Build walks every root concurrently and replaces the indexed paths.
func (fi *FileIndex) Build(ctx context.Context) error {
	if len(fi.config.Roots) == 0 {
		return ErrNoRoots
	}

	roots := make([]root, len(fi.config.Roots))
	for i, dir := range fi.config.Roots {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("index root %s: %w", dir, err)
		}
		ig := NewIgnore(DefaultIgnore...)
		for _, p := range fi.config.Ignore {
			ig.Add(p)
		}
		if fi.config.UseGitignore {
			if err := ig.AddFile(filepath.Join(abs, ".gitignore")); err != nil {
				return fmt.Errorf("index root %s: %w", dir, err)
			}
		}
		roots[i] = root{abs: abs, ignore: ig}
		if len(fi.config.Roots) > 1 {
			roots[i].prefix = filepath.Base(abs)
		}
	}

	found := make([]map[string]string, len(roots))
	g, ctx := errgroup.WithContext(ctx)
	for i := range roots {
		i := i
		g.Go(func() error {
			paths, err := fi.walk(ctx, roots[i])
			if err != nil {
				return err
			}
			found[i] = paths
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	merged := make(map[string]string)
	for _, paths := range found {
		for k, v := range paths {
			merged[k] = v
		}
	}

	fi.mu.Lock()
	fi.paths = merged
	fi.roots = roots
	fi.mu.Unlock()

	fi.logger.Info("indexed", zap.Int("files", len(merged)), zap.Int("roots", len(roots)))
	fi.notifyChange()
	return nil
}

func (fi *FileIndex) walk(ctx context.Context, r root) (map[string]string, error) {
	paths := make(map[string]string)
	err := filepath.WalkDir(r.abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped.
			if d != nil && d.IsDir() && p != r.abs {
				return filepath.SkipDir
			}
			if p == r.abs {
				return err
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == r.abs {
			return nil
		}

		rel, relErr := filepath.Rel(r.abs, p)
		if relErr != nil {
			return nil
		}
		if r.ignore.Match(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		paths[r.display(rel)] = p
		if fi.config.MaxFiles > 0 && len(paths) >= fi.config.MaxFiles {
			fi.logger.Warn("file limit reached", zap.String("root", r.abs), zap.Int("limit", fi.config.MaxFiles))
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", r.abs, err)
	}
	return paths, nil
}

func (r root) display(rel string) string {
	rel = filepath.ToSlash(rel)
	if r.prefix == "" {
		return rel
	}
	return r.prefix + "/" + rel
}

// ignored reports whether rel or any directory above it is ignored.
func (r root) ignored(rel string) bool {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for i := 1; i < len(parts); i++ {
		if r.ignore.Match(strings.Join(parts[:i], "/"), true) {
			return true
		}
	}
	return r.ignore.Match(rel, false)
}

// Paths returns the indexed display paths in sorted order.
func (fi *FileIndex) Paths() []string {
	fi.mu.RLock()
	defer fi.mu.RUnlock()

	paths := make([]string, 0, len(fi.paths))
	for p := range fi.paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Resolve returns the absolute path for a display path.
func (fi *FileIndex) Resolve(display string) (string, bool) {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	abs, ok := fi.paths[display]
	return abs, ok
}

// Count returns the number of indexed files.
func (fi *FileIndex) Count() int {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	return len(fi.paths)
}

// add indexes an absolute path that lies under a root. It reports whether
// the path was added.
func (fi *FileIndex) add(abs string) bool {
	fi.mu.Lock()
	r, rel, ok := fi.locate(abs)
	if !ok || r.ignored(rel) {
		fi.mu.Unlock()
		return false
	}
	display := r.display(rel)
	_, exists := fi.paths[display]
	fi.paths[display] = abs
	fi.mu.Unlock()

	if !exists {
		fi.notifyChange()
	}
	return !exists
}

// remove drops an absolute path and every indexed path beneath it.
func (fi *FileIndex) remove(abs string) int {
	fi.mu.Lock()
	prefix := abs + string(filepath.Separator)
	removed := 0
	for display, p := range fi.paths {
		if p == abs || strings.HasPrefix(p, prefix) {
			delete(fi.paths, display)
			removed++
		}
	}
	fi.mu.Unlock()

	if removed > 0 {
		fi.notifyChange()
	}
	return removed
}

// locate must be called with mu held.
func (fi *FileIndex) locate(abs string) (root, string, bool) {
	for _, r := range fi.roots {
		rel, err := filepath.Rel(r.abs, abs)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return r, rel, true
	}
	return root{}, "", false
}

// OnChange registers a callback invoked after the path set changes.
func (fi *FileIndex) OnChange(fn func()) {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	fi.onChange = append(fi.onChange, fn)
}

func (fi *FileIndex) notifyChange() {
	fi.mu.RLock()
	callbacks := make([]func(), len(fi.onChange))
	copy(callbacks, fi.onChange)
	fi.mu.RUnlock()

	for _, fn := range callbacks {
		fn()
	}
}
