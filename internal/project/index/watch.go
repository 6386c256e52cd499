package index

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch keeps the index current until ctx is done. It must be called after
// Build. Directories created later are watched as they appear.
func (fi *FileIndex) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	fi.mu.RLock()
	roots := fi.roots
	fi.mu.RUnlock()
	if len(roots) == 0 {
		return ErrNoRoots
	}

	for _, r := range roots {
		fi.watchTree(w, r.abs)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			fi.handleEvent(w, ev)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fi.logger.Warn("watch error", zap.Error(err))
		}
	}
}

// watchTree adds dir and every non-ignored directory below it.
func (fi *FileIndex) watchTree(w *fsnotify.Watcher, dir string) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		fi.mu.RLock()
		r, rel, ok := fi.locate(p)
		fi.mu.RUnlock()
		if ok && r.ignored(rel) {
			return filepath.SkipDir
		}
		if err := w.Add(p); err != nil {
			fi.logger.Debug("watch add failed", zap.String("dir", p), zap.Error(err))
		}
		return nil
	})
}

func (fi *FileIndex) handleEvent(w *fsnotify.Watcher, ev fsnotify.Event) {
	switch {
	case ev.Has(fsnotify.Create):
		info, err := os.Stat(ev.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			fi.watchTree(w, ev.Name)
			fi.addTree(ev.Name)
			return
		}
		if fi.add(ev.Name) {
			fi.logger.Debug("file added", zap.String("path", ev.Name))
		}

	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		if n := fi.remove(ev.Name); n > 0 {
			fi.logger.Debug("files removed", zap.String("path", ev.Name), zap.Int("count", n))
		}
		// Removing a watched directory can fail once it is gone.
		if err := w.Remove(ev.Name); err != nil && !errors.Is(err, fsnotify.ErrNonExistentWatch) {
			fi.logger.Debug("watch remove failed", zap.String("path", ev.Name), zap.Error(err))
		}
	}
}

// addTree indexes the files under a directory that appeared after Build.
func (fi *FileIndex) addTree(dir string) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			fi.add(p)
		}
		return nil
	})
}
