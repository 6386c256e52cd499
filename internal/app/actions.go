package app

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/dshills/quickjump/internal/action"
	"github.com/dshills/quickjump/internal/config"
	"github.com/dshills/quickjump/internal/input/palette"
)

// Core action ids besides the two the palette dispatches itself.
const (
	ActionCloseFile       = "session:close-file"
	ActionToggleSearchAll = "palette:toggle-search-all"
	ActionReloadConfig    = "config:reload"
	ActionRebuildIndex    = "project:rebuild-index"
)

const (
	actionCategoryFile    = "File"
	actionCategoryPalette = "Palette"
	actionCategoryProject = "Project"
)

func (app *Application) coreActions() []*action.Action {
	actions := []*action.Action{
		{
			ID:       palette.CommandOpenFile,
			Label:    "Open File",
			Category: actionCategoryFile,
			Handler:  app.openFile,
		},
		{
			ID:       palette.CommandCheckFile,
			Label:    "Check File",
			Category: actionCategoryFile,
			Handler:  app.checkFile,
		},
		{
			ID:       ActionCloseFile,
			Label:    "Close File",
			Category: actionCategoryFile,
			Handler:  app.closeFile,
		},
		{
			ID:          ActionToggleSearchAll,
			Label:       "Toggle Search All Documents",
			Category:    actionCategoryPalette,
			Handler:     app.toggleSearchAll,
			RetainFocus: true,
		},
		{
			ID:       ActionReloadConfig,
			Label:    "Reload Configuration",
			Category: actionCategoryPalette,
			Handler:  app.reloadConfig,
		},
		{
			ID:       ActionRebuildIndex,
			Label:    "Rebuild File Index",
			Category: actionCategoryProject,
			Handler:  app.rebuildIndex,
		},
	}
	for _, a := range actions {
		a.Source = "core"
	}
	return actions
}

// openFile opens a project file given its display path. Paths missing from
// the index are taken as filesystem paths relative to the workspace.
func (app *Application) openFile(arg any) error {
	display, ok := arg.(string)
	if !ok || display == "" {
		return fmt.Errorf("%w: want a path, got %T", ErrBadArgument, arg)
	}
	path, ok := app.index.Resolve(display)
	if !ok {
		path = display
		if !filepath.IsAbs(path) {
			path = filepath.Join(app.opts.WorkspacePath, path)
		}
	}
	if _, err := app.documents.OpenFile(path); err != nil {
		return &FileError{Op: "open", Path: path, Err: err}
	}
	return nil
}

// checkFile compares the current document with its file and reports when
// the file changed on disk or was removed.
func (app *Application) checkFile(any) error {
	doc := app.documents.Current()
	if doc == nil {
		return ErrNoActiveDocument
	}
	data, err := os.ReadFile(doc.Path())
	switch {
	case os.IsNotExist(err):
		app.Notify(doc.Name() + " was removed from disk")
	case err != nil:
		return &FileError{Op: "check", Path: doc.Path(), Err: err}
	case string(data) != doc.Text():
		app.Notify(doc.Name() + " changed on disk")
	default:
		app.logger.Debug("file unchanged", zap.String("path", doc.Path()))
	}
	return nil
}

func (app *Application) closeFile(any) error {
	doc := app.documents.Current()
	if doc == nil {
		return ErrNoActiveDocument
	}
	return app.documents.Close(doc)
}

func (app *Application) toggleSearchAll(any) error {
	on := !app.prefs.Bool(config.KeySearchAllDocuments)
	app.prefs.Set(config.KeySearchAllDocuments, on)
	if on {
		app.Notify("Searching all open documents")
	} else {
		app.Notify("Searching the current document")
	}
	return nil
}

func (app *Application) reloadConfig(any) error {
	if app.configPath == "" {
		app.Notify("No configuration file")
		return nil
	}
	return app.prefs.Reload(app.configPath)
}

func (app *Application) rebuildIndex(any) error {
	ctx, cancel := app.context()
	defer cancel()
	if err := app.index.Build(ctx); err != nil {
		return err
	}
	app.Notify(fmt.Sprintf("Indexed %d files", app.index.Count()))
	return nil
}
