// Package app wires the quickjump components together: configuration,
// logging, metrics, documents, the project file index, actions, scripts and
// the palette. It manages the background index and config watchers.
package app

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/dshills/quickjump/internal/action"
	"github.com/dshills/quickjump/internal/config"
	"github.com/dshills/quickjump/internal/engine/document"
	"github.com/dshills/quickjump/internal/input/fuzzy"
	"github.com/dshills/quickjump/internal/input/palette"
	"github.com/dshills/quickjump/internal/lexer"
	"github.com/dshills/quickjump/internal/metrics"
	"github.com/dshills/quickjump/internal/plugin/lua"
	"github.com/dshills/quickjump/internal/project/index"
	"github.com/dshills/quickjump/internal/project/refcache"
)

// DefaultConfigName is looked up in the workspace when no config path is
// given.
const DefaultConfigName = ".quickjump.toml"

// Application owns every quickjump component.
type Application struct {
	mu sync.Mutex

	configPath string
	config     *config.Config
	prefs      *config.Preferences

	logger  *zap.Logger
	metrics *metrics.Metrics

	lexers    *lexer.Registry
	documents *document.Manager
	index     *index.FileIndex
	actions   *action.Registry
	scripts   *lua.Runner
	patterns  *fuzzy.Cache
	refs      *refcache.Cache
	palette   *palette.Palette
	queue     *palette.Queue

	notifier palette.Notifier
	status   string

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan error

	opts Options
}

// Options configures the application.
type Options struct {
	// ConfigPath is the TOML or YAML configuration file. Empty looks for
	// DefaultConfigName in the workspace.
	ConfigPath string

	// WorkspacePath is the project directory. Relative index roots are
	// resolved against it. Empty means the working directory.
	WorkspacePath string

	// Files are opened on startup, in order; the last one is current.
	Files []string

	// LogLevel and LogFile override the configured log settings.
	LogLevel string
	LogFile  string

	// LogConsole receives human-readable logs. The TUI leaves it nil.
	LogConsole io.Writer

	// Version is the running version, used to gate menu items.
	Version string

	// Registerer receives the metrics collectors. Nil keeps them private.
	Registerer prometheus.Registerer

	// Scheduler runs debounced palette passes. The TUI supplies one that
	// runs them on its event loop. Nil queues them until RunPending.
	Scheduler palette.Scheduler

	// Notifier receives status messages.
	Notifier palette.Notifier
}

// New creates an Application with the given options. Nothing runs in the
// background until Start.
func New(opts Options) (*Application, error) {
	app := &Application{
		opts:     opts,
		notifier: opts.Notifier,
	}
	if err := newBootstrapper(app, opts).bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// Notify records msg as the status line and forwards it to the notifier.
func (app *Application) Notify(msg string) {
	app.mu.Lock()
	app.status = msg
	app.mu.Unlock()

	app.logger.Info("status", zap.String("message", msg))
	if app.notifier != nil {
		app.notifier.Notify(msg)
	}
}

// Dispatch runs a registered action.
func (app *Application) Dispatch(id string, arg any) error {
	return app.actions.Dispatch(id, arg)
}

// Status returns the last status message.
func (app *Application) Status() string {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.status
}

// Config returns the configuration loaded at startup.
func (app *Application) Config() *config.Config {
	return app.config
}

// ConfigPath returns the configuration file in use, or "".
func (app *Application) ConfigPath() string {
	return app.configPath
}

// Preferences returns the live preferences.
func (app *Application) Preferences() *config.Preferences {
	return app.prefs
}

// Logger returns the root logger.
func (app *Application) Logger() *zap.Logger {
	return app.logger
}

// Metrics returns the metrics recorder.
func (app *Application) Metrics() *metrics.Metrics {
	return app.metrics
}

// Documents returns the document manager.
func (app *Application) Documents() *document.Manager {
	return app.documents
}

// Index returns the project file index.
func (app *Application) Index() *index.FileIndex {
	return app.index
}

// Actions returns the action registry.
func (app *Application) Actions() *action.Registry {
	return app.actions
}

// References returns the shared reference cache.
func (app *Application) References() *refcache.Cache {
	return app.refs
}

// Palette returns the palette session.
func (app *Application) Palette() *palette.Palette {
	return app.palette
}

// RunPending runs the debounced palette passes that are due and returns how
// many ran. It only has work when Options.Scheduler was nil, and must be
// called from the goroutine that drives the palette.
func (app *Application) RunPending() int {
	if app.queue == nil {
		return 0
	}
	return app.queue.Run()
}
