package app

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/dshills/quickjump/internal/action"
	"github.com/dshills/quickjump/internal/config"
	"github.com/dshills/quickjump/internal/engine/document"
	"github.com/dshills/quickjump/internal/input/fuzzy"
	"github.com/dshills/quickjump/internal/input/palette"
	"github.com/dshills/quickjump/internal/lexer"
	"github.com/dshills/quickjump/internal/logging"
	"github.com/dshills/quickjump/internal/metrics"
	"github.com/dshills/quickjump/internal/plugin/lua"
	"github.com/dshills/quickjump/internal/project/index"
	"github.com/dshills/quickjump/internal/project/refcache"
)

// bootstrapper handles component initialization with cleanup on failure.
type bootstrapper struct {
	app       *Application
	opts      Options
	initOrder []string
}

func newBootstrapper(app *Application, opts Options) *bootstrapper {
	return &bootstrapper{
		app:       app,
		opts:      opts,
		initOrder: make([]string, 0, 8),
	}
}

// bootstrap initializes all components in dependency order.
// On failure, it cleans up already-initialized components.
func (b *bootstrapper) bootstrap() error {
	steps := []func() error{
		b.initConfig,
		b.initLogging,
		b.initMetrics,
		b.initDocuments,
		b.initIndex,
		b.initActions,
		b.initScripts,
		b.initPalette,
		b.openFiles,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			b.cleanup()
			return err
		}
	}
	b.app.logger.Info("initialized",
		zap.String("config", b.app.configPath),
		zap.Strings("components", b.initOrder))
	return nil
}

// initConfig loads the configuration file, falling back to defaults.
func (b *bootstrapper) initConfig() error {
	path := b.opts.ConfigPath
	if path == "" {
		candidate := filepath.Join(b.opts.WorkspacePath, DefaultConfigName)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}

	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return &InitError{Component: "config", Err: err}
		}
		cfg = loaded
	}
	if b.opts.LogLevel != "" {
		cfg.Log.Level = b.opts.LogLevel
	}
	if b.opts.LogFile != "" {
		cfg.Log.File = b.opts.LogFile
	}

	b.app.config = cfg
	b.app.configPath = path
	b.initOrder = append(b.initOrder, "config")
	return nil
}

func (b *bootstrapper) initLogging() error {
	logger, err := logging.New(logging.Options{
		Level:   b.app.config.Log.Level,
		File:    b.app.config.Log.File,
		Console: b.opts.LogConsole,
	})
	if err != nil {
		return &InitError{Component: "logging", Err: err}
	}
	b.app.logger = logger
	b.initOrder = append(b.initOrder, "logging")
	return nil
}

func (b *bootstrapper) initMetrics() error {
	b.app.metrics = metrics.New(b.opts.Registerer)
	b.initOrder = append(b.initOrder, "metrics")
	return nil
}

// initDocuments creates the lexers, the document manager and the reference
// cache. Closing a document drops its cached references.
func (b *bootstrapper) initDocuments() error {
	cfg := b.app.config.Lexer
	b.app.lexers = lexer.DefaultRegistry(cfg.TreeSitter)
	b.app.documents = document.NewManager(
		document.WithLexers(b.app.lexers),
		document.WithLogger(b.app.logger))

	opts := []refcache.Option{
		refcache.WithLogger(b.app.logger),
		refcache.WithMetrics(b.app.metrics),
	}
	if cfg.ReferenceSelector != "" {
		opts = append(opts, refcache.WithSelector(cfg.ReferenceSelector))
	}
	for language, selector := range cfg.LanguageSelectors {
		opts = append(opts, refcache.WithLanguageSelector(language, selector))
	}
	refs, err := refcache.New(b.app.documents, opts...)
	if err != nil {
		return &InitError{Component: "references", Err: err}
	}
	b.app.refs = refs
	b.app.documents.OnClose(refs.Invalidate)

	b.initOrder = append(b.initOrder, "documents")
	return nil
}

func (b *bootstrapper) initIndex() error {
	cfg := b.app.config.Index
	roots := make([]string, len(cfg.Roots))
	for i, r := range cfg.Roots {
		if !filepath.IsAbs(r) {
			r = filepath.Join(b.opts.WorkspacePath, r)
		}
		roots[i] = r
	}
	b.app.index = index.New(index.Config{
		Roots:        roots,
		Ignore:       cfg.Ignore,
		UseGitignore: cfg.Gitignore,
		MaxFiles:     cfg.MaxFiles,
	}, b.app.logger)
	b.initOrder = append(b.initOrder, "index")
	return nil
}

// initActions registers the core actions and the configured menus.
func (b *bootstrapper) initActions() error {
	b.app.actions = action.NewRegistry(b.app.logger)
	if err := b.app.actions.RegisterAll(b.app.coreActions()); err != nil {
		return &InitError{Component: "actions", Err: err}
	}
	b.app.actions.SetMenus(b.app.config.Menus)
	b.initOrder = append(b.initOrder, "actions")
	return nil
}

func (b *bootstrapper) initScripts() error {
	b.app.scripts = lua.NewRunner(b.app, b.app.logger)
	if err := b.app.scripts.Register(b.app.actions, b.app.config.Actions); err != nil {
		return &InitError{Component: "scripts", Err: err}
	}
	b.initOrder = append(b.initOrder, "scripts")
	return nil
}

func (b *bootstrapper) initPalette() error {
	b.app.prefs = config.NewPreferences(b.app.config, b.app.logger)
	b.app.prefs.OnReload(b.app.applyConfig)

	version, err := action.ParseVersion(b.opts.Version)
	if err != nil {
		b.app.logger.Warn("menu version gates disabled", zap.Error(err))
		version = nil
	}

	scheduler := b.opts.Scheduler
	if scheduler == nil {
		b.app.queue = palette.NewQueue()
		scheduler = b.app.queue
	}

	b.app.patterns = fuzzy.NewCache(b.app.config.Palette.PatternCacheSize)
	p, err := palette.New(palette.Collaborators{
		Sessions:    b.app.documents,
		Editor:      b.app.documents,
		Content:     b.app.documents,
		Actions:     b.app.actions,
		Files:       b.app.index,
		Preferences: b.app.prefs,
		Notifier:    palette.NotifierFunc(b.app.Notify),
	},
		palette.WithLogger(b.app.logger),
		palette.WithMetrics(b.app.metrics),
		palette.WithVersion(version),
		palette.WithScheduler(scheduler),
		palette.WithDebounce(b.app.config.Palette.Debounce.Duration),
		palette.WithPatternCache(b.app.patterns),
		palette.WithReferenceCache(b.app.refs),
	)
	if err != nil {
		return &InitError{Component: "palette", Err: err}
	}
	b.app.palette = p
	b.initOrder = append(b.initOrder, "palette")
	return nil
}

// openFiles opens the startup files. A file that cannot be read is logged
// and skipped.
func (b *bootstrapper) openFiles() error {
	for _, path := range b.opts.Files {
		if _, err := b.app.documents.OpenFile(path); err != nil {
			b.app.logger.Warn("open failed", zap.String("path", path), zap.Error(err))
		}
	}
	return nil
}

// cleanup releases initialized components in reverse order.
func (b *bootstrapper) cleanup() {
	for i := len(b.initOrder) - 1; i >= 0; i-- {
		switch b.initOrder[i] {
		case "scripts":
			b.app.scripts.Close()
			b.app.scripts = nil
		case "logging":
			_ = b.app.logger.Sync()
		}
	}
	b.initOrder = b.initOrder[:0]
}
