package app

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/quickjump/internal/config"
)

const (
	// configSettle coalesces bursts of config file events.
	configSettle = 100 * time.Millisecond

	shutdownTimeout = 5 * time.Second
	actionTimeout   = 30 * time.Second
)

// Start builds the file index and starts the index and config watchers,
// which run until ctx is done or Shutdown is called.
func (app *Application) Start(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)

	start := time.Now()
	if err := app.index.Build(ctx); err != nil {
		cancel()
		app.running.Store(false)
		return &InitError{Component: "index", Err: err}
	}
	app.logger.Info("index built",
		zap.Int("files", app.index.Count()),
		zap.Duration("took", time.Since(start)))

	g, gctx := errgroup.WithContext(ctx)
	if app.config.Index.Watch {
		g.Go(func() error { return app.index.Watch(gctx) })
	}
	if app.configPath != "" {
		g.Go(func() error { return app.prefs.Watch(gctx, app.configPath, configSettle) })
	}

	app.mu.Lock()
	app.ctx = ctx
	app.cancel = cancel
	app.done = make(chan error, 1)
	done := app.done
	app.mu.Unlock()

	go func() {
		err := g.Wait()
		if err != nil {
			app.logger.Error("watcher stopped", zap.Error(err))
		}
		done <- err
	}()
	return nil
}

// IsRunning reports whether Start has been called without Shutdown.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Shutdown stops the watchers and releases the script states. It is safe to
// call more than once.
func (app *Application) Shutdown() error {
	var err error
	if app.running.CompareAndSwap(true, false) {
		app.mu.Lock()
		cancel, done := app.cancel, app.done
		app.mu.Unlock()

		cancel()
		select {
		case err = <-done:
		case <-time.After(shutdownTimeout):
			app.logger.Warn("watchers did not stop", zap.Duration("timeout", shutdownTimeout))
		}
	}

	if app.scripts != nil {
		app.scripts.Close()
	}
	_ = app.logger.Sync()
	return err
}

// context returns a context for a synchronous action, bounded by the
// application lifetime when running.
func (app *Application) context() (context.Context, context.CancelFunc) {
	app.mu.Lock()
	parent := app.ctx
	app.mu.Unlock()
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, actionTimeout)
}

// applyConfig applies a reloaded configuration. Menus are replaced; the
// remaining settings take effect on the next start.
func (app *Application) applyConfig(cfg *config.Config) {
	app.actions.SetMenus(cfg.Menus)
	app.logger.Info("config reloaded",
		zap.String("path", app.configPath),
		zap.Int("menus", len(cfg.Menus)))
}
