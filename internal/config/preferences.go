package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Preferences is a live view of boolean preferences. It is safe for
// concurrent use.
type Preferences struct {
	mu     sync.RWMutex
	values map[string]bool
	config *Config

	logger   *zap.Logger
	onReload []func(*Config)
}

// NewPreferences creates preferences seeded from cfg.
func NewPreferences(cfg *Config, logger *zap.Logger) *Preferences {
	if cfg == nil {
		cfg = Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Preferences{
		values: make(map[string]bool),
		logger: logger.Named("preferences"),
	}
	p.apply(cfg)
	return p
}

func (p *Preferences) apply(cfg *Config) {
	p.mu.Lock()
	p.config = cfg
	p.values[KeySearchAllDocuments] = cfg.Palette.SearchAllDocuments
	p.mu.Unlock()
}

// Bool returns the preference for key, false when unset.
func (p *Preferences) Bool(key string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.values[key]
}

// Set overrides a preference until the next reload.
func (p *Preferences) Set(key string, value bool) {
	p.mu.Lock()
	p.values[key] = value
	p.mu.Unlock()
}

// Config returns the configuration the preferences were last loaded from.
func (p *Preferences) Config() *Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.config
}

// OnReload registers fn to run after a successful reload.
func (p *Preferences) OnReload(fn func(*Config)) {
	p.mu.Lock()
	p.onReload = append(p.onReload, fn)
	p.mu.Unlock()
}

// Reload loads path and applies it. On error the current values are kept.
func (p *Preferences) Reload(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	p.apply(cfg)

	p.mu.RLock()
	callbacks := make([]func(*Config), len(p.onReload))
	copy(callbacks, p.onReload)
	p.mu.RUnlock()

	for _, fn := range callbacks {
		fn(cfg)
	}
	return nil
}

// Watch reloads path whenever it changes until ctx is done. Bursts of events
// within settle are coalesced into one reload.
func (p *Preferences) Watch(ctx context.Context, path string, settle time.Duration) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the directory: editors often replace the file on save.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(settle)
			} else {
				timer.Reset(settle)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := p.Reload(abs); err != nil {
				p.logger.Warn("reload failed", zap.String("path", abs), zap.Error(err))
				continue
			}
			p.logger.Info("reloaded", zap.String("path", abs))

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			p.logger.Warn("watch error", zap.Error(err))
		}
	}
}
