// Package config loads quickjump configuration from TOML or YAML files.
//
// Defaults are applied first, so a file only needs the keys it changes:
//
//	[palette]
//	debounce = "50ms"
//	search_all_documents = true
//
//	[index]
//	roots = ["."]
//	ignore = ["*.min.js"]
//
//	[[menus]]
//	label = "File"
//	  [[menus.sub]]
//	  label = "Open..."
//	  palette = "Open File"
//	  command = "project:open-file"
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/quickjump/internal/action"
	"github.com/dshills/quickjump/internal/plugin/lua"
)

// Preference keys.
const (
	KeySearchAllDocuments = "searchAllDocuments"
)

// Format is a configuration file syntax.
type Format string

// Supported formats.
const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatForPath returns the format for a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
}

// Duration is a time.Duration written as a string such as "50ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the full configuration.
type Config struct {
	Palette PaletteConfig     `toml:"palette" yaml:"palette"`
	Index   IndexConfig       `toml:"index" yaml:"index"`
	Log     LogConfig         `toml:"log" yaml:"log"`
	Lexer   LexerConfig       `toml:"lexer" yaml:"lexer"`
	Menus   []action.MenuItem `toml:"menus" yaml:"menus"`
	Actions []lua.Script      `toml:"actions" yaml:"actions"`
}

// PaletteConfig configures the palette session.
type PaletteConfig struct {
	// Debounce is the quiet period before a keystroke is evaluated.
	Debounce Duration `toml:"debounce" yaml:"debounce"`

	// SearchAllDocuments widens '#' and '@' queries from the current
	// document to every open document.
	SearchAllDocuments bool `toml:"search_all_documents" yaml:"search_all_documents"`

	// PatternCacheSize bounds the compiled pattern cache.
	PatternCacheSize int `toml:"pattern_cache_size" yaml:"pattern_cache_size"`
}

// IndexConfig configures the project file index.
type IndexConfig struct {
	Roots     []string `toml:"roots" yaml:"roots"`
	Ignore    []string `toml:"ignore" yaml:"ignore"`
	Gitignore bool     `toml:"gitignore" yaml:"gitignore"`
	MaxFiles  int      `toml:"max_files" yaml:"max_files"`
	Watch     bool     `toml:"watch" yaml:"watch"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
	File  string `toml:"file" yaml:"file"`
}

// LexerConfig configures tokenizing for '@' references.
type LexerConfig struct {
	// TreeSitter enables the tree-sitter lexers where a grammar is bundled.
	TreeSitter bool `toml:"tree_sitter" yaml:"tree_sitter"`

	// ReferenceSelector overrides the token categories kept as references.
	ReferenceSelector string `toml:"reference_selector" yaml:"reference_selector"`

	// LanguageSelectors overrides the selector per language.
	LanguageSelectors map[string]string `toml:"language_selectors" yaml:"language_selectors"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Palette: PaletteConfig{
			Debounce:         Duration{50 * time.Millisecond},
			PatternCacheSize: 256,
		},
		Index: IndexConfig{
			Roots:     []string{"."},
			Gitignore: true,
			MaxFiles:  50000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return Parse(path, format, data)
}

// Parse decodes data over the defaults and validates the result. source
// names the data in errors.
func Parse(source string, format Format, data []byte) (*Config, error) {
	cfg := Default()

	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, tomlParseError(source, err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, &ParseError{Path: source, Err: err}
		}
	default:
		return nil, fmt.Errorf("%s: %w", format, ErrUnsupportedFormat)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return cfg, nil
}

func tomlParseError(source string, err error) error {
	pe := &ParseError{Path: source, Err: err}
	var de *toml.DecodeError
	if errors.As(err, &de) {
		pe.Line, pe.Column = de.Position()
	}
	return pe
}

// Validate checks values that cannot be expressed by types alone.
func (c *Config) Validate() error {
	if c.Palette.Debounce.Duration < 0 {
		return fmt.Errorf("%w: palette.debounce must not be negative", ErrInvalidConfig)
	}
	if c.Palette.PatternCacheSize < 0 {
		return fmt.Errorf("%w: palette.pattern_cache_size must not be negative", ErrInvalidConfig)
	}
	if c.Index.MaxFiles < 0 {
		return fmt.Errorf("%w: index.max_files must not be negative", ErrInvalidConfig)
	}
	if err := action.Validate(c.Menus); err != nil {
		return fmt.Errorf("%w: menus: %w", ErrInvalidConfig, err)
	}
	seen := make(map[string]bool, len(c.Actions))
	for i, a := range c.Actions {
		if a.ID == "" {
			return fmt.Errorf("%w: actions[%d] has no id", ErrInvalidConfig, i)
		}
		if seen[a.ID] {
			return fmt.Errorf("%w: duplicate action %q", ErrInvalidConfig, a.ID)
		}
		seen[a.ID] = true
		if a.Code == "" && a.File == "" {
			return fmt.Errorf("%w: action %q has neither code nor file", ErrInvalidConfig, a.ID)
		}
	}
	return nil
}

// Encode writes c in format.
func (c *Config) Encode(format Format) ([]byte, error) {
	switch format {
	case FormatTOML:
		return toml.Marshal(c)
	case FormatYAML:
		return yaml.Marshal(c)
	}
	return nil, fmt.Errorf("%s: %w", format, ErrUnsupportedFormat)
}
