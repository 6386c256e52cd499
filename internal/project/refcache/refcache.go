// Package refcache holds per-document symbol reference lists for the
// palette's '@' mode.
//
// An entry is built the first time a document is looked up, by tokenizing
// its text and keeping the tokens whose category matches the reference
// selector. Entries are keyed by document ID and are not refreshed when the
// document is edited; callers drop them with Invalidate or Clear.
package refcache

import (
	"fmt"
	"regexp"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/dshills/quickjump/internal/engine/document"
	"github.com/dshills/quickjump/internal/input/fuzzy"
	"github.com/dshills/quickjump/internal/lexer"
	"github.com/dshills/quickjump/internal/metrics"
)

// DefaultSelector matches the token categories kept as references.
const DefaultSelector = `identifier|variable|function`

// defaultOverrides narrows the selector for languages whose lexers emit too
// many identifiers to be useful.
var defaultOverrides = map[string]string{
	"javascript": `entity\.name\.function`,
}

// Source supplies document text and tokens.
type Source interface {
	Line(doc *document.Document, i int) string
	Tokenize(doc *document.Document) ([]lexer.Token, error)
}

// Reference is one symbol occurrence.
type Reference struct {
	Document *document.Document

	// Line and Column are zero-based; Column is a byte offset.
	Line   int
	Column int

	// Text is the symbol.
	Text string

	// Preview is the display-escaped source line.
	Preview string
}

// Entry is the reference list of one document at the time it was built.
type Entry struct {
	DocumentID string
	Revision   uint64
	Text       string
	References []Reference
}

// Cache maps document IDs to reference entries.
type Cache struct {
	store   *cache.Cache
	source  Source
	logger  *zap.Logger
	metrics *metrics.Metrics

	selector  *regexp.Regexp
	overrides map[string]*regexp.Regexp
}

// Option configures a Cache.
type Option func(*Cache) error

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) error {
		if l != nil {
			c.logger = l
		}
		return nil
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) error {
		c.metrics = m
		return nil
	}
}

// WithSelector replaces the default category selector.
func WithSelector(pattern string) Option {
	return func(c *Cache) error {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("reference selector: %w", err)
		}
		c.selector = re
		return nil
	}
}

// WithLanguageSelector sets the category selector used for one language.
func WithLanguageSelector(language, pattern string) Option {
	return func(c *Cache) error {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("reference selector for %s: %w", language, err)
		}
		c.overrides[language] = re
		return nil
	}
}

// New creates an empty cache reading documents from source.
func New(source Source, opts ...Option) (*Cache, error) {
	c := &Cache{
		// Entries never expire; they live until invalidated.
		store:     cache.New(cache.NoExpiration, 0),
		source:    source,
		logger:    zap.NewNop(),
		selector:  regexp.MustCompile(DefaultSelector),
		overrides: make(map[string]*regexp.Regexp, len(defaultOverrides)),
	}
	for lang, pattern := range defaultOverrides {
		c.overrides[lang] = regexp.MustCompile(pattern)
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.logger = c.logger.Named("refcache")
	return c, nil
}

// Get returns the entry for doc, building it on first use.
func (c *Cache) Get(doc *document.Document) (*Entry, error) {
	key := doc.Key()
	if x, found := c.store.Get(key); found {
		c.metrics.CacheHit()
		return x.(*Entry), nil
	}
	c.metrics.CacheMiss()

	entry, err := c.build(doc)
	if err != nil {
		return nil, err
	}
	c.store.Set(key, entry, cache.NoExpiration)
	c.metrics.CacheBuilt(c.store.ItemCount())

	c.logger.Debug("built references",
		zap.String("document", doc.Name()),
		zap.String("id", key),
		zap.Int("references", len(entry.References)))
	return entry, nil
}

// Lookup returns the entry for doc without building it.
func (c *Cache) Lookup(doc *document.Document) (*Entry, bool) {
	x, found := c.store.Get(doc.Key())
	if !found {
		return nil, false
	}
	return x.(*Entry), true
}

// Invalidate drops the entry for doc.
func (c *Cache) Invalidate(doc *document.Document) {
	c.store.Delete(doc.Key())
	c.metrics.CacheSize(c.store.ItemCount())
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.store.Flush()
	c.metrics.CacheSize(0)
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}

// Find returns the references of entry whose text fuzzy-matches p, in
// document order, stopping after limit matches. A limit <= 0 means no limit.
func (e *Entry) Find(p *fuzzy.Pattern, limit int) []Reference {
	var out []Reference
	for _, ref := range e.References {
		if !p.MatchString(ref.Text) {
			continue
		}
		out = append(out, ref)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func (c *Cache) build(doc *document.Document) (*Entry, error) {
	text := doc.Text()
	revision := doc.Revision()

	tokens, err := c.source.Tokenize(doc)
	if err != nil {
		return nil, fmt.Errorf("build references: %w", err)
	}

	selector := c.selectorFor(doc.Language())
	entry := &Entry{DocumentID: doc.Key(), Revision: revision, Text: text}
	for _, tok := range tokens {
		if !selector.MatchString(tok.Category) {
			continue
		}
		entry.References = append(entry.References, Reference{
			Document: doc,
			Line:     tok.Line,
			Column:   tok.Column,
			Text:     tok.Text,
			Preview:  fuzzy.EscapeDisplay(c.source.Line(doc, tok.Line)),
		})
	}
	return entry, nil
}

func (c *Cache) selectorFor(language string) *regexp.Regexp {
	if re, ok := c.overrides[language]; ok {
		return re
	}
	return c.selector
}
