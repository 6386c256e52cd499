// Package lexer tokenizes document text into categorized tokens.
//
// Categories use TextMate-style scope names ("identifier",
// "entity.name.function", "keyword.control", ...) so consumers can select
// tokens with simple pattern tests. Two implementations are provided: a
// line-oriented regex lexer for every built-in language and a tree-sitter
// lexer for languages with a bundled grammar.
package lexer

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrUnsupportedLanguage is returned when no tokenizer handles a language.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Common categories.
const (
	CategoryIdentifier   = "identifier"
	CategoryFunctionName = "entity.name.function"
	CategoryTypeName     = "entity.name.type"
	CategoryProperty     = "variable.other.property"
	CategoryParameter    = "variable.parameter"
	CategoryComment      = "comment"
	CategoryString       = "string"
	CategoryNumber       = "constant.numeric"
	CategoryKeyword      = "keyword.control"
	CategoryStorage      = "storage.type"
	CategoryConstant     = "constant.language"
	CategoryBuiltin      = "support.function"
	CategoryBuiltinType  = "support.type"
	CategoryMeta         = "meta"
)

// PlainText is the language used when nothing better is known.
const PlainText = "text"

// Token is one lexical token of a document.
type Token struct {
	// Category is the scope name of the token.
	Category string

	// Text is the literal token text.
	Text string

	// Line is the zero-based line of the first character.
	Line int

	// Column is the zero-based byte column of the first character.
	Column int
}

// Tokenizer turns document text into tokens ordered by position.
type Tokenizer interface {
	// Tokenize returns the tokens of text.
	Tokenize(text string) ([]Token, error)

	// Language returns the language handled by the tokenizer.
	Language() string

	// Extensions returns the file extensions handled by the tokenizer.
	Extensions() []string
}

// Registry maps languages and file extensions to tokenizers.
// It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	byLanguage map[string]Tokenizer
	byExt      map[string]string
	fallback   Tokenizer
}

// NewRegistry creates an empty registry whose fallback lexer emits plain
// identifiers.
func NewRegistry() *Registry {
	return &Registry{
		byLanguage: make(map[string]Tokenizer),
		byExt:      make(map[string]string),
		fallback:   PlainLexer(),
	}
}

// DefaultRegistry returns a registry with every built-in regex lexer.
// When treeSitter is true, languages with a bundled grammar use the
// tree-sitter lexer instead.
func DefaultRegistry(treeSitter bool) *Registry {
	r := NewRegistry()
	r.Register(GoLexer())
	r.Register(JavaScriptLexer())
	r.Register(PythonLexer())
	r.Register(RustLexer())
	if treeSitter {
		for _, t := range TreeSitterLexers() {
			r.Register(t)
		}
	}
	return r
}

// Register adds t, replacing any tokenizer for the same language.
func (r *Registry) Register(t Tokenizer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byLanguage[t.Language()] = t
	for _, ext := range t.Extensions() {
		r.byExt[strings.ToLower(ext)] = t.Language()
	}
}

// Get returns the tokenizer registered for language.
func (r *Registry) Get(language string) (Tokenizer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byLanguage[language]
	return t, ok
}

// LanguageForPath returns the language registered for the extension of path,
// or PlainText.
func (r *Registry) LanguageForPath(path string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if lang, ok := r.byExt[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return PlainText
}

// Languages returns the registered languages in sorted order.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	langs := make([]string, 0, len(r.byLanguage))
	for lang := range r.byLanguage {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Tokenize tokenizes text with the tokenizer for language. Unknown
// languages, including PlainText, use the fallback lexer.
func (r *Registry) Tokenize(language, text string) ([]Token, error) {
	t, ok := r.Get(language)
	if !ok {
		t = r.fallback
	}
	tokens, err := t.Tokenize(text)
	if err != nil {
		return nil, fmt.Errorf("tokenize %s: %w", language, err)
	}
	return tokens, nil
}
