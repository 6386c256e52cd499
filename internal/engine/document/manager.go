package document

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/quickjump/internal/lexer"
)

// ErrNotOpen is returned for documents the manager does not hold.
var ErrNotOpen = errors.New("document not open")

// Selection is a selected byte range on one line.
type Selection struct {
	Line  int
	Start int
	End   int
}

// view is the per-document editor state.
type view struct {
	cursor    Point
	selection *Selection
}

// location is a saved document and cursor.
type location struct {
	doc  *Document
	view view
}

// Manager tracks open documents, the front document and its cursor.
// It is safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	docs    []*Document
	current *Document
	views   map[*Document]*view
	saved   *location
	focused bool

	lexers  *lexer.Registry
	onClose []func(*Document)
	logger  *zap.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLexers sets the registry used to detect languages and tokenize.
func WithLexers(r *lexer.Registry) ManagerOption {
	return func(m *Manager) {
		m.lexers = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates an empty manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		views:  make(map[*Document]*view),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.lexers == nil {
		m.lexers = lexer.DefaultRegistry(false)
	}
	m.logger = m.logger.Named("documents")
	return m
}

// Open adds a document for path with text and brings it to front.
func (m *Manager) Open(path, text string) *Document {
	doc := New(path, text)
	doc.SetLanguage(m.lexers.LanguageForPath(path))

	m.mu.Lock()
	m.docs = append(m.docs, doc)
	m.views[doc] = &view{}
	m.current = doc
	m.mu.Unlock()

	m.logger.Debug("opened",
		zap.String("path", path),
		zap.String("id", doc.Key()),
		zap.String("language", doc.Language()))
	return doc
}

// OpenFile reads path from disk and opens it. A path that is already open
// is brought to front instead.
func (m *Manager) OpenFile(path string) (*Document, error) {
	if doc := m.Find(path); doc != nil {
		m.BringToFront(doc)
		return doc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return m.Open(path, string(data)), nil
}

// Find returns the open document for path, or nil.
func (m *Manager) Find(path string) *Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, doc := range m.docs {
		if doc.Path() == path {
			return doc
		}
	}
	return nil
}

// Close removes doc and notifies close hooks. The most recently opened
// remaining document becomes current.
func (m *Manager) Close(doc *Document) error {
	m.mu.Lock()
	idx := slices.Index(m.docs, doc)
	if idx < 0 {
		m.mu.Unlock()
		return fmt.Errorf("close %s: %w", doc.Name(), ErrNotOpen)
	}
	m.docs = slices.Delete(m.docs, idx, idx+1)
	delete(m.views, doc)
	if m.current == doc {
		m.current = nil
		if n := len(m.docs); n > 0 {
			m.current = m.docs[n-1]
		}
	}
	if m.saved != nil && m.saved.doc == doc {
		m.saved = nil
	}
	hooks := slices.Clone(m.onClose)
	m.mu.Unlock()

	for _, fn := range hooks {
		fn(doc)
	}
	m.logger.Debug("closed", zap.String("id", doc.Key()))
	return nil
}

// OnClose registers fn to run after a document is closed.
func (m *Manager) OnClose(fn func(*Document)) {
	m.mu.Lock()
	m.onClose = append(m.onClose, fn)
	m.mu.Unlock()
}

// OpenDocuments returns the open documents in opening order.
func (m *Manager) OpenDocuments() []*Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.docs)
}

// Current returns the front document, or nil when none is open.
func (m *Manager) Current() *Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// BringToFront makes doc the current document. Unknown documents are ignored.
func (m *Manager) BringToFront(doc *Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.views[doc]; ok {
		m.current = doc
	}
}

// SaveLocation records the current document and its cursor.
func (m *Manager) SaveLocation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		m.saved = nil
		return
	}
	v := *m.views[m.current]
	if v.selection != nil {
		sel := *v.selection
		v.selection = &sel
	}
	m.saved = &location{doc: m.current, view: v}
}

// RestoreLocation returns to the location recorded by SaveLocation.
func (m *Manager) RestoreLocation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		return
	}
	if v, ok := m.views[m.saved.doc]; ok {
		*v = m.saved.view
		m.current = m.saved.doc
	}
	m.saved = nil
}

// ClearSelection drops the selection of the current document.
func (m *Manager) ClearSelection() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v := m.currentView(); v != nil {
		v.selection = nil
	}
}

// MoveCursorTo places the cursor of the current document, clamped to its
// text.
func (m *Manager) MoveCursorTo(line, col int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v := m.currentView(); v != nil {
		v.cursor = m.current.ClampPoint(Point{Line: line, Column: col})
	}
}

// SelectWordAtCursor selects the word under the cursor of the current
// document, if any.
func (m *Manager) SelectWordAtCursor() {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.currentView()
	if v == nil {
		return
	}
	if start, end, ok := m.current.WordAt(v.cursor); ok {
		v.selection = &Selection{Line: v.cursor.Line, Start: start, End: end}
	}
}

// Focus gives keyboard focus back to the editor.
func (m *Manager) Focus() {
	m.mu.Lock()
	m.focused = true
	m.mu.Unlock()
}

// Blur records that focus moved elsewhere, such as to the palette.
func (m *Manager) Blur() {
	m.mu.Lock()
	m.focused = false
	m.mu.Unlock()
}

// Focused reports whether the editor has focus.
func (m *Manager) Focused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.focused
}

// Cursor returns the cursor of the current document.
func (m *Manager) Cursor() Point {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v := m.currentView(); v != nil {
		return v.cursor
	}
	return Point{}
}

// Selection returns the selection of the current document.
func (m *Manager) Selection() (Selection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v := m.currentView(); v != nil && v.selection != nil {
		return *v.selection, true
	}
	return Selection{}, false
}

// currentView must be called with mu held.
func (m *Manager) currentView() *view {
	if m.current == nil {
		return nil
	}
	return m.views[m.current]
}

// FullText returns the live text of doc.
func (m *Manager) FullText(doc *Document) string {
	return doc.Text()
}

// Line returns line i of doc.
func (m *Manager) Line(doc *Document, i int) string {
	return doc.Line(i)
}

// OffsetToPosition converts a byte offset in doc to a line and column.
func (m *Manager) OffsetToPosition(doc *Document, offset int) (line, col int) {
	p := doc.OffsetToPoint(offset)
	return p.Line, p.Column
}

// Tokenize tokenizes doc with the lexer for its language.
func (m *Manager) Tokenize(doc *Document) ([]lexer.Token, error) {
	tokens, err := m.lexers.Tokenize(doc.Language(), doc.Text())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", doc.Name(), err)
	}
	return tokens, nil
}
