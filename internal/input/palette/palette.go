package palette

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/dshills/quickjump/internal/config"
	"github.com/dshills/quickjump/internal/engine/document"
	"github.com/dshills/quickjump/internal/input/fuzzy"
	"github.com/dshills/quickjump/internal/input/query"
	"github.com/dshills/quickjump/internal/metrics"
	"github.com/dshills/quickjump/internal/project/refcache"
)

// Mode selects what the palette searches.
type Mode uint8

const (
	// ModeLocation searches documents, files, text and references.
	ModeLocation Mode = iota
	// ModeCommand searches menus and registered actions.
	ModeCommand
	// ModeLine is location mode with the input seeded with ':'.
	ModeLine
	// ModeSearch is location mode with the input seeded with '#'.
	ModeSearch
	// ModeReference is location mode with the input seeded with '@'.
	ModeReference
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeCommand:
		return "command"
	case ModeLine:
		return "line"
	case ModeSearch:
		return "search"
	case ModeReference:
		return "reference"
	default:
		return "location"
	}
}

// Prefix returns the sentinel the input is seeded with on activation.
func (m Mode) Prefix() string {
	switch m {
	case ModeLine:
		return string(query.LineSentinel)
	case ModeSearch:
		return string(query.SearchSentinel)
	case ModeReference:
		return string(query.ReferenceSentinel)
	default:
		return ""
	}
}

// ParseMode returns the mode named s.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "location", "goto":
		return ModeLocation, nil
	case "command":
		return ModeCommand, nil
	case "line":
		return ModeLine, nil
	case "search":
		return ModeSearch, nil
	case "reference":
		return ModeReference, nil
	}
	return ModeLocation, fmt.Errorf("unknown palette mode %q", s)
}

// Option configures a Palette.
type Option func(*Palette)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Palette) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics records passes and dispatches on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Palette) { p.metrics = m }
}

// WithVersion sets the running version used to gate menu items.
func WithVersion(v *semver.Version) Option {
	return func(p *Palette) { p.version = v }
}

// WithScheduler sets the scheduler of the debounce gate.
func WithScheduler(s Scheduler) Option {
	return func(p *Palette) {
		if s != nil {
			p.scheduler = s
		}
	}
}

// WithDebounce sets the quiet period before typed input is evaluated.
func WithDebounce(d time.Duration) Option {
	return func(p *Palette) {
		if d >= 0 {
			p.window = d
		}
	}
}

// WithPatternCache shares a compiled pattern cache.
func WithPatternCache(c *fuzzy.Cache) Option {
	return func(p *Palette) { p.patterns = c }
}

// WithReferenceCache shares a reference cache, typically so the host can
// invalidate entries when documents close.
func WithReferenceCache(c *refcache.Cache) Option {
	return func(p *Palette) { p.refs = c }
}

// Palette is the palette session. It is created once and reused: Activate
// resets it and Deactivate clears it.
type Palette struct {
	sessions Sessions
	editor   Editor
	content  Content
	actions  Actions
	files    FileIndex
	prefs    Preferences
	notifier Notifier

	logger    *zap.Logger
	metrics   *metrics.Metrics
	version   *semver.Version
	scheduler Scheduler
	window    time.Duration
	patterns  *fuzzy.Cache
	refs      *refcache.Cache
	debounce  *debouncer

	active    bool
	mode      Mode
	home      *document.Document
	input     string
	searchAll bool

	// pool is the project file list captured on activation; working is the
	// subset still matching the file part of the input.
	pool    []string
	working []string

	results  []Candidate
	selected int
}

// New creates an inactive palette. WithScheduler is required; hosts without
// an event loop can pass a Queue and drain it themselves.
func New(c Collaborators, opts ...Option) (*Palette, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	p := &Palette{
		sessions: c.Sessions,
		editor:   c.Editor,
		content:  c.Content,
		actions:  c.Actions,
		files:    c.Files,
		prefs:    c.Preferences,
		notifier: c.Notifier,
		logger:   zap.NewNop(),
		window:   DefaultDebounce,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.scheduler == nil {
		return nil, fmt.Errorf("%w: scheduler", ErrMissingCollaborator)
	}
	p.logger = p.logger.Named("palette")

	if p.patterns == nil {
		p.patterns = fuzzy.NewCache(fuzzy.DefaultCacheSize)
	}
	if p.refs == nil {
		refs, err := refcache.New(c.Content,
			refcache.WithLogger(p.logger),
			refcache.WithMetrics(p.metrics))
		if err != nil {
			return nil, fmt.Errorf("reference cache: %w", err)
		}
		p.refs = refs
	}
	p.debounce = newDebouncer(p.scheduler, p.window)
	return p, nil
}

// Activate opens the palette in mode. It saves the editor location, resets
// every piece of session state, clears the reference cache, captures the
// project file list and seeds the input with the mode prefix.
func (p *Palette) Activate(mode Mode) {
	p.debounce.cancel()
	p.sessions.SaveLocation()

	p.home = p.sessions.Current()
	p.results = nil
	p.selected = 0
	p.refs.Clear()
	p.pool = p.files.Paths()
	p.working = p.pool
	p.searchAll = p.prefs.Bool(config.KeySearchAllDocuments)

	p.mode = ModeLocation
	if mode == ModeCommand {
		p.mode = ModeCommand
	}
	p.input = mode.Prefix()
	p.active = true

	p.logger.Debug("activated",
		zap.Stringer("mode", mode),
		zap.Int("files", len(p.pool)),
		zap.Bool("searchAll", p.searchAll))
}

// OnKeystroke records the new input and schedules an evaluation. An edit
// that does not extend the previous input restarts file narrowing from the
// full pool. Ignored while inactive.
func (p *Palette) OnKeystroke(raw string) {
	if !p.active {
		return
	}
	p.selected = 0
	if !strings.HasPrefix(raw, p.input) {
		p.working = p.pool
	}
	p.input = raw
	p.debounce.trigger(func() {
		if p.active {
			p.Evaluate(p.input)
		}
	})
}

// Evaluate runs one pass over raw immediately. A pass that fails to build
// its patterns or references leaves the previous results untouched. File
// narrowing continues from the current working set; only OnKeystroke resets
// it to the full pool, so a one-shot caller should Evaluate once after
// Activate.
func (p *Palette) Evaluate(raw string) {
	if !p.active {
		return
	}
	start := time.Now()
	p.input = raw
	if query.ForcesLocation(raw) {
		p.mode = ModeLocation
	}

	q := query.Parse(raw)
	kind := q.Kind().String()

	var results []Candidate
	var err error
	if p.mode == ModeCommand {
		kind = "command"
		results, err = p.findCommands(raw)
	} else {
		results, err = p.findLocations(q)
	}
	if err != nil {
		var ae *abortError
		reason := "unknown"
		if errors.As(err, &ae) {
			reason = ae.reason
		}
		p.metrics.RecordAbort(reason)
		p.logger.Debug("pass aborted",
			zap.String("input", raw),
			zap.String("reason", reason),
			zap.Error(err))
		return
	}

	p.results = results
	if p.selected >= len(results) {
		p.selected = 0
	}
	p.metrics.RecordPass(p.mode.String(), kind, len(results), time.Since(start))
	p.reveal()
}

// reveal shows the selected candidate in the editor: its document comes to
// front and, when it has a line, the cursor moves there. A recorded column
// also selects the word under the cursor.
func (p *Palette) reveal() {
	c, ok := p.Current()
	if !ok {
		return
	}
	doc, line, col, ok := target(c)
	if !ok {
		return
	}
	p.sessions.BringToFront(doc)
	if line < 0 {
		return
	}
	p.editor.ClearSelection()
	p.editor.MoveCursorTo(line, max(col, 0))
	if col >= 0 {
		p.editor.SelectWordAtCursor()
	}
}

// Navigate moves the selection by delta, wrapping around the result list,
// and brings the newly selected document to front.
func (p *Palette) Navigate(delta int) {
	if !p.active || len(p.results) == 0 {
		return
	}
	n := len(p.results)
	p.selected = ((p.selected+delta)%n + n) % n
	if doc, _, _, ok := target(p.results[p.selected]); ok {
		p.sessions.BringToFront(doc)
	}
}

// Confirm runs the selected candidate and closes the palette. Actions and
// files are dispatched by command id with a status notification; document
// locations dispatch CommandCheckFile. Focus returns to the editor unless
// the candidate retains it. Confirm with nothing selected does nothing.
func (p *Palette) Confirm() error {
	c, ok := p.Current()
	if !ok {
		return nil
	}

	var err error
	retain := false
	switch c := c.(type) {
	case ActionCandidate:
		p.notifier.Notify("Executing: " + c.Label() + "...")
		err = p.actions.Dispatch(c.CommandID, c.Argument)
		retain = c.RetainFocus
	case FileCandidate:
		p.notifier.Notify("Executing: " + c.Label() + "...")
		err = p.actions.Dispatch(CommandOpenFile, c.FullPath)
	case LocationCandidate, ReferenceCandidate:
		err = p.actions.Dispatch(CommandCheckFile, nil)
	default:
		panic(fmt.Sprintf("palette: unknown candidate %T", c))
	}

	kind := kindOf(c)
	p.metrics.RecordDispatch(kind, err)
	if err != nil {
		p.logger.Warn("dispatch failed",
			zap.String("candidate", kind),
			zap.String("label", c.Label()),
			zap.Error(err))
	}

	p.Deactivate()
	if !retain {
		p.editor.Focus()
	}
	return err
}

// Cancel closes the palette and returns to the location saved on
// activation.
func (p *Palette) Cancel() {
	if !p.active {
		return
	}
	p.sessions.RestoreLocation()
	p.editor.ClearSelection()
	p.Deactivate()
}

// Deactivate closes the palette without restoring the saved location and
// drops any pending evaluation.
func (p *Palette) Deactivate() {
	p.debounce.cancel()
	p.active = false
	p.home = nil
	p.input = ""
	p.pool = nil
	p.working = nil
	p.results = nil
	p.selected = 0
}

// Active reports whether the palette is open.
func (p *Palette) Active() bool {
	return p.active
}

// Mode returns ModeCommand or ModeLocation.
func (p *Palette) Mode() Mode {
	return p.mode
}

// Input returns the current input text.
func (p *Palette) Input() string {
	return p.input
}

// Pending reports whether an evaluation is waiting on the debounce gate.
func (p *Palette) Pending() bool {
	return p.debounce.isPending()
}

// Results returns a copy of the current results.
func (p *Palette) Results() []Candidate {
	out := make([]Candidate, len(p.results))
	copy(out, p.results)
	return out
}

// Selected returns the index of the selected result.
func (p *Palette) Selected() int {
	return p.selected
}

// Current returns the selected result.
func (p *Palette) Current() (Candidate, bool) {
	if p.selected < 0 || p.selected >= len(p.results) {
		return nil, false
	}
	return p.results[p.selected], true
}
