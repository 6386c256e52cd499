package palette

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dshills/quickjump/internal/action"
	"github.com/dshills/quickjump/internal/engine/document"
	"github.com/dshills/quickjump/internal/lexer"
)

// manualTimer is a call held by manualScheduler.
type manualTimer struct {
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	pending := !t.stopped && !t.fired
	t.stopped = true
	return pending
}

// manualScheduler runs scheduled calls only when Fire is called.
type manualScheduler struct {
	timers []*manualTimer
	last   time.Duration
}

func (s *manualScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	t := &manualTimer{fn: fn}
	s.timers = append(s.timers, t)
	s.last = d
	return t
}

// Fire runs every pending call and returns how many ran.
func (s *manualScheduler) Fire() int {
	timers := s.timers
	s.timers = nil
	n := 0
	for _, t := range timers {
		if t.stopped || t.fired {
			continue
		}
		t.fired = true
		t.fn()
		n++
	}
	return n
}

// Scheduled returns the number of calls scheduled since the last Fire.
func (s *manualScheduler) Scheduled() int {
	return len(s.timers)
}

type staticFiles []string

func (f staticFiles) Paths() []string { return f }

type prefMap map[string]bool

func (m prefMap) Bool(key string) bool { return m[key] }

type recorder struct {
	notes []string
}

func (r *recorder) Notify(msg string) { r.notes = append(r.notes, msg) }

// countingContent counts tokenizer calls on top of a Manager.
type countingContent struct {
	*document.Manager
	tokenized int
	err       error
}

func (c *countingContent) Tokenize(doc *document.Document) ([]lexer.Token, error) {
	c.tokenized++
	if c.err != nil {
		return nil, c.err
	}
	return c.Manager.Tokenize(doc)
}

// dispatch records one call to a registered action.
type dispatch struct {
	id  string
	arg any
}

type fixture struct {
	palette   *Palette
	docs      *document.Manager
	content   *countingContent
	actions   *action.Registry
	scheduler *manualScheduler
	notes     *recorder
	prefs     prefMap
	calls     []dispatch
}

// newFixture builds a palette over a fresh document manager and action
// registry. The core actions record their calls on the fixture.
func newFixture(t *testing.T, files []string, opts ...Option) *fixture {
	t.Helper()

	f := &fixture{
		docs:      document.NewManager(),
		actions:   action.NewRegistry(nil),
		scheduler: &manualScheduler{},
		notes:     &recorder{},
		prefs:     prefMap{},
	}
	f.content = &countingContent{Manager: f.docs}

	for _, id := range []string{CommandOpenFile, CommandCheckFile} {
		require.NoError(t, f.actions.Register(&action.Action{
			ID:      id,
			Label:   id,
			Handler: f.record(id),
		}))
	}

	opts = append([]Option{WithScheduler(f.scheduler)}, opts...)
	p, err := New(Collaborators{
		Sessions:    f.docs,
		Editor:      f.docs,
		Content:     f.content,
		Actions:     f.actions,
		Files:       staticFiles(files),
		Preferences: f.prefs,
		Notifier:    f.notes,
	}, opts...)
	require.NoError(t, err)
	f.palette = p
	return f
}

func (f *fixture) record(id string) action.Handler {
	return func(arg any) error {
		f.calls = append(f.calls, dispatch{id: id, arg: arg})
		return nil
	}
}

// register adds an action that records its calls.
func (f *fixture) register(t *testing.T, id, label string) {
	t.Helper()
	require.NoError(t, f.actions.Register(&action.Action{
		ID:      id,
		Label:   label,
		Handler: f.record(id),
	}))
}

// typeAndFire feeds raw as one keystroke and lets the debounce gate fire.
func (f *fixture) typeAndFire(raw string) {
	f.palette.OnKeystroke(raw)
	f.scheduler.Fire()
}

func labels(results []Candidate) []string {
	out := make([]string, len(results))
	for i, c := range results {
		out[i] = c.Label()
	}
	return out
}

func sublabels(results []Candidate) []string {
	out := make([]string, len(results))
	for i, c := range results {
		out[i] = c.Sublabel()
	}
	return out
}

// numbered returns n lines, with text placed at the given zero-based lines.
func numbered(n int, text map[int]string) string {
	var b []byte
	for i := 0; i < n; i++ {
		if s, ok := text[i]; ok {
			b = append(b, s...)
		} else {
			b = append(b, "-"...)
		}
		b = append(b, '\n')
	}
	return string(b)
}
