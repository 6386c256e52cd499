package tui

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/quickjump/internal/action"
	"github.com/dshills/quickjump/internal/engine/document"
	"github.com/dshills/quickjump/internal/input/palette"
)

// grid is an in-memory Surface.
type grid struct {
	w, h   int
	cells  [][]rune
	styles [][]tcell.Style
	cx, cy int
	shown  bool
}

func newGrid(w, h int) *grid {
	g := &grid{w: w, h: h, cells: make([][]rune, h), styles: make([][]tcell.Style, h)}
	for y := range g.cells {
		g.cells[y] = []rune(strings.Repeat(" ", w))
		g.styles[y] = make([]tcell.Style, w)
	}
	return g
}

func (g *grid) Size() (int, int) { return g.w, g.h }

func (g *grid) SetContent(x, y int, r rune, _ []rune, style tcell.Style) {
	if x < 0 || y < 0 || x >= g.w || y >= g.h {
		return
	}
	g.cells[y][x] = r
	g.styles[y][x] = style
}

func (g *grid) ShowCursor(x, y int) { g.cx, g.cy, g.shown = x, y, true }
func (g *grid) HideCursor()         { g.shown = false }

func (g *grid) row(y int) string {
	return strings.TrimRight(string(g.cells[y]), " ")
}

// instant runs scheduled calls immediately.
type instant struct{}

func (instant) Stop() bool { return false }

func runNow(_ time.Duration, fn func()) palette.Timer {
	fn()
	return instant{}
}

type fixture struct {
	view     *View
	palette  *palette.Palette
	docs     *document.Manager
	actions  *action.Registry
	surface  *grid
	checked  int
	openPath any
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		docs:    document.NewManager(),
		actions: action.NewRegistry(nil),
		surface: newGrid(60, 12),
	}
	require.NoError(t, f.actions.Register(&action.Action{
		ID:      palette.CommandCheckFile,
		Label:   "Check File",
		Handler: func(any) error { f.checked++; return nil },
	}))
	require.NoError(t, f.actions.Register(&action.Action{
		ID:      palette.CommandOpenFile,
		Label:   "Open File",
		Handler: func(arg any) error { f.openPath = arg; return nil },
	}))

	p, err := palette.New(palette.Collaborators{
		Sessions: f.docs,
		Editor:   f.docs,
		Content:  f.docs,
		Actions:  f.actions,
	}, palette.WithScheduler(palette.SchedulerFunc(runNow)))
	require.NoError(t, err)
	f.palette = p
	f.view = NewView(p, f.docs)
	return f
}

func key(k tcell.Key) *tcell.EventKey {
	return tcell.NewEventKey(k, 0, tcell.ModNone)
}

func (f *fixture) typeText(text string) {
	for _, r := range text {
		f.view.HandleKey(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
	}
}

func (f *fixture) draw() *grid {
	f.view.Draw(f.surface)
	return f.surface
}

func TestDrawDocument(t *testing.T) {
	f := newFixture(t)
	f.docs.Open("/w/main.go", "package main\n\nfunc main() {\n\tprintln()\n}\n")
	f.docs.MoveCursorTo(3, 1)

	g := f.draw()
	assert.Equal(t, "1 package main", g.row(0))
	assert.Equal(t, "3 func main() {", g.row(2))
	assert.Equal(t, "4     println()", g.row(3))
	assert.True(t, g.shown)
	assert.Equal(t, 6, g.cx, "tab expands before the cursor")
	assert.Equal(t, 3, g.cy)

	status := g.row(11)
	assert.True(t, strings.HasPrefix(status, " main.go  4:2"), status)
	assert.Contains(t, status, "ctrl-p")
}

func TestDrawNoDocument(t *testing.T) {
	f := newFixture(t)
	g := f.draw()
	assert.Equal(t, "", g.row(0))
	assert.True(t, strings.HasPrefix(g.row(11), " no document"))
	assert.False(t, g.shown)
}

func TestDrawScrollsToCursor(t *testing.T) {
	f := newFixture(t)
	var b strings.Builder
	for i := 1; i <= 100; i++ {
		b.WriteString("line\n")
	}
	f.docs.Open("/w/long.txt", b.String())
	f.docs.MoveCursorTo(50, 0)

	g := f.draw()
	assert.Equal(t, " 46 line", g.row(0))
	assert.Equal(t, 5, g.cy)

	f.docs.MoveCursorTo(100, 0)
	g = f.draw()
	assert.Equal(t, "101", g.row(10), "last line is the empty one after the final newline")
}

func TestEditorKeysOpenPalette(t *testing.T) {
	tests := []struct {
		name  string
		ev    *tcell.EventKey
		mode  palette.Mode
		input string
	}{
		{"ctrl-p code", key(tcell.KeyCtrlP), palette.ModeCommand, ""},
		{"ctrl-p rune", tcell.NewEventKey(tcell.KeyRune, 'p', tcell.ModCtrl), palette.ModeCommand, ""},
		{"ctrl-g", key(tcell.KeyCtrlG), palette.ModeLocation, ""},
		{"line", tcell.NewEventKey(tcell.KeyRune, ':', tcell.ModNone), palette.ModeLocation, ":"},
		{"search", tcell.NewEventKey(tcell.KeyRune, '#', tcell.ModNone), palette.ModeLocation, "#"},
		{"reference", tcell.NewEventKey(tcell.KeyRune, '@', tcell.ModNone), palette.ModeLocation, "@"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			assert.False(t, f.view.HandleKey(tt.ev))
			assert.True(t, f.palette.Active())
			assert.Equal(t, tt.mode, f.palette.Mode())
			assert.Equal(t, tt.input, f.palette.Input())

			f.view.HandleKey(key(tcell.KeyEscape))
			assert.False(t, f.palette.Active())
		})
	}

	f := newFixture(t)
	f.typeText("x")
	assert.False(t, f.palette.Active())
}

func TestQuitKeys(t *testing.T) {
	f := newFixture(t)
	assert.True(t, f.view.HandleKey(key(tcell.KeyCtrlC)))
	assert.True(t, f.view.HandleKey(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModCtrl)))

	f.view.HandleKey(key(tcell.KeyCtrlG))
	assert.True(t, f.view.HandleKey(key(tcell.KeyCtrlC)))
}

func TestSearchAndConfirm(t *testing.T) {
	f := newFixture(t)
	f.docs.Open("/w/a.go", "// TODO one\nx\n// TODO two\n")

	f.view.HandleKey(tcell.NewEventKey(tcell.KeyRune, '#', tcell.ModNone))
	f.typeText("TODO")
	assert.Equal(t, "#TODO", f.palette.Input())
	require.Len(t, f.palette.Results(), 2)
	assert.Equal(t, 0, f.docs.Cursor().Line)

	g := f.draw()
	assert.Equal(t, "location> #TODO", g.row(0))
	assert.Equal(t, " a.go  // TODO one", g.row(1))
	assert.Equal(t, " a.go  // TODO two", g.row(2))
	assert.Equal(t, strings.Repeat("─", 60), g.row(3))
	assert.Equal(t, tcell.StyleDefault.Reverse(true), g.styles[1][0])
	assert.Equal(t, 15, g.cx)
	assert.Equal(t, 0, g.cy)

	f.view.HandleKey(key(tcell.KeyDown))
	assert.Equal(t, 1, f.palette.Selected())
	f.view.HandleKey(key(tcell.KeyTab))
	assert.Equal(t, 0, f.palette.Selected())
	f.view.HandleKey(key(tcell.KeyUp))
	assert.Equal(t, 1, f.palette.Selected())

	f.view.HandleKey(key(tcell.KeyEnter))
	assert.Equal(t, 1, f.checked)
	assert.False(t, f.palette.Active())
}

func TestBackspaceAndClear(t *testing.T) {
	f := newFixture(t)
	f.view.HandleKey(key(tcell.KeyCtrlG))
	f.typeText("ab")
	f.view.HandleKey(key(tcell.KeyBackspace2))
	assert.Equal(t, "a", f.palette.Input())
	f.view.HandleKey(key(tcell.KeyBackspace))
	assert.Equal(t, "", f.palette.Input())
	f.view.HandleKey(key(tcell.KeyBackspace))
	assert.Equal(t, "", f.palette.Input())
	assert.True(t, f.palette.Active())

	f.typeText("xyz")
	f.view.HandleKey(key(tcell.KeyCtrlU))
	assert.Equal(t, "", f.palette.Input())
}

func TestConfirmErrorShowsStatus(t *testing.T) {
	f := newFixture(t)
	f.actions.SetMenus([]action.MenuItem{{Label: "Broken", Command: "nowhere:missing"}})

	f.view.HandleKey(key(tcell.KeyCtrlP))
	f.typeText("broken")
	f.view.HandleKey(key(tcell.KeyEnter))
	assert.Contains(t, f.view.Status(), "unknown action")

	g := f.draw()
	assert.Contains(t, g.row(11), "unknown action")

	// Opening the palette clears the message.
	f.view.HandleKey(key(tcell.KeyCtrlP))
	assert.Empty(t, f.view.Status())
}

func TestDrawResultsTruncated(t *testing.T) {
	f := newFixture(t)
	f.surface = newGrid(20, 4)
	f.docs.Open("/w/a.go", "// TODO a very long line that cannot fit\n// TODO b\n")

	f.view.HandleKey(tcell.NewEventKey(tcell.KeyRune, '#', tcell.ModNone))
	f.typeText("TODO")
	g := f.draw()
	assert.Equal(t, " a.go  // TODO a ver", g.row(1))
	assert.Equal(t, " a.go  // TODO b", g.row(2))
	assert.True(t, strings.HasPrefix(g.row(3), " a.go  1:1"))
}

func TestDrawLine(t *testing.T) {
	g := newGrid(20, 1)
	mark := &lineStyle{start: 1, end: 3, style: tcell.StyleDefault.Bold(true)}
	x := drawLine(g, 0, 0, 20, "\tab界c", tcell.StyleDefault, mark, 6)
	assert.Equal(t, "    ab界 c", g.row(0))
	assert.Equal(t, 8, x)
	assert.Equal(t, mark.style, g.styles[0][4])
	assert.Equal(t, mark.style, g.styles[0][5])
	assert.Equal(t, tcell.StyleDefault, g.styles[0][6])

	g = newGrid(20, 1)
	assert.Equal(t, 3, drawLine(g, 0, 0, 20, "abc", tcell.StyleDefault, nil, 3))
	assert.Equal(t, -1, drawLine(g, 0, 0, 2, "abc", tcell.StyleDefault, nil, 2))
}

func TestDropLastGrapheme(t *testing.T) {
	assert.Equal(t, "", dropLastGrapheme(""))
	assert.Equal(t, "ab", dropLastGrapheme("abc"))
	assert.Equal(t, "a", dropLastGrapheme("aé"))
	assert.Equal(t, "x", dropLastGrapheme("x👍🏽"))
}

func TestDrawTextWide(t *testing.T) {
	g := newGrid(5, 1)
	assert.Equal(t, 4, drawText(g, 0, 0, 5, "界界界", tcell.StyleDefault))
	assert.Equal(t, "界 界", g.row(0))
	assert.Equal(t, 6, textWidth("界界界"))
}

type poster struct {
	mu     sync.Mutex
	fail   int
	events []tcell.Event
}

func (p *poster) PostEvent(ev tcell.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail > 0 {
		p.fail--
		return errors.New("queue full")
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *poster) posted() []tcell.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]tcell.Event(nil), p.events...)
}

func TestSchedulerPostsToLoop(t *testing.T) {
	p := &poster{fail: 2}
	s := NewScheduler(p)

	ran := false
	s.AfterFunc(time.Millisecond, func() { ran = true })
	require.Eventually(t, func() bool { return len(p.posted()) == 1 }, time.Second, time.Millisecond)
	assert.False(t, ran, "the call waits for the loop")

	ev, ok := p.posted()[0].(*tcell.EventInterrupt)
	require.True(t, ok)
	assert.True(t, runTask(ev))
	assert.True(t, ran)

	assert.False(t, runTask(tcell.NewEventInterrupt(nil)))

	timer := s.AfterFunc(time.Hour, func() {})
	assert.True(t, timer.Stop())
}

func TestSchedulerDropReleasesPalette(t *testing.T) {
	p := &poster{fail: postAttempts}
	docs := document.NewManager()
	pal, err := palette.New(palette.Collaborators{
		Sessions: docs,
		Editor:   docs,
		Content:  docs,
		Actions:  action.NewRegistry(nil),
	}, palette.WithScheduler(NewScheduler(p)), palette.WithDebounce(time.Millisecond))
	require.NoError(t, err)

	pal.Activate(palette.ModeLocation)
	pal.OnKeystroke("a")
	assert.True(t, pal.Pending())

	// Every post fails, so the pass is dropped and the gate opens again.
	waitFor(t, func() bool { return !pal.Pending() })
	assert.Empty(t, p.posted())

	pal.OnKeystroke("ab")
	assert.True(t, pal.Pending(), "the next keystroke schedules again")
	waitFor(t, func() bool { return len(p.posted()) == 1 })

	ev, ok := p.posted()[0].(*tcell.EventInterrupt)
	require.True(t, ok)
	assert.True(t, runTask(ev))
	assert.False(t, pal.Pending())
	assert.Equal(t, "ab", pal.Input())
}

// waitFor polls cond on the calling goroutine, which owns the palette.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
