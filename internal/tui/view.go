package tui

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/quickjump/internal/engine/document"
	"github.com/dshills/quickjump/internal/input/palette"
)

const (
	tabWidth = 4
	hint     = "ctrl-p commands  ctrl-g go to  : line  # search  @ symbol  ctrl-c quit"
)

// Session is the palette as seen by the view.
type Session interface {
	Activate(mode palette.Mode)
	OnKeystroke(raw string)
	Navigate(delta int)
	Confirm() error
	Cancel()

	Active() bool
	Mode() palette.Mode
	Input() string
	Pending() bool
	Results() []palette.Candidate
	Selected() int
}

// Documents is the editor state shown below the palette.
type Documents interface {
	Current() *document.Document
	Cursor() document.Point
	Selection() (document.Selection, bool)
}

// Theme holds the styles used by the view.
type Theme struct {
	Text      tcell.Style
	Prompt    tcell.Style
	Label     tcell.Style
	Sublabel  tcell.Style
	Selected  tcell.Style
	Gutter    tcell.Style
	Current   tcell.Style
	Selection tcell.Style
	Status    tcell.Style
}

// DefaultTheme works on 16-color terminals.
func DefaultTheme() Theme {
	base := tcell.StyleDefault
	return Theme{
		Text:      base,
		Prompt:    base.Foreground(tcell.ColorYellow).Bold(true),
		Label:     base.Bold(true),
		Sublabel:  base.Foreground(tcell.ColorGray),
		Selected:  base.Reverse(true),
		Gutter:    base.Foreground(tcell.ColorGray),
		Current:   base.Foreground(tcell.ColorYellow),
		Selection: base.Background(tcell.ColorBlue).Foreground(tcell.ColorWhite),
		Status:    base.Reverse(true),
	}
}

// statusLine is the message shown at the bottom. It is written from any
// goroutine.
type statusLine struct {
	mu  sync.Mutex
	msg string
}

func (s *statusLine) set(msg string) {
	s.mu.Lock()
	s.msg = msg
	s.mu.Unlock()
}

func (s *statusLine) get() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.msg
}

// View draws the palette over the current document and turns keys into
// palette calls.
type View struct {
	session Session
	docs    Documents
	theme   Theme
	status  *statusLine
}

// NewView creates a view with the default theme.
func NewView(session Session, docs Documents) *View {
	return &View{
		session: session,
		docs:    docs,
		theme:   DefaultTheme(),
		status:  &statusLine{},
	}
}

// SetStatus replaces the status message.
func (v *View) SetStatus(msg string) {
	v.status.set(msg)
}

// Status returns the status message.
func (v *View) Status() string {
	return v.status.get()
}

// Draw renders the whole screen onto s.
func (v *View) Draw(s Surface) {
	width, height := s.Size()
	for y := 0; y < height; y++ {
		fill(s, 0, y, width, ' ', v.theme.Text)
	}
	if width <= 0 || height <= 0 {
		return
	}
	s.HideCursor()

	top := 0
	if v.session.Active() {
		top = v.drawPalette(s, width, height-1)
	}
	if cx, cy := v.drawDocument(s, top, width, height-1); !v.session.Active() && cy >= 0 {
		s.ShowCursor(cx, cy)
	}
	v.drawStatus(s, width, height-1)
}

// drawPalette draws the prompt, the results and a separator from row 0. It
// returns the first row below them.
func (v *View) drawPalette(s Surface, width, maxY int) int {
	prompt := v.session.Mode().String() + "> "
	x := drawText(s, 0, 0, width, prompt, v.theme.Prompt)
	x = drawText(s, x, 0, width, v.session.Input(), v.theme.Text)
	if x < width {
		s.ShowCursor(x, 0)
	}
	if v.session.Pending() && width > 1 {
		s.SetContent(width-1, 0, '…', nil, v.theme.Sublabel)
	}

	y := 1
	selected := v.session.Selected()
	for i, c := range v.session.Results() {
		if y >= maxY {
			return y
		}
		label, sub := v.theme.Label, v.theme.Sublabel
		if i == selected {
			label, sub = label.Reverse(true), sub.Reverse(true)
			fill(s, 0, y, width, ' ', v.theme.Selected)
		}
		x := drawText(s, 1, y, width, c.Label(), label)
		drawText(s, x+2, y, width, c.Sublabel(), sub)
		y++
	}
	if y < maxY {
		fill(s, 0, y, width, '─', v.theme.Gutter)
		y++
	}
	return y
}

// drawDocument draws the current document between rows top and maxY,
// scrolled so the cursor line is centered. It returns the screen position
// of the cursor, with y -1 when it is not visible.
func (v *View) drawDocument(s Surface, top, width, maxY int) (int, int) {
	doc := v.docs.Current()
	rows := maxY - top
	if doc == nil || rows <= 0 {
		return 0, -1
	}

	cursor := v.docs.Cursor()
	sel, hasSel := v.docs.Selection()
	lines := doc.LineCount()
	gutter := len(strconv.Itoa(lines)) + 1

	first := max(0, cursor.Line-rows/2)
	if first+rows > lines {
		first = max(0, lines-rows)
	}

	cx, cy := 0, -1
	for row := 0; row < rows && first+row < lines; row++ {
		line := first + row
		y := top + row

		numStyle := v.theme.Gutter
		if line == cursor.Line {
			numStyle = v.theme.Current
		}
		drawText(s, 0, y, gutter, fmt.Sprintf("%*d", gutter-1, line+1), numStyle)

		var mark *lineStyle
		if hasSel && sel.Line == line {
			mark = &lineStyle{start: sel.Start, end: sel.End, style: v.theme.Selection}
		}
		at := -1
		if line == cursor.Line {
			at = cursor.Column
		}
		if x := drawLine(s, gutter, y, width, doc.Line(line), v.theme.Text, mark, at); x >= 0 {
			cx, cy = x, y
		}
	}
	return cx, cy
}

// drawStatus draws the status bar on row y: the document and cursor on the
// left and the status message or key hint on the right.
func (v *View) drawStatus(s Surface, width, y int) {
	fill(s, 0, y, width, ' ', v.theme.Status)

	left := " no document"
	if doc := v.docs.Current(); doc != nil {
		p := v.docs.Cursor()
		left = fmt.Sprintf(" %s  %d:%d", doc.Name(), p.Line+1, p.Column+1)
	}
	x := drawText(s, 0, y, width, left, v.theme.Status)

	right := v.status.get()
	if right == "" {
		right = hint
	}
	start := max(x+2, width-textWidth(right)-1)
	drawText(s, start, y, width, right, v.theme.Status)
}
