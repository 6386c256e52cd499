package tui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"
)

// Surface is the part of tcell.Screen the view draws on.
type Surface interface {
	Size() (width, height int)
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
	ShowCursor(x, y int)
	HideCursor()
}

// drawText draws text at (x, y) one grapheme cluster at a time, stopping
// before a cluster would cross maxX. It returns the column after the last
// drawn cluster.
func drawText(s Surface, x, y, maxX int, text string, style tcell.Style) int {
	state := -1
	for text != "" {
		var cluster string
		var width int
		cluster, text, width, state = uniseg.FirstGraphemeClusterInString(text, state)
		if width == 0 {
			continue
		}
		if x+width > maxX {
			break
		}
		runes := []rune(cluster)
		s.SetContent(x, y, runes[0], runes[1:], style)
		for i := 1; i < width; i++ {
			s.SetContent(x+i, y, ' ', nil, style)
		}
		x += width
	}
	return x
}

// fill sets every cell of row y from x to maxX.
func fill(s Surface, x, y, maxX int, r rune, style tcell.Style) {
	for ; x < maxX; x++ {
		s.SetContent(x, y, r, nil, style)
	}
}

// textWidth returns the display width of text.
func textWidth(text string) int {
	return uniseg.StringWidth(text)
}

// dropLastGrapheme removes the last user-perceived character of text.
func dropLastGrapheme(text string) string {
	last := 0
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		last, _ = g.Positions()
	}
	return text[:last]
}

// lineStyle styles the byte range [start, end) of a line differently.
type lineStyle struct {
	start, end int
	style      tcell.Style
}

// drawLine draws a document line, expanding tabs to tabWidth and styling
// the bytes covered by mark. It returns the screen column of byte offset
// cursor, or -1 when the cursor is not on the drawn part of the line.
func drawLine(s Surface, x, y, maxX int, line string, style tcell.Style, mark *lineStyle, cursor int) int {
	start := x
	cursorX := -1
	offset := 0
	state := -1
	for line != "" {
		var cluster string
		var width int
		cluster, line, width, state = uniseg.FirstGraphemeClusterInString(line, state)
		at := offset
		offset += len(cluster)

		if cluster == "\t" {
			width = tabWidth - (x-start)%tabWidth
		}
		if width == 0 {
			continue
		}
		if x+width > maxX {
			return cursorX
		}
		if at == cursor {
			cursorX = x
		}
		st := style
		if mark != nil && at >= mark.start && at < mark.end {
			st = mark.style
		}

		if cluster == "\t" {
			fill(s, x, y, x+width, ' ', st)
		} else {
			runes := []rune(cluster)
			s.SetContent(x, y, runes[0], runes[1:], st)
			for i := 1; i < width; i++ {
				s.SetContent(x+i, y, ' ', nil, st)
			}
		}
		x += width
	}
	if offset <= cursor && cursorX < 0 && x < maxX {
		cursorX = x
	}
	return cursorX
}
