package tui

import (
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/quickjump/internal/input/palette"
)

// isCtrl reports whether ev is ctrl+r. Terminals report control keys either
// as their control code or as a rune with the ctrl modifier.
func isCtrl(ev *tcell.EventKey, code tcell.Key, r rune) bool {
	if ev.Key() == code {
		return true
	}
	return ev.Key() == tcell.KeyRune &&
		ev.Modifiers()&tcell.ModCtrl != 0 &&
		unicode.ToLower(ev.Rune()) == r
}

// plainRune returns the typed rune when ev is an unmodified character.
func plainRune(ev *tcell.EventKey) (rune, bool) {
	if ev.Key() != tcell.KeyRune || ev.Modifiers()&(tcell.ModCtrl|tcell.ModAlt) != 0 {
		return 0, false
	}
	return ev.Rune(), true
}

// HandleKey applies ev and reports whether the user asked to quit.
func (v *View) HandleKey(ev *tcell.EventKey) bool {
	if isCtrl(ev, tcell.KeyCtrlC, 'c') || isCtrl(ev, tcell.KeyCtrlQ, 'q') {
		return true
	}
	if v.session.Active() {
		v.handlePaletteKey(ev)
	} else {
		v.handleEditorKey(ev)
	}
	return false
}

// handleEditorKey opens the palette. The sentinel characters open it with
// the matching query seeded.
func (v *View) handleEditorKey(ev *tcell.EventKey) {
	switch {
	case isCtrl(ev, tcell.KeyCtrlP, 'p'):
		v.open(palette.ModeCommand)
		return
	case isCtrl(ev, tcell.KeyCtrlG, 'g'):
		v.open(palette.ModeLocation)
		return
	}

	r, ok := plainRune(ev)
	if !ok {
		return
	}
	for _, mode := range []palette.Mode{palette.ModeLine, palette.ModeSearch, palette.ModeReference} {
		if string(r) == mode.Prefix() {
			v.open(mode)
			return
		}
	}
}

func (v *View) open(mode palette.Mode) {
	v.SetStatus("")
	v.session.Activate(mode)
}

func (v *View) handlePaletteKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape:
		v.session.Cancel()
		return
	case tcell.KeyEnter:
		if err := v.session.Confirm(); err != nil {
			v.SetStatus(err.Error())
		}
		return
	case tcell.KeyUp, tcell.KeyBacktab:
		v.session.Navigate(-1)
		return
	case tcell.KeyDown, tcell.KeyTab:
		v.session.Navigate(1)
		return
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		input := v.session.Input()
		if input != "" {
			v.session.OnKeystroke(dropLastGrapheme(input))
		}
		return
	}

	switch {
	case isCtrl(ev, tcell.KeyCtrlU, 'u'):
		v.session.OnKeystroke("")
	case isCtrl(ev, tcell.KeyCtrlN, 'n'):
		v.session.Navigate(1)
	case isCtrl(ev, tcell.KeyCtrlP, 'p'):
		v.session.Navigate(-1)
	default:
		if r, ok := plainRune(ev); ok {
			v.session.OnKeystroke(v.session.Input() + string(r))
		}
	}
}
