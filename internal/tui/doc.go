// Package tui is the terminal front end of quickjump. It draws the current
// document and the palette with tcell and feeds keys to the palette.
//
// Everything that touches the palette runs on the event loop goroutine:
// debounced passes are posted back to the loop as interrupt events by
// Scheduler, so the palette never needs a lock.
package tui
