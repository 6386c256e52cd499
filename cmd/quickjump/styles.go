package main

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	gold  = lipgloss.Color("#FFD700")
	stone = lipgloss.Color("#8B8680")
	ruby  = lipgloss.Color("#E0115F")
)

// styles are the output styles. They render plain text when the writer is
// not a terminal.
type styles struct {
	label    lipgloss.Style
	sublabel lipgloss.Style
	marker   lipgloss.Style
	err      lipgloss.Style
}

func newStyles(w io.Writer) styles {
	if !isTerminal(w) {
		plain := lipgloss.NewStyle()
		return styles{label: plain, sublabel: plain, marker: plain, err: plain}
	}
	return styles{
		label:    lipgloss.NewStyle().Bold(true),
		sublabel: lipgloss.NewStyle().Foreground(stone),
		marker:   lipgloss.NewStyle().Foreground(gold).Bold(true),
		err:      lipgloss.NewStyle().Foreground(ruby),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
