package palette

import (
	"errors"
	"fmt"

	"github.com/dshills/quickjump/internal/action"
	"github.com/dshills/quickjump/internal/engine/document"
	"github.com/dshills/quickjump/internal/lexer"
)

// ErrMissingCollaborator is returned by New when a required collaborator is nil.
var ErrMissingCollaborator = errors.New("missing collaborator")

// Sessions enumerates open documents and moves between them.
type Sessions interface {
	OpenDocuments() []*document.Document
	Current() *document.Document

	// BringToFront shows doc without moving input focus.
	BringToFront(doc *document.Document)

	SaveLocation()
	RestoreLocation()
}

// Editor is the cursor surface of the front document.
type Editor interface {
	ClearSelection()
	MoveCursorTo(line, col int)
	SelectWordAtCursor()
	Focus()
}

// Content reads document text.
type Content interface {
	FullText(doc *document.Document) string
	Line(doc *document.Document, i int) string
	OffsetToPosition(doc *document.Document, offset int) (line, col int)
	Tokenize(doc *document.Document) ([]lexer.Token, error)
}

// Actions lists and dispatches commands.
type Actions interface {
	Registered() []*action.Action
	Menus() []action.MenuItem
	Dispatch(id string, arg any) error
}

// FileIndex lists project paths.
type FileIndex interface {
	Paths() []string
}

// Preferences reads boolean user preferences.
type Preferences interface {
	Bool(key string) bool
}

// Notifier shows a transient status message.
type Notifier interface {
	Notify(msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg string)

// Notify calls f(msg).
func (f NotifierFunc) Notify(msg string) { f(msg) }

// Collaborators groups the interfaces a Palette reads from. Sessions,
// Editor, Content and Actions are required.
type Collaborators struct {
	Sessions    Sessions
	Editor      Editor
	Content     Content
	Actions     Actions
	Files       FileIndex
	Preferences Preferences
	Notifier    Notifier
}

func (c *Collaborators) validate() error {
	switch {
	case c.Sessions == nil:
		return fmt.Errorf("%w: sessions", ErrMissingCollaborator)
	case c.Editor == nil:
		return fmt.Errorf("%w: editor", ErrMissingCollaborator)
	case c.Content == nil:
		return fmt.Errorf("%w: content", ErrMissingCollaborator)
	case c.Actions == nil:
		return fmt.Errorf("%w: actions", ErrMissingCollaborator)
	}
	if c.Files == nil {
		c.Files = noFiles{}
	}
	if c.Preferences == nil {
		c.Preferences = noPreferences{}
	}
	if c.Notifier == nil {
		c.Notifier = NotifierFunc(func(string) {})
	}
	return nil
}

type noFiles struct{}

func (noFiles) Paths() []string { return nil }

type noPreferences struct{}

func (noPreferences) Bool(string) bool { return false }
