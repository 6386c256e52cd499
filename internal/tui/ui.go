package tui

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"
)

// quit is posted to stop the event loop.
type quit struct{}

// UI runs the event loop on a tcell screen.
type UI struct {
	screen    tcell.Screen
	scheduler *Scheduler
	status    *statusLine
	logger    *zap.Logger
}

// New creates a UI on screen. The screen is initialized by Run.
func New(screen tcell.Screen) *UI {
	return &UI{
		screen:    screen,
		scheduler: NewScheduler(screen),
		status:    &statusLine{},
		logger:    zap.NewNop(),
	}
}

// SetLogger replaces the logger. Call it before Run.
func (u *UI) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	u.logger = logger.Named("tui")
}

// Scheduler returns the scheduler that runs palette passes on the loop.
func (u *UI) Scheduler() *Scheduler {
	return u.scheduler
}

// Notify shows msg in the status bar. It is safe to call from any
// goroutine.
func (u *UI) Notify(msg string) {
	u.status.set(msg)
	_ = u.screen.PostEvent(tcell.NewEventInterrupt(nil))
}

// Run draws and handles events until the user quits or ctx is done.
func (u *UI) Run(ctx context.Context, session Session, docs Documents) error {
	if err := u.screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer u.screen.Fini()
	u.screen.EnablePaste()

	view := NewView(session, docs)
	view.status = u.status

	stop := context.AfterFunc(ctx, func() {
		_ = u.screen.PostEvent(tcell.NewEventInterrupt(quit{}))
	})
	defer stop()

	u.logger.Debug("event loop started")
	for {
		u.screen.Clear()
		view.Draw(u.screen)
		u.screen.Show()

		switch ev := u.screen.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventResize:
			u.screen.Sync()
		case *tcell.EventKey:
			if view.HandleKey(ev) {
				u.logger.Debug("quit requested")
				return nil
			}
		case *tcell.EventInterrupt:
			if _, ok := ev.Data().(quit); ok {
				return ctx.Err()
			}
			runTask(ev)
		}
	}
}
