package tui

import (
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/quickjump/internal/input/palette"
)

// task is a function posted to the event loop.
type task func()

// Poster is the part of tcell.Screen used to wake the event loop.
type Poster interface {
	PostEvent(ev tcell.Event) error
}

// Scheduler is a palette.Scheduler that runs calls on the event loop. The
// timer fires on its own goroutine and posts the call as an interrupt.
type Scheduler struct {
	poster Poster
}

// NewScheduler creates a scheduler posting to p.
func NewScheduler(p Poster) *Scheduler {
	return &Scheduler{poster: p}
}

// postAttempts bounds retries while the event queue is full.
const postAttempts = 20

// postTimer is the Timer returned by Scheduler. It is marked dropped when
// the call could not be posted.
type postTimer struct {
	timer   *time.Timer
	dropped atomic.Bool
}

func (t *postTimer) Stop() bool {
	return t.timer.Stop()
}

// Dropped implements palette.Dropper.
func (t *postTimer) Dropped() bool {
	return t.dropped.Load()
}

// AfterFunc implements palette.Scheduler.
func (s *Scheduler) AfterFunc(d time.Duration, fn func()) palette.Timer {
	t := &postTimer{}
	t.timer = time.AfterFunc(d, func() {
		ev := tcell.NewEventInterrupt(task(fn))
		for i := 0; i < postAttempts; i++ {
			if s.poster.PostEvent(ev) == nil {
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
		t.dropped.Store(true)
	})
	return t
}

// runTask runs ev when it carries a posted call and reports whether it did.
func runTask(ev *tcell.EventInterrupt) bool {
	fn, ok := ev.Data().(task)
	if ok {
		fn()
	}
	return ok
}
