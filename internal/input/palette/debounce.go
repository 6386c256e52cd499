package palette

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period before typed input is evaluated.
const DefaultDebounce = 50 * time.Millisecond

// Timer is a pending scheduled call.
type Timer interface {
	// Stop prevents the call from running. It reports whether the call was
	// still pending.
	Stop() bool
}

// Dropper is implemented by timers whose call can be lost on the way to the
// host's loop. A dropped call no longer holds the debounce gate, so the next
// keystroke schedules again.
type Dropper interface {
	Dropped() bool
}

// Scheduler runs fn once after d. Hosts provide one that delivers fn on
// their event loop.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(d time.Duration, fn func()) Timer

// AfterFunc calls f(d, fn).
func (f SchedulerFunc) AfterFunc(d time.Duration, fn func()) Timer { return f(d, fn) }

// Queue is a Scheduler for hosts without an event loop of their own. Timers
// only move due calls onto the queue; Run executes them on the caller's
// goroutine.
type Queue struct {
	mu    sync.Mutex
	due   []func()
	ready chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// AfterFunc implements Scheduler.
func (q *Queue) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, func() {
		q.mu.Lock()
		q.due = append(q.due, fn)
		q.mu.Unlock()
		select {
		case q.ready <- struct{}{}:
		default:
		}
	})
}

// Ready receives a value when calls become due.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

// Run executes every due call and returns how many ran.
func (q *Queue) Run() int {
	q.mu.Lock()
	due := q.due
	q.due = nil
	q.mu.Unlock()
	for _, fn := range due {
		fn()
	}
	return len(due)
}

// debouncer holds at most one pending call. Triggers that arrive while a
// call is pending are absorbed; the pending call reads the latest state
// when it fires.
type debouncer struct {
	scheduler Scheduler
	window    time.Duration
	pending   Timer
	seq       uint64
}

func newDebouncer(s Scheduler, window time.Duration) *debouncer {
	return &debouncer{scheduler: s, window: window}
}

// trigger schedules fn unless a call is already pending. It reports whether
// a new call was scheduled.
func (d *debouncer) trigger(fn func()) bool {
	if d.isPending() {
		return false
	}
	d.seq++
	seq := d.seq
	fired := false
	t := d.scheduler.AfterFunc(d.window, func() {
		if d.seq != seq {
			return
		}
		fired = true
		d.pending = nil
		fn()
	})
	// A scheduler may run fn before AfterFunc returns.
	if !fired {
		d.pending = t
	}
	return true
}

// cancel drops the pending call, if any.
func (d *debouncer) cancel() {
	d.seq++
	if d.pending == nil {
		return
	}
	d.pending.Stop()
	d.pending = nil
}

func (d *debouncer) isPending() bool {
	if d.pending == nil {
		return false
	}
	if dr, ok := d.pending.(Dropper); ok && dr.Dropped() {
		return false
	}
	return true
}
