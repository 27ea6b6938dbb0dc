// Package debounce coalesces bursts of triggers into one deferred call.
package debounce

import (
	"sync"
	"time"
)

// Timer is the cancellable handle returned by a Scheduler.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. The real implementation is time.AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealScheduler schedules on the wall clock.
var RealScheduler Scheduler = realScheduler{}

type Option func(*Debouncer)

func WithScheduler(s Scheduler) Option {
	return func(d *Debouncer) { d.sched = s }
}

// Debouncer calls fn once delay has passed without another Trigger.
type Debouncer struct {
	delay time.Duration
	fn    func()
	sched Scheduler

	mu      sync.Mutex
	timer   Timer
	gen     uint64
	pending bool
}

func New(delay time.Duration, fn func(), opts ...Option) *Debouncer {
	d := &Debouncer{delay: delay, fn: fn, sched: RealScheduler}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Trigger restarts the countdown.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.gen++
	gen := d.gen
	d.pending = true
	d.timer = d.sched.AfterFunc(d.delay, func() { d.fire(gen) })
}

// A timer that lost the race with Trigger or Cancel sees a newer generation and does nothing.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.fn()
}

// Cancel drops a pending call.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.gen++
	d.pending = false
}

// Flush runs a pending call now and reports whether there was one.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return false
	}
	d.stopLocked()
	d.gen++
	d.pending = false
	d.mu.Unlock()

	d.fn()
	return true
}

func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
