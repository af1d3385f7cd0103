package checkout

import (
	"sync"
	"time"
)

// debouncer collapses a burst of calls into one trailing-edge invocation.
// Every trigger advances a generation counter; the scheduled function
// receives its generation so completions of superseded work can be
// discarded instead of silently clobbering newer state.
type debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	gen   uint64
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay}
}

// trigger schedules fn to run after the delay, superseding any pending
// invocation. fn runs on a timer goroutine.
func (d *debouncer) trigger(fn func(gen uint64)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	gen := d.gen

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.delay, func() {
		if d.isCurrent(gen) {
			fn(gen)
		}
	})
}

// isCurrent reports whether gen is still the newest trigger.
func (d *debouncer) isCurrent(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return gen == d.gen
}

// stop cancels any pending invocation and invalidates in-flight work.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
