package service

import (
	"sync"
	"time"
)

// Debouncer implements the reset-timer-on-input pattern used by the
// availability and suggestion read paths. Every trigger supersedes the
// pending one and carries a monotonically increasing token; a callback whose
// token is no longer the latest must discard its result, so a fetch that was
// already dispatched before a newer input cannot overwrite newer state.
type Debouncer struct {
	mu    sync.Mutex
	quiet time.Duration
	timer *time.Timer
	token uint64
}

// NewDebouncer builds a debouncer with the given quiet window.
func NewDebouncer(quiet time.Duration) *Debouncer {
	if quiet <= 0 {
		quiet = 300 * time.Millisecond
	}
	return &Debouncer{quiet: quiet}
}

// Trigger schedules fn after the quiet window, cancelling any pending run.
// The issued token is passed to fn and returned to the caller.
func (d *Debouncer) Trigger(fn func(token uint64)) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.token++
	token := d.token
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, func() { fn(token) })
	return token
}

// Latest reports whether token is still the most recently issued one.
func (d *Debouncer) Latest(token uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return token == d.token
}

// Cancel stops any pending run and invalidates all outstanding tokens.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.token++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
