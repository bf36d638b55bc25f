// Package debounce delays propagation of a rapidly changing value until it has been
// stable for a fixed interval.
package debounce

import (
	"sync"
	"time"
)

// DefaultDelay is used for text search input and range sliders.
const DefaultDelay = 600 * time.Millisecond

// Debouncer collapses rapid Set calls into a single fn call carrying the last value.
type Debouncer[T any] struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func(T)
	timer   *time.Timer
	value   T
	seq     uint64
	pending bool
	stopped bool
}

// New returns a Debouncer that calls fn with the latest value once delay has elapsed
// without further Set calls. A negative delay is treated as zero.
func New[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	if delay < 0 {
		delay = 0
	}
	return &Debouncer[T]{delay: delay, fn: fn}
}

// Set records v and restarts the delay. Any pending value is discarded.
func (d *Debouncer[T]) Set(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.value = v
	d.pending = true
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq) })
}

// fire delivers the value scheduled under seq unless a later Set, Flush or Stop
// has superseded it. Stopping a timer that already fired does not prevent this
// callback from running, so the sequence check is what keeps stale values out.
func (d *Debouncer[T]) fire(seq uint64) {
	d.mu.Lock()
	if d.stopped || !d.pending || seq != d.seq {
		d.mu.Unlock()
		return
	}
	v := d.value
	d.pending = false
	d.timer = nil
	d.mu.Unlock()
	d.fn(v)
}

// Flush delivers the pending value immediately, if any.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.stopped || !d.pending {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	v := d.value
	d.pending = false
	d.mu.Unlock()
	d.fn(v)
}

// Pending reports whether a value is waiting for the delay to elapse.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Stop cancels any pending value and disables the debouncer. It is safe to call
// more than once; Set after Stop is a no-op.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	d.pending = false
	d.stopped = true
}
