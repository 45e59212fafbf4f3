package countdown

import (
	"sync"
	"time"
)

// TickSource produces the tick channel a Timer consumes. The returned stop
// function releases the underlying resources and must be safe to call more
// than once. Injecting a source lets tests drive ticks by hand.
type TickSource func(interval time.Duration) (ticks <-chan time.Time, stop func())

// DefaultTickSource backs a Timer with a time.Ticker.
func DefaultTickSource(interval time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(interval)
	return t.C, t.Stop
}

// Timer is a cancellable, resettable countdown measured in whole ticks.
// Each tick decrements the remaining count by exactly one; when it reaches
// zero the expiry callback fires exactly once and the timer stops. Cancel and
// Reset invalidate the in-flight schedule before anything else happens, so a
// torn-down countdown can never deliver a late tick. Callbacks run on the
// timer's own goroutine and may themselves call Reset or Cancel.
type Timer struct {
	interval time.Duration
	source   TickSource

	mu        sync.Mutex
	gen       int
	running   bool
	duration  int
	remaining int
	onTick    func(remaining int)
	onExpire  func()
	stop      func()
	quit      chan struct{}
}

// Option configures a Timer.
type Option func(*Timer)

// WithTickSource overrides the tick source, used by tests for deterministic
// tick delivery.
func WithTickSource(source TickSource) Option {
	return func(t *Timer) {
		t.source = source
	}
}

// New creates a stopped timer that ticks at the given interval once started.
func New(interval time.Duration, opts ...Option) *Timer {
	t := &Timer{
		interval: interval,
		source:   DefaultTickSource,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Start begins a countdown of durationTicks ticks, superseding any countdown
// already running. onTick is called with the remaining count after every tick
// except the last; the last tick calls onExpire instead.
func (t *Timer) Start(durationTicks int, onTick func(remaining int), onExpire func()) {
	t.mu.Lock()
	t.onTick = onTick
	t.onExpire = onExpire
	t.startLocked(durationTicks)
	t.mu.Unlock()
}

// Reset restarts the countdown from a full durationTicks, keeping the
// callbacks from Start. The previous schedule is always cancelled first, so
// resetting a running timer supersedes rather than stacks.
func (t *Timer) Reset(durationTicks int) {
	t.mu.Lock()
	t.startLocked(durationTicks)
	t.mu.Unlock()
}

// Cancel stops the countdown without firing the expiry callback. It is
// idempotent and safe to call from within a callback or after expiry.
//
// Cancel does not wait for the timer goroutine: a callback whose tick was
// already being processed may still complete after Cancel returns. No new
// callbacks start afterwards. Callers needing a hard cutoff must recheck
// their own state inside the callback.
func (t *Timer) Cancel() {
	t.mu.Lock()
	t.stopLocked()
	t.mu.Unlock()
}

// Remaining returns the number of ticks left in the current countdown.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Progress returns the remaining fraction of the countdown in [0, 1],
// suitable for driving a countdown bar.
func (t *Timer) Progress() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.duration <= 0 {
		return 0
	}
	return float64(t.remaining) / float64(t.duration)
}

// startLocked cancels any in-flight schedule and begins a fresh one.
func (t *Timer) startLocked(durationTicks int) {
	t.stopLocked()

	t.duration = durationTicks
	t.remaining = durationTicks

	if durationTicks <= 0 {
		return
	}

	ticks, stop := t.source(t.interval)
	quit := make(chan struct{})
	t.stop = stop
	t.quit = quit
	t.running = true
	gen := t.gen

	go t.loop(gen, ticks, quit)
}

// stopLocked invalidates the current schedule. Any loop goroutine still alive
// observes the generation bump and exits without firing callbacks.
func (t *Timer) stopLocked() {
	t.gen++
	t.running = false

	if t.stop != nil {
		t.stop()
		t.stop = nil
	}
	if t.quit != nil {
		close(t.quit)
		t.quit = nil
	}
}

func (t *Timer) loop(gen int, ticks <-chan time.Time, quit chan struct{}) {
	for {
		select {
		case <-quit:
			return
		case _, ok := <-ticks:
			if !ok {
				return
			}
			if !t.step(gen) {
				return
			}
		}
	}
}

// step consumes one tick and reports whether the loop should keep going.
// Callbacks are invoked outside the mutex so they may re-enter the timer.
func (t *Timer) step(gen int) bool {
	t.mu.Lock()

	if gen != t.gen || !t.running {
		t.mu.Unlock()
		return false
	}

	t.remaining--
	remaining := t.remaining
	onTick := t.onTick
	onExpire := t.onExpire

	if remaining <= 0 {
		// Expired: tear down the schedule before the callback runs so a
		// re-entrant Reset starts from a clean slate.
		t.stopLocked()
	}
	t.mu.Unlock()

	if remaining > 0 {
		if onTick != nil {
			onTick(remaining)
		}
		return true
	}

	if onExpire != nil {
		onExpire()
	}
	return false
}
