package scoreboard

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Timer is a drift-free countdown. Instead of a background tick loop it
// anchors the remaining time to a monotonic clock reading when started,
// and derives the live value at read time. Reaching zero never stops the
// timer on its own; it keeps reporting zero until stopped.
//
// Remaining time is tracked as a duration so start/stop cycles keep their
// sub-second remainders; truncation to whole seconds happens only at
// serialization in Remaining.
//
// Timer is not safe for concurrent use by itself; the Store serializes all
// access per match.
type Timer struct {
	clock     clockwork.Clock
	remaining time.Duration
	running   bool
	startedAt time.Time
}

func NewTimer(clock clockwork.Clock) *Timer {
	return &Timer{clock: clock}
}

// Start anchors the countdown at the current clock reading. Starting an
// already-running timer is a no-op; the return value reports whether the
// timer actually transitioned.
func (t *Timer) Start() bool {
	if t.running {
		return false
	}
	t.running = true
	t.startedAt = t.clock.Now()
	return true
}

// Stop freezes the countdown, folding the elapsed run into the stored
// remaining time. Stopping a stopped timer is a no-op.
func (t *Timer) Stop() bool {
	if !t.running {
		return false
	}
	t.remaining = t.remainingDuration()
	t.running = false
	return true
}

// Set overwrites the remaining time. A running timer keeps running: the
// anchor is reset so the new value becomes the base for the countdown.
func (t *Timer) Set(seconds int) {
	t.remaining = time.Duration(seconds) * time.Second
	if t.running {
		t.startedAt = t.clock.Now()
	}
}

// Remaining reports the authoritative remaining whole seconds, floored at
// zero.
func (t *Timer) Remaining() int {
	return int(t.remainingDuration() / time.Second)
}

func (t *Timer) remainingDuration() time.Duration {
	if !t.running {
		return t.remaining
	}
	if rem := t.remaining - t.clock.Since(t.startedAt); rem > 0 {
		return rem
	}
	return 0
}

func (t *Timer) Running() bool {
	return t.running
}
