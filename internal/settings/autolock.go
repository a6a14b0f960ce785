package settings

import (
	"sync"
	"time"

	"github.com/npratt/siadash/internal/clock"
)

// lockTimer is the inactivity countdown. Every arm or disarm bumps the
// generation; an expiry callback only fires if its generation is still
// current, so a reset that lands before expiry always wins.
type lockTimer struct {
	clock  clock.Clock
	onFire func(after time.Duration)

	mu    sync.Mutex
	gen   uint64
	timer *clock.Timer
	after time.Duration
}

func newLockTimer(c clock.Clock, onFire func(time.Duration)) *lockTimer {
	return &lockTimer{clock: c, onFire: onFire}
}

// arm restarts the countdown from zero. d must be positive.
func (t *lockTimer) arm(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.gen++
	gen := t.gen
	t.after = d
	t.timer = t.clock.AfterFunc(d, func() { t.expire(gen) })
}

// disarm cancels any pending countdown.
func (t *lockTimer) disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.gen++
}

func (t *lockTimer) stopLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *lockTimer) expire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	// Consume the generation so this countdown can fire only once.
	t.gen++
	t.timer = nil
	after := t.after
	t.mu.Unlock()

	t.onFire(after)
}

// armed reports whether a countdown is pending.
func (t *lockTimer) armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}
