// Package clock provides the cancellable per-question countdown used by quiz
// sessions. Ticks are strictly decreasing; cancelling a handle before expiry
// stops further callbacks for that handle.
package clock

import (
	"sync"
	"time"
)

// Countdown starts countdowns at a fixed tick interval. The interval is one
// second in production; tests inject a shorter one for determinism.
type Countdown struct {
	interval time.Duration
}

func New() *Countdown {
	return &Countdown{interval: time.Second}
}

func NewWithInterval(interval time.Duration) *Countdown {
	if interval <= 0 {
		interval = time.Second
	}
	return &Countdown{interval: interval}
}

// Handle identifies one running countdown.
type Handle struct {
	once sync.Once
	done chan struct{}
}

// Cancel stops the countdown. After Cancel returns, no new tick or expiry
// callback is started for this handle; callers that race expiry with their own
// transitions additionally guard those transitions (the session controller
// checks its question index before applying one).
func (h *Handle) Cancel() {
	h.once.Do(func() { close(h.done) })
}

func (h *Handle) cancelled() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Start runs a countdown of the given number of seconds. onTick fires once per
// interval with the remaining count (seconds-1 down to 1); onExpire fires once
// when the count reaches zero. Callbacks run on the countdown goroutine.
func (c *Countdown) Start(seconds int, onTick func(remaining int), onExpire func()) *Handle {
	h := &Handle{done: make(chan struct{})}

	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		remaining := seconds
		for {
			select {
			case <-h.done:
				return
			case <-ticker.C:
			}
			if h.cancelled() {
				return
			}
			remaining--
			if remaining <= 0 {
				onExpire()
				return
			}
			onTick(remaining)
		}
	}()
	return h
}
