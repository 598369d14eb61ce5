package game

import (
	"sync"
	"time"
)

// Timer tracks the per-question answer window for every active game.
type Timer struct {
	mu      sync.Mutex
	started map[uint]time.Time
	window  time.Duration
	now     func() time.Time
}

func NewTimer(window time.Duration) *Timer {
	return &Timer{
		started: make(map[uint]time.Time),
		window:  window,
		now:     time.Now,
	}
}

// Start (re)arms the window for gameID's current question.
func (t *Timer) Start(gameID uint) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started[gameID] = t.now()
}

// Expired reports whether the window for gameID has elapsed. A game with
// no armed timer is never expired.
func (t *Timer) Expired(gameID uint) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	start, ok := t.started[gameID]
	if !ok {
		return false
	}
	return t.now().Sub(start) >= t.window
}

// Remaining returns whole seconds left on the clock, floored at zero.
func (t *Timer) Remaining(gameID uint) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	start, ok := t.started[gameID]
	if !ok {
		return 0
	}
	left := t.window - t.now().Sub(start)
	if left < 0 {
		return 0
	}
	return int(left / time.Second)
}

// Stop disarms the timer for gameID.
func (t *Timer) Stop(gameID uint) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.started, gameID)
}

// WindowSeconds is the configured answer window, for client display.
func (t *Timer) WindowSeconds() int {
	return int(t.window / time.Second)
}
