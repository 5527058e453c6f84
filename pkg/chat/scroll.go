package chat

import (
	"sync"
	"time"
)

// DefaultScrollCooldown is how long auto-follow stays suppressed after the
// reader scrolls away from the bottom of the transcript.
const DefaultScrollCooldown = 3 * time.Second

// AutoScroll decides whether the transcript view should follow new
// fragments to the bottom. A manual scroll pauses following for the
// cooldown window so the reader is not yanked back mid-read.
type AutoScroll struct {
	mu       sync.Mutex
	cooldown time.Duration
	pausedAt time.Time
	now      func() time.Time
}

// NewAutoScroll builds the gate; cooldown <= 0 uses the default.
func NewAutoScroll(cooldown time.Duration) *AutoScroll {
	if cooldown <= 0 {
		cooldown = DefaultScrollCooldown
	}
	return &AutoScroll{cooldown: cooldown, now: time.Now}
}

// UserScrolled records a manual scroll, starting (or restarting) the
// cooldown window.
func (a *AutoScroll) UserScrolled() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pausedAt = a.now()
}

// ShouldFollow reports whether the view should snap to the newest output.
func (a *AutoScroll) ShouldFollow() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pausedAt.IsZero() {
		return true
	}
	return a.now().Sub(a.pausedAt) >= a.cooldown
}
