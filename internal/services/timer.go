package services

import (
	"sync"
	"time"
)

// ActionTimer is a single-purpose cancelable timer. Each battle owns one
// per purpose (round advance, bot reply, queue fallback); arming always
// replaces the pending fire so at most one is outstanding. Cancel is
// idempotent: canceling an already-fired or never-armed timer is a no-op.
//
// A callback may still be mid-flight when Cancel returns, so every
// callback must re-look-up its battle and re-check status before mutating.
type ActionTimer struct {
	mu sync.Mutex
	t  *time.Timer
}

func NewActionTimer() *ActionTimer {
	return &ActionTimer{}
}

// Arm schedules fn after d, replacing any pending fire.
func (at *ActionTimer) Arm(d time.Duration, fn func()) {
	at.mu.Lock()
	defer at.mu.Unlock()

	if at.t != nil {
		at.t.Stop()
	}
	at.t = time.AfterFunc(d, fn)
}

// Cancel stops the pending fire, if any.
func (at *ActionTimer) Cancel() {
	at.mu.Lock()
	defer at.mu.Unlock()

	if at.t != nil {
		at.t.Stop()
		at.t = nil
	}
}
