package core

import "time"

// CooldownTracker keeps per-user last-accepted-placement timestamps.
//
// Records are keyed by the stable user id, so the cooldown survives reconnects.
// The map is never evicted; the upstream behavior defines no expiry policy.
// Like the grid, the tracker is only touched from the hub goroutine, which
// makes Check followed by Record atomic per user.
type CooldownTracker struct {
	interval time.Duration
	last     map[string]time.Time
}

// NewCooldownTracker builds a tracker with the given cooldown interval.
func NewCooldownTracker(interval time.Duration) *CooldownTracker {
	return &CooldownTracker{
		interval: interval,
		last:     make(map[string]time.Time),
	}
}

// Interval returns the configured cooldown interval.
func (t *CooldownTracker) Interval() time.Duration {
	return t.interval
}

// Check reports whether the user may place now. The lower bound is inclusive:
// a request at exactly lastAccepted+interval is allowed. When denied, the
// remaining wait is returned.
func (t *CooldownTracker) Check(userID string, now time.Time) (bool, time.Duration) {
	last, ok := t.last[userID]
	if !ok {
		return true, 0
	}
	wait := last.Add(t.interval).Sub(now)
	if wait <= 0 {
		return true, 0
	}
	return false, wait
}

// Record stores the acceptance time for the user. Call exactly once per
// accepted placement, after the grid mutation succeeded.
func (t *CooldownTracker) Record(userID string, now time.Time) {
	t.last[userID] = now
}
