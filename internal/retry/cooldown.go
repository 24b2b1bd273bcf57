package retry

import "time"

// CooldownTracker is a plain map[string]time.Time guarded only by the
// orchestrator's single-goroutine invariant (spec §5) — the Go
// counterpart of daemon/main.py's module-level _POST_COOLDOWN_UNTIL/
// _CANCEL_COOLDOWN_UNTIL dicts keyed by "post:<market_id>"/
// "cancel:<market_id>" and built with time.monotonic().
type CooldownTracker struct {
	deadlines map[string]time.Time
	now       func() time.Time
}

func NewCooldownTracker() *CooldownTracker {
	return &CooldownTracker{deadlines: make(map[string]time.Time)}
}

func (c *CooldownTracker) nowFunc() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

// Remaining mirrors _cooldown_remaining_ms, returned here as a
// Duration rather than milliseconds.
func (c *CooldownTracker) Remaining(key string) time.Duration {
	deadline, ok := c.deadlines[key]
	if !ok {
		return 0
	}
	remaining := deadline.Sub(c.nowFunc())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Set mirrors _set_cooldown: a non-positive duration is a no-op.
func (c *CooldownTracker) Set(key string, cooldown time.Duration) {
	if cooldown <= 0 {
		return
	}
	c.deadlines[key] = c.nowFunc().Add(cooldown)
}
