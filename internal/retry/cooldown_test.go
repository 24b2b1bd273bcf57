package retry

import (
	"testing"
	"time"
)

func TestCooldownSetAndRemaining(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewCooldownTracker()
	c.now = func() time.Time { return now }

	c.Set("cancel:market-1", 30*time.Second)
	if remaining := c.Remaining("cancel:market-1"); remaining != 30*time.Second {
		t.Fatalf("expected 30s remaining immediately after Set, got %v", remaining)
	}

	now = now.Add(20 * time.Second)
	if remaining := c.Remaining("cancel:market-1"); remaining != 10*time.Second {
		t.Fatalf("expected 10s remaining after 20s elapsed, got %v", remaining)
	}

	now = now.Add(15 * time.Second)
	if remaining := c.Remaining("cancel:market-1"); remaining != 0 {
		t.Fatalf("expected cooldown to have cleared, got %v", remaining)
	}
}

func TestCooldownZeroDurationIsNoop(t *testing.T) {
	c := NewCooldownTracker()
	c.Set("post:market-1", 0)
	if remaining := c.Remaining("post:market-1"); remaining != 0 {
		t.Fatalf("expected no cooldown set, got %v", remaining)
	}
}

func TestCooldownUnknownKeyHasNoRemaining(t *testing.T) {
	c := NewCooldownTracker()
	if remaining := c.Remaining("unknown"); remaining != 0 {
		t.Fatalf("expected zero remaining for unknown key, got %v", remaining)
	}
}
