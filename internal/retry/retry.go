package retry

import (
	"context"
	"time"
)

// AttemptResult is the {"success": bool, "error": str, "id": str}
// shape venue adapters (dexie.PostOffer/CancelOffer) return instead of
// raising, so a retry loop can inspect the tagged reason the same way
// the Python source does.
type AttemptResult struct {
	Success bool
	ID      string
	Error   string
}

// Outcome is what PostWithRetry/CancelWithRetry report back: the
// successful attempt's result (once attempts are exhausted, a failed
// result carrying the final error; if a backoff sleep is cancelled, the
// last attempt's result), how many attempts it took, and the final
// error string (empty on success).
type Outcome struct {
	Result       AttemptResult
	AttemptCount int
	Error        string
}

// AttemptFunc performs one post/cancel attempt (attempt is 1-based,
// matching the Python source's range(1, attempts_max + 1)).
type AttemptFunc func(ctx context.Context, attempt int) (AttemptResult, error)

// Sleep is overridable for deterministic tests.
type Sleep func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// PostWithRetry is the Go counterpart of _post_offer_with_retry: up to
// cfg.AttemptsMax tries with exponential backoff
// (backoff_ms * 2^(attempt-1)) between them, stopping at the first
// attempt that reports success with a non-empty id.
func PostWithRetry(ctx context.Context, cfg Config, attemptFallbackError string, attempt AttemptFunc, sleep Sleep) Outcome {
	return withRetry(ctx, cfg, attemptFallbackError, attempt, sleep, true)
}

// CancelWithRetry is the Go counterpart of _cancel_offer_with_retry:
// identical backoff shape, but success only requires result.Success
// (no id check — cancellation has no created-resource id to confirm).
func CancelWithRetry(ctx context.Context, cfg Config, attemptFallbackError string, attempt AttemptFunc, sleep Sleep) Outcome {
	return withRetry(ctx, cfg, attemptFallbackError, attempt, sleep, false)
}

func withRetry(ctx context.Context, cfg Config, fallbackError string, attemptFn AttemptFunc, sleep Sleep, requireID bool) Outcome {
	if sleep == nil {
		sleep = defaultSleep
	}
	attemptsMax := cfg.AttemptsMax
	if attemptsMax < 1 {
		attemptsMax = 1
	}
	lastError := fallbackError
	var last AttemptResult

	for attempt := 1; attempt <= attemptsMax; attempt++ {
		result, err := attemptFn(ctx, attempt)
		if err != nil {
			result = AttemptResult{Success: false, Error: err.Error()}
		}
		last = result
		if result.Success && (!requireID || result.ID != "") {
			return Outcome{Result: result, AttemptCount: attempt, Error: ""}
		}
		if result.Error != "" {
			lastError = result.Error
		}
		if attempt < attemptsMax && cfg.BackoffMS > 0 {
			backoff := time.Duration(cfg.BackoffMS<<(attempt-1)) * time.Millisecond
			if err := sleep(ctx, backoff); err != nil {
				return Outcome{Result: last, AttemptCount: attempt, Error: lastError}
			}
		}
	}
	return Outcome{Result: AttemptResult{Success: false, Error: lastError}, AttemptCount: attemptsMax, Error: lastError}
}
