package retry

import (
	"context"
	"testing"
	"time"
)

func instantSleep(ctx context.Context, d time.Duration) error { return nil }

func TestPostWithRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	attempt := func(ctx context.Context, n int) (AttemptResult, error) {
		calls++
		return AttemptResult{Success: true, ID: "offer-1"}, nil
	}
	outcome := PostWithRetry(context.Background(), Config{AttemptsMax: 3, BackoffMS: 10}, "post_failed", attempt, instantSleep)
	if outcome.AttemptCount != 1 || outcome.Error != "" || calls != 1 {
		t.Fatalf("expected single successful attempt, got %+v calls=%d", outcome, calls)
	}
}

func TestPostWithRetryRequiresID(t *testing.T) {
	attempt := func(ctx context.Context, n int) (AttemptResult, error) {
		return AttemptResult{Success: true, ID: ""}, nil
	}
	outcome := PostWithRetry(context.Background(), Config{AttemptsMax: 2, BackoffMS: 0}, "post_failed", attempt, instantSleep)
	if outcome.AttemptCount != 2 || outcome.Error == "" {
		t.Fatalf("expected exhausted retries since id is empty, got %+v", outcome)
	}
}

func TestPostWithRetryEventualSuccess(t *testing.T) {
	calls := 0
	attempt := func(ctx context.Context, n int) (AttemptResult, error) {
		calls++
		if calls < 3 {
			return AttemptResult{Success: false, Error: "dexie_http_error:500"}, nil
		}
		return AttemptResult{Success: true, ID: "offer-2"}, nil
	}
	outcome := PostWithRetry(context.Background(), Config{AttemptsMax: 3, BackoffMS: 5}, "post_failed", attempt, instantSleep)
	if outcome.AttemptCount != 3 || outcome.Error != "" {
		t.Fatalf("expected success on attempt 3, got %+v", outcome)
	}
}

func TestCancelWithRetryNoIDRequired(t *testing.T) {
	attempt := func(ctx context.Context, n int) (AttemptResult, error) {
		return AttemptResult{Success: true}, nil
	}
	outcome := CancelWithRetry(context.Background(), Config{AttemptsMax: 2, BackoffMS: 0}, "cancel_offer_failed", attempt, instantSleep)
	if outcome.AttemptCount != 1 || outcome.Error != "" {
		t.Fatalf("expected success without an id, got %+v", outcome)
	}
}

func TestCancelWithRetryExhaustsAttempts(t *testing.T) {
	attempt := func(ctx context.Context, n int) (AttemptResult, error) {
		return AttemptResult{Success: false, Error: "cancel_offer_failed"}, nil
	}
	outcome := CancelWithRetry(context.Background(), Config{AttemptsMax: 2, BackoffMS: 0}, "cancel_offer_failed", attempt, instantSleep)
	if outcome.AttemptCount != 2 || outcome.Error != "cancel_offer_failed" {
		t.Fatalf("expected exhausted attempts with last error, got %+v", outcome)
	}
}

func TestBackoffDoublesPerAttempt(t *testing.T) {
	var slept []time.Duration
	recordSleep := func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	attempt := func(ctx context.Context, n int) (AttemptResult, error) {
		return AttemptResult{Success: false, Error: "fail"}, nil
	}
	PostWithRetry(context.Background(), Config{AttemptsMax: 3, BackoffMS: 100}, "fail", attempt, recordSleep)
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	if len(slept) != len(want) {
		t.Fatalf("expected %d sleeps, got %v", len(want), slept)
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Fatalf("sleep %d: got %v want %v", i, slept[i], want[i])
		}
	}
}
