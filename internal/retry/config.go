// Package retry implements the post/cancel retry-with-backoff loop and
// per-key cooldown tracker (spec §4.9), ported from daemon/main.py's
// _post_retry_config/_cancel_retry_config and the
// _post_offer_with_retry/_cancel_offer_with_retry/
// _execute_cancel_policy_for_market functions built on top of them.
package retry

import (
	"os"
	"strconv"
	"strings"
)

// Config mirrors the (attempts_max, backoff_ms, cooldown_seconds)
// tuple both _post_retry_config and _cancel_retry_config return.
type Config struct {
	AttemptsMax     int
	BackoffMS       int
	CooldownSeconds int
}

const (
	defaultPostAttempts        = 2
	defaultPostBackoffMS       = 250
	defaultPostCooldownSeconds = 30

	defaultCancelAttempts        = 2
	defaultCancelBackoffMS       = 250
	defaultCancelCooldownSeconds = 30

	defaultCancelMoveThresholdBPS = 150
)

// PostRetryConfigFromEnv mirrors _post_retry_config's
// GREENFLOOR_OFFER_POST_MAX_ATTEMPTS/_BACKOFF_MS/_COOLDOWN_SECONDS.
func PostRetryConfigFromEnv() Config {
	return Config{
		AttemptsMax:     envInt("GREENFLOOR_OFFER_POST_MAX_ATTEMPTS", defaultPostAttempts, 1),
		BackoffMS:       envInt("GREENFLOOR_OFFER_POST_BACKOFF_MS", defaultPostBackoffMS, 0),
		CooldownSeconds: envInt("GREENFLOOR_OFFER_POST_COOLDOWN_SECONDS", defaultPostCooldownSeconds, 0),
	}
}

// CancelRetryConfigFromEnv mirrors _cancel_retry_config's
// GREENFLOOR_OFFER_CANCEL_MAX_ATTEMPTS/_BACKOFF_MS/_COOLDOWN_SECONDS.
func CancelRetryConfigFromEnv() Config {
	return Config{
		AttemptsMax:     envInt("GREENFLOOR_OFFER_CANCEL_MAX_ATTEMPTS", defaultCancelAttempts, 1),
		BackoffMS:       envInt("GREENFLOOR_OFFER_CANCEL_BACKOFF_MS", defaultCancelBackoffMS, 0),
		CooldownSeconds: envInt("GREENFLOOR_OFFER_CANCEL_COOLDOWN_SECONDS", defaultCancelCooldownSeconds, 0),
	}
}

// CancelMoveThresholdBPSFromEnv mirrors _cancel_move_threshold_bps's
// GREENFLOOR_UNSTABLE_CANCEL_MOVE_BPS, with a floor of 1.
func CancelMoveThresholdBPSFromEnv() int {
	return envInt("GREENFLOOR_UNSTABLE_CANCEL_MOVE_BPS", defaultCancelMoveThresholdBPS, 1)
}

// envInt is the Go counterpart of daemon/main.py's module-local
// _env_int: blank/unparseable values fall back to default, and the
// result is floored at minimum.
func envInt(name string, def, minimum int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if value < minimum {
		return minimum
	}
	return value
}
