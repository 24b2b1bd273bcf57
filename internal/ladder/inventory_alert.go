package ladder

import "time"

// AlertState mirrors spec §3's AlertState entity.
type AlertState struct {
	IsLow       bool
	LastAlertAt *time.Time
}

// AlertEvent is emitted when a low-inventory alert should be sent
// (dispatched to internal/notify at the boundary).
type AlertEvent struct {
	MarketID        string
	Ticker          string
	RemainingAmount int64
	ReceiveAddress  string
	Reason          string
}

// LowInventoryPolicy carries the program/market-level knobs
// evaluate_low_inventory_alert needs, ported from
// original_source/greenfloor/core/notifications.py.
type LowInventoryPolicy struct {
	Enabled                   bool
	MarketEnabled             bool
	Threshold                 int64
	ClearHysteresisPercent    float64
	DedupCooldownSeconds      int64
}

// EvaluateLowInventoryAlert is the exact hysteresis algorithm from
// notifications.py's evaluate_low_inventory_alert (spec §3 AlertState
// invariant / §8 boundary behaviour / §8 scenario 5):
//
//	is_low can only clear when remaining >= threshold*(1+hysteresis/100).
func EvaluateLowInventoryAlert(now time.Time, policy LowInventoryPolicy, marketID, ticker, receiveAddress string, remaining int64, state AlertState) (AlertState, *AlertEvent) {
	if !policy.MarketEnabled || !policy.Enabled {
		return state, nil
	}

	hysteresisTarget := int64(float64(policy.Threshold) * (1 + policy.ClearHysteresisPercent/100))
	next := AlertState{IsLow: state.IsLow, LastAlertAt: state.LastAlertAt}

	if remaining >= hysteresisTarget {
		next.IsLow = false
		return next, nil
	}

	if remaining >= policy.Threshold {
		return next, nil
	}

	shouldSend := false
	reason := "low_triggered"
	switch {
	case !state.IsLow:
		shouldSend = true
	case state.LastAlertAt == nil:
		shouldSend = true
	default:
		cooldown := time.Duration(policy.DedupCooldownSeconds) * time.Second
		shouldSend = now.Sub(*state.LastAlertAt) >= cooldown
		reason = "reminder_sent"
	}

	next.IsLow = true
	if shouldSend {
		t := now
		next.LastAlertAt = &t
		return next, &AlertEvent{
			MarketID:        marketID,
			Ticker:          ticker,
			RemainingAmount: remaining,
			ReceiveAddress:  receiveAddress,
			Reason:          reason,
		}
	}
	return next, nil
}
