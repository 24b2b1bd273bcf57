package retry

// CancelPolicyInput mirrors the subset of _execute_cancel_policy_for_market's
// market/price inputs that decide eligibility and trigger, independent
// of actually posting cancellations (that I/O stays in the daemon
// cycle, driven by CancelPolicyResult.Triggered).
type CancelPolicyInput struct {
	QuoteAssetType               string // market.quote_asset_type
	CancelPolicyStableVsUnstable bool   // pricing["cancel_policy_stable_vs_unstable"]
	CurrentXCHPriceUSD           *float64
	PreviousXCHPriceUSD          *float64
	ThresholdBPS                 int
}

// CancelPolicyResult mirrors the eligible/triggered/reason/move_bps/
// threshold_bps fields of _execute_cancel_policy_for_market's early
// returns (the planned/executed/items bookkeeping stays with the
// caller, since that loop also needs venue I/O).
type CancelPolicyResult struct {
	Eligible     bool
	Triggered    bool
	Reason       string
	MoveBPS      *float64
	ThresholdBPS int
}

// EvaluateCancelPolicy decides whether an unstable-leg market's open
// offers should be cancelled on a large price move, per
// _execute_cancel_policy_for_market's pre-loop checks.
func EvaluateCancelPolicy(in CancelPolicyInput) CancelPolicyResult {
	moveBPS := AbsMoveBPS(in.CurrentXCHPriceUSD, in.PreviousXCHPriceUSD)

	if in.QuoteAssetType != "unstable" {
		return CancelPolicyResult{Eligible: false, Triggered: false, Reason: "not_unstable_leg_market", MoveBPS: moveBPS, ThresholdBPS: in.ThresholdBPS}
	}
	if !in.CancelPolicyStableVsUnstable {
		return CancelPolicyResult{Eligible: false, Triggered: false, Reason: "not_stable_vs_unstable_market", MoveBPS: moveBPS, ThresholdBPS: in.ThresholdBPS}
	}
	if moveBPS == nil {
		return CancelPolicyResult{Eligible: true, Triggered: false, Reason: "missing_price_baseline", MoveBPS: nil, ThresholdBPS: in.ThresholdBPS}
	}
	if *moveBPS < float64(in.ThresholdBPS) {
		return CancelPolicyResult{Eligible: true, Triggered: false, Reason: "price_move_below_threshold", MoveBPS: moveBPS, ThresholdBPS: in.ThresholdBPS}
	}
	return CancelPolicyResult{Eligible: true, Triggered: true, Reason: "price_move_threshold_exceeded", MoveBPS: moveBPS, ThresholdBPS: in.ThresholdBPS}
}

// AbsMoveBPS mirrors _abs_move_bps: nil if either price is missing or
// non-positive, otherwise the absolute relative move in basis points.
func AbsMoveBPS(current, previous *float64) *float64 {
	if current == nil || previous == nil {
		return nil
	}
	if *current <= 0 || *previous <= 0 {
		return nil
	}
	move := ((*current - *previous) / *previous) * 10_000.0
	if move < 0 {
		move = -move
	}
	return &move
}
