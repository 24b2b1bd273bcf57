package retry

import "testing"

func f(v float64) *float64 { return &v }

func TestEvaluateCancelPolicyNotUnstableLeg(t *testing.T) {
	result := EvaluateCancelPolicy(CancelPolicyInput{
		QuoteAssetType: "stable",
		ThresholdBPS:   150,
	})
	if result.Eligible || result.Triggered || result.Reason != "not_unstable_leg_market" {
		t.Fatalf("expected ineligible not_unstable_leg_market, got %+v", result)
	}
}

func TestEvaluateCancelPolicyNotStableVsUnstable(t *testing.T) {
	result := EvaluateCancelPolicy(CancelPolicyInput{
		QuoteAssetType:               "unstable",
		CancelPolicyStableVsUnstable: false,
		ThresholdBPS:                 150,
	})
	if result.Eligible || result.Reason != "not_stable_vs_unstable_market" {
		t.Fatalf("expected ineligible not_stable_vs_unstable_market, got %+v", result)
	}
}

func TestEvaluateCancelPolicyMissingBaseline(t *testing.T) {
	result := EvaluateCancelPolicy(CancelPolicyInput{
		QuoteAssetType:               "unstable",
		CancelPolicyStableVsUnstable: true,
		ThresholdBPS:                 150,
	})
	if !result.Eligible || result.Triggered || result.Reason != "missing_price_baseline" {
		t.Fatalf("expected eligible/not-triggered missing_price_baseline, got %+v", result)
	}
}

func TestEvaluateCancelPolicyBelowThreshold(t *testing.T) {
	result := EvaluateCancelPolicy(CancelPolicyInput{
		QuoteAssetType:               "unstable",
		CancelPolicyStableVsUnstable: true,
		CurrentXCHPriceUSD:           f(10.0),
		PreviousXCHPriceUSD:          f(10.05),
		ThresholdBPS:                 150,
	})
	if !result.Eligible || result.Triggered || result.Reason != "price_move_below_threshold" {
		t.Fatalf("expected below-threshold no-trigger, got %+v", result)
	}
}

func TestEvaluateCancelPolicyTriggered(t *testing.T) {
	result := EvaluateCancelPolicy(CancelPolicyInput{
		QuoteAssetType:               "unstable",
		CancelPolicyStableVsUnstable: true,
		CurrentXCHPriceUSD:           f(11.0),
		PreviousXCHPriceUSD:          f(10.0),
		ThresholdBPS:                 150,
	})
	if !result.Eligible || !result.Triggered || result.Reason != "price_move_threshold_exceeded" {
		t.Fatalf("expected triggered on a 10%% move, got %+v", result)
	}
}

func TestAbsMoveBPSNilOnNonPositivePrice(t *testing.T) {
	if got := AbsMoveBPS(f(0), f(10)); got != nil {
		t.Fatalf("expected nil for non-positive current price, got %v", *got)
	}
	if got := AbsMoveBPS(f(10), nil); got != nil {
		t.Fatalf("expected nil for missing previous price, got %v", *got)
	}
}
