package strategy

import "testing"

func f(v float64) *float64 { return &v }
func i(v int) *int         { return &v }

func TestEvaluateMarketBelowTargetEachSize(t *testing.T) {
	actions := EvaluateMarket(
		MarketState{Ones: 1, Tens: 0, Hundreds: 0, XCHPriceUSD: f(20)},
		Config{Pair: "xch", OnesTarget: 5, TensTarget: 2, HundredsTarget: 1},
	)
	if len(actions) != 3 {
		t.Fatalf("expected 3 planned actions, got %d: %+v", len(actions), actions)
	}
	if actions[0].Size != 1 || actions[0].Repeat != 4 {
		t.Fatalf("unexpected first action: %+v", actions[0])
	}
	if actions[1].Size != 10 || actions[1].Repeat != 2 {
		t.Fatalf("unexpected second action: %+v", actions[1])
	}
	if actions[2].Size != 100 || actions[2].Repeat != 1 {
		t.Fatalf("unexpected third action: %+v", actions[2])
	}
}

func TestEvaluateMarketAtOrAboveTargetIsNoop(t *testing.T) {
	actions := EvaluateMarket(
		MarketState{Ones: 5, Tens: 2, Hundreds: 1, XCHPriceUSD: f(20)},
		Config{Pair: "xch", OnesTarget: 5, TensTarget: 2, HundredsTarget: 1},
	)
	if len(actions) != 0 {
		t.Fatalf("expected no actions, got %+v", actions)
	}
}

func TestEvaluateMarketXCHGatesOnMissingPrice(t *testing.T) {
	actions := EvaluateMarket(
		MarketState{Ones: 0, Tens: 0, Hundreds: 0, XCHPriceUSD: nil},
		Config{Pair: "xch", OnesTarget: 5, TensTarget: 2, HundredsTarget: 1},
	)
	if actions != nil {
		t.Fatalf("expected nil actions on missing price, got %+v", actions)
	}
}

func TestEvaluateMarketXCHGatesOnPriceRange(t *testing.T) {
	cfg := Config{Pair: "xch", OnesTarget: 5, MinXCHPriceUSD: f(10), MaxXCHPriceUSD: f(30)}
	if a := EvaluateMarket(MarketState{XCHPriceUSD: f(5)}, cfg); a != nil {
		t.Fatalf("expected nil below min, got %+v", a)
	}
	if a := EvaluateMarket(MarketState{XCHPriceUSD: f(50)}, cfg); a != nil {
		t.Fatalf("expected nil above max, got %+v", a)
	}
}

func TestEvaluateMarketUSDCPairIgnoresXCHPriceGate(t *testing.T) {
	actions := EvaluateMarket(
		MarketState{Ones: 0, XCHPriceUSD: nil},
		Config{Pair: "usdc", OnesTarget: 1},
	)
	if len(actions) != 1 {
		t.Fatalf("expected one action regardless of missing XCH price, got %+v", actions)
	}
}

func TestEvaluateMarketConfiguredExpiryOverridesDefault(t *testing.T) {
	actions := EvaluateMarket(
		MarketState{Ones: 0, XCHPriceUSD: f(20)},
		Config{Pair: "xch", OnesTarget: 1, OfferExpiryUnit: "hours", OfferExpiryValue: i(2)},
	)
	if len(actions) != 1 || actions[0].ExpiryUnit != "hours" || actions[0].ExpiryValue != 2 {
		t.Fatalf("unexpected expiry override: %+v", actions)
	}
}

func TestNormalizePair(t *testing.T) {
	cases := map[string]string{
		"XCH":       "xch",
		"usdc.cat":  "usdc",
		"USDC-CAT2": "usdc",
		"btcb.cat":  "btcb.cat",
	}
	for in, want := range cases {
		if got := NormalizePair(in); got != want {
			t.Fatalf("NormalizePair(%q) = %q, want %q", in, got, want)
		}
	}
}
