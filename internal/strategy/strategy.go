// Package strategy decides how many offers a market wants open at each
// ladder size (spec §4.2), ported from
// original_source/greenfloor/core/strategy.py's evaluate_market.
package strategy

import "strings"

// MarketState mirrors core/strategy.py's MarketState: current open-offer
// counts at each of the three fixed ladder sizes, plus the latest XCH/USD
// price (nil when unavailable).
type MarketState struct {
	Ones        int
	Tens        int
	Hundreds    int
	XCHPriceUSD *float64
}

// Config mirrors core/strategy.py's StrategyConfig.
type Config struct {
	Pair             string
	OnesTarget       int
	TensTarget       int
	HundredsTarget   int
	TargetSpreadBPS  *int
	MinXCHPriceUSD   *float64
	MaxXCHPriceUSD   *float64
	OfferExpiryUnit  string
	OfferExpiryValue *int
}

// PlannedAction mirrors core/strategy.py's PlannedAction: "post `Repeat`
// offers of size `Size`" plus the expiry/cancel-after-create policy they
// should carry.
type PlannedAction struct {
	Size              int64
	Repeat            int
	Pair              string
	ExpiryUnit        string
	ExpiryValue       int
	CancelAfterCreate bool
	Reason            string
	TargetSpreadBPS   *int
}

const defaultExpiryUnit = "minutes"
const defaultExpiryValue = 10

// EvaluateMarket is the literal port of evaluate_market: an XCH-quoted
// market gates entirely on the price being present, positive, and
// within [min, max]; every ladder size below its target count then gets
// one planned action to post the shortfall.
func EvaluateMarket(state MarketState, config Config) []PlannedAction {
	pair := config.Pair
	if pair == "xch" {
		if state.XCHPriceUSD == nil || *state.XCHPriceUSD <= 0 {
			return nil
		}
		if config.MinXCHPriceUSD != nil && *state.XCHPriceUSD < *config.MinXCHPriceUSD {
			return nil
		}
		if config.MaxXCHPriceUSD != nil && *state.XCHPriceUSD > *config.MaxXCHPriceUSD {
			return nil
		}
	}

	// xch and usdc both expire on the same 10-minute window today
	// (_PAIR_EXPIRY_CONFIG); anything else falls back to the same
	// default rather than inventing a new schedule per quote asset.
	expiryUnit, expiryValue := defaultExpiryUnit, defaultExpiryValue
	if config.OfferExpiryUnit == "minutes" || config.OfferExpiryUnit == "hours" {
		if config.OfferExpiryValue != nil && *config.OfferExpiryValue > 0 {
			expiryUnit, expiryValue = config.OfferExpiryUnit, *config.OfferExpiryValue
		}
	}

	ladder := []struct {
		size    int64
		current int
		target  int
	}{
		{1, state.Ones, config.OnesTarget},
		{10, state.Tens, config.TensTarget},
		{100, state.Hundreds, config.HundredsTarget},
	}

	var actions []PlannedAction
	for _, e := range ladder {
		if e.current < e.target {
			actions = append(actions, PlannedAction{
				Size:              e.size,
				Repeat:            e.target - e.current,
				Pair:              pair,
				ExpiryUnit:        expiryUnit,
				ExpiryValue:       expiryValue,
				CancelAfterCreate: true,
				Reason:            "below_target",
				TargetSpreadBPS:   config.TargetSpreadBPS,
			})
		}
	}
	return actions
}

// NormalizePair mirrors _normalize_strategy_pair: xch stays xch, any
// quote asset containing "usdc" collapses to usdc, everything else
// passes through lowercase.
func NormalizePair(quoteAsset string) string {
	lowered := strings.ToLower(strings.TrimSpace(quoteAsset))
	if lowered == "xch" {
		return "xch"
	}
	if strings.Contains(lowered, "usdc") {
		return "usdc"
	}
	return lowered
}
