package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type rawMarkets struct {
	Markets []rawMarket `yaml:"markets"`
}

type rawMarket struct {
	ID             string                   `yaml:"id"`
	Enabled        *bool                    `yaml:"enabled"`
	BaseAsset      string                   `yaml:"base_asset"`
	BaseSymbol     string                   `yaml:"base_symbol"`
	QuoteAsset     string                   `yaml:"quote_asset"`
	QuoteAssetType string                   `yaml:"quote_asset_type"`
	ReceiveAddress string                   `yaml:"receive_address"`
	Mode           string                   `yaml:"mode"`
	SignerKeyID    string                   `yaml:"signer_key_id"`
	Inventory      rawMarketInventory       `yaml:"inventory"`
	Pricing        map[string]any           `yaml:"pricing"`
	Ladders        map[string][]rawLadderEntry `yaml:"ladders"`
}

type rawMarketInventory struct {
	LowWatermarkBaseUnits               *int64        `yaml:"low_watermark_base_units"`
	LowInventoryAlertThresholdBaseUnits *int64        `yaml:"low_inventory_alert_threshold_base_units"`
	CurrentAvailableBaseUnits           int64         `yaml:"current_available_base_units"`
	BucketCounts                        map[string]int `yaml:"bucket_counts"`
}

type rawLadderEntry struct {
	SizeBaseUnits           *int64   `yaml:"size_base_units"`
	TargetCount             *int     `yaml:"target_count"`
	SplitBufferCount        int      `yaml:"split_buffer_count"`
	CombineWhenExcessFactor *float64 `yaml:"combine_when_excess_factor"`
}

// LoadMarkets parses markets.yaml, mirroring parse_markets_config's
// required-field checks, pricing validation, and defaults.
func LoadMarkets(path string) (Markets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Markets{}, fmt.Errorf("read_markets_config:%w", err)
	}
	var raw rawMarkets
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Markets{}, fmt.Errorf("parse_markets_config:%w", err)
	}

	markets := make([]Market, 0, len(raw.Markets))
	for _, row := range raw.Markets {
		if row.ID == "" {
			return Markets{}, missingField("markets[].id")
		}
		if row.Enabled == nil {
			return Markets{}, missingField(fmt.Sprintf("markets[%s].enabled", row.ID))
		}
		if row.BaseAsset == "" || row.BaseSymbol == "" || row.QuoteAsset == "" || row.QuoteAssetType == "" || row.ReceiveAddress == "" || row.Mode == "" || row.SignerKeyID == "" {
			return Markets{}, missingField(fmt.Sprintf("markets[%s]: base_asset/base_symbol/quote_asset/quote_asset_type/receive_address/mode/signer_key_id are all required", row.ID))
		}
		if row.Inventory.LowWatermarkBaseUnits == nil {
			return Markets{}, missingField(fmt.Sprintf("markets[%s].inventory.low_watermark_base_units", row.ID))
		}
		if err := validateStrategyPricing(row.Pricing, row.ID); err != nil {
			return Markets{}, err
		}

		bucketCounts := make(map[int64]int, len(row.Inventory.BucketCounts))
		for k, v := range row.Inventory.BucketCounts {
			size, err := strconv.ParseInt(k, 10, 64)
			if err != nil {
				return Markets{}, fmt.Errorf("invalid_config_field:markets[%s].inventory.bucket_counts key %q is not numeric", row.ID, k)
			}
			bucketCounts[size] = v
		}

		ladders := make(map[string][]LadderEntry, len(row.Ladders))
		for side, entries := range row.Ladders {
			sideEntries := make([]LadderEntry, 0, len(entries))
			for _, e := range entries {
				if e.SizeBaseUnits == nil {
					return Markets{}, missingField(fmt.Sprintf("markets[%s].ladders.%s[].size_base_units", row.ID, side))
				}
				if e.TargetCount == nil {
					return Markets{}, missingField(fmt.Sprintf("markets[%s].ladders.%s[].target_count", row.ID, side))
				}
				combineFactor := 2.0
				if e.CombineWhenExcessFactor != nil {
					combineFactor = *e.CombineWhenExcessFactor
				}
				sideEntries = append(sideEntries, LadderEntry{
					SizeBaseUnits:           *e.SizeBaseUnits,
					TargetCount:             *e.TargetCount,
					SplitBufferCount:        e.SplitBufferCount,
					CombineWhenExcessFactor: combineFactor,
				})
			}
			ladders[side] = sideEntries
		}

		markets = append(markets, Market{
			MarketID:       row.ID,
			Enabled:        *row.Enabled,
			BaseAsset:      row.BaseAsset,
			BaseSymbol:     row.BaseSymbol,
			QuoteAsset:     row.QuoteAsset,
			QuoteAssetType: row.QuoteAssetType,
			ReceiveAddress: row.ReceiveAddress,
			Mode:           row.Mode,
			SignerKeyID:    row.SignerKeyID,
			Inventory: MarketInventory{
				LowWatermarkBaseUnits:               *row.Inventory.LowWatermarkBaseUnits,
				LowInventoryAlertThresholdBaseUnits: row.Inventory.LowInventoryAlertThresholdBaseUnits,
				CurrentAvailableBaseUnits:           row.Inventory.CurrentAvailableBaseUnits,
				BucketCounts:                        bucketCounts,
			},
			Pricing: row.Pricing,
			Ladders: ladders,
		})
	}
	return Markets{Markets: markets}, nil
}

// validateStrategyPricing mirrors _validate_strategy_pricing: the
// strategy_* pricing knobs, when present, must be well-formed and
// internally consistent.
func validateStrategyPricing(pricing map[string]any, marketID string) error {
	if spreadRaw, ok := pricing["strategy_target_spread_bps"]; ok {
		spread, ok := asInt(spreadRaw)
		if !ok {
			return fmt.Errorf("invalid_config_field:market %s: strategy_target_spread_bps must be an integer", marketID)
		}
		if spread <= 0 {
			return fmt.Errorf("invalid_config_field:market %s: strategy_target_spread_bps must be positive", marketID)
		}
	}

	var minPrice, maxPrice *float64
	if minRaw, ok := pricing["strategy_min_xch_price_usd"]; ok {
		v, ok := asFloat(minRaw)
		if !ok {
			return fmt.Errorf("invalid_config_field:market %s: strategy_min_xch_price_usd must be numeric", marketID)
		}
		if v <= 0 {
			return fmt.Errorf("invalid_config_field:market %s: strategy_min_xch_price_usd must be > 0", marketID)
		}
		minPrice = &v
	}
	if maxRaw, ok := pricing["strategy_max_xch_price_usd"]; ok {
		v, ok := asFloat(maxRaw)
		if !ok {
			return fmt.Errorf("invalid_config_field:market %s: strategy_max_xch_price_usd must be numeric", marketID)
		}
		if v <= 0 {
			return fmt.Errorf("invalid_config_field:market %s: strategy_max_xch_price_usd must be > 0", marketID)
		}
		maxPrice = &v
	}
	if minPrice != nil && maxPrice != nil && *minPrice > *maxPrice {
		return fmt.Errorf("invalid_config_field:market %s: strategy_min_xch_price_usd must be <= strategy_max_xch_price_usd", marketID)
	}
	return nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		parsed, err := strconv.Atoi(n)
		return parsed, err == nil
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		return parsed, err == nil
	}
	return 0, false
}
