// Package config loads GreenFloor's two YAML configuration documents —
// program.yaml (daemon-wide settings) and markets.yaml (per-market
// ladder/pricing/inventory settings) — ported from
// original_source/greenfloor/config/models.py's parse_program_config/
// parse_markets_config, using gopkg.in/yaml.v3 the same way
// internal/keys/keyring.go does for the keyring file.
package config

// SignerKeyConfig is one entry of program.yaml's keys.registry list.
type SignerKeyConfig struct {
	KeyID           string `yaml:"key_id"`
	Fingerprint     int    `yaml:"fingerprint"`
	Network         string `yaml:"network"`
	KeyringYAMLPath string `yaml:"keyring_yaml_path"`
}

// Program is program.yaml's parsed shape.
type Program struct {
	AppNetwork                        string
	HomeDir                           string
	RuntimeLoopIntervalSeconds        int
	RuntimeDryRun                     bool
	TxBlockWebhookEnabled             bool
	TxBlockWebhookListenAddr          string
	DexieAPIBase                      string
	SplashAPIBase                     string
	OfferPublishVenue                 string
	CoinOpsMaxOperationsPerRun        int
	CoinOpsMaxDailyFeeBudgetMojos     int64
	CoinOpsSplitFeeMojos              int64
	CoinOpsCombineFeeMojos            int64
	LowInventoryEnabled               bool
	LowInventoryThresholdMode         string
	LowInventoryDefaultThresholdUnits int64
	LowInventoryDedupCooldownSeconds  int
	LowInventoryClearHysteresisPct    int
	PushoverEnabled                   bool
	PushoverUserKeyEnv                string
	PushoverAppTokenEnv               string
	PushoverRecipientKeyEnv           string
	SignerKeyRegistry                 map[string]SignerKeyConfig
}

// MarketInventory is one market's inventory.* block.
type MarketInventory struct {
	LowWatermarkBaseUnits               int64
	LowInventoryAlertThresholdBaseUnits *int64
	CurrentAvailableBaseUnits           int64
	BucketCounts                        map[int64]int
}

// LadderEntry is one rung of a market's sell/buy ladder.
type LadderEntry struct {
	SizeBaseUnits           int64
	TargetCount             int
	SplitBufferCount        int
	CombineWhenExcessFactor float64
}

// Market is one markets.yaml entry.
type Market struct {
	MarketID       string
	Enabled        bool
	BaseAsset      string
	BaseSymbol     string
	QuoteAsset     string
	QuoteAssetType string
	ReceiveAddress string
	Mode           string
	SignerKeyID    string
	Inventory      MarketInventory
	Pricing        map[string]any
	Ladders        map[string][]LadderEntry
}

// Markets is markets.yaml's parsed shape.
type Markets struct {
	Markets []Market
}
