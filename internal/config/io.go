package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// --- program.yaml raw wire shapes -------------------------------------------

type rawProgram struct {
	App struct {
		Network string `yaml:"network"`
		HomeDir string `yaml:"home_dir"`
	} `yaml:"app"`
	Runtime struct {
		LoopIntervalSeconds *int `yaml:"loop_interval_seconds"`
		DryRun              bool `yaml:"dry_run"`
	} `yaml:"runtime"`
	ChainSignals struct {
		TxBlockTrigger struct {
			WebhookEnabled    *bool  `yaml:"webhook_enabled"`
			WebhookListenAddr string `yaml:"webhook_listen_addr"`
		} `yaml:"tx_block_trigger"`
	} `yaml:"chain_signals"`
	Venues struct {
		Dexie        struct{ APIBase string `yaml:"api_base"` } `yaml:"dexie"`
		Splash       struct{ APIBase string `yaml:"api_base"` } `yaml:"splash"`
		OfferPublish struct{ Provider string `yaml:"provider"` } `yaml:"offer_publish"`
	} `yaml:"venues"`
	CoinOps struct {
		MaxOperationsPerRun       int   `yaml:"max_operations_per_run"`
		MaxDailyFeeBudgetMojos    int64 `yaml:"max_daily_fee_budget_mojos"`
		SplitFeeMojos             int64 `yaml:"split_fee_mojos"`
		CombineFeeMojos           int64 `yaml:"combine_fee_mojos"`
	} `yaml:"coin_ops"`
	Notifications struct {
		LowInventoryAlerts struct {
			Enabled                       *bool `yaml:"enabled"`
			ThresholdMode                 string `yaml:"threshold_mode"`
			DefaultThresholdBaseUnits     *int64 `yaml:"default_threshold_base_units"`
			DedupCooldownSeconds          *int   `yaml:"dedup_cooldown_seconds"`
			ClearHysteresisPercent        *int   `yaml:"clear_hysteresis_percent"`
		} `yaml:"low_inventory_alerts"`
		Providers []struct {
			Type              string `yaml:"type"`
			Enabled           *bool  `yaml:"enabled"`
			UserKeyEnv        string `yaml:"user_key_env"`
			AppTokenEnv       string `yaml:"app_token_env"`
			RecipientKeyEnv   string `yaml:"recipient_key_env"`
		} `yaml:"providers"`
	} `yaml:"notifications"`
	Keys struct {
		Registry []struct {
			KeyID           string `yaml:"key_id"`
			Fingerprint     *int   `yaml:"fingerprint"`
			Network         string `yaml:"network"`
			KeyringYAMLPath string `yaml:"keyring_yaml_path"`
		} `yaml:"registry"`
	} `yaml:"keys"`
}

// LoadProgram parses program.yaml, mirroring parse_program_config's
// required-field checks and defaults.
func LoadProgram(path string) (Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Program{}, fmt.Errorf("read_program_config:%w", err)
	}
	var raw rawProgram
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Program{}, fmt.Errorf("parse_program_config:%w", err)
	}

	if raw.App.Network == "" {
		return Program{}, missingField("app.network")
	}
	if raw.App.HomeDir == "" {
		return Program{}, missingField("app.home_dir")
	}
	if raw.Runtime.LoopIntervalSeconds == nil {
		return Program{}, missingField("runtime.loop_interval_seconds")
	}
	if raw.ChainSignals.TxBlockTrigger.WebhookEnabled == nil {
		return Program{}, missingField("chain_signals.tx_block_trigger.webhook_enabled")
	}
	if raw.ChainSignals.TxBlockTrigger.WebhookListenAddr == "" {
		return Program{}, missingField("chain_signals.tx_block_trigger.webhook_listen_addr")
	}
	low := raw.Notifications.LowInventoryAlerts
	if low.Enabled == nil {
		return Program{}, missingField("notifications.low_inventory_alerts.enabled")
	}
	if low.ThresholdMode == "" {
		return Program{}, missingField("notifications.low_inventory_alerts.threshold_mode")
	}
	if low.DefaultThresholdBaseUnits == nil {
		return Program{}, missingField("notifications.low_inventory_alerts.default_threshold_base_units")
	}
	if low.DedupCooldownSeconds == nil {
		return Program{}, missingField("notifications.low_inventory_alerts.dedup_cooldown_seconds")
	}
	if low.ClearHysteresisPercent == nil {
		return Program{}, missingField("notifications.low_inventory_alerts.clear_hysteresis_percent")
	}

	var pushover *struct {
		Type            string
		Enabled         *bool
		UserKeyEnv      string
		AppTokenEnv     string
		RecipientKeyEnv string
	}
	for _, p := range raw.Notifications.Providers {
		if p.Type == "pushover" {
			pushover = &struct {
				Type            string
				Enabled         *bool
				UserKeyEnv      string
				AppTokenEnv     string
				RecipientKeyEnv string
			}{p.Type, p.Enabled, p.UserKeyEnv, p.AppTokenEnv, p.RecipientKeyEnv}
			break
		}
	}
	if pushover == nil || pushover.Enabled == nil {
		return Program{}, fmt.Errorf("missing_config_field:notifications.providers entry with type=pushover")
	}

	offerPublishVenue := strings.ToLower(strings.TrimSpace(raw.Venues.OfferPublish.Provider))
	if offerPublishVenue == "" {
		offerPublishVenue = "dexie"
	}
	if offerPublishVenue != "dexie" && offerPublishVenue != "splash" {
		return Program{}, fmt.Errorf("invalid_config_field:venues.offer_publish.provider must be one of: dexie, splash")
	}

	registry := map[string]SignerKeyConfig{}
	for _, row := range raw.Keys.Registry {
		keyID := strings.TrimSpace(row.KeyID)
		if keyID == "" {
			return Program{}, fmt.Errorf("invalid_config_field:keys.registry entry key_id must be non-empty")
		}
		if row.Fingerprint == nil || *row.Fingerprint <= 0 {
			return Program{}, fmt.Errorf("invalid_config_field:keys.registry fingerprint for key_id=%s must be positive", keyID)
		}
		if _, exists := registry[keyID]; exists {
			return Program{}, fmt.Errorf("invalid_config_field:duplicate key_id in keys.registry: %s", keyID)
		}
		registry[keyID] = SignerKeyConfig{
			KeyID:           keyID,
			Fingerprint:     *row.Fingerprint,
			Network:         strings.TrimSpace(row.Network),
			KeyringYAMLPath: strings.TrimSpace(row.KeyringYAMLPath),
		}
	}

	dexieBase := raw.Venues.Dexie.APIBase
	if dexieBase == "" {
		dexieBase = "https://api.dexie.space"
	}
	splashBase := raw.Venues.Splash.APIBase
	if splashBase == "" {
		splashBase = "http://john-deere.hoffmang.com:4000"
	}
	maxOpsPerRun := raw.CoinOps.MaxOperationsPerRun
	if maxOpsPerRun == 0 {
		maxOpsPerRun = 20
	}

	return Program{
		AppNetwork:                        raw.App.Network,
		HomeDir:                           raw.App.HomeDir,
		RuntimeLoopIntervalSeconds:        *raw.Runtime.LoopIntervalSeconds,
		RuntimeDryRun:                     raw.Runtime.DryRun,
		TxBlockWebhookEnabled:             *raw.ChainSignals.TxBlockTrigger.WebhookEnabled,
		TxBlockWebhookListenAddr:          raw.ChainSignals.TxBlockTrigger.WebhookListenAddr,
		DexieAPIBase:                      dexieBase,
		SplashAPIBase:                     splashBase,
		OfferPublishVenue:                 offerPublishVenue,
		CoinOpsMaxOperationsPerRun:        maxOpsPerRun,
		CoinOpsMaxDailyFeeBudgetMojos:     raw.CoinOps.MaxDailyFeeBudgetMojos,
		CoinOpsSplitFeeMojos:              raw.CoinOps.SplitFeeMojos,
		CoinOpsCombineFeeMojos:            raw.CoinOps.CombineFeeMojos,
		LowInventoryEnabled:               *low.Enabled,
		LowInventoryThresholdMode:         low.ThresholdMode,
		LowInventoryDefaultThresholdUnits: *low.DefaultThresholdBaseUnits,
		LowInventoryDedupCooldownSeconds:  *low.DedupCooldownSeconds,
		LowInventoryClearHysteresisPct:    *low.ClearHysteresisPercent,
		PushoverEnabled:                   *pushover.Enabled,
		PushoverUserKeyEnv:                pushover.UserKeyEnv,
		PushoverAppTokenEnv:               pushover.AppTokenEnv,
		PushoverRecipientKeyEnv:           pushover.RecipientKeyEnv,
		SignerKeyRegistry:                 registry,
	}, nil
}

func missingField(name string) error {
	return fmt.Errorf("missing_config_field:%s", name)
}
