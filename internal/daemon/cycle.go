// Package daemon implements GreenFloor's per-tick cycle orchestrator
// (spec §4.11), ported from original_source/greenfloor/daemon/main.py's
// run_once: fetch price/mempool state, then for every enabled market
// run lifecycle reconciliation, the cancel policy, strategy planning,
// offer posting, and ladder coin-ops — all against internal/store as
// the single source of truth.
package daemon

import (
	"context"
	"time"

	"github.com/hoffmang9/greenfloor/internal/chia"
	"github.com/hoffmang9/greenfloor/internal/coins"
	"github.com/hoffmang9/greenfloor/internal/config"
	"github.com/hoffmang9/greenfloor/internal/keys"
	"github.com/hoffmang9/greenfloor/internal/ladder"
	"github.com/hoffmang9/greenfloor/internal/lifecycle"
	"github.com/hoffmang9/greenfloor/internal/notify"
	"github.com/hoffmang9/greenfloor/internal/retry"
	"github.com/hoffmang9/greenfloor/internal/store"
	"github.com/hoffmang9/greenfloor/internal/strategy"
	"github.com/hoffmang9/greenfloor/internal/venue"
)

// Indexer is the narrow coinset surface the cycle needs beyond what
// internal/coins.Indexer already names, satisfied by *coinset.Client.
type Indexer interface {
	coins.Indexer
	GetAllMempoolTxIDs(ctx context.Context) ([]string, error)
	PushTx(ctx context.Context, spendBundleHex string) (map[string]any, error)
}

// PriceFetcher is the narrow internal/price surface the cycle needs.
type PriceFetcher interface {
	GetXCHPriceUSD(ctx context.Context) (float64, error)
}

// Dependencies bundles every external collaborator Cycle.Run touches,
// ported from run_once's locally-constructed adapters.
type Dependencies struct {
	Store    *store.Store
	Coinset  Indexer
	Dexie    *venue.DexieClient
	Splash   *venue.SplashClient
	Price    PriceFetcher
	Pushover *notify.PushoverSender
	Offers   OfferBuilder

	SignerCommand string // GREENFLOOR_WALLET_EXECUTOR_CMD equivalent
	AllowedKeyIDs map[string]bool

	PostRetry      retry.Config
	CancelRetry    retry.Config
	CancelMoveBPS  int
	PostCooldown   *retry.CooldownTracker
	CancelCooldown *retry.CooldownTracker

	Now   func() time.Time
	Sleep retry.Sleep
}

func (d Dependencies) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Cycle runs one full tick across every enabled market.
type Cycle struct {
	Program config.Program
	Markets []config.Market
	Deps    Dependencies
}

// Summary mirrors run_once's daemon_cycle_summary audit payload.
type Summary struct {
	DurationMS            int64
	MarketsProcessed      int
	ErrorCount            int
	StrategyPlannedTotal  int
	StrategyExecutedTotal int
	CancelTriggeredCount  int
	CancelPlannedTotal    int
	CancelExecutedTotal   int
}

// Run executes one cycle, mirroring run_once's sequence: a
// program-wide price/mempool snapshot, then a per-market pass over
// lifecycle reconciliation, cancel policy, strategy planning and
// execution, and ladder coin ops.
func (c *Cycle) Run(ctx context.Context) (Summary, error) {
	started := c.Deps.now()
	summary := Summary{}

	previousPriceUSD, _ := c.Deps.Store.GetLatestXCHPriceSnapshot(ctx)

	var currentPriceUSD *float64
	if price, err := c.Deps.Price.GetXCHPriceUSD(ctx); err != nil {
		summary.ErrorCount++
		c.Deps.Store.AddAuditEvent(ctx, "xch_price_error", map[string]any{"error": err.Error()}, nil)
	} else {
		currentPriceUSD = &price
		c.Deps.Store.AddAuditEvent(ctx, "xch_price_snapshot", map[string]any{"price_usd": price}, nil)
	}

	if txIDs, err := c.Deps.Coinset.GetAllMempoolTxIDs(ctx); err != nil {
		summary.ErrorCount++
		c.Deps.Store.AddAuditEvent(ctx, "coinset_mempool_error", map[string]any{"error": err.Error()}, nil)
	} else {
		newCount, err := c.Deps.Store.ObserveMempoolTxIDs(ctx, txIDs)
		if err != nil {
			summary.ErrorCount++
		}
		c.Deps.Store.AddAuditEvent(ctx, "coinset_mempool_snapshot", map[string]any{"count": len(txIDs)}, nil)
		if newCount > 0 {
			c.Deps.Store.AddAuditEvent(ctx, "mempool_observed", map[string]any{"new_tx_ids": newCount}, nil)
		}
	}

	now := c.Deps.now()
	for _, market := range c.Markets {
		if !market.Enabled {
			continue
		}
		summary.MarketsProcessed++
		marketErrCount, marketSummary := c.runMarket(ctx, now, market, currentPriceUSD, previousPriceUSD)
		summary.ErrorCount += marketErrCount
		summary.StrategyPlannedTotal += marketSummary.plannedCount
		summary.StrategyExecutedTotal += marketSummary.executedCount
		if marketSummary.cancelTriggered {
			summary.CancelTriggeredCount++
		}
		summary.CancelPlannedTotal += marketSummary.cancelPlanned
		summary.CancelExecutedTotal += marketSummary.cancelExecuted
	}

	summary.DurationMS = c.Deps.now().Sub(started).Milliseconds()
	c.Deps.Store.AddAuditEvent(ctx, "daemon_cycle_summary", map[string]any{
		"duration_ms":             summary.DurationMS,
		"markets_processed":       summary.MarketsProcessed,
		"error_count":             summary.ErrorCount,
		"strategy_planned_total":  summary.StrategyPlannedTotal,
		"strategy_executed_total": summary.StrategyExecutedTotal,
		"cancel_triggered_count":  summary.CancelTriggeredCount,
		"cancel_planned_total":    summary.CancelPlannedTotal,
		"cancel_executed_total":   summary.CancelExecutedTotal,
	}, nil)
	return summary, nil
}

type marketCycleSummary struct {
	plannedCount    int
	executedCount   int
	cancelTriggered bool
	cancelPlanned   int
	cancelExecuted  int
}

func (c *Cycle) runMarket(ctx context.Context, now time.Time, market config.Market, currentPriceUSD, previousPriceUSD *float64) (int, marketCycleSummary) {
	errCount := 0
	marketID := market.MarketID

	signerSelection, err := keys.ResolveMarketKey(marketID, market.SignerKeyID, c.Deps.AllowedKeyIDs, keyRegistryFor(c.Program.SignerKeyRegistry), c.Program.AppNetwork)
	if err != nil {
		errCount++
		c.Deps.Store.AddAuditEvent(ctx, "signer_key_resolution_error", map[string]any{"market_id": marketID, "error": err.Error()}, &marketID)
	}

	c.Deps.Store.AddPricePolicySnapshot(ctx, marketID, map[string]any{
		"mode":             market.Mode,
		"base_asset":       market.BaseAsset,
		"quote_asset":      market.QuoteAsset,
		"quote_asset_type": market.QuoteAssetType,
	}, "startup")

	c.runLowInventoryAlert(ctx, now, market)

	offers, err := c.Deps.Dexie.GetOffers(ctx, market.BaseAsset, market.QuoteAsset)
	if err != nil {
		errCount++
		c.Deps.Store.AddAuditEvent(ctx, "dexie_offers_error", map[string]any{"market_id": marketID, "error": err.Error()}, &marketID)
		offers = nil
	}
	c.applyOfferLifecycle(ctx, market, offers)

	cancelResult := c.runCancelPolicy(ctx, market, offers, currentPriceUSD, previousPriceUSD)

	bucketCounts := c.scanInventoryBuckets(ctx, market)

	actions := strategy.EvaluateMarket(strategyStateFromBuckets(bucketCounts, currentPriceUSD), strategyConfigFromMarket(market))
	plannedTotal := 0
	for _, a := range actions {
		plannedTotal += a.Repeat
	}
	c.Deps.Store.AddAuditEvent(ctx, "strategy_actions_planned", map[string]any{
		"market_id":     marketID,
		"xch_price_usd": currentPriceUSD,
		"actions":       actionsToPayload(actions),
	}, &marketID)

	executedTotal := c.executeStrategyActions(ctx, market, actions, currentPriceUSD)

	c.runCoinOps(ctx, market, signerSelection, bucketCounts)

	return errCount, marketCycleSummary{
		plannedCount:    plannedTotal,
		executedCount:   executedTotal,
		cancelTriggered: cancelResult.Triggered,
		cancelPlanned:   cancelResult.plannedCount,
		cancelExecuted:  cancelResult.executedCount,
	}
}

func keyRegistryFor(registry map[string]config.SignerKeyConfig) map[string]keys.SignerKeyConfig {
	if registry == nil {
		return nil
	}
	out := make(map[string]keys.SignerKeyConfig, len(registry))
	for id, entry := range registry {
		out[id] = keys.SignerKeyConfig{
			Fingerprint:     entry.Fingerprint,
			KeyringYAMLPath: entry.KeyringYAMLPath,
			Network:         entry.Network,
		}
	}
	return out
}

func (c *Cycle) runLowInventoryAlert(ctx context.Context, now time.Time, market config.Market) {
	marketID := market.MarketID
	persisted, err := c.Deps.Store.GetAlertState(ctx, marketID)
	if err != nil {
		return
	}
	threshold := c.Program.LowInventoryDefaultThresholdUnits
	if market.Inventory.LowInventoryAlertThresholdBaseUnits != nil {
		threshold = *market.Inventory.LowInventoryAlertThresholdBaseUnits
	}
	policy := ladder.LowInventoryPolicy{
		Enabled:                c.Program.LowInventoryEnabled,
		MarketEnabled:          true,
		Threshold:              threshold,
		ClearHysteresisPercent: float64(c.Program.LowInventoryClearHysteresisPct),
		DedupCooldownSeconds:   int64(c.Program.LowInventoryDedupCooldownSeconds),
	}
	state, event := ladder.EvaluateLowInventoryAlert(now, policy, marketID, market.BaseSymbol, market.ReceiveAddress, market.Inventory.CurrentAvailableBaseUnits, ladder.AlertState{
		IsLow:       persisted.IsLow,
		LastAlertAt: persisted.LastAlertAt,
	})
	c.Deps.Store.UpsertAlertState(ctx, store.AlertState{MarketID: marketID, IsLow: state.IsLow, LastAlertAt: state.LastAlertAt})
	if event == nil {
		return
	}
	payload := map[string]any{
		"event":            "low_inventory_alert",
		"market_id":        event.MarketID,
		"ticker":           event.Ticker,
		"remaining_amount": event.RemainingAmount,
		"receive_address":  event.ReceiveAddress,
		"reason":           event.Reason,
	}
	c.Deps.Store.AddAuditEvent(ctx, "low_inventory_alert", payload, &marketID)
	if c.Deps.Pushover != nil {
		c.Deps.Pushover.SendLowInventoryAlert(ctx, notify.PushoverConfig{
			Enabled:         c.Program.PushoverEnabled,
			UserKeyEnv:      c.Program.PushoverUserKeyEnv,
			AppTokenEnv:     c.Program.PushoverAppTokenEnv,
			RecipientKeyEnv: c.Program.PushoverRecipientKeyEnv,
		}, *event)
	}
}

func (c *Cycle) applyOfferLifecycle(ctx context.Context, market config.Market, offers []venue.Offer) {
	marketID := market.MarketID
	for _, offer := range offers {
		if offer.ID == "" {
			continue
		}
		signal, ok := lifecycle.SignalForVenueStatus(offer.Status, lifecycle.Open)
		var transition lifecycle.Transition
		if ok {
			transition = lifecycle.Apply(lifecycle.Open, signal)
		} else {
			transition = lifecycle.Transition{From: lifecycle.Open, To: lifecycle.Open, Reason: "signal_ignored_for_state"}
		}
		c.Deps.Store.UpsertOfferState(ctx, offer.ID, marketID, string(transition.To), &offer.Status)
		c.Deps.Store.AddAuditEvent(ctx, "offer_lifecycle_transition", map[string]any{
			"offer_id":      offer.ID,
			"market_id":     marketID,
			"old_state":     string(transition.From),
			"new_state":     string(transition.To),
			"signal":        string(transition.Signal),
			"action":        transition.Action,
			"reason":        transition.Reason,
			"dexie_status":  offer.Status,
		}, &marketID)
	}
}

type cancelPolicyOutcome struct {
	retry.CancelPolicyResult
	plannedCount  int
	executedCount int
}

func (c *Cycle) runCancelPolicy(ctx context.Context, market config.Market, offers []venue.Offer, currentPriceUSD, previousPriceUSD *float64) cancelPolicyOutcome {
	marketID := market.MarketID
	stableVsUnstable, _ := market.Pricing["cancel_policy_stable_vs_unstable"].(bool)
	decision := retry.EvaluateCancelPolicy(retry.CancelPolicyInput{
		QuoteAssetType:               market.QuoteAssetType,
		CancelPolicyStableVsUnstable: stableVsUnstable,
		CurrentXCHPriceUSD:           currentPriceUSD,
		PreviousXCHPriceUSD:          previousPriceUSD,
		ThresholdBPS:                c.Deps.CancelMoveBPS,
	})

	var items []map[string]any
	plannedCount, executedCount := 0, 0
	if decision.Triggered {
		var targetIDs []string
		for _, o := range offers {
			if o.ID != "" && o.Status == 0 {
				targetIDs = append(targetIDs, o.ID)
			}
		}
		plannedCount = len(targetIDs)
		cooldownKey := "cancel:" + marketID
		for _, offerID := range targetIDs {
			if c.Program.RuntimeDryRun {
				items = append(items, map[string]any{"offer_id": offerID, "status": "planned", "reason": "dry_run"})
				continue
			}
			if remaining := c.Deps.CancelCooldown.Remaining(cooldownKey); remaining > 0 {
				items = append(items, map[string]any{"offer_id": offerID, "status": "skipped", "reason": "cancel_cooldown_active"})
				continue
			}
			outcome := retry.CancelWithRetry(ctx, c.Deps.CancelRetry, "cancel_offer_failed", func(ctx context.Context, attempt int) (retry.AttemptResult, error) {
				result, err := c.Deps.Dexie.CancelOffer(ctx, offerID)
				if err != nil {
					return retry.AttemptResult{Success: false, Error: err.Error()}, nil
				}
				success, _ := result["success"].(bool)
				errMsg, _ := result["error"].(string)
				return retry.AttemptResult{Success: success, Error: errMsg}, nil
			}, c.Deps.Sleep)
			if outcome.Result.Success {
				executedCount++
				status := 3
				c.Deps.Store.UpsertOfferState(ctx, offerID, marketID, "cancelled", &status)
				items = append(items, map[string]any{"offer_id": offerID, "status": "executed", "reason": "cancelled_on_strong_unstable_move", "attempts": outcome.AttemptCount})
			} else {
				c.Deps.CancelCooldown.Set(cooldownKey, time.Duration(c.Deps.CancelRetry.CooldownSeconds)*time.Second)
				items = append(items, map[string]any{"offer_id": offerID, "status": "skipped", "reason": "cancel_retry_exhausted:" + outcome.Error, "attempts": outcome.AttemptCount})
			}
		}
	}

	c.Deps.Store.AddAuditEvent(ctx, "offer_cancel_policy", map[string]any{
		"market_id":      marketID,
		"eligible":       decision.Eligible,
		"triggered":      decision.Triggered,
		"reason":         decision.Reason,
		"move_bps":       decision.MoveBPS,
		"threshold_bps":  decision.ThresholdBPS,
		"planned_count":  plannedCount,
		"executed_count": executedCount,
		"items":          items,
	}, &marketID)

	return cancelPolicyOutcome{CancelPolicyResult: decision, plannedCount: plannedCount, executedCount: executedCount}
}

// scanInventoryBuckets counts how many unspent coins a market
// currently holds at each ladder size. Only plain-XCH markets can be
// scanned here: CAT discovery needs a chia.PuzzleRunner to confirm a
// candidate coin's asset id, which this codebase has no concrete
// implementation of (see internal/chia.PuzzleRunner's doc comment),
// so a non-XCH market falls back to its config-seeded bucket_counts,
// the same branch run_once takes when list_asset_coins_base_units
// returns nothing.
func (c *Cycle) scanInventoryBuckets(ctx context.Context, market config.Market) map[int64]int {
	marketID := market.MarketID
	sellLadder := market.Ladders["sell"]
	ladderSizes := make([]int64, 0, len(sellLadder))
	for _, e := range sellLadder {
		ladderSizes = append(ladderSizes, e.SizeBaseUnits)
	}

	if market.BaseAsset == "xch" {
		if puzzleHash, err := chia.AddressToPuzzleHash(market.ReceiveAddress); err == nil {
			unspent := coins.ListUnspentXCH(ctx, c.Deps.Coinset, puzzleHash)
			if len(unspent) > 0 {
				amounts := make([]int64, len(unspent))
				for i, coin := range unspent {
					amounts[i] = int64(coin.Amount)
				}
				bucketCounts := ladder.ComputeBucketCountsFromCoins(amounts, ladderSizes)
				c.Deps.Store.AddAuditEvent(ctx, "inventory_bucket_scan", map[string]any{
					"market_id":     marketID,
					"source":        "coinset_indexer",
					"bucket_counts": bucketCounts,
					"coin_count":    len(unspent),
				}, &marketID)
				return bucketCounts
			}
		}
	}

	bucketCounts := market.Inventory.BucketCounts
	c.Deps.Store.AddAuditEvent(ctx, "inventory_bucket_scan", map[string]any{
		"market_id":     marketID,
		"source":        "config_seed_or_no_asset_scan",
		"asset_id":      market.BaseAsset,
		"bucket_counts": bucketCounts,
	}, &marketID)
	return bucketCounts
}

func strategyStateFromBuckets(bucketCounts map[int64]int, xchPriceUSD *float64) strategy.MarketState {
	return strategy.MarketState{
		Ones:        bucketCounts[1],
		Tens:        bucketCounts[10],
		Hundreds:    bucketCounts[100],
		XCHPriceUSD: xchPriceUSD,
	}
}

func strategyConfigFromMarket(market config.Market) strategy.Config {
	targets := map[int64]int{}
	for _, e := range market.Ladders["sell"] {
		targets[e.SizeBaseUnits] = e.TargetCount
	}
	onesTarget, tensTarget, hundredsTarget := 5, 2, 1
	if v, ok := targets[1]; ok {
		onesTarget = v
	}
	if v, ok := targets[10]; ok {
		tensTarget = v
	}
	if v, ok := targets[100]; ok {
		hundredsTarget = v
	}

	pricing := market.Pricing
	return strategy.Config{
		Pair:            strategy.NormalizePair(market.QuoteAsset),
		OnesTarget:      onesTarget,
		TensTarget:      tensTarget,
		HundredsTarget:  hundredsTarget,
		TargetSpreadBPS: intFromPricing(pricing, "strategy_target_spread_bps"),
		MinXCHPriceUSD:  floatFromPricing(pricing, "strategy_min_xch_price_usd"),
		MaxXCHPriceUSD:  floatFromPricing(pricing, "strategy_max_xch_price_usd"),
	}
}

func intFromPricing(pricing map[string]any, key string) *int {
	raw, ok := pricing[key]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case int:
		return &v
	case int64:
		i := int(v)
		return &i
	case float64:
		i := int(v)
		return &i
	}
	return nil
}

func floatFromPricing(pricing map[string]any, key string) *float64 {
	raw, ok := pricing[key]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	}
	return nil
}

func actionsToPayload(actions []strategy.PlannedAction) []map[string]any {
	out := make([]map[string]any, 0, len(actions))
	for _, a := range actions {
		out = append(out, map[string]any{
			"size":                a.Size,
			"repeat":              a.Repeat,
			"pair":                a.Pair,
			"expiry_unit":         a.ExpiryUnit,
			"expiry_value":        a.ExpiryValue,
			"cancel_after_create": a.CancelAfterCreate,
			"reason":              a.Reason,
			"target_spread_bps":   a.TargetSpreadBPS,
		})
	}
	return out
}

func (c *Cycle) executeStrategyActions(ctx context.Context, market config.Market, actions []strategy.PlannedAction, xchPriceUSD *float64) int {
	marketID := market.MarketID
	publishVenue := c.Program.OfferPublishVenue
	cooldownKey := publishVenue + ":" + marketID
	executedCount := 0
	var items []map[string]any

	for _, action := range actions {
		for i := 0; i < action.Repeat; i++ {
			if c.Program.RuntimeDryRun {
				items = append(items, map[string]any{"size": action.Size, "status": "planned", "reason": "dry_run"})
				continue
			}

			built, err := c.Deps.Offers.BuildOffer(ctx, ActionToOfferBuildRequest(marketID, market.BaseAsset, market.BaseSymbol, market.QuoteAsset, market.QuoteAssetType, market.ReceiveAddress, action, xchPriceUSD))
			if err != nil || built.Status != "executed" {
				reason := built.Reason
				if reason == "" {
					reason = "offer_builder_skipped"
				}
				items = append(items, map[string]any{"size": action.Size, "status": "skipped", "reason": reason})
				continue
			}

			if remaining := c.Deps.PostCooldown.Remaining(cooldownKey); remaining > 0 {
				items = append(items, map[string]any{"size": action.Size, "status": "skipped", "reason": "post_cooldown_active"})
				continue
			}

			outcome := retry.PostWithRetry(ctx, c.Deps.PostRetry, publishVenue+"_post_failed", func(ctx context.Context, attempt int) (retry.AttemptResult, error) {
				result, err := c.postOffer(ctx, publishVenue, built.Offer)
				if err != nil {
					return retry.AttemptResult{Success: false, Error: err.Error()}, nil
				}
				success, _ := result["success"].(bool)
				id, _ := result["id"].(string)
				errMsg, _ := result["error"].(string)
				return retry.AttemptResult{Success: success, ID: id, Error: errMsg}, nil
			}, c.Deps.Sleep)

			if outcome.Result.Success && outcome.Result.ID != "" {
				executedCount++
				status := 0
				c.Deps.Store.UpsertOfferState(ctx, outcome.Result.ID, marketID, "open", &status)
				items = append(items, map[string]any{"size": action.Size, "status": "executed", "reason": publishVenue + "_post_success", "offer_id": outcome.Result.ID, "attempts": outcome.AttemptCount})
			} else {
				c.Deps.PostCooldown.Set(cooldownKey, time.Duration(c.Deps.PostRetry.CooldownSeconds)*time.Second)
				items = append(items, map[string]any{"size": action.Size, "status": "skipped", "reason": publishVenue + "_post_retry_exhausted:" + outcome.Error, "attempts": outcome.AttemptCount})
			}
		}
	}

	plannedTotal := 0
	for _, a := range actions {
		plannedTotal += a.Repeat
	}
	c.Deps.Store.AddAuditEvent(ctx, "strategy_offer_execution", map[string]any{
		"market_id":      marketID,
		"planned_count":  plannedTotal,
		"executed_count": executedCount,
		"items":          items,
	}, &marketID)
	return executedCount
}

func (c *Cycle) postOffer(ctx context.Context, publishVenue, offerText string) (map[string]any, error) {
	if publishVenue == "splash" {
		if c.Deps.Splash == nil {
			return map[string]any{"success": false, "error": "splash_not_configured"}, nil
		}
		return c.Deps.Splash.PostOffer(ctx, offerText)
	}
	return c.Deps.Dexie.PostOffer(ctx, offerText, false, nil)
}

func (c *Cycle) runCoinOps(ctx context.Context, market config.Market, signerSelection keys.KeySelection, bucketCounts map[int64]int) {
	marketID := market.MarketID
	sellLadder := market.Ladders["sell"]
	buckets := make([]ladder.BucketSpec, 0, len(sellLadder))
	for _, e := range sellLadder {
		buckets = append(buckets, ladder.BucketSpec{
			SizeBaseUnits:           e.SizeBaseUnits,
			TargetCount:             e.TargetCount,
			SplitBufferCount:        e.SplitBufferCount,
			CombineWhenExcessFactor: e.CombineWhenExcessFactor,
			CurrentCount:            bucketCounts[e.SizeBaseUnits],
		})
	}

	plans := ladder.PlanCoinOps(buckets, c.Program.CoinOpsMaxOperationsPerRun, c.Program.CoinOpsMaxDailyFeeBudgetMojos, c.Program.CoinOpsSplitFeeMojos, c.Program.CoinOpsCombineFeeMojos)
	if len(plans) == 0 {
		return
	}

	projectedFee := ladder.ProjectedCoinOpsFeeMojos(plans, c.Program.CoinOpsSplitFeeMojos, c.Program.CoinOpsCombineFeeMojos)
	spentToday, _ := c.Deps.Store.GetDailyFeeSpentMojosUTC(ctx)
	allowed, overflow := ladder.PartitionPlansByBudget(plans, c.Program.CoinOpsSplitFeeMojos, c.Program.CoinOpsCombineFeeMojos, spentToday, c.Program.CoinOpsMaxDailyFeeBudgetMojos)

	receivePuzzleHash, _ := chia.AddressToPuzzleHash(market.ReceiveAddress)
	signer := SignerForKey(signerSelection, c.Program.AppNetwork, c.Deps.SignerCommand)

	var items []CoinOpExecutionItem
	for _, plan := range allowed {
		feePerOp := c.Program.CoinOpsSplitFeeMojos
		if plan.OpType == "combine" {
			feePerOp = c.Program.CoinOpsCombineFeeMojos
		}
		item := ExecuteCoinOpPlan(ctx, signer, c.Deps.Coinset, marketID, market.ReceiveAddress, receivePuzzleHash, plan, feePerOp*int64(plan.OpCount), c.Program.RuntimeDryRun)
		if item.Status != "executed" {
			item.FeeMojos = 0
		}
		items = append(items, item)
	}
	if len(overflow) > 0 {
		c.Deps.Store.AddAuditEvent(ctx, "coin_ops_partial_or_skipped_fee_budget", map[string]any{
			"market_id":                  marketID,
			"spent_today_mojos":          spentToday,
			"projected_mojos":            projectedFee,
			"max_daily_fee_budget_mojos": c.Program.CoinOpsMaxDailyFeeBudgetMojos,
			"overflow_plans":             overflowPlansPayload(overflow),
		}, &marketID)
		for _, plan := range overflow {
			items = append(items, CoinOpExecutionItem{OpType: plan.OpType, SizeBaseUnits: plan.SizeBaseUnits, OpCount: plan.OpCount, Status: "skipped", Reason: "fee_budget_guard"})
		}
	}

	c.Deps.Store.AddAuditEvent(ctx, "coin_ops_plan", map[string]any{
		"market_id":          marketID,
		"projected_fee_mojos": projectedFee,
		"spent_today_mojos":  spentToday,
		"plans":              plansPayload(plans),
	}, &marketID)

	for _, item := range items {
		eventType := "coin_op_" + item.Status
		var operationID *string
		if item.OperationID != "" {
			id := item.OperationID
			operationID = &id
		}
		c.Deps.Store.AddAuditEvent(ctx, eventType, map[string]any{
			"market_id":      marketID,
			"op_type":        item.OpType,
			"size_base_units": item.SizeBaseUnits,
			"op_count":       item.OpCount,
			"reason":         item.Reason,
			"operation_id":   item.OperationID,
			"fee_mojos":      item.FeeMojos,
		}, &marketID)
		c.Deps.Store.AddCoinOpLedgerEntry(ctx, marketID, item.OpType, item.OpCount, item.FeeMojos, item.Status, item.Reason, operationID)
	}
}

func plansPayload(plans []ladder.CoinOpPlan) []map[string]any {
	out := make([]map[string]any, 0, len(plans))
	for _, p := range plans {
		out = append(out, map[string]any{"op_type": p.OpType, "size_base_units": p.SizeBaseUnits, "op_count": p.OpCount, "reason": p.Reason})
	}
	return out
}

func overflowPlansPayload(plans []ladder.CoinOpPlan) []map[string]any {
	return plansPayload(plans)
}
