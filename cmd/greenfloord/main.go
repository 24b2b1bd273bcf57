// Command greenfloord runs the GreenFloor market-making daemon, ported
// from original_source/greenfloor/daemon/main.py's run_once/_run_loop/main.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/hoffmang9/greenfloor/internal/api"
	"github.com/hoffmang9/greenfloor/internal/coinset"
	"github.com/hoffmang9/greenfloor/internal/config"
	"github.com/hoffmang9/greenfloor/internal/daemon"
	"github.com/hoffmang9/greenfloor/internal/notify"
	"github.com/hoffmang9/greenfloor/internal/price"
	"github.com/hoffmang9/greenfloor/internal/retry"
	"github.com/hoffmang9/greenfloor/internal/store"
	"github.com/hoffmang9/greenfloor/internal/venue"
)

func main() {
	programConfigPath := flag.String("program-config", "config/program.yaml", "Path to program.yaml")
	marketsConfigPath := flag.String("markets-config", "config/markets.yaml", "Path to markets.yaml")
	keyIDs := flag.String("key-ids", "", "Comma-separated signer key IDs allowed for this daemon instance")
	once := flag.Bool("once", false, "Run one evaluation cycle and exit")
	stateDBOverride := flag.String("state-db", "", "Optional explicit SQLite state DB path")
	coinsetBaseURL := flag.String("coinset-base-url", "https://coinset.org", "Coinset API base URL")
	stateDir := flag.String("state-dir", ".greenfloor/state", "State directory used for reload marker and daemon-local state")
	adminListenAddr := flag.String("admin-listen-addr", ":8081", "Listen address for the read-only admin HTTP surface (empty disables it)")
	flag.Parse()

	allowedKeys := parseAllowedKeys(*keyIDs)

	if *once {
		summary, err := runOnce(*programConfigPath, *marketsConfigPath, allowedKeys, *stateDBOverride, *coinsetBaseURL, *stateDir)
		if err != nil {
			log.Fatalf("greenfloord: %v", err)
		}
		logSummary(summary)
		return
	}
	if err := runLoop(*programConfigPath, *marketsConfigPath, allowedKeys, *stateDBOverride, *coinsetBaseURL, *stateDir, *adminListenAddr); err != nil {
		log.Fatalf("greenfloord: %v", err)
	}
}

func parseAllowedKeys(raw string) map[string]bool {
	parts := strings.Split(raw, ",")
	var out map[string]bool
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if out == nil {
			out = make(map[string]bool)
		}
		out[p] = true
	}
	return out
}

func logSummary(summary daemon.Summary) {
	log.Printf("greenfloord: cycle complete in %dms, markets=%d planned=%d executed=%d errors=%d",
		summary.DurationMS, summary.MarketsProcessed, summary.StrategyPlannedTotal, summary.StrategyExecutedTotal, summary.ErrorCount)
}

// runOnce mirrors run_once: fresh config load, fresh store handle, one
// Cycle.Run, then close.
func runOnce(programPath, marketsPath string, allowedKeys map[string]bool, dbOverride, coinsetBaseURL, stateDir string) (daemon.Summary, error) {
	program, err := config.LoadProgram(programPath)
	if err != nil {
		return daemon.Summary{}, err
	}
	markets, err := config.LoadMarkets(marketsPath)
	if err != nil {
		return daemon.Summary{}, err
	}

	st, err := openStore(program, dbOverride)
	if err != nil {
		return daemon.Summary{}, err
	}
	defer st.Close()

	cycle := buildCycle(program, markets, allowedKeys, coinsetBaseURL, st)
	return cycle.Run(context.Background())
}

// runLoop mirrors _run_loop: load program config once (for the
// webhook-enablement check), optionally start the coinset tx-block
// webhook listener and the read-only admin HTTP surface against their
// own store handles, then repeatedly call the equivalent of run_once —
// reloading program/markets config fresh every tick, exactly like the
// Python original — until interrupted.
func runLoop(programPath, marketsPath string, allowedKeys map[string]bool, dbOverride, coinsetBaseURL, stateDir, adminListenAddr string) error {
	program, err := config.LoadProgram(programPath)
	if err != nil {
		return err
	}

	var webhookServer *daemon.WebhookServer
	var webhookStore *store.Store
	if program.TxBlockWebhookEnabled {
		webhookStore, err = openStore(program, dbOverride)
		if err != nil {
			return err
		}
		webhookServer, err = daemon.StartCoinsetWebhookServer(program.TxBlockWebhookListenAddr, func(payload map[string]any) {
			webhookStore.AddAuditEvent(context.Background(), "coinset_tx_block_webhook", payload, nil)
			txIDs := daemon.ExtractTxIDs(payload)
			if len(txIDs) == 0 {
				return
			}
			confirmed, err := webhookStore.ConfirmTxIDs(context.Background(), txIDs)
			if err != nil {
				log.Printf("greenfloord: confirm tx ids: %v", err)
				return
			}
			webhookStore.AddAuditEvent(context.Background(), "tx_block_confirmed", map[string]any{
				"tx_ids":          txIDs,
				"confirmed_count": confirmed,
			}, nil)
		})
		if err != nil {
			webhookStore.Close()
			return err
		}
		log.Printf("greenfloord: coinset tx-block webhook listening on %s", program.TxBlockWebhookListenAddr)
	}
	defer func() {
		if webhookServer != nil {
			webhookServer.Shutdown()
		}
		if webhookStore != nil {
			webhookStore.Close()
		}
	}()

	var hub *api.Hub
	var adminStore *store.Store
	if strings.TrimSpace(adminListenAddr) != "" {
		adminStore, err = openStore(program, dbOverride)
		if err != nil {
			return err
		}
		hub = api.NewHub()
		go hub.Run()
		router := api.SetupRouter(adminStore, program.AppNetwork, hub)
		go func() {
			if err := router.Run(adminListenAddr); err != nil {
				log.Printf("greenfloord: admin HTTP surface stopped: %v", err)
			}
		}()
		log.Printf("greenfloord: admin HTTP surface listening on %s", adminListenAddr)
	}
	defer func() {
		if adminStore != nil {
			adminStore.Close()
		}
	}()

	intervalSeconds := program.RuntimeLoopIntervalSeconds
	if intervalSeconds < 1 {
		intervalSeconds = 1
	}

	for {
		summary, err := runOnce(programPath, marketsPath, allowedKeys, dbOverride, coinsetBaseURL, stateDir)
		if err != nil {
			log.Printf("greenfloord: cycle error: %v", err)
		} else {
			logSummary(summary)
			api.BroadcastCycleSummary(hub, summary)
		}
		if daemon.ConsumeReloadMarker(stateDir) {
			log.Println("greenfloord: config_reloaded")
		}
		time.Sleep(time.Duration(intervalSeconds) * time.Second)
	}
}

func openStore(program config.Program, dbOverride string) (*store.Store, error) {
	if strings.TrimSpace(dbOverride) != "" {
		return store.OpenAt(dbOverride)
	}
	return store.Open(program.HomeDir)
}

// buildCycle wires every Dependencies collaborator the same way
// run_once constructs its DexieAdapter/SplashAdapter/WalletAdapter/
// PriceAdapter/CoinsetAdapter: signer and offer-builder backends come
// from operator-configured subprocess commands (environment
// variables), matching adapters/wallet.py's and _build_offer_for_action's
// subprocess-first designs.
func buildCycle(program config.Program, markets config.Markets, allowedKeys map[string]bool, coinsetBaseURL string, st *store.Store) *daemon.Cycle {
	walletCmd := os.Getenv("GREENFLOOR_WALLET_EXECUTOR_CMD")
	offerBuilderCmd := os.Getenv("GREENFLOOR_OFFER_BUILDER_CMD")

	deps := daemon.Dependencies{
		Store:          st,
		Coinset:        coinset.New(coinsetBaseURL, program.AppNetwork),
		Dexie:          venue.NewDexieClient(program.DexieAPIBase),
		Splash:         venue.NewSplashClient(program.SplashAPIBase),
		Price:          price.NewFetcher(),
		Offers:         &daemon.ExternalCommandOfferBuilder{Command: offerBuilderCmd},
		SignerCommand:  walletCmd,
		AllowedKeyIDs:  allowedKeys,
		PostRetry:      retry.PostRetryConfigFromEnv(),
		CancelRetry:    retry.CancelRetryConfigFromEnv(),
		CancelMoveBPS:  retry.CancelMoveThresholdBPSFromEnv(),
		PostCooldown:   retry.NewCooldownTracker(),
		CancelCooldown: retry.NewCooldownTracker(),
	}
	if program.PushoverEnabled {
		deps.Pushover = notify.NewPushoverSender()
	}

	return &daemon.Cycle{
		Program: program,
		Markets: markets.Markets,
		Deps:    deps,
	}
}
