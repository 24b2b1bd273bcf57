package daemon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hoffmang9/greenfloor/internal/config"
	"github.com/hoffmang9/greenfloor/internal/retry"
	"github.com/hoffmang9/greenfloor/internal/store"
	"github.com/hoffmang9/greenfloor/internal/venue"
)

type fakeCycleIndexer struct{}

func (fakeCycleIndexer) GetCoinRecordsByPuzzleHash(ctx context.Context, puzzleHashHex string, includeSpent bool) ([]map[string]any, error) {
	return nil, nil
}
func (fakeCycleIndexer) GetCoinRecordByName(ctx context.Context, coinNameHex string) (map[string]any, error) {
	return nil, nil
}
func (fakeCycleIndexer) GetPuzzleAndSolution(ctx context.Context, coinIDHex string, height *uint32) (map[string]any, error) {
	return nil, nil
}
func (fakeCycleIndexer) GetAllMempoolTxIDs(ctx context.Context) ([]string, error) {
	return []string{"tx1", "tx2"}, nil
}
func (fakeCycleIndexer) PushTx(ctx context.Context, spendBundleHex string) (map[string]any, error) {
	return map[string]any{"success": true}, nil
}

type fakeCyclePriceFetcher struct{ price float64 }

func (f fakeCyclePriceFetcher) GetXCHPriceUSD(ctx context.Context) (float64, error) {
	return f.price, nil
}

type fakeCycleOfferBuilder struct{}

func (fakeCycleOfferBuilder) BuildOffer(ctx context.Context, req OfferBuildRequest) (OfferBuildResult, error) {
	return OfferBuildResult{Status: "executed", Reason: "offer_builder_success", Offer: "offer1qqz..."}, nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testProgram() config.Program {
	return config.Program{
		AppNetwork:                        "mainnet",
		OfferPublishVenue:                 "dexie",
		CoinOpsMaxOperationsPerRun:        5,
		CoinOpsMaxDailyFeeBudgetMojos:     0,
		CoinOpsSplitFeeMojos:              1_000_000,
		CoinOpsCombineFeeMojos:            1_000_000,
		LowInventoryEnabled:               true,
		LowInventoryDefaultThresholdUnits: 2,
		LowInventoryDedupCooldownSeconds:  3600,
		LowInventoryClearHysteresisPct:    20,
	}
}

func TestCycleRunPostsPlannedOfferForUnderTargetMarket(t *testing.T) {
	dexie := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			w.Write([]byte(`{"offers": []}`))
		case r.Method == http.MethodPost:
			w.Write([]byte(`{"success": true, "id": "offer-abc"}`))
		}
	}))
	defer dexie.Close()

	st := newTestStore(t)
	market := config.Market{
		MarketID:       "xch-usdc",
		Enabled:        true,
		BaseAsset:      "xch",
		BaseSymbol:     "XCH",
		QuoteAsset:     "usdc",
		QuoteAssetType: "stable",
		ReceiveAddress: "xch1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqq2ez78y",
		SignerKeyID:    "farmer-1",
		Inventory: config.MarketInventory{
			CurrentAvailableBaseUnits: 1000,
			BucketCounts:              map[int64]int{1: 0, 10: 0, 100: 0},
		},
		Pricing: map[string]any{},
		Ladders: map[string][]config.LadderEntry{
			"sell": {
				{SizeBaseUnits: 1, TargetCount: 1, SplitBufferCount: 1, CombineWhenExcessFactor: 2},
				{SizeBaseUnits: 10, TargetCount: 0, SplitBufferCount: 0, CombineWhenExcessFactor: 2},
				{SizeBaseUnits: 100, TargetCount: 0, SplitBufferCount: 0, CombineWhenExcessFactor: 2},
			},
		},
	}

	cycle := &Cycle{
		Program: testProgram(),
		Markets: []config.Market{market},
		Deps: Dependencies{
			Store:         st,
			Coinset:       fakeCycleIndexer{},
			Dexie:         venue.NewDexieClient(dexie.URL),
			Price:         fakeCyclePriceFetcher{price: 25},
			Offers:        fakeCycleOfferBuilder{},
			AllowedKeyIDs: map[string]bool{"farmer-1": true},
			PostRetry:     retry.Config{AttemptsMax: 1, BackoffMS: 0, CooldownSeconds: 30},
			CancelRetry:   retry.Config{AttemptsMax: 1, BackoffMS: 0, CooldownSeconds: 30},
			CancelMoveBPS: 150,
			PostCooldown:   retry.NewCooldownTracker(),
			CancelCooldown: retry.NewCooldownTracker(),
			Now:            func() time.Time { return time.Unix(1700000000, 0) },
		},
	}

	summary, err := cycle.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.MarketsProcessed != 1 {
		t.Fatalf("expected 1 market processed, got %d", summary.MarketsProcessed)
	}
	if summary.StrategyPlannedTotal != 1 || summary.StrategyExecutedTotal != 1 {
		t.Fatalf("expected one planned+executed offer, got %+v", summary)
	}

	rows, err := st.ListOfferStates(context.Background(), "xch-usdc", 10)
	if err != nil {
		t.Fatalf("list offer states: %v", err)
	}
	if len(rows) != 1 || rows[0].OfferID != "offer-abc" {
		t.Fatalf("expected offer-abc to be tracked, got %+v", rows)
	}
}

func TestCycleRunSkipsDisabledMarket(t *testing.T) {
	st := newTestStore(t)
	cycle := &Cycle{
		Program: testProgram(),
		Markets: []config.Market{{MarketID: "disabled-market", Enabled: false}},
		Deps: Dependencies{
			Store:          st,
			Coinset:        fakeCycleIndexer{},
			Dexie:          venue.NewDexieClient("http://unused.invalid"),
			Price:          fakeCyclePriceFetcher{price: 25},
			Offers:         fakeCycleOfferBuilder{},
			PostRetry:      retry.Config{AttemptsMax: 1},
			CancelRetry:    retry.Config{AttemptsMax: 1},
			PostCooldown:   retry.NewCooldownTracker(),
			CancelCooldown: retry.NewCooldownTracker(),
			Now:            func() time.Time { return time.Unix(1700000000, 0) },
		},
	}

	summary, err := cycle.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.MarketsProcessed != 0 {
		t.Fatalf("expected disabled market to be skipped, got %+v", summary)
	}
}
