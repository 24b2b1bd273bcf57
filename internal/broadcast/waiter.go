// Package broadcast pushes a signed spend bundle to the indexer and
// drives the three-phase mempool -> confirmation -> reorg-watch sequence
// (spec §4.7), ported from signing.py's _broadcast_spend_bundle and
// daemon/main.py's mempool/offer-status polling loops.
package broadcast

import (
	"context"
	"strings"
	"time"

	"github.com/hoffmang9/greenfloor/internal/chia"
)

// Event is one lifecycle signal emitted while waiting on a broadcast
// spend bundle: in_mempool, mempool_wait_warning, tx_block_confirmed,
// confirmation_wait_warning, reorg_watch_started, reorg_watch_complete,
// reorg_watch_timeout.
type Event struct {
	Type       string
	CoinName   string
	BlockIndex uint32
	PeakHeight uint32
	CoinsetURL string
}

// CoinState is one entry from a wallet/vault's coin listing: just
// enough (name + pending/confirmed state) to detect a new coin
// appearing outside the set the waiter started from.
type CoinState struct {
	Name  string
	State string
}

// CoinStateLister mirrors cloud_wallet.py's list_coins: the node shape
// carries id/name/amount/state/puzzleHash/parentCoinName, but the
// waiter only needs name+state.
type CoinStateLister interface {
	ListCoinStates(ctx context.Context) ([]CoinState, error)
}

// CoinRecordFetcher mirrors coinset's get_coin_record_by_name, used in
// phase 2 to read back the confirmed block index.
type CoinRecordFetcher interface {
	GetCoinRecordByName(ctx context.Context, coinIDHex string) (map[string]any, error)
}

// PeakHeightFetcher mirrors coinset's get_blockchain_state peak height,
// used in phase 3's reorg watch.
type PeakHeightFetcher interface {
	PeakHeight(ctx context.Context) (uint32, error)
}

const pendingCoinState = "PENDING"

const defaultAdditionalBlocks = 6

// WaitParams configures one three-phase wait, named to match
// wait_for_mempool_then_confirmation's parameters in spec §4.7.
type WaitParams struct {
	InitialCoinSet       map[string]bool
	MempoolWarningS      time.Duration
	ConfirmationWarningS time.Duration
	TimeoutS             time.Duration
	AdditionalBlocks     uint32
	ReorgTimeoutS        time.Duration
	PollInterval         time.Duration
}

// Waiter drives the wait against injected coin-state/indexer/peak-height
// sources so the phase logic is testable without a live wallet or
// indexer. Sleep and Now are overridable for deterministic tests.
type Waiter struct {
	Coins   CoinStateLister
	Records CoinRecordFetcher
	Peak    PeakHeightFetcher
	Sleep   func(ctx context.Context, d time.Duration) error
	Now     func() time.Time
}

func (w *Waiter) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

func (w *Waiter) sleep(ctx context.Context, d time.Duration) error {
	if w.Sleep != nil {
		return w.Sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (w *Waiter) pollInterval(p WaitParams) time.Duration {
	if p.PollInterval > 0 {
		return p.PollInterval
	}
	return 2 * time.Second
}

// Wait runs phase 1 (mempool), phase 2 (first confirmation), and phase
// 3 (reorg watch) in sequence, returning every event emitted along the
// way. It stops and returns an error at the first phase that times out.
func (w *Waiter) Wait(ctx context.Context, p WaitParams) ([]Event, error) {
	var events []Event
	emit := func(e Event) { events = append(events, e) }

	additionalBlocks := p.AdditionalBlocks
	if additionalBlocks == 0 {
		additionalBlocks = defaultAdditionalBlocks
	}

	mempoolEvt, err := w.waitForMempool(ctx, p, emit)
	if err != nil {
		return events, err
	}
	emit(mempoolEvt)

	confirmEvt, err := w.waitForConfirmation(ctx, p, mempoolEvt.CoinName, emit)
	if err != nil {
		return events, err
	}
	emit(confirmEvt)

	if err := w.waitForReorgSafety(ctx, p, confirmEvt.BlockIndex, additionalBlocks, emit); err != nil {
		return events, err
	}
	return events, nil
}

func (w *Waiter) waitForMempool(ctx context.Context, p WaitParams, emit func(Event)) (Event, error) {
	start := w.now()
	warned := false
	for {
		if err := ctx.Err(); err != nil {
			return Event{}, err
		}
		if w.Coins != nil {
			states, err := w.Coins.ListCoinStates(ctx)
			if err == nil {
				for _, s := range states {
					if p.InitialCoinSet[s.Name] {
						continue
					}
					if strings.EqualFold(s.State, pendingCoinState) {
						return Event{Type: "in_mempool", CoinName: s.Name, CoinsetURL: coinsetURL(s.Name)}, nil
					}
				}
			}
		}
		elapsed := w.now().Sub(start)
		if !warned && p.MempoolWarningS > 0 && elapsed >= p.MempoolWarningS {
			warned = true
			emit(Event{Type: "mempool_wait_warning"})
		}
		if p.TimeoutS > 0 && elapsed >= p.TimeoutS {
			return Event{}, chia.ErrMempoolWaitTimeout
		}
		if err := w.sleep(ctx, w.pollInterval(p)); err != nil {
			return Event{}, err
		}
	}
}

func (w *Waiter) waitForConfirmation(ctx context.Context, p WaitParams, coinName string, emit func(Event)) (Event, error) {
	start := w.now()
	warned := false
	for {
		if err := ctx.Err(); err != nil {
			return Event{}, err
		}
		if w.Records != nil {
			record, err := w.Records.GetCoinRecordByName(ctx, coinName)
			if err == nil && record != nil {
				if height, ok := confirmedHeightFromRecord(record); ok {
					return Event{Type: "tx_block_confirmed", CoinName: coinName, BlockIndex: height}, nil
				}
			}
		}
		elapsed := w.now().Sub(start)
		if !warned && p.ConfirmationWarningS > 0 && elapsed >= p.ConfirmationWarningS {
			warned = true
			emit(Event{Type: "confirmation_wait_warning", CoinName: coinName})
		}
		if p.TimeoutS > 0 && elapsed >= p.TimeoutS {
			return Event{}, chia.ErrConfirmationWaitTimeout
		}
		if err := w.sleep(ctx, w.pollInterval(p)); err != nil {
			return Event{}, err
		}
	}
}

func (w *Waiter) waitForReorgSafety(ctx context.Context, p WaitParams, confirmedHeight uint32, additionalBlocks uint32, emit func(Event)) error {
	emit(Event{Type: "reorg_watch_started", BlockIndex: confirmedHeight})
	start := w.now()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if w.Peak != nil {
			peak, err := w.Peak.PeakHeight(ctx)
			if err == nil && peak >= confirmedHeight && peak-confirmedHeight >= additionalBlocks {
				emit(Event{Type: "reorg_watch_complete", BlockIndex: confirmedHeight, PeakHeight: peak})
				return nil
			}
		}
		if p.ReorgTimeoutS > 0 && w.now().Sub(start) >= p.ReorgTimeoutS {
			emit(Event{Type: "reorg_watch_timeout", BlockIndex: confirmedHeight})
			return chia.ErrReorgWatchTimeout
		}
		if err := w.sleep(ctx, w.pollInterval(p)); err != nil {
			return err
		}
	}
}

// confirmedHeightFromRecord reads the coinset CoinRecord's
// confirmed_block_index field, treating a zero/missing value as
// "not yet confirmed" rather than block 0.
func confirmedHeightFromRecord(record map[string]any) (uint32, bool) {
	v, ok := record["confirmed_block_index"]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	if !ok || f <= 0 {
		return 0, false
	}
	return uint32(f), true
}

// coinsetURL builds the deep-link spec §4.7 mentions alongside the
// in_mempool event, to the coinset.org coin explorer.
func coinsetURL(coinNameHex string) string {
	if coinNameHex == "" {
		return ""
	}
	return "https://www.coinset.org/coins/" + strings.TrimPrefix(coinNameHex, "0x")
}
