package broadcast

import (
	"context"
	"testing"
	"time"
)

// fakeClock lets tests advance a virtual clock on every Sleep call
// instead of actually blocking, so phase-timeout behaviour is testable
// without slow tests.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.now = c.now.Add(d)
	return nil
}

type fakeCoinLister struct {
	callsBeforeHit int
	calls          int
	hitName        string
}

func (f *fakeCoinLister) ListCoinStates(ctx context.Context) ([]CoinState, error) {
	f.calls++
	if f.calls <= f.callsBeforeHit {
		return nil, nil
	}
	return []CoinState{{Name: f.hitName, State: pendingCoinState}}, nil
}

type fakeRecordFetcher struct {
	callsBeforeHit int
	calls          int
	confirmedAt    uint32
}

func (f *fakeRecordFetcher) GetCoinRecordByName(ctx context.Context, coinIDHex string) (map[string]any, error) {
	f.calls++
	if f.calls <= f.callsBeforeHit {
		return map[string]any{}, nil
	}
	return map[string]any{"confirmed_block_index": float64(f.confirmedAt)}, nil
}

type fakePeakFetcher struct {
	heights []uint32
	idx     int
}

func (f *fakePeakFetcher) PeakHeight(ctx context.Context) (uint32, error) {
	if f.idx >= len(f.heights) {
		return f.heights[len(f.heights)-1], nil
	}
	h := f.heights[f.idx]
	f.idx++
	return h, nil
}

func TestWaiterFullSequence(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	coins := &fakeCoinLister{callsBeforeHit: 1, hitName: "coin-a"}
	records := &fakeRecordFetcher{callsBeforeHit: 1, confirmedAt: 100}
	peaks := &fakePeakFetcher{heights: []uint32{100, 103, 106}}

	w := &Waiter{Coins: coins, Records: records, Peak: peaks, Sleep: clock.Sleep, Now: clock.Now}
	events, err := w.Wait(context.Background(), WaitParams{
		InitialCoinSet:   map[string]bool{},
		TimeoutS:         time.Hour,
		ReorgTimeoutS:    time.Hour,
		AdditionalBlocks: 6,
		PollInterval:     time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var types []string
	for _, e := range events {
		types = append(types, e.Type)
	}
	want := []string{"in_mempool", "tx_block_confirmed", "reorg_watch_started", "reorg_watch_complete"}
	if len(types) != len(want) {
		t.Fatalf("expected events %v, got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("event %d: got %q want %q", i, types[i], want[i])
		}
	}
}

func TestWaiterMempoolTimeout(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	coins := &fakeCoinLister{callsBeforeHit: 1000, hitName: "coin-a"}

	w := &Waiter{Coins: coins, Sleep: clock.Sleep, Now: clock.Now}
	_, err := w.Wait(context.Background(), WaitParams{
		InitialCoinSet: map[string]bool{},
		TimeoutS:       5 * time.Second,
		PollInterval:   time.Second,
	})
	if err == nil {
		t.Fatalf("expected mempool wait timeout error")
	}
}

func TestWaiterIgnoresCoinsInInitialSet(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	coins := &staticCoinLister{states: []CoinState{{Name: "already-known", State: pendingCoinState}}}

	w := &Waiter{Coins: coins, Sleep: clock.Sleep, Now: clock.Now}
	_, err := w.Wait(context.Background(), WaitParams{
		InitialCoinSet: map[string]bool{"already-known": true},
		TimeoutS:       3 * time.Second,
		PollInterval:   time.Second,
	})
	if err == nil {
		t.Fatalf("expected timeout since the only pending coin is in the initial set")
	}
}

type staticCoinLister struct{ states []CoinState }

func (s *staticCoinLister) ListCoinStates(ctx context.Context) ([]CoinState, error) {
	return s.states, nil
}

func TestWaiterMempoolWarningEmitted(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	coins := &fakeCoinLister{callsBeforeHit: 4, hitName: "coin-a"}

	w := &Waiter{Coins: coins, Sleep: clock.Sleep, Now: clock.Now}
	var events []Event
	emit := func(e Event) { events = append(events, e) }
	evt, err := w.waitForMempool(context.Background(), WaitParams{
		InitialCoinSet:  map[string]bool{},
		MempoolWarningS: 2 * time.Second,
		TimeoutS:        time.Hour,
		PollInterval:    time.Second,
	}, emit)
	if err != nil {
		t.Fatalf("unexpected error, got %v", err)
	}
	if evt.Type != "in_mempool" {
		t.Fatalf("expected in_mempool event, got %+v", evt)
	}
	found := false
	for _, e := range events {
		if e.Type == "mempool_wait_warning" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a mempool_wait_warning event, got %+v", events)
	}
}
