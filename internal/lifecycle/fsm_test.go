package lifecycle

import "testing"

// Scenario 3 from spec §8.
func TestApplyOfferSignalScenarios(t *testing.T) {
	cases := []struct {
		name   string
		from   State
		signal Signal
		want   State
	}{
		{"open+mempool_seen", Open, MempoolSeen, MempoolObserved},
		{"mempool_observed+tx_confirmed", MempoolObserved, TxConfirmed, TxBlockConfirmed},
		{"open+expiry_near", Open, ExpiryNear, RefreshDue},
		{"refresh_due+refresh_posted", RefreshDue, RefreshPosted, Open},
		{"expired+expired noop", Expired, ExpiredSignal, Expired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Apply(tc.from, tc.signal)
			if got.To != tc.want {
				t.Fatalf("Apply(%s, %s) = %s, want %s", tc.from, tc.signal, got.To, tc.want)
			}
		})
	}
}

func TestApplyUnlistedPairIsNoop(t *testing.T) {
	got := Apply(TxBlockConfirmed, MempoolSeen)
	if got.To != TxBlockConfirmed {
		t.Fatalf("expected unchanged state, got %s", got.To)
	}
	if got.Reason != "signal_ignored_for_state" {
		t.Fatalf("expected signal_ignored_for_state reason, got %s", got.Reason)
	}
}

func TestSignalForVenueStatus(t *testing.T) {
	if s, ok := SignalForVenueStatus(4, Open); !ok || s != TxConfirmed {
		t.Fatalf("status 4 should map to tx_confirmed, got %v %v", s, ok)
	}
	if s, ok := SignalForVenueStatus(6, Open); !ok || s != ExpiredSignal {
		t.Fatalf("status 6 should map to expired, got %v %v", s, ok)
	}
	if _, ok := SignalForVenueStatus(3, Open); ok {
		t.Fatalf("status 3 should not produce a signal (direct cancelled write)")
	}
	if s, ok := SignalForVenueStatus(0, Open); !ok || s != MempoolSeen {
		t.Fatalf("status 0 should map to mempool_seen, got %v %v", s, ok)
	}
	if _, ok := SignalForVenueStatus(0, Expired); ok {
		t.Fatalf("status 0 on a terminal state should not produce a signal")
	}
}
