// Package lifecycle implements the offer lifecycle FSM (spec §4.8): a
// tagged state machine over individual offers with signal→transition
// rules. Ported literally from
// original_source/greenfloor/core/offer_lifecycle.py's apply_offer_signal.
package lifecycle

type State string

const (
	Open              State = "open"
	MempoolObserved    State = "mempool_observed"
	TxBlockConfirmed   State = "tx_block_confirmed"
	RefreshDue         State = "refresh_due"
	Expired            State = "expired"
	Cancelled          State = "cancelled"          // reconciliation-only terminal state
	UnknownOrphaned    State = "unknown_orphaned"    // reconciliation-only terminal state
)

type Signal string

const (
	MempoolSeen   Signal = "mempool_seen"
	TxConfirmed   Signal = "tx_confirmed"
	ExpiryNear    Signal = "expiry_near"
	RefreshPosted Signal = "refresh_posted"
	ExpiredSignal Signal = "expired"
)

// Transition is the result of applying a signal to a state.
type Transition struct {
	From   State
	Signal Signal
	To     State
	Action string
	Reason string
}

type transitionKey struct {
	from   State
	signal Signal
}

// table is the literal (state, signal) -> transition map from spec §4.8.
var table = map[transitionKey]Transition{
	{Open, MempoolSeen}: {
		To: MempoolObserved, Action: "mark_mempool_observed", Reason: "potential_take_seen",
	},
	{Open, TxConfirmed}: {
		To: TxBlockConfirmed, Action: "reconcile_coins_and_offers", Reason: "take_confirmed_on_tx_block",
	},
	{MempoolObserved, TxConfirmed}: {
		To: TxBlockConfirmed, Action: "reconcile_coins_and_offers", Reason: "take_confirmed_on_tx_block",
	},
	{Open, ExpiryNear}: {
		To: RefreshDue, Action: "refresh_offer", Reason: "refresh_window_entered",
	},
	{RefreshDue, RefreshPosted}: {
		To: Open, Action: "track_new_offer_open", Reason: "offer_refreshed",
	},
	{Open, ExpiredSignal}: {
		To: Expired, Action: "cleanup_offer_state", Reason: "offer_expired",
	},
	{RefreshDue, ExpiredSignal}: {
		To: Expired, Action: "cleanup_offer_state", Reason: "offer_expired",
	},
}

// Apply computes the transition for (state, signal). Any (state, signal)
// pair not in the table is a no-op: state is unchanged, reason is
// "signal_ignored_for_state".
func Apply(state State, signal Signal) Transition {
	if t, ok := table[transitionKey{state, signal}]; ok {
		t.From = state
		t.Signal = signal
		return t
	}
	return Transition{
		From: state, Signal: signal, To: state,
		Action: "", Reason: "signal_ignored_for_state",
	}
}

// SignalForVenueStatus maps the venue's integer offer status to a signal
// per spec §4.8's canonical mapping. status 3 should instead be written
// directly as Cancelled by the caller (no signal involved); ok is false in
// that case and for the 404-lookup case, which the caller handles as
// UnknownOrphaned directly.
func SignalForVenueStatus(status int, currentState State) (Signal, bool) {
	switch status {
	case 4:
		return TxConfirmed, true
	case 6:
		return ExpiredSignal, true
	case 3:
		return "", false
	case 0, 1, 2, 5:
		if isTerminal(currentState) {
			return "", false
		}
		return MempoolSeen, true
	default:
		return "", false
	}
}

func isTerminal(s State) bool {
	return s == Expired || s == Cancelled || s == UnknownOrphaned
}
