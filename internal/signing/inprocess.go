package signing

import (
	"github.com/hoffmang9/greenfloor/internal/chia"
	"github.com/hoffmang9/greenfloor/internal/keys"
)

// InProcessSigner builds and signs entirely within this process, using
// a keys.Provider bound to the market's resolved master secret key
// (spec §9's Signer variant 1).
type InProcessSigner struct {
	Provider *keys.Provider
	Runner   chia.PuzzleRunner
	Network  chia.Network
}

func (s *InProcessSigner) Sign(req SignRequest) (SignResult, error) {
	var selectedTotal uint64
	for _, c := range req.SelectedCoins {
		selectedTotal += c.Amount
	}

	additions, err := BuildAdditionsFromPlan(req.OpType, req.SizeBaseUnits, req.OpCount, req.TargetTotalUnits, selectedTotal, req.ReceivePuzzleHash)
	if err != nil {
		return SignResult{Status: "skipped", Reason: err.Error()}, nil
	}

	bundle, err := BuildSpendBundle(s.Provider, s.Runner, s.Network, req.SelectedCoins, additions)
	if err != nil {
		return SignResult{Status: "skipped", Reason: err.Error()}, nil
	}

	return SignResult{Status: "executed", Reason: "in_process_signer_success", SpendBundleHex: encodeSpendBundleHex(bundle)}, nil
}

// encodeSpendBundleHex is the canonical wire encoding spec §6 names:
// hex of the spend bundle's coin spends plus its aggregated
// signature, concatenated in coin-spend order. The real consensus
// serialization is a CLVM-shaped byte encoding that belongs behind
// chia.PuzzleRunner's boundary; this is the plain structural encoding
// used wherever this codebase round-trips its own spend bundles
// (store, broadcast, tests).
func encodeSpendBundleHex(bundle chia.SpendBundle) string {
	var out []byte
	for _, spend := range bundle.CoinSpends {
		out = append(out, spend.Coin.ParentID[:]...)
		out = append(out, spend.Coin.PuzzleHash[:]...)
		out = append(out, beUint64(spend.Coin.Amount)...)
		out = append(out, lengthPrefixed(spend.PuzzleReveal)...)
		out = append(out, lengthPrefixed(spend.Solution)...)
	}
	out = append(out, bundle.AggregatedSignature[:]...)
	return chia.ToHex(out)
}

func lengthPrefixed(b []byte) []byte {
	out := make([]byte, 4+len(b))
	copy(out, beUint64(uint64(len(b)))[4:8])
	copy(out[4:], b)
	return out
}
