// Package signing implements the spend-bundle builder & signer (spec
// §4.6): turning a coin-op plan or offer into a signed SpendBundle
// via a pluggable Signer backend (spec §9's "Pluggable signer
// backends" design note).
package signing

import "github.com/hoffmang9/greenfloor/internal/chia"

// Addition is one output a built spend bundle creates, ported from
// _build_additions_from_plan's {"address", "amount"} shape.
type Addition struct {
	PuzzleHash [32]byte
	Amount     uint64
}

// BuildAdditionsFromPlan expands a ladder.CoinOpPlan-shaped request
// into the additions a spend bundle must create: op_count coins of
// size_base_units, plus a single change addition for any remainder
// above target_total_base_units. Literal port of
// signing.py's _build_additions_from_plan.
func BuildAdditionsFromPlan(opType string, sizeBaseUnits uint64, opCount int, targetTotalBaseUnits uint64, selectedTotal uint64, receivePuzzleHash [32]byte) ([]Addition, error) {
	if opType != "split" && opType != "combine" {
		return nil, chia.Tag("unsupported_operation_type", nil)
	}
	if targetTotalBaseUnits == 0 && sizeBaseUnits > 0 && opCount > 0 {
		targetTotalBaseUnits = sizeBaseUnits * uint64(opCount)
	}
	if sizeBaseUnits == 0 || opCount <= 0 || targetTotalBaseUnits == 0 {
		return nil, chia.Tag("invalid_plan_values", nil)
	}
	if selectedTotal < targetTotalBaseUnits {
		return nil, chia.Tag("insufficient_selected_coin_total", nil)
	}

	additions := make([]Addition, 0, opCount+1)
	for i := 0; i < opCount; i++ {
		additions = append(additions, Addition{PuzzleHash: receivePuzzleHash, Amount: sizeBaseUnits})
	}
	if change := selectedTotal - targetTotalBaseUnits; change > 0 {
		additions = append(additions, Addition{PuzzleHash: receivePuzzleHash, Amount: change})
	}
	return additions, nil
}
