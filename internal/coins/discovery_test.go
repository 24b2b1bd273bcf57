package coins

import (
	"context"
	"testing"

	"github.com/hoffmang9/greenfloor/internal/chia"
)

type fakeIndexer struct {
	byPuzzleHash map[string][]map[string]any
	byName       map[string]map[string]any
	solutions    map[string]map[string]any
}

func (f *fakeIndexer) GetCoinRecordsByPuzzleHash(ctx context.Context, puzzleHashHex string, includeSpent bool) ([]map[string]any, error) {
	return f.byPuzzleHash[puzzleHashHex], nil
}

func (f *fakeIndexer) GetCoinRecordByName(ctx context.Context, coinNameHex string) (map[string]any, error) {
	return f.byName[coinNameHex], nil
}

func (f *fakeIndexer) GetPuzzleAndSolution(ctx context.Context, coinIDHex string, height *uint32) (map[string]any, error) {
	return f.solutions[coinIDHex], nil
}

func recordFor(c chia.Coin, spentBlockIndex float64) map[string]any {
	return map[string]any{
		"coin": map[string]any{
			"parent_coin_info": "0x" + chia.ToHex(c.ParentID[:]),
			"puzzle_hash":      "0x" + chia.ToHex(c.PuzzleHash[:]),
			"amount":           float64(c.Amount),
		},
		"spent_block_index": spentBlockIndex,
	}
}

func TestListUnspentXCH(t *testing.T) {
	target := chia.Coin{ParentID: [32]byte{1}, PuzzleHash: [32]byte{2}, Amount: 42}
	puzzleHashHex := "0x" + chia.ToHex(target.PuzzleHash[:])
	idx := &fakeIndexer{byPuzzleHash: map[string][]map[string]any{
		puzzleHashHex: {recordFor(target, 0)},
	}}
	got := ListUnspentXCH(context.Background(), idx, target.PuzzleHash)
	if len(got) != 1 || got[0].Amount != 42 {
		t.Fatalf("expected one coin of amount 42, got %+v", got)
	}
}

func TestListUnspentXCHEmptyOnIndexerMiss(t *testing.T) {
	idx := &fakeIndexer{byPuzzleHash: map[string][]map[string]any{}}
	got := ListUnspentXCH(context.Background(), idx, [32]byte{9})
	if len(got) != 0 {
		t.Fatalf("expected no coins for unknown puzzle hash, got %+v", got)
	}
}

type fakeRunner struct {
	catPuzzleHash [32]byte
	conditions    []chia.Condition
}

func (r *fakeRunner) Run(puzzleReveal, solution []byte) ([]chia.Condition, error) {
	return r.conditions, nil
}
func (r *fakeRunner) WrapStandardSpend(pk []byte, conditions []chia.Condition) ([]byte, []byte, error) {
	return nil, nil, nil
}
func (r *fakeRunner) CatPuzzleHash(assetID, innerPuzzleHash [32]byte) [32]byte { return r.catPuzzleHash }
func (r *fakeRunner) StandardPuzzleHash(pk []byte) [32]byte                    { return [32]byte{} }
func (r *fakeRunner) EncodeOffer(input chia.SpendBundle, requested []chia.NotarizedPayment) (chia.SpendBundle, error) {
	return chia.SpendBundle{}, nil
}

func TestListUnspentCATProvenanceWalk(t *testing.T) {
	assetID := [32]byte{7}
	innerPuzzleHash := [32]byte{8}
	catPuzzleHash := [32]byte{9}

	parent := chia.Coin{ParentID: [32]byte{1}, PuzzleHash: [32]byte{3}, Amount: 100}
	child := chia.Coin{ParentID: parent.ID(), PuzzleHash: catPuzzleHash, Amount: 30}

	parentIDHex := "0x" + chia.ToHex(parent.ParentID[:])
	catPuzzleHashHex := "0x" + chia.ToHex(catPuzzleHash[:])
	childParentIDHex := "0x" + chia.ToHex(child.ParentID[:])

	runner := &fakeRunner{
		catPuzzleHash: catPuzzleHash,
		conditions: []chia.Condition{
			{Opcode: chia.CreateCoin, Args: [][]byte{child.PuzzleHash[:], beAmount(child.Amount)}},
		},
	}

	idx := &fakeIndexer{
		byPuzzleHash: map[string][]map[string]any{
			catPuzzleHashHex: {recordFor(child, 0)},
		},
		byName: map[string]map[string]any{
			childParentIDHex: recordFor(parent, 55),
		},
		solutions: map[string]map[string]any{
			"0x" + chia.ToHex(parent.ID()[:]): {
				"puzzle_reveal": "0xaa",
				"solution":      "0xbb",
			},
		},
	}
	_ = parentIDHex

	got := ListUnspentCAT(context.Background(), idx, runner, assetID, innerPuzzleHash)
	if len(got) != 1 || got[0].Coin.Amount != 30 {
		t.Fatalf("expected one provenance-confirmed cat coin of amount 30, got %+v", got)
	}
}

func beAmount(amount uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(amount)
		amount >>= 8
	}
	return b
}
