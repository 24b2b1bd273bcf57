// Package coins implements coin discovery and selection (spec §4.5):
// listing unspent XCH/CAT coins at a receive address and selecting a
// subset whose total covers a target amount.
package coins

import (
	"context"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/hoffmang9/greenfloor/internal/chia"
	"github.com/hoffmang9/greenfloor/internal/coinset"
)

// Indexer is the narrow coinset surface coin discovery needs,
// satisfied by *coinset.Client in production and a fake in tests.
type Indexer interface {
	GetCoinRecordsByPuzzleHash(ctx context.Context, puzzleHashHex string, includeSpent bool) ([]map[string]any, error)
	GetCoinRecordByName(ctx context.Context, coinNameHex string) (map[string]any, error)
	GetPuzzleAndSolution(ctx context.Context, coinIDHex string, height *uint32) (map[string]any, error)
}

var _ Indexer = (*coinset.Client)(nil)

// ListUnspentXCH lists unspent plain-XCH coins at puzzleHash, ported
// from signing.py's _list_unspent_xch_coins. Indexer errors degrade to
// an empty list, matching the Python's broad except-and-return-[].
func ListUnspentXCH(ctx context.Context, indexer Indexer, puzzleHash [32]byte) []chia.Coin {
	records, err := indexer.GetCoinRecordsByPuzzleHash(ctx, "0x"+chia.ToHex(puzzleHash[:]), false)
	if err != nil {
		return nil
	}
	var out []chia.Coin
	for _, record := range records {
		if coin, ok := coinFromRecord(record); ok {
			out = append(out, coin)
		}
	}
	return out
}

// ListUnspentCAT lists unspent CAT coins of assetID at innerPuzzleHash,
// walking each candidate's parent spend through runner to confirm
// provenance, ported from _list_unspent_cat_coins.
func ListUnspentCAT(ctx context.Context, indexer Indexer, runner chia.PuzzleRunner, assetID, innerPuzzleHash [32]byte) []chia.CatCoin {
	catPuzzleHash := runner.CatPuzzleHash(assetID, innerPuzzleHash)
	records, err := indexer.GetCoinRecordsByPuzzleHash(ctx, "0x"+chia.ToHex(catPuzzleHash[:]), false)
	if err != nil || len(records) == 0 {
		return nil
	}

	var out []chia.CatCoin
	for _, record := range records {
		coin, ok := coinFromRecord(record)
		if !ok {
			continue
		}
		parentRecord, err := indexer.GetCoinRecordByName(ctx, "0x"+chia.ToHex(coin.ParentID[:]))
		if err != nil || parentRecord == nil {
			continue
		}
		parentCoin, ok := coinFromRecord(parentRecord)
		if !ok {
			continue
		}
		parentSpentHeight := spentHeightFromRecord(parentRecord)
		if parentSpentHeight == 0 {
			continue
		}
		parentID := parentCoin.ID()
		solutionRecord, err := indexer.GetPuzzleAndSolution(ctx, "0x"+chia.ToHex(parentID[:]), &parentSpentHeight)
		if err != nil || solutionRecord == nil {
			continue
		}
		puzzleRevealHex, _ := solutionRecord["puzzle_reveal"].(string)
		solutionHex, _ := solutionRecord["solution"].(string)
		if puzzleRevealHex == "" || solutionHex == "" {
			continue
		}
		puzzleReveal, err1 := hexDecode(puzzleRevealHex)
		solution, err2 := hexDecode(solutionHex)
		if err1 != nil || err2 != nil {
			continue
		}

		conditions, err := runner.Run(puzzleReveal, solution)
		if err != nil {
			continue
		}
		if !childCoinIDPresent(conditions, parentCoin, coin) {
			continue
		}
		out = append(out, chia.CatCoin{
			Coin: coin,
			Info: chia.CatInfo{AssetID: assetID, InnerPuzzleHash: innerPuzzleHash},
		})
	}
	return out
}

// childCoinIDPresent checks whether the parent puzzle's CREATE_COIN
// conditions produced a child whose coin id matches target, the Go
// equivalent of parse_child_cats + the coin_id equality check in
// _list_unspent_cat_coins.
func childCoinIDPresent(conditions []chia.Condition, parent chia.Coin, target chia.Coin) bool {
	targetID := target.ID()
	for _, c := range conditions {
		if c.Opcode != chia.CreateCoin || len(c.Args) < 2 {
			continue
		}
		var puzzleHash [32]byte
		copy(puzzleHash[:], c.Args[0])
		amount := beToUint64(c.Args[1])
		child := chia.Coin{ParentID: parent.ID(), PuzzleHash: puzzleHash, Amount: amount}
		if child.ID() == targetID {
			return true
		}
	}
	return false
}

func beToUint64(b []byte) uint64 {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}

func coinFromRecord(record map[string]any) (chia.Coin, bool) {
	coinData, ok := record["coin"].(map[string]any)
	if !ok {
		return chia.Coin{}, false
	}
	parentHex, _ := coinData["parent_coin_info"].(string)
	puzzleHex, _ := coinData["puzzle_hash"].(string)
	if parentHex == "" || puzzleHex == "" {
		return chia.Coin{}, false
	}
	parentID, err := chia.HexToBytes32(parentHex)
	if err != nil {
		return chia.Coin{}, false
	}
	puzzleHash, err := chia.HexToBytes32(puzzleHex)
	if err != nil {
		return chia.Coin{}, false
	}
	amount := amountFromAny(coinData["amount"])
	return chia.Coin{ParentID: parentID, PuzzleHash: puzzleHash, Amount: amount}, true
}

func amountFromAny(v any) uint64 {
	switch n := v.(type) {
	case float64:
		return uint64(n)
	case int64:
		return uint64(n)
	case int:
		return uint64(n)
	default:
		return 0
	}
}

func spentHeightFromRecord(record map[string]any) uint32 {
	v, ok := record["spent_block_index"]
	if !ok {
		v = record["spent_height"]
	}
	switch n := v.(type) {
	case float64:
		return uint32(n)
	case int64:
		return uint32(n)
	case int:
		return uint32(n)
	default:
		return 0
	}
}

func hexDecode(s string) ([]byte, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimPrefix(raw, "0x")
	return hex.DecodeString(raw)
}

// SelectCoins implements select_coins: smallest-first, greedy
// accumulation until the running total covers targetAmount (spec §4.5).
// Returns nil if the full coin set cannot cover the target.
func SelectCoins(available []chia.Coin, targetAmount uint64) []chia.Coin {
	sorted := append([]chia.Coin(nil), available...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Amount < sorted[j].Amount })

	var selected []chia.Coin
	var running uint64
	for _, c := range sorted {
		selected = append(selected, c)
		running += c.Amount
		if running >= targetAmount {
			return selected
		}
	}
	return nil
}

// SelectCATCoins implements _select_cats: ascending-sort accumulate
// until the running total covers targetTotal.
func SelectCATCoins(available []chia.CatCoin, targetTotal uint64) []chia.CatCoin {
	sorted := append([]chia.CatCoin(nil), available...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Coin.Amount < sorted[j].Coin.Amount })

	var selected []chia.CatCoin
	var running uint64
	for _, c := range sorted {
		selected = append(selected, c)
		running += c.Coin.Amount
		if running >= targetTotal {
			return selected
		}
	}
	return nil
}
