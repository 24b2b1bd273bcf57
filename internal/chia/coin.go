package chia

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"
)

// Coin is the UTXO model's base entity: spec §3.
type Coin struct {
	ParentID   [32]byte
	PuzzleHash [32]byte
	Amount     uint64
}

// ID returns the coin's derived identity: SHA256(parent_id ∥ puzzle_hash ∥ u64_be(amount)).
//
// crypto/sha256 is used directly rather than the teacher's
// btcsuite/btcd/chaincfg/chainhash: chainhash computes Bitcoin's
// double-SHA256 with a reversed display byte order, which would silently
// produce the wrong coin id for this single-SHA256, big-endian domain.
func (c Coin) ID() [32]byte {
	var buf [72]byte
	copy(buf[0:32], c.ParentID[:])
	copy(buf[32:64], c.PuzzleHash[:])
	binary.BigEndian.PutUint64(buf[64:72], c.Amount)
	return sha256.Sum256(buf[:])
}

// CoinRecord wraps a Coin with the indexer's spend status (spec §3).
type CoinRecord struct {
	Coin            Coin
	SpentBlockIndex uint32 // 0 => unspent
}

func (r CoinRecord) Unspent() bool { return r.SpentBlockIndex == 0 }

// SpendableStates is the allowlist of indexer/wallet coin-record states
// treated as spendable, adopted verbatim from the source per spec §9's
// open question on indexer/wallet "spendable" semantics.
var SpendableStates = map[string]bool{
	"CONFIRMED":  true,
	"UNSPENT":    true,
	"SPENDABLE":  true,
	"AVAILABLE":  true,
	"SETTLED":    true,
}

// CoinSpend is one element of a SpendBundle: spec §3.
type CoinSpend struct {
	Coin         Coin
	PuzzleReveal []byte
	Solution     []byte
}

// SpendBundle aggregates coin spends under a single BLS signature: spec §3.
type SpendBundle struct {
	CoinSpends          []CoinSpend
	AggregatedSignature [96]byte
}

// CatInfo describes a CAT coin's inner puzzle, per spec §9's "Coin/puzzle
// graph" design note: CatCoin = { coin, info }, no back-pointers.
type CatInfo struct {
	AssetID       [32]byte
	InnerPuzzleHash [32]byte
}

type CatCoin struct {
	Coin Coin
	Info CatInfo
}

// HexToBytes32 decodes a 32-byte hex string, accepting an optional
// "0x" prefix on input per spec §6's wire-format rule; output is always
// produced without a prefix by ToHex.
func HexToBytes32(s string) ([32]byte, error) {
	var out [32]byte
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, Tag("invalid_hex", err)
	}
	if len(b) != 32 {
		return out, Tagf("invalid_hex_length", "expected 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}

func ToHex(b []byte) string {
	return hex.EncodeToString(b)
}
