package chia

import (
	"crypto/sha256"
	"encoding/hex"
)

// Network identifies which AGG_SIG_ME domain applies (spec §4.6/§6).
type Network string

const (
	Mainnet    Network = "mainnet"
	Testnet11  Network = "testnet11"
)

// AggSigDomain is the fixed 32-byte network-specific AGG_SIG_ME domain
// constant, appended to signed messages to prevent cross-network replay
// (spec §4.6/glossary). Values are spec.md's literal stated constants,
// taken as authoritative over original_source/greenfloor/signing.py's
// _AGG_SIG_ADDITIONAL_DATA_BY_NETWORK dict, whose "mainnet"/"testnet11"
// labels are swapped relative to the real Chia network constants.
var AggSigDomain = map[Network][32]byte{
	Mainnet:   mustHex32("ccd5bb71183532bff220ba46c268991a3ff07eb358e8255a65c30a2dce0e5fbb"),
	Testnet11: mustHex32("37a90eb5185a9c4439a91ddc98bbadce7b4feba060d50116a067de66bf236615"),
}

func mustHex32(s string) [32]byte {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 32 {
		panic("chia: bad AGG_SIG domain constant")
	}
	var out [32]byte
	copy(out[:], b)
	return out
}

// ConditionOpcode identifies a parsed CLVM condition's opcode: the
// AGG_SIG family plus the few non-AGG_SIG opcodes (CREATE_COIN) that
// coin discovery and spend-bundle building need to recognise.
type ConditionOpcode byte

const (
	AggSigMe     ConditionOpcode = 50
	AggSigUnsafe ConditionOpcode = 49
	AggSigParent ConditionOpcode = 43
	AggSigPuzzle ConditionOpcode = 45
	AggSigAmount ConditionOpcode = 46
	CreateCoin   ConditionOpcode = 51
)

// AggSigTarget is one (public key, message) pair a spend bundle's
// aggregate signature must cover (spec §4.6/§8).
type AggSigTarget struct {
	PublicKey []byte // 48-byte BLS public key
	Message   []byte
}

// BuildAggSigMessage constructs the final signed message for a condition
// found while running a coin's (puzzle_reveal, solution):
//
//   AGG_SIG_ME:     msg ∥ coin_id ∥ AGG_SIG_ME_DOMAIN[network]
//   AGG_SIG_UNSAFE: msg verbatim
//   otherwise:      msg ∥ coin_id ∥ SHA256(AGG_SIG_ME_DOMAIN ∥ byte(opcode))
func BuildAggSigMessage(kind ConditionOpcode, msg []byte, coinID [32]byte, network Network) []byte {
	if kind == AggSigUnsafe {
		out := make([]byte, len(msg))
		copy(out, msg)
		return out
	}
	domain := AggSigDomain[network]
	var appended [32]byte
	if kind == AggSigMe {
		appended = domain
	} else {
		appended = ConditionDomain(kind, network)
	}
	out := make([]byte, 0, len(msg)+32+32)
	out = append(out, msg...)
	out = append(out, coinID[:]...)
	out = append(out, appended[:]...)
	return out
}

// ConditionDomain computes the per-opcode AGG_SIG domain for non-ME,
// non-UNSAFE condition kinds: SHA256(AGG_SIG_ME_DOMAIN ∥ byte(opcode)).
// Tested by spec §8's "Agg-sig domain" round-trip law.
func ConditionDomain(kind ConditionOpcode, network Network) [32]byte {
	domain := AggSigDomain[network]
	buf := make([]byte, 0, 33)
	buf = append(buf, domain[:]...)
	buf = append(buf, byte(kind))
	return sha256.Sum256(buf)
}
