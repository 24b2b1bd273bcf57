package signing

import (
	blst "github.com/supranational/blst/bindings/go"

	"github.com/hoffmang9/greenfloor/internal/chia"
	"github.com/hoffmang9/greenfloor/internal/keys"
)

// BuildSpendBundle is the in-process build path, ported from
// signing.py's _build_spend_bundle: resolve each selected coin's
// synthetic key via the bounded derivation scan, wrap each coin into a
// standard-puzzle spend carrying the requested additions, enumerate
// every AGG_SIG target the resulting puzzle/solution pairs produce,
// sign each target with its matching synthetic secret key, and
// aggregate (spec §4.6 steps 1-6).
func BuildSpendBundle(provider *keys.Provider, runner chia.PuzzleRunner, network chia.Network, selectedCoins []chia.Coin, additions []Addition) (chia.SpendBundle, error) {
	syntheticByPuzzleHash := make(map[[32]byte]*keys.SyntheticSecretKey, len(selectedCoins))
	for _, coin := range selectedCoins {
		if _, ok := syntheticByPuzzleHash[coin.PuzzleHash]; ok {
			continue
		}
		sk, ok := provider.SyntheticForPuzzleHash(coin.PuzzleHash)
		if !ok {
			return chia.SpendBundle{}, chia.ErrDerivationScanFailedForCoin
		}
		syntheticByPuzzleHash[coin.PuzzleHash] = sk
	}

	conditions := make([]chia.Condition, 0, len(additions))
	for _, a := range additions {
		conditions = append(conditions, chia.Condition{
			Opcode: chia.CreateCoin,
			Args:   [][]byte{a.PuzzleHash[:], beUint64(a.Amount)},
		})
	}

	coinSpends := make([]chia.CoinSpend, 0, len(selectedCoins))
	for _, coin := range selectedCoins {
		sk := syntheticByPuzzleHash[coin.PuzzleHash]
		puzzleReveal, solution, err := runner.WrapStandardSpend(sk.PK[:], conditions)
		if err != nil {
			return chia.SpendBundle{}, chia.Tag("build_spend_bundle_error", err)
		}
		coinSpends = append(coinSpends, chia.CoinSpend{Coin: coin, PuzzleReveal: puzzleReveal, Solution: solution})
	}

	skByPubkey := make(map[[48]byte]*keys.SyntheticSecretKey, len(syntheticByPuzzleHash))
	for _, sk := range syntheticByPuzzleHash {
		skByPubkey[sk.PK] = sk
	}

	signatures, err := signAggSigTargets(runner, network, coinSpends, skByPubkey)
	if err != nil {
		return chia.SpendBundle{}, err
	}
	if len(signatures) == 0 {
		return chia.SpendBundle{}, chia.Tag("no_agg_sig_targets_found", nil)
	}

	aggregate := new(blst.P2Aggregate)
	if !aggregate.AggregateCompressed(signatures, false) {
		return chia.SpendBundle{}, chia.Tag("sign_spend_bundle_error", nil)
	}
	aggSig := aggregate.ToAffine().Compress()

	var sigBytes [96]byte
	copy(sigBytes[:], aggSig)
	return chia.SpendBundle{CoinSpends: coinSpends, AggregatedSignature: sigBytes}, nil
}

// signAggSigTargets runs every coin spend's (puzzle_reveal, solution)
// to enumerate its AGG_SIG conditions, builds each target's message
// domain (internal/chia.BuildAggSigMessage), resolves the signing key
// by public key, and signs.
func signAggSigTargets(runner chia.PuzzleRunner, network chia.Network, coinSpends []chia.CoinSpend, skByPubkey map[[48]byte]*keys.SyntheticSecretKey) ([][]byte, error) {
	var signatures [][]byte
	for _, spend := range coinSpends {
		coinID := spend.Coin.ID()
		parsed, err := runner.Run(spend.PuzzleReveal, spend.Solution)
		if err != nil {
			return nil, chia.Tag("build_spend_bundle_error", err)
		}
		for _, cond := range parsed {
			if !isAggSigOpcode(cond.Opcode) || len(cond.Args) < 2 {
				continue
			}
			var pubkey [48]byte
			copy(pubkey[:], cond.Args[0])
			sk, ok := skByPubkey[pubkey]
			if !ok {
				return nil, chia.ErrMissingPrivateKeyForAggSig
			}
			message := chia.BuildAggSigMessage(cond.Opcode, cond.Args[1], coinID, network)
			sig := new(blst.P2Affine).Sign(sk.SK, message, dstAugSchemeMPL)
			signatures = append(signatures, sig.Compress())
		}
	}
	return signatures, nil
}

func isAggSigOpcode(op chia.ConditionOpcode) bool {
	switch op {
	case chia.AggSigMe, chia.AggSigUnsafe, chia.AggSigParent, chia.AggSigPuzzle, chia.AggSigAmount:
		return true
	default:
		return false
	}
}

// dstAugSchemeMPL is the BLS12-381 ciphersuite domain-separation tag
// for the augmented signature scheme Chia consensus uses.
var dstAugSchemeMPL = []byte("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_AUG_")

func beUint64(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}
