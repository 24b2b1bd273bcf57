package keys

import (
	"crypto/sha256"
	"math/big"

	blst "github.com/supranational/blst/bindings/go"
	"github.com/hoffmang9/greenfloor/internal/chia"
)

// SyntheticSecretKey is a BLS secret key that has already had the
// synthetic offset applied (spec §3 DerivedKey entity / §4.4).
type SyntheticSecretKey struct {
	SK *blst.SecretKey
	PK [48]byte // compressed G1 public key
}

// defaultHiddenPuzzleHash is Chia's well-known default hidden puzzle
// hash (the tree hash of the program serialized as ff0980), the public
// constant every standard-puzzle synthetic key is offset against.
var defaultHiddenPuzzleHash = mustBigEndian32("711d6c4e32c92e53179b199484cf8c897542bc57f2b22582799f9d657eec4699")

// syntheticOffset reproduces calculate_synthetic_offset: the additive
// curve-level tweak derived from a public key and the hidden puzzle
// hash (spec §3's DerivedKey / §4.4's "synthetic offset").
func syntheticOffset(publicKeyBytes []byte) *big.Int {
	h := sha256.Sum256(append(append([]byte{}, publicKeyBytes...), defaultHiddenPuzzleHash[:]...))
	return new(big.Int).Mod(new(big.Int).SetBytes(h[:]), groupOrder)
}

// syntheticFromChild applies the synthetic offset to a raw 32-byte
// child scalar and returns the resulting secret key plus its
// compressed G1 public key.
func syntheticFromChild(childScalar []byte) (*SyntheticSecretKey, error) {
	childSK := new(blst.SecretKey).Deserialize(childScalar)
	if childSK == nil {
		return nil, chia.Tagf("invalid_derived_scalar", "child scalar deserialize failed (%d bytes)", len(childScalar))
	}
	childPK := new(blst.P1Affine).From(childSK)

	offset := syntheticOffset(childPK.Compress())
	secretExponent := new(big.Int).SetBytes(childScalar)
	syntheticExponent := new(big.Int).Mod(new(big.Int).Add(secretExponent, offset), groupOrder)

	syntheticSK := new(blst.SecretKey).Deserialize(leftPad32(syntheticExponent.Bytes()))
	if syntheticSK == nil {
		return nil, chia.Tag("invalid_synthetic_scalar", nil)
	}
	syntheticPK := new(blst.P1Affine).From(syntheticSK)

	var pk [48]byte
	copy(pk[:], syntheticPK.Compress())
	return &SyntheticSecretKey{SK: syntheticSK, PK: pk}, nil
}

// standardPuzzleHash computes standard_puzzle_hash(synthetic_pubkey)
// via the injected chia.PuzzleRunner, keeping CLVM curry/tree-hash
// logic behind the opaque puzzle boundary (internal/chia/puzzle.go).
func standardPuzzleHash(runner chia.PuzzleRunner, compressedPK [48]byte) [32]byte {
	return runner.StandardPuzzleHash(compressedPK[:])
}
