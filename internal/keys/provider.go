package keys

import (
	blst "github.com/supranational/blst/bindings/go"
	"github.com/hoffmang9/greenfloor/internal/chia"
)

// derivationPathPrefix is the fixed path prefix spec §4.4 names:
// [12381, 8444, 2, index], with index supplied per call.
var derivationPathPrefix = []uint32{12381, 8444, 2}

// DefaultDerivationScanLimit matches signing.py's
// GREENFLOOR_CHIA_KEYS_DERIVATION_SCAN_LIMIT default of 200.
const DefaultDerivationScanLimit = 200

// Provider resolves a master secret key into synthetic signing keys,
// lazily scanning and caching puzzle_hash -> synthetic key matches
// (spec §4.4).
type Provider struct {
	masterSK []byte
	runner   chia.PuzzleRunner
	scanLimit int
	cache    *derivationCache
}

// NewProvider constructs a Provider bound to one master secret key
// and the PuzzleRunner used to compute standard_puzzle_hash.
func NewProvider(masterSK []byte, runner chia.PuzzleRunner, scanLimit int) *Provider {
	if scanLimit <= 0 {
		scanLimit = DefaultDerivationScanLimit
	}
	return &Provider{masterSK: masterSK, runner: runner, scanLimit: scanLimit, cache: newDerivationCache()}
}

// deriveAlongPath walks the fixed prefix plus the final index,
// applying either the hardened or unhardened step at every level.
func deriveAlongPath(masterSK []byte, index uint32, hardened bool) []byte {
	sk := masterSK
	path := append(append([]uint32{}, derivationPathPrefix...), index)
	for _, component := range path {
		if hardened {
			sk = deriveHardened(sk, component)
			continue
		}
		childSK := new(blst.SecretKey).Deserialize(sk)
		pk := new(blst.P1Affine).From(childSK).Compress()
		sk = deriveUnhardened(sk, pk, component)
	}
	return sk
}

// Derive computes both the hardened and unhardened synthetic children
// for [12381, 8444, 2, index] (spec §4.4 step 2).
func (p *Provider) Derive(index uint32) (hardened, unhardened *SyntheticSecretKey, err error) {
	hardenedChild := deriveAlongPath(p.masterSK, index, true)
	unhardenedChild := deriveAlongPath(p.masterSK, index, false)

	hardened, err = syntheticFromChild(hardenedChild)
	if err != nil {
		return nil, nil, err
	}
	unhardened, err = syntheticFromChild(unhardenedChild)
	if err != nil {
		return nil, nil, err
	}
	return hardened, unhardened, nil
}

// SyntheticForPuzzleHash implements spec §4.4's synthetic_for_puzzle_hash:
// a bounded scan over index in [0, scanLimit) computing
// standard_puzzle_hash(synth_pk(i)) for both derivation halves and
// caching hits, returning (nil, false) if nothing matches within the
// scan limit.
func (p *Provider) SyntheticForPuzzleHash(target [32]byte) (*SyntheticSecretKey, bool) {
	if sk, ok := p.cache.get(target); ok {
		return sk, true
	}
	for index := uint32(0); index < uint32(p.scanLimit); index++ {
		hardened, unhardened, err := p.Derive(index)
		if err != nil {
			continue
		}
		for _, candidate := range []*SyntheticSecretKey{hardened, unhardened} {
			hash := standardPuzzleHash(p.runner, candidate.PK)
			p.cache.put(hash, candidate)
			if hash == target {
				return candidate, true
			}
		}
	}
	return nil, false
}
