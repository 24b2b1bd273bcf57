package keys

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"math/big"
	"sync"

	"github.com/hoffmang9/greenfloor/internal/chia"
)

// groupOrderHex is the BLS12-381 subgroup order r (spec §3/§4.4's
// "curve-level additive tweak"), used to reduce HKDF output into a
// valid scalar.
const groupOrderHex = "73eda753299d7d483339d80809a1d80553bda402fffe5bfeffffffff00000001"

var groupOrder = mustBigInt(groupOrderHex)

func mustBigInt(hexStr string) *big.Int {
	n, ok := new(big.Int).SetString(hexStr, 16)
	if !ok {
		panic("keys: invalid group order constant")
	}
	return n
}

// deriveHardened implements the EIP-2333 hardened derivation path
// (lamport-trick HKDF), the scheme chia-blockchain's key library uses
// for the hard half of [12381, 8444, 2, index] (spec §4.4).
func deriveHardened(parentIKM []byte, index uint32) []byte {
	salt := []byte("BLS-SIG-KEYGEN-SALT-")
	lamport0 := ikmToLamportSK(parentIKM, salt)
	flipped := make([]byte, len(parentIKM))
	for i, b := range parentIKM {
		flipped[i] = ^b
	}
	lamport1 := ikmToLamportSK(flipped, salt)

	var compressed []byte
	for _, chunk := range lamport0 {
		h := sha256.Sum256(chunk)
		compressed = append(compressed, h[:]...)
	}
	for _, chunk := range lamport1 {
		h := sha256.Sum256(chunk)
		compressed = append(compressed, h[:]...)
	}
	compressed = append(compressed, be32(index)...)
	return hkdfModR(compressed)
}

// deriveUnhardened implements chia's public (unhardened) child
// derivation: an additive scalar tweak computable from the parent
// public key alone (HMAC-SHA256 over the parent public key bytes and
// the big-endian index, reduced via hkdf_mod_r), added to the parent
// secret scalar mod the group order. This is what makes the "soft"
// half of spec §4.4's "[12381, 8444, 2, index], soft and hard paths
// both scanned" a true non-hardened derivation: the corresponding
// public-key-only tweak is additive over G1.
func deriveUnhardened(parentSK, parentPK []byte, index uint32) []byte {
	mac := hmac.New(sha256.New, parentPK)
	mac.Write(be32(index))
	nonce := new(big.Int).SetBytes(hkdfModR(mac.Sum(nil)))
	sum := new(big.Int).Add(new(big.Int).SetBytes(parentSK), nonce)
	return leftPad32(new(big.Int).Mod(sum, groupOrder).Bytes())
}

// ikmToLamportSK splits a 32-byte secret into 255 32-byte lamport
// chunks via HKDF-Expand, per EIP-2333's IKM_to_lamport_SK.
func ikmToLamportSK(ikm, salt []byte) [][]byte {
	okm := hkdfExpand(hkdfExtract(salt, ikm), nil, 255*32)
	chunks := make([][]byte, 255)
	for i := range chunks {
		chunks[i] = okm[i*32 : (i+1)*32]
	}
	return chunks
}

// hkdfModR derives a scalar from arbitrary key material by repeatedly
// expanding with an incrementing salt until the reduction modulo the
// group order is nonzero, per EIP-2333's HKDF_mod_r.
func hkdfModR(ikm []byte) []byte {
	salt := []byte("BLS-SIG-KEYGEN-SALT-")
	for attempt := 0; attempt < 256; attempt++ {
		prk := hkdfExtract(salt, append(append([]byte{}, ikm...), 0x00))
		okm := hkdfExpand(prk, []byte{0x00, 48}, 48)
		scalar := new(big.Int).Mod(new(big.Int).SetBytes(okm), groupOrder)
		if scalar.Sign() != 0 {
			return leftPad32(scalar.Bytes())
		}
		h := sha256.Sum256(salt)
		salt = h[:]
	}
	panic("keys: exhausted retries deriving a nonzero scalar")
}

func hkdfExtract(salt, ikm []byte) []byte {
	mac := hmac.New(sha256.New, salt)
	mac.Write(ikm)
	return mac.Sum(nil)
}

func hkdfExpand(prk, info []byte, length int) []byte {
	var out []byte
	var prev []byte
	counter := byte(1)
	for len(out) < length {
		mac := hmac.New(sha256.New, prk)
		mac.Write(prev)
		mac.Write(info)
		mac.Write([]byte{counter})
		prev = mac.Sum(nil)
		out = append(out, prev...)
		counter++
	}
	return out[:length]
}

func leftPad32(b []byte) []byte {
	if len(b) >= 32 {
		return b[len(b)-32:]
	}
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}

func be32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func mustBigEndian32(hexStr string) [32]byte {
	b, err := chia.HexToBytes32(hexStr)
	if err != nil {
		panic(err)
	}
	return b
}

// derivationCache caches puzzle_hash -> synthetic secret key matches
// discovered by a bounded scan (spec §4.4's synthetic_for_puzzle_hash),
// with process lifetime per spec §5's "Derivation cache" note.
type derivationCache struct {
	mu     sync.RWMutex
	byHash map[[32]byte]*SyntheticSecretKey
}

func newDerivationCache() *derivationCache {
	return &derivationCache{byHash: make(map[[32]byte]*SyntheticSecretKey)}
}

func (c *derivationCache) get(hash [32]byte) (*SyntheticSecretKey, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sk, ok := c.byHash[hash]
	return sk, ok
}

func (c *derivationCache) put(hash [32]byte, sk *SyntheticSecretKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byHash[hash] = sk
}
