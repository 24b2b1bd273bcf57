package keys

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/asn1"
	"math/big"
	"testing"
)

// DER<->compact ECDSA round trip law (spec §8): for any 64-byte (r,s),
// compact(parse(der(r,s))) == (r,s), including the high-bit
// leading-zero normalisation DER requires.
func TestDERCompactRoundTrip(t *testing.T) {
	cases := [][2]*big.Int{
		{big.NewInt(1), big.NewInt(2)},
		{new(big.Int).Lsh(big.NewInt(1), 255), new(big.Int).Lsh(big.NewInt(1), 255)}, // high bit set, needs 0x00 pad in DER
	}
	for i, c := range cases {
		r, s := c[0], c[1]
		der := encodeDERSignature(t, r, s)
		gotR, gotS, err := parseDEREcdsaSignature(der)
		if err != nil {
			t.Fatalf("case %d: parseDEREcdsaSignature: %v", i, err)
		}
		compact := append(leftPad32(gotR.Bytes()), leftPad32(gotS.Bytes())...)
		want := append(leftPad32(r.Bytes()), leftPad32(s.Bytes())...)
		if !bytes.Equal(compact, want) {
			t.Fatalf("case %d: round trip mismatch: got %x want %x", i, compact, want)
		}
	}
}

func encodeDERSignature(t *testing.T, r, s *big.Int) []byte {
	t.Helper()
	der, err := asn1.Marshal(struct{ R, S *big.Int }{r, s})
	if err != nil {
		t.Fatalf("asn1.Marshal: %v", err)
	}
	return der
}

// Compressed P-256 round trip law (spec §8):
// compress(decompress(C)) == C for any valid compressed point.
func TestCompressedP256RoundTrip(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	compressed := compressP256Point(priv.X, priv.Y)
	x, y := elliptic.UnmarshalCompressed(elliptic.P256(), compressed)
	if x == nil {
		t.Fatalf("UnmarshalCompressed failed to decompress")
	}
	recompressed := compressP256Point(x, y)
	if !bytes.Equal(compressed, recompressed) {
		t.Fatalf("round trip mismatch: got %x want %x", recompressed, compressed)
	}
}

func TestCompressedP256PrefixParity(t *testing.T) {
	evenY := big.NewInt(4)
	oddY := big.NewInt(5)
	x := big.NewInt(7)
	if got := compressP256Point(x, evenY)[0]; got != 0x02 {
		t.Fatalf("expected prefix 0x02 for even y, got %#x", got)
	}
	if got := compressP256Point(x, oddY)[0]; got != 0x03 {
		t.Fatalf("expected prefix 0x03 for odd y, got %#x", got)
	}
}
