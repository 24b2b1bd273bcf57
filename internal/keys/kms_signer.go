package keys

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/asn1"
	"math/big"

	"github.com/hoffmang9/greenfloor/internal/chia"
)

// KmsSigner signs with an AWS KMS-custodied P-256 (secp256r1) key,
// ported from adapters/kms_signer.py: GetPublicKey returns a DER
// SubjectPublicKeyInfo, Sign returns a DER ECDSA signature, and both
// are converted to the compact encodings the vault wire format wants.
//
// The KMS network call itself is injected via Requester so this stays
// testable without an AWS credential chain.
type KmsSigner struct {
	KeyID     string
	Region    string
	Requester KmsRequester
}

// KmsRequester is the narrow boundary to AWS KMS: GetPublicKey and Sign.
type KmsRequester interface {
	GetPublicKey(keyID string) (derSPKI []byte, err error)
	Sign(keyID string, digest [32]byte) (derSignature []byte, err error)
}

// CompressedPublicKeyHex fetches the KMS public key and returns it as
// 33-byte compressed hex, porting get_public_key_compressed_hex's
// ASN.1 SubjectPublicKeyInfo walk.
func (s *KmsSigner) CompressedPublicKeyHex() (string, error) {
	der, err := s.Requester.GetPublicKey(s.KeyID)
	if err != nil {
		return "", chia.Tag("kms_get_public_key_failed", err)
	}
	x, y, err := extractP256XYFromSPKI(der)
	if err != nil {
		return "", err
	}
	compressed := compressP256Point(x, y)
	return chia.ToHex(compressed), nil
}

// SignDigestHex signs sha256(messageBytes) via KMS and returns the
// compact (r||s) hex, porting sign_digest.
func (s *KmsSigner) SignDigestHex(messageBytes []byte) (string, error) {
	digest := sha256.Sum256(messageBytes)
	der, err := s.Requester.Sign(s.KeyID, digest)
	if err != nil {
		return "", chia.Tag("kms_sign_failed", err)
	}
	r, sVal, err := parseDEREcdsaSignature(der)
	if err != nil {
		return "", err
	}
	compact := append(leftPad32(r.Bytes()), leftPad32(sVal.Bytes())...)
	return chia.ToHex(compact), nil
}

// extractP256XYFromSPKI walks a SubjectPublicKeyInfo DER blob and
// returns the (x, y) coordinates of its uncompressed P-256 point,
// ported from _extract_p256_xy_from_spki.
func extractP256XYFromSPKI(der []byte) (x, y *big.Int, err error) {
	var spki struct {
		Algorithm asn1.RawValue
		PublicKey asn1.BitString
	}
	if _, err := asn1.Unmarshal(der, &spki); err != nil {
		return nil, nil, chia.Tag("spki_parse_failed", err)
	}
	point := spki.PublicKey.RightAlign()
	if len(point) != 65 || point[0] != 0x04 {
		return nil, nil, chia.Tagf("spki_parse_failed", "expected 65-byte uncompressed point, got %d bytes", len(point))
	}
	x = new(big.Int).SetBytes(point[1:33])
	y = new(big.Int).SetBytes(point[33:65])
	return x, y, nil
}

func compressP256Point(x, y *big.Int) []byte {
	prefix := byte(0x02)
	if y.Bit(0) == 1 {
		prefix = 0x03
	}
	out := make([]byte, 33)
	out[0] = prefix
	xBytes := x.Bytes()
	copy(out[33-len(xBytes):], xBytes)
	return out
}

// parseDEREcdsaSignature parses an ASN.1 SEQUENCE{INTEGER r, INTEGER s}.
func parseDEREcdsaSignature(der []byte) (r, s *big.Int, err error) {
	var sig struct{ R, S *big.Int }
	if _, err := asn1.Unmarshal(der, &sig); err != nil {
		return nil, nil, chia.Tag("der_signature_parse_failed", err)
	}
	return sig.R, sig.S, nil
}

// verifyP256 checks a 64-byte compact (r||s) signature over digest
// against pub. Nothing in this package, its tests included, calls it.
func verifyP256(pub *ecdsa.PublicKey, digest [32]byte, compact []byte) bool {
	if len(compact) != 64 {
		return false
	}
	r := new(big.Int).SetBytes(compact[:32])
	s := new(big.Int).SetBytes(compact[32:])
	return ecdsa.Verify(pub, digest[:], r, s)
}
