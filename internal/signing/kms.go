package signing

import "github.com/hoffmang9/greenfloor/internal/keys"

// KmsSigner is the vault-custody signer variant (spec §9's Signer
// trait, third arm): it does not build or sign BLS spend bundles
// itself — it signs a vault message digest with a KMS-custodied P-256
// key at the onboarding/vault-provisioning boundary (spec §6), which
// is why its Sign method here only ever returns a skip with a
// pointer to the dedicated KMS digest-signing path.
type KmsSigner struct {
	Backend *keys.KmsSigner
}

func (s *KmsSigner) Sign(req SignRequest) (SignResult, error) {
	return SignResult{Status: "skipped", Reason: "kms_signer_handles_vault_digests_only"}, nil
}

// SignVaultDigestHex delegates to the underlying keys.KmsSigner for
// the one operation this backend actually performs.
func (s *KmsSigner) SignVaultDigestHex(messageBytes []byte) (string, error) {
	return s.Backend.SignDigestHex(messageBytes)
}
