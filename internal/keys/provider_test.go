package keys

import (
	"bytes"
	"testing"
)

func TestDeriveIsDeterministic(t *testing.T) {
	master := bytes.Repeat([]byte{0x07}, 32)
	a1 := deriveAlongPath(master, 3, true)
	a2 := deriveAlongPath(master, 3, true)
	if !bytes.Equal(a1, a2) {
		t.Fatalf("hardened derivation must be deterministic for the same index")
	}
	b1 := deriveAlongPath(master, 3, false)
	b2 := deriveAlongPath(master, 3, false)
	if !bytes.Equal(b1, b2) {
		t.Fatalf("unhardened derivation must be deterministic for the same index")
	}
	if bytes.Equal(a1, b1) {
		t.Fatalf("hardened and unhardened children at the same index must differ")
	}
}

func TestDeriveDistinctIndices(t *testing.T) {
	master := bytes.Repeat([]byte{0x07}, 32)
	x := deriveAlongPath(master, 0, true)
	y := deriveAlongPath(master, 1, true)
	if bytes.Equal(x, y) {
		t.Fatalf("distinct indices must derive distinct children")
	}
}

func TestParseFingerprintBareInt(t *testing.T) {
	n, ok := ParseFingerprint("  123  ")
	if !ok || n != 123 {
		t.Fatalf("expected (123, true), got (%d, %v)", n, ok)
	}
}

func TestParseFingerprintPrefixed(t *testing.T) {
	n, ok := ParseFingerprint("fingerprint:456")
	if !ok || n != 456 {
		t.Fatalf("expected (456, true), got (%d, %v)", n, ok)
	}
}

func TestParseFingerprintUnresolvable(t *testing.T) {
	if _, ok := ParseFingerprint("not-a-fingerprint"); ok {
		t.Fatalf("expected unresolvable key_id to return false")
	}
}

func TestResolveMarketKeyMissingID(t *testing.T) {
	if _, err := ResolveMarketKey("m1", "  ", nil, nil, ""); err == nil {
		t.Fatalf("expected error for empty signer_key_id")
	}
}

func TestResolveMarketKeyNotAllowed(t *testing.T) {
	allowed := map[string]bool{"other": true}
	if _, err := ResolveMarketKey("m1", "k1", allowed, nil, ""); err == nil {
		t.Fatalf("expected error when signer_key_id is not in the allow list")
	}
}

func TestResolveMarketKeyNetworkMismatch(t *testing.T) {
	registry := map[string]SignerKeyConfig{"k1": {Fingerprint: 1, Network: "testnet11"}}
	if _, err := ResolveMarketKey("m1", "k1", nil, registry, "mainnet"); err == nil {
		t.Fatalf("expected network mismatch error")
	}
}

func TestResolveMarketKeySuccess(t *testing.T) {
	registry := map[string]SignerKeyConfig{"k1": {Fingerprint: 1, Network: "mainnet", KeyringYAMLPath: "/x/keyring.yaml"}}
	sel, err := ResolveMarketKey("m1", "k1", nil, registry, "mainnet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel.Fingerprint != 1 || sel.KeyringYAMLPath != "/x/keyring.yaml" {
		t.Fatalf("unexpected selection: %+v", sel)
	}
}

func TestDetermineOnboardingBranch(t *testing.T) {
	if branch, _ := DetermineOnboardingBranch(true, nil, ""); branch != "prompt_use_existing_keys" {
		t.Fatalf("expected prompt_use_existing_keys, got %s", branch)
	}
	useExisting := true
	if branch, _ := DetermineOnboardingBranch(true, &useExisting, ""); branch != "use_chia_keys" {
		t.Fatalf("expected use_chia_keys, got %s", branch)
	}
	if branch, _ := DetermineOnboardingBranch(false, nil, ""); branch != "prompt_fallback_choice" {
		t.Fatalf("expected prompt_fallback_choice, got %s", branch)
	}
	if branch, err := DetermineOnboardingBranch(false, nil, "generate_new"); err != nil || branch != "generate_new" {
		t.Fatalf("expected generate_new, got %s err=%v", branch, err)
	}
	if _, err := DetermineOnboardingBranch(false, nil, "bogus"); err == nil {
		t.Fatalf("expected error for unsupported fallback choice")
	}
}
