package signing

import (
	"strings"
	"testing"
)

func TestSplitShellWords(t *testing.T) {
	got := splitShellWords(`python3 -m greenfloor.cli.chia_keys_signer_backend --flag "quoted value"`)
	want := []string{"python3", "-m", "greenfloor.cli.chia_keys_signer_backend", "--flag", "quoted value"}
	if len(got) != len(want) {
		t.Fatalf("expected %d words, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("word %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestExternalCommandSignerMissingCommand(t *testing.T) {
	s := &ExternalCommandSigner{}
	result, err := s.Sign(SignRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != "skipped" || !strings.Contains(result.Reason, "missing_backend_cmd") {
		t.Fatalf("expected skipped/missing_backend_cmd, got %+v", result)
	}
}

func TestExternalCommandSignerEchoSuccess(t *testing.T) {
	s := &ExternalCommandSigner{Command: `sh -c 'cat > /dev/null; printf "{\"status\":\"executed\",\"reason\":\"ok\",\"spend_bundle_hex\":\"aa\"}"'`}
	result, err := s.Sign(SignRequest{OpType: "split", SizeBaseUnits: 1, OpCount: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != "executed" || result.SpendBundleHex != "aa" {
		t.Fatalf("expected executed/aa, got %+v", result)
	}
}
