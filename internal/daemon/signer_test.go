package daemon

import (
	"testing"

	"github.com/hoffmang9/greenfloor/internal/keys"
	"github.com/hoffmang9/greenfloor/internal/signing"
)

func TestSignerForKeyBuildsExternalCommandSigner(t *testing.T) {
	selection := keys.KeySelection{KeyID: "farmer-1", KeyringYAMLPath: "/etc/greenfloor/keyring.yaml"}
	s := SignerForKey(selection, "mainnet", "  python3 -m greenfloor.cli.signer_backend  ")

	ext, ok := s.(*signing.ExternalCommandSigner)
	if !ok {
		t.Fatalf("expected *signing.ExternalCommandSigner, got %T", s)
	}
	if ext.Command != "python3 -m greenfloor.cli.signer_backend" {
		t.Fatalf("expected trimmed command, got %q", ext.Command)
	}
	if ext.KeyID != "farmer-1" || ext.Network != "mainnet" || ext.KeyringPath != "/etc/greenfloor/keyring.yaml" {
		t.Fatalf("unexpected signer fields: %+v", ext)
	}
}
