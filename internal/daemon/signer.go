package daemon

import (
	"strings"

	"github.com/hoffmang9/greenfloor/internal/keys"
	"github.com/hoffmang9/greenfloor/internal/signing"
)

// SignerForKey builds the signer backend for a resolved market key.
// internal/chia.PuzzleRunner has no concrete implementation in this
// codebase (CLVM execution is deliberately kept behind that interface
// boundary, see internal/signing's InProcessSigner), so the only
// backend that can actually execute here is ExternalCommandSigner,
// configured from GREENFLOOR_WALLET_EXECUTOR_CMD the same way
// adapters/wallet.py's WalletAdapter prefers a subprocess executor
// when one is configured.
func SignerForKey(selection keys.KeySelection, network, command string) signing.Signer {
	return &signing.ExternalCommandSigner{
		Command:     strings.TrimSpace(command),
		KeyID:       selection.KeyID,
		Network:     network,
		KeyringPath: selection.KeyringYAMLPath,
	}
}
