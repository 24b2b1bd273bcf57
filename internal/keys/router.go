package keys

import (
	"strings"

	"github.com/hoffmang9/greenfloor/internal/chia"
)

// SignerKeyConfig mirrors config.models.SignerKeyConfig: the registry
// entry a signer_key_id resolves to.
type SignerKeyConfig struct {
	Fingerprint      int
	KeyringYAMLPath  string
	Network          string
}

// KeySelection is the result of resolving a market's signer_key_id,
// ported from keys/router.py's KeySelection dataclass.
type KeySelection struct {
	KeyID           string
	MarketID        string
	Fingerprint     int
	HasFingerprint  bool
	KeyringYAMLPath string
}

// ResolveMarketKey resolves market's signer_key_id to a KeySelection,
// literally porting resolve_market_key: validates the key_id is
// non-empty and allowed, looks it up in the signer key registry, and
// checks the registry entry's network against requiredNetwork when
// both are set.
func ResolveMarketKey(marketID, signerKeyID string, allowedKeyIDs map[string]bool, registry map[string]SignerKeyConfig, requiredNetwork string) (KeySelection, error) {
	keyID := strings.TrimSpace(signerKeyID)
	if keyID == "" {
		return KeySelection{}, chia.Tagf("market_missing_signer_key_id", "market %s is missing signer_key_id", marketID)
	}
	if allowedKeyIDs != nil && !allowedKeyIDs[keyID] {
		return KeySelection{}, chia.Tagf("signer_key_id_not_allowed", "market %s uses signer_key_id=%s, which is not allowed", marketID, keyID)
	}
	if registry != nil {
		entry, ok := registry[keyID]
		if !ok {
			return KeySelection{}, chia.Tagf("signer_key_id_not_registered", "market %s uses signer_key_id=%s, which is not present in signer key registry", marketID, keyID)
		}
		if requiredNetwork != "" && entry.Network != "" && entry.Network != requiredNetwork {
			return KeySelection{}, chia.Tagf("signer_key_network_mismatch", "market %s uses signer_key_id=%s, network mismatch (%s != %s)", marketID, keyID, entry.Network, requiredNetwork)
		}
		return KeySelection{
			KeyID:           keyID,
			MarketID:        marketID,
			Fingerprint:     entry.Fingerprint,
			HasFingerprint:  true,
			KeyringYAMLPath: entry.KeyringYAMLPath,
		}, nil
	}
	return KeySelection{KeyID: keyID, MarketID: marketID}, nil
}
