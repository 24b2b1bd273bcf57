// Package keys implements the key provider (spec §4.4): resolving a
// fingerprint to a master secret key from a keyring file, and deriving
// synthetic signing keys on demand along [12381, 8444, 2, index].
package keys

import (
	"os"
	"strconv"
	"strings"

	"github.com/hoffmang9/greenfloor/internal/chia"
	"gopkg.in/yaml.v3"
)

// keyringFile mirrors the on-disk shape written by chia's own
// keyring.yaml: a "keys" list of {fingerprint, secret_key_hex} entries,
// each holding a hex-encoded 32-byte master secret key, grounded on signing.py's _load_master_private_key,
// which resolves a key_id to a fingerprint and then loads the
// matching secret from a keychain lookup.
type keyringFile struct {
	Keys []keyringEntry `yaml:"keys"`
}

type keyringEntry struct {
	Fingerprint int    `yaml:"fingerprint"`
	SecretKeyHex string `yaml:"secret_key_hex"`
}

// Keyring is a loaded keyring.yaml file, indexed by fingerprint.
type Keyring struct {
	path    string
	secrets map[int][]byte // fingerprint -> 32-byte master secret key
}

// LoadKeyring reads and indexes a keyring.yaml file at path.
func LoadKeyring(path string) (*Keyring, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, chia.Tag("key_secrets_unavailable", err)
	}
	var file keyringFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, chia.Tag("key_secrets_unavailable", err)
	}
	secrets := make(map[int][]byte, len(file.Keys))
	for _, entry := range file.Keys {
		sk, err := chia.HexToBytes32(entry.SecretKeyHex)
		if err != nil {
			continue
		}
		secrets[entry.Fingerprint] = sk[:]
	}
	return &Keyring{path: path, secrets: secrets}, nil
}

// MasterSecretKey resolves a fingerprint to its 32-byte master secret
// key, returning a "key_secrets_unavailable"-tagged error (built with
// chia.Tagf, not the chia.ErrKeySecretsUnavailable sentinel) if the
// fingerprint is not present in this keyring.
func (k *Keyring) MasterSecretKey(fingerprint int) ([]byte, error) {
	sk, ok := k.secrets[fingerprint]
	if !ok {
		return nil, chia.Tagf("key_secrets_unavailable", "fingerprint %d not found in %s", fingerprint, k.path)
	}
	return sk, nil
}

// ParseFingerprint resolves a market's signer_key_id to a numeric
// fingerprint, ported from signing.py's _parse_fingerprint: the
// key_id is either a bare integer, a "fingerprint:<n>" literal, or
// looked up in the GREENFLOOR_KEY_ID_FINGERPRINT_MAP_JSON env mapping.
func ParseFingerprint(keyID string) (int, bool) {
	raw := strings.TrimSpace(keyID)
	if n, err := strconv.Atoi(raw); err == nil {
		return n, true
	}
	if rest, ok := strings.CutPrefix(raw, "fingerprint:"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(rest)); err == nil {
			return n, true
		}
	}
	mapRaw := strings.TrimSpace(os.Getenv("GREENFLOOR_KEY_ID_FINGERPRINT_MAP_JSON"))
	if mapRaw == "" {
		return 0, false
	}
	var mapping map[string]any
	if err := yaml.Unmarshal([]byte(mapRaw), &mapping); err != nil {
		return 0, false
	}
	val, ok := mapping[raw]
	if !ok {
		return 0, false
	}
	switch v := val.(type) {
	case int:
		return v, true
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n, true
		}
	}
	return 0, false
}
