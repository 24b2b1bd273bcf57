package keys

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// ChiaKeysDiscovery reports whether a keyring.yaml already exists
// under the onboarding key directory, ported from onboarding.py's
// discover_chia_keys.
type ChiaKeysDiscovery struct {
	ChiaKeysDir      string
	KeyringYAMLPath  string
	HasExistingKeys  bool
}

// DiscoverChiaKeys defaults to ~/.chia_keys when dir is empty.
func DiscoverChiaKeys(dir string) (ChiaKeysDiscovery, error) {
	base := dir
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ChiaKeysDiscovery{}, err
		}
		base = filepath.Join(home, ".chia_keys")
	}
	keyringPath := filepath.Join(base, "keyring.yaml")
	_, err := os.Stat(keyringPath)
	return ChiaKeysDiscovery{
		ChiaKeysDir:     base,
		KeyringYAMLPath: keyringPath,
		HasExistingKeys: err == nil,
	}, nil
}

// DetermineOnboardingBranch ports determine_onboarding_branch's
// three-way decision tree: prefer existing keys when present and the
// operator hasn't already decided, otherwise fall back to an explicit
// import/generate choice.
func DetermineOnboardingBranch(hasExistingKeys bool, useExistingKeys *bool, fallbackChoice string) (string, error) {
	if hasExistingKeys {
		if useExistingKeys == nil {
			return "prompt_use_existing_keys", nil
		}
		if *useExistingKeys {
			return "use_chia_keys", nil
		}
	}
	if fallbackChoice == "" {
		return "prompt_fallback_choice", nil
	}
	if fallbackChoice != "import_words" && fallbackChoice != "generate_new" {
		return "", errUnsupportedFallbackChoice(fallbackChoice)
	}
	return fallbackChoice, nil
}

type unsupportedFallbackChoiceError string

func (e unsupportedFallbackChoiceError) Error() string {
	return "unsupported fallback choice: " + string(e)
}

func errUnsupportedFallbackChoice(choice string) error {
	return unsupportedFallbackChoiceError(choice)
}

// KeyOnboardingSelection is the persisted record of which key source
// the operator picked, ported from onboarding.py's dataclass.
type KeyOnboardingSelection struct {
	SelectedSource     string `json:"selected_source"`
	KeyID              string `json:"key_id"`
	Network            string `json:"network"`
	ChiaKeysDir        string `json:"chia_keys_dir,omitempty"`
	KeyringYAMLPath    string `json:"keyring_yaml_path,omitempty"`
	MnemonicWordCount  *int   `json:"mnemonic_word_count,omitempty"`
}

// SaveKeyOnboardingSelection writes selection as compact JSON,
// creating parent directories as needed.
func SaveKeyOnboardingSelection(path string, selection KeyOnboardingSelection) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	payload, err := json.Marshal(selection)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

// LoadKeyOnboardingSelection returns (nil, nil) when the file is
// absent or holds an incomplete/corrupt record, matching
// load_key_onboarding_selection's permissive-nil contract.
func LoadKeyOnboardingSelection(path string) (*KeyOnboardingSelection, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, nil
	}
	var selection KeyOnboardingSelection
	if err := json.Unmarshal(raw, &selection); err != nil {
		return nil, nil
	}
	selection.SelectedSource = strings.TrimSpace(selection.SelectedSource)
	selection.KeyID = strings.TrimSpace(selection.KeyID)
	selection.Network = strings.TrimSpace(selection.Network)
	if selection.SelectedSource == "" || selection.KeyID == "" || selection.Network == "" {
		return nil, nil
	}
	return &selection, nil
}
