package signing

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"time"

	"github.com/hoffmang9/greenfloor/internal/chia"
)

// ExternalCommandSigner spawns a configured subprocess and pipes the
// sign request as JSON over stdin, reading a JSON response from
// stdout, ported from chia_keys_signer.py's execute_payload /
// subprocess.run flow (and the daemon's GREENFLOOR_OFFER_BUILDER_CMD
// equivalent for offer building).
type ExternalCommandSigner struct {
	Command     string // shell command line, split with a POSIX-shell-style splitter
	Timeout     time.Duration
	KeyID       string
	Network     string
	KeyringPath string
}

type externalBackendRequest struct {
	KeyID           string         `json:"key_id"`
	Network         string         `json:"network"`
	KeyringYAMLPath string         `json:"keyring_yaml_path"`
	ReceiveAddress  string         `json:"receive_address"`
	MarketID        string         `json:"market_id"`
	Plan            externalPlan   `json:"plan"`
}

type externalPlan struct {
	OpType               string `json:"op_type"`
	SizeBaseUnits        uint64 `json:"size_base_units"`
	OpCount              int    `json:"op_count"`
	TargetTotalBaseUnits uint64 `json:"target_total_base_units"`
}

type externalBackendResponse struct {
	Status         string `json:"status"`
	Reason         string `json:"reason"`
	OperationID    string `json:"operation_id"`
	SpendBundleHex string `json:"spend_bundle_hex"`
}

func (s *ExternalCommandSigner) Sign(req SignRequest) (SignResult, error) {
	if s.Command == "" {
		return SignResult{Status: "skipped", Reason: "missing_backend_cmd"}, nil
	}
	backendReq := externalBackendRequest{
		KeyID:           s.KeyID,
		Network:         s.Network,
		KeyringYAMLPath: s.KeyringPath,
		ReceiveAddress:  req.ReceiveAddress,
		MarketID:        req.MarketID,
		Plan: externalPlan{
			OpType:               req.OpType,
			SizeBaseUnits:        req.SizeBaseUnits,
			OpCount:              req.OpCount,
			TargetTotalBaseUnits: req.TargetTotalUnits,
		},
	}
	input, err := json.Marshal(backendReq)
	if err != nil {
		return SignResult{}, chia.Tag("signer_backend_request_encode_error", err)
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	args := splitShellWords(s.Command)
	if len(args) == 0 {
		return SignResult{Status: "skipped", Reason: "missing_backend_cmd"}, nil
	}
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = bytes.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		if msg == "" {
			msg = "unknown_error"
		}
		return SignResult{Status: "skipped", Reason: "signer_backend_failed:" + msg}, nil
	}

	var resp externalBackendResponse
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &resp); err != nil {
		return SignResult{Status: "skipped", Reason: "signer_backend_invalid_json"}, nil
	}
	if resp.SpendBundleHex == "" && resp.Status == "skipped" {
		reason := resp.Reason
		if reason == "" {
			reason = "signer_backend_skipped"
		}
		return SignResult{Status: "skipped", Reason: reason, OperationID: resp.OperationID}, nil
	}
	if resp.SpendBundleHex == "" {
		return SignResult{Status: "skipped", Reason: "signer_backend_missing_spend_bundle_hex"}, nil
	}
	status := resp.Status
	if status == "" {
		status = "executed"
	}
	return SignResult{Status: status, Reason: resp.Reason, OperationID: resp.OperationID, SpendBundleHex: resp.SpendBundleHex}, nil
}

// splitShellWords is a minimal POSIX-ish word splitter (handles plain
// whitespace and single/double-quoted segments), enough for the
// GREENFLOOR_*_CMD config strings this backend is configured with —
// not a full shell grammar.
func splitShellWords(s string) []string {
	var words []string
	var current strings.Builder
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				current.WriteByte(c)
			}
		case c == '\'' || c == '"':
			quote = c
		case c == ' ' || c == '\t':
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		default:
			current.WriteByte(c)
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}
	return words
}
