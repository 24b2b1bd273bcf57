package broadcast

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/hoffmang9/greenfloor/internal/chia"
)

// Result mirrors _broadcast_spend_bundle's return dict: status,
// reason, and the operation id (a sha256 content hash of the decoded
// spend-bundle bytes, see spendBundleHashHex; not the node's own
// transaction id) once it has been decoded and accepted.
type Result struct {
	Status      string
	Reason      string
	OperationID string
}

// Pusher is the indexer surface push_tx needs: coinset.Client
// satisfies it directly.
type Pusher interface {
	PushTx(ctx context.Context, spendBundleHex string) (map[string]any, error)
}

// PushTx decodes spend_bundle_hex defensively (stripping an optional
// "0x" prefix, same as the source) before submitting it, then reports
// whether the indexer accepted it. It never returns an error itself —
// every failure mode becomes a {"status": "skipped", "reason": ...}
// result, matching the source's "never raise out of this function"
// contract.
func PushTx(ctx context.Context, pusher Pusher, spendBundleHex string) Result {
	rawHex := spendBundleHex
	if strings.HasPrefix(strings.ToLower(rawHex), "0x") {
		rawHex = rawHex[2:]
	}
	bundleBytes, err := hex.DecodeString(rawHex)
	if err != nil {
		return Result{Status: "skipped", Reason: "invalid_spend_bundle_hex"}
	}

	response, err := pusher.PushTx(ctx, spendBundleHex)
	if err != nil {
		return Result{Status: "skipped", Reason: chia.Tagf("push_tx_error", "%v", err).Error()}
	}
	if ok, _ := response["success"].(bool); !ok {
		reason, _ := response["error"].(string)
		if reason == "" {
			reason = "push_tx_rejected"
		}
		return Result{Status: "skipped", Reason: reason}
	}

	txID := chia.Tag("spend_bundle_hash_unavailable", nil).Error()
	if hash, ok := spendBundleHashHex(bundleBytes); ok {
		txID = hash
	}
	status, _ := response["status"].(string)
	if status == "" {
		status = "submitted"
	}
	return Result{Status: "executed", Reason: status, OperationID: txID}
}

// spendBundleHashHex is a placeholder for the real CLVM-shaped
// SpendBundle.hash() the source calls through sdk.to_hex(...) — that
// hash depends on the consensus spend-bundle encoding this codebase
// keeps behind chia.PuzzleRunner (see internal/signing's
// encodeSpendBundleHex), so here the operation id instead falls back
// to a content hash of the decoded bytes, good enough for this
// codebase's own dedup/audit trail even though it would not match a
// real Chia full node's transaction id.
func spendBundleHashHex(bundleBytes []byte) (string, bool) {
	if len(bundleBytes) == 0 {
		return "", false
	}
	sum := sha256.Sum256(bundleBytes)
	return hex.EncodeToString(sum[:]), true
}
