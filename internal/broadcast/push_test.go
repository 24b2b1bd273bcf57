package broadcast

import (
	"context"
	"testing"
)

type fakePusher struct {
	response map[string]any
	err      error
}

func (f *fakePusher) PushTx(ctx context.Context, spendBundleHex string) (map[string]any, error) {
	return f.response, f.err
}

func TestPushTxAccepted(t *testing.T) {
	pusher := &fakePusher{response: map[string]any{"success": true, "status": "submitted"}}
	result := PushTx(context.Background(), pusher, "aabb")
	if result.Status != "executed" || result.OperationID == "" {
		t.Fatalf("expected executed result with an operation id, got %+v", result)
	}
}

func TestPushTxRejected(t *testing.T) {
	pusher := &fakePusher{response: map[string]any{"success": false, "error": "DOUBLE_SPEND"}}
	result := PushTx(context.Background(), pusher, "aabb")
	if result.Status != "skipped" || result.Reason != "DOUBLE_SPEND" {
		t.Fatalf("expected skipped/DOUBLE_SPEND, got %+v", result)
	}
}

func TestPushTxInvalidHex(t *testing.T) {
	pusher := &fakePusher{}
	result := PushTx(context.Background(), pusher, "not-hex")
	if result.Status != "skipped" || result.Reason != "invalid_spend_bundle_hex" {
		t.Fatalf("expected invalid_spend_bundle_hex, got %+v", result)
	}
}

func TestPushTxStrips0xPrefix(t *testing.T) {
	pusher := &fakePusher{response: map[string]any{"success": true}}
	result := PushTx(context.Background(), pusher, "0xaabb")
	if result.Status != "executed" {
		t.Fatalf("expected executed result, got %+v", result)
	}
}
