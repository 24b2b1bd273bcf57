package daemon

import (
	"context"
	"errors"
	"testing"

	"github.com/hoffmang9/greenfloor/internal/ladder"
	"github.com/hoffmang9/greenfloor/internal/signing"
)

type fakeSigner struct {
	result SignResultOrError
}

type SignResultOrError struct {
	result signing.SignResult
	err    error
}

func (f fakeSigner) Sign(req signing.SignRequest) (signing.SignResult, error) {
	return f.result.result, f.result.err
}

type fakePusher struct {
	response map[string]any
	err      error
}

func (f fakePusher) PushTx(ctx context.Context, spendBundleHex string) (map[string]any, error) {
	return f.response, f.err
}

func TestExecuteCoinOpPlanDryRunSkipsSigning(t *testing.T) {
	item := ExecuteCoinOpPlan(context.Background(), fakeSigner{}, fakePusher{}, "market-1", "xch1abc", [32]byte{}, ladder.CoinOpPlan{OpType: "split", SizeBaseUnits: 1, OpCount: 3}, 300, true)
	if item.Status != "planned" || item.Reason != "dry_run" {
		t.Fatalf("expected planned/dry_run, got %+v", item)
	}
}

func TestExecuteCoinOpPlanSignerErrorIsSkipped(t *testing.T) {
	signer := fakeSigner{result: SignResultOrError{err: errors.New("boom")}}
	item := ExecuteCoinOpPlan(context.Background(), signer, fakePusher{}, "market-1", "xch1abc", [32]byte{}, ladder.CoinOpPlan{OpType: "split", SizeBaseUnits: 1, OpCount: 1}, 100, false)
	if item.Status != "skipped" || item.Reason != "signer_error:boom" {
		t.Fatalf("expected skipped/signer_error, got %+v", item)
	}
}

func TestExecuteCoinOpPlanSignerSkippedNeverReachesBroadcast(t *testing.T) {
	signer := fakeSigner{result: SignResultOrError{result: signing.SignResult{Status: "skipped", Reason: "no_coins_available"}}}
	item := ExecuteCoinOpPlan(context.Background(), signer, fakePusher{err: errors.New("should not be called")}, "market-1", "xch1abc", [32]byte{}, ladder.CoinOpPlan{OpType: "combine", SizeBaseUnits: 10, OpCount: 2}, 200, false)
	if item.Status != "skipped" || item.Reason != "no_coins_available" {
		t.Fatalf("expected skipped/no_coins_available, got %+v", item)
	}
}

func TestExecuteCoinOpPlanBroadcastFailureIsSkipped(t *testing.T) {
	signer := fakeSigner{result: SignResultOrError{result: signing.SignResult{Status: "executed", SpendBundleHex: "aa", OperationID: "sig-op-1"}}}
	pusher := fakePusher{response: map[string]any{"success": false, "error": "dexie_http_error:500"}}
	item := ExecuteCoinOpPlan(context.Background(), signer, pusher, "market-1", "xch1abc", [32]byte{}, ladder.CoinOpPlan{OpType: "split", SizeBaseUnits: 1, OpCount: 1}, 100, false)
	if item.Status != "skipped" || item.OperationID != "sig-op-1" {
		t.Fatalf("expected skipped with signer operation id preserved, got %+v", item)
	}
}

func TestExecuteCoinOpPlanSuccessPath(t *testing.T) {
	signer := fakeSigner{result: SignResultOrError{result: signing.SignResult{Status: "executed", SpendBundleHex: "aabb"}}}
	pusher := fakePusher{response: map[string]any{"success": true, "status": "submitted"}}
	item := ExecuteCoinOpPlan(context.Background(), signer, pusher, "market-1", "xch1abc", [32]byte{}, ladder.CoinOpPlan{OpType: "split", SizeBaseUnits: 1, OpCount: 1}, 100, false)
	if item.Status != "executed" || item.OperationID == "" {
		t.Fatalf("expected executed with an operation id, got %+v", item)
	}
}
