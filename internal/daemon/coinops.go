package daemon

import (
	"context"

	"github.com/hoffmang9/greenfloor/internal/broadcast"
	"github.com/hoffmang9/greenfloor/internal/ladder"
	"github.com/hoffmang9/greenfloor/internal/signing"
)

// CoinOpExecutionItem mirrors WalletAdapter.execute_coin_ops'
// {op_type, size_base_units, op_count, status, reason, operation_id}
// per-plan result.
type CoinOpExecutionItem struct {
	OpType        string
	SizeBaseUnits int64
	OpCount       int
	FeeMojos      int64
	Status        string // "executed" | "skipped" | "planned"
	Reason        string
	OperationID   string
}

// ExecuteCoinOpPlan signs and broadcasts one split/combine plan,
// ported from adapters/wallet.py's _execute_plan: a dry run or a
// signer "skipped" result both short-circuit before touching the
// network; only a signer-produced spend bundle reaches PushTx.
func ExecuteCoinOpPlan(ctx context.Context, signer signing.Signer, pusher broadcast.Pusher, marketID, receiveAddress string, receivePuzzleHash [32]byte, plan ladder.CoinOpPlan, feeMojos int64, dryRun bool) CoinOpExecutionItem {
	item := CoinOpExecutionItem{OpType: plan.OpType, SizeBaseUnits: plan.SizeBaseUnits, OpCount: plan.OpCount, FeeMojos: feeMojos}

	if dryRun {
		item.Status = "planned"
		item.Reason = "dry_run"
		return item
	}

	result, err := signer.Sign(signing.SignRequest{
		MarketID:          marketID,
		OpType:            plan.OpType,
		SizeBaseUnits:     uint64(plan.SizeBaseUnits),
		OpCount:           plan.OpCount,
		ReceiveAddress:    receiveAddress,
		ReceivePuzzleHash: receivePuzzleHash,
	})
	if err != nil {
		item.Status = "skipped"
		item.Reason = "signer_error:" + err.Error()
		return item
	}
	if result.Status != "executed" || result.SpendBundleHex == "" {
		item.Status = "skipped"
		reason := result.Reason
		if reason == "" {
			reason = "signer_skipped"
		}
		item.Reason = reason
		item.OperationID = result.OperationID
		return item
	}

	pushResult := broadcast.PushTx(ctx, pusher, result.SpendBundleHex)
	if pushResult.Status != "executed" {
		item.Status = "skipped"
		item.Reason = "broadcast_failed:" + pushResult.Reason
		item.OperationID = result.OperationID
		return item
	}

	item.Status = "executed"
	item.Reason = "broadcast_success"
	item.OperationID = pushResult.OperationID
	return item
}
