package signing

import "github.com/hoffmang9/greenfloor/internal/chia"

// SignRequest is the backend-agnostic input to a Signer: a coin-op or
// offer plan plus the coins and address it spends against, ported from
// chia_keys_signer.py's backend_request shape.
type SignRequest struct {
	MarketID          string
	OpType            string // "split" | "combine" | "offer"
	SizeBaseUnits     uint64
	OpCount           int
	TargetTotalUnits  uint64
	ReceiveAddress    string
	ReceivePuzzleHash [32]byte
	SelectedCoins     []chia.Coin
}

// SignResult mirrors chia_keys_signer.py's {status, reason,
// operation_id, spend_bundle_hex} response shape: a signer can
// execute, skip (with a reason), or error.
type SignResult struct {
	Status         string // "executed" | "skipped"
	Reason         string
	OperationID    string
	SpendBundleHex string
}

// Signer is spec §9's "Pluggable signer backends" capability trait:
// InProcessSigner, KmsSigner, and ExternalCommandSigner all satisfy
// this, chosen by configuration; the daemon cycle never cares which.
type Signer interface {
	Sign(req SignRequest) (SignResult, error)
}
