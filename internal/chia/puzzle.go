package chia

// PuzzleRunner is the opaque CLVM execution boundary: spec §1 explicitly
// puts "the CAT puzzle and offer-encoding helpers" and running the
// blockchain virtual machine out of scope. Every place the core would
// otherwise need to execute a puzzle goes through this interface instead,
// so control flow (CAT provenance walking, AGG_SIG target enumeration,
// standard-puzzle wrapping, offer settlement encoding) is fully
// implemented and unit-testable against a fake, without embedding a CLVM
// interpreter.
type PuzzleRunner interface {
	// Run executes (puzzle_reveal, solution) under the consensus cost
	// bound and returns the resulting condition list.
	Run(puzzleReveal, solution []byte) ([]Condition, error)

	// WrapStandardSpend builds the (puzzle_reveal, solution) pair for a
	// standard-puzzle coin owned by syntheticPublicKey, delegating the
	// spend to the given inner conditions (CREATE_COIN, AGG_SIG_ME, ...).
	WrapStandardSpend(syntheticPublicKey []byte, conditions []Condition) (puzzleReveal, solution []byte, err error)

	// CatPuzzleHash computes cat_puzzle_hash(asset_id, inner_puzzle_hash).
	CatPuzzleHash(assetID, innerPuzzleHash [32]byte) [32]byte

	// StandardPuzzleHash computes standard_puzzle_hash(synthetic_pubkey).
	StandardPuzzleHash(syntheticPublicKey []byte) [32]byte

	// EncodeOffer delegates to the native offer-encoding helper: given an
	// input spend bundle and notarized requested payments, produces the
	// spend bundle encoding the offer's requested side. Byte-in byte-out
	// per spec §4.6.
	EncodeOffer(input SpendBundle, requested []NotarizedPayment) (SpendBundle, error)
}

// Condition is one parsed output of running a puzzle: an opcode plus its
// argument bytes. AGG_SIG_* conditions carry (pubkey, message) in Args;
// CREATE_COIN conditions carry (puzzle_hash, amount).
type Condition struct {
	Opcode ConditionOpcode
	Args   [][]byte
}

// NotarizedPayment is an offer's requested side: (nonce, [(puzzle_hash, amount)]).
type NotarizedPayment struct {
	Nonce    [32]byte
	Payments []Payment
}

type Payment struct {
	PuzzleHash [32]byte
	Amount     uint64
}
