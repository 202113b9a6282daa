// Package types defines the shared value types and the error taxonomy
// used across the zVault cryptographic core.
package types

import "errors"

// Error taxonomy. Every package in this module reports failures using one
// of these sentinels (wrapped with call-site context via fmt.Errorf and
// matched by callers with errors.Is), per the propagation policy of the
// specification's error handling design.
var (
	// ErrInvalidInput covers malformed hex, wrong length, non-canonical
	// point encodings, and amounts out of range.
	ErrInvalidInput = errors.New("zvault: invalid input")

	// ErrInvalidPoint indicates a point is not on the curve, or is the
	// identity where disallowed.
	ErrInvalidPoint = errors.New("zvault: invalid curve point")

	// ErrNotFound covers an unindexed commitment, a missing announcement,
	// or a leaf index out of bounds.
	ErrNotFound = errors.New("zvault: not found")

	// ErrTreeFull indicates nextIndex has reached 2^depth.
	ErrTreeFull = errors.New("zvault: commitment tree full")

	// ErrStaleRoot indicates a historical root is not present in the
	// 100-entry ring buffer.
	ErrStaleRoot = errors.New("zvault: root not in history")

	// ErrSyncDivergence indicates the locally rebuilt root disagrees with
	// the on-chain root. Fatal: never auto-recovered.
	ErrSyncDivergence = errors.New("zvault: sync divergence")

	// ErrWalletRejected indicates the user declined a signature request.
	ErrWalletRejected = errors.New("zvault: wallet rejected request")

	// ErrSignatureFailure indicates a transport-level signing failure.
	ErrSignatureFailure = errors.New("zvault: signature failure")

	// ErrProofGenerationFailed is surfaced verbatim from the prover.
	ErrProofGenerationFailed = errors.New("zvault: proof generation failed")

	// ErrNotSpendable indicates the nullifier record already exists
	// on-chain (double-spend).
	ErrNotSpendable = errors.New("zvault: nullifier already spent")

	// ErrConfigError indicates missing or malformed environment
	// configuration at startup.
	ErrConfigError = errors.New("zvault: configuration error")
)
