// Package wallet defines the signing boundary key derivation is driven
// through. The original "function property" wallet adapter (an object
// carrying a signMessage callback) becomes the one-method interface
// below; every key-derivation entrypoint takes it polymorphically
// rather than a concrete wallet type.
package wallet

import (
	"context"

	"github.com/zvault/core/pkg/types"
)

// DomainMessage is the fixed message signed for key derivation
// (spec.md §4.3 step 1).
const DomainMessage = "zVault key derivation v1"

// Signer is anything capable of producing a signature over an
// arbitrary message, typically backed by a browser extension, hardware
// device, or CLI-held private key.
type Signer interface {
	// Sign returns the raw signature bytes over msg. Returns
	// types.ErrWalletRejected if the user declined, or
	// types.ErrSignatureFailure on any transport-level error.
	Sign(ctx context.Context, msg []byte) ([]byte, error)
}

// KeySource is the tagged union the spec calls for: "a wallet adapter
// OR a pre-derived key pair". Exactly one of Wallet or Derived is set;
// callers branch on which.
type KeySource struct {
	Wallet  Signer
	Derived *DerivedKeyMaterial
}

// DerivedKeyMaterial holds the raw seed bytes for a key pair already
// derived in a previous session, letting a caller skip re-prompting the
// wallet. Kept at the wallet package boundary rather than pkg/keys so
// keys never depends on this package's transport-facing concerns.
type DerivedKeyMaterial struct {
	SeedSpend [32]byte
	SeedView  [32]byte
}

// FromSigner wraps a Signer into a KeySource.
func FromSigner(s Signer) KeySource {
	return KeySource{Wallet: s}
}

// FromDerived wraps pre-derived seed material into a KeySource.
func FromDerived(m *DerivedKeyMaterial) KeySource {
	return KeySource{Derived: m}
}

// StaticSigner is a Signer backed by a fixed in-memory key, for CLI and
// test use where no interactive wallet is present.
type StaticSigner struct {
	sign func(ctx context.Context, msg []byte) ([]byte, error)
}

// NewStaticSigner builds a StaticSigner from a plain signing function,
// e.g. one closing over an ecdsa.PrivateKey held by the CLI.
func NewStaticSigner(sign func(ctx context.Context, msg []byte) ([]byte, error)) *StaticSigner {
	return &StaticSigner{sign: sign}
}

// Sign implements Signer.
func (s *StaticSigner) Sign(ctx context.Context, msg []byte) ([]byte, error) {
	sig, err := s.sign(ctx, msg)
	if err != nil {
		return nil, types.ErrSignatureFailure
	}
	return sig, nil
}
