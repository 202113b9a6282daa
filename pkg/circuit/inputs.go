// Package circuit assembles the public/private witness for the four
// SNARK circuits (claim, spend-split, spend-partial-public,
// partial-withdraw) and marshals them to the wire order the on-chain
// verifier expects. It does not implement a SNARK prover: ProverClient
// is the boundary to the real UltraHonk prover, grounded on the
// teacher's own CircuitManager/ProofVerifier-style seam
// (internal/zkp/circuits.go) but re-architected per the "exceptions for
// control flow become explicit result types" redesign — Prove returns
// (proof, error) rather than panicking or hiding failure behind a
// boolean.
package circuit

import (
	"context"

	"github.com/zvault/core/pkg/accumulator"
	"github.com/zvault/core/pkg/chain"
	"github.com/zvault/core/pkg/field"
	"github.com/zvault/core/pkg/types"
)

// Kind identifies which of the four circuits a set of inputs targets.
type Kind uint8

const (
	KindClaim Kind = iota
	KindSpendSplit
	KindSpendPartialPublic
	KindPartialWithdraw
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindClaim:
		return "claim"
	case KindSpendSplit:
		return "spend-split"
	case KindSpendPartialPublic:
		return "spend-partial-public"
	case KindPartialWithdraw:
		return "partial-withdraw"
	default:
		return "unknown"
	}
}

// ProverClient is the boundary to an external UltraHonk/Barretenberg
// prover process. The core never implements pairings or the real
// proving system; it marshals inputs and consumes proof bytes.
type ProverClient interface {
	Prove(ctx context.Context, kind Kind, public, private []field.Element) ([]byte, error)
}

// ClaimInputs holds the private and public witness for the claim
// circuit (spec.md §4.5).
type ClaimInputs struct {
	// Private.
	StealthPriv field.Element `public:"false"`
	Amount      field.Element `public:"false"`
	LeafIndex   field.Element `public:"false"`
	Siblings    []field.Element `public:"false"`
	Indices     []field.Element `public:"false"`

	// Public.
	MerkleRoot    field.Element `public:"true"`
	NullifierHash field.Element `public:"true"`
	PublicAmount  field.Element `public:"true"`
	Recipient     field.Element `public:"true"`
}

// Public returns the ordered public inputs, matching the on-chain
// marshal order of spec.md §6's claim instruction layout.
func (in ClaimInputs) Public() []field.Element {
	return []field.Element{in.MerkleRoot, in.NullifierHash, in.PublicAmount, in.Recipient}
}

// Private returns the ordered private witness.
func (in ClaimInputs) Private() []field.Element {
	out := []field.Element{in.StealthPriv, in.Amount, in.LeafIndex}
	out = append(out, in.Siblings...)
	out = append(out, in.Indices...)
	return out
}

// OutputStealth is one output note's stealth blob, used by the split and
// partial-public circuits.
type OutputStealth struct {
	StealthPubX             field.Element
	Amount                  field.Element
	EphemeralPubX           field.Element
	EncryptedAmountWithSign field.Element
}

// SpendSplitInputs holds the witness for the spend-split circuit:
// consumes one note, produces two (spec.md §4.5).
type SpendSplitInputs struct {
	// Private (input note).
	StealthPriv field.Element   `public:"false"`
	Amount      field.Element   `public:"false"`
	LeafIndex   field.Element   `public:"false"`
	Siblings    []field.Element `public:"false"`
	Indices     []field.Element `public:"false"`
	Outputs     [2]OutputStealth `public:"false"`

	// Public.
	MerkleRoot        field.Element `public:"true"`
	NullifierHash     field.Element `public:"true"`
	OutputCommitment1 field.Element `public:"true"`
	OutputCommitment2 field.Element `public:"true"`
}

// Public returns the ordered public inputs, including the four output
// stealth blob components per spec.md §4.5's spend-split layout.
func (in SpendSplitInputs) Public() []field.Element {
	out := []field.Element{in.MerkleRoot, in.NullifierHash, in.OutputCommitment1, in.OutputCommitment2}
	for _, o := range in.Outputs {
		out = append(out, o.EphemeralPubX, o.EncryptedAmountWithSign)
	}
	return out
}

// SpendPartialPublicInputs holds the witness for the spend-partial-
// public circuit: consumes one note, sends part publicly to an
// address, keeps the remainder shielded as change (spec.md §4.5).
type SpendPartialPublicInputs struct {
	// Private.
	StealthPriv field.Element   `public:"false"`
	Amount      field.Element   `public:"false"`
	LeafIndex   field.Element   `public:"false"`
	Siblings    []field.Element `public:"false"`
	Indices     []field.Element `public:"false"`
	Change      OutputStealth   `public:"false"`

	// Public.
	MerkleRoot       field.Element `public:"true"`
	NullifierHash    field.Element `public:"true"`
	PublicAmount     field.Element `public:"true"`
	ChangeCommitment field.Element `public:"true"`
	Recipient        field.Element `public:"true"`
}

// Public returns the ordered public inputs.
func (in SpendPartialPublicInputs) Public() []field.Element {
	return []field.Element{
		in.MerkleRoot, in.NullifierHash, in.PublicAmount,
		in.ChangeCommitment, in.Recipient,
		in.Change.EphemeralPubX, in.Change.EncryptedAmountWithSign,
	}
}

// PartialWithdrawInputs holds the witness for the partial-withdraw
// circuit: the older flow, same shape as spend-partial-public but over
// the 10-depth split tree (spec.md §4.5).
type PartialWithdrawInputs = SpendPartialPublicInputs

// AssembleClaimInputs runs spec.md §4.5's claim-path algorithm: locate
// the note's commitment in tree, fetch and locally verify its Merkle
// proof, and return the fully assembled witness. Callers are
// responsible for parsing the claim link / deriving the note before
// calling this (pkg/chain.DeriveLegacyNote or pkg/keys for the stealth
// path) — this function only needs the derived values.
func AssembleClaimInputs(tree *accumulator.Tree, stealthPriv, amount, leafIndex, nullifierHash, recipient, commitment field.Element) (ClaimInputs, error) {
	path, err := tree.Proof(commitment)
	if err != nil {
		return ClaimInputs{}, err
	}

	recomputed := accumulator.VerifyPath(commitment, path)
	if !recomputed.Equal(tree.Root()) {
		return ClaimInputs{}, types.ErrStaleRoot
	}

	indices := make([]field.Element, len(path.Indices))
	for i, b := range path.Indices {
		indices[i] = field.FromUint64(uint64(b))
	}

	return ClaimInputs{
		StealthPriv:   stealthPriv,
		Amount:        amount,
		LeafIndex:     leafIndex,
		Siblings:      path.Siblings,
		Indices:       indices,
		MerkleRoot:    tree.Root(),
		NullifierHash: nullifierHash,
		PublicAmount:  amount,
		Recipient:     recipient,
	}, nil
}

// EncodeClaimProof packages assembled inputs and prover output bytes
// into the on-chain claim instruction per spec.md §6.
func EncodeClaimProof(in ClaimInputs, recipientAddr types.Address, vkHash types.Hash32, proof []byte) []byte {
	return chain.EncodeClaimInstruction(chain.ClaimInstructionData{
		ProofInline:           true,
		MerkleRoot:            in.MerkleRoot.Hash32(),
		NullifierHash:         in.NullifierHash.Hash32(),
		Amount:                in.PublicAmount.BigInt().Uint64(),
		RecipientFieldReduced: recipientAddr,
		VKHash:                vkHash,
		Proof:                 proof,
	})
}
