package circuit

import (
	"encoding/binary"
	"testing"

	"github.com/zvault/core/pkg/accumulator"
	"github.com/zvault/core/pkg/field"
	"github.com/zvault/core/pkg/types"
)

func TestAssembleClaimInputsMatchesTreeState(t *testing.T) {
	const depth = 8
	tree := accumulator.NewTree(depth)

	commitment := field.FromUint64(42)
	leafIndex, err := tree.Append(commitment)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	stealthPriv := field.FromUint64(1)
	amount := field.FromUint64(1000)
	nullifierHash := field.FromUint64(2)
	recipient := field.FromUint64(3)

	in, err := AssembleClaimInputs(tree, stealthPriv, amount, field.FromUint64(leafIndex), nullifierHash, recipient, commitment)
	if err != nil {
		t.Fatalf("AssembleClaimInputs: %v", err)
	}

	if !in.MerkleRoot.Equal(tree.Root()) {
		t.Fatal("assembled MerkleRoot must equal the tree's current root")
	}
	if len(in.Siblings) != depth || len(in.Indices) != depth {
		t.Fatalf("expected %d siblings/indices, got %d/%d", depth, len(in.Siblings), len(in.Indices))
	}

	recomputed := accumulator.VerifyPath(commitment, accumulator.Path{
		LeafIndex: leafIndex,
		Siblings:  in.Siblings,
		Indices:   pathIndicesFromFieldElements(in.Indices),
		Root:      in.MerkleRoot,
	})
	if !recomputed.Equal(tree.Root()) {
		t.Fatal("witness siblings/indices must fold back to the tree root")
	}

	public := in.Public()
	if len(public) != 4 {
		t.Fatalf("expected 4 public inputs for claim circuit, got %d", len(public))
	}
	if !public[0].Equal(tree.Root()) || !public[1].Equal(nullifierHash) || !public[2].Equal(amount) || !public[3].Equal(recipient) {
		t.Fatal("public input order does not match the claim instruction layout")
	}
}

func TestAssembleClaimInputsRejectsUnknownCommitment(t *testing.T) {
	tree := accumulator.NewTree(8)
	if _, err := tree.Append(field.FromUint64(1)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	_, err := AssembleClaimInputs(tree, field.Zero(), field.Zero(), field.Zero(), field.Zero(), field.Zero(), field.FromUint64(999))
	if err == nil {
		t.Fatal("expected an error assembling inputs for a commitment never appended")
	}
}

func TestEncodeClaimProofRoundTripsAmount(t *testing.T) {
	tree := accumulator.NewTree(4)
	commitment := field.FromUint64(7)
	leafIndex, err := tree.Append(commitment)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	in, err := AssembleClaimInputs(tree, field.FromUint64(1), field.FromUint64(500), field.FromUint64(leafIndex), field.FromUint64(2), field.FromUint64(3), commitment)
	if err != nil {
		t.Fatalf("AssembleClaimInputs: %v", err)
	}

	var recipientAddr types.Address
	var vkHash types.Hash32
	data := EncodeClaimProof(in, recipientAddr, vkHash, []byte{0xAB, 0xCD})
	if len(data) == 0 {
		t.Fatal("expected non-empty encoded claim instruction")
	}
	// discriminator (1) + proof-source (1) + merkleRoot (32) + nullifierHash (32)
	const amountOffset = 1 + 1 + 32 + 32
	if got := binary.LittleEndian.Uint64(data[amountOffset : amountOffset+8]); got != 500 {
		t.Fatalf("expected encoded amount 500, got %d", got)
	}
}

func pathIndicesFromFieldElements(fe []field.Element) []uint8 {
	out := make([]uint8, len(fe))
	for i, e := range fe {
		out[i] = uint8(e.BigInt().Uint64())
	}
	return out
}
