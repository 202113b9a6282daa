package accumulator

import (
	"testing"

	"github.com/zvault/core/pkg/field"
	"github.com/zvault/core/pkg/poseidon"
	"github.com/zvault/core/pkg/types"
)

func TestEmptyTreeRoot(t *testing.T) {
	tree := NewTree(20)
	if tree.Size() != 0 {
		t.Fatalf("expected size 0, got %d", tree.Size())
	}
	if !tree.Root().Equal(tree.empty[20]) {
		t.Fatal("empty tree's root must equal Z[D]")
	}

	if _, err := tree.Proof(field.FromUint64(1)); err == nil {
		t.Fatal("expected NotFound proving a commitment never appended")
	}
}

func TestSingleAppend(t *testing.T) {
	tree := NewTree(20)
	leaf := field.FromUint64(1)

	idx, err := tree.Append(leaf)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if idx != 0 {
		t.Fatalf("expected leaf index 0, got %d", idx)
	}

	want := poseidon.MerkleNode(leaf, tree.empty[0])
	for lvl := uint(1); lvl < 20; lvl++ {
		want = poseidon.MerkleNode(want, tree.empty[lvl])
	}
	if !tree.Root().Equal(want) {
		t.Fatal("single-append root does not match expected fold of empty siblings")
	}

	path, err := tree.Proof(leaf)
	if err != nil {
		t.Fatalf("Proof: %v", err)
	}
	for lvl := 0; lvl < 20; lvl++ {
		if !path.Siblings[lvl].Equal(tree.empty[lvl]) {
			t.Fatalf("expected sibling at level %d to be Z[%d]", lvl, lvl)
		}
		if path.Indices[lvl] != 0 {
			t.Fatalf("expected index 0 at level %d", lvl)
		}
	}
	if !tree.HasRoot(tree.Root()) {
		t.Fatal("root history must contain the root right after an append")
	}
}

func TestTwoAppends(t *testing.T) {
	tree := NewTree(4)
	leaf0 := field.FromUint64(1)
	leaf1 := field.FromUint64(2)

	if _, err := tree.Append(leaf0); err != nil {
		t.Fatalf("Append leaf0: %v", err)
	}
	if _, err := tree.Append(leaf1); err != nil {
		t.Fatalf("Append leaf1: %v", err)
	}

	path0, err := tree.Proof(leaf0)
	if err != nil {
		t.Fatalf("Proof(leaf0): %v", err)
	}
	path1, err := tree.Proof(leaf1)
	if err != nil {
		t.Fatalf("Proof(leaf1): %v", err)
	}

	if !path0.Siblings[0].Equal(leaf1) {
		t.Fatal("leaf0's level-0 sibling should be leaf1")
	}
	if !path1.Siblings[0].Equal(leaf0) {
		t.Fatal("leaf1's level-0 sibling should be leaf0")
	}

	root0 := VerifyPath(leaf0, path0)
	root1 := VerifyPath(leaf1, path1)
	if !root0.Equal(root1) || !root0.Equal(tree.Root()) {
		t.Fatal("both proofs must fold to the tree's current root")
	}
}

func TestAppendThenProveSequence(t *testing.T) {
	const depth = 8
	tree := NewTree(depth)

	for i := 0; i < 30; i++ {
		leaf := field.FromUint64(uint64(i) + 1)
		if _, err := tree.Append(leaf); err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
		path, err := tree.Proof(leaf)
		if err != nil {
			t.Fatalf("Proof(%d): %v", i, err)
		}
		if got := VerifyPath(leaf, path); !got.Equal(tree.Root()) {
			t.Fatalf("leaf %d: proof does not fold to current root", i)
		}
	}
}

func TestRootHistoryRecentWindow(t *testing.T) {
	tree := NewTree(6)
	var roots []field.Element
	for i := 0; i < 50; i++ {
		if _, err := tree.Append(field.FromUint64(uint64(i) + 1)); err != nil {
			t.Fatalf("Append: %v", err)
		}
		roots = append(roots, tree.Root())
	}
	for i, r := range roots {
		if !tree.HasRoot(r) {
			t.Fatalf("root %d should still be in the 100-entry history", i)
		}
	}
}

func TestTreeFull(t *testing.T) {
	tree := NewTree(2)
	for i := 0; i < 4; i++ {
		if _, err := tree.Append(field.FromUint64(uint64(i) + 1)); err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
	}
	if _, err := tree.Append(field.FromUint64(99)); err != types.ErrTreeFull {
		t.Fatalf("expected ErrTreeFull, got %v", err)
	}
}
