// Package accumulator implements the fixed-depth incremental Merkle
// tree commitments are appended to (spec.md §4.4). The append/frontier
// algorithm, sibling-reconstruction proof contract, and the in-memory
// state shape (nextIndex, frontier, root history, commitment index) all
// follow the teacher's CommitmentTree in internal/zkp/merkle.go, adapted
// from its sha256 hashPair to poseidon.MerkleNode. Append runs in
// O(depth) time over the cached frontier; the tree also keeps every
// appended leaf, and Proof rebuilds all 2^depth level-0 nodes from them.
package accumulator

import (
	"fmt"

	"github.com/zvault/core/pkg/field"
	"github.com/zvault/core/pkg/poseidon"
	"github.com/zvault/core/pkg/types"
)

// RootHistorySize is the capacity of the root history ring buffer.
const RootHistorySize = 100

// Tree is a fixed-depth, append-only Merkle accumulator over field
// elements. Not safe for concurrent use; internal/indexer owns a single
// instance and serializes all mutation through it (spec.md §5).
type Tree struct {
	depth    uint
	empty    []field.Element // empty[i] is the empty subtree root at level i
	frontier []field.Element

	nextIndex uint64
	root      field.Element

	rootHistory      [RootHistorySize]field.Element
	rootHistoryIndex uint32 // next slot to be written; see SPEC_FULL.md §9 item 3

	commitmentToLeaf map[field.Element]uint64
	leaves           []field.Element // kept for proof reconstruction
}

// NewTree builds an empty tree of the given depth. Two independently
// sized instances are used by the protocol: NewTree(20) for the main
// deposit tree, NewTree(10) for the split/partial-withdraw tree
// (chain.MainTreeDepth, chain.SplitTreeDepth).
func NewTree(depth uint) *Tree {
	empty := make([]field.Element, depth+1)
	empty[0] = field.Zero()
	for i := uint(1); i <= depth; i++ {
		empty[i] = poseidon.MerkleNode(empty[i-1], empty[i-1])
	}

	t := &Tree{
		depth:            depth,
		empty:            empty,
		frontier:         make([]field.Element, depth),
		root:             empty[depth],
		commitmentToLeaf: make(map[field.Element]uint64),
	}
	for i := range t.frontier {
		t.frontier[i] = empty[i]
	}
	return t
}

// Depth returns the tree's fixed depth D.
func (t *Tree) Depth() uint { return t.depth }

// Size returns the number of leaves appended so far.
func (t *Tree) Size() uint64 { return t.nextIndex }

// Root returns the current root.
func (t *Tree) Root() field.Element { return t.root }

// Append adds a new leaf, returning its index. Implements spec.md §4.4's
// append algorithm: walk up from the leaf, capturing the frontier value
// at each level the new path enters from the left, hashing against the
// stored frontier value where it enters from the right.
func (t *Tree) Append(leaf field.Element) (uint64, error) {
	if t.nextIndex >= uint64(1)<<t.depth {
		return 0, types.ErrTreeFull
	}

	index := t.nextIndex
	cur := leaf
	idx := index
	for lvl := uint(0); lvl < t.depth; lvl++ {
		if idx&1 == 0 {
			t.frontier[lvl] = cur
			cur = poseidon.MerkleNode(cur, t.empty[lvl])
		} else {
			cur = poseidon.MerkleNode(t.frontier[lvl], cur)
		}
		idx >>= 1
	}

	t.root = cur
	t.rootHistory[t.rootHistoryIndex] = cur
	t.rootHistoryIndex = (t.rootHistoryIndex + 1) % RootHistorySize

	t.leaves = append(t.leaves, leaf)
	t.commitmentToLeaf[leaf] = index
	t.nextIndex++
	return index, nil
}

// HasRoot reports whether r appears in the 100-entry root history.
func (t *Tree) HasRoot(r field.Element) bool {
	limit := RootHistorySize
	if t.nextIndex < uint64(limit) {
		limit = int(t.nextIndex)
	}
	for i := 0; i < limit; i++ {
		if t.rootHistory[i].Equal(r) {
			return true
		}
	}
	return false
}

// Path is a Merkle inclusion proof: siblings[i] is the sibling at level
// i, indices[i] is the bit of leafIndex at level i (0 = leaf is the left
// child).
type Path struct {
	LeafIndex uint64
	Siblings  []field.Element
	Indices   []uint8
	Root      field.Element
}

// LeafIndexOf returns the index a previously appended commitment was
// stored at.
func (t *Tree) LeafIndexOf(commitment field.Element) (uint64, error) {
	idx, ok := t.commitmentToLeaf[commitment]
	if !ok {
		return 0, types.ErrNotFound
	}
	return idx, nil
}

// Proof builds the Merkle path for a previously appended commitment.
// This implementation keeps every leaf (the spec's "MAY keep all leaves
// and recompute on demand" option) and recomputes the full subtree from
// scratch, trading memory for simplicity — the same tradeoff the
// teacher's CommitmentTree makes with its TreeStore-backed node cache,
// just without persisting the intermediate nodes.
func (t *Tree) Proof(commitment field.Element) (Path, error) {
	leafIndex, err := t.LeafIndexOf(commitment)
	if err != nil {
		return Path{}, err
	}

	siblings := make([]field.Element, t.depth)
	indices := make([]uint8, t.depth)

	// level-0 nodes: actual leaves where present, Z[0] beyond nextIndex.
	levelSize := uint64(1) << t.depth
	level := make([]field.Element, levelSize)
	for i := uint64(0); i < levelSize; i++ {
		if i < uint64(len(t.leaves)) {
			level[i] = t.leaves[i]
		} else {
			level[i] = t.empty[0]
		}
	}

	idx := leafIndex
	for lvl := uint(0); lvl < t.depth; lvl++ {
		siblingIdx := idx ^ 1
		siblings[lvl] = level[siblingIdx]
		indices[lvl] = uint8(idx & 1)

		next := make([]field.Element, len(level)/2)
		for i := 0; i < len(next); i++ {
			next[i] = poseidon.MerkleNode(level[2*i], level[2*i+1])
		}
		level = next
		idx >>= 1
	}

	if len(level) != 1 {
		return Path{}, fmt.Errorf("accumulator: internal error, expected single root, got %d nodes", len(level))
	}

	return Path{
		LeafIndex: leafIndex,
		Siblings:  siblings,
		Indices:   indices,
		Root:      level[0],
	}, nil
}

// VerifyPath recomputes a root from a leaf and a claimed path and
// returns it; the caller compares it against the expected root. Used
// both by circuit.AssembleClaimInputs as a cheap local sanity check
// before handing inputs to the prover, and independently by tests.
func VerifyPath(leaf field.Element, path Path) field.Element {
	cur := leaf
	for lvl := 0; lvl < len(path.Siblings); lvl++ {
		if path.Indices[lvl] == 0 {
			cur = poseidon.MerkleNode(cur, path.Siblings[lvl])
		} else {
			cur = poseidon.MerkleNode(path.Siblings[lvl], cur)
		}
	}
	return cur
}
