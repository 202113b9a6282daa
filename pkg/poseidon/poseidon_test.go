package poseidon

import (
	"math/rand"
	"testing"

	"github.com/zvault/core/pkg/field"
)

func TestHash2Deterministic(t *testing.T) {
	a := field.FromUint64(7)
	b := field.FromUint64(42)

	h1 := Hash2(a, b)
	h2 := Hash2(a, b)
	if !h1.Equal(h2) {
		t.Fatal("Hash2 must be deterministic for the same inputs")
	}

	h3 := Hash2(b, a)
	if h1.Equal(h3) {
		t.Fatal("Hash2 should not be commutative")
	}
}

func TestNullifierUniqueness(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	seen := make(map[field.Element]struct{}, 10000)

	for i := 0; i < 10000; i++ {
		stealthPriv := field.FromUint64(rng.Uint64())
		leafIndex := field.FromUint64(rng.Uint64())

		n := Nullifier(stealthPriv, leafIndex)
		nh := NullifierHash(n)

		if _, exists := seen[nh]; exists {
			t.Fatalf("unexpected nullifier hash collision at sample %d", i)
		}
		seen[nh] = struct{}{}
	}
}

func TestMerkleNodeOrderMatters(t *testing.T) {
	left := field.FromUint64(1)
	right := field.FromUint64(2)

	if MerkleNode(left, right).Equal(MerkleNode(right, left)) {
		t.Fatal("MerkleNode(left, right) should differ from MerkleNode(right, left)")
	}
}
