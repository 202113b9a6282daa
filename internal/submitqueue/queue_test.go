package submitqueue

import (
	"testing"

	"github.com/zvault/core/pkg/types"
)

func TestAddRejectsDuplicateNullifier(t *testing.T) {
	q := New(DefaultConfig())
	nh := types.Hash32{1, 2, 3}

	if err := q.Add(&Submission{NullifierHash: nh}); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	if err := q.Add(&Submission{NullifierHash: nh}); err != types.ErrNotSpendable {
		t.Fatalf("expected ErrNotSpendable on duplicate nullifier, got %v", err)
	}
}

func TestRemoveThenReAdd(t *testing.T) {
	q := New(DefaultConfig())
	nh := types.Hash32{4, 5, 6}

	if err := q.Add(&Submission{NullifierHash: nh}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	q.Remove(nh)
	if q.Has(nh) {
		t.Fatal("expected submission to be gone after Remove")
	}
	if err := q.Add(&Submission{NullifierHash: nh}); err != nil {
		t.Fatalf("re-Add after Remove should succeed, got %v", err)
	}
}

func TestEvictionOnOverflow(t *testing.T) {
	q := New(Config{MaxSize: 2})
	for i := 0; i < 3; i++ {
		nh := types.Hash32{byte(i)}
		if err := q.Add(&Submission{NullifierHash: nh}); err != nil {
			t.Fatalf("Add(%d): %v", i, err)
		}
	}
	if q.Len() != 2 {
		t.Fatalf("expected queue capped at 2, got %d", q.Len())
	}
	if q.Has(types.Hash32{0}) {
		t.Fatal("expected the oldest submission to have been evicted")
	}
}
