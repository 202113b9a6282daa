package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/zvault/core/pkg/accumulator"
	"github.com/zvault/core/pkg/chain"
	"github.com/zvault/core/pkg/field"
	"github.com/zvault/core/pkg/types"
)

type fakeChainReader struct {
	records     []chain.AnnouncementRecord
	onChainRoot field.Element
}

func (f *fakeChainReader) FetchAnnouncements(ctx context.Context) ([]chain.AnnouncementRecord, error) {
	return f.records, nil
}

func (f *fakeChainReader) FetchCommitmentTreeAccount(ctx context.Context) (chain.CommitmentTreeAccount, error) {
	var acc chain.CommitmentTreeAccount
	acc.CurrentRoot = f.onChainRoot.Hash32()
	acc.NextIndex = uint64(len(f.records))
	return acc, nil
}

func recordFor(t *testing.T, index uint64, seed uint64) chain.AnnouncementRecord {
	t.Helper()
	return chain.AnnouncementRecord{
		Commitment: field.FromUint64(seed).Hash32(),
		LeafIndex:  index,
	}
}

func TestResyncAgreesWithOnChainRoot(t *testing.T) {
	const depth = 6
	records := []chain.AnnouncementRecord{
		recordFor(t, 0, 1),
		recordFor(t, 1, 2),
		recordFor(t, 2, 3),
	}

	reference := accumulator.NewTree(depth)
	for _, rec := range records {
		if _, err := reference.Append(field.FromHash32(rec.Commitment)); err != nil {
			t.Fatalf("reference Append: %v", err)
		}
	}

	reader := &fakeChainReader{records: records, onChainRoot: reference.Root()}
	idx := New(depth, reader, nil, nil)

	if err := idx.Resync(context.Background()); err != nil {
		t.Fatalf("expected Resync to succeed when roots agree, got %v", err)
	}
	if !idx.Root().Equal(reference.Root()) {
		t.Fatal("indexer root should match the replayed reference tree")
	}
}

func TestResyncDetectsDivergence(t *testing.T) {
	const depth = 6
	records := []chain.AnnouncementRecord{
		recordFor(t, 0, 1),
		recordFor(t, 1, 2),
	}

	// The on-chain root is claimed to be the root after a third,
	// never-announced leaf — locally replaying just these two
	// announcements can never reach it.
	diverged := accumulator.NewTree(depth)
	for _, rec := range records {
		if _, err := diverged.Append(field.FromHash32(rec.Commitment)); err != nil {
			t.Fatalf("diverged Append: %v", err)
		}
	}
	if _, err := diverged.Append(field.FromUint64(999)); err != nil {
		t.Fatalf("diverged Append extra leaf: %v", err)
	}

	reader := &fakeChainReader{records: records, onChainRoot: diverged.Root()}
	idx := New(depth, reader, nil, nil)

	preRoot := idx.Root()
	err := idx.Resync(context.Background())
	if !errors.Is(err, types.ErrSyncDivergence) {
		t.Fatalf("expected ErrSyncDivergence, got %v", err)
	}

	// A detected divergence must not be silently accepted: the tree
	// now holds the replayed-but-unverified state, which differs from
	// both the pre-resync tree and the (wrong) on-chain claim. Callers
	// must treat a Resync error as fatal rather than proceeding to
	// serve proofs against it.
	if idx.Root().Equal(preRoot) || idx.Root().Equal(diverged.Root()) {
		t.Fatal("unexpected: replayed root matches the pre-resync root or the diverged claim")
	}
}
