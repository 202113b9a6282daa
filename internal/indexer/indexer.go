// Package indexer is the single-writer actor that owns the commitment
// accumulator, replays on-chain announcements into it, and keeps the
// Postgres mirror and gossip relay in sync (spec.md §5 "the tree is a
// single-writer resource"; SPEC_FULL.md §4.4 elaboration). All tree
// mutation is serialized by the Indexer's write lock; read-only
// queries may run concurrently against the tree, matching the
// teacher's RWMutex pattern (internal/mempool, internal/p2p) adapted
// here to a single embedded mutex around the one *accumulator.Tree.
package indexer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zvault/core/internal/gossip"
	"github.com/zvault/core/internal/storage"
	"github.com/zvault/core/pkg/accumulator"
	"github.com/zvault/core/pkg/chain"
	"github.com/zvault/core/pkg/field"
	"github.com/zvault/core/pkg/types"
)

// ChainReader is the boundary to the on-chain RPC: fetching
// announcement accounts and the authoritative CommitmentTree mirror.
// Kept as an interface so cmd/zvaultd can wire a real RPC client while
// tests wire an in-memory fake.
type ChainReader interface {
	FetchAnnouncements(ctx context.Context) ([]chain.AnnouncementRecord, error)
	FetchCommitmentTreeAccount(ctx context.Context) (chain.CommitmentTreeAccount, error)
}

// Indexer owns one accumulator.Tree and keeps it consistent with
// on-chain state.
type Indexer struct {
	mu   sync.RWMutex
	tree *accumulator.Tree

	reader ChainReader
	store  *storage.Store
	relay  *gossip.Node
}

// New builds an Indexer around a freshly constructed tree of the given
// depth. Call Resync before serving traffic.
func New(depth uint, reader ChainReader, store *storage.Store, relay *gossip.Node) *Indexer {
	return &Indexer{
		tree:   accumulator.NewTree(depth),
		reader: reader,
		store:  store,
		relay:  relay,
	}
}

// Resync implements spec.md §4.4's sync protocol: fetch all
// announcements ordered by leafIndex, replay Append in order, and
// verify the resulting root against the on-chain currentRoot. A
// mismatch is a hard error — it is never auto-corrected.
func (idx *Indexer) Resync(ctx context.Context) error {
	records, err := idx.reader.FetchAnnouncements(ctx)
	if err != nil {
		return fmt.Errorf("indexer: fetch announcements: %w", err)
	}

	onChainAccount, err := idx.reader.FetchCommitmentTreeAccount(ctx)
	if err != nil {
		return fmt.Errorf("indexer: fetch commitment tree account: %w", err)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.tree = accumulator.NewTree(idx.tree.Depth())
	for _, rec := range sortByLeafIndex(records) {
		commitment := field.FromHash32(rec.Commitment)
		if _, err := idx.tree.Append(commitment); err != nil {
			return fmt.Errorf("indexer: replay announcement at leaf %d: %w", rec.LeafIndex, err)
		}
	}

	onChainRoot := field.FromHash32(onChainAccount.CurrentRoot)
	if !idx.tree.Root().Equal(onChainRoot) {
		log.Error().
			Str("local_root", idx.tree.Root().Hash32().String()).
			Str("chain_root", onChainAccount.CurrentRoot.String()).
			Msg("indexer: root mismatch after resync")
		return types.ErrSyncDivergence
	}

	log.Info().Uint64("leaves", idx.tree.Size()).Msg("indexer: resync complete")
	return nil
}

// sortByLeafIndex returns records ordered by LeafIndex ascending,
// matching the storage query's ORDER BY leaf_index ASC.
func sortByLeafIndex(records []chain.AnnouncementRecord) []chain.AnnouncementRecord {
	out := make([]chain.AnnouncementRecord, len(records))
	copy(out, records)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].LeafIndex > out[j].LeafIndex; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// AppendAnnouncement appends a newly observed announcement's commitment
// to the tree, persists the announcement row, and relays it over
// gossip. This is the only path that mutates the tree outside Resync,
// and is expected to be driven by a single poller goroutine — concurrent
// callers still serialize correctly via idx.mu, but ordering against
// on-chain leafIndex is the caller's responsibility (spec.md §5
// "Tree append is strictly sequential").
func (idx *Indexer) AppendAnnouncement(ctx context.Context, rec chain.AnnouncementRecord, ephemeralPub [33]byte, bump byte) error {
	idx.mu.Lock()
	leafIndex, err := idx.tree.Append(field.FromHash32(rec.Commitment))
	idx.mu.Unlock()
	if err != nil {
		return fmt.Errorf("indexer: append: %w", err)
	}
	if leafIndex != rec.LeafIndex {
		return fmt.Errorf("indexer: leaf index mismatch: local=%d chain=%d: %w", leafIndex, rec.LeafIndex, types.ErrSyncDivergence)
	}

	if idx.store != nil {
		if err := idx.store.SaveAnnouncement(ctx, storage.AnnouncementRow{
			EphemeralPub: ephemeralPub,
			Amount:       rec.Amount,
			Commitment:   rec.Commitment,
			LeafIndex:    rec.LeafIndex,
			CreatedAt:    rec.CreatedAt,
		}); err != nil {
			return err
		}
	}

	if idx.relay != nil {
		full := rec
		full.Bump = bump
		full.EphemeralPub = ephemeralPub
		if err := idx.relay.Publish(ctx, full); err != nil {
			log.Warn().Err(err).Msg("indexer: gossip publish failed, continuing")
		}
	}
	return nil
}

// Root returns the current accumulator root. Safe for concurrent use.
func (idx *Indexer) Root() field.Element {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.tree.Root()
}

// Proof returns a Merkle proof for commitment, read-only against the
// tree's current state.
func (idx *Indexer) Proof(commitment field.Element) (accumulator.Path, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.tree.Proof(commitment)
}

// Snapshot persists the tree's current state to Postgres, for fast
// restart without a full Resync (SPEC_FULL.md §3.1 tree_snapshots).
func (idx *Indexer) Snapshot(ctx context.Context) error {
	if idx.store == nil {
		return nil
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.store.SaveTreeSnapshot(ctx, storage.TreeSnapshotRow{
		Depth:       int(idx.tree.Depth()),
		NextIndex:   idx.tree.Size(),
		CurrentRoot: idx.tree.Root().Hash32(),
	})
}

// RunSnapshotLoop periodically persists the tree until ctx is canceled.
func (idx *Indexer) RunSnapshotLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := idx.Snapshot(ctx); err != nil {
				log.Warn().Err(err).Msg("indexer: snapshot failed")
			}
		}
	}
}
