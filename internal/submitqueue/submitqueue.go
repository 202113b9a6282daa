// Package submitqueue holds pending claim/spend submissions awaiting
// on-chain confirmation, deduplicated by nullifier hash so the same
// note can never be queued for two concurrent spends. Adapted from the
// teacher's internal/mempool/mempool.go: the nullifier-index double-
// spend guard, the RWMutex-guarded map+slice shape, and the
// Config/DefaultConfig/Add/Remove/Has method set are kept; transaction
// fee-rate prioritization has no zVault analog (there is no block
// space being bid for) and is replaced with plain FIFO ordering by
// submission time.
package submitqueue

import (
	"sync"
	"time"

	"github.com/zvault/core/pkg/types"
)

// Submission is a pending claim or spend-split/spend-partial-public
// request awaiting on-chain confirmation.
type Submission struct {
	NullifierHash types.Hash32
	InstructionData []byte
	SubmittedAt     time.Time
}

// Config holds queue sizing.
type Config struct {
	MaxSize int
}

// DefaultConfig returns sane defaults.
func DefaultConfig() Config {
	return Config{MaxSize: 4096}
}

// Queue is a nullifier-deduplicated FIFO of pending submissions.
type Queue struct {
	mu sync.RWMutex

	byNullifier map[types.Hash32]*Submission
	order       []*Submission

	maxSize int
}

// New builds an empty queue.
func New(cfg Config) *Queue {
	if cfg.MaxSize == 0 {
		cfg = DefaultConfig()
	}
	return &Queue{
		byNullifier: make(map[types.Hash32]*Submission),
		maxSize:     cfg.MaxSize,
	}
}

// Add enqueues a submission. Returns types.ErrNotSpendable if a
// submission for the same nullifier is already pending — the caller
// should treat this as a concurrent double-spend attempt on the same
// note, not a transient error.
func (q *Queue) Add(s *Submission) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.byNullifier[s.NullifierHash]; exists {
		return types.ErrNotSpendable
	}
	if len(q.order) >= q.maxSize {
		q.evictOldest()
	}

	s.SubmittedAt = time.Now()
	q.byNullifier[s.NullifierHash] = s
	q.order = append(q.order, s)
	return nil
}

// evictOldest drops the longest-queued submission to make room. Caller
// must hold q.mu.
func (q *Queue) evictOldest() {
	if len(q.order) == 0 {
		return
	}
	oldest := q.order[0]
	q.order = q.order[1:]
	delete(q.byNullifier, oldest.NullifierHash)
}

// Remove drops a submission once it has confirmed or been rejected
// on-chain.
func (q *Queue) Remove(nullifierHash types.Hash32) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.byNullifier[nullifierHash]; !exists {
		return
	}
	delete(q.byNullifier, nullifierHash)
	for i, s := range q.order {
		if s.NullifierHash == nullifierHash {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
}

// Has reports whether a submission for nullifierHash is pending.
func (q *Queue) Has(nullifierHash types.Hash32) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	_, exists := q.byNullifier[nullifierHash]
	return exists
}

// Len returns the number of pending submissions.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.order)
}

// Oldest returns the submissions queued longest first, up to n (0 means
// all).
func (q *Queue) Oldest(n int) []*Submission {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if n <= 0 || n > len(q.order) {
		n = len(q.order)
	}
	out := make([]*Submission, n)
	copy(out, q.order[:n])
	return out
}
