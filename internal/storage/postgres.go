// Package storage persists the indexer's announcement log, nullifier
// records, and tree snapshots to Postgres via pgx. Grounded on the
// teacher's internal/storage/postgres.go: the pgxpool.Pool wrapper,
// Config/DefaultConfig shape, connection-string assembly, and the
// parameterized "INSERT ... ON CONFLICT DO NOTHING" idiom are all kept;
// the schema itself is the one in SPEC_FULL.md §3.1, replacing the
// teacher's block/transaction/chain tables with announcements,
// nullifier_records, and tree_snapshots.
package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/zvault/core/pkg/types"
)

// Config holds Postgres connection parameters.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
}

// DefaultConfig returns sane local-development defaults.
func DefaultConfig() Config {
	return Config{
		Host:     "localhost",
		Port:     5432,
		User:     "zvault",
		Password: "zvault",
		Database: "zvault",
		SSLMode:  "disable",
		MaxConns: 10,
	}
}

// Store wraps a pgxpool.Pool with the queries internal/indexer needs.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to Postgres and verifies the connection with a Ping,
// matching the teacher's NewPostgresStore.
func New(ctx context.Context, cfg Config) (*Store, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode, cfg.MaxConns,
	)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("storage: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}

	log.Info().Str("host", cfg.Host).Str("database", cfg.Database).Msg("storage: connected")
	return &Store{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// AnnouncementRow is a single row of the announcements table.
type AnnouncementRow struct {
	EphemeralPub [33]byte
	Amount       uint64
	Commitment   types.Hash32
	LeafIndex    uint64
	CreatedAt    int64
}

// SaveAnnouncement inserts a new announcement row, ignoring a duplicate
// ephemeral_pub (an announcement is immutable once written, spec.md §3).
func (s *Store) SaveAnnouncement(ctx context.Context, a AnnouncementRow) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO announcements (ephemeral_pub, amount, commitment, leaf_index, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (ephemeral_pub) DO NOTHING
	`, a.EphemeralPub[:], a.Amount, a.Commitment[:], a.LeafIndex, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("storage: save announcement: %w", err)
	}
	return nil
}

// AnnouncementsOrderedByLeafIndex returns every announcement row sorted
// by leaf_index ascending, the order internal/indexer's Resync replays
// Append in (spec.md §4.4 Sync protocol).
func (s *Store) AnnouncementsOrderedByLeafIndex(ctx context.Context) ([]AnnouncementRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT ephemeral_pub, amount, commitment, leaf_index, created_at
		FROM announcements
		ORDER BY leaf_index ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("storage: query announcements: %w", err)
	}
	defer rows.Close()

	var out []AnnouncementRow
	for rows.Next() {
		var (
			ephemeralPub []byte
			commitment   []byte
			a            AnnouncementRow
		)
		if err := rows.Scan(&ephemeralPub, &a.Amount, &commitment, &a.LeafIndex, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan announcement: %w", err)
		}
		copy(a.EphemeralPub[:], ephemeralPub)
		a.Commitment = types.Hash32FromBytes(commitment)
		out = append(out, a)
	}
	return out, rows.Err()
}

// MarkNullifierSpent records that nullifierHash has been spent,
// optionally tagging the spending transaction and height. PDA
// existence on-chain is the authoritative double-spend guard; this row
// mirrors it for fast local lookups (spec.md §4.4 NullifierRecord).
func (s *Store) MarkNullifierSpent(ctx context.Context, nullifierHash types.Hash32, txHash []byte, height int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO nullifier_records (nullifier_hash, tx_hash, spent_at_height)
		VALUES ($1, $2, $3)
		ON CONFLICT (nullifier_hash) DO NOTHING
	`, nullifierHash[:], txHash, height)
	if err != nil {
		return fmt.Errorf("storage: mark nullifier spent: %w", err)
	}
	return nil
}

// IsNullifierSpent reports whether nullifierHash already has a record.
func (s *Store) IsNullifierSpent(ctx context.Context, nullifierHash types.Hash32) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM nullifier_records WHERE nullifier_hash = $1)
	`, nullifierHash[:]).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("storage: check nullifier: %w", err)
	}
	return exists, nil
}

// TreeSnapshotRow is the persisted state of one accumulator.Tree.
type TreeSnapshotRow struct {
	Depth         int
	NextIndex     uint64
	CurrentRoot   types.Hash32
	Frontier      [][]byte
	RootHistory   [][]byte
	RootHistoryIx int
}

// SaveTreeSnapshot upserts the single tree-snapshot row (id=1), matching
// the teacher's ON CONFLICT idiom.
func (s *Store) SaveTreeSnapshot(ctx context.Context, snap TreeSnapshotRow) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tree_snapshots (id, depth, next_index, current_root, frontier, root_history, root_history_ix)
		VALUES (1, $1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			depth = EXCLUDED.depth,
			next_index = EXCLUDED.next_index,
			current_root = EXCLUDED.current_root,
			frontier = EXCLUDED.frontier,
			root_history = EXCLUDED.root_history,
			root_history_ix = EXCLUDED.root_history_ix
	`, snap.Depth, snap.NextIndex, snap.CurrentRoot[:], snap.Frontier, snap.RootHistory, snap.RootHistoryIx)
	if err != nil {
		return fmt.Errorf("storage: save tree snapshot: %w", err)
	}
	return nil
}

// LoadTreeSnapshot fetches the persisted tree-snapshot row, if any.
func (s *Store) LoadTreeSnapshot(ctx context.Context) (*TreeSnapshotRow, error) {
	var snap TreeSnapshotRow
	var root []byte
	err := s.pool.QueryRow(ctx, `
		SELECT depth, next_index, current_root, frontier, root_history, root_history_ix
		FROM tree_snapshots WHERE id = 1
	`).Scan(&snap.Depth, &snap.NextIndex, &root, &snap.Frontier, &snap.RootHistory, &snap.RootHistoryIx)
	if err != nil {
		if err.Error() == "no rows in result set" {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: load tree snapshot: %w", err)
	}
	snap.CurrentRoot = types.Hash32FromBytes(root)
	return &snap, nil
}

// Schema is the DDL executed against a fresh database, per SPEC_FULL.md
// §3.1. Exposed as a constant so cmd/zvaultd can apply it on startup
// without a separate migration tool, matching the teacher's lack of any
// migration framework.
const Schema = `
CREATE TABLE IF NOT EXISTS announcements (
    ephemeral_pub   BYTEA PRIMARY KEY,
    amount          BIGINT NOT NULL,
    commitment      BYTEA NOT NULL,
    leaf_index      BIGINT NOT NULL UNIQUE,
    created_at      BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS nullifier_records (
    nullifier_hash  BYTEA PRIMARY KEY,
    tx_hash         BYTEA,
    spent_at_height BIGINT
);

CREATE TABLE IF NOT EXISTS tree_snapshots (
    id              SMALLINT PRIMARY KEY DEFAULT 1,
    depth           INT NOT NULL,
    next_index      BIGINT NOT NULL,
    current_root    BYTEA NOT NULL,
    frontier        BYTEA[] NOT NULL,
    root_history    BYTEA[] NOT NULL,
    root_history_ix INT NOT NULL
);
`

// ApplySchema runs the DDL in Schema. Idempotent.
func (s *Store) ApplySchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("storage: apply schema: %w", err)
	}
	return nil
}
