// Package scanner implements the recipient-side announcement scanning
// service: given a wallet's viewing key, it pulls batches of
// announcements and runs keys.ScanAnnouncement over each concurrently,
// surfacing matched notes. Concurrent scanning is stdlib-only by
// design (sync.WaitGroup + buffered channel), mirroring the worker-pool
// idiom the teacher uses in internal/pouw/engine.go rather than pulling
// in golang.org/x/sync/errgroup, which is not in the pack's dependency
// set for this concern.
package scanner

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/zvault/core/pkg/chain"
	"github.com/zvault/core/pkg/keys"
)

// AnnouncementSource fetches the next batch of announcements to scan,
// e.g. from internal/indexer or directly from chain RPC.
type AnnouncementSource interface {
	FetchAnnouncements(ctx context.Context) ([]chain.AnnouncementRecord, error)
}

// MatchHandler is invoked once per successful scan match. It must not
// block for long; persistence and spend assembly should be dispatched
// asynchronously by the caller.
type MatchHandler func(note keys.Note, ephemeralPub [33]byte)

// Config controls scan concurrency and retry behavior.
type Config struct {
	Workers    int
	Backoff    BackoffConfig
}

// DefaultConfig returns sane defaults.
func DefaultConfig() Config {
	return Config{
		Workers: 8,
		Backoff: DefaultBackoffConfig(),
	}
}

// Scanner drives recipient-side scanning for one wallet key pair.
type Scanner struct {
	kp      *keys.KeyPair
	source  AnnouncementSource
	handler MatchHandler
	cfg     Config
}

// New builds a Scanner for kp, pulling batches from source and invoking
// handler for each match.
func New(kp *keys.KeyPair, source AnnouncementSource, handler MatchHandler, cfg Config) *Scanner {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	return &Scanner{kp: kp, source: source, handler: handler, cfg: cfg}
}

// ScanOnce fetches one batch of announcements and scans it concurrently
// across cfg.Workers goroutines, retrying the fetch itself with bounded
// exponential backoff on a transport error.
func (s *Scanner) ScanOnce(ctx context.Context) error {
	var (
		records []chain.AnnouncementRecord
		err     error
	)
	err = RetryWithBackoff(ctx, s.cfg.Backoff, func() error {
		records, err = s.source.FetchAnnouncements(ctx)
		return err
	})
	if err != nil {
		return err
	}

	jobs := make(chan chain.AnnouncementRecord, len(records))
	for _, r := range records {
		jobs <- r
	}
	close(jobs)

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				s.scanOne(rec)
			}
		}()
	}
	wg.Wait()
	return nil
}

func (s *Scanner) scanOne(rec chain.AnnouncementRecord) {
	ephemeralPub, err := decompressEphemeral(rec.EphemeralPub)
	if err != nil {
		log.Warn().Err(err).Msg("scanner: skipping announcement with invalid ephemeral pub")
		return
	}

	matched, _, err := keys.ScanAnnouncement(s.kp, ephemeralPub, rec.Amount, fieldFromHash(rec.Commitment))
	if err != nil {
		log.Warn().Err(err).Uint64("leaf_index", rec.LeafIndex).Msg("scanner: scan error")
		return
	}
	if !matched {
		return
	}

	note, err := keys.DeriveStealthPrivateKey(s.kp, ephemeralPub, rec.Amount, rec.LeafIndex)
	if err != nil {
		log.Error().Err(err).Uint64("leaf_index", rec.LeafIndex).Msg("scanner: matched announcement but failed to derive spend key")
		return
	}

	if s.handler != nil {
		s.handler(note, rec.EphemeralPub)
	}
}

// RunLoop scans repeatedly until ctx is canceled. Batches run back to
// back; there is no pause between them.
func (s *Scanner) RunLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if err := s.ScanOnce(ctx); err != nil {
			log.Warn().Err(err).Msg("scanner: scan batch failed")
		}
	}
}
