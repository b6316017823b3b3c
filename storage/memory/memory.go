package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/LemuelVelez/api-workload-hub/internal/util"
	"github.com/LemuelVelez/api-workload-hub/storage"
)

const (
	// tokenHashLogLength is the number of hash characters included when logging.
	// Enough uniqueness for debugging while keeping logs free of usable keys.
	tokenHashLogLength = 8

	// DefaultSweepInterval is how often the background sweep removes expired
	// records when no custom interval is configured.
	DefaultSweepInterval = time.Minute
)

// Store is an in-memory implementation of storage.ResetTokenStore.
//
// A single mutex guards the map so TakeIfValid is one critical section:
// under concurrent consumption of the same token hash, exactly one caller
// receives the record and every other caller observes not-found.
type Store struct {
	mu      sync.Mutex
	records map[string]*storage.ResetRequest

	// now is the clock used for expiry checks. Injectable for tests.
	now func() time.Time

	sweepInterval time.Duration
	stopSweep     chan struct{}
	closeOnce     sync.Once
	logger        *slog.Logger
}

// Compile-time interface check
var _ storage.ResetTokenStore = (*Store)(nil)

// New creates an in-memory store with the default sweep interval (1 minute).
func New() *Store {
	return NewWithInterval(DefaultSweepInterval)
}

// NewWithInterval creates an in-memory store with a custom sweep interval.
// If sweepInterval is 0 or negative, the default of 1 minute is used.
func NewWithInterval(sweepInterval time.Duration) *Store {
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}

	s := &Store{
		records:       make(map[string]*storage.ResetRequest),
		now:           time.Now,
		sweepInterval: sweepInterval,
		stopSweep:     make(chan struct{}),
		logger:        slog.Default(),
	}

	go s.sweepLoop()

	return s
}

// SetLogger sets the structured logger used by the store.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

// SetClock overrides the store's time source. Intended for tests that need
// deterministic expiry behavior.
func (s *Store) SetClock(now func() time.Time) {
	if now == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Put inserts a reset request under its token hash with the given TTL.
// The stored record is a copy; ExpiresAt and CreatedAt are stamped here so
// every record carries a consistent clock.
func (s *Store) Put(ctx context.Context, record *storage.ResetRequest, ttl time.Duration) error {
	if record == nil || record.TokenHash == "" {
		return fmt.Errorf("invalid reset request: missing token hash")
	}
	if record.UserID == "" {
		return fmt.Errorf("invalid reset request: missing user id")
	}
	if ttl <= 0 {
		return fmt.Errorf("invalid reset request: non-positive ttl %v", ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stored := *record
	stored.CreatedAt = now
	stored.ExpiresAt = now.Add(ttl)
	s.records[stored.TokenHash] = &stored

	s.logger.Debug("Stored reset request",
		"token_hash_prefix", util.SafeTruncate(stored.TokenHash, tokenHashLogLength),
		"expires_at", stored.ExpiresAt)

	return nil
}

// TakeIfValid atomically removes and returns the record for tokenHash.
//
// SECURITY: The lookup, expiry check, and delete happen under one lock so
// only a single concurrent caller can ever obtain a given record. An expired
// record is removed as a side effect and reported as storage.ErrTokenExpired.
func (s *Store) TakeIfValid(ctx context.Context, tokenHash string) (*storage.ResetRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[tokenHash]
	if !ok {
		return nil, fmt.Errorf("%w: no record for presented token", storage.ErrTokenNotFound)
	}

	// One-time bearer tokens get a strict expiry comparison, no clock skew
	// grace: validity beyond ExpiresAt would extend the capability.
	if s.now().After(record.ExpiresAt) {
		delete(s.records, tokenHash)
		s.logger.Debug("Removed expired reset request on read",
			"token_hash_prefix", util.SafeTruncate(tokenHash, tokenHashLogLength))
		return nil, fmt.Errorf("%w: record past expiry", storage.ErrTokenExpired)
	}

	delete(s.records, tokenHash)

	s.logger.Debug("Atomically consumed reset request",
		"token_hash_prefix", util.SafeTruncate(tokenHash, tokenHashLogLength))

	return record, nil
}

// Sweep removes all expired records and returns the number dropped.
func (s *Store) Sweep(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked()
}

// sweepLocked removes expired records. Must be called with the mutex held.
func (s *Store) sweepLocked() int {
	now := s.now()
	swept := 0
	for hash, record := range s.records {
		if now.After(record.ExpiresAt) {
			delete(s.records, hash)
			swept++
		}
	}
	if swept > 0 {
		s.logger.Debug("Swept expired reset requests", "count", swept)
	}
	return swept
}

// Len reports the number of live records, including not-yet-swept expired ones.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Close stops the background sweep goroutine. Safe to call multiple times.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopSweep)
	})
	return nil
}

func (s *Store) sweepLoop() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopSweep:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.sweepLocked()
			s.mu.Unlock()
		}
	}
}
