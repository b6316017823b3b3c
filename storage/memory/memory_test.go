package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/LemuelVelez/api-workload-hub/internal/testutil"
	"github.com/LemuelVelez/api-workload-hub/storage"
)

func newTestStore(t *testing.T) (*Store, *testutil.MockTime) {
	t.Helper()
	s := NewWithInterval(time.Hour) // sweep loop stays out of the way
	t.Cleanup(func() { _ = s.Close() })

	clock := testutil.NewMockTime(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s.SetClock(clock.Now)
	return s, clock
}

func TestPutAndTakeIfValid(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	rec := &storage.ResetRequest{
		TokenHash: "abc123",
		UserID:    "user-1",
		Email:     "user@example.com",
	}
	testutil.AssertNoError(t, s.Put(ctx, rec, 15*time.Minute))
	testutil.AssertEqual(t, s.Len(), 1)

	got, err := s.TakeIfValid(ctx, "abc123")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got.UserID, "user-1")
	testutil.AssertEqual(t, got.Email, "user@example.com")
	testutil.AssertEqual(t, s.Len(), 0)
}

func TestTakeIfValidIsOneTimeUse(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	rec := &storage.ResetRequest{TokenHash: "once", UserID: "user-1", Email: "u@example.com"}
	testutil.AssertNoError(t, s.Put(ctx, rec, 15*time.Minute))

	_, err := s.TakeIfValid(ctx, "once")
	testutil.AssertNoError(t, err)

	_, err = s.TakeIfValid(ctx, "once")
	if !errors.Is(err, storage.ErrTokenNotFound) {
		t.Fatalf("second take: got %v, want ErrTokenNotFound", err)
	}
}

func TestTakeIfValidUnknownHash(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.TakeIfValid(context.Background(), "never-issued")
	if !errors.Is(err, storage.ErrTokenNotFound) {
		t.Fatalf("got %v, want ErrTokenNotFound", err)
	}
}

func TestTakeIfValidExpiredRemovesRecord(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	rec := &storage.ResetRequest{TokenHash: "exp", UserID: "user-1", Email: "u@example.com"}
	testutil.AssertNoError(t, s.Put(ctx, rec, 15*time.Minute))

	clock.Advance(15*time.Minute + time.Second)

	_, err := s.TakeIfValid(ctx, "exp")
	if !errors.Is(err, storage.ErrTokenExpired) {
		t.Fatalf("got %v, want ErrTokenExpired", err)
	}
	// lazy expiry removed the record
	testutil.AssertEqual(t, s.Len(), 0)

	// and a retry observes not-found, not expired
	_, err = s.TakeIfValid(ctx, "exp")
	if !errors.Is(err, storage.ErrTokenNotFound) {
		t.Fatalf("retry after expiry removal: got %v, want ErrTokenNotFound", err)
	}
}

func TestTakeIfValidAtExactExpiryIsStillValid(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	rec := &storage.ResetRequest{TokenHash: "edge", UserID: "user-1", Email: "u@example.com"}
	testutil.AssertNoError(t, s.Put(ctx, rec, 15*time.Minute))

	clock.Advance(15 * time.Minute) // now == expiresAt

	_, err := s.TakeIfValid(ctx, "edge")
	testutil.AssertNoError(t, err)
}

func TestPutOverwritesExistingHash(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	first := &storage.ResetRequest{TokenHash: "dup", UserID: "user-1", Email: "a@example.com"}
	second := &storage.ResetRequest{TokenHash: "dup", UserID: "user-2", Email: "b@example.com"}
	testutil.AssertNoError(t, s.Put(ctx, first, 15*time.Minute))
	testutil.AssertNoError(t, s.Put(ctx, second, 15*time.Minute))
	testutil.AssertEqual(t, s.Len(), 1)

	got, err := s.TakeIfValid(ctx, "dup")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got.UserID, "user-2")
}

func TestPutValidation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	testutil.AssertError(t, s.Put(ctx, nil, time.Minute))
	testutil.AssertError(t, s.Put(ctx, &storage.ResetRequest{UserID: "u"}, time.Minute))
	testutil.AssertError(t, s.Put(ctx, &storage.ResetRequest{TokenHash: "h"}, time.Minute))
	testutil.AssertError(t, s.Put(ctx, &storage.ResetRequest{TokenHash: "h", UserID: "u"}, 0))
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	testutil.AssertNoError(t, s.Put(ctx, &storage.ResetRequest{TokenHash: "short", UserID: "u1", Email: "a@example.com"}, 5*time.Minute))
	testutil.AssertNoError(t, s.Put(ctx, &storage.ResetRequest{TokenHash: "long", UserID: "u2", Email: "b@example.com"}, time.Hour))

	clock.Advance(10 * time.Minute)

	swept := s.Sweep(ctx)
	testutil.AssertEqual(t, swept, 1)
	testutil.AssertEqual(t, s.Len(), 1)

	_, err := s.TakeIfValid(ctx, "long")
	testutil.AssertNoError(t, err)
}

// TestConcurrentTakeIfValid verifies the concurrency-critical invariant:
// of N goroutines racing to consume the same token, exactly one wins.
func TestConcurrentTakeIfValid(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	rec := &storage.ResetRequest{TokenHash: "contested", UserID: "user-1", Email: "u@example.com"}
	testutil.AssertNoError(t, s.Put(ctx, rec, 15*time.Minute))

	const goroutines = 64
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		misses    int
	)

	start := make(chan struct{})
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := s.TakeIfValid(ctx, "contested")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, storage.ErrTokenNotFound):
				misses++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	testutil.AssertEqual(t, successes, 1)
	testutil.AssertEqual(t, misses, goroutines-1)
}

func TestCloseIsIdempotent(t *testing.T) {
	s := NewWithInterval(time.Millisecond)
	testutil.AssertNoError(t, s.Close())
	testutil.AssertNoError(t, s.Close())
}

func TestBackgroundSweep(t *testing.T) {
	s := NewWithInterval(10 * time.Millisecond)
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	testutil.AssertNoError(t, s.Put(ctx, &storage.ResetRequest{TokenHash: "bg", UserID: "u", Email: "u@example.com"}, time.Millisecond))

	deadline := time.After(2 * time.Second)
	for s.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("background sweep never removed the expired record")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
