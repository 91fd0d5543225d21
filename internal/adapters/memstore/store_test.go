package memstore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/keygate-labs/keygate/internal/domain"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCodeStoreIssueAndRedeem(t *testing.T) {
	t.Parallel()

	clock := newManualClock()
	store := NewCodeStore(clock.Now)
	ctx := context.Background()

	key, err := store.Issue(ctx, "authorization_code", []byte(`{"ok":true}`), 30*time.Second)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if key == "" {
		t.Fatalf("expected opaque key")
	}

	payload, err := store.Redeem(ctx, "authorization_code", key)
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if string(payload) != `{"ok":true}` {
		t.Fatalf("unexpected payload %q", payload)
	}

	if _, err := store.Redeem(ctx, "authorization_code", key); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second redeem, got %v", err)
	}
}

func TestCodeStoreKindsPartitionKeyspace(t *testing.T) {
	t.Parallel()

	store := NewCodeStore(newManualClock().Now)
	ctx := context.Background()

	key, err := store.Issue(ctx, "link_code", []byte("payload"), time.Minute)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := store.Redeem(ctx, "authorization_code", key); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("a link code must not redeem as an authorization code, got %v", err)
	}
	if _, err := store.Redeem(ctx, "link_code", key); err != nil {
		t.Fatalf("redeem under issuing kind failed: %v", err)
	}
}

func TestCodeStoreExpiry(t *testing.T) {
	t.Parallel()

	clock := newManualClock()
	store := NewCodeStore(clock.Now)
	ctx := context.Background()

	key, err := store.Issue(ctx, "link_code", []byte("payload"), 30*time.Minute)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	clock.Advance(30*time.Minute + time.Second)
	if _, err := store.Redeem(ctx, "link_code", key); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected expired code to report ErrNotFound, got %v", err)
	}
}

func TestCodeStoreRejectsNonPositiveTTL(t *testing.T) {
	t.Parallel()

	store := NewCodeStore(nil)
	if _, err := store.Issue(context.Background(), "link_code", []byte("x"), 0); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero ttl, got %v", err)
	}
}

func TestCodeStoreConcurrentRedeemSingleWinner(t *testing.T) {
	t.Parallel()

	store := NewCodeStore(newManualClock().Now)
	ctx := context.Background()

	key, err := store.Issue(ctx, "authorization_code", []byte("payload"), time.Minute)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	const redeemers = 32
	var (
		wg       sync.WaitGroup
		winners  atomic.Int64
		failures atomic.Int64
	)
	wg.Add(redeemers)
	for i := 0; i < redeemers; i++ {
		go func() {
			defer wg.Done()
			if _, err := store.Redeem(ctx, "authorization_code", key); err == nil {
				winners.Add(1)
			} else if errors.Is(err, domain.ErrNotFound) {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	if winners.Load() != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners.Load())
	}
	if failures.Load() != redeemers-1 {
		t.Fatalf("expected %d losers with ErrNotFound, got %d", redeemers-1, failures.Load())
	}
}

func TestRateLimitWindow(t *testing.T) {
	t.Parallel()

	clock := newManualClock()
	store := NewRateLimitStore(clock.Now)
	ctx := context.Background()
	const key = "login:ip:203.0.113.7"

	for i := 1; i <= 2; i++ {
		state, err := store.Record(ctx, key, clock.Now(), 3, time.Minute)
		if err != nil {
			t.Fatalf("record %d failed: %v", i, err)
		}
		if state.LimitedUntil != nil {
			t.Fatalf("expected no limit at count %d", i)
		}
	}

	state, err := store.Record(ctx, key, clock.Now(), 3, time.Minute)
	if err != nil {
		t.Fatalf("record at threshold failed: %v", err)
	}
	if state.LimitedUntil == nil {
		t.Fatalf("expected limit marker at threshold")
	}

	got, err := store.Get(ctx, key)
	if err != nil || got.LimitedUntil == nil {
		t.Fatalf("expected persisted limit marker, got %+v (err %v)", got, err)
	}

	// The counter resets once the window elapses.
	clock.Advance(2 * time.Minute)
	state, err = store.Record(ctx, key, clock.Now(), 3, time.Minute)
	if err != nil {
		t.Fatalf("record after window failed: %v", err)
	}
	if state.Count != 1 || state.LimitedUntil != nil {
		t.Fatalf("expected fresh window, got %+v", state)
	}

	if err := store.Clear(ctx, key); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	got, err = store.Get(ctx, key)
	if err != nil || got.Count != 0 {
		t.Fatalf("expected cleared state, got %+v (err %v)", got, err)
	}
}

func TestSessionRevocationMarkerExpires(t *testing.T) {
	t.Parallel()

	clock := newManualClock()
	store := NewSessionRevocationStore(clock.Now)
	ctx := context.Background()
	sessionID := uuid.New()

	if revoked, err := store.IsRevoked(ctx, sessionID); err != nil || revoked {
		t.Fatalf("unmarked session should not be revoked, got %v (err %v)", revoked, err)
	}

	if err := store.MarkRevoked(ctx, sessionID, clock.Now().Add(time.Hour)); err != nil {
		t.Fatalf("mark revoked failed: %v", err)
	}
	if revoked, _ := store.IsRevoked(ctx, sessionID); !revoked {
		t.Fatalf("expected marker to hold before deadline")
	}

	// After the token deadline the marker is moot; the registry row carries
	// the durable revocation.
	clock.Advance(2 * time.Hour)
	if revoked, _ := store.IsRevoked(ctx, sessionID); revoked {
		t.Fatalf("expected marker to lapse after deadline")
	}
}
