// Package memstore provides in-process implementations of the ephemeral
// stores. They back local development and tests where no Redis is available;
// semantics match the Redis adapters, including destructive single-winner
// redemption.
package memstore

import (
	"container/heap"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/keygate-labs/keygate/internal/domain"
	"github.com/keygate-labs/keygate/internal/ports"
)

type codeEntry struct {
	payload   []byte
	expiresAt time.Time
}

type expiryItem struct {
	key       string
	expiresAt time.Time
}

type expiryHeap []expiryItem

func (h expiryHeap) Len() int           { return len(h) }
func (h expiryHeap) Less(i, j int) bool { return h[i].expiresAt.Before(h[j].expiresAt) }
func (h expiryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *expiryHeap) Push(x any)        { *h = append(*h, x.(expiryItem)) }
func (h *expiryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// CodeStore is the in-memory single-use secret store. An expiry min-heap keeps
// reaping proportional to the number of expired entries rather than the map size.
type CodeStore struct {
	mu      sync.Mutex
	entries map[string]codeEntry
	expiry  expiryHeap
	now     func() time.Time
}

// NewCodeStore builds a store reading time from now; pass time.Now outside tests.
func NewCodeStore(now func() time.Time) *CodeStore {
	if now == nil {
		now = time.Now
	}
	return &CodeStore{
		entries: make(map[string]codeEntry),
		now:     now,
	}
}

func codeKey(kind, key string) string {
	return kind + ":" + key
}

func (s *CodeStore) Issue(_ context.Context, kind string, payload []byte, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("%w: ttl must be positive", domain.ErrInvalidInput)
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	key := hex.EncodeToString(buf)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reapLocked()

	full := codeKey(kind, key)
	expiresAt := s.now().Add(ttl)
	stored := make([]byte, len(payload))
	copy(stored, payload)
	s.entries[full] = codeEntry{payload: stored, expiresAt: expiresAt}
	heap.Push(&s.expiry, expiryItem{key: full, expiresAt: expiresAt})
	return key, nil
}

func (s *CodeStore) Redeem(_ context.Context, kind, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reapLocked()

	full := codeKey(kind, key)
	entry, ok := s.entries[full]
	if !ok || !entry.expiresAt.After(s.now()) {
		delete(s.entries, full)
		return nil, domain.ErrNotFound
	}
	delete(s.entries, full)
	return entry.payload, nil
}

// reapLocked drops entries whose deadline passed. Heap items for keys already
// redeemed are skipped; the map is the source of truth.
func (s *CodeStore) reapLocked() {
	now := s.now()
	for s.expiry.Len() > 0 && !s.expiry[0].expiresAt.After(now) {
		item := heap.Pop(&s.expiry).(expiryItem)
		if entry, ok := s.entries[item.key]; ok && !entry.expiresAt.After(now) {
			delete(s.entries, item.key)
		}
	}
}

type rateWindow struct {
	count        int
	windowStart  time.Time
	limitedUntil *time.Time
}

// RateLimitStore is the in-memory windowed counter.
type RateLimitStore struct {
	mu      sync.Mutex
	windows map[string]rateWindow
	now     func() time.Time
}

func NewRateLimitStore(now func() time.Time) *RateLimitStore {
	if now == nil {
		now = time.Now
	}
	return &RateLimitStore{windows: make(map[string]rateWindow), now: now}
}

func (s *RateLimitStore) Get(_ context.Context, key string) (ports.RateLimitState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[key]
	if !ok {
		return ports.RateLimitState{}, nil
	}
	if w.limitedUntil != nil && !w.limitedUntil.After(s.now()) {
		delete(s.windows, key)
		return ports.RateLimitState{}, nil
	}
	return ports.RateLimitState{Count: w.count, LimitedUntil: w.limitedUntil}, nil
}

func (s *RateLimitStore) Record(_ context.Context, key string, now time.Time, threshold int, window time.Duration) (ports.RateLimitState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[key]
	if !ok || now.Sub(w.windowStart) >= window {
		w = rateWindow{windowStart: now}
	}
	w.count++
	if w.count >= threshold && w.limitedUntil == nil {
		until := now.Add(window)
		w.limitedUntil = &until
	}
	s.windows[key] = w
	return ports.RateLimitState{Count: w.count, LimitedUntil: w.limitedUntil}, nil
}

func (s *RateLimitStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, key)
	return nil
}

// SessionRevocationStore keeps revocation markers until their token deadline.
type SessionRevocationStore struct {
	mu      sync.Mutex
	revoked map[uuid.UUID]time.Time
	now     func() time.Time
}

func NewSessionRevocationStore(now func() time.Time) *SessionRevocationStore {
	if now == nil {
		now = time.Now
	}
	return &SessionRevocationStore{revoked: make(map[uuid.UUID]time.Time), now: now}
}

func (s *SessionRevocationStore) MarkRevoked(_ context.Context, sessionID uuid.UUID, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[sessionID] = expiresAt
	return nil
}

func (s *SessionRevocationStore) IsRevoked(_ context.Context, sessionID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deadline, ok := s.revoked[sessionID]
	if !ok {
		return false, nil
	}
	if !deadline.After(s.now()) {
		delete(s.revoked, sessionID)
		return false, nil
	}
	return true, nil
}

var (
	_ ports.CodeStore              = (*CodeStore)(nil)
	_ ports.RateLimitStore         = (*RateLimitStore)(nil)
	_ ports.SessionRevocationStore = (*SessionRevocationStore)(nil)
)
