package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Code kinds understood by the ephemeral store. Kinds partition the keyspace
// so a linking code can never be replayed as an authorization code.
const (
	CodeKindAuthorization = "authorization_code"
	CodeKindLink          = "link_code"
	CodeKindAccessToken   = "access_token"
)

// CodeStore is the single-use, TTL-bound secret store. It knows nothing about
// licenses or sessions; payloads are opaque envelopes.
//
// Redeem is destructive and linearizable per key: across concurrent redeemers
// of the same key exactly one succeeds, the rest observe domain.ErrNotFound.
// Expired entries report ErrNotFound even before reaping.
type CodeStore interface {
	Issue(ctx context.Context, kind string, payload []byte, ttl time.Duration) (string, error)
	Redeem(ctx context.Context, kind, key string) ([]byte, error)
}

// RateLimitState is the current windowed-counter envelope for a request key.
type RateLimitState struct {
	Count        int
	LimitedUntil *time.Time
}

// RateLimitStore handles short-lived per-IP/per-key request throttling.
type RateLimitStore interface {
	Get(ctx context.Context, key string) (RateLimitState, error)
	Record(ctx context.Context, key string, now time.Time, threshold int, window time.Duration) (RateLimitState, error)
	Clear(ctx context.Context, key string) error
}

// SessionRevocationStore keeps revocation markers with token-aligned TTL.
// This allows immediate logout semantics without a registry read on every call.
type SessionRevocationStore interface {
	MarkRevoked(ctx context.Context, sessionID uuid.UUID, expiresAt time.Time) error
	IsRevoked(ctx context.Context, sessionID uuid.UUID) (bool, error)
}
