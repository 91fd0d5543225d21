package application

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/keygate-labs/keygate/internal/domain"
	"github.com/keygate-labs/keygate/internal/ports"
)

// randomHex returns a cryptographically random hex token.
func randomHex(bytesLen int) string {
	raw := make([]byte, bytesLen)
	_, _ = rand.Read(raw)
	return hex.EncodeToString(raw)
}

// pkceS256 computes the S256 transform of a PKCE verifier.
func pkceS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// recordAudit reports an activity to the audit collaborator. Failures are
// logged and swallowed: logging is best-effort and never blocks the caller.
func (s *Service) recordAudit(ctx context.Context, actorID, kind, ipAddress, targetID string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, ports.AuditEntry{
		ActorID:   actorID,
		Kind:      kind,
		IPAddress: ipAddress,
		TargetID:  targetID,
		At:        s.nowFn(),
	}); err != nil {
		slog.Default().WarnContext(ctx, "failed to persist audit entry",
			"service", "Keygate-License-Service",
			"module", "application",
			"layer", "application",
			"operation", "record_audit",
			"outcome", "failure",
			"kind", kind,
			"error", err,
		)
	}
}

// enforceRateLimit applies a windowed counter keyed by caller identity.
// Limiter outages degrade open: availability of the store must not take the
// whole authorize path down with it.
func (s *Service) enforceRateLimit(ctx context.Context, key string, threshold int, window time.Duration) error {
	if s.rateLimits == nil || threshold <= 0 || window <= 0 {
		return nil
	}
	if strings.TrimSpace(key) == "" {
		return nil
	}

	state, err := s.rateLimits.Get(ctx, key)
	if err == nil && state.LimitedUntil != nil && state.LimitedUntil.After(s.nowFn()) {
		return domain.ErrRateLimited
	}

	now := s.nowFn()
	updated, err := s.rateLimits.Record(ctx, key, now, threshold, window)
	if err != nil {
		slog.Default().WarnContext(ctx, "rate-limit state unavailable",
			"service", "Keygate-License-Service",
			"module", "application",
			"layer", "application",
			"operation", "rate_limit",
			"outcome", "warning",
			"key", key,
			"error", err,
		)
		return nil
	}
	if updated.LimitedUntil != nil && updated.LimitedUntil.After(now) {
		return domain.ErrRateLimited
	}
	return nil
}

// issueCode issues into the ephemeral store, retrying once on a transient
// backend failure before surfacing it.
func (s *Service) issueCode(ctx context.Context, kind string, payload []byte, ttl time.Duration) (string, error) {
	key, err := s.codes.Issue(ctx, kind, payload, ttl)
	if err != nil && errors.Is(err, domain.ErrTransient) {
		key, err = s.codes.Issue(ctx, kind, payload, ttl)
	}
	return key, err
}

// redeemCode redeems from the ephemeral store with the same single retry.
// ErrNotFound is terminal and never retried; the code must be requested again.
func (s *Service) redeemCode(ctx context.Context, kind, key string) ([]byte, error) {
	payload, err := s.codes.Redeem(ctx, kind, key)
	if err != nil && errors.Is(err, domain.ErrTransient) {
		payload, err = s.codes.Redeem(ctx, kind, key)
	}
	return payload, err
}
