package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Keeping this sentinel in domain allows adapters to map it consistently to 404/NOT_FOUND.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidInput marks malformed or missing request fields. Never retried.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict covers duplicate activation and duplicate linking attempts.
	ErrConflict = errors.New("conflict")
	// ErrAlreadyLinked signals the license already carries an external account.
	// Separate wording so the linking channel can render a precise message.
	ErrAlreadyLinked  = fmt.Errorf("%w: license already linked to an account", ErrConflict)
	ErrUnauthorized   = errors.New("unauthorized")
	ErrSessionRevoked = errors.New("session revoked")
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionUnbound is returned when a resume is attempted before HWID binding completed.
	ErrSessionUnbound = errors.New("session has no bound fingerprint")
	ErrLicenseExpired = errors.New("license expired")
	ErrLicensePaused  = errors.New("license paused")
	ErrRateLimited    = errors.New("rate limited")
	// ErrTransient wraps store/network timeouts. Safe to retry with backoff;
	// never surfaced to callers as a business rejection.
	ErrTransient = errors.New("transient backend failure")
)

// IdentityMismatchError is the HWID policy rejection for anchor-component drift.
// It is terminal: the candidate is treated as a different machine owner, never a reset.
type IdentityMismatchError struct {
	Components []string
}

func (e *IdentityMismatchError) Error() string {
	if len(e.Components) == 0 {
		return "hardware identity mismatch"
	}
	return "hardware identity mismatch: " + strings.Join(e.Components, ", ")
}

// QuotaExceededError reports reset-quota exhaustion with current usage so
// callers can render counters like "3/3".
type QuotaExceededError struct {
	Used  int
	Limit int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("hwid reset quota exceeded: %d/%d", e.Used, e.Limit)
}
