package domain

import (
	"time"

	"github.com/google/uuid"
)

// LicenseStatus is the coarse lifecycle marker for a license.
// Licenses are never physically deleted, so audit history stays intact.
type LicenseStatus string

const (
	LicenseStatusActive LicenseStatus = "ACTIVE"
	LicenseStatusPaused LicenseStatus = "PAUSED"
)

// License is the root entity the whole system protects. It owns its HWID
// association and remaining-duration accounting; sessions keep only a
// back-reference to avoid stale copies of license state.
type License struct {
	LicenseID        uuid.UUID
	Key              string
	Activated        bool
	Status           LicenseStatus
	AccountID        *uuid.UUID
	FingerprintID    *uuid.UUID
	RemainingSeconds int64
	// StartedAt is the running marker: non-nil while the remaining-duration
	// clock is being charged. Pause clears it after folding elapsed time into
	// RemainingSeconds so resume never double-charges.
	StartedAt            *time.Time
	ResetsUsed           int
	ResetWindowStartedAt *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Remaining computes the live remaining duration, charging elapsed time only
// while the running marker is set.
func (l License) Remaining(now time.Time) time.Duration {
	remaining := time.Duration(l.RemainingSeconds) * time.Second
	if l.StartedAt != nil {
		remaining -= now.Sub(*l.StartedAt)
	}
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Expired reports whether an activated license has run out of time.
// An unactivated license never expires; its clock has not started.
func (l License) Expired(now time.Time) bool {
	return l.Activated && l.Remaining(now) <= 0
}

// Paused reports whether the license is administratively suspended.
func (l License) Paused() bool {
	return l.Status == LicenseStatusPaused
}

// ResetQuota is the rolling-window cap on legitimate HWID resets.
type ResetQuota struct {
	MaxResets int
	Window    time.Duration
}

// EffectiveResetsUsed returns the reset count that applies at now, treating the
// counter as zero once the rolling window has elapsed. The window start is
// fixed when the first reset in a period occurs and only moves when the period
// ends.
func (l License) EffectiveResetsUsed(now time.Time, quota ResetQuota) int {
	if l.ResetWindowStartedAt == nil {
		return 0
	}
	if quota.Window > 0 && now.Sub(*l.ResetWindowStartedAt) >= quota.Window {
		return 0
	}
	return l.ResetsUsed
}

// Account is an external chat-platform identity linked to a license through
// the one-time linking code flow.
type Account struct {
	AccountID   uuid.UUID
	ExternalID  string
	Email       string
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Client is a registered OAuth client allowed to drive the authorize/token
// protocol. The secret is stored hashed; plaintext exists only at issue time.
type Client struct {
	ClientID   string
	SecretHash string
	Name       string
	CreatedAt  time.Time
}
