package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is the live, renewable binding between an authenticated license and
// a specific HWID. It carries only back-references to license state; the
// registry remains the single source of truth for license fields.
type Session struct {
	SessionID     uuid.UUID
	LicenseID     uuid.UUID
	FingerprintID *uuid.UUID
	// AuthToken is an opaque bearer credential rotated on every refresh.
	// The signed JWT embeds it so stale tokens fail closed after rotation.
	AuthToken       string
	IPAddress       string
	CreatedAt       time.Time
	LastRefreshedAt time.Time
	ExpiresAt       time.Time
	RevokedAt       *time.Time
}

// Valid reports whether the session can still be refreshed or resumed.
func (s Session) Valid(now time.Time) bool {
	return s.RevokedAt == nil && s.ExpiresAt.After(now)
}
