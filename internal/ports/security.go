package ports

import (
	"time"

	"github.com/google/uuid"
)

// SessionClaims is the adapter-neutral claim set embedded in signed session
// tokens. AuthToken mirrors the session's rotating opaque credential so a
// stale token fails closed after the next refresh.
type SessionClaims struct {
	SessionID     uuid.UUID `json:"session_id"`
	LicenseID     uuid.UUID `json:"license_id"`
	FingerprintID uuid.UUID `json:"fingerprint_id"`
	AuthToken     string    `json:"auth_token"`
	IssuedAt      time.Time `json:"issued_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	KeyID         string    `json:"kid"`
}

// TokenSigner abstracts the signing capability. Algorithm and key management
// are adapter configuration, not application logic.
type TokenSigner interface {
	Sign(claims SessionClaims) (string, error)
	ParseAndValidate(token string) (SessionClaims, error)
	PublicJWKs() ([]map[string]any, error)
}

// SecretHasher hashes OAuth client secrets at rest.
type SecretHasher interface {
	Hash(secret string) (string, error)
	Compare(hash, secret string) error
}
