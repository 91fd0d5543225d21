package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/keygate-labs/keygate/internal/domain"
)

// LicenseRepository defines persistence operations for the license registry.
// Single-license mutations are transactional per row; batch operations are
// all-or-nothing within one unit of work.
type LicenseRepository interface {
	// CreateBatch mints count fresh license keys with the given duration.
	// A partial failure must leave no licenses created.
	CreateBatch(ctx context.Context, durationSeconds int64, count int, createdAt time.Time) ([]domain.License, error)
	GetByID(ctx context.Context, licenseID uuid.UUID) (domain.License, error)
	GetByKey(ctx context.Context, key string) (domain.License, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.License, error)
	// Activate sets the activation flag and starts the remaining-duration
	// clock. Activating an already-activated license is a Conflict.
	Activate(ctx context.Context, licenseID uuid.UUID, now time.Time) (domain.License, error)
	// BindFingerprint evaluates the HWID policy and applies the candidate
	// inside one transaction scoped to the license row. The reset counter is
	// read and incremented in the same transaction so concurrent resets cannot
	// both observe the pre-increment count. Rejections leave no state change.
	BindFingerprint(ctx context.Context, licenseID uuid.UUID, candidate domain.FingerprintComponents, now time.Time, quota domain.ResetQuota) (domain.Fingerprint, error)
	// PauseAll folds elapsed time into remaining_seconds and clears the
	// running marker for every running license, as one bulk conditional update.
	PauseAll(ctx context.Context, now time.Time) (int64, error)
	// ResumeAll restarts the clock for paused activated licenses without
	// re-charging the already-elapsed interval.
	ResumeAll(ctx context.Context, now time.Time) (int64, error)
}

// LinkAccountParams carries the linking-workflow write set. All fields are
// applied in one transaction by AccountRepository.LinkLicenseTx.
type LinkAccountParams struct {
	LicenseID   uuid.UUID
	ExternalID  string
	Email       string
	DisplayName string
	Now         time.Time
}

// AccountRepository owns external chat-platform account records and the
// atomic license-link mutation.
type AccountRepository interface {
	// GetOrCreate is idempotent on the external account id.
	GetOrCreate(ctx context.Context, externalID, email, displayName string, now time.Time) (domain.Account, error)
	GetByExternalID(ctx context.Context, externalID string) (domain.Account, error)
	// LinkLicenseTx upserts the account and writes its id onto the license in
	// one transaction. A license that already carries an account yields
	// domain.ErrAlreadyLinked and no writes.
	LinkLicenseTx(ctx context.Context, params LinkAccountParams) (domain.Account, error)
}

// SessionCreateParams captures the fields required to persist a new session.
type SessionCreateParams struct {
	LicenseID     uuid.UUID
	FingerprintID uuid.UUID
	AuthToken     string
	IPAddress     string
	CreatedAt     time.Time
	ExpiresAt     time.Time
}

// SessionRepository manages the persistent session lifecycle. Token rotation
// and revocation stay source-of-truth driven here rather than in JWT parsing.
type SessionRepository interface {
	Create(ctx context.Context, params SessionCreateParams) (domain.Session, error)
	GetByID(ctx context.Context, sessionID uuid.UUID) (domain.Session, error)
	// Rotate swaps the opaque auth token and extends expiry in one update.
	Rotate(ctx context.Context, sessionID uuid.UUID, authToken string, expiresAt, refreshedAt time.Time) error
	// RevokeByID is a no-op success when the session is already revoked.
	RevokeByID(ctx context.Context, sessionID uuid.UUID, revokedAt time.Time) error
	RevokeAllByLicense(ctx context.Context, licenseID uuid.UUID, revokedAt time.Time) error
	// RevokeAllActive supports administrative pause-all.
	RevokeAllActive(ctx context.Context, revokedAt time.Time) (int64, error)
}

// ClientRepository stores registered OAuth clients.
type ClientRepository interface {
	GetByID(ctx context.Context, clientID string) (domain.Client, error)
	Create(ctx context.Context, client domain.Client) error
}
