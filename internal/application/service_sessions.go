package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/keygate-labs/keygate/internal/domain"
	"github.com/keygate-labs/keygate/internal/ports"
)

// CreateSession signs a license in on a machine: it activates the license on
// first use, runs the HWID binding policy, and mints a session with a signed
// bearer token. Policy rejections create nothing.
func (s *Service) CreateSession(ctx context.Context, req SessionCreateRequest) (SessionCreateResponse, error) {
	key := strings.TrimSpace(req.LicenseKey)
	if key == "" {
		return SessionCreateResponse{}, fmt.Errorf("%w: license_key is required", domain.ErrInvalidInput)
	}
	candidate := req.Fingerprint.components()
	if err := candidate.Validate(); err != nil {
		return SessionCreateResponse{}, err
	}
	if ip := strings.TrimSpace(req.IPAddress); ip != "" {
		if err := s.enforceRateLimit(ctx, "login:ip:"+ip, s.cfg.LoginRateLimitThreshold, s.cfg.LoginRateLimitWindow); err != nil {
			return SessionCreateResponse{}, err
		}
	}

	lic, err := s.licenses.GetByKey(ctx, key)
	if err != nil {
		return SessionCreateResponse{}, err
	}
	now := s.nowFn()
	if lic.Paused() {
		return SessionCreateResponse{}, domain.ErrLicensePaused
	}
	if lic.Expired(now) {
		return SessionCreateResponse{}, domain.ErrLicenseExpired
	}

	if !lic.Activated {
		activated, actErr := s.licenses.Activate(ctx, lic.LicenseID, now)
		if actErr != nil {
			// A concurrent first sign-in may have won the activation; the
			// license is still usable, so reload instead of failing.
			if !errors.Is(actErr, domain.ErrConflict) {
				return SessionCreateResponse{}, actErr
			}
			activated, actErr = s.licenses.GetByID(ctx, lic.LicenseID)
			if actErr != nil {
				return SessionCreateResponse{}, actErr
			}
		}
		lic = activated
	}

	fp, err := s.licenses.BindFingerprint(ctx, lic.LicenseID, candidate, now, s.cfg.ResetQuota)
	if err != nil {
		slog.Default().WarnContext(ctx, "hwid bind rejected",
			"service", "Keygate-License-Service",
			"module", "application",
			"layer", "application",
			"operation", "create_session",
			"outcome", "failure",
			"license_id", lic.LicenseID.String(),
			"error", err,
		)
		return SessionCreateResponse{}, err
	}

	authToken := randomHex(32)
	session, err := s.sessions.Create(ctx, ports.SessionCreateParams{
		LicenseID:     lic.LicenseID,
		FingerprintID: fp.FingerprintID,
		AuthToken:     authToken,
		IPAddress:     req.IPAddress,
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.cfg.SessionTTL),
	})
	if err != nil {
		return SessionCreateResponse{}, fmt.Errorf("create session: %w", err)
	}

	token, err := s.tokenSigner.Sign(ports.SessionClaims{
		SessionID:     session.SessionID,
		LicenseID:     lic.LicenseID,
		FingerprintID: fp.FingerprintID,
		AuthToken:     authToken,
		IssuedAt:      now,
		ExpiresAt:     session.ExpiresAt,
	})
	if err != nil {
		return SessionCreateResponse{}, fmt.Errorf("sign session token: %w", err)
	}

	if ip := strings.TrimSpace(req.IPAddress); ip != "" && s.rateLimits != nil {
		// A successful sign-in resets the counter; only consecutive
		// failures should walk an address toward the limit.
		_ = s.rateLimits.Clear(ctx, "login:ip:"+ip)
	}

	s.recordAudit(ctx, lic.LicenseID.String(), ports.AuditSessionCreated, req.IPAddress, session.SessionID.String())

	return SessionCreateResponse{
		Token:     token,
		SessionID: session.SessionID,
		LicenseID: lic.LicenseID,
		ExpiresIn: int64(s.cfg.SessionTTL.Seconds()),
	}, nil
}

// RefreshSession rotates the opaque auth token and extends expiry. Invalid,
// expired or revoked sessions are never silently re-created; callers must
// complete a full sign-in instead.
func (s *Service) RefreshSession(ctx context.Context, bearer, ipAddress string) (SessionRefreshResponse, error) {
	session, claims, err := s.loadValidSession(ctx, bearer)
	if err != nil {
		return SessionRefreshResponse{}, err
	}

	lic, err := s.licenses.GetByID(ctx, session.LicenseID)
	if err != nil {
		return SessionRefreshResponse{}, err
	}
	now := s.nowFn()
	if lic.Paused() {
		return SessionRefreshResponse{}, domain.ErrLicensePaused
	}
	if lic.Expired(now) {
		return SessionRefreshResponse{}, domain.ErrLicenseExpired
	}

	authToken := randomHex(32)
	expiresAt := now.Add(s.cfg.SessionTTL)
	if err := s.sessions.Rotate(ctx, session.SessionID, authToken, expiresAt, now); err != nil {
		return SessionRefreshResponse{}, fmt.Errorf("rotate session: %w", err)
	}

	token, err := s.tokenSigner.Sign(ports.SessionClaims{
		SessionID:     session.SessionID,
		LicenseID:     session.LicenseID,
		FingerprintID: claims.FingerprintID,
		AuthToken:     authToken,
		IssuedAt:      now,
		ExpiresAt:     expiresAt,
	})
	if err != nil {
		return SessionRefreshResponse{}, fmt.Errorf("sign refreshed token: %w", err)
	}

	s.recordAudit(ctx, session.LicenseID.String(), ports.AuditSessionRefresh, ipAddress, session.SessionID.String())

	return SessionRefreshResponse{
		Token:     token,
		SessionID: session.SessionID,
		ExpiresIn: int64(s.cfg.SessionTTL.Seconds()),
	}, nil
}

// ResumeSession validates that an existing session can continue. A session
// with no bound fingerprint cannot resume; the client must complete binding
// through a full sign-in first.
func (s *Service) ResumeSession(ctx context.Context, bearer string) (SessionResumeResponse, error) {
	session, _, err := s.loadValidSession(ctx, bearer)
	if err != nil {
		return SessionResumeResponse{}, err
	}
	if session.FingerprintID == nil {
		return SessionResumeResponse{}, domain.ErrSessionUnbound
	}

	lic, err := s.licenses.GetByID(ctx, session.LicenseID)
	if err != nil {
		return SessionResumeResponse{}, err
	}
	now := s.nowFn()
	if lic.Paused() {
		return SessionResumeResponse{}, domain.ErrLicensePaused
	}
	if lic.Expired(now) {
		return SessionResumeResponse{}, domain.ErrLicenseExpired
	}

	return SessionResumeResponse{
		SessionID:        session.SessionID,
		LicenseID:        session.LicenseID,
		RemainingSeconds: int64(lic.Remaining(now).Seconds()),
		ExpiresIn:        int64(session.ExpiresAt.Sub(now).Seconds()),
	}, nil
}

// RevokeSession terminates the caller's session. Revoking an already-revoked
// or unknown session is a no-op success.
func (s *Service) RevokeSession(ctx context.Context, bearer, ipAddress string) error {
	claims, err := s.tokenSigner.ParseAndValidate(bearer)
	if err != nil {
		return domain.ErrUnauthorized
	}
	return s.revokeByID(ctx, claims.SessionID, claims.LicenseID, ipAddress)
}

// RevokeLicenseSessions terminates every session held by a license, for
// support workflows like key compromise or a chargeback. The license must
// exist; revoking when it holds no sessions is a no-op success.
func (s *Service) RevokeLicenseSessions(ctx context.Context, licenseID uuid.UUID, ipAddress string) error {
	if _, err := s.licenses.GetByID(ctx, licenseID); err != nil {
		return err
	}
	now := s.nowFn()
	if err := s.sessions.RevokeAllByLicense(ctx, licenseID, now); err != nil {
		return fmt.Errorf("revoke license sessions: %w", err)
	}
	s.recordAudit(ctx, licenseID.String(), ports.AuditSessionRevoked, ipAddress, "")
	return nil
}

// RevokeSessionByID is the administrative variant, idempotent as well.
func (s *Service) RevokeSessionByID(ctx context.Context, sessionID uuid.UUID, ipAddress string) error {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	return s.revokeByID(ctx, sessionID, session.LicenseID, ipAddress)
}

func (s *Service) revokeByID(ctx context.Context, sessionID, licenseID uuid.UUID, ipAddress string) error {
	now := s.nowFn()
	if err := s.sessions.RevokeByID(ctx, sessionID, now); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if s.revocations != nil {
		_ = s.revocations.MarkRevoked(ctx, sessionID, now.Add(s.cfg.SessionTTL))
	}
	s.recordAudit(ctx, licenseID.String(), ports.AuditSessionRevoked, ipAddress, sessionID.String())
	return nil
}

// ValidateSession checks a bearer token end to end: signature, revocation
// marker, registry state and auth-token rotation.
func (s *Service) ValidateSession(ctx context.Context, bearer string) (ports.SessionClaims, error) {
	_, claims, err := s.loadValidSession(ctx, bearer)
	if err != nil {
		return ports.SessionClaims{}, err
	}
	return claims, nil
}

func (s *Service) loadValidSession(ctx context.Context, bearer string) (domain.Session, ports.SessionClaims, error) {
	claims, err := s.tokenSigner.ParseAndValidate(bearer)
	if err != nil {
		return domain.Session{}, ports.SessionClaims{}, domain.ErrUnauthorized
	}
	if s.revocations != nil {
		if revoked, _ := s.revocations.IsRevoked(ctx, claims.SessionID); revoked {
			return domain.Session{}, ports.SessionClaims{}, domain.ErrSessionRevoked
		}
	}

	session, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		return domain.Session{}, ports.SessionClaims{}, domain.ErrUnauthorized
	}
	if session.RevokedAt != nil {
		return domain.Session{}, ports.SessionClaims{}, domain.ErrSessionRevoked
	}
	if session.ExpiresAt.Before(s.nowFn()) {
		return domain.Session{}, ports.SessionClaims{}, domain.ErrSessionExpired
	}
	if session.AuthToken != claims.AuthToken {
		// Token predates the last rotation; only the newest credential is live.
		return domain.Session{}, ports.SessionClaims{}, domain.ErrUnauthorized
	}
	return session, claims, nil
}
