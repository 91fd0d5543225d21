package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/keygate-labs/keygate/internal/domain"
	"github.com/keygate-labs/keygate/internal/ports"
)

// linkCodeEnvelope is the payload stored behind a one-time linking code.
type linkCodeEnvelope struct {
	LicenseID uuid.UUID `json:"license_id"`
	IssuedAt  time.Time `json:"issued_at"`
}

// CreateLicenses mints count licenses in one all-or-nothing unit of work.
func (s *Service) CreateLicenses(ctx context.Context, req LicenseCreateRequest) ([]LicenseItem, error) {
	if req.Count < 1 {
		return nil, fmt.Errorf("%w: count must be at least 1", domain.ErrInvalidInput)
	}
	if s.cfg.MaxLicenseBatch > 0 && req.Count > s.cfg.MaxLicenseBatch {
		return nil, fmt.Errorf("%w: count exceeds batch limit %d", domain.ErrInvalidInput, s.cfg.MaxLicenseBatch)
	}
	if req.DurationSeconds <= 0 {
		return nil, fmt.Errorf("%w: duration_seconds must be positive", domain.ErrInvalidInput)
	}

	now := s.nowFn()
	created, err := s.licenses.CreateBatch(ctx, req.DurationSeconds, req.Count, now)
	if err != nil {
		return nil, err
	}

	items := make([]LicenseItem, 0, len(created))
	for _, lic := range created {
		items = append(items, toLicenseItem(lic, now))
	}
	return items, nil
}

// GetLicense returns a registry snapshot for administrative inspection.
func (s *Service) GetLicense(ctx context.Context, licenseID uuid.UUID) (LicenseItem, error) {
	lic, err := s.licenses.GetByID(ctx, licenseID)
	if err != nil {
		return LicenseItem{}, err
	}
	return toLicenseItem(lic, s.nowFn()), nil
}

// LicensesByExternalAccount lists licenses linked to a chat-platform account.
func (s *Service) LicensesByExternalAccount(ctx context.Context, externalID string) ([]LicenseItem, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, fmt.Errorf("%w: external account id is required", domain.ErrInvalidInput)
	}
	account, err := s.accounts.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	licenses, err := s.licenses.ListByAccount(ctx, account.AccountID)
	if err != nil {
		return nil, err
	}
	now := s.nowFn()
	items := make([]LicenseItem, 0, len(licenses))
	for _, lic := range licenses {
		items = append(items, toLicenseItem(lic, now))
	}
	return items, nil
}

// PauseAllLicenses suspends every running license in one bulk conditional
// update, then revokes their active sessions. Elapsed time is folded into
// remaining_seconds exactly once.
func (s *Service) PauseAllLicenses(ctx context.Context, actorID, ipAddress string) (int64, error) {
	now := s.nowFn()
	paused, err := s.licenses.PauseAll(ctx, now)
	if err != nil {
		return 0, err
	}
	revoked, err := s.sessions.RevokeAllActive(ctx, now)
	if err != nil {
		// Licenses are already paused; session validation fails closed on the
		// paused status, so report rather than abort.
		slog.Default().WarnContext(ctx, "pause-all session revocation incomplete",
			"service", "Keygate-License-Service",
			"module", "application",
			"layer", "application",
			"operation", "pause_all",
			"outcome", "warning",
			"error", err,
		)
	}
	slog.Default().InfoContext(ctx, "licenses paused",
		"service", "Keygate-License-Service",
		"module", "application",
		"layer", "application",
		"operation", "pause_all",
		"outcome", "success",
		"paused", paused,
		"sessions_revoked", revoked,
	)
	s.recordAudit(ctx, actorID, ports.AuditLicensesPaused, ipAddress, "")
	return paused, nil
}

// ResumeAllLicenses restarts the clock for paused activated licenses.
func (s *Service) ResumeAllLicenses(ctx context.Context, actorID, ipAddress string) (int64, error) {
	resumed, err := s.licenses.ResumeAll(ctx, s.nowFn())
	if err != nil {
		return 0, err
	}
	s.recordAudit(ctx, actorID, ports.AuditLicensesResumed, ipAddress, "")
	return resumed, nil
}

// MintLinkCode issues a one-time code that the redemption channel exchanges
// for an account link. The code carries only the license id.
func (s *Service) MintLinkCode(ctx context.Context, licenseID uuid.UUID) (LinkCodeResponse, error) {
	lic, err := s.licenses.GetByID(ctx, licenseID)
	if err != nil {
		return LinkCodeResponse{}, err
	}
	if lic.AccountID != nil {
		return LinkCodeResponse{}, domain.ErrAlreadyLinked
	}

	payload, _ := json.Marshal(linkCodeEnvelope{
		LicenseID: lic.LicenseID,
		IssuedAt:  s.nowFn(),
	})
	code, err := s.issueCode(ctx, ports.CodeKindLink, payload, s.cfg.LinkCodeTTL)
	if err != nil {
		return LinkCodeResponse{}, fmt.Errorf("issue link code: %w", err)
	}
	return LinkCodeResponse{
		Code:      code,
		ExpiresIn: int64(s.cfg.LinkCodeTTL.Seconds()),
	}, nil
}

// RegisterClient provisions an OAuth client with a bcrypt-hashed secret.
func (s *Service) RegisterClient(ctx context.Context, req ClientRegisterRequest) error {
	if strings.TrimSpace(req.ClientID) == "" || strings.TrimSpace(req.Secret) == "" {
		return fmt.Errorf("%w: client_id and secret are required", domain.ErrInvalidInput)
	}
	hash, err := s.secrets.Hash(req.Secret)
	if err != nil {
		return fmt.Errorf("hash client secret: %w", err)
	}
	return s.clients.Create(ctx, domain.Client{
		ClientID:   strings.TrimSpace(req.ClientID),
		SecretHash: hash,
		Name:       strings.TrimSpace(req.Name),
		CreatedAt:  s.nowFn(),
	})
}
