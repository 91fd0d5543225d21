package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/keygate-labs/keygate/internal/domain"
	"github.com/keygate-labs/keygate/internal/ports"
)

// RedeemLinkCode consumes a one-time linking code and atomically associates
// the external account with the license the code was minted for.
//
// The code redemption is destructive before the link transaction runs. If the
// transaction fails afterwards the code stays consumed; the operator re-mints
// rather than the store restoring secrets that already left the vault.
func (s *Service) RedeemLinkCode(ctx context.Context, req LinkRedeemRequest) (LinkRedeemResponse, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return LinkRedeemResponse{}, fmt.Errorf("%w: code is required", domain.ErrInvalidInput)
	}
	externalID := strings.TrimSpace(req.ExternalAccountID)
	if externalID == "" {
		return LinkRedeemResponse{}, fmt.Errorf("%w: external_account_id is required", domain.ErrInvalidInput)
	}

	payload, err := s.redeemCode(ctx, ports.CodeKindLink, code)
	if err != nil {
		return LinkRedeemResponse{}, err
	}
	var envelope linkCodeEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return LinkRedeemResponse{}, fmt.Errorf("decode link code payload: %w", err)
	}

	account, err := s.accounts.LinkLicenseTx(ctx, ports.LinkAccountParams{
		LicenseID:   envelope.LicenseID,
		ExternalID:  externalID,
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		DisplayName: strings.TrimSpace(req.DisplayName),
		Now:         s.nowFn(),
	})
	if err != nil {
		slog.Default().WarnContext(ctx, "link transaction failed after code redemption",
			"service", "Keygate-License-Service",
			"module", "application",
			"layer", "application",
			"operation", "redeem_link_code",
			"outcome", "failure",
			"license_id", envelope.LicenseID.String(),
			"error", err,
		)
		return LinkRedeemResponse{}, err
	}

	s.recordAudit(ctx, externalID, ports.AuditLicenseLinked, req.IPAddress, envelope.LicenseID.String())

	return LinkRedeemResponse{
		AccountID: account.AccountID,
		LicenseID: envelope.LicenseID,
	}, nil
}
