package postgres

import (
	"errors"
	"strings"

	"github.com/keygate-labs/keygate/internal/domain"
	"gorm.io/gorm"
)

func toDomainLicense(row licenseModel) domain.License {
	return domain.License{
		LicenseID:            row.LicenseID,
		Key:                  row.Key,
		Activated:            row.Activated,
		Status:               domain.LicenseStatus(row.Status),
		AccountID:            row.AccountID,
		FingerprintID:        row.FingerprintID,
		RemainingSeconds:     row.RemainingSeconds,
		StartedAt:            row.StartedAt,
		ResetsUsed:           row.ResetsUsed,
		ResetWindowStartedAt: row.ResetWindowStartedAt,
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}
}

func toDomainFingerprint(row fingerprintModel) domain.Fingerprint {
	return domain.Fingerprint{
		FingerprintID: row.FingerprintID,
		FingerprintComponents: domain.FingerprintComponents{
			CPU:     row.CPUHash,
			BIOS:    row.BIOSHash,
			RAM:     row.RAMHash,
			Disk:    row.DiskHash,
			Display: row.DisplayHash,
		},
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func toDomainSession(row sessionModel) domain.Session {
	ip := ""
	if row.IPAddress != nil {
		ip = *row.IPAddress
	}
	return domain.Session{
		SessionID:       row.SessionID,
		LicenseID:       row.LicenseID,
		FingerprintID:   row.FingerprintID,
		AuthToken:       row.AuthToken,
		IPAddress:       ip,
		CreatedAt:       row.CreatedAt,
		LastRefreshedAt: row.LastRefreshedAt,
		ExpiresAt:       row.ExpiresAt,
		RevokedAt:       row.RevokedAt,
	}
}

func toDomainAccount(row accountModel) domain.Account {
	return domain.Account{
		AccountID:   row.AccountID,
		ExternalID:  row.ExternalID,
		Email:       row.Email,
		DisplayName: row.DisplayName,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func toDomainClient(row clientModel) domain.Client {
	return domain.Client{
		ClientID:   row.ClientID,
		SecretHash: row.SecretHash,
		Name:       row.Name,
		CreatedAt:  row.CreatedAt,
	}
}

func nullableString(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
