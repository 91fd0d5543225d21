package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/keygate-labs/keygate/internal/domain"
	"github.com/keygate-labs/keygate/internal/ports"
)

type sessionRepository struct {
	db *gorm.DB
}

func (r *sessionRepository) Create(ctx context.Context, params ports.SessionCreateParams) (domain.Session, error) {
	fingerprintID := params.FingerprintID
	rec := sessionModel{
		LicenseID:       params.LicenseID,
		FingerprintID:   &fingerprintID,
		AuthToken:       params.AuthToken,
		IPAddress:       nullableString(params.IPAddress),
		CreatedAt:       params.CreatedAt,
		LastRefreshedAt: params.CreatedAt,
		ExpiresAt:       params.ExpiresAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.Session{}, err
	}
	return toDomainSession(rec), nil
}

func (r *sessionRepository) GetByID(ctx context.Context, sessionID uuid.UUID) (domain.Session, error) {
	var rec sessionModel
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Session{}, domain.ErrNotFound
		}
		return domain.Session{}, err
	}
	return toDomainSession(rec), nil
}

func (r *sessionRepository) Rotate(ctx context.Context, sessionID uuid.UUID, authToken string, expiresAt, refreshedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&sessionModel{}).
		Where("session_id = ?", sessionID).
		Where("revoked_at IS NULL").
		Updates(map[string]any{
			"auth_token":        authToken,
			"expires_at":        expiresAt,
			"last_refreshed_at": refreshedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *sessionRepository) RevokeByID(ctx context.Context, sessionID uuid.UUID, revokedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&sessionModel{}).
		Where("session_id = ?", sessionID).
		Where("revoked_at IS NULL").
		Update("revoked_at", revokedAt)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var exists int64
		if err := r.db.WithContext(ctx).Model(&sessionModel{}).Where("session_id = ?", sessionID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return domain.ErrNotFound
		}
	}
	return nil
}

func (r *sessionRepository) RevokeAllByLicense(ctx context.Context, licenseID uuid.UUID, revokedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&sessionModel{}).
		Where("license_id = ?", licenseID).
		Where("revoked_at IS NULL").
		Update("revoked_at", revokedAt).Error
}

func (r *sessionRepository) RevokeAllActive(ctx context.Context, revokedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&sessionModel{}).
		Where("revoked_at IS NULL").
		Where("expires_at > ?", revokedAt).
		Update("revoked_at", revokedAt)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
