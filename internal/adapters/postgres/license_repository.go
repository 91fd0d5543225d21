package postgres

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/keygate-labs/keygate/internal/domain"
)

type licenseRepository struct {
	db *gorm.DB
}

// keyAlphabet avoids 0/O and 1/I so keys survive being read aloud.
const keyAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func newLicenseKey() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate license key: %w", err)
	}
	out := make([]byte, 0, 24)
	for i, b := range buf {
		if i > 0 && i%5 == 0 {
			out = append(out, '-')
		}
		out = append(out, keyAlphabet[int(b)%len(keyAlphabet)])
	}
	return string(out), nil
}

func (r *licenseRepository) CreateBatch(ctx context.Context, durationSeconds int64, count int, createdAt time.Time) ([]domain.License, error) {
	records := make([]licenseModel, 0, count)
	for i := 0; i < count; i++ {
		key, err := newLicenseKey()
		if err != nil {
			return nil, err
		}
		records = append(records, licenseModel{
			Key:              key,
			Activated:        false,
			Status:           string(domain.LicenseStatusActive),
			RemainingSeconds: durationSeconds,
			CreatedAt:        createdAt,
			UpdatedAt:        createdAt,
		})
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&records).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}

	result := make([]domain.License, 0, len(records))
	for _, rec := range records {
		result = append(result, toDomainLicense(rec))
	}
	return result, nil
}

func (r *licenseRepository) GetByID(ctx context.Context, licenseID uuid.UUID) (domain.License, error) {
	var rec licenseModel
	if err := r.db.WithContext(ctx).Where("license_id = ?", licenseID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.License{}, domain.ErrNotFound
		}
		return domain.License{}, err
	}
	return toDomainLicense(rec), nil
}

func (r *licenseRepository) GetByKey(ctx context.Context, key string) (domain.License, error) {
	var rec licenseModel
	if err := r.db.WithContext(ctx).Where("key = ?", key).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.License{}, domain.ErrNotFound
		}
		return domain.License{}, err
	}
	return toDomainLicense(rec), nil
}

func (r *licenseRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.License, error) {
	var rows []licenseModel
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.License, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomainLicense(row))
	}
	return result, nil
}

func (r *licenseRepository) Activate(ctx context.Context, licenseID uuid.UUID, now time.Time) (domain.License, error) {
	res := r.db.WithContext(ctx).
		Model(&licenseModel{}).
		Where("license_id = ?", licenseID).
		Where("activated = FALSE").
		Updates(map[string]any{
			"activated":  true,
			"started_at": now,
			"updated_at": now,
		})
	if res.Error != nil {
		return domain.License{}, res.Error
	}
	if res.RowsAffected == 0 {
		var exists int64
		if err := r.db.WithContext(ctx).Model(&licenseModel{}).Where("license_id = ?", licenseID).Count(&exists).Error; err != nil {
			return domain.License{}, err
		}
		if exists == 0 {
			return domain.License{}, domain.ErrNotFound
		}
		return domain.License{}, fmt.Errorf("%w: license already activated", domain.ErrConflict)
	}
	return r.GetByID(ctx, licenseID)
}

// BindFingerprint locks the license row, evaluates the drift policy against
// the currently bound fingerprint and applies the outcome. The reset counter
// and the fingerprint mutation commit together; a policy rejection rolls the
// transaction back untouched.
func (r *licenseRepository) BindFingerprint(ctx context.Context, licenseID uuid.UUID, candidate domain.FingerprintComponents, now time.Time, quota domain.ResetQuota) (domain.Fingerprint, error) {
	var result domain.Fingerprint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lic licenseModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("license_id = ?", licenseID).
			Take(&lic).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}

		var bound *domain.FingerprintComponents
		var boundRec fingerprintModel
		if lic.FingerprintID != nil {
			if err := tx.Where("fingerprint_id = ?", *lic.FingerprintID).Take(&boundRec).Error; err != nil {
				return err
			}
			fp := toDomainFingerprint(boundRec)
			bound = &fp.FingerprintComponents
		}

		resetsUsed := toDomainLicense(lic).EffectiveResetsUsed(now, quota)
		decision, err := domain.EvaluateBind(bound, candidate, resetsUsed, quota.MaxResets)
		if err != nil {
			return err
		}

		switch decision {
		case domain.BindAnchor:
			rec := fingerprintModel{
				LicenseID:   lic.LicenseID,
				CPUHash:     candidate.CPU,
				BIOSHash:    candidate.BIOS,
				RAMHash:     candidate.RAM,
				DiskHash:    candidate.Disk,
				DisplayHash: candidate.Display,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
			if err := tx.Model(&licenseModel{}).
				Where("license_id = ?", lic.LicenseID).
				Updates(map[string]any{
					"fingerprint_id": rec.FingerprintID,
					"updated_at":     now,
				}).Error; err != nil {
				return err
			}
			result = toDomainFingerprint(rec)
			return nil

		case domain.BindUnchanged:
			result = toDomainFingerprint(boundRec)
			return nil

		case domain.BindReset:
			if err := tx.Model(&fingerprintModel{}).
				Where("fingerprint_id = ?", boundRec.FingerprintID).
				Updates(map[string]any{
					"cpu_hash":     candidate.CPU,
					"bios_hash":    candidate.BIOS,
					"ram_hash":     candidate.RAM,
					"disk_hash":    candidate.Disk,
					"display_hash": candidate.Display,
					"updated_at":   now,
				}).Error; err != nil {
				return err
			}
			// The first reset of a period restarts the window; later resets
			// within it only bump the counter.
			updates := map[string]any{
				"resets_used": resetsUsed + 1,
				"updated_at":  now,
			}
			if resetsUsed == 0 {
				updates["reset_window_started_at"] = now
			}
			if err := tx.Model(&licenseModel{}).
				Where("license_id = ?", lic.LicenseID).
				Updates(updates).Error; err != nil {
				return err
			}
			boundRec.CPUHash = candidate.CPU
			boundRec.BIOSHash = candidate.BIOS
			boundRec.RAMHash = candidate.RAM
			boundRec.DiskHash = candidate.Disk
			boundRec.DisplayHash = candidate.Display
			boundRec.UpdatedAt = now
			result = toDomainFingerprint(boundRec)
			return nil
		}
		return fmt.Errorf("unhandled bind decision %d", decision)
	})
	if err != nil {
		return domain.Fingerprint{}, err
	}
	return result, nil
}

func (r *licenseRepository) PauseAll(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&licenseModel{}).
		Where("status = ?", string(domain.LicenseStatusActive)).
		Updates(map[string]any{
			"remaining_seconds": gorm.Expr(
				"CASE WHEN started_at IS NOT NULL THEN GREATEST(remaining_seconds - CAST(EXTRACT(EPOCH FROM (?::timestamptz - started_at)) AS BIGINT), 0) ELSE remaining_seconds END",
				now,
			),
			"started_at": nil,
			"status":     string(domain.LicenseStatusPaused),
			"updated_at": now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *licenseRepository) ResumeAll(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&licenseModel{}).
		Where("status = ?", string(domain.LicenseStatusPaused)).
		Updates(map[string]any{
			// Unactivated licenses stay clockless until first sign-in.
			"started_at": gorm.Expr("CASE WHEN activated THEN ?::timestamptz ELSE NULL END", now),
			"status":     string(domain.LicenseStatusActive),
			"updated_at": now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
