package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/keygate-labs/keygate/internal/domain"
	"github.com/keygate-labs/keygate/internal/ports"
)

type accountRepository struct {
	db *gorm.DB
}

func (r *accountRepository) GetOrCreate(ctx context.Context, externalID, email, displayName string, now time.Time) (domain.Account, error) {
	var result domain.Account
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		acc, err := getOrCreateAccount(tx, externalID, email, displayName, now)
		if err != nil {
			return err
		}
		result = acc
		return nil
	})
	if err != nil {
		return domain.Account{}, err
	}
	return result, nil
}

func (r *accountRepository) GetByExternalID(ctx context.Context, externalID string) (domain.Account, error) {
	var rec accountModel
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Account{}, domain.ErrNotFound
		}
		return domain.Account{}, err
	}
	return toDomainAccount(rec), nil
}

// LinkLicenseTx performs the whole link write set in one transaction: account
// upsert, already-linked assertion under row lock, license update. Nothing is
// written when the assertion fails.
func (r *accountRepository) LinkLicenseTx(ctx context.Context, params ports.LinkAccountParams) (domain.Account, error) {
	var result domain.Account
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lic licenseModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("license_id = ?", params.LicenseID).
			Take(&lic).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if lic.AccountID != nil {
			return domain.ErrAlreadyLinked
		}

		acc, err := getOrCreateAccount(tx, params.ExternalID, params.Email, params.DisplayName, params.Now)
		if err != nil {
			return err
		}

		if err := tx.Model(&licenseModel{}).
			Where("license_id = ?", params.LicenseID).
			Updates(map[string]any{
				"account_id": acc.AccountID,
				"updated_at": params.Now,
			}).Error; err != nil {
			return err
		}

		result = acc
		return nil
	})
	if err != nil {
		return domain.Account{}, err
	}
	return result, nil
}

func getOrCreateAccount(tx *gorm.DB, externalID, email, displayName string, now time.Time) (domain.Account, error) {
	var rec accountModel
	err := tx.Where("external_id = ?", externalID).Take(&rec).Error
	if err == nil {
		return toDomainAccount(rec), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Account{}, err
	}

	rec = accountModel{
		ExternalID:  externalID,
		Email:       email,
		DisplayName: displayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.Create(&rec).Error; err != nil {
		// Concurrent creation of the same external id: fall back to the winner.
		if isUniqueViolation(err) {
			var existing accountModel
			if takeErr := tx.Where("external_id = ?", externalID).Take(&existing).Error; takeErr != nil {
				return domain.Account{}, takeErr
			}
			return toDomainAccount(existing), nil
		}
		return domain.Account{}, err
	}
	return toDomainAccount(rec), nil
}
