package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/keygate-labs/keygate/internal/domain"
)

type clientRepository struct {
	db *gorm.DB
}

func (r *clientRepository) GetByID(ctx context.Context, clientID string) (domain.Client, error) {
	var rec clientModel
	if err := r.db.WithContext(ctx).Where("client_id = ?", clientID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Client{}, domain.ErrNotFound
		}
		return domain.Client{}, err
	}
	return toDomainClient(rec), nil
}

func (r *clientRepository) Create(ctx context.Context, client domain.Client) error {
	rec := clientModel{
		ClientID:   client.ClientID,
		SecretHash: client.SecretHash,
		Name:       client.Name,
		CreatedAt:  client.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}
