package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/keygate-labs/keygate/internal/ports"
)

type auditRepository struct {
	db *gorm.DB
}

func (r *auditRepository) Record(ctx context.Context, entry ports.AuditEntry) error {
	rec := auditLogModel{
		ActorID:   entry.ActorID,
		Kind:      entry.Kind,
		IPAddress: nullableString(entry.IPAddress),
		TargetID:  entry.TargetID,
		At:        entry.At,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}
