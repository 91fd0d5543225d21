package postgres

import (
	"github.com/keygate-labs/keygate/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Licenses ports.LicenseRepository
	Sessions ports.SessionRepository
	Accounts ports.AccountRepository
	Clients  ports.ClientRepository
	Audit    ports.AuditLog
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Licenses: &licenseRepository{db: db},
		Sessions: &sessionRepository{db: db},
		Accounts: &accountRepository{db: db},
		Clients:  &clientRepository{db: db},
		Audit:    &auditRepository{db: db},
	}
}
