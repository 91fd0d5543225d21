package postgres

import (
	"time"

	"github.com/google/uuid"
)

type licenseModel struct {
	LicenseID            uuid.UUID  `gorm:"column:license_id;type:uuid;default:gen_random_uuid();primaryKey"`
	Key                  string     `gorm:"column:key"`
	Activated            bool       `gorm:"column:activated"`
	Status               string     `gorm:"column:status"`
	AccountID            *uuid.UUID `gorm:"column:account_id"`
	FingerprintID        *uuid.UUID `gorm:"column:fingerprint_id"`
	RemainingSeconds     int64      `gorm:"column:remaining_seconds"`
	StartedAt            *time.Time `gorm:"column:started_at"`
	ResetsUsed           int        `gorm:"column:resets_used"`
	ResetWindowStartedAt *time.Time `gorm:"column:reset_window_started_at"`
	CreatedAt            time.Time  `gorm:"column:created_at"`
	UpdatedAt            time.Time  `gorm:"column:updated_at"`
}

func (licenseModel) TableName() string { return "licenses" }

type fingerprintModel struct {
	FingerprintID uuid.UUID `gorm:"column:fingerprint_id;type:uuid;default:gen_random_uuid();primaryKey"`
	LicenseID     uuid.UUID `gorm:"column:license_id"`
	CPUHash       string    `gorm:"column:cpu_hash"`
	BIOSHash      string    `gorm:"column:bios_hash"`
	RAMHash       string    `gorm:"column:ram_hash"`
	DiskHash      string    `gorm:"column:disk_hash"`
	DisplayHash   string    `gorm:"column:display_hash"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (fingerprintModel) TableName() string { return "fingerprints" }

type sessionModel struct {
	SessionID       uuid.UUID  `gorm:"column:session_id;type:uuid;default:gen_random_uuid();primaryKey"`
	LicenseID       uuid.UUID  `gorm:"column:license_id"`
	FingerprintID   *uuid.UUID `gorm:"column:fingerprint_id"`
	AuthToken       string     `gorm:"column:auth_token"`
	IPAddress       *string    `gorm:"column:ip_address"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	LastRefreshedAt time.Time  `gorm:"column:last_refreshed_at"`
	ExpiresAt       time.Time  `gorm:"column:expires_at"`
	RevokedAt       *time.Time `gorm:"column:revoked_at"`
}

func (sessionModel) TableName() string { return "sessions" }

type accountModel struct {
	AccountID   uuid.UUID `gorm:"column:account_id;type:uuid;default:gen_random_uuid();primaryKey"`
	ExternalID  string    `gorm:"column:external_id"`
	Email       string    `gorm:"column:email"`
	DisplayName string    `gorm:"column:display_name"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (accountModel) TableName() string { return "accounts" }

type clientModel struct {
	ClientID   string    `gorm:"column:client_id;primaryKey"`
	SecretHash string    `gorm:"column:secret_hash"`
	Name       string    `gorm:"column:name"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (clientModel) TableName() string { return "oauth_clients" }

type auditLogModel struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	ActorID   string    `gorm:"column:actor_id"`
	Kind      string    `gorm:"column:kind"`
	IPAddress *string   `gorm:"column:ip_address"`
	TargetID  string    `gorm:"column:target_id"`
	At        time.Time `gorm:"column:at"`
}

func (auditLogModel) TableName() string { return "audit_log" }
