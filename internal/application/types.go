package application

import (
	"time"

	"github.com/google/uuid"
	"github.com/keygate-labs/keygate/internal/domain"
)

// Config captures application-level policy knobs resolved by bootstrap.
type Config struct {
	AuthCodeTTL    time.Duration
	LinkCodeTTL    time.Duration
	AccessTokenTTL time.Duration
	SessionTTL     time.Duration

	ResetQuota domain.ResetQuota

	LoginRateLimitThreshold     int
	LoginRateLimitWindow        time.Duration
	AuthorizeRateLimitThreshold int
	AuthorizeRateLimitWindow    time.Duration

	MaxLicenseBatch int
}

// FingerprintInput is the wire shape of a reported hardware identity.
type FingerprintInput struct {
	CPU     string `json:"cpu" validate:"required"`
	BIOS    string `json:"bios" validate:"required"`
	RAM     string `json:"ram" validate:"required"`
	Disk    string `json:"disk" validate:"required"`
	Display string `json:"display" validate:"required"`
}

func (f FingerprintInput) components() domain.FingerprintComponents {
	return domain.FingerprintComponents{
		CPU:     f.CPU,
		BIOS:    f.BIOS,
		RAM:     f.RAM,
		Disk:    f.Disk,
		Display: f.Display,
	}
}

type SessionCreateRequest struct {
	LicenseKey  string           `json:"license_key" validate:"required"`
	Fingerprint FingerprintInput `json:"fingerprint"`
	IPAddress   string           `json:"-"`
}

type SessionCreateResponse struct {
	Token     string    `json:"token"`
	SessionID uuid.UUID `json:"session_id"`
	LicenseID uuid.UUID `json:"license_id"`
	ExpiresIn int64     `json:"expires_in"`
}

type SessionRefreshResponse struct {
	Token     string    `json:"token"`
	SessionID uuid.UUID `json:"session_id"`
	ExpiresIn int64     `json:"expires_in"`
}

type SessionResumeResponse struct {
	SessionID        uuid.UUID `json:"session_id"`
	LicenseID        uuid.UUID `json:"license_id"`
	RemainingSeconds int64     `json:"remaining_seconds"`
	ExpiresIn        int64     `json:"expires_in"`
}

type LicenseCreateRequest struct {
	Count           int   `json:"count" validate:"min=1"`
	DurationSeconds int64 `json:"duration_seconds" validate:"min=1"`
}

type LicenseItem struct {
	LicenseID        uuid.UUID  `json:"license_id"`
	Key              string     `json:"key"`
	Activated        bool       `json:"activated"`
	Status           string     `json:"status"`
	AccountID        *uuid.UUID `json:"account_id,omitempty"`
	FingerprintBound bool       `json:"fingerprint_bound"`
	RemainingSeconds int64      `json:"remaining_seconds"`
	CreatedAt        time.Time  `json:"created_at"`
}

type LinkCodeResponse struct {
	Code      string `json:"code"`
	ExpiresIn int64  `json:"expires_in"`
}

type LinkRedeemRequest struct {
	Code              string `json:"code" validate:"required"`
	ExternalAccountID string `json:"external_account_id" validate:"required"`
	Email             string `json:"email" validate:"omitempty,email"`
	DisplayName       string `json:"display_name"`
	IPAddress         string `json:"-"`
}

type LinkRedeemResponse struct {
	AccountID uuid.UUID `json:"account_id"`
	LicenseID uuid.UUID `json:"license_id"`
}

type ClientRegisterRequest struct {
	ClientID string `json:"client_id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Secret   string `json:"secret" validate:"required,min=16"`
}

// AuthorizeRequest mirrors the OAuth2 authorize query contract.
type AuthorizeRequest struct {
	ClientID            string
	ResponseType        string
	State               string
	Scope               string
	CodeChallenge       string
	CodeChallengeMethod string
	IPAddress           string
}

type AuthorizeResponse struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

// TokenRequest mirrors the OAuth2 token form contract.
type TokenRequest struct {
	GrantType    string
	Code         string
	ClientID     string
	ClientSecret string
	CodeVerifier string
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
}

func toLicenseItem(lic domain.License, now time.Time) LicenseItem {
	return LicenseItem{
		LicenseID:        lic.LicenseID,
		Key:              lic.Key,
		Activated:        lic.Activated,
		Status:           string(lic.Status),
		AccountID:        lic.AccountID,
		FingerprintBound: lic.FingerprintID != nil,
		RemainingSeconds: int64(lic.Remaining(now).Seconds()),
		CreatedAt:        lic.CreatedAt,
	}
}
