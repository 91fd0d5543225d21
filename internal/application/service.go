package application

import (
	"time"

	"github.com/keygate-labs/keygate/internal/ports"
)

// Service orchestrates the license, session, linking and protocol use-cases
// over injected ports. It holds no mutable state of its own; every request is
// a pure orchestration over the registry and the ephemeral store.
type Service struct {
	cfg         Config
	licenses    ports.LicenseRepository
	sessions    ports.SessionRepository
	accounts    ports.AccountRepository
	clients     ports.ClientRepository
	codes       ports.CodeStore
	rateLimits  ports.RateLimitStore
	revocations ports.SessionRevocationStore
	audit       ports.AuditLog
	files       ports.FileStorage
	secrets     ports.SecretHasher
	tokenSigner ports.TokenSigner
	nowFn       func() time.Time
}

type Dependencies struct {
	Config      Config
	Licenses    ports.LicenseRepository
	Sessions    ports.SessionRepository
	Accounts    ports.AccountRepository
	Clients     ports.ClientRepository
	Codes       ports.CodeStore
	RateLimits  ports.RateLimitStore
	Revocations ports.SessionRevocationStore
	Audit       ports.AuditLog
	Files       ports.FileStorage
	Secrets     ports.SecretHasher
	TokenSigner ports.TokenSigner
	// Now overrides the clock; nil means UTC wall time. Tests inject this so
	// expiry behavior never depends on sleeps.
	Now func() time.Time
}

func NewService(deps Dependencies) *Service {
	nowFn := deps.Now
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		cfg:         deps.Config,
		licenses:    deps.Licenses,
		sessions:    deps.Sessions,
		accounts:    deps.Accounts,
		clients:     deps.Clients,
		codes:       deps.Codes,
		rateLimits:  deps.RateLimits,
		revocations: deps.Revocations,
		audit:       deps.Audit,
		files:       deps.Files,
		secrets:     deps.Secrets,
		tokenSigner: deps.TokenSigner,
		nowFn:       nowFn,
	}
}

// PublicJWKs exposes the signer's verification keys for sibling services.
func (s *Service) PublicJWKs() ([]map[string]any, error) {
	return s.tokenSigner.PublicJWKs()
}
