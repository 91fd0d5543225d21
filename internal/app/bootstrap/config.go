package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the license service.
// It merges file defaults and environment overrides to support both local and deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL string
	RedisURL    string

	JWTPrivateKeyPEM  string
	JWTPublicKeyPEM   string
	JWTKeyID          string
	AllowEphemeralJWT bool

	BcryptCost int

	AdminToken  string
	StorageRoot string

	AuthCodeTTL    time.Duration
	LinkCodeTTL    time.Duration
	AccessTokenTTL time.Duration
	SessionTTL     time.Duration

	MaxHWIDResets   int
	HWIDResetWindow time.Duration

	LoginRateLimitThreshold     int
	LoginRateLimitWindow        time.Duration
	AuthorizeRateLimitThreshold int
	AuthorizeRateLimitWindow    time.Duration

	MaxLicenseBatch int
	MaxDBConns      int32
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL string `yaml:"postgres_url"`
		RedisURL    string `yaml:"redis_url"`
	} `yaml:"dependencies"`
	Storage struct {
		Root string `yaml:"root"`
	} `yaml:"storage"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// This order keeps local bootstrap simple while allowing environment-specific overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:                   "Keygate-License-Service",
		HTTPPort:                    8080,
		GRPCPort:                    9090,
		JWTKeyID:                    "keygate-key-1",
		AllowEphemeralJWT:           true,
		BcryptCost:                  12,
		AuthCodeTTL:                 30 * time.Second,
		LinkCodeTTL:                 30 * time.Minute,
		AccessTokenTTL:              time.Hour,
		SessionTTL:                  24 * time.Hour,
		MaxHWIDResets:               3,
		HWIDResetWindow:             30 * 24 * time.Hour,
		LoginRateLimitThreshold:     10,
		LoginRateLimitWindow:        time.Minute,
		AuthorizeRateLimitThreshold: 30,
		AuthorizeRateLimitWindow:    time.Minute,
		MaxLicenseBatch:             500,
		MaxDBConns:                  20,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if f.Storage.Root != "" {
			cfg.StorageRoot = f.Storage.Root
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.JWTPrivateKeyPEM = envOrDefault("JWT_PRIVATE_KEY_PEM", cfg.JWTPrivateKeyPEM)
	cfg.JWTPublicKeyPEM = envOrDefault("JWT_PUBLIC_KEY_PEM", cfg.JWTPublicKeyPEM)
	cfg.JWTKeyID = envOrDefault("JWT_KEY_ID", cfg.JWTKeyID)
	cfg.AllowEphemeralJWT = envBool("JWT_ALLOW_EPHEMERAL", cfg.AllowEphemeralJWT)
	cfg.AdminToken = envOrDefault("ADMIN_TOKEN", cfg.AdminToken)
	cfg.StorageRoot = envOrDefault("STORAGE_ROOT", cfg.StorageRoot)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.BcryptCost = envInt("BCRYPT_ROUNDS", cfg.BcryptCost)
	cfg.MaxHWIDResets = envInt("HWID_MAX_RESETS", cfg.MaxHWIDResets)
	cfg.MaxLicenseBatch = envInt("LICENSE_MAX_BATCH", cfg.MaxLicenseBatch)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.LoginRateLimitThreshold = envInt("LOGIN_RATE_LIMIT_THRESHOLD", cfg.LoginRateLimitThreshold)
	cfg.AuthorizeRateLimitThreshold = envInt("AUTHORIZE_RATE_LIMIT_THRESHOLD", cfg.AuthorizeRateLimitThreshold)

	cfg.AuthCodeTTL = time.Duration(envInt("AUTH_CODE_TTL_SECONDS", int(cfg.AuthCodeTTL.Seconds()))) * time.Second
	cfg.LinkCodeTTL = time.Duration(envInt("LINK_CODE_TTL_MINUTES", int(cfg.LinkCodeTTL.Minutes()))) * time.Minute
	cfg.AccessTokenTTL = time.Duration(envInt("ACCESS_TOKEN_TTL_MINUTES", int(cfg.AccessTokenTTL.Minutes()))) * time.Minute
	cfg.SessionTTL = time.Duration(envInt("SESSION_TTL_HOURS", int(cfg.SessionTTL.Hours()))) * time.Hour
	cfg.HWIDResetWindow = time.Duration(envInt("HWID_RESET_WINDOW_DAYS", int(cfg.HWIDResetWindow.Hours()/24))) * 24 * time.Hour
	cfg.LoginRateLimitWindow = time.Duration(envInt("LOGIN_RATE_LIMIT_WINDOW_SECONDS", int(cfg.LoginRateLimitWindow.Seconds()))) * time.Second
	cfg.AuthorizeRateLimitWindow = time.Duration(envInt("AUTHORIZE_RATE_LIMIT_WINDOW_SECONDS", int(cfg.AuthorizeRateLimitWindow.Seconds()))) * time.Second

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if (cfg.JWTPrivateKeyPEM == "" || cfg.JWTPublicKeyPEM == "") && !cfg.AllowEphemeralJWT {
		return Config{}, fmt.Errorf("missing JWT_PRIVATE_KEY_PEM or JWT_PUBLIC_KEY_PEM")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envBool parses common boolean env forms while keeping a deterministic fallback.
func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return fallback
	}
}
