package config

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backend selects the document store implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendPostgres Backend = "postgres"
	BackendRedis    Backend = "redis"
)

// Server captures process level configuration.
type Server struct {
	Addr        string
	Environment string

	DIDMethod          string
	IssuerDID          string
	IssuerSeed         []byte
	CredentialValidity time.Duration
	GrantTTL           time.Duration
	ProofSuite         string

	StoreTimeout time.Duration
	Backend      Backend
	DatabaseURL  string
	Redis        RedisConfig

	KafkaBrokers string
	AuditTopic   string

	JWTSigningKey string
	TokenIssuer   string
	TokenAudience string
	TokenTTL      time.Duration

	WalletKey []byte
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// GrantWindow is the authorization grant lifetime. GRANT_TTL may only
// differ from it outside production.
const GrantWindow = 24 * time.Hour

// DevSigningKey is the token signing key used when JWT_SIGNING_KEY is unset.
// cmd/tokengen signs with it.
const DevSigningKey = "dev-secret-key-change-in-production"

// all-zero wallet key; only accepted outside production
const devWalletKey = "0000000000000000000000000000000000000000000000000000000000000000"

// Default token claims, shared with cmd/tokengen.
const (
	DefaultTokenIssuer   = "didgate"
	DefaultTokenAudience = "didgate-gateway"
)

// FromEnv builds the Server config from environment variables. Invalid values
// are returned as errors so the process refuses to start.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:          getEnv("DIDGATE_ADDR", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		DIDMethod:     getEnv("DID_METHOD", "example"),
		IssuerDID:     getEnv("ISSUER_DID", "did:example:government"),
		ProofSuite:    getEnv("PROOF_SUITE", "Ed25519Signature2020"),
		Backend:       Backend(strings.ToLower(getEnv("DOCSTORE_BACKEND", string(BackendMemory)))),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		KafkaBrokers:  os.Getenv("KAFKA_BROKERS"),
		AuditTopic:    getEnv("AUDIT_TOPIC", "didgate.audit"),
		JWTSigningKey: getEnv("JWT_SIGNING_KEY", DevSigningKey),
		TokenIssuer:   getEnv("TOKEN_ISSUER", DefaultTokenIssuer),
		TokenAudience: getEnv("TOKEN_AUDIENCE", DefaultTokenAudience),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}

	var err error
	if cfg.CredentialValidity, err = durationEnv("CREDENTIAL_VALIDITY", 8760*time.Hour); err != nil {
		return Server{}, err
	}
	if cfg.GrantTTL, err = durationEnv("GRANT_TTL", GrantWindow); err != nil {
		return Server{}, err
	}
	if cfg.StoreTimeout, err = durationEnv("STORE_TIMEOUT", 5*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.TokenTTL, err = durationEnv("TOKEN_TTL", 15*time.Minute); err != nil {
		return Server{}, err
	}
	if cfg.Redis.PoolSize, err = intEnv("REDIS_POOL_SIZE", cfg.Redis.PoolSize); err != nil {
		return Server{}, err
	}
	if cfg.IssuerSeed, err = hexEnv("ISSUER_SEED", ed25519.SeedSize); err != nil {
		return Server{}, err
	}

	walletKey := os.Getenv("WALLET_KEY")
	if walletKey == "" && !cfg.IsProduction() {
		walletKey = devWalletKey
	}
	if cfg.WalletKey, err = hex.DecodeString(walletKey); err != nil || len(cfg.WalletKey) != 32 {
		return Server{}, fmt.Errorf("WALLET_KEY must be 64 hex characters")
	}

	return cfg, cfg.validate()
}

func (c Server) validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DOCSTORE_BACKEND=postgres requires DATABASE_URL")
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("DOCSTORE_BACKEND=redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("DOCSTORE_BACKEND must be memory, postgres or redis, got %q", c.Backend)
	}
	switch c.ProofSuite {
	case "Ed25519Signature2020", "JsonWebSignature2020":
	default:
		return fmt.Errorf("PROOF_SUITE must be Ed25519Signature2020 or JsonWebSignature2020, got %q", c.ProofSuite)
	}
	if c.IsProduction() {
		if c.JWTSigningKey == DevSigningKey {
			return fmt.Errorf("JWT_SIGNING_KEY must be set in production")
		}
		if len(c.IssuerSeed) == 0 {
			return fmt.Errorf("ISSUER_SEED must be set in production")
		}
		if c.GrantTTL != GrantWindow {
			return fmt.Errorf("GRANT_TTL is fixed at %s in production, got %s", GrantWindow, c.GrantTTL)
		}
	}
	if c.GrantTTL <= 0 || c.CredentialValidity <= 0 || c.StoreTimeout <= 0 || c.TokenTTL <= 0 {
		return fmt.Errorf("durations must be positive")
	}
	return nil
}

// IsProduction reports whether dev fallbacks are disallowed.
func (c Server) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func hexEnv(key string, size int) ([]byte, error) {
	v := os.Getenv(key)
	if v == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(v)
	if err != nil || len(b) != size {
		return nil, fmt.Errorf("%s must be %d hex-encoded bytes", key, size)
	}
	return b, nil
}
