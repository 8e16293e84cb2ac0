package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, "did:example:government", cfg.IssuerDID)
	assert.Equal(t, 24*time.Hour, cfg.GrantTTL)
	assert.Equal(t, 8760*time.Hour, cfg.CredentialValidity)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Len(t, cfg.WalletKey, 32)
	assert.Empty(t, cfg.IssuerSeed)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DOCSTORE_BACKEND", "Redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("STORE_TIMEOUT", "750ms")
	t.Setenv("ISSUER_SEED", strings.Repeat("ab", 32))

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, BackendRedis, cfg.Backend)
	assert.Equal(t, 750*time.Millisecond, cfg.StoreTimeout)
	assert.Len(t, cfg.IssuerSeed, 32)
}

func TestFromEnvRejects(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown backend":       {"DOCSTORE_BACKEND": "mongo"},
		"postgres without url":  {"DOCSTORE_BACKEND": "postgres"},
		"bad duration":          {"GRANT_TTL": "a day"},
		"short seed":            {"ISSUER_SEED": "abcd"},
		"bad wallet key":        {"WALLET_KEY": "nothex"},
		"unknown proof suite":   {"PROOF_SUITE": "RsaSignature2018"},
		"prod with dev secrets": {"ENVIRONMENT": "production", "WALLET_KEY": strings.Repeat("01", 32)},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestGrantTTLFixedInProduction(t *testing.T) {
	prod := func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("WALLET_KEY", strings.Repeat("01", 32))
		t.Setenv("ISSUER_SEED", strings.Repeat("ab", 32))
		t.Setenv("JWT_SIGNING_KEY", "prod-signing-key")
	}

	t.Run("default window accepted", func(t *testing.T) {
		prod(t)
		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, GrantWindow, cfg.GrantTTL)
	})

	t.Run("override rejected", func(t *testing.T) {
		prod(t)
		t.Setenv("GRANT_TTL", "1h")
		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "GRANT_TTL")
	})

	t.Run("override allowed outside production", func(t *testing.T) {
		t.Setenv("GRANT_TTL", "2s")
		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, 2*time.Second, cfg.GrantTTL)
	})
}
