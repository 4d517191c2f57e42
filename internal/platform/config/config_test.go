package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credchain.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTTL)
	assert.Equal(t, 24*time.Hour, cfg.Verification.TokenTTL)
	assert.Equal(t, int64(20<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, ChainBackendLedger, cfg.Chain.Backend)
}

func TestLoadFileThenEnvironment(t *testing.T) {
	path := writeFile(t, `
server:
  addr: ":9000"
chain:
  network: holesky
  callTimeout: 45s
kafka:
  brokers: "a:9092, b:9092,a:9092"
`)
	t.Setenv("CREDCHAIN_SERVER_ADDR", ":9100")
	t.Setenv("CREDCHAIN_AUTH_ACCESS_TTL", "5m")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Server.Addr, "environment wins over file")
	assert.Equal(t, "holesky", cfg.Chain.Network)
	assert.Equal(t, 45*time.Second, cfg.Chain.CallTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.BrokerList())
}

func TestLoadRejectsDevSecretsOutsideDev(t *testing.T) {
	t.Setenv("CREDCHAIN_ENV", "production")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "development secrets")
}

func TestValidate(t *testing.T) {
	t.Run("ethereum backend requires connection settings", func(t *testing.T) {
		cfg := Default()
		cfg.Chain.Backend = ChainBackendEthereum
		assert.ErrorContains(t, cfg.Validate(), "rpcURL")
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := Default()
		cfg.Chain.Backend = "bitcoin"
		assert.ErrorContains(t, cfg.Validate(), "unknown backend")
	})

	t.Run("secrets must differ", func(t *testing.T) {
		cfg := Default()
		cfg.Auth.RefreshSecret = cfg.Auth.AccessSecret
		assert.ErrorContains(t, cfg.Validate(), "must differ")
	})
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config file")
}
