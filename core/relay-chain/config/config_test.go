package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "bolt", cfg.StorageBackend)
	assert.Equal(t, uint64(100), cfg.Reward)
	assert.Equal(t, "100000000000000000000", cfg.RewardWei().String())
	assert.Equal(t, DefaultOwner, cfg.OwnerAddress().Hex())
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "earlybirds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_addr: ":9000"
storage_backend: leveldb
database_path: /tmp/eb
reward: 250
allowed_origins:
  - http://localhost:3000
`), 0o600))

	t.Run("File over defaults", func(t *testing.T) {
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":9000", cfg.ListenAddr)
		assert.Equal(t, "leveldb", cfg.StorageBackend)
		assert.Equal(t, uint64(250), cfg.Reward)
		assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
		assert.Equal(t, uint64(1000000), cfg.Funding)
	})

	t.Run("Env over file", func(t *testing.T) {
		t.Setenv("EARLYBIRDS_LISTEN_ADDR", ":7000")
		t.Setenv("EARLYBIRDS_REWARD", "5")
		t.Setenv("EARLYBIRDS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":7000", cfg.ListenAddr)
		assert.Equal(t, uint64(5), cfg.Reward)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
		assert.Equal(t, "leveldb", cfg.StorageBackend)
	})
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("EARLYBIRDS_REWARD", "lots")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty listen addr", func(c *Config) { c.ListenAddr = "" }},
		{"unknown backend", func(c *Config) { c.StorageBackend = "postgres" }},
		{"bolt without path", func(c *Config) { c.DatabasePath = "" }},
		{"bad owner", func(c *Config) { c.Owner = "alice" }},
		{"zero owner", func(c *Config) { c.Owner = "0x0000000000000000000000000000000000000000" }},
		{"zero supply", func(c *Config) { c.InitialSupply = 0 }},
		{"funding above supply", func(c *Config) { c.Funding = c.InitialSupply + 1 }},
		{"zero reward", func(c *Config) { c.Reward = 0 }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	t.Run("memory backend needs no path", func(t *testing.T) {
		cfg := Default()
		cfg.StorageBackend = "memory"
		cfg.DatabasePath = ""
		assert.NoError(t, cfg.Validate())
	})
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "debug"
	cfg.LogFormat = "json"
	logger := cfg.NewLogger()
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}
