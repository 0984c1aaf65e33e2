package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "memory", cfg.Storage.Adapter)
	assert.Equal(t, 1, cfg.Leveling.Rate)
	assert.Equal(t, 60*time.Second, cfg.Leveling.Per)
	assert.Equal(t, 15, cfg.Leveling.AmountMin)
	assert.Equal(t, 25, cfg.Leveling.AmountMax)
	assert.True(t, cfg.Leveling.AnnounceLevelUp)
	assert.True(t, cfg.Leveling.StackAwards)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LEVELKIT_ENV", "production")
	t.Setenv("LEVELKIT_LEVELING_RATE", "3")
	t.Setenv("LEVELKIT_LEVELING_PER", "90s")
	t.Setenv("LEVELKIT_LEVELING_NO_XP_ROLES", "100, 200,300")
	t.Setenv("LEVELKIT_STORAGE_ADAPTER", "sqlite")
	t.Setenv("LEVELKIT_STORAGE_SQLITE_PATH", "/tmp/levels.db")
	t.Setenv("LEVELKIT_SERVER_API_KEYS", "k1,k2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvProduction, cfg.Environment)
	assert.Equal(t, 3, cfg.Leveling.Rate)
	assert.Equal(t, 90*time.Second, cfg.Leveling.Per)
	assert.Equal(t, []int64{100, 200, 300}, cfg.Leveling.NoXPRoles)
	assert.Equal(t, "sqlite", cfg.Storage.Adapter)
	assert.Equal(t, "/tmp/levels.db", cfg.Storage.SQLite.Path)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Server.APIKeys)
}

func TestLoadFromFile(t *testing.T) {
	content := `{
		"environment": "testing",
		"server": {"address": ":9090"},
		"storage": {"adapter": "memory"},
		"leveling": {"rate": 2, "per": 30000000000, "amount_min": 10, "amount_max": 20}
	}`
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, EnvTesting, cfg.Environment)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, 2, cfg.Leveling.Rate)
	assert.Equal(t, 30*time.Second, cfg.Leveling.Per)
}

func TestLoadFromFileRejectsBadPath(t *testing.T) {
	_, err := LoadFromFile("")
	require.Error(t, err)
	_, err = LoadFromFile("config.yaml")
	require.Error(t, err)
	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero rate", func(c *Config) { c.Leveling.Rate = 0 }},
		{"zero per", func(c *Config) { c.Leveling.Per = 0 }},
		{"amount above cap", func(c *Config) { c.Leveling.AmountMin = 10; c.Leveling.AmountMax = 26 }},
		{"inverted amount range", func(c *Config) { c.Leveling.AmountMin = 20; c.Leveling.AmountMax = 10 }},
		{"unknown adapter", func(c *Config) { c.Storage.Adapter = "mongo" }},
		{"sqlite without path", func(c *Config) { c.Storage.Adapter = "sqlite"; c.Storage.SQLite.Path = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"empty api key", func(c *Config) { c.Server.APIKeys = []string{" "} }},
		{"negative no-xp role", func(c *Config) { c.Leveling.NoXPRoles = []int64{-1} }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestValidateAcceptsFixedAmount(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Leveling.AmountMin = 20
	cfg.Leveling.AmountMax = 20
	require.NoError(t, cfg.Validate())

	amount, err := cfg.Leveling.Amount()
	require.NoError(t, err)
	_ = amount
}

func TestStringRedactsSecrets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Redis.Password = "hunter2"
	cfg.Server.APIKeys = []string{"secret-key"}

	out := cfg.String()
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "secret-key")
}
