package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"PAGEBUILDER_API_URL", "PAGEBUILDER_API_TOKEN", "PAGEBUILDER_DB",
		"PAGEBUILDER_ADDR", "PAGEBUILDER_LOG_LEVEL", "PAGEBUILDER_CATALOG_DIR",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "cascade", cfg.Editor.RemovePolicy)
	assert.Equal(t, 40, cfg.Server.MaxRevisions)
	assert.Equal(t, 1750*time.Millisecond, cfg.GetNoticeTTL())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server.Addr, cfg.Server.Addr)
}

func TestLoad_OverlaysFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: https://admin.example.com
editor:
  remove_policy: promote
  notice_ttl: 3s
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://admin.example.com", cfg.API.BaseURL)
	assert.Equal(t, "promote", cfg.Editor.RemovePolicy)
	assert.Equal(t, 3*time.Second, cfg.GetNoticeTTL())
	// untouched sections keep defaults
	assert.Equal(t, 40, cfg.Server.MaxRevisions)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unclosed"), 0600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PAGEBUILDER_API_URL", "http://env:9000")
	t.Setenv("PAGEBUILDER_API_TOKEN", "tok")
	t.Setenv("PAGEBUILDER_DB", "/tmp/x.db")
	t.Setenv("PAGEBUILDER_ADDR", ":9999")
	t.Setenv("PAGEBUILDER_LOG_LEVEL", "debug")
	t.Setenv("PAGEBUILDER_CATALOG_DIR", "/etc/catalog")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://env:9000", cfg.API.BaseURL)
	assert.Equal(t, "tok", cfg.API.Token)
	assert.Equal(t, "/tmp/x.db", cfg.Storage.Path)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/etc/catalog", cfg.Catalog.Dir)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base url", func(c *Config) { c.API.BaseURL = "" }},
		{"empty db path", func(c *Config) { c.Storage.Path = "" }},
		{"bad policy", func(c *Config) { c.Editor.RemovePolicy = "explode" }},
		{"dangling children policy", func(c *Config) { c.Editor.RemovePolicy = "orphan" }},
		{"bad backend", func(c *Config) { c.Secrets.Backend = "vault" }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
		{"no revisions", func(c *Config) { c.Server.MaxRevisions = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDurationGetters_FallBack(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, 20*time.Second, cfg.GetAPITimeout())
	assert.Equal(t, 250*time.Millisecond, cfg.GetCatalogDebounce())
	assert.Equal(t, 15*time.Second, cfg.GetReadTimeout())
	assert.Equal(t, 30*time.Second, cfg.GetWriteTimeout())
}

func TestSave_RoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Editor.DefaultSource = "warehouse"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warehouse", loaded.Editor.DefaultSource)
}
