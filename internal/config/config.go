package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all pagebuilder configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	API       APIConfig       `yaml:"api"`
	Storage   StorageConfig   `yaml:"storage"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Editor    EditorConfig    `yaml:"editor"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Secrets   SecretsConfig   `yaml:"secrets"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig configures the local admin API server.
type ServerConfig struct {
	Addr         string `yaml:"addr"`
	ReadTimeout  string `yaml:"read_timeout"`
	WriteTimeout string `yaml:"write_timeout"`
	// MaxRevisions is how many revisions are kept per page.
	MaxRevisions int `yaml:"max_revisions"`
}

// APIConfig configures the admin API client.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
	Timeout string `yaml:"timeout"`
}

// StorageConfig configures the SQLite database.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// CatalogConfig configures extra kinds and templates loaded from disk.
type CatalogConfig struct {
	Dir      string `yaml:"dir"`
	Watch    bool   `yaml:"watch"`
	Debounce string `yaml:"debounce"`
}

// EditorConfig configures the page editor.
type EditorConfig struct {
	RemovePolicy string `yaml:"remove_policy"` // cascade, promote
	NoticeTTL    string `yaml:"notice_ttl"`
	// DefaultSource is the data source new ProductRail blocks read from.
	DefaultSource string `yaml:"default_source"`
	// CountdownDays is how far ahead a new Countdown ends.
	CountdownDays int `yaml:"countdown_days"`
}

// SchedulerConfig configures background jobs. Specs use cron syntax.
type SchedulerConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Publish   string `yaml:"publish"`
	MenuLinks string `yaml:"menu_links"`
}

// SecretsConfig selects where passwords and tokens are kept.
type SecretsConfig struct {
	Backend string `yaml:"backend"` // env, keychain
	Service string `yaml:"service"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	JSON  bool   `yaml:"json"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         "127.0.0.1:8787",
			ReadTimeout:  "15s",
			WriteTimeout: "30s",
			MaxRevisions: 40,
		},
		API: APIConfig{
			BaseURL: "http://127.0.0.1:8787",
			Timeout: "20s",
		},
		Storage: StorageConfig{
			Path: filepath.Join(defaultDataDir(), "pagebuilder.db"),
		},
		Catalog: CatalogConfig{
			Dir:      "",
			Watch:    true,
			Debounce: "250ms",
		},
		Editor: EditorConfig{
			RemovePolicy:  "cascade",
			NoticeTTL:     "1750ms",
			CountdownDays: 7,
		},
		Scheduler: SchedulerConfig{
			Enabled:   true,
			Publish:   "@every 1m",
			MenuLinks: "@every 5m",
		},
		Secrets: SecretsConfig{
			Backend: "env",
			Service: "pagebuilder",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "pagebuilder")
	}
	return "."
}

// DefaultPath returns the config file location used when none is given.
func DefaultPath() string {
	return filepath.Join(defaultDataDir(), "config.yaml")
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PAGEBUILDER_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("PAGEBUILDER_API_TOKEN"); v != "" {
		c.API.Token = v
	}
	if v := os.Getenv("PAGEBUILDER_DB"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("PAGEBUILDER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("PAGEBUILDER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PAGEBUILDER_CATALOG_DIR"); v != "" {
		c.Catalog.Dir = v
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// GetAPITimeout returns the admin API client timeout.
func (c *Config) GetAPITimeout() time.Duration {
	return parseDuration(c.API.Timeout, 20*time.Second)
}

// GetNoticeTTL returns how long transient notices stay visible.
func (c *Config) GetNoticeTTL() time.Duration {
	return parseDuration(c.Editor.NoticeTTL, 1750*time.Millisecond)
}

// GetCatalogDebounce returns the catalog reload debounce window.
func (c *Config) GetCatalogDebounce() time.Duration {
	return parseDuration(c.Catalog.Debounce, 250*time.Millisecond)
}

// GetReadTimeout returns the server read timeout.
func (c *Config) GetReadTimeout() time.Duration {
	return parseDuration(c.Server.ReadTimeout, 15*time.Second)
}

// GetWriteTimeout returns the server write timeout.
func (c *Config) GetWriteTimeout() time.Duration {
	return parseDuration(c.Server.WriteTimeout, 30*time.Second)
}

var (
	ValidRemovePolicies = []string{"cascade", "promote"}
	ValidSecretBackends = []string{"env", "keychain"}
	ValidLogLevels      = []string{"debug", "info", "warn", "error"}
)

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api base url not configured (set PAGEBUILDER_API_URL)")
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage path not configured (set PAGEBUILDER_DB)")
	}
	if !slices.Contains(ValidRemovePolicies, c.Editor.RemovePolicy) {
		return fmt.Errorf("invalid editor remove_policy: %s (valid: %v)", c.Editor.RemovePolicy, ValidRemovePolicies)
	}
	if !slices.Contains(ValidSecretBackends, c.Secrets.Backend) {
		return fmt.Errorf("invalid secrets backend: %s (valid: %v)", c.Secrets.Backend, ValidSecretBackends)
	}
	if !slices.Contains(ValidLogLevels, c.Logging.Level) {
		return fmt.Errorf("invalid logging level: %s (valid: %v)", c.Logging.Level, ValidLogLevels)
	}
	if c.Server.MaxRevisions < 1 {
		return fmt.Errorf("server max_revisions must be at least 1")
	}
	return nil
}
