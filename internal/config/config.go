// Package config resolves hub configuration in three layers: process
// environment (optionally populated from a local .env file) overrides
// a persisted JSON file, which overrides compiled-in defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the hub needs to run.
type Config struct {
	CloudBaseURL string `json:"cloudBaseUrl"`
	CloudAPIKey  string `json:"cloudApiKey"`
	TenantID     string `json:"tenantId"`
	LocationID   string `json:"locationId"`
	HubSecret    string `json:"hubSecret"`

	DBPath   string `json:"dbPath"`
	HTTPPort string `json:"httpPort"`

	PushIntervalSeconds int `json:"pushIntervalSeconds"`
	PullIntervalSeconds int `json:"pullIntervalSeconds"`
	PushBatchSize       int `json:"pushBatchSize"`

	JWTSecret string `json:"jwtSecret"`
}

// PushInterval and PullInterval convert the persisted integer seconds
// into time.Duration for the engines.
func (c *Config) PushInterval() time.Duration {
	return time.Duration(c.PushIntervalSeconds) * time.Second
}

func (c *Config) PullInterval() time.Duration {
	return time.Duration(c.PullIntervalSeconds) * time.Second
}

func defaults() *Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".pos-hub")
	return &Config{
		DBPath:              filepath.Join(base, "hub.db"),
		HTTPPort:            "4001",
		PushIntervalSeconds: 5,
		PullIntervalSeconds: 60,
		PushBatchSize:       20,
	}
}

// filePath returns the path to the persisted config file, honoring
// POS_HUB_CONFIG_PATH for tests and alternate deployments.
func filePath() string {
	if p := os.Getenv("POS_HUB_CONFIG_PATH"); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".pos-hub", "config.json")
}

// Load resolves configuration: defaults, then the persisted file (if
// present), then environment variables (including an optional .env
// file loaded into the process environment first).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if fileCfg, err := loadFromFile(filePath()); err == nil {
		mergeFile(cfg, fileCfg)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: failed to read persisted file: %w", err)
	}

	applyEnv(cfg)

	return cfg, nil
}

func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fc Config
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("config: malformed persisted file %s: %w", path, err)
	}
	return &fc, nil
}

func mergeFile(dst, src *Config) {
	if src.CloudBaseURL != "" {
		dst.CloudBaseURL = src.CloudBaseURL
	}
	if src.CloudAPIKey != "" {
		dst.CloudAPIKey = src.CloudAPIKey
	}
	if src.TenantID != "" {
		dst.TenantID = src.TenantID
	}
	if src.LocationID != "" {
		dst.LocationID = src.LocationID
	}
	if src.HubSecret != "" {
		dst.HubSecret = src.HubSecret
	}
	if src.DBPath != "" {
		dst.DBPath = src.DBPath
	}
	if src.HTTPPort != "" {
		dst.HTTPPort = src.HTTPPort
	}
	if src.PushIntervalSeconds != 0 {
		dst.PushIntervalSeconds = src.PushIntervalSeconds
	}
	if src.PullIntervalSeconds != 0 {
		dst.PullIntervalSeconds = src.PullIntervalSeconds
	}
	if src.PushBatchSize != 0 {
		dst.PushBatchSize = src.PushBatchSize
	}
	if src.JWTSecret != "" {
		dst.JWTSecret = src.JWTSecret
	}
}

func applyEnv(cfg *Config) {
	cfg.CloudBaseURL = getEnv("CLOUD_BASE_URL", cfg.CloudBaseURL)
	cfg.CloudAPIKey = getEnv("CLOUD_API_KEY", cfg.CloudAPIKey)
	cfg.TenantID = getEnv("TENANT_ID", cfg.TenantID)
	cfg.LocationID = getEnv("LOCATION_ID", cfg.LocationID)
	cfg.HubSecret = getEnv("HUB_SECRET", cfg.HubSecret)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.HTTPPort = getEnv("HTTP_PORT", cfg.HTTPPort)
	cfg.PushIntervalSeconds = getIntEnv("PUSH_INTERVAL_SECONDS", cfg.PushIntervalSeconds)
	cfg.PullIntervalSeconds = getIntEnv("PULL_INTERVAL_SECONDS", cfg.PullIntervalSeconds)
	cfg.PushBatchSize = getIntEnv("PUSH_BATCH_SIZE", cfg.PushBatchSize)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return defaultValue
}

// Save atomically overwrites the persisted config file: write to a
// temp sibling, then rename over the target.
func Save(cfg *Config) error {
	path := filePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config: failed to marshal: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("config: failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("config: failed to rename temp file: %w", err)
	}
	return nil
}

// IsConfigured reports whether the hub has enough cloud identity to
// make calls. Engines must gate their work on this.
func (c *Config) IsConfigured() bool {
	return c.CloudBaseURL != "" && c.CloudAPIKey != ""
}
