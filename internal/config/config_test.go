package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadLayering(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")
	t.Setenv("POS_HUB_CONFIG_PATH", cfgPath)

	// No file yet: defaults apply.
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "4001", cfg.HTTPPort)
	require.False(t, cfg.IsConfigured())

	// Persisted file overrides defaults.
	require.NoError(t, Save(&Config{
		CloudBaseURL: "https://cloud.example.com",
		CloudAPIKey:  "file-key",
		HTTPPort:     "5000",
	}))
	cfg, err = Load()
	require.NoError(t, err)
	require.Equal(t, "https://cloud.example.com", cfg.CloudBaseURL)
	require.Equal(t, "5000", cfg.HTTPPort)
	require.True(t, cfg.IsConfigured())

	// Env overrides the persisted file.
	t.Setenv("HTTP_PORT", "6000")
	t.Setenv("CLOUD_API_KEY", "env-key")
	cfg, err = Load()
	require.NoError(t, err)
	require.Equal(t, "6000", cfg.HTTPPort)
	require.Equal(t, "env-key", cfg.CloudAPIKey)
	require.Equal(t, "https://cloud.example.com", cfg.CloudBaseURL) // untouched layer
}
