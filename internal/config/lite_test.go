package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLiteConfig(t *testing.T) {
	cfg := DefaultLiteConfig()

	assert.Equal(t, "http://localhost:8000", cfg.APIURL)
	assert.Zero(t, cfg.APITimeout, "no client timeout unless configured")
	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 1000, cfg.CacheMaxItems)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "stdio", cfg.Transport)
	assert.Equal(t, 8090, cfg.HTTPPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadLiteConfig_Defaults(t *testing.T) {
	// Clear relevant env vars
	clearEnvVars(t)

	cfg := LoadLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, "http://localhost:8000", cfg.APIURL)
	assert.Equal(t, 1000, cfg.CacheMaxItems)
	assert.Equal(t, "stdio", cfg.Transport)
	assert.Zero(t, cfg.APITimeout)
}

func TestLoadLiteConfig_EnvironmentOverrides(t *testing.T) {
	clearEnvVars(t)

	// Set environment variables
	os.Setenv("LIVER_API_URL", "http://predict.internal:8000")
	os.Setenv("LIVER_API_TIMEOUT", "3s")
	os.Setenv("LIVER_DATA_DIR", "/tmp/test-liver")
	os.Setenv("LIVER_CACHE_MAX_ITEMS", "500")
	os.Setenv("LIVER_CACHE_TTL", "12h")
	os.Setenv("LIVER_MCP_TRANSPORT", "http")
	os.Setenv("LIVER_MCP_HTTP_PORT", "9090")
	os.Setenv("LIVER_LOG_LEVEL", "debug")

	defer clearEnvVars(t)

	cfg := LoadLiteConfig()

	assert.Equal(t, "http://predict.internal:8000", cfg.APIURL)
	assert.Equal(t, 3*time.Second, cfg.APITimeout)
	assert.Equal(t, "/tmp/test-liver", cfg.DataDir)
	assert.Equal(t, 500, cfg.CacheMaxItems)
	assert.Equal(t, 12*time.Hour, cfg.CacheTTL)
	assert.Equal(t, "http", cfg.Transport)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadLiteConfig_ViteAPIURL(t *testing.T) {
	clearEnvVars(t)
	defer clearEnvVars(t)

	os.Setenv("VITE_API_URL", "http://vite.example:8000")
	assert.Equal(t, "http://vite.example:8000", LoadLiteConfig().APIURL)

	os.Setenv("LIVER_API_URL", "http://explicit.example:8000")
	assert.Equal(t, "http://explicit.example:8000", LoadLiteConfig().APIURL)
}

func TestLoadLiteConfig_InvalidValuesIgnored(t *testing.T) {
	clearEnvVars(t)
	defer clearEnvVars(t)

	os.Setenv("LIVER_CACHE_MAX_ITEMS", "-3")
	os.Setenv("LIVER_MCP_HTTP_PORT", "abc")

	cfg := LoadLiteConfig()

	assert.Equal(t, 1000, cfg.CacheMaxItems)
	assert.Equal(t, 8090, cfg.HTTPPort)
}

func TestLiteConfig_HistoryDBPath(t *testing.T) {
	cfg := &LiteConfig{DataDir: "/home/user/.liver-predict"}

	path := cfg.HistoryDBPath()

	assert.Equal(t, "/home/user/.liver-predict/history.db", path)
}

func TestLiteConfig_ExportDir(t *testing.T) {
	cfg := &LiteConfig{DataDir: "/home/user/.liver-predict"}

	path := cfg.ExportDir()

	assert.Equal(t, "/home/user/.liver-predict/exports", path)
}

func TestLiteConfig_EnsureDataDir(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "config-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	cfg := &LiteConfig{DataDir: filepath.Join(tmpDir, "liver")}

	err = cfg.EnsureDataDir()
	require.NoError(t, err)

	// Verify directories exist
	_, err = os.Stat(cfg.DataDir)
	assert.NoError(t, err)

	_, err = os.Stat(cfg.ExportDir())
	assert.NoError(t, err)
}

func clearEnvVars(t *testing.T) {
	t.Helper()
	vars := []string{
		"VITE_API_URL",
		"LIVER_API_URL",
		"LIVER_API_TIMEOUT",
		"LIVER_DATA_DIR",
		"LIVER_CACHE_MAX_ITEMS",
		"LIVER_CACHE_TTL",
		"LIVER_MCP_TRANSPORT",
		"LIVER_MCP_HTTP_PORT",
		"LIVER_LOG_LEVEL",
		"LIVER_LOG_FORMAT",
	}
	for _, v := range vars {
		os.Unsetenv(v)
	}
}
