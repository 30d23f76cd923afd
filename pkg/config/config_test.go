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
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "memory", cfg.Session.Store)
	assert.Equal(t, 8*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 10, cfg.Display.PageSize)
	assert.Equal(t, "INR", cfg.Display.CurrencyCode)
	assert.Equal(t, 30*time.Second, cfg.Display.ToastTTL)
	assert.True(t, cfg.Metrics.Enabled)
	assert.True(t, cfg.DemoBackend())
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
backend:
  base_url: "https://sap.example.com/api/customer"
  timeout: 5s
display:
  page_size: 25
log:
  level: debug
  format: json
`), 0o644))
	t.Setenv("VENDOR_PORTAL_BACKEND_API_KEY", "secret")
	t.Setenv("VENDOR_PORTAL_DISPLAY_PAGE_SIZE", "50")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "https://sap.example.com/api/customer", cfg.Backend.BaseURL)
	assert.Equal(t, "secret", cfg.Backend.APIKey)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 50, cfg.Display.PageSize)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.DemoBackend())
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"page size":     {"VENDOR_PORTAL_DISPLAY_PAGE_SIZE": "0"},
		"store":         {"VENDOR_PORTAL_SESSION_STORE": "bolt"},
		"log level":     {"VENDOR_PORTAL_LOG_LEVEL": "verbose"},
		"redis address": {"VENDOR_PORTAL_SESSION_STORE": "redis"},
		"base url":      {"VENDOR_PORTAL_BACKEND_BASE_URL": "not a url"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRedisStoreValid(t *testing.T) {
	t.Setenv("VENDOR_PORTAL_SESSION_STORE", "redis")
	t.Setenv("VENDOR_PORTAL_REDIS_ADDR", "localhost:6379")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}
