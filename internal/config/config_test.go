package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.IsDev())
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment: dev
dev_mode_bypass: true
storage:
  driver: FILE
  path: /tmp/kv.json
auth:
  okta_domain: "https://example.okta.com/oauth2/default/ "
  allowed_domains: [acme.com, example.org]
`), 0o644))
	t.Setenv("TT_SERVER_ADDR", ":9999")
	t.Setenv("TT_DB_PORT", "6543")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.IsDev())
	assert.True(t, cfg.DevModeBypass)
	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/kv.json", cfg.Storage.Path)
	assert.Equal(t, "https://example.okta.com/oauth2/default", cfg.Auth.OktaDomain)
	assert.Equal(t, []string{"acme.com", "example.org"}, cfg.Auth.AllowedDomains)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, 6543, cfg.DB.Port)
}

func TestLoadConfig_ExplicitMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
