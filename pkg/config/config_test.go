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
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	cfg, err := Load(&missing)
	require.NoError(t, err)

	assert.Equal(t, ":8420", cfg.API.Listen)
	assert.True(t, cfg.API.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 10*time.Second, cfg.Device.Timeout)
	assert.True(t, cfg.Discovery.Enabled)
	assert.False(t, cfg.Device.HasAddress())
	assert.False(t, cfg.Device.HasCredentials())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bessd.yaml")
	content := `
device:
  address: 192.168.1.50:80
  username: admin
  password: hunter2
  timeout: 5s
api:
  listen: ":9000"
log:
  level: debug
discovery:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(&path)
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.50:80", cfg.Device.Address)
	assert.True(t, cfg.Device.HasAddress())
	assert.True(t, cfg.Device.HasCredentials())
	assert.Equal(t, 5*time.Second, cfg.Device.Timeout)
	assert.Equal(t, ":9000", cfg.API.Listen)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Discovery.Enabled)
}

func TestLoadRejectsNoAddressNoDiscovery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bessd.yaml")
	content := "discovery:\n  enabled: false\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := Load(&path)
	assert.Error(t, err)
}
