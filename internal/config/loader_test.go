package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomhartley/keyship/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".keyship.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
key:
  dir: /home/test/.ssh
  file: id_ed25519
  type: ed25519
remote:
  host: 203.0.113.10
  port: 2222
  user: admin
timeouts:
  dial: 5s
  command: 20s
  verify: 15s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/home/test/.ssh", cfg.Key.Dir)
	assert.Equal(t, "id_ed25519", cfg.Key.File)
	assert.Equal(t, "ed25519", cfg.Key.Type)
	assert.Equal(t, "203.0.113.10", cfg.Remote.Host)
	assert.Equal(t, 2222, cfg.Remote.Port)
	assert.Equal(t, "admin", cfg.Remote.User)
	assert.Equal(t, 5*time.Second, cfg.Timeouts.Dial)
	assert.Equal(t, 20*time.Second, cfg.Timeouts.Command)
	assert.Equal(t, 15*time.Second, cfg.Timeouts.Verify)
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
remote:
  host: example.com
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "example.com", cfg.Remote.Host)
	assert.Equal(t, "id_rsa", cfg.Key.File)
	assert.Equal(t, "rsa", cfg.Key.Type)
	assert.Equal(t, 4096, cfg.Key.Bits)
	assert.Equal(t, 22, cfg.Remote.Port)
	assert.Equal(t, 10*time.Second, cfg.Timeouts.Dial)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestLoadInvalidValues(t *testing.T) {
	path := writeConfig(t, `
key:
  type: dsa
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	assert.Contains(t, err.Error(), "dsa")
}

func TestFindExplicit(t *testing.T) {
	path := writeConfig(t, "remote:\n  host: x\n")

	found, err := Find(path)
	require.NoError(t, err)
	assert.Equal(t, path, found)
}

func TestFindExplicitMissing(t *testing.T) {
	_, err := Find(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"ed25519 without bits", func(c *Config) { c.Key.Type = "ed25519"; c.Key.Bits = 0 }, false},
		{"unknown key type", func(c *Config) { c.Key.Type = "dsa" }, true},
		{"rsa too small", func(c *Config) { c.Key.Bits = 1024 }, true},
		{"rsa bits unset is fine", func(c *Config) { c.Key.Bits = 0 }, false},
		{"negative port", func(c *Config) { c.Remote.Port = -1 }, true},
		{"port too large", func(c *Config) { c.Remote.Port = 70000 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.IsCode(err, errors.ErrConfig))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWriteLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Remote.Host = "203.0.113.10"
	cfg.Remote.User = "admin"
	cfg.Key.Type = "ed25519"
	cfg.Key.File = "id_ed25519"

	require.NoError(t, cfg.Write(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# keyship configuration")
	assert.NotContains(t, string(data), "password")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Remote.Host, loaded.Remote.Host)
	assert.Equal(t, cfg.Remote.User, loaded.Remote.User)
	assert.Equal(t, cfg.Key.Type, loaded.Key.Type)
	assert.Equal(t, cfg.Timeouts.Dial, loaded.Timeouts.Dial)
	assert.Equal(t, cfg.Timeouts.Verify, loaded.Timeouts.Verify)
}
