package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "stores", cfg.Storage.BaseDir)
	assert.False(t, cfg.Storage.Discovery)
	assert.Equal(t, 3306, cfg.Network.Port)
	assert.Equal(t, 8, cfg.MaxSecondaries())
	assert.Equal(t, 8, cfg.OpenBurst())
	assert.Zero(t, cfg.Pool.OpensPerSecond)
}

func TestLoadFromFile(t *testing.T) {
	t.Run("reads values from TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "burrow.toml")
		content := `
[storage]
base_dir = "/var/lib/burrow/stores"
discovery = true

[federation]
max_secondaries = 3
`
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

		cfg, err := LoadFromFile(configPath)
		require.NoError(t, err)
		assert.Equal(t, "/var/lib/burrow/stores", cfg.Storage.BaseDir)
		assert.True(t, cfg.Storage.Discovery)
		assert.Equal(t, 3, cfg.MaxSecondaries())
		// Unset sections fall back to defaults
		assert.Equal(t, "localhost", cfg.Network.Host)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.toml"))
		assert.Error(t, err)
	})
}

func TestWriteDefault(t *testing.T) {
	t.Run("writes a loadable default config", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "burrow.toml")
		require.NoError(t, WriteDefault(configPath))

		cfg, err := LoadFromFile(configPath)
		require.NoError(t, err)
		assert.Equal(t, "stores", cfg.Storage.BaseDir)
		assert.Equal(t, 8, cfg.Federation.MaxSecondaries)
	})

	t.Run("refuses to clobber an existing file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "burrow.toml")
		require.NoError(t, os.WriteFile(configPath, []byte("# mine"), 0o644))
		assert.Error(t, WriteDefault(configPath))
	})
}

func TestEnvOverride(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	t.Setenv("BURROW_STORAGE_BASE_DIR", "/tmp/env-stores")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env-stores", cfg.Storage.BaseDir)
}
