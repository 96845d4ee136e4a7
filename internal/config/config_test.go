package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	cfg, err := LoadFrom(filepath.Join(home, "missing.toml"), home)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "SKIRT", "run"), cfg.SimRoot)
	assert.Equal(t, filepath.Join(home, ".config", "pts", "pts.db"), cfg.DBPath)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Empty(t, cfg.Logging.Path)
}

func TestLoadFile(t *testing.T) {
	home := t.TempDir()
	path := filepath.Join(home, "config.toml")
	content := `sim_root = "~/sims"
workers = 0

[logging]
level = "debug"
path = "~/logs/pts.log"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFrom(path, home)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "sims"), cfg.SimRoot)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, filepath.Join(home, "logs", "pts.log"), cfg.Logging.Path)
	assert.Equal(t, 10, cfg.Logging.MaxSize)
}

func TestLoadInvalid(t *testing.T) {
	home := t.TempDir()
	path := filepath.Join(home, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("workers = ["), 0o644))

	_, err := LoadFrom(path, home)
	assert.Error(t, err)
}
