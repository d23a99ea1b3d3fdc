package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[stats]
file = "titles.csv"
kind = "Movie"
decade = 1980
genre = "Comedy"
max-duration = 100.5
top = 3

[log]
level = "debug"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Stats.File)
	assert.Equal(t, "titles.csv", *cfg.Stats.File)
	require.NotNil(t, cfg.Stats.Kind)
	assert.Equal(t, "Movie", *cfg.Stats.Kind)
	require.NotNil(t, cfg.Stats.Decade)
	assert.Equal(t, 1980, *cfg.Stats.Decade)
	require.NotNil(t, cfg.Stats.Genre)
	assert.Equal(t, "Comedy", *cfg.Stats.Genre)
	require.NotNil(t, cfg.Stats.MaxDuration)
	assert.Equal(t, 100.5, *cfg.Stats.MaxDuration)
	require.NotNil(t, cfg.Stats.Top)
	assert.Equal(t, 3, *cfg.Stats.Top)
	assert.Nil(t, cfg.Stats.Format)
	require.NotNil(t, cfg.Log.Level)
	assert.Equal(t, "debug", *cfg.Log.Level)
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, FileConfig{}, cfg)
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := writeConfig(t, "[stats]\nyear = 1990\n")
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stats.year")
}

func TestLoadConfigEmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestDefaultPaths(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv("REELSTATS_DB", "")

	assert.Equal(t, filepath.Join(dir, "reelstats", "config.toml"), DefaultConfigPath())
	assert.Equal(t, filepath.Join(dir, "reelstats", "reelstats.db"), DefaultDBPath())

	t.Setenv("REELSTATS_DB", filepath.Join(dir, "other.db"))
	assert.Equal(t, filepath.Join(dir, "other.db"), DefaultDBPath())
}
