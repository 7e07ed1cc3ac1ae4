package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// projectDir returns a temporary directory that config lookup will not
// walk out of.
func projectDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0755))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := projectDir(t)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Path)
	assert.Equal(t, "main", cfg.Package)
	assert.Equal(t, "", cfg.Library)
	assert.Equal(t, filepath.Join(dir, "data", "fluxc", "history"), cfg.History)
	assert.Equal(t, LogConfig{
		Level:      "info",
		Format:     "console",
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}, cfg.Log)
}

func TestLoadConfigFile(t *testing.T) {
	dir := projectDir(t)
	writeFile(t, filepath.Join(dir, "fluxc.toml"), `
package = "queries"
library = "lib"

[log]
level = "debug"
format = "json"
max_size = 5

[repl]
history = "hist"
`)
	sub := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0755))

	cfg, err := LoadConfig(sub)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "fluxc.toml"), cfg.Path)
	assert.Equal(t, "queries", cfg.Package)
	assert.Equal(t, filepath.Join(dir, "lib"), cfg.Library)
	assert.Equal(t, filepath.Join(dir, "hist"), cfg.History)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 5, cfg.Log.MaxSize)
	assert.Equal(t, 3, cfg.Log.MaxBackups)
}

func TestLoadConfigEnvironment(t *testing.T) {
	dir := projectDir(t)
	writeFile(t, filepath.Join(dir, "fluxc.toml"), "package = \"queries\"\n")
	t.Setenv("FLUXC_PACKAGE", "fromenv")
	t.Setenv("FLUXC_LOG_LEVEL", "warn")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "fromenv", cfg.Package)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestFindProjectConfigStopsAtRepository(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "fluxc.toml"), "package = \"outer\"\n")
	repo := filepath.Join(dir, "repo")
	require.NoError(t, os.MkdirAll(filepath.Join(repo, ".git"), 0755))

	path, raw, err := FindProjectConfig(repo)
	require.NoError(t, err)
	assert.Equal(t, "", path)
	assert.Nil(t, raw)

	path, raw, err = FindProjectConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "fluxc.toml"), path)
	assert.Equal(t, "outer", raw["package"])
}

func TestLoadConfigInvalid(t *testing.T) {
	dir := projectDir(t)
	writeFile(t, filepath.Join(dir, "fluxc.toml"), "package = \n")

	_, err := LoadConfig(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fluxc.toml")
}
