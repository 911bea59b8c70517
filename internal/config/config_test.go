package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadFromDirDefaults(t *testing.T) {
	dir := t.TempDir()

	// No file at all.
	cfg := LoadFromDir(dir)
	assert.True(t, cfg.Enabled)
	assert.True(t, cfg.Warnings)

	// File without our table.
	writeFile(t, filepath.Join(dir, ConfigFileName), "[tool.something]\nenabled = false\n")
	cfg = LoadFromDir(dir)
	assert.True(t, cfg.Enabled)
	assert.True(t, cfg.Warnings)
}

func TestLoadFromDirSettings(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ConfigFileName), "[tool.typedframes]\nenabled = false\nwarnings = false\n")

	cfg := LoadFromDir(dir)
	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.Warnings)
}

func TestLoadFromDirMalformedFallsBack(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ConfigFileName), "not [valid toml")

	cfg := LoadFromDir(dir)
	assert.True(t, cfg.Enabled)
	assert.True(t, cfg.Warnings)
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	writeFile(t, filepath.Join(root, ConfigFileName), "")

	assert.Equal(t, root, FindProjectRoot(sub))
	assert.Equal(t, root, FindProjectRoot(root))
}

func TestFindProjectRootFromFilePath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ConfigFileName), "")
	script := filepath.Join(root, "main.py")
	writeFile(t, script, "x = 1\n")

	assert.Equal(t, root, FindProjectRoot(script))
}
