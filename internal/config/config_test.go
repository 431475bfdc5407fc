package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hlvm-dev/hql/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(filepath.Join(t.TempDir(), "hql.config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadDecodesYAMLOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "hql.config.yaml")
	yaml := "baseDir: ./src\nstrict: true\nmacroInterpreter:\n  maxDepth: 40\nexpander:\n  maxIterations: 200\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "./src", cfg.BaseDir)
	assert.True(t, cfg.Strict)
	assert.Equal(t, 40, cfg.MacroInterpreter.MaxDepth)
	assert.Equal(t, 200, cfg.Expander.MaxIterations)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "hql.config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strict: [this is not a bool"), 0o644))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestFindLocatesConfigNextToEntryFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hql.config.yaml"), []byte("strict: true\n"), 0o644))

	assert.Equal(t, filepath.Join(dir, "hql.config.yaml"), config.Find(dir))
}

func TestFindReturnsEmptyWhenAbsent(t *testing.T) {
	t.Parallel()

	assert.Empty(t, config.Find(t.TempDir()))
}
