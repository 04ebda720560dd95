package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "./repos", cfg.Discovery.ReposPath)
	assert.Equal(t, "./.discovery_cache", cfg.Discovery.StorageDir)
	assert.Equal(t, "discovery_cache.json", cfg.Discovery.StateFile)
	assert.Equal(t, 4, cfg.Scan.Workers)
	assert.Equal(t, 5000, cfg.Scan.MaxFilesPerRepo)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FromFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "discovery.yaml")

	content := []byte(`
discovery:
  repos_path: /srv/repos
scan:
  workers: 8
  text_file_size_ceiling: 2MiB
logging:
  level: debug
  format: json
`)

	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "/srv/repos", cfg.Discovery.ReposPath)
	assert.Equal(t, 8, cfg.Scan.Workers)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	ceiling, sizeErr := cfg.TextFileSizeCeilingBytes()

	require.NoError(t, sizeErr)
	assert.Equal(t, int64(2*1024*1024), ceiling)
}

func TestLoad_InvalidWorkers(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "discovery.yaml")

	require.NoError(t, os.WriteFile(path, []byte("scan:\n  workers: 0\n"), 0o600))

	_, err := Load(path)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidWorkers)
}

func TestLoad_InvalidSizeCeiling(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "discovery.yaml")

	require.NoError(t, os.WriteFile(path, []byte("scan:\n  text_file_size_ceiling: bogus\n"), 0o600))

	_, err := Load(path)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSizeCeiling)
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "discovery.yaml")

	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: chatty\n"), 0o600))

	_, err := Load(path)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidLogLevel)
}
