package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "duckffi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, cfg.Rows.PageSize)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, []string{"stderr"}, cfg.Logging.Output)
	assert.Zero(t, cfg.Runtime.Workers)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
runtime:
  workers: 8
logging:
  level: debug
  format: console
rows:
  page_size: 64
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.EqualValues(t, 8, cfg.Runtime.Workers)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, []string{"stderr"}, cfg.Logging.Output)
	assert.Equal(t, 64, cfg.Rows.PageSize)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DUCKFFI_WORKERS", "3")
	t.Setenv("DUCKFFI_LOG_LEVEL", "warn")
	t.Setenv("DUCKFFI_PAGE_SIZE", "10")

	cfg, err := Load(writeConfig(t, "rows:\n  page_size: 64\n"))
	require.NoError(t, err)
	assert.EqualValues(t, 3, cfg.Runtime.Workers)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 10, cfg.Rows.PageSize)

	t.Setenv("DUCKFFI_PAGE_SIZE", "many")
	_, err = Load("")
	require.ErrorContains(t, err, "DUCKFFI_PAGE_SIZE")
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "reading config file")

	_, err = Load(writeConfig(t, "rows: [1, 2"))
	require.ErrorContains(t, err, "parsing config file")

	_, err = Load(writeConfig(t, `
runtime:
  workers: -1
logging:
  level: loud
  format: xml
rows:
  page_size: 0
`))
	require.ErrorContains(t, err, "runtime.workers")
	require.ErrorContains(t, err, "logging.level")
	require.ErrorContains(t, err, "logging.format")
	require.ErrorContains(t, err, "rows.page_size")
}
