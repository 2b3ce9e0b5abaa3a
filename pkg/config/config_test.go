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
	path := filepath.Join(t.TempDir(), "kite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadToolConfig(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
  encoding: console
datasets:
  - name: users
    schema_path: schemas/user.avsc
    specific: true
  - name: events
    schema_path: schemas/event.avsc
`)

	var cfg ToolConfig
	require.NoError(t, Load(path, &cfg))

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Encoding)
	require.Len(t, cfg.Datasets, 2)
	assert.Equal(t, "users", cfg.Datasets[0].Name)
	assert.True(t, cfg.Datasets[0].Specific)
	assert.Equal(t, "schemas/event.avsc", cfg.Datasets[1].SchemaPath)
	assert.False(t, cfg.Datasets[1].Specific)
}

func TestLoadExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("KITE_SCHEMA_DIR", "/etc/kite/schemas")

	path := writeConfig(t, `
datasets:
  - name: users
    schema_path: ${KITE_SCHEMA_DIR}/user.avsc
`)

	var cfg ToolConfig
	require.NoError(t, Load(path, &cfg))
	require.Len(t, cfg.Datasets, 1)
	assert.Equal(t, "/etc/kite/schemas/user.avsc", cfg.Datasets[0].SchemaPath)
}

func TestLoadMissingFile(t *testing.T) {
	var cfg ToolConfig
	err := Load(filepath.Join(t.TempDir(), "absent.yaml"), &cfg)
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "datasets: [unclosed")
	var cfg ToolConfig
	err := Load(path, &cfg)
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := DefaultToolConfig()
	cfg.Datasets = append(cfg.Datasets, DatasetConfig{
		Name:       "users",
		SchemaPath: "user.avsc",
		Specific:   true,
	})

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, Save(path, cfg))

	var loaded ToolConfig
	require.NoError(t, Load(path, &loaded))
	assert.Equal(t, *cfg, loaded)
}

func TestDefaultToolConfig(t *testing.T) {
	cfg := DefaultToolConfig()
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Encoding)
	assert.Empty(t, cfg.Datasets)
}
