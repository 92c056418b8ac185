package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DriverMySQL, cfg.DBDriver)
	assert.Equal(t, "3306", cfg.DBPort)
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.False(t, cfg.LLMConfigured())
	assert.False(t, cfg.UseRedisSessions())
	assert.Equal(t, 8*time.Second, cfg.LLMTimeout())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db_driver: sqlite\ndb_path: from-file.db\nllm_model: file-model\n"), 0o600))

	t.Setenv("LLM_MODEL", "env-model")
	t.Setenv("LLM_ENABLED", "true")
	t.Setenv("LLM_BASE_URL", "http://localhost:11434/v1")
	t.Setenv("REDIS_HOST", "redis")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "from-file.db", cfg.DBPath)
	assert.Equal(t, "env-model", cfg.LLMModel)
	assert.True(t, cfg.LLMConfigured())
	assert.True(t, cfg.UseRedisSessions())
}

func TestLoad_MissingFileIsTolerated(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DriverMySQL, cfg.DBDriver)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Load("")
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLLMConfigured_RequiresKeyOrBaseURL(t *testing.T) {
	cfg := &Config{LLMEnabled: true}
	assert.False(t, cfg.LLMConfigured())

	cfg.OpenAIAPIKey = "key"
	assert.True(t, cfg.LLMConfigured())

	cfg.LLMEnabled = false
	assert.False(t, cfg.LLMConfigured())
}
