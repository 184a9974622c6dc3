package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(tmpDir, "state"))
	t.Setenv("AVISOS_ENV_FILE", filepath.Join(tmpDir, "missing.env"))
	t.Cleanup(reset)
	return tmpDir
}

func TestLoadAndGet(t *testing.T) {
	isolate(t)
	Load()

	require.Equal(t, "default", Get("missing", "default"))
	require.Equal(t, 5, GetInt("poll_interval_seconds", 0))
	require.Equal(t, 300, GetInt("announcement_ttl_seconds", 0))
	require.Equal(t, "/notifications", Get("notifications_path", ""))
	require.Equal(t, "auto", Get("banner_source", ""))
	require.False(t, GetBool("logging_enabled", true))
}

func TestConfigLoadingPrecedence(t *testing.T) {
	tmpDir := isolate(t)

	configFile := filepath.Join(tmpDir, "custom.toml")
	content := `
poll_interval_seconds = 30
prefs_backend = "sqlite"
modal_limit = 7
banner_source = "legacy"
`
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0644))

	t.Setenv("AVISOS_CONFIG_PATH", configFile)
	t.Setenv("AVISOS_POLL_INTERVAL_SECONDS", "2")
	t.Setenv("AVISOS_PREFS_BACKEND", "redis")

	Load()

	require.Equal(t, "2", Get("poll_interval_seconds", ""), "environment should override config file")
	require.Equal(t, "redis", Get("prefs_backend", ""), "environment should override config file")
	require.Equal(t, 7, GetInt("modal_limit", 0))
	require.Equal(t, "legacy", Get("banner_source", ""))
}

func TestDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	tmpDir := isolate(t)

	envFile := filepath.Join(tmpDir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("AVISOS_MODAL_LIMIT=9\nAVISOS_STATUS_FORMAT=detailed\n"), 0644))
	t.Setenv("AVISOS_ENV_FILE", envFile)
	t.Setenv("AVISOS_STATUS_FORMAT", "count-only")
	t.Cleanup(func() { os.Unsetenv("AVISOS_MODAL_LIMIT") })

	Load()

	require.Equal(t, 9, GetInt("modal_limit", 0))
	require.Equal(t, "count-only", Get("status_format", ""))
}

func TestInvalidValuesFallBackToDefaults(t *testing.T) {
	isolate(t)
	t.Setenv("AVISOS_POLL_INTERVAL_SECONDS", "-1")
	t.Setenv("AVISOS_PREFS_BACKEND", "postgres")
	t.Setenv("AVISOS_LOGGING_ENABLED", "maybe")
	t.Setenv("AVISOS_API_BASE_URL", "not a url")
	t.Setenv("AVISOS_REDIS_DB", "-3")

	Load()

	require.Equal(t, 5, GetInt("poll_interval_seconds", 0))
	require.Equal(t, "file", Get("prefs_backend", ""))
	require.Equal(t, "false", Get("logging_enabled", ""))
	require.Equal(t, "https://backend-mobilize-transporte.onrender.com", Get("api_base_url", ""))
	require.Equal(t, 0, GetInt("redis_db", -1))
}

func TestBoolNormalization(t *testing.T) {
	isolate(t)
	t.Setenv("AVISOS_DEBUG", "yes")
	t.Setenv("AVISOS_QUIET", "OFF")

	Load()

	require.Equal(t, "true", Get("debug", ""))
	require.Equal(t, "false", Get("quiet", ""))
	require.True(t, GetBool("debug", false))
}

func TestDerivedValuesAreNormalized(t *testing.T) {
	isolate(t)
	t.Setenv("AVISOS_API_BASE_URL", "http://localhost:3002/")
	t.Setenv("AVISOS_NOTIFICATIONS_PATH", "api/notificacoes")

	Load()

	require.Equal(t, "http://localhost:3002", Get("api_base_url", ""))
	require.Equal(t, "/api/notificacoes", Get("notifications_path", ""))
}

func TestSampleConfigIsCreated(t *testing.T) {
	tmpDir := isolate(t)

	Load()

	samplePath := filepath.Join(tmpDir, "config", "avisos", "config.toml")
	data, err := os.ReadFile(samplePath)
	require.NoError(t, err)
	require.Contains(t, string(data), "# avisos configuration")
	require.Contains(t, string(data), "poll_interval_seconds = 5")
	require.NotContains(t, string(data), "redis_password")
}

func TestRegisterValidatorPanicsOnDuplicate(t *testing.T) {
	require.Panics(t, func() {
		RegisterValidator("debug", BoolValidator())
	})
}
