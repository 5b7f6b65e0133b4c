package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/renatrack/renatrack-client/internal/config"
)

func TestNew_Defaults(t *testing.T) {
	cfg := config.New()

	require.Equal(t, "https://api.renatrack.health", cfg.GetAPIBaseURL())
	require.Equal(t, 30*time.Second, cfg.GetHTTPTimeout())
	require.Equal(t, "X-CSRF-Token", cfg.GetCSRFHeader())
	require.Equal(t, 5*time.Minute, cfg.GetRenewalInterval())
	require.Equal(t, time.Second, cfg.GetActivityDebounce())
	require.Equal(t, 30*time.Second, cfg.GetWatchdogInterval())
	require.Equal(t, 720*time.Hour, cfg.GetFallbackSessionTTL())
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv("RENATRACK_API_URL", "https://staging.renatrack.health")
	t.Setenv("RENATRACK_RENEWAL_INTERVAL", "2m")
	t.Setenv("RENATRACK_FALLBACK_SESSION_TTL", "48h")

	cfg := config.New()
	require.Equal(t, "https://staging.renatrack.health", cfg.GetAPIBaseURL())
	require.Equal(t, 2*time.Minute, cfg.GetRenewalInterval())
	require.Equal(t, 48*time.Hour, cfg.GetFallbackSessionTTL())
}

func TestGetDurationEnv_UnparseableFallsBack(t *testing.T) {
	t.Setenv("RENATRACK_WATCHDOG_INTERVAL", "not-a-duration")

	cfg := config.New()
	require.Equal(t, 30*time.Second, cfg.GetWatchdogInterval())
}

func TestLoad_MissingFileUsesEnvConfig(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	require.Equal(t, "https://api.renatrack.health", cfg.GetAPIBaseURL())
}

func TestLoad_FileValuesOverrideDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[api]
base_url = "https://api.example.org"
http_timeout_secs = 10

[session]
renewal_interval_secs = 120
activity_debounce_millis = 500

[google]
client_id = "client-id-1"
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://api.example.org", cfg.GetAPIBaseURL())
	require.Equal(t, 10*time.Second, cfg.GetHTTPTimeout())
	require.Equal(t, 2*time.Minute, cfg.GetRenewalInterval())
	require.Equal(t, 500*time.Millisecond, cfg.GetActivityDebounce())
	require.Equal(t, "client-id-1", cfg.GetGoogleClientID())

	// Values absent from the file keep their defaults.
	require.Equal(t, "X-CSRF-Token", cfg.GetCSRFHeader())
	require.Equal(t, 30*time.Second, cfg.GetWatchdogInterval())
	require.Equal(t, 720*time.Hour, cfg.GetFallbackSessionTTL())
}

func TestLoad_MalformedFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`[api`), 0o600))

	_, err := config.Load(path)
	require.Error(t, err)
}
