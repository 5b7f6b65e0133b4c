package config

import (
	"os"
	"time"
)

const (
	baseURLVar          = "RENATRACK_API_URL"
	httpTimeoutVar      = "RENATRACK_HTTP_TIMEOUT"
	csrfHeaderVar       = "RENATRACK_CSRF_HEADER"
	renewalIntervalVar  = "RENATRACK_RENEWAL_INTERVAL"
	activityDebounceVar = "RENATRACK_ACTIVITY_DEBOUNCE"
	watchdogIntervalVar = "RENATRACK_WATCHDOG_INTERVAL"
	fallbackTTLVar      = "RENATRACK_FALLBACK_SESSION_TTL"
)

type EnvVars struct{}

var _ Config = EnvVars{}

func (EnvVars) GetAPIBaseURL() string {
	return GetEnv(baseURLVar, "https://api.renatrack.health")
}

func (EnvVars) GetHTTPTimeout() time.Duration {
	return GetDurationEnv(httpTimeoutVar, 30*time.Second)
}

func (EnvVars) GetCSRFHeader() string {
	return GetEnv(csrfHeaderVar, "X-CSRF-Token")
}

func (EnvVars) GetRenewalInterval() time.Duration {
	return GetDurationEnv(renewalIntervalVar, 5*time.Minute)
}

func (EnvVars) GetActivityDebounce() time.Duration {
	return GetDurationEnv(activityDebounceVar, time.Second)
}

func (EnvVars) GetWatchdogInterval() time.Duration {
	return GetDurationEnv(watchdogIntervalVar, 30*time.Second)
}

func (EnvVars) GetFallbackSessionTTL() time.Duration {
	return GetDurationEnv(fallbackTTLVar, 720*time.Hour)
}

func (EnvVars) GetGoogleClientID() string {
	return GetEnv("GOOGLE_CLIENT_ID", "")
}

func (EnvVars) GetGoogleClientSecret() string {
	return GetEnv("GOOGLE_CLIENT_SECRET", "")
}

func (EnvVars) GetGoogleRedirectURL() string {
	return GetEnv("GOOGLE_REDIRECT_URL", "http://localhost:8912/callback")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetDurationEnv reads a Go duration string (e.g. "5m", "30s") from the
// environment, falling back to the default when unset or unparseable.
func GetDurationEnv(envVar string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
