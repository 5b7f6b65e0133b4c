package config

import "time"

type Config interface {
	APIConfig
	SessionConfig
	GoogleConfig
}

type APIConfig interface {
	GetAPIBaseURL() string
	GetHTTPTimeout() time.Duration
	GetCSRFHeader() string
}

type SessionConfig interface {
	GetRenewalInterval() time.Duration
	GetActivityDebounce() time.Duration
	GetWatchdogInterval() time.Duration
	GetFallbackSessionTTL() time.Duration
}

type GoogleConfig interface {
	GetGoogleClientID() string
	GetGoogleClientSecret() string
	GetGoogleRedirectURL() string
}

type mainConfig struct {
	EnvVars
}

func New() Config {
	return mainConfig{}
}
