package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// FileValues holds the optional client config file contents. Durations are
// expressed in seconds. Any zero value falls through to the environment
// defaults.
type FileValues struct {
	API struct {
		BaseURL         string `toml:"base_url"`
		HTTPTimeoutSecs int    `toml:"http_timeout_secs"`
		CSRFHeader      string `toml:"csrf_header"`
	} `toml:"api"`

	Session struct {
		RenewalIntervalSecs    int `toml:"renewal_interval_secs"`
		ActivityDebounceMillis int `toml:"activity_debounce_millis"`
		WatchdogIntervalSecs   int `toml:"watchdog_interval_secs"`
		FallbackSessionTTLHrs  int `toml:"fallback_session_ttl_hours"`
	} `toml:"session"`

	Google struct {
		ClientID     string `toml:"client_id"`
		ClientSecret string `toml:"client_secret"`
		RedirectURL  string `toml:"redirect_url"`
	} `toml:"google"`
}

type fileConfig struct {
	EnvVars
	values FileValues
}

var _ Config = fileConfig{}

// Load reads a TOML config file and returns a Config whose file values
// override the environment defaults. A missing file is not an error; the
// environment-only config is returned instead.
func Load(path string) (Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return New(), nil
	}

	var values FileValues
	if _, err := toml.DecodeFile(path, &values); err != nil {
		return nil, errors.Wrapf(err, "[config.Load] decoding %s", path)
	}
	return fileConfig{values: values}, nil
}

func (c fileConfig) GetAPIBaseURL() string {
	if c.values.API.BaseURL != "" {
		return c.values.API.BaseURL
	}
	return c.EnvVars.GetAPIBaseURL()
}

func (c fileConfig) GetHTTPTimeout() time.Duration {
	if c.values.API.HTTPTimeoutSecs > 0 {
		return time.Duration(c.values.API.HTTPTimeoutSecs) * time.Second
	}
	return c.EnvVars.GetHTTPTimeout()
}

func (c fileConfig) GetCSRFHeader() string {
	if c.values.API.CSRFHeader != "" {
		return c.values.API.CSRFHeader
	}
	return c.EnvVars.GetCSRFHeader()
}

func (c fileConfig) GetRenewalInterval() time.Duration {
	if c.values.Session.RenewalIntervalSecs > 0 {
		return time.Duration(c.values.Session.RenewalIntervalSecs) * time.Second
	}
	return c.EnvVars.GetRenewalInterval()
}

func (c fileConfig) GetActivityDebounce() time.Duration {
	if c.values.Session.ActivityDebounceMillis > 0 {
		return time.Duration(c.values.Session.ActivityDebounceMillis) * time.Millisecond
	}
	return c.EnvVars.GetActivityDebounce()
}

func (c fileConfig) GetWatchdogInterval() time.Duration {
	if c.values.Session.WatchdogIntervalSecs > 0 {
		return time.Duration(c.values.Session.WatchdogIntervalSecs) * time.Second
	}
	return c.EnvVars.GetWatchdogInterval()
}

func (c fileConfig) GetFallbackSessionTTL() time.Duration {
	if c.values.Session.FallbackSessionTTLHrs > 0 {
		return time.Duration(c.values.Session.FallbackSessionTTLHrs) * time.Hour
	}
	return c.EnvVars.GetFallbackSessionTTL()
}

func (c fileConfig) GetGoogleClientID() string {
	if c.values.Google.ClientID != "" {
		return c.values.Google.ClientID
	}
	return c.EnvVars.GetGoogleClientID()
}

func (c fileConfig) GetGoogleClientSecret() string {
	if c.values.Google.ClientSecret != "" {
		return c.values.Google.ClientSecret
	}
	return c.EnvVars.GetGoogleClientSecret()
}

func (c fileConfig) GetGoogleRedirectURL() string {
	if c.values.Google.RedirectURL != "" {
		return c.values.Google.RedirectURL
	}
	return c.EnvVars.GetGoogleRedirectURL()
}
