package config

import (
	"fmt"
	"time"
)

// SyncConfig holds the Google Calendar sync settings.
type SyncConfig struct {
	// Enabled turns on the scheduled push in the server.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Schedule is a cron expression for the periodic push.
	Schedule string `mapstructure:"schedule" default:"@every 15m"`
	// CalendarID is the target Google calendar.
	CalendarID string `mapstructure:"calendar_id" default:"primary"`
	// CredentialsPath points to the OAuth client credentials JSON.
	CredentialsPath string `mapstructure:"credentials_path" default:"credentials.json"`
	// TokenPath is where the OAuth token is cached.
	TokenPath string `mapstructure:"token_path" default:"token.json"`
	// Timezone is the IANA zone used for UNTIL conversion and event dates.
	Timezone string `mapstructure:"timezone" default:"UTC"`
	// Endpoint overrides the Google API base URL.
	Endpoint string `mapstructure:"endpoint" default:""`
	// BreakerMaxFailures opens the breaker after this many consecutive failures.
	BreakerMaxFailures int `mapstructure:"breaker_max_failures" default:"5"`
	// BreakerTimeoutSeconds is how long the breaker stays open.
	BreakerTimeoutSeconds int `mapstructure:"breaker_timeout_seconds" default:"60"`
	// RequestsPerSecond throttles Google API calls. Zero disables throttling.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" default:"5"`
	// Burst is how many calls may go out at once.
	Burst int `mapstructure:"burst" default:"5"`
}

// Location resolves Timezone.
func (c SyncConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid sync timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// BreakerTimeout returns the open state duration.
func (c SyncConfig) BreakerTimeout() time.Duration {
	if c.BreakerTimeoutSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.BreakerTimeoutSeconds) * time.Second
}
