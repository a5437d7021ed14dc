package fetch

import "time"

// Config holds HTTP fetch settings.
type Config struct {
	// TimeoutSeconds bounds each document or file download.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"15"`
	// MaxRedirects is the number of redirects followed before giving up.
	MaxRedirects int `mapstructure:"max_redirects" default:"5"`
}

// Options converts the configuration into fetcher options.
func (c Config) Options() Options {
	return Options{
		Timeout:      time.Duration(c.TimeoutSeconds) * time.Second,
		MaxRedirects: c.MaxRedirects,
	}
}
