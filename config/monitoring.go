package config

import "fmt"

// MonitoringConfig enables Sentry error reporting of failed charge points.
// An empty DSN disables it.
type MonitoringConfig struct {
	SentryDSN        string  `json:"sentry_dsn"`
	Environment      string  `json:"environment"`
	Release          string  `json:"release"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
}

// SetDefaults applies defaults for unset fields.
func (c *MonitoringConfig) SetDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
}

// Validate checks the sample rate bounds.
func (c MonitoringConfig) Validate() error {
	if c.TracesSampleRate < 0 || c.TracesSampleRate > 1 {
		return fmt.Errorf("traces_sample_rate must be within [0,1]")
	}
	return nil
}
