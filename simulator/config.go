package simulator

import (
	"fmt"
	"time"
)

// Config holds the simulation parameters.
type Config struct {
	// Sessions is the number of sequential charge sessions per charge point.
	Sessions int `json:"sessions"`
	// SampleIntervalSeconds is the MeterValues cadence while charging.
	SampleIntervalSeconds float64 `json:"sample_interval_seconds"`
	// ChargingSeconds is how long each session stays in the Charging phase.
	ChargingSeconds float64 `json:"charging_seconds"`
	// CohortSizes is the ordered list of fleet sizes of the sweep.
	CohortSizes []int  `json:"cohort_sizes"`
	ConnectorID int    `json:"connector_id"`
	StopReason  string `json:"stop_reason"`
	// WrapAttrs nests each frame under its backend attribute name.
	WrapAttrs *bool `json:"wrap_attrs"`
	// Seed makes telemetry reproducible when non-zero.
	Seed int64 `json:"seed"`
}

// DefaultCohortSizes is the sweep used when none is configured.
var DefaultCohortSizes = []int{10, 20, 40, 80, 160}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	var c Config
	c.SetDefaults()
	return c
}

// SetDefaults applies defaults for unset fields.
func (c *Config) SetDefaults() {
	if c.Sessions == 0 {
		c.Sessions = 3
	}
	if c.SampleIntervalSeconds == 0 {
		c.SampleIntervalSeconds = 1
	}
	if c.ChargingSeconds == 0 {
		c.ChargingSeconds = 600
	}
	if c.CohortSizes == nil {
		c.CohortSizes = append([]int(nil), DefaultCohortSizes...)
	}
	if c.ConnectorID == 0 {
		c.ConnectorID = 1
	}
	if c.StopReason == "" {
		c.StopReason = "Other"
	}
	if c.WrapAttrs == nil {
		wrap := true
		c.WrapAttrs = &wrap
	}
}

// Validate checks the parameters. Errors wrap ErrConfiguration.
func (c Config) Validate() error {
	if c.Sessions <= 0 {
		return fmt.Errorf("%w: sessions must be positive, got %d", ErrConfiguration, c.Sessions)
	}
	if c.SampleInterval() <= 0 {
		return fmt.Errorf("%w: sample_interval_seconds must be at least 1ns, got %g", ErrConfiguration, c.SampleIntervalSeconds)
	}
	if c.ChargingDuration() <= 0 {
		return fmt.Errorf("%w: charging_seconds must be at least 1ns, got %g", ErrConfiguration, c.ChargingSeconds)
	}
	if len(c.CohortSizes) == 0 {
		return fmt.Errorf("%w: no cohort sizes configured", ErrConfiguration)
	}
	for _, n := range c.CohortSizes {
		if n <= 0 {
			return fmt.Errorf("%w: cohort size must be positive, got %d", ErrConfiguration, n)
		}
	}
	return nil
}

// SampleInterval returns the sampling interval.
func (c Config) SampleInterval() time.Duration {
	return seconds(c.SampleIntervalSeconds)
}

// ChargingDuration returns the charging phase duration.
func (c Config) ChargingDuration() time.Duration {
	return seconds(c.ChargingSeconds)
}

// Wrap reports whether frames are wrapped in their backend attribute.
func (c Config) Wrap() bool {
	return c.WrapAttrs == nil || *c.WrapAttrs
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
