package simulator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"negative sessions":     func(c *Config) { c.Sessions = -1 },
		"negative interval":     func(c *Config) { c.SampleIntervalSeconds = -1 },
		"sub-ns interval":       func(c *Config) { c.SampleIntervalSeconds = 1e-10 },
		"sub-ns charging":       func(c *Config) { c.ChargingSeconds = 1e-10 },
		"empty cohort list":     func(c *Config) { c.CohortSizes = []int{} },
		"non-positive cohort":   func(c *Config) { c.CohortSizes = []int{2, 0} },
		"negative charging":     func(c *Config) { c.ChargingSeconds = -3 },
		"negative cohort value": func(c *Config) { c.CohortSizes = []int{-4} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
		})
	}
	assert.NoError(t, DefaultConfig().Validate())
}

func TestConfigDurations(t *testing.T) {
	cfg := Config{SampleIntervalSeconds: 0.5, ChargingSeconds: 2}
	cfg.SetDefaults()
	assert.Equal(t, "500ms", cfg.SampleInterval().String())
	assert.Equal(t, "2s", cfg.ChargingDuration().String())
}
