package metrics

import "github.com/kilianp07/cpsim/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" koanf:"sinks"`
	// PrometheusAddr serves /metrics when a prometheus sink is configured.
	PrometheusAddr string `json:"prometheus_addr" koanf:"prometheus_addr"`
}

// SetDefaults applies defaults for unset fields.
func (c *Config) SetDefaults() {
	if c.PrometheusAddr == "" {
		c.PrometheusAddr = ":2112"
	}
}

// HasSink reports whether a sink of the given type is configured.
func (c Config) HasSink(typ string) bool {
	for _, s := range c.Sinks {
		if s.Type == typ {
			return true
		}
	}
	return false
}
