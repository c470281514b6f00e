package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/cpsim/core/metrics"
	"github.com/kilianp07/cpsim/infra/mqtt"
	"github.com/kilianp07/cpsim/simulator"
)

// EnvPrefix prefixes environment overrides. Nested keys are separated by a
// double underscore: CPSIM_MQTT__BROKER sets mqtt.broker.
const EnvPrefix = "CPSIM_"

type Config struct {
	MQTT       mqtt.Config      `json:"mqtt"`
	Simulation simulator.Config `json:"simulation"`
	Devices    DevicesConfig    `json:"devices"`
	Checkpoint CheckpointConfig `json:"checkpoint"`
	Metrics    metrics.Config   `json:"metrics"`
	Logging    LoggingConfig    `json:"logging"`
	Monitoring MonitoringConfig `json:"monitoring"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{MQTT: mqtt.Config{QoS: 1}}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults applies defaults to every section.
func (c *Config) SetDefaults() {
	c.MQTT.SetDefaults()
	c.Simulation.SetDefaults()
	c.Devices.SetDefaults()
	c.Checkpoint.SetDefaults()
	c.Metrics.SetDefaults()
	c.Logging.SetDefaults()
	c.Monitoring.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if err := c.Simulation.Validate(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	if err := c.Devices.Validate(); err != nil {
		return fmt.Errorf("devices: %w", err)
	}
	if err := c.Checkpoint.Validate(); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Monitoring.Validate(); err != nil {
		return fmt.Errorf("monitoring: %w", err)
	}
	return nil
}

// Load reads the configuration file at path, applies CPSIM_ environment
// overrides, defaults and validation. An empty path loads defaults and
// environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}

	cfg := &Config{MQTT: mqtt.Config{QoS: 1}}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag: "json",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				splitListHook,
			),
			Result:           cfg,
			TagName:          "json",
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, err
	}
	// Zero means unset to SetDefaults, so an explicit zero is rejected here.
	if k.Exists("simulation.sessions") && cfg.Simulation.Sessions == 0 {
		return nil, fmt.Errorf("%w: sessions must be positive, got 0", simulator.ErrConfiguration)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// splitListHook turns a comma separated env value into a list so that weak
// typing can convert each element to the slice's element type.
func splitListHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Slice || to.Elem().Kind() == reflect.Uint8 {
		return data, nil
	}
	s := strings.TrimSpace(reflect.ValueOf(data).String())
	if s == "" {
		return []string{}, nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}
