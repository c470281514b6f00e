// Package scenarios runs YAML-described sweeps against an in-memory channel
// and checks their outcome.
package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/cpsim/core/devices"
	"github.com/kilianp07/cpsim/core/model"
	"github.com/kilianp07/cpsim/simulator"
)

// SimulationDef overrides the simulation parameters of a scenario.
type SimulationDef struct {
	Sessions              int     `yaml:"sessions"`
	SampleIntervalSeconds float64 `yaml:"sample_interval_seconds"`
	ChargingSeconds       float64 `yaml:"charging_seconds"`
	CohortSizes           []int   `yaml:"cohort_sizes"`
	Seed                  int64   `yaml:"seed"`
}

// ToConfig returns the simulator configuration with defaults applied.
func (s SimulationDef) ToConfig() simulator.Config {
	cfg := simulator.Config{
		Sessions:              s.Sessions,
		SampleIntervalSeconds: s.SampleIntervalSeconds,
		ChargingSeconds:       s.ChargingSeconds,
		CohortSizes:           s.CohortSizes,
		Seed:                  s.Seed,
	}
	cfg.SetDefaults()
	return cfg
}

// CohortExpect is the expected settlement of one cohort.
type CohortExpect struct {
	Size      int `yaml:"size"`
	Succeeded int `yaml:"succeeded"`
	Failed    int `yaml:"failed"`
}

type Expected struct {
	Succeeded      int            `yaml:"succeeded"`
	Failed         int            `yaml:"failed"`
	MessagesOK     int            `yaml:"messages_ok"`
	MessagesFailed int            `yaml:"messages_failed"`
	Cohorts        []CohortExpect `yaml:"cohorts"`
}

type Scenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description,omitempty"`
	Devices     int           `yaml:"devices"`
	Template    string        `yaml:"template"`
	Simulation  SimulationDef `yaml:"simulation"`
	FailConnect []string      `yaml:"fail_connect,omitempty"`
	FailPublish []string      `yaml:"fail_publish,omitempty"`
	Expected    Expected      `yaml:"expected"`
}

// DeviceList generates the scenario's device directory.
func (s Scenario) DeviceList() []model.Device {
	template := s.Template
	if template == "" {
		template = "cp"
	}
	return devices.Generate(s.Devices, template)
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Devices <= 0 {
		return nil, fmt.Errorf("scenario %q: devices must be positive", sc.Name)
	}
	return &sc, nil
}
