package metrics_test

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	metrics "github.com/kilianp07/cpsim/core/metrics"
	_ "github.com/kilianp07/cpsim/infra/metrics"
)

// Sinks decoded from YAML are fanned out, with string settings accepted.
func TestMetricsConfigDecodeYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	data := `sinks:
  - type: nop
  - type: journal
    conf:
      path: ` + path + `
      max_backups: "2"
prometheus_addr: ":9000"
`
	var cfg metrics.Config
	if err := yaml.Unmarshal([]byte(data), &cfg); err != nil {
		t.Fatalf("yaml unmarshal: %v", err)
	}
	s, err := metrics.NewMetricsSink(cfg.Sinks)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	m, ok := s.(*metrics.MultiSink)
	if !ok {
		t.Fatalf("expected MultiSink, got %T", s)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !cfg.HasSink("journal") || cfg.HasSink("prometheus") {
		t.Fatalf("unexpected sinks %+v", cfg.Sinks)
	}
}

// An unknown sink type names the failing entry.
func TestMetricsConfigDecodeJSON_Invalid(t *testing.T) {
	data := `{"sinks":[{"type":"nop"},{"type":"missing"}]}`
	var cfg metrics.Config
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	_, err := metrics.NewMetricsSink(cfg.Sinks)
	if err == nil || !strings.Contains(err.Error(), "sink 1 (missing)") {
		t.Fatalf("expected error naming sink 1, got %v", err)
	}
	cfg.SetDefaults()
	if cfg.PrometheusAddr != ":2112" {
		t.Fatalf("unexpected default addr %q", cfg.PrometheusAddr)
	}
}
