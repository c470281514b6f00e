package test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/cpsim/core/devices"
	"github.com/kilianp07/cpsim/infra/metrics"
	"github.com/kilianp07/cpsim/infra/mqtt"
	"github.com/kilianp07/cpsim/internal/eventbus"
	"github.com/kilianp07/cpsim/simulator"
	"github.com/kilianp07/cpsim/test/util"
)

func TestMetricsHTTPExposure(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	bus := eventbus.New()
	done := metrics.StartEventCollector(context.Background(), bus, sink)

	cfg := simulator.Config{
		Sessions:              1,
		SampleIntervalSeconds: 0.02,
		ChargingSeconds:       0.05,
		CohortSizes:           []int{1, 2},
	}
	cfg.SetDefaults()
	runner := simulator.NewRunner(cfg, devices.Generate(2, "cp"), mqtt.NewMockChannel(), nil, simulator.WithBus(bus))
	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	bus.Close()
	<-done

	ctx, cancel := context.WithTimeout(context.Background(), util.MetricTimeout)
	defer cancel()
	if err := util.WaitForMetric(ctx, srv.URL+"/metrics", `cpsim_sweeps_total{interrupted="false"} 1`); err != nil {
		t.Fatalf("metric wait: %v", err)
	}

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if err := resp.Body.Close(); err != nil {
		t.Fatalf("close body: %v", err)
	}
	out := string(body)
	for _, expected := range []string{
		`cpsim_messages_total{result="ok",type="Authorize"} 3`,
		`cpsim_messages_total{result="ok",type="StopTransaction"} 3`,
		`cpsim_cohort_size 2`,
		`cpsim_cohort_agents{result="ok"} 2`,
	} {
		if !strings.Contains(out, expected) {
			t.Errorf("metric missing: %s", expected)
		}
	}
}
