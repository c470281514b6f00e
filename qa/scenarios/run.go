package scenarios

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/cpsim/infra/logger"
	"github.com/kilianp07/cpsim/infra/metrics"
	"github.com/kilianp07/cpsim/infra/mqtt"
	"github.com/kilianp07/cpsim/internal/eventbus"
	"github.com/kilianp07/cpsim/simulator"
)

// RunScenario executes sc and reports every mismatch with its expectations.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	ch := mqtt.NewMockChannel()
	for _, tag := range sc.FailConnect {
		ch.FailConnect[tag] = true
	}
	for _, tag := range sc.FailPublish {
		ch.FailPublish[tag] = true
	}

	bus := eventbus.New()
	done := metrics.StartEventCollector(context.Background(), bus, sink)

	runner := simulator.NewRunner(sc.Simulation.ToConfig(), sc.DeviceList(), ch, nil,
		simulator.WithBus(bus), simulator.WithLogger(logger.NopLogger{}))
	res, err := runner.Run(context.Background())
	bus.Close()
	<-done
	if err != nil {
		t.Fatalf("scenario %s: run: %v", sc.Name, err)
	}

	cp := res.Checkpoint
	if cp.Succeeded != sc.Expected.Succeeded || cp.Failed != sc.Expected.Failed {
		t.Errorf("scenario %s expected %d/%d succeeded/failed, got %d/%d",
			sc.Name, sc.Expected.Succeeded, sc.Expected.Failed, cp.Succeeded, cp.Failed)
	}
	for i, want := range sc.Expected.Cohorts {
		if i >= len(cp.Cohorts) {
			t.Errorf("scenario %s: cohort %d missing", sc.Name, want.Size)
			continue
		}
		got := cp.Cohorts[i]
		if got.Size != want.Size || got.Succeeded != want.Succeeded || got.Failed != want.Failed {
			t.Errorf("scenario %s cohort %d: expected %+v, got %+v", sc.Name, i, want, got)
		}
	}
	if got := int(counterSum(t, reg, "cpsim_messages_total", "result", "ok")); got != sc.Expected.MessagesOK {
		t.Errorf("scenario %s expected %d published messages, got %d", sc.Name, sc.Expected.MessagesOK, got)
	}
	if got := int(counterSum(t, reg, "cpsim_messages_total", "result", "error")); got != sc.Expected.MessagesFailed {
		t.Errorf("scenario %s expected %d failed messages, got %d", sc.Name, sc.Expected.MessagesFailed, got)
	}
	if len(ch.Messages()) != sc.Expected.MessagesOK {
		t.Errorf("scenario %s: channel recorded %d messages", sc.Name, len(ch.Messages()))
	}
}

// counterSum adds every series of a counter family whose label matches.
func counterSum(t *testing.T, reg prometheus.Gatherer, name, label, value string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var sum float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					sum += m.GetCounter().GetValue()
				}
			}
		}
	}
	return sum
}
