package metrics

import (
	"github.com/kilianp07/cpsim/core/factory"
	coremetrics "github.com/kilianp07/cpsim/core/metrics"
)

// init registers built-in metrics sinks.
func init() {
	_ = coremetrics.RegisterMetricsSink("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})

	// The HTTP endpoint is started by the application from metrics.prometheus_addr.
	_ = coremetrics.RegisterMetricsSink("prometheus", func(map[string]any) (coremetrics.MetricsSink, error) {
		return NewPromSink()
	})

	_ = coremetrics.RegisterMetricsSink("influx", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c InfluxConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c), nil
	})

	_ = coremetrics.RegisterMetricsSink("journal", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c JournalConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewRotatingJournalSink(c)
	})
}
