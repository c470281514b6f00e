package metrics

// Package metrics defines the sinks that record simulation activity. Every
// sink implements MetricsSink for publish attempts and may implement any of
// the optional recorders for session transitions, agent runs, cohorts,
// sweeps and publish latency. Sinks are built from configuration through a
// registry; NewMetricsSink returns a MultiSink when several are configured.
