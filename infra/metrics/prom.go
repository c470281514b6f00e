package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/cpsim/core/metrics"
)

const namespace = "cpsim"

// PromSink records simulation activity in Prometheus metrics.
type PromSink struct {
	messages    *prometheus.CounterVec
	transitions *prometheus.CounterVec
	agents      *prometheus.HistogramVec
	latency     *prometheus.HistogramVec
	cohortSize  prometheus.Gauge
	cohortAgent *prometheus.GaugeVec
	sweeps      *prometheus.CounterVec
}

// NewPromSink registers metrics on the default Prometheus registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	var (
		s   PromSink
		err error
	)
	if s.messages, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_total",
		Help:      "OCPP frames handed to the publish channel",
	}, []string{"type", "result"})); err != nil {
		return nil, err
	}
	if s.transitions, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_transitions_total",
		Help:      "Charge session phase transitions",
	}, []string{"phase"})); err != nil {
		return nil, err
	}
	if s.agents, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "agent_duration_seconds",
		Help:      "Wall time of one charge point run",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
	}, []string{"result"})); err != nil {
		return nil, err
	}
	if s.latency, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "publish_latency_seconds",
		Help:      "Time between publish and broker acknowledgment",
		Buckets:   prometheus.DefBuckets,
	}, []string{"result"})); err != nil {
		return nil, err
	}
	if s.cohortSize, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cohort_size",
		Help:      "Size of the last settled cohort",
	})); err != nil {
		return nil, err
	}
	if s.cohortAgent, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cohort_agents",
		Help:      "Agents of the last settled cohort by result",
	}, []string{"result"})); err != nil {
		return nil, err
	}
	if s.sweeps, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweeps_total",
		Help:      "Finished scenario sweeps",
	}, []string{"interrupted"})); err != nil {
		return nil, err
	}
	return &s, nil
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

// RecordMessage counts a publish attempt.
func (s *PromSink) RecordMessage(rec coremetrics.MessageRecord) error {
	s.messages.WithLabelValues(string(rec.Type), result(rec.OK)).Inc()
	return nil
}

// RecordSession counts a phase transition.
func (s *PromSink) RecordSession(rec coremetrics.SessionRecord) error {
	s.transitions.WithLabelValues(rec.Phase.String()).Inc()
	return nil
}

// RecordAgent observes the run duration.
func (s *PromSink) RecordAgent(rec coremetrics.AgentRecord) error {
	s.agents.WithLabelValues(result(rec.OK)).Observe(rec.Duration.Seconds())
	return nil
}

// RecordCohort sets the cohort gauges.
func (s *PromSink) RecordCohort(rec coremetrics.CohortRecord) error {
	s.cohortSize.Set(float64(rec.Size))
	s.cohortAgent.WithLabelValues("ok").Set(float64(rec.Succeeded))
	s.cohortAgent.WithLabelValues("error").Set(float64(rec.Failed))
	return nil
}

// RecordSweep counts a finished sweep.
func (s *PromSink) RecordSweep(rec coremetrics.SweepRecord) error {
	s.sweeps.WithLabelValues(strconv.FormatBool(rec.Interrupted)).Inc()
	return nil
}

// RecordPublishLatency records the publish latency histogram.
func (s *PromSink) RecordPublishLatency(recs []coremetrics.PublishLatency) error {
	for _, r := range recs {
		s.latency.WithLabelValues(result(r.OK)).Observe(r.Latency.Seconds())
	}
	return nil
}
