package metrics

import (
	"time"

	"github.com/kilianp07/cpsim/core/model"
)

// MessageRecord is one publish attempt of an OCPP frame.
type MessageRecord struct {
	Tag   string
	Seq   int
	Type  model.MessageType
	OK    bool
	Error string
	Time  time.Time
}

// MetricsSink records publish attempts for observability purposes.
type MetricsSink interface {
	RecordMessage(rec MessageRecord) error
}

// SessionRecord is a session phase transition.
type SessionRecord struct {
	Tag   string
	Seq   int
	Phase model.Phase
	Time  time.Time
}

// SessionRecorder records session transitions.
type SessionRecorder interface {
	RecordSession(rec SessionRecord) error
}

// AgentRecord is the outcome of one charge point run.
type AgentRecord struct {
	Tag      string
	Cohort   int
	Sessions int
	Duration time.Duration
	OK       bool
	Error    string
	Time     time.Time
}

// AgentRecorder records agent outcomes.
type AgentRecorder interface {
	RecordAgent(rec AgentRecord) error
}

// CohortRecord summarises a settled cohort.
type CohortRecord struct {
	Size      int
	Succeeded int
	Failed    int
	Duration  time.Duration
	Time      time.Time
}

// CohortRecorder records cohort outcomes.
type CohortRecorder interface {
	RecordCohort(rec CohortRecord) error
}

// SweepRecord summarises a finished sweep.
type SweepRecord struct {
	Start       time.Time
	End         time.Time
	CohortSizes []int
	Succeeded   int
	Failed      int
	Interrupted bool
}

// SweepRecorder records sweep outcomes.
type SweepRecorder interface {
	RecordSweep(rec SweepRecord) error
}

// PublishLatency is the broker acknowledgment delay of one message.
type PublishLatency struct {
	Tag     string
	Topic   string
	Latency time.Duration
	OK      bool
}

// LatencyRecorder is implemented by sinks able to record publish latency.
type LatencyRecorder interface {
	RecordPublishLatency(lat []PublishLatency) error
}

// Closer is implemented by sinks holding buffered data or connections.
type Closer interface {
	Close() error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordMessage(MessageRecord) error { return nil }
func (NopSink) RecordSession(SessionRecord) error { return nil }
func (NopSink) RecordAgent(AgentRecord) error     { return nil }
func (NopSink) RecordCohort(CohortRecord) error   { return nil }
func (NopSink) RecordSweep(SweepRecord) error     { return nil }

func (NopSink) RecordPublishLatency([]PublishLatency) error { return nil }
