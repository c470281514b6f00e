package metrics

import "errors"

// MultiSink fanouts records to multiple sinks. Optional recorders are only
// forwarded to the sinks implementing them.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordMessage forwards the record to all sinks, returning the first error encountered.
func (m *MultiSink) RecordMessage(rec MessageRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordMessage(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordSession forwards session transitions.
func (m *MultiSink) RecordSession(rec SessionRecord) error {
	for _, s := range m.Sinks {
		if r, ok := s.(SessionRecorder); ok {
			if err := r.RecordSession(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordAgent forwards agent outcomes.
func (m *MultiSink) RecordAgent(rec AgentRecord) error {
	for _, s := range m.Sinks {
		if r, ok := s.(AgentRecorder); ok {
			if err := r.RecordAgent(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordCohort forwards cohort outcomes.
func (m *MultiSink) RecordCohort(rec CohortRecord) error {
	for _, s := range m.Sinks {
		if r, ok := s.(CohortRecorder); ok {
			if err := r.RecordCohort(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordSweep forwards sweep outcomes.
func (m *MultiSink) RecordSweep(rec SweepRecord) error {
	for _, s := range m.Sinks {
		if r, ok := s.(SweepRecorder); ok {
			if err := r.RecordSweep(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordPublishLatency forwards latency metrics when supported by the sink.
func (m *MultiSink) RecordPublishLatency(lat []PublishLatency) error {
	for _, s := range m.Sinks {
		if r, ok := s.(LatencyRecorder); ok {
			if err := r.RecordPublishLatency(lat); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes every sink that holds resources.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		if c, ok := s.(Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
