package metrics

import (
	"errors"
	"testing"
)

type recordSink struct {
	count  int
	closed bool
}

func (r *recordSink) RecordMessage(MessageRecord) error {
	r.count++
	return nil
}

func (r *recordSink) RecordPublishLatency([]PublishLatency) error {
	r.count++
	return nil
}

func (r *recordSink) Close() error {
	r.closed = true
	return nil
}

type failSink struct{}

func (failSink) RecordMessage(MessageRecord) error { return errors.New("down") }

// TestMultiSink ensures records are forwarded to all sinks.
func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2, NopSink{})
	if err := m.RecordMessage(MessageRecord{Tag: "cp1"}); err != nil {
		t.Fatalf("record message: %v", err)
	}
	if err := m.RecordPublishLatency(nil); err != nil {
		t.Fatalf("record latency: %v", err)
	}
	// recordSink has no cohort recorder
	if err := m.RecordCohort(CohortRecord{Size: 1}); err != nil {
		t.Fatalf("record cohort: %v", err)
	}
	if s1.count != 2 || s2.count != 2 {
		t.Fatalf("records not forwarded")
	}
	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !s1.closed || !s2.closed {
		t.Fatalf("sinks not closed")
	}
	if err := NewMultiSink(failSink{}).RecordMessage(MessageRecord{}); err == nil {
		t.Fatal("expected error")
	}
}
