package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	coremetrics "github.com/kilianp07/cpsim/core/metrics"
)

// Histogram bounds in microseconds.
const (
	latencyMin     int64 = 1
	latencyMax     int64 = 60_000_000
	latencySigFigs       = 3
)

// LatencySummary is a snapshot of the publish latency distribution.
type LatencySummary struct {
	Count  int64
	Failed int64
	Mean   time.Duration
	P50    time.Duration
	P95    time.Duration
	P99    time.Duration
	Max    time.Duration
}

// LatencyTracker aggregates broker acknowledgment latencies in an HDR
// histogram and forwards each observation to an optional recorder.
type LatencyTracker struct {
	mu     sync.Mutex
	hist   *hdrhistogram.Histogram
	failed int64
	sink   coremetrics.LatencyRecorder
}

// NewLatencyTracker creates a tracker. sink may be nil.
func NewLatencyTracker(sink coremetrics.MetricsSink) *LatencyTracker {
	t := &LatencyTracker{hist: hdrhistogram.New(latencyMin, latencyMax, latencySigFigs)}
	if r, ok := sink.(coremetrics.LatencyRecorder); ok {
		t.sink = r
	}
	return t
}

// Observe records one acknowledged or failed publish. Failed publishes are
// counted but kept out of the distribution.
func (t *LatencyTracker) Observe(tag, topic string, latency time.Duration, err error) {
	if t.sink != nil {
		_ = t.sink.RecordPublishLatency([]coremetrics.PublishLatency{{
			Tag: tag, Topic: topic, Latency: latency, OK: err == nil,
		}})
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.failed++
		return
	}
	us := latency.Microseconds()
	if us < latencyMin {
		us = latencyMin
	}
	if us > latencyMax {
		us = latencyMax
	}
	_ = t.hist.RecordValue(us)
}

// Summary returns the current distribution.
func (t *LatencyTracker) Summary() LatencySummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	us := func(v int64) time.Duration { return time.Duration(v) * time.Microsecond }
	s := LatencySummary{Count: t.hist.TotalCount(), Failed: t.failed}
	if s.Count == 0 {
		return s
	}
	s.Mean = time.Duration(t.hist.Mean() * float64(time.Microsecond))
	s.P50 = us(t.hist.ValueAtQuantile(50))
	s.P95 = us(t.hist.ValueAtQuantile(95))
	s.P99 = us(t.hist.ValueAtQuantile(99))
	s.Max = us(t.hist.Max())
	return s
}

// Reset clears the distribution.
func (t *LatencyTracker) Reset() {
	t.mu.Lock()
	t.hist.Reset()
	t.failed = 0
	t.mu.Unlock()
}
