package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/cpsim/core/metrics"
	"github.com/kilianp07/cpsim/infra/logger"
)

// InfluxConfig configures the InfluxDB sink.
type InfluxConfig struct {
	URL             string `json:"url"`
	Token           string `json:"token"`
	Org             string `json:"org"`
	Bucket          string `json:"bucket"`
	BatchSize       uint   `json:"batch_size"`
	FlushIntervalMS uint   `json:"flush_interval_ms"`
}

// InfluxSink writes simulation points to InfluxDB through the non-blocking
// write API. Points are buffered and sent in batches; Close flushes them.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	log      logger.Logger
	done     chan struct{}
	once     sync.Once
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	opts := influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second})
	if cfg.BatchSize > 0 {
		opts.SetBatchSize(cfg.BatchSize)
	}
	if cfg.FlushIntervalMS > 0 {
		opts.SetFlushInterval(cfg.FlushIntervalMS)
	}
	client := influxdb2.NewClientWithOptions(base, cfg.Token, opts)
	s := &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
		done:     make(chan struct{}),
	}
	go s.logErrors()
	return s
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		_ = sink.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) logErrors() {
	errs := s.writeAPI.Errors()
	for {
		select {
		case <-s.done:
			return
		case err := <-errs:
			s.log.Errorf("influx write: %v", err)
		}
	}
}

// RecordMessage writes one publish attempt.
func (s *InfluxSink) RecordMessage(rec coremetrics.MessageRecord) error {
	p := write.NewPointWithMeasurement("ocpp_message").
		AddTag("tag", rec.Tag).
		AddTag("type", string(rec.Type)).
		AddTag("ok", strconv.FormatBool(rec.OK)).
		AddField("seq", rec.Seq)
	if rec.Error != "" {
		p = p.AddField("error", rec.Error)
	}
	s.writeAPI.WritePoint(p.SetTime(rec.Time))
	return nil
}

// RecordSession writes a phase transition.
func (s *InfluxSink) RecordSession(rec coremetrics.SessionRecord) error {
	p := write.NewPointWithMeasurement("session_phase").
		AddTag("tag", rec.Tag).
		AddTag("phase", rec.Phase.String()).
		AddField("seq", rec.Seq).
		SetTime(rec.Time)
	s.writeAPI.WritePoint(p)
	return nil
}

// RecordAgent writes the outcome of an agent run.
func (s *InfluxSink) RecordAgent(rec coremetrics.AgentRecord) error {
	p := write.NewPointWithMeasurement("agent_run").
		AddTag("tag", rec.Tag).
		AddTag("cohort", strconv.Itoa(rec.Cohort)).
		AddTag("ok", strconv.FormatBool(rec.OK)).
		AddField("sessions", rec.Sessions).
		AddField("duration_s", round3(rec.Duration.Seconds()))
	if rec.Error != "" {
		p = p.AddField("error", rec.Error)
	}
	s.writeAPI.WritePoint(p.SetTime(rec.Time))
	return nil
}

// RecordCohort writes the cohort summary.
func (s *InfluxSink) RecordCohort(rec coremetrics.CohortRecord) error {
	p := write.NewPointWithMeasurement("cohort_result").
		AddTag("size", strconv.Itoa(rec.Size)).
		AddField("succeeded", rec.Succeeded).
		AddField("failed", rec.Failed).
		AddField("duration_s", round3(rec.Duration.Seconds())).
		SetTime(rec.Time)
	s.writeAPI.WritePoint(p)
	return nil
}

// RecordSweep writes the sweep summary.
func (s *InfluxSink) RecordSweep(rec coremetrics.SweepRecord) error {
	sizes := make([]string, len(rec.CohortSizes))
	for i, n := range rec.CohortSizes {
		sizes[i] = strconv.Itoa(n)
	}
	p := write.NewPointWithMeasurement("sweep_result").
		AddTag("interrupted", strconv.FormatBool(rec.Interrupted)).
		AddField("cohort_sizes", strings.Join(sizes, ",")).
		AddField("succeeded", rec.Succeeded).
		AddField("failed", rec.Failed).
		AddField("duration_s", round3(rec.End.Sub(rec.Start).Seconds())).
		SetTime(rec.End)
	s.writeAPI.WritePoint(p)
	return nil
}

// RecordPublishLatency writes broker acknowledgment latencies.
func (s *InfluxSink) RecordPublishLatency(lat []coremetrics.PublishLatency) error {
	now := time.Now()
	for _, l := range lat {
		p := write.NewPointWithMeasurement("publish_latency").
			AddTag("tag", l.Tag).
			AddTag("ok", strconv.FormatBool(l.OK)).
			AddField("latency_ms", round3(l.Latency.Seconds()*1000)).
			SetTime(now)
		s.writeAPI.WritePoint(p)
	}
	return nil
}

// Flush sends buffered points.
func (s *InfluxSink) Flush() { s.writeAPI.Flush() }

// Close flushes pending points and releases the client.
func (s *InfluxSink) Close() error {
	s.once.Do(func() {
		s.writeAPI.Flush()
		close(s.done)
		s.client.Close()
	})
	return nil
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
