package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/cpsim/core/events"
	coremetrics "github.com/kilianp07/cpsim/core/metrics"
	"github.com/kilianp07/cpsim/infra/logger"
	"github.com/kilianp07/cpsim/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for events.
// Its subscription is blocking, so every published event reaches the sink.
// It stops when the context is canceled or the bus is closed; the returned
// channel is closed once it has.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	log := logger.New("metrics-collector")
	sub := bus.SubscribeBlocking()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil {
					log.Warnf("record %T: %v", ev, err)
				}
			}
		}
	}()
	return done
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func record(sink coremetrics.MetricsSink, ev eventbus.Event) error {
	switch e := ev.(type) {
	case events.MessageEvent:
		return sink.RecordMessage(coremetrics.MessageRecord{
			Tag:   e.Tag,
			Seq:   e.Seq,
			Type:  e.Type,
			OK:    e.Err == nil,
			Error: errString(e.Err),
			Time:  e.Time,
		})
	case events.SessionEvent:
		if r, ok := sink.(coremetrics.SessionRecorder); ok {
			return r.RecordSession(coremetrics.SessionRecord{Tag: e.Tag, Seq: e.Seq, Phase: e.Phase, Time: e.Time})
		}
	case events.AgentEvent:
		if r, ok := sink.(coremetrics.AgentRecorder); ok {
			return r.RecordAgent(coremetrics.AgentRecord{
				Tag:      e.Tag,
				Cohort:   e.Cohort,
				Sessions: e.Sessions,
				Duration: e.Duration,
				OK:       e.Err == nil,
				Error:    errString(e.Err),
				Time:     time.Now(),
			})
		}
	case events.CohortEvent:
		if r, ok := sink.(coremetrics.CohortRecorder); ok {
			return r.RecordCohort(coremetrics.CohortRecord{
				Size:      e.Size,
				Succeeded: e.Succeeded,
				Failed:    e.Failed,
				Duration:  e.Duration,
				Time:      e.Time,
			})
		}
	case events.SweepEvent:
		if r, ok := sink.(coremetrics.SweepRecorder); ok {
			return r.RecordSweep(coremetrics.SweepRecord{
				Start:       e.Start,
				End:         e.End,
				CohortSizes: e.CohortSizes,
				Succeeded:   e.Succeeded,
				Failed:      e.Failed,
				Interrupted: e.Interrupted,
			})
		}
	}
	return nil
}
