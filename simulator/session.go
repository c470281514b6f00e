package simulator

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/kilianp07/cpsim/core/channel"
	"github.com/kilianp07/cpsim/core/events"
	"github.com/kilianp07/cpsim/core/model"
	"github.com/kilianp07/cpsim/core/ocpp"
	"github.com/kilianp07/cpsim/infra/logger"
	"github.com/kilianp07/cpsim/internal/eventbus"
)

// Synthetic meter readings. Session seq starts at meterBase+seq*meterDelta and
// stops meterDelta later.
const (
	meterBase  int64 = 2656119
	meterDelta int64 = 154423
)

// MeterReadings returns the deterministic meter start and stop of session seq.
func MeterReadings(seq int) (start, stop int64) {
	start = meterBase + int64(seq)*meterDelta
	return start, start + meterDelta
}

// Session is one authorize, charge, stop cycle of a charge point. A Session
// runs once; a new one is built for every session index.
type Session struct {
	Seq        int
	MeterStart int64
	MeterStop  int64
	StartedAt  time.Time
	StoppedAt  time.Time

	phase   atomic.Int32
	samples int
	id      model.Identity
	handle  channel.Handle
	cfg     Config
	rng     *rand.Rand
	bus     eventbus.EventBus
	log     logger.Logger
}

func newSession(seq int, id model.Identity, h channel.Handle, cfg Config, rng *rand.Rand, bus eventbus.EventBus, log logger.Logger) *Session {
	start, stop := MeterReadings(seq)
	return &Session{
		Seq:        seq,
		MeterStart: start,
		MeterStop:  stop,
		id:         id,
		handle:     h,
		cfg:        cfg,
		rng:        rng,
		bus:        bus,
		log:        log,
	}
}

// Phase returns the current phase.
func (s *Session) Phase() model.Phase { return model.Phase(s.phase.Load()) }

// Samples returns the number of MeterValues emitted while charging.
func (s *Session) Samples() int { return s.samples }

// Run drives the session to Completed. Publish failures are logged and do
// not stop the session. If ctx is cancelled the session is abandoned where it
// is and the context error is returned.
func (s *Session) Run(ctx context.Context) error {
	if s.Phase() != model.PhaseIdle {
		return fmt.Errorf("session %d already started", s.Seq)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.advance()
	s.send(ctx, model.MessageAuthorize, ocpp.AuthorizeRequest{IdTag: s.id.Tag})
	if err := ctx.Err(); err != nil {
		return err
	}

	s.StartedAt = time.Now().UTC()
	deadline := s.StartedAt.Add(s.cfg.ChargingDuration())
	s.advance()
	s.send(ctx, model.MessageStartTransaction, ocpp.StartTransactionRequest{
		ConnectorID: s.cfg.ConnectorID,
		IdTag:       s.id.Tag,
		MeterStart:  s.MeterStart,
		Timestamp:   ocpp.FormatTimestamp(s.StartedAt),
	})

	samplerCtx, stopSampler := context.WithCancel(ctx)
	defer stopSampler()
	sampler := NewSampler(s.cfg.SampleInterval(), deadline, s.rng, func(soc int) {
		s.send(ctx, model.MessageMeterValues, ocpp.NewSoCSample(s.cfg.ConnectorID, soc))
	})
	sampling := sampler.Start(samplerCtx)

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		stopSampler()
		<-sampling
		s.samples = sampler.Samples()
		s.log.Debugf("session %d abandoned in %s", s.Seq, s.Phase())
		return ctx.Err()
	}

	// The sampler is fully stopped before Stopping is entered, so no sample
	// can follow the StopTransaction.
	stopSampler()
	<-sampling
	s.samples = sampler.Samples()

	s.advance()
	s.StoppedAt = time.Now().UTC()
	s.send(ctx, model.MessageStopTransaction, ocpp.StopTransactionRequest{
		Reason:        s.cfg.StopReason,
		TransactionID: s.Seq,
		MeterStop:     s.MeterStop,
		Timestamp:     ocpp.FormatTimestamp(s.StoppedAt),
	})
	s.advance()
	return nil
}

func (s *Session) advance() {
	next := s.Phase().Next()
	s.phase.Store(int32(next))
	s.bus.Publish(events.SessionEvent{Tag: s.id.Tag, Seq: s.Seq, Phase: next, Time: time.Now()})
}

func (s *Session) send(ctx context.Context, typ model.MessageType, payload any) {
	err := s.publish(ctx, typ, payload)
	if err != nil {
		s.log.Warnf("%s session %d: %v", typ, s.Seq, err)
	}
	s.bus.Publish(events.MessageEvent{Tag: s.id.Tag, Seq: s.Seq, Type: typ, Err: err, Time: time.Now()})
}

func (s *Session) publish(ctx context.Context, typ model.MessageType, payload any) error {
	frame, err := ocpp.NewCall(typ, payload)
	if err != nil {
		return err
	}
	data, err := frame.Encode(s.cfg.Wrap())
	if err != nil {
		return err
	}
	s.log.Debugw("publish", map[string]any{"type": string(typ), "seq": s.Seq, "frame": string(data)})
	return s.handle.Publish(ctx, data)
}
