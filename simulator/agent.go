package simulator

import (
	"context"
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/kilianp07/cpsim/core/channel"
	"github.com/kilianp07/cpsim/core/events"
	"github.com/kilianp07/cpsim/core/model"
	"github.com/kilianp07/cpsim/infra/logger"
	"github.com/kilianp07/cpsim/internal/eventbus"
)

// Agent owns one charge point: its identity, its channel handle and the
// session currently running.
type Agent struct {
	Identity model.Identity
	// Cohort is the size of the cohort the agent belongs to, for events.
	Cohort int

	cfg       Config
	connector channel.Connector
	rng       *rand.Rand
	bus       eventbus.EventBus
	log       logger.Logger
	completed int
}

// AgentOption customises an Agent.
type AgentOption func(*Agent)

// WithAgentBus publishes agent and session events on bus.
func WithAgentBus(bus eventbus.EventBus) AgentOption {
	return func(a *Agent) { a.bus = bus }
}

// WithAgentLogger overrides the agent logger.
func WithAgentLogger(l logger.Logger) AgentOption {
	return func(a *Agent) { a.log = l }
}

// NewAgent creates an agent for id.
func NewAgent(id model.Identity, cfg Config, connector channel.Connector, opts ...AgentOption) *Agent {
	a := &Agent{
		Identity:  id,
		cfg:       cfg,
		connector: connector,
		rng:       rand.New(rand.NewSource(agentSeed(cfg.Seed, id.Tag))),
		bus:       eventbus.NopBus{},
		log:       logger.NopLogger{},
	}
	for _, o := range opts {
		o(a)
	}
	a.log = a.log.With("tag", id.Tag)
	return a
}

func agentSeed(seed int64, tag string) int64 {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(tag))
	return seed ^ int64(h.Sum64())
}

// Completed returns how many sessions reached Completed.
func (a *Agent) Completed() int { return a.completed }

// Run connects, drives the configured number of sessions one after the other
// and disconnects. It fails with an error wrapping channel.ErrConnection when
// the initial connect fails, or with the context error when cancelled.
func (a *Agent) Run(ctx context.Context) (err error) {
	start := time.Now()
	defer func() {
		a.bus.Publish(events.AgentEvent{
			Tag:      a.Identity.Tag,
			Cohort:   a.Cohort,
			Sessions: a.completed,
			Duration: time.Since(start),
			Err:      err,
		})
	}()

	h, err := a.connector.Connect(ctx, a.Identity)
	if err != nil {
		a.log.Errorf("connect: %v", err)
		return err
	}
	defer h.Disconnect()

	for seq := 0; seq < a.cfg.Sessions; seq++ {
		s := newSession(seq, a.Identity, h, a.cfg, a.rng, a.bus, a.log)
		if err := s.Run(ctx); err != nil {
			a.log.Warnf("stopped after %d sessions: %v", a.completed, err)
			return err
		}
		a.completed++
		a.log.Debugf("session %d completed with %d samples", seq, s.Samples())
	}
	a.log.Infof("%d sessions completed", a.completed)
	return nil
}
