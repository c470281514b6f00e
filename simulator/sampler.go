package simulator

import (
	"context"
	"math/rand"
	"time"

	"github.com/kilianp07/cpsim/core/monitoring"
)

// Sampler emits state-of-charge samples for one session's Charging phase.
// It samples once on start and then on every interval tick strictly before
// the deadline. Cancelling its context is the only way to stop it early.
type Sampler struct {
	interval time.Duration
	deadline time.Time
	rng      *rand.Rand
	emit     func(soc int)
	samples  int
}

// NewSampler builds a sampler. emit is invoked from the sampler goroutine.
func NewSampler(interval time.Duration, deadline time.Time, rng *rand.Rand, emit func(soc int)) *Sampler {
	return &Sampler{interval: interval, deadline: deadline, rng: rng, emit: emit}
}

// Start launches the sampling loop. The returned channel is closed once the
// loop has returned and no further sample can be emitted.
func (s *Sampler) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer monitoring.Recover()
		s.run(ctx)
	}()
	return done
}

// Samples returns how many samples were emitted. Read it only after the
// channel returned by Start is closed.
func (s *Sampler) Samples() int { return s.samples }

func (s *Sampler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.sample()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			// cancellation wins over a tick that raced with it
			if ctx.Err() != nil || !t.Before(s.deadline) {
				return
			}
			s.sample()
		}
	}
}

func (s *Sampler) sample() {
	s.samples++
	s.emit(s.rng.Intn(101))
}
