package simulator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/kilianp07/cpsim/core/channel"
	"github.com/kilianp07/cpsim/core/checkpoint"
	"github.com/kilianp07/cpsim/core/events"
	"github.com/kilianp07/cpsim/core/model"
	"github.com/kilianp07/cpsim/core/monitoring"
	"github.com/kilianp07/cpsim/infra/logger"
	"github.com/kilianp07/cpsim/internal/eventbus"
)

// AgentResult is the outcome of one agent run.
type AgentResult struct {
	Tag      string
	Sessions int
	Duration time.Duration
	Err      error
}

// CohortReport groups the agent results of one cohort.
type CohortReport struct {
	Size     int
	Agents   []AgentResult
	Duration time.Duration
}

// Succeeded counts agents that finished without error.
func (c CohortReport) Succeeded() int {
	n := 0
	for _, a := range c.Agents {
		if a.Err == nil {
			n++
		}
	}
	return n
}

// Failed counts agents that returned an error.
func (c CohortReport) Failed() int { return len(c.Agents) - c.Succeeded() }

// Summary converts the report into its checkpoint form.
func (c CohortReport) Summary() checkpoint.CohortSummary {
	return checkpoint.CohortSummary{
		Size:            c.Size,
		Succeeded:       c.Succeeded(),
		Failed:          c.Failed(),
		DurationSeconds: c.Duration.Seconds(),
	}
}

// Result is returned by Runner.Run.
type Result struct {
	Checkpoint checkpoint.Checkpoint
	Cohorts    []CohortReport
}

// Runner executes the cohort sweep over a device directory.
type Runner struct {
	cfg       Config
	devices   []model.Device
	connector channel.Connector
	store     checkpoint.Store
	bus       eventbus.EventBus
	log       logger.Logger
}

// RunnerOption customises a Runner.
type RunnerOption func(*Runner)

// WithBus publishes simulation events on bus.
func WithBus(bus eventbus.EventBus) RunnerOption {
	return func(r *Runner) { r.bus = bus }
}

// WithLogger overrides the runner logger.
func WithLogger(l logger.Logger) RunnerOption {
	return func(r *Runner) { r.log = l }
}

// NewRunner creates a Runner. A nil store discards the checkpoint.
func NewRunner(cfg Config, devices []model.Device, connector channel.Connector, store checkpoint.Store, opts ...RunnerOption) *Runner {
	if store == nil {
		store = checkpoint.NopStore{}
	}
	r := &Runner{
		cfg:       cfg,
		devices:   devices,
		connector: connector,
		store:     store,
		bus:       eventbus.NopBus{},
		log:       logger.NopLogger{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// SelectCohort returns the first n devices in directory order.
func SelectCohort(devices []model.Device, n int) []model.Device {
	if n > len(devices) {
		n = len(devices)
	}
	if n < 0 {
		n = 0
	}
	out := make([]model.Device, n)
	copy(out, devices[:n])
	return out
}

// Validate checks that the sweep can run. Errors wrap ErrConfiguration.
func (r *Runner) Validate() error {
	if err := r.cfg.Validate(); err != nil {
		return err
	}
	if r.connector == nil {
		return fmt.Errorf("%w: no publish channel", ErrConfiguration)
	}
	if len(r.devices) == 0 {
		return fmt.Errorf("%w: device directory is empty", ErrConfiguration)
	}
	for _, n := range r.cfg.CohortSizes {
		if n > len(r.devices) {
			return fmt.Errorf("%w: cohort size %d exceeds %d devices", ErrConfiguration, n, len(r.devices))
		}
	}
	seen := make(map[string]struct{}, len(r.devices))
	for _, d := range r.devices {
		key := d.Key()
		if key == "" {
			return fmt.Errorf("%w: device without id", ErrConfiguration)
		}
		if _, ok := seen[key]; ok {
			return fmt.Errorf("%w: duplicate device id %q", ErrConfiguration, key)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Run validates the sweep, runs every cohort in order and persists the
// checkpoint once. On cancellation no further cohort starts, the checkpoint
// is saved as interrupted and the context error is returned along with the
// partial result.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	cp := checkpoint.New(time.Now())
	res := &Result{}
	r.log.Infof("sweep started: cohorts %v over %d devices", r.cfg.CohortSizes, len(r.devices))

	for _, size := range r.cfg.CohortSizes {
		if ctx.Err() != nil {
			break
		}
		report := r.runCohort(ctx, size)
		res.Cohorts = append(res.Cohorts, report)
		cp.AddCohort(report.Summary())
		r.bus.Publish(events.CohortEvent{
			Size:      size,
			Succeeded: report.Succeeded(),
			Failed:    report.Failed(),
			Duration:  report.Duration,
			Time:      time.Now(),
		})
		r.log.Infof("cohort %d settled in %s: %d succeeded, %d failed",
			size, report.Duration.Round(time.Millisecond), report.Succeeded(), report.Failed())
	}

	runErr := ctx.Err()
	cp.Interrupted = runErr != nil
	cp.Finish(time.Now())
	res.Checkpoint = *cp

	r.bus.Publish(events.SweepEvent{
		Start:       cp.Start,
		End:         cp.End,
		CohortSizes: append([]int(nil), cp.CohortSizes...),
		Succeeded:   cp.Succeeded,
		Failed:      cp.Failed,
		Interrupted: cp.Interrupted,
	})

	if err := r.store.Save(context.WithoutCancel(ctx), *cp); err != nil {
		r.log.Errorf("persist checkpoint: %v", err)
		return res, errors.Join(runErr, fmt.Errorf("persist checkpoint: %w", err))
	}
	if runErr != nil {
		r.log.Warnf("sweep interrupted after cohorts %v", cp.CohortSizes)
		return res, runErr
	}
	r.log.Infof("sweep finished in %s: %d succeeded, %d failed",
		cp.Duration().Round(time.Millisecond), cp.Succeeded, cp.Failed)
	return res, nil
}

func (r *Runner) runCohort(ctx context.Context, size int) CohortReport {
	devices := SelectCohort(r.devices, size)
	report := CohortReport{Size: size, Agents: make([]AgentResult, len(devices))}
	start := time.Now()

	var wg sync.WaitGroup
	for i, d := range devices {
		agent := NewAgent(d.Identity(), r.cfg, r.connector,
			WithAgentBus(r.bus), WithAgentLogger(r.log))
		agent.Cohort = size
		wg.Add(1)
		go func(i int, a *Agent) {
			defer wg.Done()
			defer monitoring.Recover()
			began := time.Now()
			err := a.Run(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				monitoring.CaptureException(err, map[string]string{
					"tag":    a.Identity.Tag,
					"cohort": strconv.Itoa(size),
				})
			}
			report.Agents[i] = AgentResult{
				Tag:      a.Identity.Tag,
				Sessions: a.Completed(),
				Duration: time.Since(began),
				Err:      err,
			}
		}(i, agent)
	}
	wg.Wait()
	report.Duration = time.Since(start)
	return report
}
