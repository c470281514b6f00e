package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/cpsim/config"
	"github.com/kilianp07/cpsim/core/channel"
	"github.com/kilianp07/cpsim/core/checkpoint"
	"github.com/kilianp07/cpsim/core/devices"
	coremetrics "github.com/kilianp07/cpsim/core/metrics"
	"github.com/kilianp07/cpsim/core/model"
	coremon "github.com/kilianp07/cpsim/core/monitoring"
	"github.com/kilianp07/cpsim/infra/logger"
	"github.com/kilianp07/cpsim/infra/metrics"
	"github.com/kilianp07/cpsim/infra/monitoring"
	"github.com/kilianp07/cpsim/infra/mqtt"
	"github.com/kilianp07/cpsim/internal/eventbus"
	"github.com/kilianp07/cpsim/simulator"
)

// Service wires the simulator to its channel, stores and metrics.
type Service struct {
	Runner *simulator.Runner

	cfg       *config.Config
	connector channel.Connector
	devices   []model.Device
	store     checkpoint.Store
	sink      coremetrics.MetricsSink
	latency   *metrics.LatencyTracker
	bus       *eventbus.Bus
	log       logger.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithConnector replaces the MQTT channel, e.g. with a MockChannel for dry runs.
func WithConnector(c channel.Connector) Option {
	return func(s *Service) { s.connector = c }
}

// WithDevices bypasses loading the device directory file.
func WithDevices(devs []model.Device) Option {
	return func(s *Service) { s.devices = devs }
}

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	s := &Service{cfg: cfg, bus: eventbus.New(), log: logger.New("service")}
	for _, o := range opts {
		o(s)
	}

	if s.devices == nil {
		devs, err := devices.Load(cfg.Devices.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: load devices: %w", simulator.ErrConfiguration, err)
		}
		s.devices = devs
	}

	mon, err := monitoring.NewSentryMonitor(cfg.Monitoring)
	if err != nil {
		return nil, fmt.Errorf("monitoring: %w", err)
	}
	coremon.Init(mon)

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	s.sink = sink
	s.latency = metrics.NewLatencyTracker(sink)

	if s.connector == nil {
		conn, err := mqtt.NewConnector(cfg.MQTT,
			mqtt.WithObserver(func(r mqtt.PublishResult) {
				s.latency.Observe(r.Tag, r.Topic, r.Latency, r.Err)
			}),
			mqtt.WithLogger(logger.New("mqtt_channel")),
		)
		if err != nil {
			s.closeSink()
			return nil, fmt.Errorf("mqtt connector: %w", err)
		}
		s.connector = conn
	}

	store, err := openStore(cfg.Checkpoint)
	if err != nil {
		s.closeSink()
		return nil, err
	}
	s.store = store

	s.Runner = simulator.NewRunner(cfg.Simulation, s.devices, s.connector, s.store,
		simulator.WithBus(s.bus),
		simulator.WithLogger(logger.New("simulator")),
	)
	return s, nil
}

func openStore(cfg config.CheckpointConfig) (checkpoint.Store, error) {
	file := checkpoint.NewFileStore(cfg.Path)
	if cfg.HistoryDB == "" {
		return file, nil
	}
	history, err := checkpoint.NewSQLiteStore(cfg.HistoryDB)
	if err != nil {
		return nil, fmt.Errorf("checkpoint history: %w", err)
	}
	return checkpoint.NewMultiStore(file, history), nil
}

// Devices returns the loaded device directory.
func (s *Service) Devices() []model.Device { return s.devices }

// Latency returns the publish latency distribution observed so far.
func (s *Service) Latency() metrics.LatencySummary { return s.latency.Summary() }

// Run executes one sweep. Metrics are collected until every simulation event
// has been recorded, even when ctx is cancelled.
func (s *Service) Run(ctx context.Context) (*simulator.Result, error) {
	collected := metrics.StartEventCollector(context.WithoutCancel(ctx), s.bus, s.sink)

	if s.cfg.Metrics.HasSink("prometheus") {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr, nil); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	res, err := s.Runner.Run(ctx)
	s.bus.Close()
	<-collected
	if dropped := s.bus.Dropped(); dropped > 0 {
		s.log.Warnf("%d simulation events dropped by slow subscribers", dropped)
	}
	return res, err
}

// Close releases the stores and flushes the metrics sinks.
func (s *Service) Close() error {
	var errs []error
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	errs = append(errs, s.closeSink())
	coremon.Flush(2 * time.Second)
	return errors.Join(errs...)
}

func (s *Service) closeSink() error {
	if c, ok := s.sink.(coremetrics.Closer); ok {
		return c.Close()
	}
	return nil
}
