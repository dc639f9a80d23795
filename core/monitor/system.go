// Package monitor wires the observability subsystem together:
// event bus and registry, metrics aggregator, synchronization
// validator, recovery orchestrator and the optional archive sink.
// Everything is constructed explicitly at process start and injected;
// there is no ambient global state.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/adalundhe/vigil/core/archive"
	"github.com/adalundhe/vigil/core/config"
	"github.com/adalundhe/vigil/core/events"
	"github.com/adalundhe/vigil/core/health"
	"github.com/adalundhe/vigil/core/recovery"
	"github.com/adalundhe/vigil/core/report"
	"github.com/adalundhe/vigil/core/validator"
)

// Options carries the collaborator handles the subsystem observes and
// acts on. Required collaborators are validated by the component
// constructors; a missing one fails construction rather than running
// permanently blind.
type Options struct {
	Config        *config.Config
	Sources       health.Sources
	Orchestrators []validator.Orchestrator
	Memory        validator.ConsistencyChecker
	Remediator    recovery.Remediator
	ExtraCheckers []validator.HealthChecker
	Logger        *slog.Logger
}

// System owns the constructed components and their shared lifecycle:
// construct once, Start, Stop at process exit.
type System struct {
	Bus        *events.Bus
	Registry   *events.Registry
	Aggregator *health.Aggregator
	Validator  *validator.Validator
	Recovery   *recovery.Orchestrator
	Archive    *archive.Sink

	logger  *slog.Logger
	mu      sync.Mutex
	started bool
}

func New(opts Options) (*System, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	bus := events.NewBus(cfg.Bus.BufferSize)
	registry := events.NewRegistry(cfg.Sync.ActivityWindow)
	events.SubscribeRegistry(bus, registry)

	aggregator, err := health.NewAggregator(opts.Sources, cfg.Health, bus, logger)
	if err != nil {
		return nil, fmt.Errorf("health aggregator: %w", err)
	}

	val, err := validator.New(cfg.Sync, validator.Deps{
		Registry:      registry,
		Bus:           bus,
		Orchestrators: opts.Orchestrators,
		Memory:        opts.Memory,
		Aggregator:    &aggregatorChecker{aggregator: aggregator},
		Checkers:      opts.ExtraCheckers,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("sync validator: %w", err)
	}

	rec, err := recovery.New(opts.Remediator, cfg.Recovery, bus, logger)
	if err != nil {
		return nil, fmt.Errorf("recovery orchestrator: %w", err)
	}
	recovery.SubscribeCritical(bus, rec)

	system := &System{
		Bus:        bus,
		Registry:   registry,
		Aggregator: aggregator,
		Validator:  val,
		Recovery:   rec,
		logger:     logger,
	}

	if cfg.Archive.Enabled {
		sink, err := archive.Open(cfg.Archive.Path, logger)
		if err != nil {
			// The sink is an optional external concern; the core keeps
			// monitoring without it.
			logger.Warn("archive unavailable, continuing without persistence",
				"path", cfg.Archive.Path,
				"error", err,
			)
		} else {
			archive.SubscribeSink(bus, sink)
			system.Archive = sink
		}
	}

	return system, nil
}

// Start launches bus dispatch and both periodic loops.
func (s *System) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	s.Bus.Start()
	s.Aggregator.Start(ctx)
	s.Validator.Start(ctx)

	s.logger.Info("observability subsystem started")
}

// Stop halts the periodic loops, then the bus, then the archive.
// In-flight cycles run to completion.
func (s *System) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	s.Aggregator.Stop()
	s.Validator.Stop()
	s.Bus.Close()

	if s.Archive != nil {
		if err := s.Archive.Close(); err != nil {
			s.logger.Warn("archive close failed", "error", err)
		}
	}

	s.logger.Info("observability subsystem stopped")
}

// Report renders the current state as plain text.
func (s *System) Report() string {
	inputs := report.Inputs{
		Snapshot: s.Aggregator.LastSnapshot(),
		Status:   s.Validator.LastStatus(),
	}
	if result, ok := s.Recovery.LastResult(); ok {
		inputs.Recovery = &result
	}
	return report.Render(inputs)
}

// aggregatorChecker exposes the aggregator under the health-checker
// contract the validator watches.
type aggregatorChecker struct {
	aggregator *health.Aggregator
}

func (c *aggregatorChecker) Name() string {
	return "MetricsAggregator"
}

func (c *aggregatorChecker) Active() bool {
	return c.aggregator.Active()
}

func (c *aggregatorChecker) LastScore() (float64, bool) {
	return c.aggregator.LastScore()
}
