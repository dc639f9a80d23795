package validator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adalundhe/vigil/core/config"
	"github.com/adalundhe/vigil/core/events"
	"github.com/adalundhe/vigil/core/issue"
)

// Fatal wiring errors. A missing required collaborator permanently
// blinds a whole dimension, so construction fails loudly instead of
// producing silently degraded cycles.
var (
	ErrMissingRegistry      = errors.New("validator requires an event registry")
	ErrMissingBus           = errors.New("validator requires an event bus")
	ErrNoOrchestrators      = errors.New("validator requires at least one orchestrator")
	ErrMissingMemoryChecker = errors.New("validator requires a memory consistency checker")
	ErrMissingAggregator    = errors.New("validator requires the health aggregator")
)

// Deps are the collaborators the validator observes.
type Deps struct {
	Registry      *events.Registry
	Bus           *events.Bus
	Orchestrators []Orchestrator
	Memory        ConsistencyChecker
	Aggregator    HealthChecker
	Checkers      []HealthChecker
	Logger        *slog.Logger
}

// Validator aggregates orchestrator liveness, event throughput, store
// consistency and health-subsystem status into one synchronization
// score and a typed issue list, recomputed fully every cycle.
type Validator struct {
	registry      *events.Registry
	bus           *events.Bus
	orchestrators []Orchestrator
	memory        ConsistencyChecker
	checkers      []HealthChecker
	logger        *slog.Logger

	cfgMu sync.RWMutex
	cfg   config.SyncConfig

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc

	last atomic.Pointer[SyncStatus]
}

func New(cfg config.SyncConfig, deps Deps) (*Validator, error) {
	if deps.Registry == nil {
		return nil, ErrMissingRegistry
	}
	if deps.Bus == nil {
		return nil, ErrMissingBus
	}
	if len(deps.Orchestrators) == 0 {
		return nil, ErrNoOrchestrators
	}
	if deps.Memory == nil {
		return nil, ErrMissingMemoryChecker
	}
	if deps.Aggregator == nil {
		return nil, ErrMissingAggregator
	}

	checkers := append([]HealthChecker{deps.Aggregator}, deps.Checkers...)

	return &Validator{
		registry:      deps.Registry,
		bus:           deps.Bus,
		orchestrators: deps.Orchestrators,
		memory:        deps.Memory,
		checkers:      checkers,
		logger:        deps.Logger,
		cfg:           cfg,
	}, nil
}

// UpdateConfig swaps thresholds and weights; the next cycle uses them.
func (v *Validator) UpdateConfig(cfg config.SyncConfig) {
	v.cfgMu.Lock()
	v.cfg = cfg
	v.cfgMu.Unlock()
}

// Start begins the periodic validation loop.
func (v *Validator) Start(ctx context.Context) {
	v.mu.Lock()
	if v.running {
		v.mu.Unlock()
		return
	}
	v.running = true
	cycleCtx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	v.mu.Unlock()

	go v.loop(cycleCtx)
}

// Stop cancels the ticker. A cycle already in flight runs to
// completion.
func (v *Validator) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.running {
		return
	}
	v.running = false
	if v.cancel != nil {
		v.cancel()
	}
}

// Active reports whether the periodic loop is running.
func (v *Validator) Active() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.running
}

func (v *Validator) loop(ctx context.Context) {
	v.cfgMu.RLock()
	interval := v.cfg.Interval
	v.cfgMu.RUnlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.RunCycle(ctx)
		}
	}
}

// LastStatus returns the most recent status, or nil before the first
// cycle.
func (v *Validator) LastStatus() *SyncStatus {
	return v.last.Load()
}

// IsSynchronized reports the latest cycle's verdict; false before the
// first cycle.
func (v *Validator) IsSynchronized() bool {
	status := v.last.Load()
	return status != nil && status.Synchronized
}

// RunCycle performs one validation pass and always produces a status.
func (v *Validator) RunCycle(ctx context.Context) SyncStatus {
	started := time.Now()

	v.cfgMu.RLock()
	cfg := v.cfg
	v.cfgMu.RUnlock()

	input := v.observe(ctx, cfg, started)
	issues := DetectIssues(input)

	dims := Dimensions{
		Orchestrators: orchestratorDimension(input.Orchestrators),
		Events:        boolDimension(input.EventSystem.Healthy),
		Memory:        memoryDimension(input.Memory),
		MemoryKnown:   input.Memory.Known,
		Health:        checkerDimension(input.Checkers),
	}
	score := ComputeScore(cfg.Weights, dims, issues, cfg.CriticalPenalty, cfg.HighPenalty)

	status := SyncStatus{
		Synchronized:  score >= cfg.SyncedScoreMin && !issue.HasCritical(issues),
		Score:         score,
		Timestamp:     started,
		Issues:        issues,
		Orchestrators: input.Orchestrators,
		EventSystem:   input.EventSystem,
		Memory:        input.Memory,
		HealthSystems: input.Checkers,
		Duration:      time.Since(started),
	}

	v.last.Store(&status)
	v.publish(status)

	v.logger.Debug("sync cycle complete",
		"score", status.Score,
		"synchronized", status.Synchronized,
		"issues", len(status.Issues),
	)

	return status
}

func (v *Validator) observe(ctx context.Context, cfg config.SyncConfig, now time.Time) CycleInput {
	input := CycleInput{
		OverallScoreMin: cfg.OverallScoreMin,
	}

	for _, orch := range v.orchestrators {
		status, failed := v.deriveOrchestrator(ctx, orch, now)
		input.Orchestrators = append(input.Orchestrators, status)
		if failed {
			input.FailedSources = append(input.FailedSources, orch.Name)
		}
	}

	input.EventSystem = v.observeEventSystem(cfg)
	input.Memory = v.observeMemory(ctx)
	input.Checkers = v.observeCheckers()

	if score, ok := v.checkers[0].LastScore(); ok {
		input.AggregatorKnown = true
		input.AggregatorScore = score
	}

	return input
}

func (v *Validator) deriveOrchestrator(ctx context.Context, orch Orchestrator, now time.Time) (OrchestratorStatus, bool) {
	status := OrchestratorStatus{
		Name:    orch.Name,
		Active:  v.registry.AnyActive(orch.Kinds, now),
		Healthy: true,
	}

	for _, kind := range orch.Kinds {
		status.EventCount += v.registry.Count(kind)
		if seen, ok := v.registry.LastSeen(kind); ok && seen.After(status.LastActivity) {
			status.LastActivity = seen
		}
	}

	if orch.Source == nil {
		return status, false
	}

	report, err := orch.Source.Status(ctx)
	if err != nil {
		// Never fabricate an unhealthy verdict from a failed call; the
		// failure surfaces as its own collector issue instead.
		v.logger.Warn("orchestrator status source failed",
			"orchestrator", orch.Name,
			"error", err,
		)
		return status, true
	}

	status.Healthy = report.Healthy
	status.ResponseTimeMS = report.ResponseTimeMS
	status.ErrorCount = report.ErrorCount
	return status, false
}

func (v *Validator) observeEventSystem(cfg config.SyncConfig) EventSystemHealth {
	recent := v.registry.TotalRecent()
	return EventSystemHealth{
		Healthy:         recent < cfg.EventOverloadCeiling,
		RecentEvents:    recent,
		OverloadCeiling: cfg.EventOverloadCeiling,
		DroppedEvents:   v.bus.Dropped(),
		PendingEvents:   v.bus.Pending(),
	}
}

func (v *Validator) observeMemory(ctx context.Context) MemoryConsistency {
	report, err := v.memory.CheckConsistency(ctx)
	if err != nil {
		v.logger.Warn("memory consistency check failed", "error", err)
		return MemoryConsistency{Known: false}
	}

	return MemoryConsistency{
		Known:      true,
		Orphaned:   report.Orphaned,
		Duplicates: report.Duplicates,
		Corrupted:  report.Corrupted,
		Consistent: report.Consistent(),
	}
}

func (v *Validator) observeCheckers() []CheckerStatus {
	statuses := make([]CheckerStatus, 0, len(v.checkers))
	for _, checker := range v.checkers {
		status := CheckerStatus{
			Name:   checker.Name(),
			Active: checker.Active(),
		}
		if score, ok := checker.LastScore(); ok {
			status.LastScore = score
			status.HasScore = true
		}
		statuses = append(statuses, status)
	}
	return statuses
}

func (v *Validator) publish(status SyncStatus) {
	event := events.NewEvent(events.KindSyncCycleComplete, "sync-validator")
	event.Cycle = &events.CyclePayload{
		Score:      status.Score,
		IssueCount: len(status.Issues),
		Duration:   status.Duration,
	}
	v.bus.Publish(event)

	if !issue.HasCritical(status.Issues) {
		return
	}

	critical := events.NewEvent(events.KindCriticalIssues, "sync-validator")
	critical.Critical = &events.CriticalPayload{Issues: status.Issues}
	v.bus.Publish(critical)
}
