package health

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adalundhe/vigil/core/config"
	"github.com/adalundhe/vigil/core/events"
)

// Collector names as they appear in issues and reports.
const (
	CollectorAgentPool = "AgentPool"
	CollectorProactive = "ProactiveSystem"
	CollectorRules     = "RuleEngine"
	CollectorSelfTest  = "SelfTest"
	CollectorVersion   = "VersionCheck"
)

// ErrNoSources indicates the aggregator was constructed with no
// collaborator sources at all. With nothing to sample, every score
// would be unknown forever; this is a wiring mistake surfaced once at
// startup rather than silently degraded cycles.
var ErrNoSources = errors.New("health aggregator requires at least one source")

// Aggregator periodically samples collaborator subsystems and computes
// a weighted overall health score plus per-dimension issue detection.
// A failed collector never aborts a cycle: its dimension is reported
// as unknown and the cycle completes with a snapshot regardless.
type Aggregator struct {
	sources Sources
	bus     *events.Bus
	logger  *slog.Logger

	cfgMu      sync.RWMutex
	scorer     *Scorer
	thresholds config.HealthThresholds
	interval   time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc

	last atomic.Pointer[HealthSnapshot]
}

func NewAggregator(sources Sources, cfg config.HealthConfig, bus *events.Bus, logger *slog.Logger) (*Aggregator, error) {
	if sources.AgentPool == nil && sources.Proactive == nil && sources.Rules == nil &&
		sources.SelfTest == nil && sources.Version == nil {
		return nil, ErrNoSources
	}

	return &Aggregator{
		sources:    sources,
		bus:        bus,
		logger:     logger,
		scorer:     NewScorer(cfg),
		thresholds: cfg.Thresholds,
		interval:   cfg.Interval,
	}, nil
}

// UpdateConfig swaps scoring parameters; the next cycle uses them.
// The ticker interval is fixed at Start time.
func (a *Aggregator) UpdateConfig(cfg config.HealthConfig) {
	a.cfgMu.Lock()
	a.scorer = NewScorer(cfg)
	a.thresholds = cfg.Thresholds
	a.cfgMu.Unlock()
}

// Start begins the periodic aggregation loop.
func (a *Aggregator) Start(ctx context.Context) {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return
	}
	a.running = true
	cycleCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.mu.Unlock()

	go a.loop(cycleCtx)
}

// Stop cancels the ticker. A cycle already in flight runs to
// completion.
func (a *Aggregator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return
	}
	a.running = false
	if a.cancel != nil {
		a.cancel()
	}
}

// Active reports whether the periodic loop is running.
func (a *Aggregator) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

func (a *Aggregator) loop(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.RunCycle(ctx)
		}
	}
}

// LastSnapshot returns the most recent snapshot, or nil before the
// first cycle.
func (a *Aggregator) LastSnapshot() *HealthSnapshot {
	return a.last.Load()
}

// LastScore returns the last overall score if one is known.
func (a *Aggregator) LastScore() (float64, bool) {
	snapshot := a.last.Load()
	if snapshot == nil || !snapshot.Overall.Known {
		return 0, false
	}
	return snapshot.Overall.Value, true
}

// RunCycle performs one aggregation pass. It always completes and
// always produces a snapshot.
func (a *Aggregator) RunCycle(ctx context.Context) HealthSnapshot {
	started := time.Now()

	a.cfgMu.RLock()
	scorer := a.scorer
	thresholds := a.thresholds
	a.cfgMu.RUnlock()

	metrics := a.collect(ctx, scorer)
	issues := DetectIssues(metrics, thresholds)

	overall := scorer.Overall(metrics.Agents, metrics.Proactive, metrics.Rules, metrics.SelfTest)

	snapshot := HealthSnapshot{
		Timestamp: started,
		Overall:   overall,
		Agents:    metrics.Agents,
		Proactive: metrics.Proactive,
		Rules:     metrics.Rules,
		SelfTest:  metrics.SelfTest,
		Version:   metrics.Version,
		PerAgent:  metrics.PerAgent,
		Issues:    issues,
		Duration:  time.Since(started),
	}

	a.last.Store(&snapshot)
	a.publishCycleComplete(snapshot)

	a.logger.Debug("health cycle complete",
		"overall_known", snapshot.Overall.Known,
		"overall", snapshot.Overall.Value,
		"issues", len(issues),
		"degraded", snapshot.Degraded(),
	)

	return snapshot
}

func (a *Aggregator) collect(ctx context.Context, scorer *Scorer) CycleMetrics {
	metrics := CycleMetrics{
		Agents:    Unknown(),
		Proactive: Unknown(),
		Rules:     Unknown(),
		SelfTest:  Unknown(),
		Version:   Unknown(),
	}

	a.collectAgents(ctx, scorer, &metrics)
	a.collectProactive(ctx, scorer, &metrics)
	a.collectRules(ctx, scorer, &metrics)
	a.collectSelfTests(ctx, scorer, &metrics)
	a.collectVersion(ctx, scorer, &metrics)

	return metrics
}

func (a *Aggregator) collectAgents(ctx context.Context, scorer *Scorer, metrics *CycleMetrics) {
	if a.sources.AgentPool == nil {
		a.markFailed(metrics, CollectorAgentPool, nil)
		return
	}

	agentMetrics, err := a.sources.AgentPool.AgentMetrics(ctx)
	if err != nil {
		a.markFailed(metrics, CollectorAgentPool, err)
		return
	}

	score, perAgent := scorer.AgentPoolScore(agentMetrics)
	metrics.Agents = score
	metrics.PerAgent = perAgent
}

func (a *Aggregator) collectProactive(ctx context.Context, scorer *Scorer, metrics *CycleMetrics) {
	if a.sources.Proactive == nil {
		a.markFailed(metrics, CollectorProactive, nil)
		return
	}

	stats, err := a.sources.Proactive.ActivationStats(ctx)
	if err != nil {
		a.markFailed(metrics, CollectorProactive, err)
		return
	}

	metrics.Proactive = scorer.ProactiveScore(stats)
}

func (a *Aggregator) collectRules(ctx context.Context, scorer *Scorer, metrics *CycleMetrics) {
	if a.sources.Rules == nil {
		a.markFailed(metrics, CollectorRules, nil)
		return
	}

	stats, err := a.sources.Rules.RuleStats(ctx)
	if err != nil {
		a.markFailed(metrics, CollectorRules, err)
		return
	}

	metrics.Rules = scorer.RuleScore(stats)
}

func (a *Aggregator) collectSelfTests(ctx context.Context, scorer *Scorer, metrics *CycleMetrics) {
	if a.sources.SelfTest == nil {
		a.markFailed(metrics, CollectorSelfTest, nil)
		return
	}

	report, err := a.sources.SelfTest.RunSelfTests(ctx)
	if err != nil {
		a.markFailed(metrics, CollectorSelfTest, err)
		return
	}

	metrics.SelfTest = scorer.SelfTestScore(report)
	metrics.SelfTestFailed = report.Failed
}

func (a *Aggregator) collectVersion(ctx context.Context, scorer *Scorer, metrics *CycleMetrics) {
	if a.sources.Version == nil {
		a.markFailed(metrics, CollectorVersion, nil)
		return
	}

	report, err := a.sources.Version.CheckVersions(ctx)
	if err != nil {
		a.markFailed(metrics, CollectorVersion, err)
		return
	}

	metrics.Version = scorer.VersionScore(report)
	metrics.VersionDetails = report.Details
}

func (a *Aggregator) markFailed(metrics *CycleMetrics, collector string, err error) {
	metrics.FailedCollectors = append(metrics.FailedCollectors, collector)
	if err != nil {
		a.logger.Warn("collector failed, reporting dimension as unknown",
			"collector", collector,
			"error", err,
		)
	}
}

func (a *Aggregator) publishCycleComplete(snapshot HealthSnapshot) {
	if a.bus == nil {
		return
	}

	event := events.NewEvent(events.KindHealthCycleComplete, "health-aggregator")
	event.Cycle = &events.CyclePayload{
		Score:      snapshot.Overall.Value,
		IssueCount: len(snapshot.Issues),
		Duration:   snapshot.Duration,
	}
	a.bus.Publish(event)
}
