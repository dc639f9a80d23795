package validator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/adalundhe/vigil/core/config"
	"github.com/adalundhe/vigil/core/events"
	"github.com/adalundhe/vigil/core/issue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	name   string
	active bool
	score  float64
	known  bool
}

func (s *stubChecker) Name() string { return s.name }
func (s *stubChecker) Active() bool { return s.active }
func (s *stubChecker) LastScore() (float64, bool) {
	return s.score, s.known
}

type stubMemory struct {
	report ConsistencyReport
	err    error
}

func (s *stubMemory) CheckConsistency(ctx context.Context) (ConsistencyReport, error) {
	return s.report, s.err
}

type stubStatusSource struct {
	report OrchestratorReport
	err    error
}

func (s *stubStatusSource) Status(ctx context.Context) (OrchestratorReport, error) {
	return s.report, s.err
}

type harness struct {
	bus       *events.Bus
	registry  *events.Registry
	memory    *stubMemory
	checker   *stubChecker
	validator *Validator
}

func newHarness(t *testing.T, orchestrators []Orchestrator) *harness {
	t.Helper()

	bus := events.NewBus(100)
	registry := events.NewRegistry(time.Minute)
	memory := &stubMemory{}
	checker := &stubChecker{name: "MetricsAggregator", active: true, score: 95, known: true}

	v, err := New(config.DefaultConfig().Sync, Deps{
		Registry:      registry,
		Bus:           bus,
		Orchestrators: orchestrators,
		Memory:        memory,
		Aggregator:    checker,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	return &harness{bus: bus, registry: registry, memory: memory, checker: checker, validator: v}
}

func defaultOrchestrators() []Orchestrator {
	return []Orchestrator{
		{Name: "AgentOrchestrator", Kinds: []events.EventKind{events.KindAgentActivated, events.KindAgentsCompleted}},
		{Name: "MemoryOrchestrator", Kinds: []events.EventKind{events.KindMemoryStored}},
	}
}

func (h *harness) markActive(kinds ...events.EventKind) {
	for _, kind := range kinds {
		h.registry.Observe(events.NewEvent(kind, "test"))
	}
}

func TestNewRejectsMissingDeps(t *testing.T) {
	cfg := config.DefaultConfig().Sync
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := events.NewBus(10)
	registry := events.NewRegistry(time.Minute)
	memory := &stubMemory{}
	checker := &stubChecker{name: "MetricsAggregator"}
	orchestrators := defaultOrchestrators()

	_, err := New(cfg, Deps{Bus: bus, Orchestrators: orchestrators, Memory: memory, Aggregator: checker, Logger: logger})
	assert.ErrorIs(t, err, ErrMissingRegistry)

	_, err = New(cfg, Deps{Registry: registry, Orchestrators: orchestrators, Memory: memory, Aggregator: checker, Logger: logger})
	assert.ErrorIs(t, err, ErrMissingBus)

	_, err = New(cfg, Deps{Registry: registry, Bus: bus, Memory: memory, Aggregator: checker, Logger: logger})
	assert.ErrorIs(t, err, ErrNoOrchestrators)

	_, err = New(cfg, Deps{Registry: registry, Bus: bus, Orchestrators: orchestrators, Aggregator: checker, Logger: logger})
	assert.ErrorIs(t, err, ErrMissingMemoryChecker)

	_, err = New(cfg, Deps{Registry: registry, Bus: bus, Orchestrators: orchestrators, Memory: memory, Logger: logger})
	assert.ErrorIs(t, err, ErrMissingAggregator)
}

func TestRunCycleFullySynchronized(t *testing.T) {
	h := newHarness(t, defaultOrchestrators())
	h.markActive(events.KindAgentActivated, events.KindMemoryStored)

	status := h.validator.RunCycle(context.Background())

	assert.True(t, status.Synchronized)
	assert.InDelta(t, 100, status.Score, 0.001)
	assert.Empty(t, status.Issues)
	require.Len(t, status.Orchestrators, 2)
	assert.True(t, status.Orchestrators[0].Active)
	assert.True(t, status.Orchestrators[1].Active)
	assert.True(t, h.validator.IsSynchronized())
}

func TestRunCycleInactiveOrchestratorBreaksSync(t *testing.T) {
	h := newHarness(t, defaultOrchestrators())
	h.markActive(events.KindAgentActivated)
	// MemoryOrchestrator stays silent.

	status := h.validator.RunCycle(context.Background())

	assert.False(t, status.Synchronized)
	require.Len(t, status.Issues, 1)
	assert.Equal(t, issue.KindOrchestratorInactive, status.Issues[0].Kind)

	// 0.40*50 + 0.20*100 + 0.20*100 + 0.20*100 = 80, minus 10 for high.
	assert.InDelta(t, 70, status.Score, 0.001)
}

func TestRunCycleCriticalBlocksSyncRegardlessOfScore(t *testing.T) {
	// One unhealthy orchestrator out of many keeps the score above the
	// synced minimum, but the critical verdict must still break sync.
	orchestrators := defaultOrchestrators()
	unhealthy := &stubStatusSource{report: OrchestratorReport{Healthy: false, ErrorCount: 7}}
	for i := 0; i < 18; i++ {
		orchestrators = append(orchestrators, Orchestrator{
			Name:  "Extra" + string(rune('A'+i)),
			Kinds: []events.EventKind{events.KindCacheHit},
		})
	}
	orchestrators = append(orchestrators, Orchestrator{
		Name:   "ReviewOrchestrator",
		Kinds:  []events.EventKind{events.KindPRCreated},
		Source: unhealthy,
	})

	h := newHarness(t, orchestrators)
	h.markActive(events.KindAgentActivated, events.KindMemoryStored, events.KindCacheHit, events.KindPRCreated)

	cfg := config.DefaultConfig().Sync
	cfg.SyncedScoreMin = 60
	h.validator.UpdateConfig(cfg)

	status := h.validator.RunCycle(context.Background())

	assert.GreaterOrEqual(t, status.Score, 60.0)
	assert.True(t, issue.HasCritical(status.Issues))
	assert.False(t, status.Synchronized)
}

func TestRunCycleFailedStatusSourceNotFabricatedUnhealthy(t *testing.T) {
	orchestrators := defaultOrchestrators()
	orchestrators[0].Source = &stubStatusSource{err: errors.New("accessor down")}

	h := newHarness(t, orchestrators)
	h.markActive(events.KindAgentActivated, events.KindMemoryStored)

	status := h.validator.RunCycle(context.Background())

	// The orchestrator stays healthy; the failure surfaces as its own
	// collector issue instead of a fabricated critical.
	assert.True(t, status.Orchestrators[0].Healthy)
	require.Len(t, status.Issues, 1)
	assert.Equal(t, issue.KindCollectorUnavailable, status.Issues[0].Kind)
	assert.Equal(t, "AgentOrchestrator", status.Issues[0].Component)
}

func TestRunCycleMemoryCheckerFailure(t *testing.T) {
	h := newHarness(t, defaultOrchestrators())
	h.markActive(events.KindAgentActivated, events.KindMemoryStored)
	h.memory.err = errors.New("store offline")

	status := h.validator.RunCycle(context.Background())

	assert.False(t, status.Memory.Known)
	// No fabricated memory issues; the score renormalizes over the
	// remaining dimensions.
	assert.Empty(t, status.Issues)
	assert.InDelta(t, 100, status.Score, 0.001)
	assert.True(t, status.Synchronized)
}

func TestRunCycleOrphanedMemories(t *testing.T) {
	h := newHarness(t, defaultOrchestrators())
	h.markActive(events.KindAgentActivated, events.KindMemoryStored)
	h.memory.report = ConsistencyReport{Orphaned: 5}

	status := h.validator.RunCycle(context.Background())

	require.Len(t, status.Issues, 1)
	assert.Equal(t, issue.KindOrphanedMemories, status.Issues[0].Kind)
	assert.True(t, status.Issues[0].AutoRecoverable)

	// 0.40*100 + 0.20*100 + 0.20*50 + 0.20*100 = 90; medium costs nothing.
	assert.InDelta(t, 90, status.Score, 0.001)
	assert.True(t, status.Synchronized)
}

func TestRunCyclePublishesEvents(t *testing.T) {
	h := newHarness(t, defaultOrchestrators())

	cycleEvents := make(chan *events.Event, 4)
	h.bus.Subscribe(funcSubscriber{
		id:    "cycle-capture",
		kinds: []events.EventKind{events.KindSyncCycleComplete, events.KindCriticalIssues},
		fn:    func(event *events.Event) error { cycleEvents <- event; return nil },
	})
	h.bus.Start()
	defer h.bus.Close()

	cfg := config.DefaultConfig().Sync
	cfg.EventOverloadCeiling = 1
	h.validator.UpdateConfig(cfg)

	h.markActive(events.KindAgentActivated, events.KindMemoryStored)
	status := h.validator.RunCycle(context.Background())
	require.True(t, issue.HasCritical(status.Issues))

	var kinds []events.EventKind
	deadline := time.After(time.Second)
	for len(kinds) < 2 {
		select {
		case event := <-cycleEvents:
			kinds = append(kinds, event.Kind)
			if event.Kind == events.KindCriticalIssues {
				require.NotNil(t, event.Critical)
				assert.Equal(t, status.Issues, event.Critical.Issues)
			}
		case <-deadline:
			t.Fatalf("expected 2 events, got %v", kinds)
		}
	}
	assert.Contains(t, kinds, events.KindSyncCycleComplete)
	assert.Contains(t, kinds, events.KindCriticalIssues)
}

func TestStartStopIdempotent(t *testing.T) {
	h := newHarness(t, defaultOrchestrators())

	cfg := config.DefaultConfig().Sync
	cfg.Interval = time.Hour
	h.validator.UpdateConfig(cfg)

	assert.False(t, h.validator.Active())
	h.validator.Start(context.Background())
	h.validator.Start(context.Background())
	assert.True(t, h.validator.Active())

	h.validator.Stop()
	h.validator.Stop()
	assert.False(t, h.validator.Active())
}

// funcSubscriber adapts a closure to the bus subscriber interface.
type funcSubscriber struct {
	id    string
	kinds []events.EventKind
	fn    func(*events.Event) error
}

func (f funcSubscriber) ID() string { return f.id }

func (f funcSubscriber) Kinds() []events.EventKind { return f.kinds }

func (f funcSubscriber) OnEvent(event *events.Event) error {
	return f.fn(event)
}
