package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/adalundhe/vigil/core/config"
	"github.com/adalundhe/vigil/core/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSources struct {
	agents    []AgentMetrics
	agentsErr error

	activations    ActivationStats
	activationsErr error

	rules    []RuleStats
	rulesErr error

	selfTest    SelfTestReport
	selfTestErr error

	version    VersionReport
	versionErr error
}

func (s *stubSources) AgentMetrics(ctx context.Context) ([]AgentMetrics, error) {
	return s.agents, s.agentsErr
}

func (s *stubSources) ActivationStats(ctx context.Context) (ActivationStats, error) {
	return s.activations, s.activationsErr
}

func (s *stubSources) RuleStats(ctx context.Context) ([]RuleStats, error) {
	return s.rules, s.rulesErr
}

func (s *stubSources) RunSelfTests(ctx context.Context) (SelfTestReport, error) {
	return s.selfTest, s.selfTestErr
}

func (s *stubSources) CheckVersions(ctx context.Context) (VersionReport, error) {
	return s.version, s.versionErr
}

func healthySources() (*stubSources, Sources) {
	stub := &stubSources{
		agents: []AgentMetrics{
			{AgentID: "a1", SuccessRate: 95, AvgLatencyMS: 500, Utilization: 70},
		},
		activations: ActivationStats{Total: 100, Accurate: 95},
		rules: []RuleStats{
			{Name: "r1", Evaluations: 100, Hits: 90, AvgCostMS: 10},
		},
		selfTest: SelfTestReport{Passed: 20},
		version:  VersionReport{Compatible: true},
	}
	return stub, Sources{
		AgentPool: stub,
		Proactive: stub,
		Rules:     stub,
		SelfTest:  stub,
		Version:   stub,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewAggregatorRequiresSources(t *testing.T) {
	_, err := NewAggregator(Sources{}, config.DefaultConfig().Health, nil, testLogger())
	assert.ErrorIs(t, err, ErrNoSources)
}

func TestRunCycleHealthy(t *testing.T) {
	_, sources := healthySources()
	aggregator, err := NewAggregator(sources, config.DefaultConfig().Health, nil, testLogger())
	require.NoError(t, err)

	snapshot := aggregator.RunCycle(context.Background())

	require.True(t, snapshot.Overall.Known)
	assert.Greater(t, snapshot.Overall.Value, 85.0)
	assert.Empty(t, snapshot.Issues)
	assert.False(t, snapshot.Degraded())
	require.Len(t, snapshot.PerAgent, 1)
	assert.Equal(t, "a1", snapshot.PerAgent[0].AgentID)

	last := aggregator.LastSnapshot()
	require.NotNil(t, last)
	assert.Equal(t, snapshot.Timestamp, last.Timestamp)

	score, ok := aggregator.LastScore()
	require.True(t, ok)
	assert.Equal(t, snapshot.Overall.Value, score)
}

func TestRunCycleCompletesWhenCollectorFails(t *testing.T) {
	stub, sources := healthySources()
	stub.rulesErr = errors.New("rule engine offline")

	aggregator, err := NewAggregator(sources, config.DefaultConfig().Health, nil, testLogger())
	require.NoError(t, err)

	snapshot := aggregator.RunCycle(context.Background())

	// The cycle still produces an overall from the remaining dimensions.
	require.True(t, snapshot.Overall.Known)
	assert.False(t, snapshot.Rules.Known)
	assert.True(t, snapshot.Degraded())

	require.Len(t, snapshot.Issues, 1)
	assert.Equal(t, CollectorRules, snapshot.Issues[0].Component)
}

func TestRunCycleNilSourceReportedUnavailable(t *testing.T) {
	stub, _ := healthySources()
	sources := Sources{
		AgentPool: stub,
		Proactive: stub,
		Rules:     stub,
		SelfTest:  stub,
		// Version intentionally unwired.
	}

	aggregator, err := NewAggregator(sources, config.DefaultConfig().Health, nil, testLogger())
	require.NoError(t, err)

	snapshot := aggregator.RunCycle(context.Background())
	assert.False(t, snapshot.Version.Known)
	require.Len(t, snapshot.Issues, 1)
	assert.Equal(t, CollectorVersion, snapshot.Issues[0].Component)
}

func TestRunCyclePublishesCycleComplete(t *testing.T) {
	bus := events.NewBus(10)
	bus.Start()
	defer bus.Close()

	received := make(chan *events.Event, 1)
	bus.Subscribe(funcSubscriber{
		id:    "cycle-capture",
		kinds: []events.EventKind{events.KindHealthCycleComplete},
		fn:    func(event *events.Event) error { received <- event; return nil },
	})

	_, sources := healthySources()
	aggregator, err := NewAggregator(sources, config.DefaultConfig().Health, bus, testLogger())
	require.NoError(t, err)

	snapshot := aggregator.RunCycle(context.Background())

	select {
	case event := <-received:
		require.NotNil(t, event.Cycle)
		assert.Equal(t, snapshot.Overall.Value, event.Cycle.Score)
		assert.Equal(t, len(snapshot.Issues), event.Cycle.IssueCount)
	case <-time.After(time.Second):
		t.Fatal("no health cycle event published")
	}
}

func TestUpdateConfigAppliesNextCycle(t *testing.T) {
	stub, sources := healthySources()
	stub.agents = []AgentMetrics{
		{AgentID: "a1", SuccessRate: 80, AvgLatencyMS: 100, Utilization: 80},
	}

	aggregator, err := NewAggregator(sources, config.DefaultConfig().Health, nil, testLogger())
	require.NoError(t, err)

	snapshot := aggregator.RunCycle(context.Background())
	assert.Empty(t, snapshot.Issues)

	strict := config.DefaultConfig().Health
	strict.Thresholds.AgentEfficiencyMin = 99
	aggregator.UpdateConfig(strict)

	snapshot = aggregator.RunCycle(context.Background())
	require.NotEmpty(t, snapshot.Issues)
	assert.Equal(t, "a1", snapshot.Issues[0].Component)
}

func TestStartStopIdempotent(t *testing.T) {
	_, sources := healthySources()
	cfg := config.DefaultConfig().Health
	cfg.Interval = time.Hour

	aggregator, err := NewAggregator(sources, cfg, nil, testLogger())
	require.NoError(t, err)

	assert.False(t, aggregator.Active())
	aggregator.Start(context.Background())
	aggregator.Start(context.Background())
	assert.True(t, aggregator.Active())

	aggregator.Stop()
	aggregator.Stop()
	assert.False(t, aggregator.Active())
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
