package cmd

import (
	"context"
	"math/rand"
	"time"

	"github.com/adalundhe/vigil/core/events"
	"github.com/adalundhe/vigil/core/health"
	"github.com/adalundhe/vigil/core/validator"
)

// simWorld is a self-contained set of collaborators driving the
// subsystem with a mostly-healthy synthetic workload. It implements
// every source interface the monitor needs.
type simWorld struct{}

func newSimWorld() *simWorld {
	return &simWorld{}
}

func (s *simWorld) orchestrators() []validator.Orchestrator {
	return []validator.Orchestrator{
		{
			Name:  "AgentOrchestrator",
			Kinds: []events.EventKind{events.KindAgentActivated, events.KindAgentsCompleted, events.KindAgentsFailed},
		},
		{
			Name:  "PatternOrchestrator",
			Kinds: []events.EventKind{events.KindPatternDetected},
		},
		{
			Name:  "ReviewOrchestrator",
			Kinds: []events.EventKind{events.KindPRCreated},
		},
		{
			Name:  "MemoryOrchestrator",
			Kinds: []events.EventKind{events.KindMemoryStored, events.KindMemoryPruned},
		},
		{
			Name:  "CacheOrchestrator",
			Kinds: []events.EventKind{events.KindCacheHit, events.KindCacheMiss},
		},
	}
}

// pump emits collaborator signals on a one-second beat until the
// context ends.
func (s *simWorld) pump(ctx context.Context, bus *events.Bus) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	kinds := []events.EventKind{
		events.KindAgentActivated,
		events.KindAgentsCompleted,
		events.KindPatternDetected,
		events.KindPRCreated,
		events.KindMemoryStored,
		events.KindCacheHit,
	}
	sources := []string{
		"AgentOrchestrator",
		"AgentOrchestrator",
		"PatternOrchestrator",
		"ReviewOrchestrator",
		"MemoryOrchestrator",
		"CacheOrchestrator",
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for i, kind := range kinds {
				event := events.NewEvent(kind, sources[i])
				if kind == events.KindAgentActivated || kind == events.KindAgentsCompleted {
					event.Agent = &events.AgentPayload{AgentID: "sim-agent-1", TaskCount: 1}
				}
				bus.Publish(event)
			}
		}
	}
}

func (s *simWorld) AgentMetrics(ctx context.Context) ([]health.AgentMetrics, error) {
	return []health.AgentMetrics{
		{
			AgentID:      "sim-agent-1",
			SuccessRate:  92 + rand.Float64()*8,
			AvgLatencyMS: 200 + rand.Float64()*300,
			Utilization:  60 + rand.Float64()*30,
		},
		{
			AgentID:      "sim-agent-2",
			SuccessRate:  88 + rand.Float64()*10,
			AvgLatencyMS: 350 + rand.Float64()*400,
			Utilization:  50 + rand.Float64()*40,
		},
	}, nil
}

func (s *simWorld) ActivationStats(ctx context.Context) (health.ActivationStats, error) {
	total := int64(40 + rand.Intn(20))
	return health.ActivationStats{
		Total:    total,
		Accurate: total - int64(rand.Intn(5)),
	}, nil
}

func (s *simWorld) RuleStats(ctx context.Context) ([]health.RuleStats, error) {
	return []health.RuleStats{
		{Name: "sql-injection", Evaluations: 500, Hits: 480, AvgCostMS: 12},
		{Name: "schema-drift", Evaluations: 300, Hits: 240, AvgCostMS: 35},
		{Name: "secret-scan", Evaluations: 800, Hits: 720, AvgCostMS: 8},
	}, nil
}

func (s *simWorld) RunSelfTests(ctx context.Context) (health.SelfTestReport, error) {
	return health.SelfTestReport{Passed: 24, Failed: 0}, nil
}

func (s *simWorld) CheckVersions(ctx context.Context) (health.VersionReport, error) {
	return health.VersionReport{Compatible: true}, nil
}

func (s *simWorld) CheckConsistency(ctx context.Context) (validator.ConsistencyReport, error) {
	return validator.ConsistencyReport{}, nil
}

func (s *simWorld) RebuildEventListeners(ctx context.Context) error { return nil }

func (s *simWorld) RestartOrchestrator(ctx context.Context, _ string) error { return nil }

func (s *simWorld) ResetOrchestrator(ctx context.Context, _ string) error { return nil }

func (s *simWorld) ValidateMemoryStores(ctx context.Context) error { return nil }

func (s *simWorld) CleanupOrphanedMemories(ctx context.Context) error { return nil }

func (s *simWorld) InitializeHealthSystems(ctx context.Context) error { return nil }
