package report

import (
	"testing"
	"time"

	"github.com/adalundhe/vigil/core/health"
	"github.com/adalundhe/vigil/core/issue"
	"github.com/adalundhe/vigil/core/recovery"
	"github.com/adalundhe/vigil/core/validator"
	"github.com/stretchr/testify/assert"
)

func TestRenderEmptyInputs(t *testing.T) {
	out := Render(Inputs{})

	assert.Contains(t, out, "=== Observability Report ===")
	assert.Contains(t, out, "no validation cycle completed yet")
	assert.Contains(t, out, "no aggregation cycle completed yet")
	assert.Contains(t, out, "no recovery cycle executed yet")
}

func TestRenderSyncSection(t *testing.T) {
	status := &validator.SyncStatus{
		Synchronized: true,
		Score:        97.5,
		Timestamp:    time.Now(),
		Orchestrators: []validator.OrchestratorStatus{
			{Name: "AgentOrchestrator", Active: true, Healthy: true, EventCount: 42},
		},
		EventSystem: validator.EventSystemHealth{Healthy: true, RecentEvents: 12, OverloadCeiling: 1000},
		Memory:      validator.MemoryConsistency{Known: true, Consistent: true},
		HealthSystems: []validator.CheckerStatus{
			{Name: "MetricsAggregator", Active: true, LastScore: 91.2, HasScore: true},
		},
	}

	out := Render(Inputs{Status: status})

	assert.Contains(t, out, "Synchronized: true")
	assert.Contains(t, out, "Sync score:   97.5/100")
	assert.Contains(t, out, "AgentOrchestrator")
	assert.Contains(t, out, "events=42")
	assert.Contains(t, out, "Memory store: consistent=true")
	assert.Contains(t, out, "score 91.2")
	assert.Contains(t, out, "Issues: none")
}

func TestRenderDegradedMemory(t *testing.T) {
	status := &validator.SyncStatus{
		Memory: validator.MemoryConsistency{Known: false},
	}

	out := Render(Inputs{Status: status})
	assert.Contains(t, out, "DEGRADED - consistency check unavailable")
}

func TestRenderHealthSection(t *testing.T) {
	snapshot := &health.HealthSnapshot{
		Timestamp: time.Now(),
		Overall:   health.Known(84.2),
		Agents:    health.Known(90),
		Proactive: health.Known(80),
		Rules:     health.Unknown(),
		SelfTest:  health.Known(100),
		Version:   health.Known(100),
	}

	out := Render(Inputs{Snapshot: snapshot})

	assert.Contains(t, out, "Overall:    84.2/100")
	assert.Contains(t, out, "Rules:      unknown (collector unavailable)")
	assert.Contains(t, out, "unknown dimensions excluded from overall")
}

func TestRenderIssues(t *testing.T) {
	status := &validator.SyncStatus{
		Issues: []issue.Issue{
			{
				Kind:            issue.KindOrchestratorInactive,
				Severity:        issue.SeverityHigh,
				Component:       "MemoryOrchestrator",
				Description:     "orchestrator produced no events",
				Impact:          "work is not progressing",
				AutoRecoverable: true,
				Recommendation:  "restart it",
			},
		},
	}

	out := Render(Inputs{Status: status})

	assert.Contains(t, out, "Issues (1):")
	assert.Contains(t, out, "[HIGH] MemoryOrchestrator")
	assert.Contains(t, out, "[auto-recoverable]")
	assert.Contains(t, out, "impact: work is not progressing")
	assert.Contains(t, out, "recommendation: restart it")
}

func TestRenderRecoverySection(t *testing.T) {
	result := &recovery.RecoveryResult{
		CycleID:   "cycle-1",
		Attempted: 2,
		Succeeded: 1,
		Failed:    1,
		Skipped:   1,
		Duration:  1500 * time.Millisecond,
		Actions: []recovery.RecoveryAction{
			{Kind: recovery.ActionRebuildEventListeners, Status: recovery.StatusCompleted, Result: "done"},
			{Kind: recovery.ActionCleanupOrphanedMemories, Status: recovery.StatusFailed, Error: "store locked"},
		},
	}

	out := Render(Inputs{Recovery: result})

	assert.Contains(t, out, "Cycle:     cycle-1")
	assert.Contains(t, out, "attempted=2 succeeded=1 failed=1 skipped=1")
	assert.Contains(t, out, "rebuild_event_listeners")
	assert.Contains(t, out, "error: store locked")
}
