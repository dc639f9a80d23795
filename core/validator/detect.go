package validator

import (
	"fmt"

	"github.com/adalundhe/vigil/core/issue"
)

// Component names used by detection; recovery keys off issue kinds,
// these names exist for humans reading reports.
const (
	ComponentEventSystem  = "EventSystem"
	ComponentMemorySystem = "MemorySystem"
	ComponentHealthSystem = "HealthSystem"
)

// CycleInput is everything one validation cycle observed, in stable
// order, fed to issue detection.
type CycleInput struct {
	Orchestrators   []OrchestratorStatus
	EventSystem     EventSystemHealth
	Memory          MemoryConsistency
	Checkers        []CheckerStatus
	AggregatorKnown bool
	AggregatorScore float64
	OverallScoreMin float64
	FailedSources   []string
}

// DetectIssues applies the synchronization issue table. Pure and
// deterministic: identical input always yields an identical issue
// list, in fixed rule order.
func DetectIssues(in CycleInput) []issue.Issue {
	issues := make([]issue.Issue, 0)

	for _, orch := range in.Orchestrators {
		if !orch.Active {
			issues = append(issues, issue.Issue{
				Kind:            issue.KindOrchestratorInactive,
				Severity:        issue.SeverityHigh,
				Component:       orch.Name,
				Description:     fmt.Sprintf("orchestrator %s produced no events within the activity window", orch.Name),
				Impact:          "work owned by this orchestrator is not progressing",
				AutoRecoverable: true,
				Recommendation:  "restart the orchestrator and rebuild its event subscriptions",
			})
		}
	}

	for _, orch := range in.Orchestrators {
		if !orch.Healthy {
			issues = append(issues, issue.Issue{
				Kind:            issue.KindOrchestratorUnhealthy,
				Severity:        issue.SeverityCritical,
				Component:       orch.Name,
				Description:     fmt.Sprintf("orchestrator %s reports unhealthy (errors: %d)", orch.Name, orch.ErrorCount),
				Impact:          "this orchestrator may be corrupting or dropping work",
				AutoRecoverable: false,
				Recommendation:  "inspect the orchestrator's error log before any restart",
			})
		}
	}

	if !in.EventSystem.Healthy {
		issues = append(issues, issue.Issue{
			Kind:            issue.KindEventSystemUnhealthy,
			Severity:        issue.SeverityCritical,
			Component:       ComponentEventSystem,
			Description:     fmt.Sprintf("event system overloaded: %d events in window, ceiling %d", in.EventSystem.RecentEvents, in.EventSystem.OverloadCeiling),
			Impact:          "liveness inference and cross-subsystem signals are unreliable",
			AutoRecoverable: true,
			Recommendation:  "rebuild event listener registrations",
		})
	}

	if in.Memory.Known && !in.Memory.Consistent {
		issues = append(issues, issue.Issue{
			Kind:            issue.KindMemoryInconsistent,
			Severity:        issue.SeverityHigh,
			Component:       ComponentMemorySystem,
			Description:     fmt.Sprintf("memory store inconsistent: %d duplicate, %d corrupted entries", in.Memory.Duplicates, in.Memory.Corrupted),
			Impact:          "reads against the store may return wrong or damaged records",
			AutoRecoverable: true,
			Recommendation:  "run store validation and repair",
		})
	}

	if in.Memory.Known && in.Memory.Orphaned > 0 {
		issues = append(issues, issue.Issue{
			Kind:            issue.KindOrphanedMemories,
			Severity:        issue.SeverityMedium,
			Component:       ComponentMemorySystem,
			Description:     fmt.Sprintf("%d orphaned entries in memory store", in.Memory.Orphaned),
			Impact:          "orphaned entries waste space and skew retrieval",
			AutoRecoverable: true,
			Recommendation:  "clean up orphaned entries",
		})
	}

	for _, checker := range in.Checkers {
		if !checker.Active {
			issues = append(issues, issue.Issue{
				Kind:            issue.KindHealthCheckerInactive,
				Severity:        issue.SeverityMedium,
				Component:       checker.Name,
				Description:     fmt.Sprintf("health checker %s is not running", checker.Name),
				Impact:          "one observability dimension is blind",
				AutoRecoverable: true,
				Recommendation:  "reinitialize the health subsystem",
			})
		}
	}

	if in.AggregatorKnown && in.AggregatorScore < in.OverallScoreMin {
		issues = append(issues, issue.Issue{
			Kind:            issue.KindHealthScoreLow,
			Severity:        issue.SeverityCritical,
			Component:       ComponentHealthSystem,
			Description:     fmt.Sprintf("overall health score %.1f below threshold %.1f", in.AggregatorScore, in.OverallScoreMin),
			Impact:          "multiple subsystems are performing badly at once",
			AutoRecoverable: false,
			Recommendation:  "triage the aggregator's per-dimension issues",
		})
	}

	for _, source := range in.FailedSources {
		issues = append(issues, issue.Issue{
			Kind:            issue.KindCollectorUnavailable,
			Severity:        issue.SeverityMedium,
			Component:       source,
			Description:     fmt.Sprintf("status source %s unavailable this cycle", source),
			Impact:          "one synchronization dimension is degraded",
			AutoRecoverable: false,
			Recommendation:  "check the collaborator exposing this status source",
		})
	}

	return issues
}
