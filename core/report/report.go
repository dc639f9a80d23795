// Package report renders the latest health and synchronization state
// as plain structured text for CLI or log consumption. Reports are
// built on demand from the latest cycle results and never cached.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/adalundhe/vigil/core/health"
	"github.com/adalundhe/vigil/core/issue"
	"github.com/adalundhe/vigil/core/recovery"
	"github.com/adalundhe/vigil/core/validator"
)

// Inputs are the latest cycle results. Any field may be nil when the
// corresponding component has not completed a cycle yet.
type Inputs struct {
	Snapshot *health.HealthSnapshot
	Status   *validator.SyncStatus
	Recovery *recovery.RecoveryResult
}

// Render builds the human-readable report.
func Render(in Inputs) string {
	var b strings.Builder

	b.WriteString("=== Observability Report ===\n")
	b.WriteString(fmt.Sprintf("Generated: %s\n", time.Now().Format(time.RFC3339)))

	renderSync(&b, in.Status)
	renderHealth(&b, in.Snapshot)
	renderRecovery(&b, in.Recovery)

	return b.String()
}

func renderSync(b *strings.Builder, status *validator.SyncStatus) {
	b.WriteString("\n--- Synchronization ---\n")
	if status == nil {
		b.WriteString("no validation cycle completed yet\n")
		return
	}

	b.WriteString(fmt.Sprintf("Synchronized: %t\n", status.Synchronized))
	b.WriteString(fmt.Sprintf("Sync score:   %.1f/100\n", status.Score))
	b.WriteString(fmt.Sprintf("As of:        %s\n", status.Timestamp.Format(time.RFC3339)))

	b.WriteString("\nOrchestrators:\n")
	for _, orch := range status.Orchestrators {
		b.WriteString(fmt.Sprintf("  %-20s active=%-5t healthy=%-5t events=%d\n",
			orch.Name, orch.Active, orch.Healthy, orch.EventCount))
	}

	b.WriteString(fmt.Sprintf("\nEvent system: healthy=%t (%d events in window, ceiling %d, dropped %d)\n",
		status.EventSystem.Healthy,
		status.EventSystem.RecentEvents,
		status.EventSystem.OverloadCeiling,
		status.EventSystem.DroppedEvents,
	))

	if status.Memory.Known {
		b.WriteString(fmt.Sprintf("Memory store: consistent=%t (orphaned=%d duplicates=%d corrupted=%d)\n",
			status.Memory.Consistent,
			status.Memory.Orphaned,
			status.Memory.Duplicates,
			status.Memory.Corrupted,
		))
	} else {
		b.WriteString("Memory store: DEGRADED - consistency check unavailable\n")
	}

	b.WriteString("Health systems:\n")
	for _, checker := range status.HealthSystems {
		score := "no score yet"
		if checker.HasScore {
			score = fmt.Sprintf("score %.1f", checker.LastScore)
		}
		b.WriteString(fmt.Sprintf("  %-20s active=%-5t %s\n", checker.Name, checker.Active, score))
	}

	renderIssues(b, status.Issues)
}

func renderHealth(b *strings.Builder, snapshot *health.HealthSnapshot) {
	b.WriteString("\n--- Health ---\n")
	if snapshot == nil {
		b.WriteString("no aggregation cycle completed yet\n")
		return
	}

	b.WriteString(fmt.Sprintf("Overall:    %s\n", formatSubScore(snapshot.Overall)))
	b.WriteString(fmt.Sprintf("Agents:     %s\n", formatSubScore(snapshot.Agents)))
	b.WriteString(fmt.Sprintf("Proactive:  %s\n", formatSubScore(snapshot.Proactive)))
	b.WriteString(fmt.Sprintf("Rules:      %s\n", formatSubScore(snapshot.Rules)))
	b.WriteString(fmt.Sprintf("Self-test:  %s\n", formatSubScore(snapshot.SelfTest)))
	b.WriteString(fmt.Sprintf("Version:    %s\n", formatSubScore(snapshot.Version)))

	if snapshot.Degraded() {
		b.WriteString("NOTE: one or more collectors unavailable; unknown dimensions excluded from overall\n")
	}

	renderIssues(b, snapshot.Issues)
}

func formatSubScore(score health.SubScore) string {
	if !score.Known {
		return "unknown (collector unavailable)"
	}
	return fmt.Sprintf("%.1f/100", score.Value)
}

func renderIssues(b *strings.Builder, issues []issue.Issue) {
	if len(issues) == 0 {
		b.WriteString("\nIssues: none\n")
		return
	}

	b.WriteString(fmt.Sprintf("\nIssues (%d):\n", len(issues)))
	for _, iss := range issues {
		auto := ""
		if iss.AutoRecoverable {
			auto = " [auto-recoverable]"
		}
		b.WriteString(fmt.Sprintf("  [%s] %s: %s%s\n", strings.ToUpper(iss.Severity.String()), iss.Component, iss.Description, auto))
		b.WriteString(fmt.Sprintf("    impact: %s\n", iss.Impact))
		b.WriteString(fmt.Sprintf("    recommendation: %s\n", iss.Recommendation))
	}
}

func renderRecovery(b *strings.Builder, result *recovery.RecoveryResult) {
	b.WriteString("\n--- Recovery ---\n")
	if result == nil {
		b.WriteString("no recovery cycle executed yet\n")
		return
	}

	b.WriteString(fmt.Sprintf("Cycle:     %s\n", result.CycleID))
	b.WriteString(fmt.Sprintf("Success:   %t (attempted=%d succeeded=%d failed=%d skipped=%d)\n",
		result.Success, result.Attempted, result.Succeeded, result.Failed, result.Skipped))
	b.WriteString(fmt.Sprintf("Duration:  %s\n", result.Duration.Round(time.Millisecond)))

	for _, action := range result.Actions {
		line := fmt.Sprintf("  %-32s %-11s", action.Kind, action.Status)
		if action.Error != "" {
			line += " error: " + action.Error
		} else if action.Result != "" {
			line += " " + action.Result
		}
		b.WriteString(line + "\n")
	}
}
