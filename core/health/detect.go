package health

import (
	"fmt"

	"github.com/adalundhe/vigil/core/config"
	"github.com/adalundhe/vigil/core/issue"
)

// CycleMetrics is the computed input to issue detection: everything a
// cycle learned, in a stable order.
type CycleMetrics struct {
	Agents           SubScore
	PerAgent         []AgentScore
	Proactive        SubScore
	Rules            SubScore
	SelfTest         SubScore
	SelfTestFailed   int
	Version          SubScore
	VersionDetails   string
	FailedCollectors []string
}

// DetectIssues applies the health threshold table to one cycle's
// metrics. Pure and deterministic: identical metrics always yield an
// identical issue list, in a fixed rule order.
func DetectIssues(m CycleMetrics, thresholds config.HealthThresholds) []issue.Issue {
	issues := make([]issue.Issue, 0)

	for _, agent := range m.PerAgent {
		if agent.Efficiency < thresholds.AgentEfficiencyMin {
			issues = append(issues, issue.Issue{
				Kind:            issue.KindAgentUnderperforming,
				Severity:        issue.SeverityHigh,
				Component:       agent.AgentID,
				Description:     fmt.Sprintf("agent efficiency %.1f below threshold %.1f", agent.Efficiency, thresholds.AgentEfficiencyMin),
				Impact:          "tasks routed to this agent complete slowly or fail",
				AutoRecoverable: true,
				Recommendation:  "restart the agent or rebalance its task allocation",
			})
		}
	}

	if m.Proactive.Known && m.Proactive.Value < thresholds.ProactiveAccuracyMin {
		issues = append(issues, issue.Issue{
			Kind:            issue.KindProactiveInaccurate,
			Severity:        issue.SeverityMedium,
			Component:       "ProactiveSystem",
			Description:     fmt.Sprintf("activation accuracy %.1f below threshold %.1f", m.Proactive.Value, thresholds.ProactiveAccuracyMin),
			Impact:          "proactive activations waste analyzer capacity on false positives",
			AutoRecoverable: false,
			Recommendation:  "review activation patterns and retune trigger thresholds",
		})
	}

	if m.Rules.Known && m.Rules.Value < thresholds.RuleEfficiencyMin {
		issues = append(issues, issue.Issue{
			Kind:            issue.KindRuleInefficient,
			Severity:        issue.SeverityLow,
			Component:       "RuleEngine",
			Description:     fmt.Sprintf("rule efficiency %.1f below threshold %.1f", m.Rules.Value, thresholds.RuleEfficiencyMin),
			Impact:          "low-yield rules consume evaluation time without producing findings",
			AutoRecoverable: false,
			Recommendation:  "disable or rewrite rules with low hit rates",
		})
	}

	if m.SelfTestFailed > 0 {
		severity := issue.SeverityMedium
		if m.SelfTestFailed >= thresholds.SelfTestHighFailures {
			severity = issue.SeverityHigh
		}
		issues = append(issues, issue.Issue{
			Kind:            issue.KindSelfTestFailures,
			Severity:        severity,
			Component:       "SelfTest",
			Description:     fmt.Sprintf("%d self-test failures", m.SelfTestFailed),
			Impact:          "core invariants are violated or drifting",
			AutoRecoverable: false,
			Recommendation:  "inspect the failing self-tests before trusting other scores",
		})
	}

	if m.Version.Known && m.Version.Value == 0 {
		issues = append(issues, issue.Issue{
			Kind:            issue.KindVersionIncompatible,
			Severity:        issue.SeverityHigh,
			Component:       "VersionCheck",
			Description:     fmt.Sprintf("incompatible component versions: %s", m.VersionDetails),
			Impact:          "cross-component calls may fail or silently misbehave",
			AutoRecoverable: false,
			Recommendation:  "align component versions before continuing",
		})
	}

	for _, collector := range m.FailedCollectors {
		issues = append(issues, issue.Issue{
			Kind:            issue.KindCollectorUnavailable,
			Severity:        issue.SeverityMedium,
			Component:       collector,
			Description:     fmt.Sprintf("collector %s unavailable; sub-score reported as unknown", collector),
			Impact:          "one health dimension is invisible this cycle",
			AutoRecoverable: false,
			Recommendation:  "check the collaborator exposing this collector",
		})
	}

	return issues
}
