package health

import "context"

// AgentMetrics is the per-agent counter set reported by the agent pool.
// Rates and utilization are percentages in [0,100]; latency is in
// milliseconds.
type AgentMetrics struct {
	AgentID      string  `json:"agent_id"`
	SuccessRate  float64 `json:"success_rate"`
	AvgLatencyMS float64 `json:"avg_latency_ms"`
	Utilization  float64 `json:"utilization"`
	ErrorCount   int64   `json:"error_count"`
}

// ActivationStats counts proactive activations and how many of them
// turned out to be accurate.
type ActivationStats struct {
	Total    int64 `json:"total"`
	Accurate int64 `json:"accurate"`
}

// RuleStats is the per-rule counter set reported by the rule engine.
type RuleStats struct {
	Name        string  `json:"name"`
	Evaluations int64   `json:"evaluations"`
	Hits        int64   `json:"hits"`
	AvgCostMS   float64 `json:"avg_cost_ms"`
}

// SelfTestReport is the outcome of one self-test battery run.
type SelfTestReport struct {
	Passed   int      `json:"passed"`
	Failed   int      `json:"failed"`
	Failures []string `json:"failures,omitempty"`
}

// VersionReport is the outcome of the version-compatibility check.
type VersionReport struct {
	Compatible bool   `json:"compatible"`
	Component  string `json:"component,omitempty"`
	Details    string `json:"details,omitempty"`
}

// AgentPoolSource exposes per-agent performance counters. Implemented
// by the agent pool collaborator; consumed once per aggregation cycle.
type AgentPoolSource interface {
	AgentMetrics(ctx context.Context) ([]AgentMetrics, error)
}

// ProactiveSource exposes proactive-activation accuracy counters.
type ProactiveSource interface {
	ActivationStats(ctx context.Context) (ActivationStats, error)
}

// RuleSource exposes per-rule efficiency counters.
type RuleSource interface {
	RuleStats(ctx context.Context) ([]RuleStats, error)
}

// SelfTestRunner runs the self-test battery.
type SelfTestRunner interface {
	RunSelfTests(ctx context.Context) (SelfTestReport, error)
}

// VersionChecker verifies cross-component version compatibility.
type VersionChecker interface {
	CheckVersions(ctx context.Context) (VersionReport, error)
}

// Sources bundles the collaborator accessors the aggregator samples.
// Any entry may be nil; a nil source reports as an unavailable
// collector rather than a fabricated score.
type Sources struct {
	AgentPool AgentPoolSource
	Proactive ProactiveSource
	Rules     RuleSource
	SelfTest  SelfTestRunner
	Version   VersionChecker
}
