package health

import (
	"time"

	"github.com/adalundhe/vigil/core/issue"
)

// SubScore is one health dimension's score in [0,100]. A dimension
// whose collector failed is reported as unknown, never as a guessed
// number; unknown dimensions are excluded from the weighted overall
// by renormalizing the remaining weights.
type SubScore struct {
	Known bool    `json:"known"`
	Value float64 `json:"value"`
}

func Known(value float64) SubScore {
	return SubScore{Known: true, Value: clamp(value)}
}

func Unknown() SubScore {
	return SubScore{}
}

func clamp(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}

// AgentScore is a single agent's computed efficiency.
type AgentScore struct {
	AgentID    string  `json:"agent_id"`
	Efficiency float64 `json:"efficiency"`
}

// HealthSnapshot is the immutable result of one aggregation cycle.
// It is superseded, never merged, by the next cycle's snapshot.
type HealthSnapshot struct {
	Timestamp time.Time     `json:"timestamp"`
	Overall   SubScore      `json:"overall"`
	Agents    SubScore      `json:"agents"`
	Proactive SubScore      `json:"proactive"`
	Rules     SubScore      `json:"rules"`
	SelfTest  SubScore      `json:"self_test"`
	Version   SubScore      `json:"version"`
	PerAgent  []AgentScore  `json:"per_agent,omitempty"`
	Issues    []issue.Issue `json:"issues"`
	Duration  time.Duration `json:"duration"`
}

// Degraded returns true if any dimension's collector was unavailable
// this cycle.
func (s HealthSnapshot) Degraded() bool {
	return !s.Agents.Known || !s.Proactive.Known || !s.Rules.Known ||
		!s.SelfTest.Known || !s.Version.Known
}
