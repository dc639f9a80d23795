package health

import (
	"github.com/adalundhe/vigil/core/config"
)

// Scorer converts raw collaborator counters into [0,100] sub-scores.
// All methods are pure; identical inputs always produce identical
// outputs.
type Scorer struct {
	weights      config.HealthWeights
	agentWeights config.AgentWeights
	latencyCeil  float64
}

func NewScorer(cfg config.HealthConfig) *Scorer {
	return &Scorer{
		weights:      cfg.Weights,
		agentWeights: cfg.AgentWeights,
		latencyCeil:  cfg.LatencyCeilingMS,
	}
}

// AgentEfficiency scores one agent from its success rate, latency and
// utilization counters.
func (s *Scorer) AgentEfficiency(m AgentMetrics) float64 {
	score := s.agentWeights.Success*clamp(m.SuccessRate) +
		s.agentWeights.Latency*s.latencyScore(m.AvgLatencyMS) +
		s.agentWeights.Utilization*clamp(m.Utilization)
	return clamp(score)
}

// latencyScore decays linearly from 100 at zero latency to 0 at the
// configured ceiling.
func (s *Scorer) latencyScore(latencyMS float64) float64 {
	if latencyMS <= 0 {
		return 100
	}
	if latencyMS >= s.latencyCeil {
		return 0
	}
	return 100 * (1 - latencyMS/s.latencyCeil)
}

// AgentPoolScore averages per-agent efficiencies. An empty pool scores
// 100: no agent is underperforming.
func (s *Scorer) AgentPoolScore(metrics []AgentMetrics) (SubScore, []AgentScore) {
	if len(metrics) == 0 {
		return Known(100), nil
	}

	perAgent := make([]AgentScore, 0, len(metrics))
	total := 0.0
	for _, m := range metrics {
		efficiency := s.AgentEfficiency(m)
		perAgent = append(perAgent, AgentScore{AgentID: m.AgentID, Efficiency: efficiency})
		total += efficiency
	}

	return Known(total / float64(len(metrics))), perAgent
}

// ProactiveScore is the activation accuracy rate. Zero activations
// score 100: nothing fired wrongly.
func (s *Scorer) ProactiveScore(stats ActivationStats) SubScore {
	if stats.Total <= 0 {
		return Known(100)
	}
	return Known(100 * float64(stats.Accurate) / float64(stats.Total))
}

// RuleScore averages per-rule efficiency: 70% hit rate, 30% cost score
// decaying to 0 at the latency ceiling. No registered rules score 100.
func (s *Scorer) RuleScore(stats []RuleStats) SubScore {
	if len(stats) == 0 {
		return Known(100)
	}

	total := 0.0
	for _, r := range stats {
		total += s.ruleEfficiency(r)
	}
	return Known(total / float64(len(stats)))
}

func (s *Scorer) ruleEfficiency(r RuleStats) float64 {
	hitRate := 100.0
	if r.Evaluations > 0 {
		hitRate = 100 * float64(r.Hits) / float64(r.Evaluations)
	}
	return clamp(0.7*hitRate + 0.3*s.latencyScore(r.AvgCostMS))
}

// SelfTestScore is the pass rate. A battery that ran zero tests tells
// us nothing and reports unknown rather than a fabricated pass rate.
func (s *Scorer) SelfTestScore(report SelfTestReport) SubScore {
	total := report.Passed + report.Failed
	if total <= 0 {
		return Unknown()
	}
	return Known(100 * float64(report.Passed) / float64(total))
}

// VersionScore reports compatibility as a binary score. Version
// carries no weight in the overall; it gates an issue instead.
func (s *Scorer) VersionScore(report VersionReport) SubScore {
	if report.Compatible {
		return Known(100)
	}
	return Known(0)
}

// Overall combines the four weighted dimensions. Unknown dimensions
// are excluded and the remaining weights renormalized; if every
// dimension is unknown the overall is unknown too.
func (s *Scorer) Overall(agents, proactive, rules, selfTest SubScore) SubScore {
	type weighted struct {
		score  SubScore
		weight float64
	}

	dims := []weighted{
		{agents, s.weights.Agents},
		{proactive, s.weights.Proactive},
		{rules, s.weights.Rules},
		{selfTest, s.weights.SelfTest},
	}

	sum := 0.0
	weightSum := 0.0
	for _, d := range dims {
		if !d.score.Known {
			continue
		}
		sum += d.weight * d.score.Value
		weightSum += d.weight
	}

	if weightSum == 0 {
		return Unknown()
	}
	return Known(sum / weightSum)
}
