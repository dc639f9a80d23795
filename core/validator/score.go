package validator

import (
	"github.com/adalundhe/vigil/core/config"
	"github.com/adalundhe/vigil/core/issue"
)

// Dimensions are the four [0,100] inputs to the sync score. Memory is
// the only dimension that can be unknown (the consistency check itself
// failed); an unknown dimension is excluded and the remaining weights
// renormalized rather than scored with a guessed value.
type Dimensions struct {
	Orchestrators float64
	Events        float64
	Memory        float64
	MemoryKnown   bool
	Health        float64
}

// ComputeScore combines the weighted dimensions, then applies the
// per-severity penalties and clamps to [0,100]. Pure.
func ComputeScore(weights config.SyncWeights, dims Dimensions, issues []issue.Issue, criticalPenalty, highPenalty float64) float64 {
	sum := weights.Orchestrators*dims.Orchestrators +
		weights.Events*dims.Events +
		weights.Health*dims.Health
	weightSum := weights.Orchestrators + weights.Events + weights.Health

	if dims.MemoryKnown {
		sum += weights.Memory * dims.Memory
		weightSum += weights.Memory
	}

	score := sum / weightSum

	score -= criticalPenalty * float64(issue.CountBySeverity(issues, issue.SeverityCritical))
	score -= highPenalty * float64(issue.CountBySeverity(issues, issue.SeverityHigh))

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// orchestratorDimension is the fraction of orchestrators both active
// and healthy, as a percentage.
func orchestratorDimension(statuses []OrchestratorStatus) float64 {
	if len(statuses) == 0 {
		return 0
	}

	good := 0
	for _, status := range statuses {
		if status.Active && status.Healthy {
			good++
		}
	}
	return 100 * float64(good) / float64(len(statuses))
}

func boolDimension(healthy bool) float64 {
	if healthy {
		return 100
	}
	return 0
}

// memoryDimension grades the store: fully consistent scores 100,
// orphan-only damage scores 50, duplicates or corruption score 0.
func memoryDimension(memory MemoryConsistency) float64 {
	if !memory.Known {
		return 0
	}
	if !memory.Consistent {
		return 0
	}
	if memory.Orphaned > 0 {
		return 50
	}
	return 100
}

// checkerDimension is the fraction of health checkers running, as a
// percentage.
func checkerDimension(checkers []CheckerStatus) float64 {
	if len(checkers) == 0 {
		return 0
	}

	active := 0
	for _, checker := range checkers {
		if checker.Active {
			active++
		}
	}
	return 100 * float64(active) / float64(len(checkers))
}
