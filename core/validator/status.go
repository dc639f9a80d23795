package validator

import (
	"context"
	"time"

	"github.com/adalundhe/vigil/core/events"
	"github.com/adalundhe/vigil/core/issue"
)

// OrchestratorReport is what a collaborator's direct status accessor
// returns.
type OrchestratorReport struct {
	Healthy        bool    `json:"healthy"`
	ResponseTimeMS float64 `json:"response_time_ms"`
	ErrorCount     int64   `json:"error_count"`
}

// StatusSource is the optional synchronous accessor select
// collaborators expose in addition to their occurrence signals.
type StatusSource interface {
	Status(ctx context.Context) (OrchestratorReport, error)
}

// ConsistencyReport carries the memory/store collaborator's
// consistency counters.
type ConsistencyReport struct {
	Orphaned   int `json:"orphaned"`
	Duplicates int `json:"duplicates"`
	Corrupted  int `json:"corrupted"`
}

// Consistent returns true when no entry class indicates store damage.
func (r ConsistencyReport) Consistent() bool {
	return r.Duplicates == 0 && r.Corrupted == 0
}

// ConsistencyChecker is the delegated consistency-check interface the
// memory/store collaborator exposes.
type ConsistencyChecker interface {
	CheckConsistency(ctx context.Context) (ConsistencyReport, error)
}

// HealthChecker is a registered health subsystem the validator keeps
// an eye on; the metrics aggregator is always one of them.
type HealthChecker interface {
	Name() string
	Active() bool
	LastScore() (float64, bool)
}

// Orchestrator names a collaborator subsystem and the signal kinds its
// liveness is inferred from.
type Orchestrator struct {
	Name   string
	Kinds  []events.EventKind
	Source StatusSource
}

// OrchestratorStatus is the per-collaborator view derived fresh every
// cycle; it is never persisted across cycles.
type OrchestratorStatus struct {
	Name           string    `json:"name"`
	Active         bool      `json:"active"`
	Healthy        bool      `json:"healthy"`
	EventCount     int64     `json:"event_count"`
	LastActivity   time.Time `json:"last_activity,omitempty"`
	ResponseTimeMS float64   `json:"response_time_ms,omitempty"`
	ErrorCount     int64     `json:"error_count,omitempty"`
}

// EventSystemHealth describes event throughput over the trailing
// window.
type EventSystemHealth struct {
	Healthy         bool  `json:"healthy"`
	RecentEvents    int   `json:"recent_events"`
	OverloadCeiling int   `json:"overload_ceiling"`
	DroppedEvents   int64 `json:"dropped_events"`
	PendingEvents   int   `json:"pending_events"`
}

// MemoryConsistency is the memory dimension as seen by one cycle.
// Known is false when the consistency check itself failed; the counts
// are then meaningless and the dimension is excluded from the score.
type MemoryConsistency struct {
	Known      bool `json:"known"`
	Orphaned   int  `json:"orphaned"`
	Duplicates int  `json:"duplicates"`
	Corrupted  int  `json:"corrupted"`
	Consistent bool `json:"consistent"`
}

// CheckerStatus is the per-health-checker view for one cycle.
type CheckerStatus struct {
	Name      string  `json:"name"`
	Active    bool    `json:"active"`
	LastScore float64 `json:"last_score"`
	HasScore  bool    `json:"has_score"`
}

// SyncStatus is the immutable result of one validation cycle.
// Invariant: Synchronized == (Score >= synced minimum && no critical
// issue).
type SyncStatus struct {
	Synchronized  bool                 `json:"synchronized"`
	Score         float64              `json:"score"`
	Timestamp     time.Time            `json:"timestamp"`
	Issues        []issue.Issue        `json:"issues"`
	Orchestrators []OrchestratorStatus `json:"orchestrators"`
	EventSystem   EventSystemHealth    `json:"event_system"`
	Memory        MemoryConsistency    `json:"memory"`
	HealthSystems []CheckerStatus      `json:"health_systems"`
	Duration      time.Duration        `json:"duration"`
}
