package issue

import (
	"encoding/json"
	"fmt"
)

// =============================================================================
// Severity Enum
// =============================================================================

// Severity ranks how badly an issue degrades the system.
type Severity int

const (
	SeverityLow      Severity = 0
	SeverityMedium   Severity = 1
	SeverityHigh     Severity = 2
	SeverityCritical Severity = 3
)

// ValidSeverities returns all valid Severity values.
func ValidSeverities() []Severity {
	return []Severity{
		SeverityLow,
		SeverityMedium,
		SeverityHigh,
		SeverityCritical,
	}
}

// IsValid returns true if the severity is a recognized value.
func (s Severity) IsValid() bool {
	for _, valid := range ValidSeverities() {
		if s == valid {
			return true
		}
	}
	return false
}

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return fmt.Sprintf("severity(%d)", s)
	}
}

func ParseSeverity(value string) (Severity, bool) {
	switch value {
	case "low":
		return SeverityLow, true
	case "medium":
		return SeverityMedium, true
	case "high":
		return SeverityHigh, true
	case "critical":
		return SeverityCritical, true
	default:
		return Severity(0), false
	}
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		if parsed, ok := ParseSeverity(asString); ok {
			*s = parsed
			return nil
		}
		return fmt.Errorf("invalid severity: %s", asString)
	}

	var asInt int
	if err := json.Unmarshal(data, &asInt); err == nil {
		*s = Severity(asInt)
		return nil
	}

	return fmt.Errorf("invalid severity")
}

// =============================================================================
// Kind Enum
// =============================================================================

// Kind identifies the class of deviation an issue describes. Recovery
// selects actions from the kind alone, never from free-text fields.
type Kind int

const (
	KindOrchestratorInactive  Kind = 0
	KindOrchestratorUnhealthy Kind = 1
	KindEventSystemUnhealthy  Kind = 2
	KindMemoryInconsistent    Kind = 3
	KindOrphanedMemories      Kind = 4
	KindHealthCheckerInactive Kind = 5
	KindHealthScoreLow        Kind = 6
	KindAgentUnderperforming  Kind = 7
	KindProactiveInaccurate   Kind = 8
	KindRuleInefficient       Kind = 9
	KindSelfTestFailures      Kind = 10
	KindVersionIncompatible   Kind = 11
	KindCollectorUnavailable  Kind = 12
)

// ValidKinds returns all valid Kind values.
func ValidKinds() []Kind {
	return []Kind{
		KindOrchestratorInactive,
		KindOrchestratorUnhealthy,
		KindEventSystemUnhealthy,
		KindMemoryInconsistent,
		KindOrphanedMemories,
		KindHealthCheckerInactive,
		KindHealthScoreLow,
		KindAgentUnderperforming,
		KindProactiveInaccurate,
		KindRuleInefficient,
		KindSelfTestFailures,
		KindVersionIncompatible,
		KindCollectorUnavailable,
	}
}

// IsValid returns true if the kind is a recognized value.
func (k Kind) IsValid() bool {
	for _, valid := range ValidKinds() {
		if k == valid {
			return true
		}
	}
	return false
}

func (k Kind) String() string {
	switch k {
	case KindOrchestratorInactive:
		return "orchestrator_inactive"
	case KindOrchestratorUnhealthy:
		return "orchestrator_unhealthy"
	case KindEventSystemUnhealthy:
		return "event_system_unhealthy"
	case KindMemoryInconsistent:
		return "memory_inconsistent"
	case KindOrphanedMemories:
		return "orphaned_memories"
	case KindHealthCheckerInactive:
		return "health_checker_inactive"
	case KindHealthScoreLow:
		return "health_score_low"
	case KindAgentUnderperforming:
		return "agent_underperforming"
	case KindProactiveInaccurate:
		return "proactive_inaccurate"
	case KindRuleInefficient:
		return "rule_inefficient"
	case KindSelfTestFailures:
		return "selftest_failures"
	case KindVersionIncompatible:
		return "version_incompatible"
	case KindCollectorUnavailable:
		return "collector_unavailable"
	default:
		return fmt.Sprintf("issue_kind(%d)", k)
	}
}

func ParseKind(value string) (Kind, bool) {
	switch value {
	case "orchestrator_inactive":
		return KindOrchestratorInactive, true
	case "orchestrator_unhealthy":
		return KindOrchestratorUnhealthy, true
	case "event_system_unhealthy":
		return KindEventSystemUnhealthy, true
	case "memory_inconsistent":
		return KindMemoryInconsistent, true
	case "orphaned_memories":
		return KindOrphanedMemories, true
	case "health_checker_inactive":
		return KindHealthCheckerInactive, true
	case "health_score_low":
		return KindHealthScoreLow, true
	case "agent_underperforming":
		return KindAgentUnderperforming, true
	case "proactive_inaccurate":
		return KindProactiveInaccurate, true
	case "rule_inefficient":
		return KindRuleInefficient, true
	case "selftest_failures":
		return KindSelfTestFailures, true
	case "version_incompatible":
		return KindVersionIncompatible, true
	case "collector_unavailable":
		return KindCollectorUnavailable, true
	default:
		return Kind(0), false
	}
}

func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *Kind) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		if parsed, ok := ParseKind(asString); ok {
			*k = parsed
			return nil
		}
		return fmt.Errorf("invalid issue kind: %s", asString)
	}

	var asInt int
	if err := json.Unmarshal(data, &asInt); err == nil {
		*k = Kind(asInt)
		return nil
	}

	return fmt.Errorf("invalid issue kind")
}

// =============================================================================
// Issue
// =============================================================================

// Issue is a typed, severity-tagged deviation from expected state.
// Issues are plain values recomputed fully on every validation cycle;
// an issue from one cycle has no identity relationship to the next.
type Issue struct {
	Kind            Kind     `json:"kind"`
	Severity        Severity `json:"severity"`
	Component       string   `json:"component"`
	Description     string   `json:"description"`
	Impact          string   `json:"impact"`
	AutoRecoverable bool     `json:"auto_recoverable"`
	Recommendation  string   `json:"recommendation"`
}

// CountBySeverity returns how many issues in the list carry the given severity.
func CountBySeverity(issues []Issue, severity Severity) int {
	count := 0
	for _, iss := range issues {
		if iss.Severity == severity {
			count++
		}
	}
	return count
}

// HasCritical returns true if any issue in the list is critical.
func HasCritical(issues []Issue) bool {
	return CountBySeverity(issues, SeverityCritical) > 0
}

// AutoRecoverableOnly returns the subset of issues safe for automated recovery.
func AutoRecoverableOnly(issues []Issue) []Issue {
	recoverable := make([]Issue, 0, len(issues))
	for _, iss := range issues {
		if iss.AutoRecoverable {
			recoverable = append(recoverable, iss)
		}
	}
	return recoverable
}
