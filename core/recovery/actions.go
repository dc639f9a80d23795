package recovery

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/adalundhe/vigil/core/issue"
)

// =============================================================================
// ActionKind Enum
// =============================================================================

// ActionKind names one concrete remediation step. Actions are selected
// from an issue's kind through a total mapping; free-text fields are
// never parsed on the recovery path.
type ActionKind int

const (
	ActionRebuildEventListeners        ActionKind = 0
	ActionRestartInactiveOrchestrators ActionKind = 1
	ActionResetUnhealthyOrchestrators  ActionKind = 2
	ActionValidateMemoryStores         ActionKind = 3
	ActionCleanupOrphanedMemories      ActionKind = 4
	ActionInitializeHealthSystems      ActionKind = 5
	ActionGenericRecovery              ActionKind = 6
)

// ValidActionKinds returns all valid ActionKind values.
func ValidActionKinds() []ActionKind {
	return []ActionKind{
		ActionRebuildEventListeners,
		ActionRestartInactiveOrchestrators,
		ActionResetUnhealthyOrchestrators,
		ActionValidateMemoryStores,
		ActionCleanupOrphanedMemories,
		ActionInitializeHealthSystems,
		ActionGenericRecovery,
	}
}

// IsValid returns true if the action kind is a recognized value.
func (k ActionKind) IsValid() bool {
	for _, valid := range ValidActionKinds() {
		if k == valid {
			return true
		}
	}
	return false
}

func (k ActionKind) String() string {
	switch k {
	case ActionRebuildEventListeners:
		return "rebuild_event_listeners"
	case ActionRestartInactiveOrchestrators:
		return "restart_inactive_orchestrators"
	case ActionResetUnhealthyOrchestrators:
		return "reset_unhealthy_orchestrators"
	case ActionValidateMemoryStores:
		return "validate_memory_stores"
	case ActionCleanupOrphanedMemories:
		return "cleanup_orphaned_memories"
	case ActionInitializeHealthSystems:
		return "initialize_health_systems"
	case ActionGenericRecovery:
		return "generic_recovery"
	default:
		return fmt.Sprintf("action_kind(%d)", k)
	}
}

func ParseActionKind(value string) (ActionKind, bool) {
	switch value {
	case "rebuild_event_listeners":
		return ActionRebuildEventListeners, true
	case "restart_inactive_orchestrators":
		return ActionRestartInactiveOrchestrators, true
	case "reset_unhealthy_orchestrators":
		return ActionResetUnhealthyOrchestrators, true
	case "validate_memory_stores":
		return ActionValidateMemoryStores, true
	case "cleanup_orphaned_memories":
		return ActionCleanupOrphanedMemories, true
	case "initialize_health_systems":
		return ActionInitializeHealthSystems, true
	case "generic_recovery":
		return ActionGenericRecovery, true
	default:
		return ActionKind(0), false
	}
}

func (k ActionKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *ActionKind) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		if parsed, ok := ParseActionKind(asString); ok {
			*k = parsed
			return nil
		}
		return fmt.Errorf("invalid action kind: %s", asString)
	}

	var asInt int
	if err := json.Unmarshal(data, &asInt); err == nil {
		*k = ActionKind(asInt)
		return nil
	}

	return fmt.Errorf("invalid action kind")
}

// ActionsForIssue maps an issue kind to its remediation steps. The
// mapping is total: kinds without a specific remediation fall through
// to generic_recovery, which records the issue for manual follow-up
// instead of failing.
func ActionsForIssue(kind issue.Kind) []ActionKind {
	switch kind {
	case issue.KindEventSystemUnhealthy:
		return []ActionKind{ActionRebuildEventListeners}
	case issue.KindOrchestratorInactive:
		return []ActionKind{ActionRestartInactiveOrchestrators}
	case issue.KindAgentUnderperforming:
		return []ActionKind{ActionResetUnhealthyOrchestrators}
	case issue.KindMemoryInconsistent:
		return []ActionKind{ActionValidateMemoryStores}
	case issue.KindOrphanedMemories:
		return []ActionKind{ActionCleanupOrphanedMemories}
	case issue.KindHealthCheckerInactive:
		return []ActionKind{ActionInitializeHealthSystems}
	default:
		return []ActionKind{ActionGenericRecovery}
	}
}

// =============================================================================
// ActionStatus
// =============================================================================

// ActionStatus is the per-action state machine:
// pending -> in_progress -> {completed | failed}. Transitions are
// monotonic; both end states are terminal.
type ActionStatus int

const (
	StatusPending    ActionStatus = 0
	StatusInProgress ActionStatus = 1
	StatusCompleted  ActionStatus = 2
	StatusFailed     ActionStatus = 3
)

func (s ActionStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusInProgress:
		return "in_progress"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("action_status(%d)", s)
	}
}

// Terminal returns true once an action can no longer change state.
func (s ActionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

func (s ActionStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// =============================================================================
// RecoveryAction / RecoveryResult
// =============================================================================

// RecoveryAction is one remediation step within a recovery cycle.
// Immutable once terminal.
type RecoveryAction struct {
	ID        string       `json:"id"`
	Kind      ActionKind   `json:"kind"`
	Issue     issue.Issue  `json:"issue"`
	Status    ActionStatus `json:"status"`
	StartedAt time.Time    `json:"started_at,omitempty"`
	EndedAt   time.Time    `json:"ended_at,omitempty"`
	Result    string       `json:"result,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// RecoveryResult aggregates one recovery cycle. Success requires at
// least one succeeded action and zero failures; Skipped counts issues
// dropped at the auto-recoverable filter.
type RecoveryResult struct {
	CycleID   string           `json:"cycle_id"`
	StartedAt time.Time        `json:"started_at"`
	Duration  time.Duration    `json:"duration"`
	Attempted int              `json:"attempted"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Skipped   int              `json:"skipped"`
	Success   bool             `json:"success"`
	Actions   []RecoveryAction `json:"actions"`
}
