package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/adalundhe/vigil/core/issue"
	"github.com/google/uuid"
)

// =============================================================================
// EventKind Enum
// =============================================================================

// EventKind represents the type of occurrence signal in the system.
type EventKind int

const (
	// Collaborator occurrence signals
	KindAgentActivated  EventKind = 0
	KindAgentsCompleted EventKind = 1
	KindAgentsFailed    EventKind = 2
	KindPatternDetected EventKind = 3
	KindPRCreated       EventKind = 4
	KindMemoryStored    EventKind = 5
	KindMemoryPruned    EventKind = 6
	KindCacheHit        EventKind = 7
	KindCacheMiss       EventKind = 8

	// Core-emitted completion and alert signals
	KindHealthCycleComplete EventKind = 9
	KindSyncCycleComplete   EventKind = 10
	KindCriticalIssues      EventKind = 11
	KindRecoveryComplete    EventKind = 12
)

// CollaboratorKinds returns the signal kinds emitted by external
// orchestrators, i.e. the kinds the registry infers liveness from.
func CollaboratorKinds() []EventKind {
	return []EventKind{
		KindAgentActivated,
		KindAgentsCompleted,
		KindAgentsFailed,
		KindPatternDetected,
		KindPRCreated,
		KindMemoryStored,
		KindMemoryPruned,
		KindCacheHit,
		KindCacheMiss,
	}
}

// ValidEventKinds returns all valid EventKind values.
func ValidEventKinds() []EventKind {
	return []EventKind{
		KindAgentActivated,
		KindAgentsCompleted,
		KindAgentsFailed,
		KindPatternDetected,
		KindPRCreated,
		KindMemoryStored,
		KindMemoryPruned,
		KindCacheHit,
		KindCacheMiss,
		KindHealthCycleComplete,
		KindSyncCycleComplete,
		KindCriticalIssues,
		KindRecoveryComplete,
	}
}

// IsValid returns true if the event kind is a recognized value.
func (k EventKind) IsValid() bool {
	for _, valid := range ValidEventKinds() {
		if k == valid {
			return true
		}
	}
	return false
}

func (k EventKind) String() string {
	switch k {
	case KindAgentActivated:
		return "agent_activated"
	case KindAgentsCompleted:
		return "agents_completed"
	case KindAgentsFailed:
		return "agents_failed"
	case KindPatternDetected:
		return "pattern_detected"
	case KindPRCreated:
		return "pr_created"
	case KindMemoryStored:
		return "memory_stored"
	case KindMemoryPruned:
		return "memory_pruned"
	case KindCacheHit:
		return "cache_hit"
	case KindCacheMiss:
		return "cache_miss"
	case KindHealthCycleComplete:
		return "health_cycle_complete"
	case KindSyncCycleComplete:
		return "sync_cycle_complete"
	case KindCriticalIssues:
		return "critical_issues"
	case KindRecoveryComplete:
		return "recovery_complete"
	default:
		return fmt.Sprintf("event_kind(%d)", k)
	}
}

func ParseEventKind(value string) (EventKind, bool) {
	switch value {
	case "agent_activated":
		return KindAgentActivated, true
	case "agents_completed":
		return KindAgentsCompleted, true
	case "agents_failed":
		return KindAgentsFailed, true
	case "pattern_detected":
		return KindPatternDetected, true
	case "pr_created":
		return KindPRCreated, true
	case "memory_stored":
		return KindMemoryStored, true
	case "memory_pruned":
		return KindMemoryPruned, true
	case "cache_hit":
		return KindCacheHit, true
	case "cache_miss":
		return KindCacheMiss, true
	case "health_cycle_complete":
		return KindHealthCycleComplete, true
	case "sync_cycle_complete":
		return KindSyncCycleComplete, true
	case "critical_issues":
		return KindCriticalIssues, true
	case "recovery_complete":
		return KindRecoveryComplete, true
	default:
		return EventKind(0), false
	}
}

func (k EventKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *EventKind) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		if parsed, ok := ParseEventKind(asString); ok {
			*k = parsed
			return nil
		}
		return fmt.Errorf("invalid event kind: %s", asString)
	}

	var asInt int
	if err := json.Unmarshal(data, &asInt); err == nil {
		*k = EventKind(asInt)
		return nil
	}

	return fmt.Errorf("invalid event kind")
}

// =============================================================================
// Typed Payloads
// =============================================================================

// AgentPayload accompanies agent_activated / agents_completed /
// agents_failed signals.
type AgentPayload struct {
	AgentID   string        `json:"agent_id"`
	TaskCount int           `json:"task_count,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// PatternPayload accompanies pattern_detected signals.
type PatternPayload struct {
	PatternName string  `json:"pattern_name"`
	FilePath    string  `json:"file_path,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
}

// ReviewPayload accompanies pr_created signals.
type ReviewPayload struct {
	PRNumber   int    `json:"pr_number"`
	Repository string `json:"repository,omitempty"`
}

// MemoryPayload accompanies memory_stored / memory_pruned signals.
type MemoryPayload struct {
	Store   string `json:"store"`
	Entries int    `json:"entries,omitempty"`
}

// CyclePayload accompanies health_cycle_complete / sync_cycle_complete
// signals.
type CyclePayload struct {
	Score      float64       `json:"score"`
	IssueCount int           `json:"issue_count"`
	Duration   time.Duration `json:"duration"`
}

// CriticalPayload accompanies critical_issues signals and carries the
// full issue list so subscribers never need to re-query the validator.
type CriticalPayload struct {
	Issues []issue.Issue `json:"issues"`
}

// RecoveryPayload accompanies recovery_complete signals.
type RecoveryPayload struct {
	CycleID   string        `json:"cycle_id"`
	Attempted int           `json:"attempted"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Success   bool          `json:"success"`
	Duration  time.Duration `json:"duration"`
}

// =============================================================================
// Event
// =============================================================================

// Event is a single occurrence signal. Exactly one payload field is
// set, matched to the kind; consumers switch on Kind and read the
// corresponding field rather than asserting on loose maps.
type Event struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`

	Agent    *AgentPayload    `json:"agent,omitempty"`
	Pattern  *PatternPayload  `json:"pattern,omitempty"`
	Review   *ReviewPayload   `json:"review,omitempty"`
	Memory   *MemoryPayload   `json:"memory,omitempty"`
	Cycle    *CyclePayload    `json:"cycle,omitempty"`
	Critical *CriticalPayload `json:"critical,omitempty"`
	Recovery *RecoveryPayload `json:"recovery,omitempty"`
}

// NewEvent creates an Event with the given kind and source. The event
// is assigned a unique ID and the current timestamp; the caller
// attaches the payload matching the kind.
func NewEvent(kind EventKind, source string) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Kind:      kind,
		Timestamp: time.Now(),
		Source:    source,
	}
}
