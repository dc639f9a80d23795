package recovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/adalundhe/vigil/core/config"
	"github.com/adalundhe/vigil/core/events"
	"github.com/adalundhe/vigil/core/issue"
	"github.com/google/uuid"
)

var (
	// ErrRecoveryInProgress is returned when a recovery cycle is
	// requested while another is still executing. Requests are never
	// queued: recovery actions mutate shared subsystem state and must
	// not interleave.
	ErrRecoveryInProgress = errors.New("recovery already in progress")

	// ErrMissingRemediator indicates the orchestrator was constructed
	// without the interface that performs the actual remediation.
	ErrMissingRemediator = errors.New("recovery orchestrator requires a remediator")
)

// Remediator performs the concrete remediation steps. Implemented by
// the embedding process, which owns the collaborator handles.
type Remediator interface {
	RebuildEventListeners(ctx context.Context) error
	RestartOrchestrator(ctx context.Context, name string) error
	ResetOrchestrator(ctx context.Context, name string) error
	ValidateMemoryStores(ctx context.Context) error
	CleanupOrphanedMemories(ctx context.Context) error
	InitializeHealthSystems(ctx context.Context) error
}

// Orchestrator builds and executes recovery plans for auto-recoverable
// issues. One cycle at a time, actions strictly serial; a failing
// action never stops the ones after it.
type Orchestrator struct {
	remediator    Remediator
	bus           *events.Bus
	logger        *slog.Logger
	actionTimeout time.Duration
	history       *RingBuffer[RecoveryResult]
	inProgress    atomic.Bool
}

func New(remediator Remediator, cfg config.RecoveryConfig, bus *events.Bus, logger *slog.Logger) (*Orchestrator, error) {
	if remediator == nil {
		return nil, ErrMissingRemediator
	}

	return &Orchestrator{
		remediator:    remediator,
		bus:           bus,
		logger:        logger,
		actionTimeout: cfg.ActionTimeout,
		history:       NewRingBuffer[RecoveryResult](cfg.HistoryCapacity),
	}, nil
}

// InProgress reports whether a recovery cycle is currently executing.
func (o *Orchestrator) InProgress() bool {
	return o.inProgress.Load()
}

// History returns the retained recovery results, oldest first.
func (o *Orchestrator) History() []RecoveryResult {
	return o.history.All()
}

// LastResult returns the most recent recovery result.
func (o *Orchestrator) LastResult() (RecoveryResult, bool) {
	return o.history.Newest()
}

// InitiateRecovery runs one recovery cycle over the given issues.
// Only auto-recoverable issues produce actions; with none, the result
// records zero attempts. A second call while a cycle is executing
// fails immediately with ErrRecoveryInProgress.
func (o *Orchestrator) InitiateRecovery(ctx context.Context, issues []issue.Issue) (RecoveryResult, error) {
	if !o.inProgress.CompareAndSwap(false, true) {
		return RecoveryResult{}, ErrRecoveryInProgress
	}
	defer o.inProgress.Store(false)

	started := time.Now()
	recoverable := issue.AutoRecoverableOnly(issues)

	result := RecoveryResult{
		CycleID:   uuid.New().String(),
		StartedAt: started,
		Skipped:   len(issues) - len(recoverable),
	}

	o.logger.Info("recovery cycle started",
		"cycle", result.CycleID,
		"issues", len(issues),
		"recoverable", len(recoverable),
	)

	result.Actions = o.buildPlan(recoverable)
	result.Attempted = len(result.Actions)

	for i := range result.Actions {
		o.execute(ctx, &result.Actions[i])
		if result.Actions[i].Status == StatusCompleted {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}

	result.Duration = time.Since(started)
	result.Success = result.Succeeded > 0 && result.Failed == 0

	o.history.Push(result)
	o.publishComplete(result)

	o.logger.Info("recovery cycle complete",
		"cycle", result.CycleID,
		"attempted", result.Attempted,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"success", result.Success,
	)

	return result, nil
}

func (o *Orchestrator) buildPlan(recoverable []issue.Issue) []RecoveryAction {
	actions := make([]RecoveryAction, 0, len(recoverable))
	for _, iss := range recoverable {
		for _, kind := range ActionsForIssue(iss.Kind) {
			actions = append(actions, RecoveryAction{
				ID:     uuid.New().String(),
				Kind:   kind,
				Issue:  iss,
				Status: StatusPending,
			})
		}
	}
	return actions
}

// execute runs a single action under the per-action deadline. A
// handler that returns an error, panics, or outlives the deadline
// marks the action failed; execution of later actions continues
// regardless.
func (o *Orchestrator) execute(ctx context.Context, action *RecoveryAction) {
	action.Status = StatusInProgress
	action.StartedAt = time.Now()

	actionCtx, cancel := context.WithTimeout(ctx, o.actionTimeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				errCh <- fmt.Errorf("action panicked: %v", r)
			}
		}()
		errCh <- o.dispatch(actionCtx, action)
	}()

	var err error
	select {
	case err = <-errCh:
	case <-actionCtx.Done():
		err = fmt.Errorf("action timed out after %s", o.actionTimeout)
	}

	action.EndedAt = time.Now()
	if err != nil {
		action.Status = StatusFailed
		action.Error = err.Error()
		o.logger.Warn("recovery action failed",
			"action", action.Kind,
			"component", action.Issue.Component,
			"error", err,
		)
		return
	}

	action.Status = StatusCompleted
	action.Result = fmt.Sprintf("%s completed for %s", action.Kind, action.Issue.Component)
}

func (o *Orchestrator) dispatch(ctx context.Context, action *RecoveryAction) error {
	switch action.Kind {
	case ActionRebuildEventListeners:
		return o.remediator.RebuildEventListeners(ctx)
	case ActionRestartInactiveOrchestrators:
		return o.remediator.RestartOrchestrator(ctx, action.Issue.Component)
	case ActionResetUnhealthyOrchestrators:
		return o.remediator.ResetOrchestrator(ctx, action.Issue.Component)
	case ActionValidateMemoryStores:
		return o.remediator.ValidateMemoryStores(ctx)
	case ActionCleanupOrphanedMemories:
		return o.remediator.CleanupOrphanedMemories(ctx)
	case ActionInitializeHealthSystems:
		return o.remediator.InitializeHealthSystems(ctx)
	case ActionGenericRecovery:
		// No specific remediation exists; record for manual follow-up.
		o.logger.Warn("no automated remediation, manual follow-up needed",
			"component", action.Issue.Component,
			"description", action.Issue.Description,
			"recommendation", action.Issue.Recommendation,
		)
		return nil
	default:
		return fmt.Errorf("unknown action kind: %s", action.Kind)
	}
}

func (o *Orchestrator) publishComplete(result RecoveryResult) {
	if o.bus == nil {
		return
	}

	event := events.NewEvent(events.KindRecoveryComplete, "recovery-orchestrator")
	event.Recovery = &events.RecoveryPayload{
		CycleID:   result.CycleID,
		Attempted: result.Attempted,
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
		Skipped:   result.Skipped,
		Success:   result.Success,
		Duration:  result.Duration,
	}
	o.bus.Publish(event)
}

// =============================================================================
// Bus wiring
// =============================================================================

// criticalSubscriber reacts to critical-issue notifications by kicking
// off a recovery cycle. The cycle runs on its own goroutine so bus
// dispatch is never blocked; an already-running cycle makes the
// notification a no-op.
type criticalSubscriber struct {
	orchestrator *Orchestrator
}

// SubscribeCritical wires the orchestrator to critical-issue
// notifications on the bus.
func SubscribeCritical(bus *events.Bus, orchestrator *Orchestrator) {
	bus.Subscribe(&criticalSubscriber{orchestrator: orchestrator})
}

func (s *criticalSubscriber) ID() string {
	return "recovery-orchestrator"
}

func (s *criticalSubscriber) Kinds() []events.EventKind {
	return []events.EventKind{events.KindCriticalIssues}
}

func (s *criticalSubscriber) OnEvent(event *events.Event) error {
	if event.Critical == nil {
		return nil
	}

	issues := event.Critical.Issues
	go func() {
		if _, err := s.orchestrator.InitiateRecovery(context.Background(), issues); err != nil {
			s.orchestrator.logger.Warn("recovery not started", "error", err)
		}
	}()
	return nil
}
