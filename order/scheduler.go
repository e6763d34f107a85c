package order

import (
	"context"
	"fmt"
	"sync"

	"github.com/vda5050go/core/eventbus"
	"github.com/vda5050go/core/interpreter"
	"github.com/vda5050go/core/vda"
)

// SchedulerStateType is the scheduler's top-level hierarchical state machine
// position, mirroring SchedulerStateType in scheduler.h.
type SchedulerStateType int

const (
	SchedIdle SchedulerStateType = iota
	SchedIdlePaused
	SchedActive
	SchedCanceling
	SchedResuming
	SchedPausing
	SchedPaused
	SchedFailed
	SchedInterrupting
)

func (s SchedulerStateType) String() string {
	switch s {
	case SchedIdle:
		return "Idle"
	case SchedIdlePaused:
		return "IdlePaused"
	case SchedActive:
		return "Active"
	case SchedCanceling:
		return "Canceling"
	case SchedResuming:
		return "Resuming"
	case SchedPausing:
		return "Pausing"
	case SchedPaused:
		return "Paused"
	case SchedFailed:
		return "Failed"
	case SchedInterrupting:
		return "Interrupting"
	default:
		return "Unknown"
	}
}

func schedulerIllegal(op, state string) error {
	return vda.NewError(vda.ErrInvalidState, "order", "Scheduler."+op,
		fmt.Sprintf("cannot %s during %s", op, state), nil)
}

// segmentRange is the released-base sequence-id window [first,second] the
// running NavigationTask's goal belongs to, prefetched from the queued
// navigation steps so the driver integration can be warned about upcoming
// segment extensions.
type segmentRange struct{ first, second uint32 }

// InterruptGroup is a batch of instant actions admitted together, mirroring
// YieldInstantActionGroup.
type InterruptGroup struct {
	Actions             []*vda.Action
	BlockingTypeCeiling vda.BlockingType
}

// Scheduler is the top-level per-order orchestrator: it owns every
// ActionTask and the single NavigationTask, consumes the flattened
// interpreter.Event stream (ActionGroup and NavigationStep kinds only —
// the caller leaves the other kinds out; engine.SubmitOrder gives the state
// projection the whole order through SetOrder and forwards graph
// extensions through EnqueueGraphExtension) and reacts to inbound action/navigation
// transitions and instant-action interrupts.
//
// All exported methods take and release access_mutex_'s Go analogue
// (mu) for their own duration; unlike the original's std::optional<Lock>
// passthrough (which lets a caller that already holds the mutex avoid
// re-acquiring it across a cancel()-then-update() cascade), Go's
// sync.Mutex is non-reentrant and the call graph here is static, so the
// cascades are expressed as plain unexported *Locked methods that assume
// the lock is already held, never re-acquiring it themselves.
type Scheduler struct {
	bus *eventbus.Bus

	mu    sync.Mutex
	state SchedulerStateType

	rcvEvtQueue       []interpreter.Event
	rcvInterruptQueue []InterruptGroup

	currentActionBlockingType vda.BlockingType
	currentSegment            *segmentRange

	activeActionTasksByID          map[string]*ActionTask
	runningActionTasksByID         map[string]*ActionTask
	pausedActionTasksByID          map[string]*ActionTask
	navInterruptingActionTasksByID map[string]*ActionTask

	navigationTask *NavigationTask
}

// NewScheduler constructs a Scheduler in the initial Idle state.
func NewScheduler(bus *eventbus.Bus) *Scheduler {
	return &Scheduler{
		bus:                            bus,
		state:                          SchedIdle,
		activeActionTasksByID:          make(map[string]*ActionTask),
		runningActionTasksByID:         make(map[string]*ActionTask),
		pausedActionTasksByID:          make(map[string]*ActionTask),
		navInterruptingActionTasksByID: make(map[string]*ActionTask),
	}
}

// enterState commits next as the current state, mirroring a SchedulerXxx
// subclass's constructor: entering Idle always clears the current segment
// (regardless of notify), and notify controls whether an OrderStatusChanged
// event is dispatched.
func (s *Scheduler) enterState(ctx context.Context, next SchedulerStateType, notify bool) {
	if next == SchedIdle {
		s.currentSegment = nil
	}
	s.state = next
	if notify {
		_ = s.bus.Order.Dispatch(ctx, eventbus.OrderEvent{Kind: eventbus.OrderStatusChanged, Status: next.String()})
	}
}

// Cancel transitions the scheduler toward Canceling (or IdlePaused/Canceling
// depending on current state), cascading into Update if the new state
// demands it.
func (s *Scheduler) Cancel(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked(ctx)
}

// Pause transitions the scheduler toward Pausing/IdlePaused.
func (s *Scheduler) Pause(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pauseLocked(ctx)
}

// Resume transitions the scheduler toward Resuming/Idle.
func (s *Scheduler) Resume(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resumeLocked(ctx)
}

// Update re-evaluates the current state's tasks, cascading until the state
// stabilizes.
func (s *Scheduler) Update(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(ctx)
}

// GetState reports the current top-level state.
func (s *Scheduler) GetState() SchedulerStateType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Describe returns the current state's name, for logging.
func (s *Scheduler) Describe() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.String()
}

// ActionTransition applies transition to the active action task named
// actionID, then re-evaluates.
func (s *Scheduler) ActionTransition(ctx context.Context, actionID string, transition vda.ActionTransition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.activeActionTasksByID[actionID]
	if !ok {
		return vda.NewError(vda.ErrInvalidArgument, "order", "Scheduler.ActionTransition",
			fmt.Sprintf("no known active action task with action id %s", actionID), nil)
	}
	if err := task.Apply(ctx, s.bus, transition); err != nil {
		return err
	}
	return s.updateLocked(ctx)
}

// NavigationTransition applies transition to the current NavigationTask,
// then re-evaluates.
func (s *Scheduler) NavigationTransition(ctx context.Context, transition vda.NavigationTransition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.navigationTask == nil {
		return vda.NewError(vda.ErrNullPointer, "order", "Scheduler.NavigationTransition", "no active navigation task", nil)
	}
	if err := s.navigationTask.Apply(ctx, s.bus, transition); err != nil {
		return err
	}
	return s.updateLocked(ctx)
}

// EnqueueInterruptActions admits a batch of instant actions for interrupt
// handling, driving the state machine into (or further through)
// Interrupting.
func (s *Scheduler) EnqueueInterruptActions(ctx context.Context, group InterruptGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rcvInterruptQueue = append(s.rcvInterruptQueue, group)

	next, notify, update, err := s.interruptOp(ctx)
	if err != nil {
		return err
	}
	s.enterState(ctx, next, notify)
	if update {
		return s.updateLocked(ctx)
	}
	return nil
}

// EnqueueGraphExtension reports that an order-update extension released
// newNodes/newEdges onto the end of the existing base, dispatching an
// outward NavBaseIncreased notification so the navigation handler adapter
// (and, downstream, the driver integration) learns of the new horizon
// without waiting on a navigation step to reach it.
func (s *Scheduler) EnqueueGraphExtension(ctx context.Context, newNodes []*vda.Node, newEdges []*vda.Edge) error {
	return s.bus.Navigation.Dispatch(ctx, eventbus.NavigationEvent{
		Kind:     eventbus.NavBaseIncreased,
		NewNodes: newNodes,
		NewEdges: newEdges,
	})
}

// Enqueue admits an interpreter.Event (ActionGroup or NavigationStep kind)
// into the fetch queue. Deliberately does not cascade into Update, so the
// caller can accumulate every event yielded by one interpreter pass before
// asking the scheduler to act on them.
func (s *Scheduler) Enqueue(evt interpreter.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rcvEvtQueue = append(s.rcvEvtQueue, evt)
}

func (s *Scheduler) cancelLocked(ctx context.Context) error {
	next, notify, update, err := s.cancelOp(ctx)
	if err != nil {
		return err
	}
	s.enterState(ctx, next, notify)
	if update {
		return s.updateLocked(ctx)
	}
	return nil
}

func (s *Scheduler) pauseLocked(ctx context.Context) error {
	next, notify, update, err := s.pauseOp(ctx)
	if err != nil {
		return err
	}
	s.enterState(ctx, next, notify)
	if update {
		return s.updateLocked(ctx)
	}
	return nil
}

func (s *Scheduler) resumeLocked(ctx context.Context) error {
	next, notify, update, err := s.resumeOp(ctx)
	if err != nil {
		return err
	}
	s.enterState(ctx, next, notify)
	if update {
		return s.updateLocked(ctx)
	}
	return nil
}

func (s *Scheduler) updateLocked(ctx context.Context) error {
	next, notify, again, err := s.updateOp(ctx)
	if err != nil {
		return err
	}
	s.enterState(ctx, next, notify)
	if again {
		return s.updateLocked(ctx)
	}
	return nil
}

// cancelOp mirrors each SchedulerXxx::cancel() override, returning
// (nextState, notify, cascadeUpdate, err).
func (s *Scheduler) cancelOp(ctx context.Context) (SchedulerStateType, bool, bool, error) {
	switch s.state {
	case SchedIdle:
		return s.state, false, false, schedulerIllegal("cancel", "idle")

	case SchedIdlePaused:
		// Just clear the queues, since no tasks run anyway.
		s.clearQueues(ctx)
		return SchedIdlePaused, false, false, nil

	case SchedActive, SchedPaused:
		// SchedulerPaused::cancel() literally delegates to a temporary
		// SchedulerActive's cancel() body; both states share this logic.
		for _, task := range s.activeActionTasksByID {
			_ = task.Apply(ctx, s.bus, vda.ActCancel())
		}
		if nt := s.navigationTask; nt != nil && !nt.IsTerminal() {
			_ = nt.Apply(ctx, s.bus, vda.NavCancel())
		}
		s.clearQueues(ctx)
		return SchedCanceling, true, false, nil

	case SchedCanceling:
		return s.state, false, false, schedulerIllegal("cancel", "canceling")
	case SchedResuming:
		return s.state, false, false, schedulerIllegal("cancel", "resuming")
	case SchedPausing:
		return s.state, false, false, schedulerIllegal("cancel", "pausing")
	case SchedFailed:
		return s.state, false, false, schedulerIllegal("cancel", "failed")
	case SchedInterrupting:
		return s.state, false, false, schedulerIllegal("cancel", "interrupting")
	default:
		return s.state, false, false, schedulerIllegal("cancel", "unknown")
	}
}

// pauseOp mirrors each SchedulerXxx::pause() override.
func (s *Scheduler) pauseOp(ctx context.Context) (SchedulerStateType, bool, bool, error) {
	switch s.state {
	case SchedIdle:
		// Instantly go to idle paused, since no tasks run anyway.
		return SchedIdlePaused, true, false, nil

	case SchedIdlePaused:
		return s.state, false, false, schedulerIllegal("pause", "idle paused")

	case SchedActive:
		for _, task := range s.runningActionTasksByID {
			_ = task.Apply(ctx, s.bus, vda.ActPause())
		}
		if nt := s.navigationTask; nt != nil {
			_ = nt.Apply(ctx, s.bus, vda.NavPause())
		}
		return SchedPausing, true, false, nil

	case SchedCanceling:
		return s.state, false, false, schedulerIllegal("pause", "canceling")
	case SchedResuming:
		return s.state, false, false, schedulerIllegal("pause", "resuming")
	case SchedPausing:
		return s.state, false, false, schedulerIllegal("pause", "pausing")
	case SchedPaused:
		return s.state, false, false, schedulerIllegal("pause", "paused")
	case SchedFailed:
		return s.state, false, false, schedulerIllegal("pause", "failed")
	case SchedInterrupting:
		return s.state, false, false, schedulerIllegal("pause", "interrupting")
	default:
		return s.state, false, false, schedulerIllegal("pause", "unknown")
	}
}

// resumeOp mirrors each SchedulerXxx::resume() override.
func (s *Scheduler) resumeOp(ctx context.Context) (SchedulerStateType, bool, bool, error) {
	switch s.state {
	case SchedIdle:
		return s.state, false, false, schedulerIllegal("resume", "idle")

	case SchedIdlePaused:
		// Instantly resume, since no tasks run anyway.
		return SchedIdle, true, true, nil

	case SchedActive:
		return s.state, false, false, schedulerIllegal("resume", "active")
	case SchedCanceling:
		return s.state, false, false, schedulerIllegal("resume", "canceling")
	case SchedResuming:
		return s.state, false, false, schedulerIllegal("resume", "resuming")
	case SchedPausing:
		return s.state, false, false, schedulerIllegal("resume", "pausing")

	case SchedPaused:
		for _, task := range s.pausedActionTasksByID {
			_ = task.Apply(ctx, s.bus, vda.ActResume())
		}
		if nt := s.navigationTask; nt != nil {
			_ = nt.Apply(ctx, s.bus, vda.NavResume())
		}
		return SchedResuming, true, true, nil

	case SchedFailed:
		return s.state, false, false, schedulerIllegal("resume", "failed")
	case SchedInterrupting:
		return s.state, false, false, schedulerIllegal("resume", "interrupting")
	default:
		return s.state, false, false, schedulerIllegal("resume", "unknown")
	}
}

// interruptOp mirrors each SchedulerXxx::interrupt() override.
func (s *Scheduler) interruptOp(ctx context.Context) (SchedulerStateType, bool, bool, error) {
	switch s.state {
	case SchedIdle:
		s.doInterrupt(ctx)
		return SchedInterrupting, true, true, nil

	case SchedIdlePaused:
		return s.state, false, false, schedulerIllegal("interrupt", "idle paused")

	case SchedActive:
		s.doInterrupt(ctx)
		return SchedInterrupting, true, true, nil

	case SchedCanceling:
		return s.state, false, false, schedulerIllegal("interrupt", "canceling")
	case SchedResuming:
		return s.state, false, false, schedulerIllegal("interrupt", "resuming")
	case SchedPausing:
		return s.state, false, false, schedulerIllegal("interrupt", "pausing")
	case SchedPaused:
		return s.state, false, false, schedulerIllegal("interrupt", "paused")
	case SchedFailed:
		return s.state, false, false, schedulerIllegal("interrupt", "failed")
	case SchedInterrupting:
		return s.state, false, false, schedulerIllegal("interrupt", "interrupting")
	default:
		return s.state, false, false, schedulerIllegal("interrupt", "unknown")
	}
}

// updateOp mirrors each SchedulerXxx::update() override.
func (s *Scheduler) updateOp(ctx context.Context) (SchedulerStateType, bool, bool, error) {
	switch s.state {
	case SchedIdle:
		s.updateFetchNext(ctx)
		if s.navigationTask != nil || len(s.activeActionTasksByID) != 0 {
			return SchedActive, true, false, nil
		}
		return SchedIdle, false, false, nil

	case SchedIdlePaused:
		// Nothing to update, since there are no tasks to be updated.
		return SchedIdlePaused, false, false, nil

	case SchedActive:
		s.updateTasks(ctx)
		s.updateTasksInterruptMapping(ctx)
		s.updateFetchNext(ctx)
		if len(s.activeActionTasksByID) == 0 &&
			(s.navigationTask == nil || s.navigationTask.IsTerminal()) {
			return SchedIdle, true, false, nil
		}
		return SchedActive, false, false, nil

	case SchedCanceling:
		s.updateTasks(ctx)
		s.updateTasksInterruptMapping(ctx)
		if len(s.activeActionTasksByID) == 0 && s.navigationTask == nil {
			return SchedIdle, true, false, nil
		}
		return SchedCanceling, false, false, nil

	case SchedResuming:
		s.updateTasks(ctx)
		s.updateTasksInterruptMapping(ctx)
		if len(s.pausedActionTasksByID) != 0 {
			return SchedResuming, false, false, nil
		}
		if nt := s.navigationTask; nt != nil && nt.IsPaused() {
			return SchedResuming, false, false, nil
		}
		return SchedActive, true, true, nil

	case SchedPausing:
		s.updateTasks(ctx)
		s.updateTasksInterruptMapping(ctx)
		if len(s.runningActionTasksByID) != 0 {
			return SchedPausing, false, false, nil
		}
		if nt := s.navigationTask; nt != nil && !nt.IsPaused() {
			return SchedPausing, false, false, nil
		}
		return SchedPaused, true, false, nil

	case SchedPaused:
		s.updateTasks(ctx)
		s.updateTasksInterruptMapping(ctx)
		return SchedPaused, false, false, nil

	case SchedFailed:
		return SchedFailed, false, false, nil

	case SchedInterrupting:
		s.updateTasks(ctx)
		s.updateFetchNextInterrupt(ctx)
		if len(s.rcvInterruptQueue) == 0 {
			// Done activating all interrupt tasks.
			return SchedActive, true, false, nil
		}
		return SchedInterrupting, false, false, nil

	default:
		return s.state, false, false, schedulerIllegal("update", "unknown")
	}
}

// clearQueues drops every queued fetch/interrupt event, dispatching a Forget
// notification for every action id that will now never run.
func (s *Scheduler) clearQueues(ctx context.Context) {
	var forgetIDs []string

	for _, evt := range s.rcvEvtQueue {
		if evt.Kind == interpreter.EventActionGroup {
			for _, a := range evt.ActionGroup {
				forgetIDs = append(forgetIDs, a.ActionID)
			}
		}
	}
	s.rcvEvtQueue = nil

	for _, grp := range s.rcvInterruptQueue {
		for _, a := range grp.Actions {
			forgetIDs = append(forgetIDs, a.ActionID)
		}
	}
	s.rcvInterruptQueue = nil

	for _, id := range forgetIDs {
		_ = s.bus.Action.Dispatch(ctx, eventbus.ActionEvent{ActionID: id, Forget: true})
	}
}

// updateTasks reshuffles each action task between the running/paused/active
// maps according to its current IsPaused/IsTerminal state, and drops the
// navigation task once it turns terminal.
func (s *Scheduler) updateTasks(ctx context.Context) {
	for id, task := range s.runningActionTasksByID {
		if task.IsPaused() && !task.IsTerminal() {
			s.pausedActionTasksByID[id] = task
		}
		if task.IsPaused() || task.IsTerminal() {
			delete(s.runningActionTasksByID, id)
		}
	}

	for id, task := range s.pausedActionTasksByID {
		if !task.IsPaused() && !task.IsTerminal() {
			s.runningActionTasksByID[id] = task
		}
		if !task.IsPaused() || task.IsTerminal() {
			delete(s.pausedActionTasksByID, id)
		}
	}

	for id, task := range s.activeActionTasksByID {
		if task.IsTerminal() {
			delete(s.activeActionTasksByID, id)
		}
	}

	if s.navigationTask != nil && s.navigationTask.IsTerminal() {
		s.navigationTask = nil
	}
}

// updateTasksInterruptMapping drops terminal interrupt-blocking action tasks
// and, once none remain, resumes the navigation task they had paused.
func (s *Scheduler) updateTasksInterruptMapping(ctx context.Context) {
	droppedFromNav := false
	for id, task := range s.navInterruptingActionTasksByID {
		if task.IsTerminal() {
			delete(s.navInterruptingActionTasksByID, id)
			droppedFromNav = true
		}
	}
	if droppedFromNav && len(s.navInterruptingActionTasksByID) == 0 && s.navigationTask != nil {
		_ = s.navigationTask.Apply(ctx, s.bus, vda.NavResume())
	}
}

// updateFetchNext dispatches on the head of rcvEvtQueue, if any.
func (s *Scheduler) updateFetchNext(ctx context.Context) {
	if len(s.rcvEvtQueue) == 0 {
		return
	}

	switch s.rcvEvtQueue[0].Kind {
	case interpreter.EventActionGroup:
		s.updateFetchNextActionGroup(ctx, s.rcvEvtQueue[0])
	case interpreter.EventNavigationStep:
		s.updateFetchNextNavigationStep(ctx, s.rcvEvtQueue[0])
	}
}

// updateFetchNextActionGroup admits evt's action group if no action is
// currently active and (when driving) it is fully non-blocking.
func (s *Scheduler) updateFetchNextActionGroup(ctx context.Context, evt interpreter.Event) {
	if len(s.activeActionTasksByID) != 0 {
		return
	}

	// Only allow actions that are non-blocking if driving.
	if s.navigationTask != nil && evt.ActionGroupBlockType != vda.BlockingNone {
		return
	}

	// Close the current segment, because it won't be increased.
	s.currentSegment = nil

	s.currentActionBlockingType = evt.ActionGroupBlockType
	for _, action := range evt.ActionGroup {
		task := NewActionTask(action)
		s.activeActionTasksByID[action.ActionID] = task
		s.runningActionTasksByID[action.ActionID] = task
		_ = task.Apply(ctx, s.bus, vda.ActStart())
	}

	s.rcvEvtQueue = s.rcvEvtQueue[1:]
	s.updateFetchNext(ctx)
}

// updateFetchNextNavigationStep admits evt's navigation step as a new
// NavigationTask, or patches the currently running one's segment if there
// already is one.
func (s *Scheduler) updateFetchNextNavigationStep(ctx context.Context, evt interpreter.Event) {
	if s.navigationTask != nil {
		// There is already a running navigation task with a segment: extend
		// it and dispatch a patch event instead of starting a new task.
		s.doPatchSegment(ctx)
		return
	}

	if len(s.navInterruptingActionTasksByID) != 0 {
		return
	}

	if len(s.activeActionTasksByID) != 0 && s.currentActionBlockingType != vda.BlockingNone {
		return
	}

	s.navigationTask = NewNavigationTask(evt.GoalNode, evt.ViaEdge)

	if s.currentSegment != nil && s.currentSegment.second >= evt.GoalNode.SequenceID {
		// Segment is already up to date; just proceed with fetching.
		s.rcvEvtQueue = s.rcvEvtQueue[1:]
		_ = s.navigationTask.Apply(ctx, s.bus, vda.NavStart())
		s.updateFetchNext(ctx)
		return
	}

	s.currentSegment = &segmentRange{first: evt.GoalNode.SequenceID, second: evt.GoalNode.SequenceID}

	// Prefetch the max reachable sequence id from the queue.
	for _, pending := range s.rcvEvtQueue {
		if pending.Kind == interpreter.EventNavigationStep {
			s.currentSegment.second = pending.GoalNode.SequenceID
			if pending.StopAtGoalHint {
				break
			}
		}
	}

	s.navigationTask.SetSegment(s.currentSegment.first, s.currentSegment.second)
	_ = s.navigationTask.Apply(ctx, s.bus, vda.NavStart())

	s.rcvEvtQueue = s.rcvEvtQueue[1:]
	s.updateFetchNext(ctx)
}

// doPatchSegment re-scans the queue for the new reachable sequence id and,
// if it grew, dispatches an upcoming-segment notification for the newly
// released range.
func (s *Scheduler) doPatchSegment(ctx context.Context) {
	if s.navigationTask == nil || s.currentSegment == nil {
		return
	}

	oldLast := s.currentSegment.second

	for _, pending := range s.rcvEvtQueue {
		if pending.Kind == interpreter.EventNavigationStep {
			s.currentSegment.second = pending.GoalNode.SequenceID
			if pending.StopAtGoalHint {
				break
			}
		}
	}

	if s.currentSegment.second == oldLast {
		return // Nothing to do.
	}

	_ = s.bus.Navigation.Dispatch(ctx, eventbus.NavigationEvent{
		Kind:            eventbus.NavUpcomingSegment,
		SegmentBeginSeq: oldLast + 1,
		SegmentEndSeq:   s.currentSegment.second,
	})
}

// doInterrupt reacts to admitting the head of rcvInterruptQueue: it pauses
// navigation if the incoming group isn't fully non-blocking, and cancels any
// currently active HARD action (or all active actions, if the incoming
// group itself is HARD).
func (s *Scheduler) doInterrupt(ctx context.Context) {
	if len(s.rcvInterruptQueue) == 0 {
		return
	}
	grp := s.rcvInterruptQueue[0]

	// Only NONE blocking allows driving.
	if grp.BlockingTypeCeiling != vda.BlockingNone && s.navigationTask != nil {
		_ = s.navigationTask.Apply(ctx, s.bus, vda.NavPause())
	}

	// HARD blocking cannot run in parallel.
	for _, task := range s.activeActionTasksByID {
		if grp.BlockingTypeCeiling == vda.BlockingHard || task.Action().Blocking == vda.BlockingHard {
			_ = task.Apply(ctx, s.bus, vda.ActCancel())
		}
	}
}

// updateFetchNextInterrupt admits the head of rcvInterruptQueue once every
// guard (driving state, HARD exclusivity) passes.
func (s *Scheduler) updateFetchNextInterrupt(ctx context.Context) {
	if len(s.rcvInterruptQueue) == 0 {
		return
	}
	grp := s.rcvInterruptQueue[0]

	// Only NONE blocking allows driving.
	if grp.BlockingTypeCeiling != vda.BlockingNone && s.navigationTask != nil && !s.navigationTask.IsPaused() {
		return
	}

	// HARD blocking cannot run in parallel.
	for _, task := range s.activeActionTasksByID {
		if grp.BlockingTypeCeiling == vda.BlockingHard || task.Action().Blocking == vda.BlockingHard {
			return
		}
	}

	s.currentActionBlockingType = grp.BlockingTypeCeiling
	for _, action := range grp.Actions {
		task := NewActionTask(action)
		s.activeActionTasksByID[action.ActionID] = task
		s.runningActionTasksByID[action.ActionID] = task
		if action.Blocking != vda.BlockingNone {
			s.navInterruptingActionTasksByID[action.ActionID] = task
		}
		_ = task.Apply(ctx, s.bus, vda.ActStart())
	}
	s.rcvInterruptQueue = s.rcvInterruptQueue[1:]
}
