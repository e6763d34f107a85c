// Package handler implements the three inbound adapter types spec §4.8
// names — ActionHandler, NavigationHandler, QueryHandler — binding
// user-supplied callbacks to the eventbus families the order package and
// validation pipeline dispatch on.
package handler

import (
	"context"
	"sync"

	"github.com/vda5050go/core/eventbus"
	"github.com/vda5050go/core/validate"
	"github.com/vda5050go/core/vda"
)

// SchedulerActionReporter is the subset of order.Scheduler's API an
// ActionState needs to report asynchronous progress (isRunning, isPaused,
// isFinished, isFailed) back into the scheduler. Satisfied by
// *order.Scheduler.
type SchedulerActionReporter interface {
	ActionTransition(ctx context.Context, actionID string, transition vda.ActionTransition) error
}

// ActionState is handed to a prepared action's callbacks, letting user code
// report progress on its own schedule (actions may run long after the
// do_start instruction that invoked OnStart returns).
type ActionState struct {
	action    *vda.Action
	scheduler SchedulerActionReporter
}

// Action returns the underlying, immutable Action.
func (s *ActionState) Action() *vda.Action { return s.action }

func (s *ActionState) SetRunning(ctx context.Context) error {
	return s.scheduler.ActionTransition(ctx, s.action.ActionID, vda.ActRunning())
}

func (s *ActionState) SetPaused(ctx context.Context) error {
	return s.scheduler.ActionTransition(ctx, s.action.ActionID, vda.ActPaused())
}

func (s *ActionState) SetFinished(ctx context.Context, result *string) error {
	return s.scheduler.ActionTransition(ctx, s.action.ActionID, vda.ActFinished(result))
}

func (s *ActionState) SetFailed(ctx context.Context) error {
	return s.scheduler.ActionTransition(ctx, s.action.ActionID, vda.ActFailed())
}

// ActionCallbacks are returned from ActionHandler.Prepare once an action has
// been validated and accepted; the registry invokes whichever of these is
// non-nil as the scheduler issues do_start/do_pause/do_resume/do_cancel
// instructions for the action.
type ActionCallbacks struct {
	OnStart  func(ctx context.Context, state *ActionState) error
	OnPause  func(ctx context.Context, state *ActionState) error
	OnResume func(ctx context.Context, state *ActionState) error
	OnCancel func(ctx context.Context, state *ActionState) error
}

// AgvActionDescription describes one action type, for factsheet publication.
type AgvActionDescription struct {
	ActionType        string
	ActionDescription string
	ActionScopes      []vda.ActionContext
}

// ActionHandler lets user code plug in a custom action type: Match decides
// whether this handler owns action, Validate checks its parameters ahead of
// acceptance, Prepare returns the callbacks that drive the action's
// lifecycle, and Describe feeds the factsheet. Every method runs on a
// bus-worker goroutine; implementations must be thread-safe.
type ActionHandler interface {
	Match(action *vda.Action) bool
	Validate(ctx context.Context, action *vda.Action, actionCtx vda.ActionContext) []string
	Prepare(ctx context.Context, state *ActionState) ActionCallbacks
	Describe() []AgvActionDescription
}

type preparedAction struct {
	state     *ActionState
	callbacks ActionCallbacks
}

// ActionRegistry wires a set of ActionHandlers into bus: it answers
// validate.QueryActionValidate queries by matching against the registered
// handlers (first match wins, mirroring ActionEventHandler::handleValidateEvent's
// linear scan); for an accepted action it runs Prepare right away, during
// validation, and dispatches the resulting callbacks for every later
// instruction on that action id.
type ActionRegistry struct {
	bus       *eventbus.Bus
	scheduler SchedulerActionReporter

	mu       sync.Mutex
	handlers []ActionHandler
	prepared map[string]*preparedAction
}

// NewActionRegistry constructs a registry subscribed to bus's Query family
// for action validation. scheduler receives this registry's outbound
// status reports via the ActionState helper.
func NewActionRegistry(bus *eventbus.Bus, scheduler SchedulerActionReporter) *ActionRegistry {
	r := &ActionRegistry{bus: bus, scheduler: scheduler, prepared: make(map[string]*preparedAction)}
	bus.Query.Subscribe(validate.QueryActionValidate, r.onValidate)
	return r
}

// Register adds h to the set of handlers consulted for incoming actions.
func (r *ActionRegistry) Register(h ActionHandler) {
	r.mu.Lock()
	r.handlers = append(r.handlers, h)
	r.mu.Unlock()
}

// Describe concatenates every registered handler's factsheet description.
func (r *ActionRegistry) Describe() []AgvActionDescription {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []AgvActionDescription
	for _, h := range r.handlers {
		out = append(out, h.Describe()...)
	}
	return out
}

func (r *ActionRegistry) onValidate(e eventbus.QueryEvent) {
	req, ok := e.Request.(validate.ActionValidateRequest)
	if !ok {
		return
	}

	r.mu.Lock()
	var matched ActionHandler
	for _, h := range r.handlers {
		if h.Match(req.Action) {
			matched = h
			break
		}
	}
	r.mu.Unlock()
	if matched == nil {
		// Leave the token unacquired: the pipeline times out to its default
		// "unknown action" error.
		return
	}

	token, ok := req.Result.AcquireToken()
	if !ok {
		return
	}

	ctx := context.Background()
	errs := matched.Validate(ctx, req.Action, req.Action.Context)
	if len(errs) == 0 {
		state := &ActionState{action: req.Action, scheduler: r.scheduler}
		callbacks := matched.Prepare(ctx, state)
		r.mu.Lock()
		r.prepared[req.Action.ActionID] = &preparedAction{state: state, callbacks: callbacks}
		r.mu.Unlock()
		r.bus.Action.Subscribe(req.Action.ActionID, r.onActionEvent)
	}
	_ = token.SetValue(errs)
}

func (r *ActionRegistry) onActionEvent(e eventbus.ActionEvent) {
	r.mu.Lock()
	pa, ok := r.prepared[e.ActionID]
	if ok && e.Forget {
		delete(r.prepared, e.ActionID)
	}
	r.mu.Unlock()
	if !ok || e.Forget {
		return
	}

	ctx := context.Background()
	var cb func(context.Context, *ActionState) error
	switch e.Transition.Type {
	case vda.ActIsInitializing:
		cb = pa.callbacks.OnStart
	case vda.ActDoPause:
		cb = pa.callbacks.OnPause
	case vda.ActDoResume:
		cb = pa.callbacks.OnResume
	case vda.ActDoCancel:
		cb = pa.callbacks.OnCancel
	}
	if cb == nil {
		return
	}
	if err := cb(ctx, pa.state); err != nil {
		_ = pa.state.SetFailed(ctx)
	}
}
