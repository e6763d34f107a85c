package order

import (
	"context"
	"fmt"

	"github.com/vda5050go/core/eventbus"
	"github.com/vda5050go/core/vda"
)

// ActionTaskState is the action task's hierarchical state machine position.
type ActionTaskState int

const (
	ActionWaiting ActionTaskState = iota
	ActionInitializing
	ActionInitializingNoEffect
	ActionRunning
	ActionPausing
	ActionResuming
	ActionPaused
	ActionCanceling
	ActionFailed
	ActionFinished
)

func (s ActionTaskState) String() string {
	switch s {
	case ActionWaiting:
		return "ActionWaiting"
	case ActionInitializing:
		return "ActionInitializing"
	case ActionInitializingNoEffect:
		return "ActionInitializingNoEffect"
	case ActionRunning:
		return "ActionRunning"
	case ActionPausing:
		return "ActionPausing"
	case ActionResuming:
		return "ActionResuming"
	case ActionPaused:
		return "ActionPaused"
	case ActionCanceling:
		return "ActionCanceling"
	case ActionFailed:
		return "ActionFailed"
	case ActionFinished:
		return "ActionFinished"
	default:
		return "ActionUnknown"
	}
}

// IsTerminal reports whether s admits no further transitions.
func (s ActionTaskState) IsTerminal() bool { return s == ActionFailed || s == ActionFinished }

// IsPaused reports whether s is the settled paused state.
func (s ActionTaskState) IsPaused() bool { return s == ActionPaused }

// actionTransition is the pure transition function: given the current state
// and an incoming ActionTransition message, it returns the next state or an
// error if the message is illegal in that state. No side effects here by
// design (see ActionTask.Apply for the paired effect step) — mirrors
// ActionState::transition/ActionState::effect being two separate virtuals
// in action_task.cpp.
func actionTransition(s ActionTaskState, t vda.ActionTransition) (ActionTaskState, error) {
	illegal := func() (ActionTaskState, error) {
		return s, vda.NewError(vda.ErrInvalidState, "order", "actionTransition",
			fmt.Sprintf("cannot %s during %s", t.Type, s), nil)
	}

	switch s {
	case ActionWaiting:
		switch t.Type {
		case vda.ActDoStart:
			return ActionInitializing, nil
		case vda.ActDoCancel:
			return ActionCanceling, nil
		}
		return illegal()

	case ActionInitializing, ActionInitializingNoEffect:
		switch t.Type {
		case vda.ActIsFailed:
			return ActionFailed, nil
		case vda.ActIsFinished:
			return ActionFinished, nil
		case vda.ActIsRunning:
			return ActionRunning, nil
		case vda.ActDoCancel:
			return ActionCanceling, nil
		case vda.ActIsInitializing:
			return ActionInitializingNoEffect, nil
		case vda.ActIsPaused:
			return ActionPaused, nil
		case vda.ActDoPause:
			return ActionPausing, nil
		}
		return illegal()

	case ActionRunning:
		switch t.Type {
		case vda.ActIsFailed:
			return ActionFailed, nil
		case vda.ActIsFinished:
			return ActionFinished, nil
		case vda.ActDoPause:
			return ActionPausing, nil
		case vda.ActDoCancel:
			return ActionCanceling, nil
		}
		return illegal()

	case ActionPausing:
		switch t.Type {
		case vda.ActIsFailed:
			return ActionFailed, nil
		case vda.ActIsPaused:
			return ActionPaused, nil
		case vda.ActDoCancel:
			return ActionCanceling, nil
		}
		return illegal()

	case ActionResuming:
		switch t.Type {
		case vda.ActIsFailed:
			return ActionFailed, nil
		case vda.ActIsRunning:
			return ActionRunning, nil
		case vda.ActDoCancel:
			return ActionCanceling, nil
		case vda.ActIsInitializing:
			return ActionInitializingNoEffect, nil
		}
		return illegal()

	case ActionPaused:
		switch t.Type {
		case vda.ActIsFailed:
			return ActionFailed, nil
		case vda.ActDoResume:
			return ActionResuming, nil
		case vda.ActDoCancel:
			return ActionCanceling, nil
		case vda.ActIsInitializing:
			return ActionInitializingNoEffect, nil
		case vda.ActIsRunning:
			return ActionRunning, nil
		}
		return illegal()

	case ActionCanceling:
		switch t.Type {
		case vda.ActIsFailed:
			return ActionFailed, nil
		case vda.ActIsFinished:
			return ActionFinished, nil
		}
		return illegal()

	case ActionFailed, ActionFinished:
		return illegal()

	default:
		return illegal()
	}
}

// actionEffect runs the side effects of having just entered state s,
// mirroring each ActionState subclass's effect() override. result is only
// meaningful when s == ActionFinished.
func actionEffect(ctx context.Context, bus *eventbus.Bus, actionID string, s ActionTaskState, result *string) {
	switch s {
	case ActionInitializing:
		_ = bus.Action.Dispatch(ctx, eventbus.ActionEvent{ActionID: actionID, Transition: vda.ActInitializing()})
		_ = bus.ActionStatus.Dispatch(ctx, eventbus.ActionStatusEvent{
			ActionID: actionID,
			State:     vda.ActionState{ActionID: actionID, Status: vda.StatusInitializing},
		})
	case ActionRunning:
		_ = bus.ActionStatus.Dispatch(ctx, eventbus.ActionStatusEvent{
			ActionID: actionID,
			State:     vda.ActionState{ActionID: actionID, Status: vda.StatusRunning},
		})
	case ActionPausing:
		_ = bus.Action.Dispatch(ctx, eventbus.ActionEvent{ActionID: actionID, Transition: vda.ActPause()})
	case ActionResuming:
		_ = bus.Action.Dispatch(ctx, eventbus.ActionEvent{ActionID: actionID, Transition: vda.ActResume()})
	case ActionPaused:
		_ = bus.ActionStatus.Dispatch(ctx, eventbus.ActionStatusEvent{
			ActionID: actionID,
			State:     vda.ActionState{ActionID: actionID, Status: vda.StatusPaused},
		})
	case ActionCanceling:
		_ = bus.Action.Dispatch(ctx, eventbus.ActionEvent{ActionID: actionID, Transition: vda.ActCancel()})
	case ActionFailed:
		_ = bus.ActionStatus.Dispatch(ctx, eventbus.ActionStatusEvent{
			ActionID: actionID,
			State:     vda.ActionState{ActionID: actionID, Status: vda.StatusFailed},
		})
		_ = bus.Action.Dispatch(ctx, eventbus.ActionEvent{ActionID: actionID, Forget: true})
	case ActionFinished:
		_ = bus.ActionStatus.Dispatch(ctx, eventbus.ActionStatusEvent{
			ActionID: actionID,
			State:     vda.ActionState{ActionID: actionID, Status: vda.StatusFinished, ResultString: result},
		})
		_ = bus.Action.Dispatch(ctx, eventbus.ActionEvent{ActionID: actionID, Forget: true})
	case ActionWaiting, ActionInitializingNoEffect:
		// no effect
	}
}

// ActionTask owns one Action's runtime state machine.
type ActionTask struct {
	action *vda.Action
	state  ActionTaskState
}

// NewActionTask constructs a task in the initial Waiting state.
func NewActionTask(action *vda.Action) *ActionTask {
	return &ActionTask{action: action, state: ActionWaiting}
}

// Action returns the underlying immutable Action.
func (t *ActionTask) Action() *vda.Action { return t.action }

// State returns the task's current state.
func (t *ActionTask) State() ActionTaskState { return t.state }

// IsTerminal reports whether the task has reached Failed or Finished.
func (t *ActionTask) IsTerminal() bool { return t.state.IsTerminal() }

// IsPaused reports whether the task is settled in Paused.
func (t *ActionTask) IsPaused() bool { return t.state.IsPaused() }

// Apply computes the next state for transition, and if legal, commits it
// and runs the corresponding effect against bus. Returns the illegal-
// transition error without mutating state otherwise.
func (t *ActionTask) Apply(ctx context.Context, bus *eventbus.Bus, transition vda.ActionTransition) error {
	next, err := actionTransition(t.state, transition)
	if err != nil {
		return err
	}
	t.state = next
	actionEffect(ctx, bus, t.action.ActionID, next, transition.Result)
	return nil
}
