package order

import (
	"context"
	"fmt"

	"github.com/vda5050go/core/eventbus"
	"github.com/vda5050go/core/vda"
)

// NavigationTaskState is the navigation task's hierarchical state machine
// position; exactly one NavigationTask is ever active at a time.
type NavigationTaskState int

const (
	NavWaiting NavigationTaskState = iota
	NavFirstInProgress
	NavInProgress
	NavPausing
	NavPaused
	NavResuming
	NavCanceling
	NavFailed
	NavDone
)

func (s NavigationTaskState) String() string {
	switch s {
	case NavWaiting:
		return "NavigationWaiting"
	case NavFirstInProgress:
		return "NavigationFirstInProgress"
	case NavInProgress:
		return "NavigationInProgress"
	case NavPausing:
		return "NavigationPausing"
	case NavPaused:
		return "NavigationPaused"
	case NavResuming:
		return "NavigationResuming"
	case NavCanceling:
		return "NavigationCanceling"
	case NavFailed:
		return "NavigationFailed"
	case NavDone:
		return "NavigationDone"
	default:
		return "NavigationUnknown"
	}
}

func (s NavigationTaskState) IsTerminal() bool { return s == NavFailed || s == NavDone }
func (s NavigationTaskState) IsPaused() bool   { return s == NavPaused }

// navigationTransition is the pure transition function, mirroring each
// NavigationState subclass's transfer() in navigation_task.cpp. goalSeqID
// is the active task's goal node sequence id, needed to judge k_to_seq_id.
func navigationTransition(s NavigationTaskState, t vda.NavigationTransition, goalSeqID uint32) (NavigationTaskState, error) {
	illegal := func() (NavigationTaskState, error) {
		return s, vda.NewError(vda.ErrInvalidState, "order", "navigationTransition",
			fmt.Sprintf("cannot %s during %s", t.Type, s), nil)
	}
	toSeq := func() (NavigationTaskState, bool) {
		if t.Type == vda.NavToSeqID && t.SeqID == goalSeqID {
			return NavDone, true
		}
		return s, false
	}

	switch s {
	case NavWaiting:
		switch t.Type {
		case vda.NavDoCancel:
			return NavCanceling, nil
		case vda.NavDoStart:
			return NavFirstInProgress, nil
		case vda.NavIsFailed:
			return NavFailed, nil
		}
		return illegal()

	case NavFirstInProgress, NavInProgress:
		switch t.Type {
		case vda.NavDoCancel:
			return NavCanceling, nil
		case vda.NavDoPause:
			return NavPausing, nil
		case vda.NavIsFailed:
			return NavFailed, nil
		case vda.NavIsPaused:
			return NavPaused, nil
		case vda.NavToSeqID:
			if next, ok := toSeq(); ok {
				return next, nil
			}
		}
		return illegal()

	case NavPausing:
		switch t.Type {
		case vda.NavDoCancel:
			return NavCanceling, nil
		case vda.NavIsPaused:
			return NavPaused, nil
		case vda.NavIsFailed:
			return NavFailed, nil
		case vda.NavToSeqID:
			if next, ok := toSeq(); ok {
				return next, nil
			}
		}
		return illegal()

	case NavPaused:
		switch t.Type {
		case vda.NavDoCancel:
			return NavCanceling, nil
		case vda.NavDoResume:
			return NavResuming, nil
		case vda.NavIsResumed:
			return NavInProgress, nil
		case vda.NavIsFailed:
			return NavFailed, nil
		}
		return illegal()

	case NavResuming:
		switch t.Type {
		case vda.NavDoCancel:
			return NavCanceling, nil
		case vda.NavIsResumed:
			return NavInProgress, nil
		case vda.NavIsFailed:
			return NavFailed, nil
		case vda.NavIsPaused:
			return NavPaused, nil
		}
		return illegal()

	case NavCanceling:
		switch t.Type {
		case vda.NavIsFailed:
			return NavFailed, nil
		case vda.NavToSeqID:
			if next, ok := toSeq(); ok {
				return next, nil
			}
		}
		return illegal()

	case NavFailed, NavDone:
		return illegal()

	default:
		return illegal()
	}
}

// navigationEffect runs the side effects of entering state s, mirroring the
// NavigationState subclasses' effect() overrides.
func navigationEffect(ctx context.Context, bus *eventbus.Bus, task *NavigationTask, s NavigationTaskState) {
	switch s {
	case NavFirstInProgress:
		_ = bus.Navigation.Dispatch(ctx, eventbus.NavigationEvent{
			Kind: eventbus.NavNextNode, NextNode: task.goal, ViaEdge: task.via,
		})
		if task.segmentBeginSeq != nil {
			_ = bus.Navigation.Dispatch(ctx, eventbus.NavigationEvent{
				Kind:            eventbus.NavUpcomingSegment,
				SegmentBeginSeq: *task.segmentBeginSeq,
				SegmentEndSeq:   *task.segmentEndSeq,
			})
		}
	case NavPausing:
		_ = bus.Navigation.Dispatch(ctx, eventbus.NavigationEvent{Kind: eventbus.NavControlPause})
	case NavResuming:
		_ = bus.Navigation.Dispatch(ctx, eventbus.NavigationEvent{Kind: eventbus.NavControlResume})
	case NavCanceling:
		_ = bus.Navigation.Dispatch(ctx, eventbus.NavigationEvent{Kind: eventbus.NavControlCancel})
	case NavDone:
		_ = bus.Order.DispatchSync(ctx, eventbus.OrderEvent{
			Kind:        eventbus.OrderNewLastNodeID,
			LastNodeID:  task.goal.NodeID,
			LastNodeSeq: task.goal.SequenceID,
		})
	case NavWaiting, NavInProgress, NavPaused, NavFailed:
		// no effect
	}
}

// NavigationTask drives a single goal-node/via-edge navigation step. Exactly
// one exists at a time, owned by the scheduler.
type NavigationTask struct {
	state NavigationTaskState
	goal  *vda.Node
	via   *vda.Edge

	segmentBeginSeq *uint32
	segmentEndSeq   *uint32
}

// NewNavigationTask constructs a task in the initial Waiting state, driving
// toward goal via via.
func NewNavigationTask(goal *vda.Node, via *vda.Edge) *NavigationTask {
	return &NavigationTask{state: NavWaiting, goal: goal, via: via}
}

// SetSegment records the released-range hint [begin,end] this task's goal
// belongs to, surfaced to the driver integration as an upcoming-segment
// prefetch hint when the task enters FirstInProgress.
func (t *NavigationTask) SetSegment(begin, end uint32) {
	t.segmentBeginSeq, t.segmentEndSeq = &begin, &end
}

func (t *NavigationTask) Goal() *vda.Node   { return t.goal }
func (t *NavigationTask) ViaEdge() *vda.Edge { return t.via }
func (t *NavigationTask) State() NavigationTaskState { return t.state }
func (t *NavigationTask) IsTerminal() bool           { return t.state.IsTerminal() }
func (t *NavigationTask) IsPaused() bool             { return t.state.IsPaused() }

// Apply computes the next state for transition against this task's goal
// sequence id, and if legal, commits it and runs the corresponding effect.
func (t *NavigationTask) Apply(ctx context.Context, bus *eventbus.Bus, transition vda.NavigationTransition) error {
	next, err := navigationTransition(t.state, transition, t.goal.SequenceID)
	if err != nil {
		return err
	}
	t.state = next
	navigationEffect(ctx, bus, t, next)
	return nil
}
