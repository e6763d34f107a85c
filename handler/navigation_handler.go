package handler

import (
	"context"
	"math"
	"sync"

	"github.com/vda5050go/core/eventbus"
	"github.com/vda5050go/core/state"
	"github.com/vda5050go/core/vda"
)

// SchedulerNavigationReporter is the subset of order.Scheduler's API
// NavigationSink needs to report navigation progress back into the
// scheduler. Satisfied by *order.Scheduler.
type SchedulerNavigationReporter interface {
	NavigationTransition(ctx context.Context, transition vda.NavigationTransition) error
}

// NavigationHandler lets user code plug in AGV-specific navigation
// behavior: receive the next goal, an upcoming released segment to
// traverse without stopping, and the pause/resume/cancel control
// instructions. Every method runs on the Navigation family's bus-worker
// goroutine; implementations must be thread-safe.
type NavigationHandler interface {
	NavigateToNode(ctx context.Context, goal *vda.Node, via *vda.Edge)
	UpcomingSegment(ctx context.Context, beginSeq, endSeq uint32)
	// BaseIncreased reports that an order-update extension released
	// newNodes/newEdges onto the end of the existing base.
	BaseIncreased(ctx context.Context, newNodes []*vda.Node, newEdges []*vda.Edge)
	Pause(ctx context.Context)
	Resume(ctx context.Context)
	Cancel(ctx context.Context)
}

// NavigationRegistry dispatches bus's single Navigation family to exactly
// one NavigationHandler, mirroring the single always-active NavigationTask.
type NavigationRegistry struct {
	handler NavigationHandler
}

// NewNavigationRegistry subscribes h against bus's Navigation family.
func NewNavigationRegistry(bus *eventbus.Bus, h NavigationHandler) *NavigationRegistry {
	r := &NavigationRegistry{handler: h}
	bus.Navigation.Subscribe(eventbus.NavigationEvent{}.Tag(), r.onEvent)
	return r
}

func (r *NavigationRegistry) onEvent(e eventbus.NavigationEvent) {
	ctx := context.Background()
	switch e.Kind {
	case eventbus.NavNextNode:
		r.handler.NavigateToNode(ctx, e.NextNode, e.ViaEdge)
	case eventbus.NavUpcomingSegment:
		r.handler.UpcomingSegment(ctx, e.SegmentBeginSeq, e.SegmentEndSeq)
	case eventbus.NavBaseIncreased:
		r.handler.BaseIncreased(ctx, e.NewNodes, e.NewEdges)
	case eventbus.NavControlPause:
		r.handler.Pause(ctx)
	case eventbus.NavControlResume:
		r.handler.Resume(ctx)
	case eventbus.NavControlCancel:
		r.handler.Cancel(ctx)
	}
}

// NavigationSink is the write side a NavigationHandler implementation calls
// back into as the AGV physically progresses: reporting node arrivals,
// pause/resume/failure acknowledgements, and raw position updates. It
// mirrors BaseNavigationHandler's setNodeReached/setPaused/setResumed/
// setFailed/evalPosition/setPosition helpers.
type NavigationSink struct {
	bus       *eventbus.Bus
	scheduler SchedulerNavigationReporter
	status    *state.StatusManager

	mu          sync.Mutex
	currentGoal *vda.Node
}

// NewNavigationSink constructs a sink reporting navigation progress to
// scheduler and raw position/driving updates to status.
func NewNavigationSink(bus *eventbus.Bus, scheduler SchedulerNavigationReporter, status *state.StatusManager) *NavigationSink {
	return &NavigationSink{bus: bus, scheduler: scheduler, status: status}
}

// TrackGoal records goal as the node NavigationSink should consider reached
// once the AGV's position falls within its deviation radius. Call this from
// a NavigationHandler.NavigateToNode implementation.
func (s *NavigationSink) TrackGoal(goal *vda.Node) {
	s.mu.Lock()
	s.currentGoal = goal
	s.mu.Unlock()
}

func (s *NavigationSink) SetPaused(ctx context.Context) error {
	return s.scheduler.NavigationTransition(ctx, vda.NavPaused())
}

func (s *NavigationSink) SetResumed(ctx context.Context) error {
	return s.scheduler.NavigationTransition(ctx, vda.NavResumed())
}

func (s *NavigationSink) SetFailed(ctx context.Context) error {
	return s.scheduler.NavigationTransition(ctx, vda.NavFailed())
}

// SetNodeReached advances the active NavigationTask to node's sequence id,
// and dispatches a NavigationStatusEvent so the state projection can update
// last_node_id. Cannot be undone (the task cannot regress to a predecessor
// node).
func (s *NavigationSink) SetNodeReached(ctx context.Context, node *vda.Node) error {
	err := s.scheduler.NavigationTransition(ctx, vda.NavToSeq(node.SequenceID))
	_ = s.bus.NavigationStatus.Dispatch(ctx, eventbus.NavigationStatusEvent{
		LastNodeID: node.NodeID, LastNodeSeqID: node.SequenceID, SegmentComplete: true,
	})
	return err
}

// SetPosition records position via the status projection, without checking
// node-reached progress.
func (s *NavigationSink) SetPosition(ctx context.Context, position vda.AGVPosition) {
	s.status.SetAGVPosition(ctx, position)
}

// EvalPosition records position and, if it falls within the tracked goal's
// deviation radius, reports the goal as reached. Returns whether the goal
// was reached by this call.
func (s *NavigationSink) EvalPosition(ctx context.Context, position vda.AGVPosition) bool {
	s.status.SetAGVPosition(ctx, position)

	s.mu.Lock()
	goal := s.currentGoal
	s.mu.Unlock()
	if goal == nil || goal.Position == nil {
		return false
	}

	radius := 0.1
	if goal.Position.DeviationRadius != nil {
		radius = *goal.Position.DeviationRadius
	}
	dx, dy := position.X-goal.Position.X, position.Y-goal.Position.Y
	if math.Hypot(dx, dy) > radius {
		return false
	}
	_ = s.SetNodeReached(ctx, goal)
	return true
}
