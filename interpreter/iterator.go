// Package interpreter implements the resumable lazy iterator that walks an
// Order's node/edge graph and yields a flat sequence of scheduler-facing
// events, one Next call at a time.
package interpreter

import (
	"github.com/vda5050go/core/vda"
)

// EventKind tags the payload a Next call yields.
type EventKind int

const (
	EventClearActions EventKind = iota
	EventNewAction
	EventActionGroup
	EventNavigationStep
	EventGraphExtension
	EventGraphReplacement
)

// Event is one item of the flattened interpretation of an Order. Exactly the
// fields relevant to Kind are populated.
type Event struct {
	Kind EventKind

	Action *vda.Action // EventNewAction

	ActionGroup          []*vda.Action // EventActionGroup
	ActionGroupBlockType vda.BlockingType

	GoalNode        *vda.Node // EventNavigationStep
	ViaEdge         *vda.Edge
	StopAtGoalHint  bool

	Graph         *vda.Graph // EventGraphExtension, EventGraphReplacement
	OrderID       string     // EventGraphReplacement
	OrderUpdateID uint32     // EventGraphExtension
}

// state is the iterator's internal step, mirroring EventIter::IterState.
type state int

const (
	stateInitial state = iota
	statePreNodeAction
	stateNodeAction
	stateNodeActionQueue
	statePreEdgeAction
	stateEdgeAction
	stateEdgeActionQueue
	stateActionYield
	stateTransition
	stateNavigation
	statePreDone
	stateDone
)

// Iterator walks an Order's graph lazily: each Next call advances internal
// state by exactly one yield. It holds no goroutines and is not safe for
// concurrent use.
type Iterator struct {
	st state

	nodes []*vda.Node
	edges []*vda.Edge
	nIdx  int
	eIdx  int

	actions []*vda.Action
	aIdx    int

	orderID       string
	orderUpdateID uint32

	collected *vda.Graph

	goalNode *vda.Node
	viaEdge  *vda.Edge

	currentGroup      []*vda.Action
	currentGroupCeil  vda.BlockingType
	stopAtGoal        bool

	pendingAfterNav []Event
}

// FromOrder constructs an Iterator over order's full node/edge list.
func FromOrder(order *vda.Order) *Iterator {
	return &Iterator{
		st:            stateInitial,
		nodes:         order.Nodes,
		edges:         order.Edges,
		orderID:       order.OrderID,
		orderUpdateID: order.OrderUpdateID,
	}
}

// Done reports whether the iterator has yielded every event for this order.
func (it *Iterator) Done() bool { return it.st == stateDone }

// ceilBlockingType folds additional into the running group ceiling, HARD
// dominating SOFT dominating NONE.
func (it *Iterator) ceilBlockingType(additional vda.BlockingType) {
	it.currentGroupCeil = it.currentGroupCeil.Ceil(additional)
}

// Next advances the iterator and returns the next event, or ok==false once
// every event has been yielded (Done becomes true).
func (it *Iterator) Next() (Event, bool, error) {
	for {
		switch it.st {
		case stateInitial:
			return it.handleInitial()
		case statePreNodeAction:
			if ev, ok, err, handled := it.handlePreNodeAction(); handled {
				return ev, ok, err
			}
		case stateNodeAction:
			if ev, ok, handled := it.handleNodeAction(); handled {
				return ev, ok, nil
			}
		case stateNodeActionQueue:
			if ev, ok, handled := it.handleNodeActionQueue(); handled {
				return ev, ok, nil
			}
		case statePreEdgeAction:
			if ev, ok, err, handled := it.handlePreEdgeAction(); handled {
				return ev, ok, err
			}
		case stateEdgeAction:
			if ev, ok, handled := it.handleEdgeAction(); handled {
				return ev, ok, nil
			}
		case stateEdgeActionQueue:
			if ev, ok, handled := it.handleEdgeActionQueue(); handled {
				return ev, ok, nil
			}
		case stateActionYield:
			if ev, ok, handled := it.handleActionYield(); handled {
				return ev, ok, nil
			}
		case stateTransition:
			if ev, ok, err, handled := it.handleTransition(); handled {
				return ev, ok, err
			}
		case stateNavigation:
			if ev, ok, handled := it.handleNavigation(); handled {
				return ev, ok, nil
			}
		case statePreDone:
			ev, err := it.handlePreDone()
			if err != nil {
				return Event{}, false, err
			}
			return ev, true, nil
		case stateDone:
			return Event{}, false, nil
		default:
			return Event{}, false, vda.NewError(vda.ErrInvalidState, "interpreter", "Next", "invalid iterator state", nil)
		}
	}
}

func (it *Iterator) handleInitial() (Event, bool, error) {
	if it.nIdx >= len(it.nodes) {
		return Event{}, false, vda.NewError(vda.ErrInvalidArgument, "interpreter", "handleInitial", "no nodes remaining", nil)
	}
	if it.eIdx >= len(it.edges) {
		return Event{}, false, vda.NewError(vda.ErrInvalidArgument, "interpreter", "handleInitial", "no edges remaining", nil)
	}

	if it.nodes[it.nIdx].SequenceID < it.edges[it.eIdx].SequenceID && it.orderUpdateID == 0 {
		it.st = statePreNodeAction
	} else {
		it.st = stateTransition
	}

	if it.orderUpdateID == 0 {
		return Event{Kind: EventClearActions}, true, nil
	}
	return it.Next()
}

// handlePreEdgeAction returns (event, ok, err, handled): handled is false
// when the state machine should keep looping in Next without yielding.
func (it *Iterator) handlePreEdgeAction() (Event, bool, error, bool) {
	if it.eIdx >= len(it.edges) {
		return Event{}, false, vda.NewError(vda.ErrInvalidArgument, "interpreter", "handlePreEdgeAction", "no edges remaining", nil), true
	}
	e := it.edges[it.eIdx]
	if e.Released {
		it.actions = e.Actions
		it.aIdx = 0
		it.st = stateEdgeAction
	} else {
		it.st = stateNavigation
	}
	return Event{}, false, nil, false
}

func (it *Iterator) handleEdgeAction() (Event, bool, bool) {
	return it.handleActionCommon(stateEdgeActionQueue)
}

func (it *Iterator) handleNodeAction() (Event, bool, bool) {
	return it.handleActionCommon(stateNodeActionQueue)
}

// handleActionCommon implements handleEdgeAction/handleNodeAction, which are
// identical but for which queue state follows.
func (it *Iterator) handleActionCommon(queueState state) (Event, bool, bool) {
	if it.aIdx >= len(it.actions) {
		it.st = queueState
		return Event{}, false, false
	}
	a := it.actions[it.aIdx]
	switch a.Blocking {
	case vda.BlockingHard:
		if len(it.currentGroup) != 0 {
			it.st = queueState
			return Event{}, false, false
		}
		it.st = queueState
		it.stopAtGoal = true
	case vda.BlockingSoft:
		it.stopAtGoal = true
	case vda.BlockingNone:
	}
	it.ceilBlockingType(a.Blocking)
	it.currentGroup = append(it.currentGroup, a)
	it.aIdx++
	return Event{Kind: EventNewAction, Action: a}, true, true
}

func (it *Iterator) handleEdgeActionQueue() (Event, bool, bool) {
	return it.handleActionQueueCommon(stateEdgeAction)
}

func (it *Iterator) handleNodeActionQueue() (Event, bool, bool) {
	if it.aIdx < len(it.actions) {
		it.st = stateNodeAction
	} else {
		it.st = stateTransition
	}
	if len(it.currentGroup) != 0 {
		ev := Event{Kind: EventActionGroup, ActionGroup: it.currentGroup, ActionGroupBlockType: it.currentGroupCeil}
		it.pendingAfterNav = append(it.pendingAfterNav, ev)
		it.currentGroup = nil
		it.currentGroupCeil = vda.BlockingNone
	}
	return Event{}, false, false
}

func (it *Iterator) handleActionQueueCommon(resumeState state) (Event, bool, bool) {
	if len(it.currentGroup) != 0 {
		ev := Event{Kind: EventActionGroup, ActionGroup: it.currentGroup, ActionGroupBlockType: it.currentGroupCeil}
		it.pendingAfterNav = append(it.pendingAfterNav, ev)
		it.currentGroup = nil
		it.currentGroupCeil = vda.BlockingNone
		return Event{}, false, false
	}
	if it.aIdx != len(it.actions) {
		it.st = resumeState
	} else {
		it.st = stateNavigation
	}
	return Event{}, false, false
}

func (it *Iterator) handleActionYield() (Event, bool, bool) {
	if len(it.pendingAfterNav) == 0 {
		it.st = statePreNodeAction
		return Event{}, false, false
	}
	ev := it.pendingAfterNav[0]
	it.pendingAfterNav = it.pendingAfterNav[1:]
	return ev, true, true
}

func (it *Iterator) handlePreNodeAction() (Event, bool, error, bool) {
	if it.nIdx >= len(it.nodes) {
		return Event{}, false, vda.NewError(vda.ErrInvalidArgument, "interpreter", "handlePreNodeAction", "no nodes remaining", nil), true
	}
	n := it.nodes[it.nIdx]
	if n.Released {
		it.actions = n.Actions
		it.aIdx = 0
		it.st = stateNodeAction
	} else {
		it.st = stateTransition
	}
	return Event{}, false, nil, false
}

func (it *Iterator) handleTransition() (Event, bool, error, bool) {
	nLen, eLen := len(it.nodes), len(it.edges)
	n, e := it.nodes[it.nIdx], it.edges[it.eIdx]

	if it.collected == nil {
		it.collected = vda.NewGraph()
	}

	if n.SequenceID < e.SequenceID {
		it.collected.Update(vda.GraphElement{Kind: vda.ElementNode, Node: n})
		it.nIdx++
	} else {
		if !e.Released {
			for it.eIdx < eLen && it.nIdx < nLen {
				it.collected.Update(vda.GraphElement{Kind: vda.ElementEdge, Edge: it.edges[it.eIdx]})
				it.eIdx++
				it.collected.Update(vda.GraphElement{Kind: vda.ElementNode, Node: it.nodes[it.nIdx]})
				it.nIdx++
			}
		} else if !n.Released {
			return Event{}, false, vda.NewError(vda.ErrInvalidArgument, "interpreter", "handleTransition", "released edge leads to unreleased node", nil), true
		} else {
			it.goalNode = n
			it.viaEdge = e
			it.collected.Update(vda.GraphElement{Kind: vda.ElementEdge, Edge: e})
			it.collected.Update(vda.GraphElement{Kind: vda.ElementNode, Node: n})
			it.eIdx++
			it.nIdx++
		}
	}

	switch {
	case it.nIdx == nLen && it.eIdx == eLen:
		it.st = statePreDone
	case it.nIdx == nLen:
		return Event{}, false, vda.NewError(vda.ErrInvalidArgument, "interpreter", "handleTransition", "no more nodes, but edges remain", nil), true
	case it.eIdx == eLen:
		return Event{}, false, vda.NewError(vda.ErrInvalidArgument, "interpreter", "handleTransition", "no more edges, but nodes remain", nil), true
	default:
		it.st = statePreEdgeAction
	}
	return Event{}, false, nil, false
}

func (it *Iterator) handleNavigation() (Event, bool, bool) {
	it.st = stateActionYield

	if it.goalNode == nil && it.viaEdge == nil {
		it.stopAtGoal = false
		return Event{}, false, false
	}

	ev := Event{Kind: EventNavigationStep, GoalNode: it.goalNode, ViaEdge: it.viaEdge, StopAtGoalHint: it.stopAtGoal}
	it.goalNode = nil
	it.viaEdge = nil
	it.stopAtGoal = false
	return ev, true, true
}

func (it *Iterator) handlePreDone() (Event, error) {
	if len(it.currentGroup) != 0 {
		return Event{}, vda.NewError(vda.ErrInvalidState, "interpreter", "handlePreDone", "action group must be empty", nil)
	}

	switch {
	case it.goalNode != nil && it.viaEdge != nil:
		ev := Event{Kind: EventNavigationStep, GoalNode: it.goalNode, ViaEdge: it.viaEdge, StopAtGoalHint: it.stopAtGoal}
		it.goalNode, it.viaEdge, it.stopAtGoal = nil, nil, false
		return ev, nil
	case len(it.pendingAfterNav) != 0:
		ev := it.pendingAfterNav[0]
		it.pendingAfterNav = it.pendingAfterNav[1:]
		return ev, nil
	case it.orderUpdateID > 0:
		it.st = stateDone
		return Event{Kind: EventGraphExtension, Graph: it.collected, OrderUpdateID: it.orderUpdateID}, nil
	default:
		it.st = stateDone
		return Event{Kind: EventGraphReplacement, Graph: it.collected, OrderID: it.orderID}, nil
	}
}
