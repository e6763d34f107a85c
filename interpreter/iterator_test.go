package interpreter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vda5050go/core/vda"
)

// drain collects every event FromOrder(order) yields, failing the test on
// any iteration error.
func drain(t *testing.T, order *vda.Order) []Event {
	t.Helper()
	it := FromOrder(order)
	var events []Event
	for {
		ev, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		events = append(events, ev)
	}
	assert.True(t, it.Done())
	return events
}

func TestIterator_ReplacementNoActionsYieldsClearThenNavThenGraph(t *testing.T) {
	n0 := &vda.Node{NodeID: "n0", SequenceID: 0, Released: true}
	n1 := &vda.Node{NodeID: "n1", SequenceID: 2, Released: true}
	e0 := &vda.Edge{EdgeID: "e0", SequenceID: 1, Released: true, StartNodeID: "n0", EndNodeID: "n1"}

	events := drain(t, &vda.Order{OrderID: "O1", Nodes: []*vda.Node{n0, n1}, Edges: []*vda.Edge{e0}})

	require.Len(t, events, 3)
	assert.Equal(t, EventClearActions, events[0].Kind)

	assert.Equal(t, EventNavigationStep, events[1].Kind)
	assert.Same(t, n1, events[1].GoalNode)
	assert.Same(t, e0, events[1].ViaEdge)

	assert.Equal(t, EventGraphReplacement, events[2].Kind)
	assert.Equal(t, "O1", events[2].OrderID)
	assert.Equal(t, []*vda.Node{n0, n1}, events[2].Graph.Nodes())
}

func TestIterator_DestinationNodeActionYieldsNavigationBeforeActionGroup(t *testing.T) {
	a1 := &vda.Action{ActionID: "a1", ActionType: "pick"}
	n0 := &vda.Node{NodeID: "n0", SequenceID: 0, Released: true}
	n1 := &vda.Node{NodeID: "n1", SequenceID: 2, Released: true, Actions: []*vda.Action{a1}}
	e0 := &vda.Edge{EdgeID: "e0", SequenceID: 1, Released: true, StartNodeID: "n0", EndNodeID: "n1"}

	events := drain(t, &vda.Order{OrderID: "O1", Nodes: []*vda.Node{n0, n1}, Edges: []*vda.Edge{e0}})

	require.Len(t, events, 5)
	assert.Equal(t, EventClearActions, events[0].Kind)
	assert.Equal(t, EventNewAction, events[1].Kind)
	assert.Same(t, a1, events[1].Action)

	// The AGV must reach the node before the node's own action group runs,
	// so the navigation step precedes the queued action-group yield even
	// though the action is attached to the destination node.
	assert.Equal(t, EventNavigationStep, events[2].Kind)
	assert.Same(t, n1, events[2].GoalNode)

	assert.Equal(t, EventActionGroup, events[3].Kind)
	assert.Equal(t, []*vda.Action{a1}, events[3].ActionGroup)
	assert.Equal(t, vda.BlockingNone, events[3].ActionGroupBlockType)

	assert.Equal(t, EventGraphReplacement, events[4].Kind)
}

func TestIterator_ExtensionSkipsClearActionsAndYieldsGraphExtension(t *testing.T) {
	n0 := &vda.Node{NodeID: "n0", SequenceID: 0, Released: true}
	n1 := &vda.Node{NodeID: "n1", SequenceID: 2, Released: true}
	e0 := &vda.Edge{EdgeID: "e0", SequenceID: 1, Released: true, StartNodeID: "n0", EndNodeID: "n1"}

	events := drain(t, &vda.Order{OrderID: "O1", OrderUpdateID: 5, Nodes: []*vda.Node{n0, n1}, Edges: []*vda.Edge{e0}})

	require.Len(t, events, 2)
	assert.Equal(t, EventNavigationStep, events[0].Kind)
	assert.Equal(t, EventGraphExtension, events[1].Kind)
	assert.Equal(t, uint32(5), events[1].OrderUpdateID)
}

func TestIterator_HardActionClosesGroupAndStopsAtGoal(t *testing.T) {
	hard := &vda.Action{ActionID: "hard1", ActionType: "lift", Blocking: vda.BlockingHard}
	none := &vda.Action{ActionID: "none1", ActionType: "beep"}
	n0 := &vda.Node{NodeID: "n0", SequenceID: 0, Released: true}
	n1 := &vda.Node{NodeID: "n1", SequenceID: 2, Released: true, Actions: []*vda.Action{none, hard}}
	e0 := &vda.Edge{EdgeID: "e0", SequenceID: 1, Released: true, StartNodeID: "n0", EndNodeID: "n1"}

	events := drain(t, &vda.Order{OrderID: "O1", Nodes: []*vda.Node{n0, n1}, Edges: []*vda.Edge{e0}})

	// none1 starts a group; hard1 cannot join it (a HARD action must run
	// alone), so it closes the first group early and starts stopping at
	// the goal for its own turn.
	var groups []Event
	for _, ev := range events {
		if ev.Kind == EventActionGroup {
			groups = append(groups, ev)
		}
	}
	require.Len(t, groups, 2)
	assert.Equal(t, []*vda.Action{none}, groups[0].ActionGroup)
	assert.Equal(t, []*vda.Action{hard}, groups[1].ActionGroup)
	assert.Equal(t, vda.BlockingHard, groups[1].ActionGroupBlockType)
}

func TestIterator_DoneBeforeAnyNextCallIsFalse(t *testing.T) {
	it := FromOrder(&vda.Order{
		Nodes: []*vda.Node{{NodeID: "n0", SequenceID: 0, Released: true}},
		Edges: []*vda.Edge{{EdgeID: "e0", SequenceID: 1, Released: true}},
	})
	assert.False(t, it.Done())
}
