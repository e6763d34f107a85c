package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vda5050go/core/eventbus"
	"github.com/vda5050go/core/state"
	"github.com/vda5050go/core/vda"
)

type fakeNavReporter struct {
	transitions []vda.NavigationTransition
}

func (f *fakeNavReporter) NavigationTransition(_ context.Context, t vda.NavigationTransition) error {
	f.transitions = append(f.transitions, t)
	return nil
}

type recordingNavHandler struct {
	sink  *NavigationSink
	goals chan *vda.Node

	baseIncreases chan int // len(newNodes) per call, for the base-increased test
}

func (h *recordingNavHandler) NavigateToNode(_ context.Context, goal *vda.Node, _ *vda.Edge) {
	h.sink.TrackGoal(goal)
	h.goals <- goal
}
func (h *recordingNavHandler) UpcomingSegment(context.Context, uint32, uint32) {}
func (h *recordingNavHandler) BaseIncreased(_ context.Context, newNodes []*vda.Node, _ []*vda.Edge) {
	if h.baseIncreases != nil {
		h.baseIncreases <- len(newNodes)
	}
}
func (h *recordingNavHandler) Pause(context.Context)  {}
func (h *recordingNavHandler) Resume(context.Context) {}
func (h *recordingNavHandler) Cancel(context.Context) {}

func TestNavigationRegistry_DispatchesNextNode(t *testing.T) {
	bus := eventbus.New(eventbus.Async, nil)
	defer bus.Stop()

	reporter := &fakeNavReporter{}
	sink := NewNavigationSink(bus, reporter, state.NewStatusManager(bus))
	h := &recordingNavHandler{sink: sink, goals: make(chan *vda.Node, 1)}
	NewNavigationRegistry(bus, h)

	goal := &vda.Node{NodeID: "n1", SequenceID: 2, Position: &vda.Position{X: 1, Y: 1}}
	require.NoError(t, bus.Navigation.DispatchSync(context.Background(), eventbus.NavigationEvent{
		Kind: eventbus.NavNextNode, NextNode: goal,
	}))

	select {
	case got := <-h.goals:
		assert.Equal(t, "n1", got.NodeID)
	default:
		t.Fatal("NavigateToNode was not invoked")
	}
}

func TestNavigationRegistry_DispatchesBaseIncreased(t *testing.T) {
	bus := eventbus.New(eventbus.Async, nil)
	defer bus.Stop()

	reporter := &fakeNavReporter{}
	sink := NewNavigationSink(bus, reporter, state.NewStatusManager(bus))
	h := &recordingNavHandler{sink: sink, goals: make(chan *vda.Node, 1), baseIncreases: make(chan int, 1)}
	NewNavigationRegistry(bus, h)

	newNodes := []*vda.Node{{NodeID: "n4", SequenceID: 8}, {NodeID: "n5", SequenceID: 10}}
	newEdges := []*vda.Edge{{EdgeID: "e4", SequenceID: 9}}
	require.NoError(t, bus.Navigation.DispatchSync(context.Background(), eventbus.NavigationEvent{
		Kind: eventbus.NavBaseIncreased, NewNodes: newNodes, NewEdges: newEdges,
	}))

	select {
	case n := <-h.baseIncreases:
		assert.Equal(t, 2, n)
	default:
		t.Fatal("BaseIncreased was not invoked")
	}
}

func TestNavigationSink_EvalPositionReachesGoal(t *testing.T) {
	bus := eventbus.New(eventbus.Async, nil)
	defer bus.Stop()

	reporter := &fakeNavReporter{}
	sink := NewNavigationSink(bus, reporter, state.NewStatusManager(bus))
	radius := 0.5
	sink.TrackGoal(&vda.Node{NodeID: "n2", SequenceID: 4, Position: &vda.Position{X: 10, Y: 10, DeviationRadius: &radius}})

	reached := sink.EvalPosition(context.Background(), vda.AGVPosition{X: 10.1, Y: 10.1})
	assert.True(t, reached)
	require.Len(t, reporter.transitions, 1)
	assert.Equal(t, vda.NavToSeqID, reporter.transitions[0].Type)
	assert.Equal(t, uint32(4), reporter.transitions[0].SeqID)
}

func TestNavigationSink_EvalPositionShortOfGoal(t *testing.T) {
	bus := eventbus.New(eventbus.Async, nil)
	defer bus.Stop()

	reporter := &fakeNavReporter{}
	sink := NewNavigationSink(bus, reporter, state.NewStatusManager(bus))
	radius := 0.1
	sink.TrackGoal(&vda.Node{NodeID: "n3", SequenceID: 6, Position: &vda.Position{X: 0, Y: 0, DeviationRadius: &radius}})

	reached := sink.EvalPosition(context.Background(), vda.AGVPosition{X: 5, Y: 5})
	assert.False(t, reached)
	assert.Empty(t, reporter.transitions)
}
