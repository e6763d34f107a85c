package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vda5050go/core/eventbus"
	"github.com/vda5050go/core/vda"
)

func TestNavigationTask_HappyPathToDone(t *testing.T) {
	bus := eventbus.New(eventbus.Sync, nil)
	defer bus.Stop()

	var navKinds []string
	var lastNodeID string
	bus.Navigation.Subscribe(eventbus.NavigationEvent{}.Tag(), func(e eventbus.NavigationEvent) {
		navKinds = append(navKinds, e.Kind)
	})
	bus.Order.Subscribe(eventbus.OrderNewLastNodeID, func(e eventbus.OrderEvent) {
		lastNodeID = e.LastNodeID
	})

	goal := &vda.Node{NodeID: "n1", SequenceID: 2}
	task := NewNavigationTask(goal, &vda.Edge{EdgeID: "e0", SequenceID: 1})
	ctx := context.Background()

	require.NoError(t, task.Apply(ctx, bus, vda.NavStart()))
	assert.Equal(t, NavFirstInProgress, task.State())
	assert.Equal(t, []string{eventbus.NavNextNode}, navKinds)

	require.NoError(t, task.Apply(ctx, bus, vda.NavToSeq(2)))
	assert.Equal(t, NavDone, task.State())
	assert.True(t, task.IsTerminal())
	assert.Equal(t, "n1", lastNodeID)
}

func TestNavigationTask_ToSeqShortOfGoalRejected(t *testing.T) {
	bus := eventbus.New(eventbus.Sync, nil)
	defer bus.Stop()

	goal := &vda.Node{NodeID: "n2", SequenceID: 4}
	task := NewNavigationTask(goal, nil)
	ctx := context.Background()

	require.NoError(t, task.Apply(ctx, bus, vda.NavStart()))
	err := task.Apply(ctx, bus, vda.NavToSeq(2))
	assert.Error(t, err, "a seq id short of the goal is an illegal transition, not a silent no-op")
	assert.Equal(t, NavFirstInProgress, task.State())
}

func TestNavigationTask_PauseResumeCycle(t *testing.T) {
	bus := eventbus.New(eventbus.Sync, nil)
	defer bus.Stop()

	goal := &vda.Node{NodeID: "n3", SequenceID: 2}
	task := NewNavigationTask(goal, nil)
	ctx := context.Background()

	require.NoError(t, task.Apply(ctx, bus, vda.NavStart()))
	require.NoError(t, task.Apply(ctx, bus, vda.NavPause()))
	assert.Equal(t, NavPausing, task.State())
	require.NoError(t, task.Apply(ctx, bus, vda.NavPaused()))
	assert.Equal(t, NavPaused, task.State())
	assert.True(t, task.IsPaused())
	require.NoError(t, task.Apply(ctx, bus, vda.NavResume()))
	assert.Equal(t, NavResuming, task.State())
	require.NoError(t, task.Apply(ctx, bus, vda.NavResumed()))
	assert.Equal(t, NavInProgress, task.State())
}

func TestNavigationTask_SegmentHintDispatchedOnStart(t *testing.T) {
	bus := eventbus.New(eventbus.Sync, nil)
	defer bus.Stop()

	var gotSegment bool
	bus.Navigation.Subscribe(eventbus.NavigationEvent{}.Tag(), func(e eventbus.NavigationEvent) {
		if e.Kind == eventbus.NavUpcomingSegment {
			gotSegment = true
			assert.Equal(t, uint32(3), e.SegmentBeginSeq)
			assert.Equal(t, uint32(7), e.SegmentEndSeq)
		}
	})

	goal := &vda.Node{NodeID: "n4", SequenceID: 8}
	task := NewNavigationTask(goal, nil)
	task.SetSegment(3, 7)
	require.NoError(t, task.Apply(context.Background(), bus, vda.NavStart()))
	assert.True(t, gotSegment)
}
