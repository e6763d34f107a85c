package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vda5050go/core/eventbus"
	"github.com/vda5050go/core/vda"
)

func TestOrderManager_SetOrderAndDump(t *testing.T) {
	bus := eventbus.New(eventbus.Sync, nil)
	defer bus.Stop()
	mgr := NewOrderManager(bus)

	a1 := &vda.Action{ActionID: "a1", ActionType: "pick"}
	order := &vda.Order{
		OrderID: "O", OrderUpdateID: 0,
		Nodes: []*vda.Node{
			{NodeID: "n0", SequenceID: 0, Released: true},
			{NodeID: "n2", SequenceID: 2, Released: true, Actions: []*vda.Action{a1}},
		},
		Edges: []*vda.Edge{
			{EdgeID: "e1", SequenceID: 1, Released: true, StartNodeID: "n0", EndNodeID: "n2"},
		},
	}
	mgr.SetOrder(order)

	require.Equal(t, "O", mgr.OrderID())

	_ = bus.Order.DispatchSync(context.Background(), eventbus.OrderEvent{Kind: eventbus.OrderNewLastNodeID, LastNodeID: "n0", LastNodeSeq: 0})
	_ = bus.ActionStatus.DispatchSync(context.Background(), eventbus.ActionStatusEvent{ActionID: "a1", State: vda.ActionState{ActionID: "a1", Status: vda.StatusRunning}})

	var dst vda.State
	mgr.DumpTo(&dst)
	assert.Equal(t, "O", dst.OrderID)
	assert.Equal(t, "n0", dst.LastNodeID)
	require.Len(t, dst.NodeStates, 2)
	require.Len(t, dst.EdgeStates, 1)
	require.Len(t, dst.ActionStates, 1)
	assert.Equal(t, vda.StatusRunning, dst.ActionStates[0].Status)
}

func TestOrderManager_StatusChanged(t *testing.T) {
	bus := eventbus.New(eventbus.Sync, nil)
	defer bus.Stop()
	mgr := NewOrderManager(bus)

	_ = bus.Order.DispatchSync(context.Background(), eventbus.OrderEvent{Kind: eventbus.OrderStatusChanged, Status: vda.OrderActive.String()})
	assert.Equal(t, vda.OrderActive, mgr.Status())
}
