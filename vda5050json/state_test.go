package vda5050json

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vda5050go/core/vda"
)

func TestAppendState_RendersNodeEdgeActionStates(t *testing.T) {
	result := "picked"
	st := &vda.State{
		OrderID:            "O1",
		OrderUpdateID:      2,
		LastNodeID:         "n0",
		LastNodeSequenceID: 0,
		Driving:            true,
		NodeStates: []vda.NodeState{
			{NodeID: "n1", SequenceID: 2, Released: true},
		},
		EdgeStates: []vda.EdgeState{
			{EdgeID: "e0", SequenceID: 1, Released: true},
		},
		ActionStates: []vda.ActionState{
			{ActionID: "a1", Status: vda.StatusFinished, ResultString: &result},
		},
	}

	got := string(AppendState(nil, st))

	assert.Contains(t, got, `"orderId":"O1"`)
	assert.Contains(t, got, `"orderUpdateId":2`)
	assert.Contains(t, got, `"driving":true`)
	assert.Contains(t, got, `"nodeId":"n1"`)
	assert.Contains(t, got, `"edgeId":"e0"`)
	assert.Contains(t, got, `"actionId":"a1"`)
	assert.Contains(t, got, `"actionStatus":"FINISHED"`)
	assert.Contains(t, got, `"resultDescription":"picked"`)
}

func TestAppendState_EmptyCollectionsRenderAsEmptyArrays(t *testing.T) {
	got := string(AppendState(nil, &vda.State{}))
	assert.Contains(t, got, `"nodeStates":[]`)
	assert.Contains(t, got, `"edgeStates":[]`)
	assert.Contains(t, got, `"actionStates":[]`)
}
