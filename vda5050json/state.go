package vda5050json

import (
	"strconv"

	"github.com/joeycumines/go-utilpkg/jsonenc"

	"github.com/vda5050go/core/vda"
)

// AppendActionState appends a's JSON encoding, matching a State message's
// actionStates entry.
func AppendActionState(dst []byte, a vda.ActionState) []byte {
	dst = append(dst, `{"actionId":`...)
	dst = jsonenc.AppendString(dst, a.ActionID)
	dst = append(dst, `,"actionStatus":`...)
	dst = jsonenc.AppendString(dst, a.Status.String())
	dst = append(dst, `,"resultDescription":`...)
	dst = AppendResultString(dst, a.ResultString)
	return append(dst, '}')
}

// AppendNodeState appends n's JSON encoding, matching a State message's
// nodeStates entry.
func AppendNodeState(dst []byte, n vda.NodeState) []byte {
	dst = append(dst, `{"nodeId":`...)
	dst = jsonenc.AppendString(dst, n.NodeID)
	dst = append(dst, `,"sequenceId":`...)
	dst = strconv.AppendUint(dst, uint64(n.SequenceID), 10)
	dst = append(dst, `,"nodeDescription":`...)
	dst = jsonenc.AppendString(dst, n.NodeDescription)
	dst = append(dst, `,"released":`...)
	dst = strconv.AppendBool(dst, n.Released)
	return append(dst, '}')
}

// AppendEdgeState appends e's JSON encoding, matching a State message's
// edgeStates entry.
func AppendEdgeState(dst []byte, e vda.EdgeState) []byte {
	dst = append(dst, `{"edgeId":`...)
	dst = jsonenc.AppendString(dst, e.EdgeID)
	dst = append(dst, `,"sequenceId":`...)
	dst = strconv.AppendUint(dst, uint64(e.SequenceID), 10)
	dst = append(dst, `,"edgeDescription":`...)
	dst = jsonenc.AppendString(dst, e.EdgeDescription)
	dst = append(dst, `,"released":`...)
	dst = strconv.AppendBool(dst, e.Released)
	return append(dst, '}')
}

// AppendState appends the order/node/edge/action portion of a VDA5050 State
// message assembled from st — the part this package has a closed-form
// encoding for. The MQTT transport layer wraps the result with headerId,
// timestamp, version and the remaining top-level fields only it knows.
func AppendState(dst []byte, st *vda.State) []byte {
	dst = append(dst, `{"orderId":`...)
	dst = jsonenc.AppendString(dst, st.OrderID)
	dst = append(dst, `,"orderUpdateId":`...)
	dst = strconv.AppendUint(dst, uint64(st.OrderUpdateID), 10)
	dst = append(dst, `,"zoneSetId":`...)
	dst = jsonenc.AppendString(dst, st.ZoneSetID)
	dst = append(dst, `,"lastNodeId":`...)
	dst = jsonenc.AppendString(dst, st.LastNodeID)
	dst = append(dst, `,"lastNodeSequenceId":`...)
	dst = strconv.AppendUint(dst, uint64(st.LastNodeSequenceID), 10)
	dst = append(dst, `,"driving":`...)
	dst = strconv.AppendBool(dst, st.Driving)
	dst = append(dst, `,"paused":`...)
	dst = strconv.AppendBool(dst, st.Paused)

	dst = append(dst, `,"nodeStates":[`...)
	for i, n := range st.NodeStates {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = AppendNodeState(dst, n)
	}

	dst = append(dst, `],"edgeStates":[`...)
	for i, e := range st.EdgeStates {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = AppendEdgeState(dst, e)
	}

	dst = append(dst, `],"actionStates":[`...)
	for i, a := range st.ActionStates {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = AppendActionState(dst, a)
	}

	return append(dst, ']', '}')
}
