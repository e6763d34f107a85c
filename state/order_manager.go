package state

import (
	"sync"

	"github.com/vda5050go/core/eventbus"
	"github.com/vda5050go/core/vda"
)

// OrderManager owns the active Graph, the action registry
// (action_id -> Action, action_id -> ActionState), last_node_id, order_id,
// order_update_id, and the derived OrderStatus. It exposes DumpTo, which
// serializes node-states, edge-states and action-states in sequence order.
type OrderManager struct {
	bus *eventbus.Bus

	mu            sync.RWMutex
	graph         *vda.Graph
	orderID       string
	orderUpdateID uint32
	zoneSetID     string
	lastNodeID    string
	lastNodeSeq   uint32
	status        vda.OrderStatus

	actions       map[string]*vda.Action
	actionStates  map[string]vda.ActionState
	// actionOrder preserves action-registration order for instant actions,
	// which have no graph sequence id to sort by.
	actionOrder []string
}

// NewOrderManager constructs an OrderManager subscribed to bus's Order and
// ActionStatus families, projecting Scheduler/ActionTask notifications into
// the owned State fields.
func NewOrderManager(bus *eventbus.Bus) *OrderManager {
	m := &OrderManager{
		bus:          bus,
		graph:        vda.NewGraph(),
		actions:      make(map[string]*vda.Action),
		actionStates: make(map[string]vda.ActionState),
	}
	bus.Order.Subscribe(eventbus.OrderNewLastNodeID, m.onNewLastNodeID)
	bus.Order.Subscribe(eventbus.OrderFinished, m.onOrderFinished)
	bus.Order.Subscribe(eventbus.OrderCanceled, m.onOrderCanceled)
	bus.Order.Subscribe(eventbus.OrderStatusChanged, m.onStatusChanged)
	return m
}

// SubscribeActionStatus wires m's ActionStatus handler against actionID, called once an
// action is registered so status updates for ids not yet known are still
// observed (the handler itself tolerates unknown ids).
func (m *OrderManager) SubscribeActionStatus(actionID string) {
	m.bus.ActionStatus.Subscribe(actionID, m.onActionStatus)
}

func (m *OrderManager) onActionStatus(e eventbus.ActionStatusEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actionStates[e.ActionID] = e.State
}

func (m *OrderManager) onNewLastNodeID(e eventbus.OrderEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastNodeID = e.LastNodeID
	m.lastNodeSeq = e.LastNodeSeq
}

func (m *OrderManager) onOrderFinished(eventbus.OrderEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = vda.OrderIdle
}

func (m *OrderManager) onOrderCanceled(eventbus.OrderEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = vda.OrderIdle
}

func (m *OrderManager) onStatusChanged(e eventbus.OrderEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = parseOrderStatus(e.Status)
}

// parseOrderStatus maps an OrderStatusChanged Status to its vda.OrderStatus.
// It accepts the scheduler's state names ("Active", "Paused", ...), which is
// what order.Scheduler dispatches, as well as the vda.OrderStatus names;
// anything else maps to OrderIdle.
func parseOrderStatus(name string) vda.OrderStatus {
	for _, c := range []struct {
		status    vda.OrderStatus
		schedName string
	}{
		{vda.OrderIdle, "Idle"}, {vda.OrderIdlePaused, "IdlePaused"},
		{vda.OrderActive, "Active"}, {vda.OrderCanceling, "Canceling"},
		{vda.OrderResuming, "Resuming"}, {vda.OrderPausing, "Pausing"},
		{vda.OrderPaused, "Paused"}, {vda.OrderFailed, "Failed"},
		{vda.OrderInterrupting, "Interrupting"},
	} {
		if c.status.String() == name || c.schedName == name {
			return c.status
		}
	}
	return vda.OrderIdle
}

// SetOrder replaces or extends the active graph with order, registering
// every attached Action into the registry. A replacement order (OrderID
// changes, or OrderUpdateID == 0) resets the registry and graph first.
func (m *OrderManager) SetOrder(order *vda.Order) {
	m.mu.Lock()
	if order.IsReplacement() || order.OrderID != m.orderID {
		m.graph = vda.NewGraph()
		m.actions = make(map[string]*vda.Action)
		m.actionStates = make(map[string]vda.ActionState)
		m.actionOrder = nil
	}
	m.orderID = order.OrderID
	m.orderUpdateID = order.OrderUpdateID
	m.zoneSetID = order.ZoneSetID
	var elements []vda.GraphElement
	for _, n := range order.Nodes {
		el := vda.GraphElement{Kind: vda.ElementNode, Node: n}
		m.graph.Update(el)
		elements = append(elements, el)
	}
	for _, e := range order.Edges {
		el := vda.GraphElement{Kind: vda.ElementEdge, Edge: e}
		m.graph.Update(el)
		elements = append(elements, el)
	}
	m.mu.Unlock()

	for _, el := range elements {
		m.registerElement(el)
	}
}

func (m *OrderManager) registerElement(el vda.GraphElement) {
	var actions []*vda.Action
	switch el.Kind {
	case vda.ElementNode:
		actions = el.Node.Actions
	case vda.ElementEdge:
		actions = el.Edge.Actions
	}
	m.mu.Lock()
	for _, a := range actions {
		if _, known := m.actions[a.ActionID]; known {
			continue
		}
		m.actions[a.ActionID] = a
		m.actionStates[a.ActionID] = vda.ActionState{ActionID: a.ActionID, Status: vda.StatusWaiting}
		m.actionOrder = append(m.actionOrder, a.ActionID)
	}
	m.mu.Unlock()
	for _, a := range actions {
		m.SubscribeActionStatus(a.ActionID)
	}
}

// RegisterInstantAction admits ia into the registry ahead of any
// corresponding ActionTask being scheduled, so early ActionStatus events are
// not dropped.
func (m *OrderManager) RegisterInstantAction(ia *vda.InstantAction) {
	m.mu.Lock()
	if _, known := m.actions[ia.Action.ActionID]; !known {
		m.actions[ia.Action.ActionID] = ia.Action
		m.actionStates[ia.Action.ActionID] = vda.ActionState{ActionID: ia.Action.ActionID, Status: vda.StatusWaiting}
		m.actionOrder = append(m.actionOrder, ia.Action.ActionID)
	}
	m.mu.Unlock()
	m.SubscribeActionStatus(ia.Action.ActionID)
}

// OrderID, OrderUpdateID, LastNodeID, Status report the manager's current
// derived fields.
func (m *OrderManager) OrderID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.orderID
}

func (m *OrderManager) OrderUpdateID() uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.orderUpdateID
}

func (m *OrderManager) Status() vda.OrderStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// DumpTo writes the order-derived fields of dst: order id/update id, last
// node, and node/edge/action states in graph sequence order, followed by
// any instant-action states in registration order.
func (m *OrderManager) DumpTo(dst *vda.State) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dst.OrderID = m.orderID
	dst.OrderUpdateID = m.orderUpdateID
	dst.ZoneSetID = m.zoneSetID
	dst.LastNodeID = m.lastNodeID
	dst.LastNodeSequenceID = m.lastNodeSeq

	seen := make(map[string]bool, len(m.actionOrder))
	var nodeStates []vda.NodeState
	var edgeStates []vda.EdgeState
	var actionStates []vda.ActionState

	for _, el := range m.graph.Elements {
		switch el.Kind {
		case vda.ElementNode:
			if el.Node.SequenceID < m.lastNodeSeq {
				continue
			}
			nodeStates = append(nodeStates, vda.NodeState{
				NodeID: el.Node.NodeID, SequenceID: el.Node.SequenceID,
				Released: el.Node.Released, Position: el.Node.Position,
			})
			for _, a := range el.Node.Actions {
				if st, ok := m.actionStates[a.ActionID]; ok {
					actionStates = append(actionStates, st)
					seen[a.ActionID] = true
				}
			}
		case vda.ElementEdge:
			if el.Edge.SequenceID < m.lastNodeSeq {
				continue
			}
			edgeStates = append(edgeStates, vda.EdgeState{
				EdgeID: el.Edge.EdgeID, SequenceID: el.Edge.SequenceID, Released: el.Edge.Released,
			})
			for _, a := range el.Edge.Actions {
				if st, ok := m.actionStates[a.ActionID]; ok {
					actionStates = append(actionStates, st)
					seen[a.ActionID] = true
				}
			}
		}
	}
	for _, id := range m.actionOrder {
		if seen[id] {
			continue
		}
		if st, ok := m.actionStates[id]; ok {
			actionStates = append(actionStates, st)
		}
	}

	dst.NodeStates = nodeStates
	dst.EdgeStates = edgeStates
	dst.ActionStates = actionStates
}
