package eventbus

import "github.com/vda5050go/core/vda"

// Action family: instructs an ActionTask to transition. Tag is the action id.

type ActionEvent struct {
	ActionID   string
	Transition vda.ActionTransition
	// Forget tells the handler adapter this action id will receive no
	// further transitions and its resources may be released.
	Forget bool
}

func (e ActionEvent) Tag() string { return e.ActionID }

// ActionStatus family: reports an ActionTask's new status. Tag is the action id.

type ActionStatusEvent struct {
	ActionID string
	State    vda.ActionState
}

func (e ActionStatusEvent) Tag() string { return e.ActionID }

// Navigation family: outbound instructions from the active NavigationTask to
// the navigation handler adapter. Tag is fixed since there is exactly one
// navigation task at a time.

type NavigationEvent struct {
	Kind string

	NextNode *vda.Node // NavNextNode
	ViaEdge  *vda.Edge // NavNextNode

	SegmentBeginSeq uint32 // NavUpcomingSegment
	SegmentEndSeq   uint32 // NavUpcomingSegment

	NewNodes []*vda.Node // NavBaseIncreased
	NewEdges []*vda.Edge // NavBaseIncreased
}

func (e NavigationEvent) Tag() string { return "navigation" }

const (
	NavNextNode        = "nextNode"
	NavUpcomingSegment = "upcomingSegment"
	// NavBaseIncreased reports that an order-update extension released new
	// nodes/edges onto the end of the existing base.
	NavBaseIncreased = "baseIncreased"
	NavControlPause  = "controlPause"
	NavControlResume = "controlResume"
	NavControlCancel = "controlCancel"
)

// NavigationStatus family: reports the navigation task's progress. Tag is
// fixed, as with NavigationEvent.

type NavigationStatusEvent struct {
	LastNodeID      string
	LastNodeSeqID   uint32
	DrivingSince    int64
	SegmentComplete bool
}

func (e NavigationStatusEvent) Tag() string { return "navigation" }

// Status family: outbound driver-integration projections (position, battery,
// load, error, etc). Tag names the sub-kind.

type StatusEvent struct {
	Kind string
	Data any
}

func (e StatusEvent) Tag() string { return e.Kind }

// Query family: synchronous requests out to the driver integration (zone set,
// pause/pick behavior, etc), answered via a SynchronizedEvent payload.

type QueryEvent struct {
	Kind    string
	Request any
}

func (e QueryEvent) Tag() string { return e.Kind }

// Interpreter family: internal notifications from the resumable iterator to
// the scheduler. Tag names the notification kind.

type InterpreterEvent struct {
	Kind         string
	Node         *vda.Node
	Edge         *vda.Edge
	Action       *vda.Action
	BlockingType vda.BlockingType
}

func (e InterpreterEvent) Tag() string { return e.Kind }

const (
	InterpEdge          = "edge"
	InterpNode          = "node"
	InterpActionGroup   = "actionGroup"
	InterpOrderEnd      = "orderEnd"
	InterpCanceled      = "canceled"
	InterpActionOnly    = "actionOnly"
)

// Order family: order/graph lifecycle notifications consumed by the state
// projection. Tag names the notification kind.

type OrderEvent struct {
	Kind        string
	OrderID     string
	LastNodeID  string
	LastNodeSeq uint32
	// Status carries the scheduler's new top-level state name, populated
	// only for OrderStatusChanged.
	Status string
}

func (e OrderEvent) Tag() string { return e.Kind }

const (
	OrderNewLastNodeID = "newLastNodeId"
	OrderFinished      = "orderFinished"
	OrderCanceled      = "orderCanceled"
	OrderStatusChanged = "statusChanged"
)

// State family: low-level state-projection write notifications, used to
// debounce outbound State.json publication.

type StateEvent struct {
	Kind string
}

func (e StateEvent) Tag() string { return e.Kind }

const RequestStateUpdate = "requestStateUpdate"

// Validation family: results from the inbound-order validation pipeline.

type ValidationEvent struct {
	Kind    string
	OrderID string
	Errors  []string
}

func (e ValidationEvent) Tag() string { return e.Kind }

const (
	ValidationAccepted = "accepted"
	ValidationRejected = "rejected"
)

// Message family: raw inbound/outbound MQTT topic traffic, pre/post codec.

type MessageEvent struct {
	Topic   string
	Payload []byte
}

func (e MessageEvent) Tag() string { return e.Topic }

// Control family: scheduler-level control-plane commands (pause/resume/
// cancel), dispatched independently of order content. Tag names the command.

type ControlEvent struct {
	Kind string
}

func (e ControlEvent) Tag() string { return e.Kind }

const (
	ControlPause  = "pause"
	ControlResume = "resume"
	ControlCancel = "cancel"
)

// Factsheet family: requests for (and responses containing) the AGV's static
// capability description.

type FactsheetEvent struct {
	Kind string
	Data any
}

func (e FactsheetEvent) Tag() string { return e.Kind }
