package vda

// BlockingType governs concurrency admission for an action group, per §3/§4.6.
type BlockingType int

const (
	// BlockingNone actions run fully concurrently with navigation and other
	// NONE actions.
	BlockingNone BlockingType = iota
	// BlockingSoft actions pause navigation while running but may run
	// alongside other non-HARD actions.
	BlockingSoft
	// BlockingHard actions run alone: no other action, no navigation.
	BlockingHard
)

func (b BlockingType) String() string {
	switch b {
	case BlockingNone:
		return "NONE"
	case BlockingSoft:
		return "SOFT"
	case BlockingHard:
		return "HARD"
	default:
		return "UNKNOWN"
	}
}

// Ceil returns the blocking ceiling of b and other: HARD dominates SOFT
// dominates NONE. Mirrors EventIter::ceilCurrentActionGroupBlockingType.
func (b BlockingType) Ceil(other BlockingType) BlockingType {
	switch b {
	case BlockingHard:
		return BlockingHard
	case BlockingSoft:
		if other == BlockingHard {
			return BlockingHard
		}
		return BlockingSoft
	default:
		return other
	}
}

// ActionContext is where an Action was attached.
type ActionContext int

const (
	ContextUnspecified ActionContext = iota
	ContextNode
	ContextEdge
	ContextInstant
)

// ParameterKind tags the dynamic type carried by a Value.
type ParameterKind int

const (
	ParamString ParameterKind = iota
	ParamInt
	ParamFloat
	ParamBool
	ParamOpaque
)

// Value is a typed action-parameter value: string | i64 | f64 | bool | opaque.
type Value struct {
	Kind   ParameterKind
	Str    string
	Int    int64
	Float  float64
	Bool   bool
	Opaque any
}

func StringValue(s string) Value  { return Value{Kind: ParamString, Str: s} }
func IntValue(i int64) Value      { return Value{Kind: ParamInt, Int: i} }
func FloatValue(f float64) Value  { return Value{Kind: ParamFloat, Float: f} }
func BoolValue(b bool) Value      { return Value{Kind: ParamBool, Bool: b} }
func OpaqueValue(v any) Value     { return Value{Kind: ParamOpaque, Opaque: v} }

// Action is immutable once validated: a unique id, a type tag, a blocking
// discipline, a bag of typed parameters and the context it was attached in.
type Action struct {
	ActionID    string
	ActionType  string
	Blocking    BlockingType
	Context     ActionContext
	Parameters  map[string]Value
}

// Param fetches a parameter, reporting whether it was present.
func (a *Action) Param(key string) (Value, bool) {
	v, ok := a.Parameters[key]
	return v, ok
}

// ActionStatus is the runtime status of an ActionState.
type ActionStatus int

const (
	StatusWaiting ActionStatus = iota
	StatusInitializing
	StatusRunning
	StatusPaused
	StatusFinished
	StatusFailed
)

func (s ActionStatus) String() string {
	switch s {
	case StatusWaiting:
		return "WAITING"
	case StatusInitializing:
		return "INITIALIZING"
	case StatusRunning:
		return "RUNNING"
	case StatusPaused:
		return "PAUSED"
	case StatusFinished:
		return "FINISHED"
	case StatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// ActionState is the mutable runtime projection of an Action, owned by the
// state projection (state.OrderManager) and updated as the scheduler's
// ActionTask advances.
type ActionState struct {
	ActionID     string
	Status       ActionStatus
	ResultString *string
	Errors       []string
}
