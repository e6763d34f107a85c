package handler

import (
	"github.com/vda5050go/core/eventbus"
	"github.com/vda5050go/core/validate"
)

const (
	// QueryPauseable tags a QueryEvent carrying a QueryPauseResumeRequest,
	// asking whether the AGV can currently be paused.
	QueryPauseable = "pauseable"
	// QueryResumable tags a QueryEvent carrying a QueryPauseResumeRequest,
	// asking whether a paused AGV can currently be resumed.
	QueryResumable = "resumable"
)

// QueryPauseResumeResult mirrors BaseQueryHandler::QueryPauseResumeResult:
// Errors lists why pause/resume is currently infeasible (empty accepts it),
// and Notify controls whether the resulting state change broadcasts
// immediately or waits for the next coalesced update.
type QueryPauseResumeResult struct {
	Errors []string
	Notify bool
}

// QueryPauseResumeRequest is the payload of a QueryEvent{Kind: QueryPauseable}
// or {Kind: QueryResumable}.
type QueryPauseResumeRequest struct {
	Result *eventbus.SynchronizedEvent[QueryPauseResumeResult]
}

// QueryHandler lets user code answer feasibility questions the scheduler
// cannot decide on its own: whether the AGV can be paused or resumed right
// now, and whether a requested zone set is acceptable. Every method runs on
// a bus-worker goroutine; implementations must be thread-safe.
type QueryHandler interface {
	QueryPauseable() QueryPauseResumeResult
	QueryResumable() QueryPauseResumeResult
	QueryAcceptZoneSet(zoneSetID string) []string
}

// QueryRegistry answers bus.Query's pause/resume/zone-set questions from a
// single registered QueryHandler. Absent a registered handler (or one that
// declines to answer), every query defaults to accepted, matching
// BaseQueryHandler's unimplemented-virtual defaults.
type QueryRegistry struct {
	handler QueryHandler
}

// NewQueryRegistry subscribes h against bus's pauseable/resumable/zone-set
// query kinds. h may be nil, in which case every query defaults to accepted.
func NewQueryRegistry(bus *eventbus.Bus, h QueryHandler) *QueryRegistry {
	r := &QueryRegistry{handler: h}
	bus.Query.Subscribe(QueryPauseable, r.onPauseable)
	bus.Query.Subscribe(QueryResumable, r.onResumable)
	bus.Query.Subscribe(validate.QueryAcceptZoneSet, r.onAcceptZoneSet)
	return r
}

func (r *QueryRegistry) onPauseable(e eventbus.QueryEvent) {
	req, ok := e.Request.(QueryPauseResumeRequest)
	if !ok {
		return
	}
	token, ok := req.Result.AcquireToken()
	if !ok {
		return
	}
	if r.handler == nil {
		_ = token.SetValue(QueryPauseResumeResult{Notify: true})
		return
	}
	_ = token.SetValue(r.handler.QueryPauseable())
}

func (r *QueryRegistry) onResumable(e eventbus.QueryEvent) {
	req, ok := e.Request.(QueryPauseResumeRequest)
	if !ok {
		return
	}
	token, ok := req.Result.AcquireToken()
	if !ok {
		return
	}
	if r.handler == nil {
		_ = token.SetValue(QueryPauseResumeResult{Notify: true})
		return
	}
	_ = token.SetValue(r.handler.QueryResumable())
}

func (r *QueryRegistry) onAcceptZoneSet(e eventbus.QueryEvent) {
	req, ok := e.Request.(validate.AcceptZoneSetRequest)
	if !ok {
		return
	}
	if r.handler == nil {
		// Leave the token unacquired: the validation pipeline's timeout
		// default accepts the zone set.
		return
	}
	token, ok := req.Result.AcquireToken()
	if !ok {
		return
	}
	_ = token.SetValue(r.handler.QueryAcceptZoneSet(req.ZoneSetID))
}
