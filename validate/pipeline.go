// Package validate implements the inbound order/instant-action admission
// pipeline: fan-out ActionValidate/QueryAcceptZoneSet requests, a protocol
// version check, and the duplicate-order guard, per spec §4.2.
package validate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joeycumines/go-microbatch"

	"github.com/vda5050go/core/eventbus"
	"github.com/vda5050go/core/vda"
)

const (
	// QueryActionValidate tags a QueryEvent carrying an ActionValidateRequest.
	QueryActionValidate = "actionValidate"
	// QueryAcceptZoneSet tags a QueryEvent carrying an AcceptZoneSetRequest.
	QueryAcceptZoneSet = "acceptZoneSet"
)

// ActionValidateRequest is the payload of a QueryEvent{Kind: QueryActionValidate}.
// A subscriber that wants to reject the action acquires Result's token and
// resolves it with a non-empty error list (or none, to accept); a
// subscriber with nothing to say should not acquire the token at all, so
// another may. If no subscriber ever acquires it, the pipeline synthesizes
// a default "unknown action" error once Result's wait times out.
type ActionValidateRequest struct {
	Action *vda.Action
	Result *eventbus.SynchronizedEvent[[]string]
}

// AcceptZoneSetRequest is the payload of a QueryEvent{Kind: QueryAcceptZoneSet}.
// Absent any subscriber resolving Result, the zone set is accepted by
// default; Config has no option to change this default.
type AcceptZoneSetRequest struct {
	ZoneSetID string
	Result    *eventbus.SynchronizedEvent[[]string]
}

// CurrentOrder reports the state projection's active order identity,
// consulted by the duplicate-order guard. Satisfied by *state.OrderManager.
type CurrentOrder interface {
	OrderID() string
}

// Request is one pipeline admission unit. Order is nil for a bare
// instant-action batch. Errs is populated by the pipeline and must only be
// read after JobResult.Wait returns; an empty Errs means accepted.
type Request struct {
	Order           *vda.Order
	InstantActions  []*vda.InstantAction
	ProtocolVersion string

	// Ignored is set when the duplicate-order guard silently dropped a
	// repeated base order (order_update_id == 0 matching the active
	// order_id); distinguished from Errs being empty because the caller
	// must not re-dispatch the order's actions in this case.
	Ignored bool

	Errs []string
}

// Config configures a Pipeline. The zero value is usable: it accepts every
// protocol version and uses the package defaults for batching/query
// timeout.
type Config struct {
	// ProtocolVersion is the version this driver supports, checked against
	// Request.ProtocolVersion's major segment. Empty disables the check.
	ProtocolVersion string
	// QueryTimeout bounds how long a fan-out query waits for a response
	// before synthesizing a default. Defaults to 2s.
	QueryTimeout time.Duration
	// Batch configures the underlying microbatch.Batcher. Nil uses
	// microbatch's own defaults (16 jobs / 50ms flush / concurrency 1).
	Batch *microbatch.BatcherConfig
}

// Pipeline fans inbound orders/instant-actions out to ActionValidate and
// QueryAcceptZoneSet subscribers via bus.Query, batching admissions through
// a microbatch.Batcher so a burst of fragments (e.g. several instant-action
// messages arriving together) shares flush cycles instead of each paying
// its own round trip.
type Pipeline struct {
	bus             *eventbus.Bus
	batcher         *microbatch.Batcher[*Request]
	current         CurrentOrder
	protocolVersion string
	queryTimeout    time.Duration
}

// New constructs a Pipeline dispatching queries on bus and consulting
// current for the duplicate-order guard.
func New(bus *eventbus.Bus, current CurrentOrder, cfg Config) *Pipeline {
	p := &Pipeline{
		bus:             bus,
		current:         current,
		protocolVersion: cfg.ProtocolVersion,
		queryTimeout:    cfg.QueryTimeout,
	}
	if p.queryTimeout <= 0 {
		p.queryTimeout = 2 * time.Second
	}
	p.batcher = microbatch.NewBatcher[*Request](cfg.Batch, p.process)
	return p
}

// Close releases the underlying batcher's resources.
func (p *Pipeline) Close() error { return p.batcher.Close() }

// Submit admits req into the pipeline, blocking until req has been
// validated: req.Errs (and req.Ignored) are populated once Submit returns
// without error.
func (p *Pipeline) Submit(ctx context.Context, req *Request) error {
	result, err := p.batcher.Submit(ctx, req)
	if err != nil {
		return err
	}
	return result.Wait(ctx)
}

// process is the microbatch.BatchProcessor: each request in the batch is
// validated independently (no cross-request interaction), so a failure in
// one never blocks another's completion.
func (p *Pipeline) process(ctx context.Context, reqs []*Request) error {
	for _, req := range reqs {
		p.validateOne(ctx, req)
	}
	return nil
}

func (p *Pipeline) validateOne(ctx context.Context, req *Request) {
	var errs []string

	if req.ProtocolVersion != "" && p.protocolVersion != "" && !compatibleVersion(req.ProtocolVersion, p.protocolVersion) {
		errs = append(errs, fmt.Sprintf("unsupported protocol version %q (expected %q)", req.ProtocolVersion, p.protocolVersion))
	}

	if req.Order != nil {
		switch p.checkDuplicate(req.Order) {
		case duplicateIgnore:
			req.Ignored = true
			req.Errs = nil
			return
		case duplicateReject:
			errs = append(errs, fmt.Sprintf("order update %d for order %q does not match the active order", req.Order.OrderUpdateID, req.Order.OrderID))
		}

		if req.Order.ZoneSetID != "" {
			errs = append(errs, p.validateZoneSet(ctx, req.Order.ZoneSetID)...)
		}
		for _, n := range req.Order.Nodes {
			for _, a := range n.Actions {
				errs = append(errs, p.validateAction(ctx, a)...)
			}
		}
		for _, e := range req.Order.Edges {
			for _, a := range e.Actions {
				errs = append(errs, p.validateAction(ctx, a)...)
			}
		}
	}

	for _, ia := range req.InstantActions {
		errs = append(errs, p.validateAction(ctx, ia.Action)...)
	}

	req.Errs = errs
}

type duplicateVerdict int

const (
	duplicateNone duplicateVerdict = iota
	duplicateIgnore
	duplicateReject
)

// checkDuplicate implements spec §4.2's duplicate-order guard: a repeated
// base order is silently dropped; an extension update against a different
// active order is rejected.
func (p *Pipeline) checkDuplicate(order *vda.Order) duplicateVerdict {
	if p.current == nil {
		return duplicateNone
	}
	active := p.current.OrderID()
	switch {
	case order.OrderUpdateID == 0 && active != "" && order.OrderID == active:
		return duplicateIgnore
	case order.OrderUpdateID > 0 && order.OrderID != active:
		return duplicateReject
	default:
		return duplicateNone
	}
}

// validateAction dispatches an ActionValidate query for a and waits up to
// p.queryTimeout for a response, synthesizing a default "unknown action"
// error if nothing resolves the request in time.
func (p *Pipeline) validateAction(ctx context.Context, a *vda.Action) []string {
	result := eventbus.NewSynchronizedEvent[[]string]()
	_ = p.bus.Query.Dispatch(ctx, eventbus.QueryEvent{
		Kind:    QueryActionValidate,
		Request: ActionValidateRequest{Action: a, Result: result},
	})

	waitCtx, cancel := context.WithTimeout(ctx, p.queryTimeout)
	defer cancel()
	errs, err := result.Wait(waitCtx)
	if err != nil {
		return []string{fmt.Sprintf("unknown action %q: no validator responded", a.ActionType)}
	}
	return errs
}

// validateZoneSet dispatches an AcceptZoneSet query and waits up to
// p.queryTimeout. A timeout accepts the zone set by default.
func (p *Pipeline) validateZoneSet(ctx context.Context, zoneSetID string) []string {
	result := eventbus.NewSynchronizedEvent[[]string]()
	_ = p.bus.Query.Dispatch(ctx, eventbus.QueryEvent{
		Kind:    QueryAcceptZoneSet,
		Request: AcceptZoneSetRequest{ZoneSetID: zoneSetID, Result: result},
	})

	waitCtx, cancel := context.WithTimeout(ctx, p.queryTimeout)
	defer cancel()
	errs, err := result.Wait(waitCtx)
	if err != nil {
		return nil
	}
	return errs
}

// compatibleVersion compares the leading major-version segment of got
// against want (e.g. "2.1.3" vs "2.0.0" match; "3.0.0" does not).
func compatibleVersion(got, want string) bool {
	return majorSegment(got) == majorSegment(want)
}

func majorSegment(version string) string {
	if i := strings.IndexByte(version, '.'); i >= 0 {
		return version[:i]
	}
	return version
}
