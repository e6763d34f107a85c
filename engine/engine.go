// Package engine wires every subsystem — the event bus, the order/status
// state projection, the scheduler, the validation pipeline, and the
// handler adapters — behind one explicit handle, per spec's Design Notes
// ("no singleton required"; pass an explicit handle through all call
// sites).
package engine

import (
	"context"
	"io"
	"time"

	"github.com/joeycumines/logiface"

	"github.com/vda5050go/core/config"
	"github.com/vda5050go/core/eventbus"
	"github.com/vda5050go/core/handler"
	"github.com/vda5050go/core/interpreter"
	"github.com/vda5050go/core/logging"
	"github.com/vda5050go/core/order"
	"github.com/vda5050go/core/state"
	"github.com/vda5050go/core/validate"
	"github.com/vda5050go/core/vda"
	"github.com/vda5050go/core/vda5050json"
)

// Engine is the top-level handle a process constructs once (per AGV it
// drives) and threads through the rest of its wiring — the MQTT transport,
// the periodic state/visualization timers, and the AGV-specific handler
// implementations all hang off of it.
type Engine struct {
	bus       *eventbus.Bus
	logger    *logiface.Logger[logiface.Event]
	status    *state.StatusManager
	orderMgr  *state.OrderManager
	scheduler *order.Scheduler
	pipeline  *validate.Pipeline

	actions      *handler.ActionRegistry
	navigation   *handler.NavigationRegistry
	navSink      *handler.NavigationSink
	queries      *handler.QueryRegistry
}

// Option configures an Engine at construction time.
type Option func(*options)

type options struct {
	logger          *logiface.Logger[logiface.Event]
	protocolVersion string
	queryTimeout    int64
}

// WithLogger attaches a structured logger; the zero value is a disabled
// no-op logger.
func WithLogger(l *logiface.Logger[logiface.Event]) Option {
	return func(o *options) { o.logger = l }
}

// WithProtocolVersion sets the protocol version the admission pipeline
// checks inbound messages against.
func WithProtocolVersion(v string) Option {
	return func(o *options) { o.protocolVersion = v }
}

// New constructs an Engine. cfg may be nil, in which case the bus runs
// asynchronous dispatch and the pipeline uses its package defaults.
func New(cfg *config.Config, opts ...Option) *Engine {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.New(logging.LevelDisabled, io.Discard)
	}

	mode := eventbus.Async
	if cfg != nil && !cfg.Global.AsyncBus {
		mode = eventbus.Sync
	}
	bus := eventbus.New(mode, o.logger)

	status := state.NewStatusManager(bus)
	orderMgr := state.NewOrderManager(bus)
	scheduler := order.NewScheduler(bus)

	pipelineCfg := validate.Config{ProtocolVersion: o.protocolVersion}
	if cfg != nil {
		if m, ok := cfg.ModuleConfig("validate"); ok && m.QueryTimeoutMs > 0 {
			pipelineCfg.QueryTimeout = time.Duration(m.QueryTimeoutMs) * time.Millisecond
		}
	}
	pipeline := validate.New(bus, orderMgr, pipelineCfg)

	e := &Engine{
		bus:       bus,
		logger:    o.logger,
		status:    status,
		orderMgr:  orderMgr,
		scheduler: scheduler,
		pipeline:  pipeline,
	}
	e.actions = handler.NewActionRegistry(bus, scheduler)
	e.navSink = handler.NewNavigationSink(bus, scheduler, status)
	e.queries = handler.NewQueryRegistry(bus, nil)
	return e
}

// Bus exposes the underlying event bus, for wiring the MQTT transport's
// inbound/outbound translation and the periodic state/visualization timers.
func (e *Engine) Bus() *eventbus.Bus { return e.bus }

// Status exposes the AGV status projection, for the driver integration's
// status-reporting sinks.
func (e *Engine) Status() *state.StatusManager { return e.status }

// Scheduler exposes the order scheduler, for pause/resume/cancel control.
func (e *Engine) Scheduler() *order.Scheduler { return e.scheduler }

// RegisterActionHandler admits h into the action handler registry.
func (e *Engine) RegisterActionHandler(h handler.ActionHandler) {
	e.actions.Register(h)
}

// SetNavigationHandler installs h as the (single) navigation handler.
func (e *Engine) SetNavigationHandler(h handler.NavigationHandler) {
	e.navigation = handler.NewNavigationRegistry(e.bus, h)
}

// NavigationSink exposes the reporter a NavigationHandler implementation
// calls back into as the AGV physically progresses.
func (e *Engine) NavigationSink() *handler.NavigationSink { return e.navSink }

// SetQueryHandler installs h as the (single) pause/resume/zone-set query
// handler, replacing the accept-by-default registry.
func (e *Engine) SetQueryHandler(h handler.QueryHandler) {
	e.queries = handler.NewQueryRegistry(e.bus, h)
}

// SubmitOrder admits order through the validation pipeline and, if
// accepted, interprets it into the scheduler's fetch queue and installs it
// into the state projection. It returns the validation errors (if any);
// a non-nil error only indicates a pipeline malfunction, not a rejected
// order.
func (e *Engine) SubmitOrder(ctx context.Context, ord *vda.Order) ([]string, error) {
	headerID := vda.NewHeaderID()
	req := &validate.Request{Order: ord}
	if err := e.pipeline.Submit(ctx, req); err != nil {
		return nil, err
	}
	if req.Ignored {
		logging.Component(e.logger, "engine").Debug().Str("order_id", ord.OrderID).Str("header_id", headerID).Log("duplicate base order ignored")
		return nil, nil
	}
	if len(req.Errs) > 0 {
		logging.Component(e.logger, "engine").Info().Str("order_id", ord.OrderID).Str("header_id", headerID).Log("order rejected")
		return req.Errs, nil
	}

	e.orderMgr.SetOrder(ord)

	it := interpreter.FromOrder(ord)
	for {
		evt, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		switch evt.Kind {
		case interpreter.EventActionGroup, interpreter.EventNavigationStep:
			e.scheduler.Enqueue(evt)
		case interpreter.EventGraphExtension:
			if err := e.scheduler.EnqueueGraphExtension(ctx, evt.Graph.Nodes(), evt.Graph.Edges()); err != nil {
				return nil, err
			}
		}
	}
	return nil, e.scheduler.Update(ctx)
}

// SubmitInstantActions admits a batch of instant actions through the
// validation pipeline and, if accepted, enqueues them as an interrupt
// group sized by their combined blocking-type ceiling.
func (e *Engine) SubmitInstantActions(ctx context.Context, actions []*vda.InstantAction) ([]string, error) {
	req := &validate.Request{InstantActions: actions}
	if err := e.pipeline.Submit(ctx, req); err != nil {
		return nil, err
	}
	if len(req.Errs) > 0 {
		return req.Errs, nil
	}

	var group order.InterruptGroup
	for _, ia := range actions {
		e.orderMgr.RegisterInstantAction(ia)
		group.Actions = append(group.Actions, ia.Action)
		group.BlockingTypeCeiling = group.BlockingTypeCeiling.Ceil(ia.Action.Blocking)
	}
	return nil, e.scheduler.EnqueueInterruptActions(ctx, group)
}

// Pause, Resume, Cancel forward to the scheduler's control operations.
func (e *Engine) Pause(ctx context.Context) error  { return e.scheduler.Pause(ctx) }
func (e *Engine) Resume(ctx context.Context) error { return e.scheduler.Resume(ctx) }
func (e *Engine) Cancel(ctx context.Context) error { return e.scheduler.Cancel(ctx) }

// State assembles the current full VDA5050 State snapshot from the status
// and order projections, for the periodic state-publication timer.
func (e *Engine) State() *vda.State {
	var st vda.State
	e.status.DumpTo(&st)
	e.orderMgr.DumpTo(&st)
	return &st
}

// EncodeState renders the current State snapshot as VDA5050 wire JSON, for
// the periodic state-publication timer to hand to the MQTT transport.
func (e *Engine) EncodeState() []byte {
	return vda5050json.AppendState(nil, e.State())
}

// Close releases the pipeline's batcher and stops every async bus family.
func (e *Engine) Close() error {
	err := e.pipeline.Close()
	e.bus.Stop()
	return err
}
