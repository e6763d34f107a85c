package eventbus

import "github.com/joeycumines/logiface"

// Bus aggregates one Family per event family named in spec §4.1. An explicit
// handle, never a package-level singleton: every engine instance owns its
// own Bus.
type Bus struct {
	Action           *Family[ActionEvent]
	ActionStatus     *Family[ActionStatusEvent]
	Navigation       *Family[NavigationEvent]
	NavigationStatus *Family[NavigationStatusEvent]
	Status           *Family[StatusEvent]
	Query            *Family[QueryEvent]
	Interpreter      *Family[InterpreterEvent]
	Order            *Family[OrderEvent]
	State            *Family[StateEvent]
	Validation       *Family[ValidationEvent]
	Message          *Family[MessageEvent]
	Control          *Family[ControlEvent]
	Factsheet        *Family[FactsheetEvent]
}

// New constructs a Bus with every family running in mode, logging subscriber
// panics via logger (which may be nil).
func New(mode Mode, logger *logiface.Logger[logiface.Event]) *Bus {
	return &Bus{
		Action:           NewFamily[ActionEvent]("action", mode, logger),
		ActionStatus:     NewFamily[ActionStatusEvent]("action_status", mode, logger),
		Navigation:       NewFamily[NavigationEvent]("navigation", mode, logger),
		NavigationStatus: NewFamily[NavigationStatusEvent]("navigation_status", mode, logger),
		Status:           NewFamily[StatusEvent]("status", mode, logger),
		Query:            NewFamily[QueryEvent]("query", mode, logger),
		Interpreter:      NewFamily[InterpreterEvent]("interpreter", mode, logger),
		Order:            NewFamily[OrderEvent]("order", mode, logger),
		State:            NewFamily[StateEvent]("state", mode, logger),
		Validation:       NewFamily[ValidationEvent]("validation", mode, logger),
		Message:          NewFamily[MessageEvent]("message", mode, logger),
		Control:          NewFamily[ControlEvent]("control", mode, logger),
		Factsheet:        NewFamily[FactsheetEvent]("factsheet", mode, logger),
	}
}

// Stop stops every Async family, waiting for their workers to drain and
// exit. A no-op for families running in Sync mode.
func (b *Bus) Stop() {
	b.Action.Stop()
	b.ActionStatus.Stop()
	b.Navigation.Stop()
	b.NavigationStatus.Stop()
	b.Status.Stop()
	b.Query.Stop()
	b.Interpreter.Stop()
	b.Order.Stop()
	b.State.Stop()
	b.Validation.Stop()
	b.Message.Stop()
	b.Control.Stop()
	b.Factsheet.Stop()
}
