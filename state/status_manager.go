// Package state projects the scheduler's internal task state and the
// driver-integration status sinks into the VDA5050 State message, per the
// Status/Order Manager split.
package state

import (
	"context"
	"sync"
	"time"

	"github.com/joeycumines/go-catrate"

	"github.com/vda5050go/core/eventbus"
	"github.com/vda5050go/core/vda"
)

// statusUpdateRates bounds how often StatusManager's debounced
// RequestStateUpdateEvent fires per field category: no more than once every
// 50ms, and no more than 20 times per second, so a burst of rapid status
// mutations (e.g. position updates during navigation) coalesces into a
// handful of outbound publish requests rather than flooding the bus.
var statusUpdateRates = map[time.Duration]int{
	50 * time.Millisecond:  1,
	time.Second:            20,
}

// StatusManager owns the live State snapshot's status fields: loads,
// operating mode, battery, errors, info, position, velocity, driving flag,
// distance-since-last-node, safety state. One shared-exclusive mutex guards
// all of these fields together (there is no per-field lock); reads take its
// read lock, single-field mutators its write lock. Bulk alter-by-callback operations hold the write
// lock for the callback's duration — callbacks must not re-enter the
// manager.
type StatusManager struct {
	bus     *eventbus.Bus
	limiter *catrate.Limiter

	mu                    sync.RWMutex
	loads                 []vda.Load
	newBaseRequest        *bool
	batteryState          vda.BatteryState
	operatingMode         vda.OperatingMode
	errors                []vda.StatusError
	information           []vda.Info
	safetyState           vda.SafetyState
	agvPosition           vda.AGVPosition
	velocity              *vda.Velocity
	driving               bool
	distanceSinceLastNode *float64
}

// NewStatusManager constructs a StatusManager dispatching debounced
// RequestStateUpdateEvent notifications on bus.
func NewStatusManager(bus *eventbus.Bus) *StatusManager {
	return &StatusManager{
		bus:     bus,
		limiter: catrate.NewLimiter(statusUpdateRates),
	}
}

// requestUpdate dispatches RequestStateUpdateEvent for category, unless the
// rate limiter has already allowed one too recently.
func (m *StatusManager) requestUpdate(ctx context.Context, category string) {
	if _, ok := m.limiter.Allow(category); !ok {
		return
	}
	_ = m.bus.State.Dispatch(ctx, eventbus.StateEvent{Kind: eventbus.RequestStateUpdate})
}

func (m *StatusManager) SetAGVPosition(ctx context.Context, position vda.AGVPosition) {
	m.mu.Lock()
	m.agvPosition = position
	m.mu.Unlock()
	m.requestUpdate(ctx, "agvPosition")
}

func (m *StatusManager) GetAGVPosition() vda.AGVPosition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.agvPosition
}

func (m *StatusManager) SetVelocity(ctx context.Context, velocity vda.Velocity) {
	m.mu.Lock()
	m.velocity = &velocity
	m.mu.Unlock()
	m.requestUpdate(ctx, "velocity")
}

func (m *StatusManager) ResetVelocity(ctx context.Context) {
	m.mu.Lock()
	m.velocity = nil
	m.mu.Unlock()
	m.requestUpdate(ctx, "velocity")
}

func (m *StatusManager) GetVelocity() *vda.Velocity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.velocity
}

func (m *StatusManager) SetDriving(ctx context.Context, driving bool) {
	m.mu.Lock()
	m.driving = driving
	m.mu.Unlock()
	m.requestUpdate(ctx, "driving")
}

func (m *StatusManager) IsDriving() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.driving
}

func (m *StatusManager) SetDistanceSinceLastNode(ctx context.Context, distance float64) {
	m.mu.Lock()
	m.distanceSinceLastNode = &distance
	m.mu.Unlock()
	m.requestUpdate(ctx, "distanceSinceLastNode")
}

func (m *StatusManager) ResetDistanceSinceLastNode(ctx context.Context) {
	m.mu.Lock()
	m.distanceSinceLastNode = nil
	m.mu.Unlock()
	m.requestUpdate(ctx, "distanceSinceLastNode")
}

func (m *StatusManager) AddLoad(ctx context.Context, load vda.Load) {
	m.mu.Lock()
	m.loads = append(m.loads, load)
	m.mu.Unlock()
	m.requestUpdate(ctx, "loads")
}

func (m *StatusManager) RemoveLoad(ctx context.Context, loadID string) {
	m.mu.Lock()
	out := m.loads[:0]
	for _, l := range m.loads {
		if l.LoadID != loadID {
			out = append(out, l)
		}
	}
	m.loads = out
	m.mu.Unlock()
	m.requestUpdate(ctx, "loads")
}

// GetLoads returns a snapshot copy of the current loads.
func (m *StatusManager) GetLoads() []vda.Load {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]vda.Load(nil), m.loads...)
}

// LoadsAlter holds the write lock for the duration of alter, which receives
// the current loads slice and returns its replacement.
func (m *StatusManager) LoadsAlter(ctx context.Context, alter func([]vda.Load) []vda.Load) {
	m.mu.Lock()
	m.loads = alter(m.loads)
	m.mu.Unlock()
	m.requestUpdate(ctx, "loads")
}

func (m *StatusManager) SetOperatingMode(ctx context.Context, mode vda.OperatingMode) {
	m.mu.Lock()
	m.operatingMode = mode
	m.mu.Unlock()
	m.requestUpdate(ctx, "operatingMode")
}

func (m *StatusManager) GetOperatingMode() vda.OperatingMode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.operatingMode
}

func (m *StatusManager) OperatingModeAlter(ctx context.Context, alter func(vda.OperatingMode) vda.OperatingMode) {
	m.mu.Lock()
	m.operatingMode = alter(m.operatingMode)
	m.mu.Unlock()
	m.requestUpdate(ctx, "operatingMode")
}

func (m *StatusManager) SetBatteryState(ctx context.Context, battery vda.BatteryState) {
	m.mu.Lock()
	m.batteryState = battery
	m.mu.Unlock()
	m.requestUpdate(ctx, "batteryState")
}

func (m *StatusManager) GetBatteryState() vda.BatteryState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.batteryState
}

func (m *StatusManager) AlterBatteryState(ctx context.Context, alter func(*vda.BatteryState)) {
	m.mu.Lock()
	alter(&m.batteryState)
	m.mu.Unlock()
	m.requestUpdate(ctx, "batteryState")
}

func (m *StatusManager) RequestNewBase(ctx context.Context) {
	m.mu.Lock()
	t := true
	m.newBaseRequest = &t
	m.mu.Unlock()
	m.requestUpdate(ctx, "newBaseRequest")
}

func (m *StatusManager) AddError(ctx context.Context, err vda.StatusError) {
	m.mu.Lock()
	m.errors = append(m.errors, err)
	m.mu.Unlock()
	m.requestUpdate(ctx, "errors")
}

func (m *StatusManager) AlterErrors(ctx context.Context, alter func([]vda.StatusError) []vda.StatusError) {
	m.mu.Lock()
	m.errors = alter(m.errors)
	m.mu.Unlock()
	m.requestUpdate(ctx, "errors")
}

func (m *StatusManager) AddInfo(ctx context.Context, info vda.Info) {
	m.mu.Lock()
	m.information = append(m.information, info)
	m.mu.Unlock()
	m.requestUpdate(ctx, "information")
}

func (m *StatusManager) AlterInfos(ctx context.Context, alter func([]vda.Info) []vda.Info) {
	m.mu.Lock()
	m.information = alter(m.information)
	m.mu.Unlock()
	m.requestUpdate(ctx, "information")
}

func (m *StatusManager) SetSafetyState(ctx context.Context, safety vda.SafetyState) {
	m.mu.Lock()
	m.safetyState = safety
	m.mu.Unlock()
	m.requestUpdate(ctx, "safetyState")
}

func (m *StatusManager) GetSafetyState() vda.SafetyState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.safetyState
}

// DumpTo writes every status field this manager owns into dst, under the
// manager's read lock.
func (m *StatusManager) DumpTo(dst *vda.State) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	dst.AGVPosition = m.agvPosition
	dst.BatteryState = m.batteryState
	dst.DistanceSinceLastNode = m.distanceSinceLastNode
	dst.Driving = m.driving
	dst.Errors = append([]vda.StatusError(nil), m.errors...)
	dst.Information = append([]vda.Info(nil), m.information...)
	dst.Loads = append([]vda.Load(nil), m.loads...)
	dst.NewBaseRequest = m.newBaseRequest
	dst.OperatingMode = m.operatingMode
	dst.SafetyState = m.safetyState
	dst.Velocity = m.velocity
}
