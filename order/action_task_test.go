package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vda5050go/core/eventbus"
	"github.com/vda5050go/core/vda"
)

func TestActionTask_HappyPathToFinished(t *testing.T) {
	bus := eventbus.New(eventbus.Sync, nil)
	defer bus.Stop()

	var statuses []vda.ActionStatus
	var forgotten bool
	bus.ActionStatus.Subscribe("a1", func(e eventbus.ActionStatusEvent) {
		statuses = append(statuses, e.State.Status)
	})
	bus.Action.Subscribe("a1", func(e eventbus.ActionEvent) {
		if e.Forget {
			forgotten = true
		}
	})

	task := NewActionTask(&vda.Action{ActionID: "a1"})
	ctx := context.Background()

	require.NoError(t, task.Apply(ctx, bus, vda.ActStart()))
	assert.Equal(t, ActionInitializing, task.State())

	require.NoError(t, task.Apply(ctx, bus, vda.ActRunning()))
	assert.Equal(t, ActionRunning, task.State())

	result := "done"
	require.NoError(t, task.Apply(ctx, bus, vda.ActFinished(&result)))
	assert.Equal(t, ActionFinished, task.State())
	assert.True(t, task.IsTerminal())

	require.Equal(t, []vda.ActionStatus{vda.StatusInitializing, vda.StatusRunning, vda.StatusFinished}, statuses)
	assert.True(t, forgotten)
}

func TestActionTask_PauseResumeCycle(t *testing.T) {
	bus := eventbus.New(eventbus.Sync, nil)
	defer bus.Stop()

	task := NewActionTask(&vda.Action{ActionID: "a2"})
	ctx := context.Background()

	require.NoError(t, task.Apply(ctx, bus, vda.ActStart()))
	require.NoError(t, task.Apply(ctx, bus, vda.ActRunning()))
	require.NoError(t, task.Apply(ctx, bus, vda.ActPause()))
	assert.Equal(t, ActionPausing, task.State())
	require.NoError(t, task.Apply(ctx, bus, vda.ActPaused()))
	assert.Equal(t, ActionPaused, task.State())
	assert.True(t, task.IsPaused())
	require.NoError(t, task.Apply(ctx, bus, vda.ActResume()))
	assert.Equal(t, ActionResuming, task.State())
}

func TestActionTask_IllegalTransitionRejected(t *testing.T) {
	bus := eventbus.New(eventbus.Sync, nil)
	defer bus.Stop()

	task := NewActionTask(&vda.Action{ActionID: "a3"})
	err := task.Apply(context.Background(), bus, vda.ActRunning())
	require.Error(t, err)
	assert.Equal(t, ActionWaiting, task.State(), "a rejected transition must not mutate state")
}

func TestActionTask_TerminalStateRefusesFurtherTransitions(t *testing.T) {
	bus := eventbus.New(eventbus.Sync, nil)
	defer bus.Stop()

	task := NewActionTask(&vda.Action{ActionID: "a4"})
	ctx := context.Background()
	require.NoError(t, task.Apply(ctx, bus, vda.ActStart()))
	require.NoError(t, task.Apply(ctx, bus, vda.ActFailed()))
	assert.True(t, task.IsTerminal())

	err := task.Apply(ctx, bus, vda.ActRunning())
	assert.Error(t, err)
}
