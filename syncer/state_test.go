package syncer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateMachineBootSequence(t *testing.T) {
	m := newStateMachine(nil)
	ctx := context.Background()

	require.Equal(t, StateStopped, m.Current())
	require.NoError(t, dispatch(ctx, m, eventStart))
	require.Equal(t, StateStarting, m.Current())
	require.NoError(t, dispatch(ctx, m, eventBecomeIdle))
	require.Equal(t, StateIdle, m.Current())
	require.NoError(t, dispatch(ctx, m, eventRequest))
	require.Equal(t, StateRequesting, m.Current())
}

func TestStateMachineDisallowedTransitionIsNoOp(t *testing.T) {
	m := newStateMachine(nil)
	ctx := context.Background()

	// Stopped cannot go directly to Idle; must pass through Starting.
	require.NoError(t, dispatch(ctx, m, eventBecomeIdle))
	require.Equal(t, StateStopped, m.Current())
}

func TestStateMachineFullShutdownPath(t *testing.T) {
	m := newStateMachine(nil)
	ctx := context.Background()

	require.NoError(t, dispatch(ctx, m, eventStart))
	require.NoError(t, dispatch(ctx, m, eventBecomeIdle))
	require.NoError(t, dispatch(ctx, m, eventStop))
	require.Equal(t, StateStopping, m.Current())
	require.NoError(t, dispatch(ctx, m, eventStopped))
	require.Equal(t, StateStopped, m.Current())
}
