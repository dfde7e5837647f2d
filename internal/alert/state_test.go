package alert

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionOkToFiringWithZeroDuration(t *testing.T) {
	next, firing, resolved := Transition(State{Phase: PhaseOk}, true, 1000, 0)
	require.Equal(t, PhaseFiring, next.Phase)
	require.True(t, firing)
	require.False(t, resolved)
}

func TestTransitionOkToPendingThenFiring(t *testing.T) {
	next, firing, resolved := Transition(State{Phase: PhaseOk}, true, 1000, 5000)
	require.Equal(t, PhasePending, next.Phase)
	require.False(t, firing)
	require.False(t, resolved)

	next2, firing2, _ := Transition(next, true, 6000, 5000)
	require.Equal(t, PhaseFiring, next2.Phase)
	require.True(t, firing2)
}

func TestTransitionPendingBackToOkIfConditionClears(t *testing.T) {
	pending := State{Phase: PhasePending, SinceMs: 1000}
	next, firing, resolved := Transition(pending, false, 2000, 5000)
	require.Equal(t, PhaseOk, next.Phase)
	require.False(t, firing)
	require.False(t, resolved)
}

func TestTransitionFiringToResolved(t *testing.T) {
	firing := State{Phase: PhaseFiring, SinceMs: 1000}
	next, emitFiring, emitResolved := Transition(firing, false, 7000, 5000)
	require.Equal(t, PhaseResolved, next.Phase)
	require.False(t, emitFiring)
	require.True(t, emitResolved)
}

func TestTransitionFiringStaysFiringNoRepeatEvent(t *testing.T) {
	firing := State{Phase: PhaseFiring, SinceMs: 1000}
	next, emitFiring, _ := Transition(firing, true, 2000, 5000)
	require.Equal(t, PhaseFiring, next.Phase)
	require.False(t, emitFiring)
}

func TestFingerprintStableAndDistinct(t *testing.T) {
	a := Fingerprint("rule-1", "agent-1", "cpu")
	b := Fingerprint("rule-1", "agent-1", "cpu")
	c := Fingerprint("rule-1", "agent-2", "cpu")
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
}
