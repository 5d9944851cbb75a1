package sched

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMoveBufferTransfersOwnership(t *testing.T) {
	src := &Slot{Buffer: []byte("payload"), Filled: 7, Status: StatusReady}
	dst := &Slot{}

	moveBuffer(dst, src)

	require.Equal(t, []byte("payload"), dst.Buffer)
	require.Equal(t, 7, dst.Filled)
	require.Nil(t, src.Buffer)
	require.Equal(t, 0, src.Filled)
}

func TestSlotResetClearsInFlightState(t *testing.T) {
	s := &Slot{Status: StatusInProgress, Buffer: []byte("x"), Filled: 1}
	s.Reset()

	require.Equal(t, StatusFree, s.Status)
	require.Nil(t, s.Buffer)
	require.Equal(t, 0, s.Filled)
	require.Nil(t, s.Op)
}

func TestStatusString(t *testing.T) {
	require.Equal(t, "free", StatusFree.String())
	require.Equal(t, "in-progress", StatusInProgress.String())
	require.Equal(t, "ready", StatusReady.String())
}
