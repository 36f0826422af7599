package car

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bufferPort struct {
	bytes.Buffer
	closed bool
}

func (b *bufferPort) Close() error {
	b.closed = true
	return nil
}

func TestMotorLink_Drive(t *testing.T) {
	port := &bufferPort{}
	m := newMotorLink(port)

	require.NoError(t, m.Drive(Forward, 60))
	require.NoError(t, m.Drive(Backward, 150))
	require.NoError(t, m.Drive(Stopped, 40))
	require.NoError(t, m.Drive(Forward, -5))

	assert.Equal(t, "F 60\nB 100\nS\nF 0\n", port.String())
}

func TestMotorLink_CloseStops(t *testing.T) {
	port := &bufferPort{}
	m := newMotorLink(port)

	require.NoError(t, m.Drive(Forward, 30))
	require.NoError(t, m.Close())

	assert.True(t, port.closed)
	assert.Equal(t, "F 30\nS\n", port.String())
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "stop", Stopped.String())
	assert.Equal(t, "forward", Forward.String())
	assert.Equal(t, "backward", Backward.String())

	text, err := Backward.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "backward", string(text))
}

func TestSim_ClampsOutputs(t *testing.T) {
	s := NewSim(zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, s.Drive(ctx, Forward, 120))
	require.NoError(t, s.SetSteeringAngle(ctx, -45))
	require.NoError(t, s.SetCameraTilt(ctx, 40))
	require.NoError(t, s.SetCameraPan(ctx, -10))

	assert.Equal(t, Forward, s.Status)
	assert.Equal(t, 100, s.Speed)
	assert.Equal(t, -30, s.Steering)
	assert.Equal(t, 35, s.Tilt)
	assert.Equal(t, -10, s.Pan)
}

func TestMotorLink_CloseAfterStopSendsNothing(t *testing.T) {
	port := &bufferPort{}
	m := newMotorLink(port)

	require.NoError(t, m.Drive(Forward, 30))
	require.NoError(t, m.Drive(Stopped, 0))
	require.NoError(t, m.Close())

	assert.True(t, port.closed)
	assert.Equal(t, "F 30\nS\n", port.String())
}

func TestMotorLink_CloseUnusedStops(t *testing.T) {
	port := &bufferPort{}
	require.NoError(t, newMotorLink(port).Close())
	assert.Equal(t, "S\n", port.String())
}
