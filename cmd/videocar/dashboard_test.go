package main

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/videocar/pkg/car"
	"github.com/gwillem/videocar/pkg/media"
	"github.com/gwillem/videocar/pkg/teleop"
)

func newTestDashboard(t *testing.T) (dashboard, chan teleop.Key) {
	t.Helper()
	ctrl, err := teleop.NewController(teleop.Config{
		Actuator: car.NewSim(zerolog.Nop()),
		Media:    media.NewSim(t.TempDir(), zerolog.Nop()),
		Logger:   zerolog.Nop(),
		Tuning:   teleop.DefaultTuning(),
	})
	require.NoError(t, err)
	keys := make(chan teleop.Key, 4)
	return newDashboard(ctrl, keys, newLogLines(), true), keys
}

func update(m dashboard, msg tea.Msg) (dashboard, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(dashboard), cmd
}

func TestDashboard_ForwardsKeys(t *testing.T) {
	m, keys := newTestDashboard(t)

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'W'}})
	m, _ = update(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyUp})

	assert.Equal(t, teleop.Key("W"), <-keys)
	assert.Equal(t, teleop.KeyStop, <-keys)
	assert.Equal(t, teleop.KeyCameraUp, <-keys)
	assert.False(t, m.stopping)
}

func TestDashboard_QuitSendsInterrupt(t *testing.T) {
	m, keys := newTestDashboard(t)

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	assert.Nil(t, cmd, "waits for the controller to stop the car")
	assert.True(t, m.stopping)
	assert.Equal(t, teleop.KeyInterrupt, <-keys)

	// a second press gives up waiting
	_, cmd = update(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestDashboard_FullKeyChannelDropsKey(t *testing.T) {
	m, keys := newTestDashboard(t)
	for i := 0; i < cap(keys)+1; i++ {
		m, _ = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'w'}})
	}
	assert.Len(t, keys, cap(keys))
	require.Len(t, m.logs, 1)
	assert.Contains(t, m.logs[0], "dropped")
}

func TestDashboard_RunDone(t *testing.T) {
	m, _ := newTestDashboard(t)
	m, cmd := update(m, runDoneMsg{err: errors.New("servo bus gone")})
	assert.True(t, m.quitting)
	assert.Contains(t, m.logs[0], "servo bus gone")
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, "Teleoperation stopped.\n", m.View())
}

func TestDashboard_StateAndView(t *testing.T) {
	m, _ := newTestDashboard(t)
	m, _ = update(m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m, _ = update(m, stateMsg(teleop.State{Status: car.Backward, Speed: 20, Steering: -10, Throttle: true}))

	view := m.View()
	assert.Contains(t, view, "Video Car")
	assert.Contains(t, view, "[SIM]")
	assert.Contains(t, view, "backward")
	assert.Contains(t, view, "20 Hz")
	require.NotNil(t, m.last)
	assert.Equal(t, -20.0, signedSpeed(*m.last))
}

func TestManual_ListsControls(t *testing.T) {
	out := manual()
	for _, c := range controls {
		assert.Contains(t, out, c[0])
	}
	assert.Contains(t, shortHelp(), "space stop")
}
