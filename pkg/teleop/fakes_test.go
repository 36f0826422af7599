package teleop

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/videocar/pkg/car"
)

type call struct {
	op     string
	status car.Status
	value  int
}

type recordingActuator struct {
	mu           sync.Mutex
	calls        []call
	panicOnSteer bool
	panicOnTilt  bool
}

func (r *recordingActuator) record(c call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

func (r *recordingActuator) Drive(_ context.Context, status car.Status, speed int) error {
	r.record(call{op: "drive", status: status, value: speed})
	return nil
}

func (r *recordingActuator) SetSteeringAngle(_ context.Context, angle int) error {
	if r.panicOnSteer {
		panic("servo bus gone")
	}
	r.record(call{op: "steer", value: angle})
	return nil
}

func (r *recordingActuator) SetCameraTilt(_ context.Context, angle int) error {
	if r.panicOnTilt {
		panic("i2c gone")
	}
	r.record(call{op: "tilt", value: angle})
	return nil
}

func (r *recordingActuator) SetCameraPan(_ context.Context, angle int) error {
	r.record(call{op: "pan", value: angle})
	return nil
}

func (r *recordingActuator) Calls() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]call(nil), r.calls...)
}

func (r *recordingActuator) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type fakeMedia struct {
	mu       sync.Mutex
	calls    []string
	musicErr error
	soundErr error
	closed   bool

	// When set, Speak signals speaking and then blocks until unblock is
	// closed, ignoring ctx like a stuck speech engine.
	speaking chan struct{}
	unblock  chan struct{}
}

func (m *fakeMedia) record(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, s)
}

func (m *fakeMedia) PlayMusic(_ context.Context, path string) error {
	m.record("music:" + path)
	return m.musicErr
}

func (m *fakeMedia) StopMusic() error {
	m.record("stop-music")
	return nil
}

func (m *fakeMedia) PlaySound(_ context.Context, path string) error {
	m.record("sound:" + path)
	return m.soundErr
}

func (m *fakeMedia) Speak(_ context.Context, text string) error {
	m.record("speak:" + text)
	if m.unblock != nil {
		close(m.speaking)
		<-m.unblock
	}
	return nil
}

func (m *fakeMedia) TakePhoto(context.Context) (string, error) {
	m.record("photo")
	return "/tmp/photo.jpg", nil
}

func (m *fakeMedia) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *fakeMedia) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *fakeMedia) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

type fakePublisher struct {
	mu     sync.Mutex
	states []State
}

func (p *fakePublisher) Publish(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states = append(p.states, s)
}

func (p *fakePublisher) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.states)
}

// testTuning keeps the watchdog out of the way unless a test shortens it.
func testTuning() Tuning {
	t := DefaultTuning()
	t.Tick = 5 * time.Millisecond
	t.Watchdog = time.Hour
	return t
}

func newTestController(t *testing.T, tuning Tuning) (*Controller, *recordingActuator, *fakeMedia) {
	t.Helper()
	act := &recordingActuator{}
	med := &fakeMedia{}
	c, err := NewController(Config{
		Actuator:  act,
		Media:     med,
		Logger:    zerolog.Nop(),
		Tuning:    tuning,
		MusicPath: "music.mp3",
		SoundPath: "directives.wav",
	})
	require.NoError(t, err)
	t.Cleanup(c.watchdog.Stop)
	return c, act, med
}

func press(t *testing.T, c *Controller, keys ...Key) {
	t.Helper()
	for _, k := range keys {
		require.NoError(t, c.HandleKey(context.Background(), k), fmt.Sprintf("key %q", k))
	}
}

func ticks(c *Controller, n int) {
	for i := 0; i < n; i++ {
		c.step(context.Background())
	}
}
