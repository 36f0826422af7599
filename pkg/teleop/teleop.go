// Package teleop provides keyboard teleoperation for the video car.
//
// A Controller runs two activities over one lock-guarded State: a control
// loop that steps the actual speed and steering toward their targets at a
// fixed rate, and a dispatcher that turns key presses into new targets,
// camera moves and media actions. A watchdog drops the throttle when the
// operator stops pressing movement keys.
package teleop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sasha-s/go-deadlock"

	"github.com/gwillem/videocar/pkg/car"
)

// ErrInterrupted is returned by HandleKey for the interrupt key.
var ErrInterrupted = errors.New("interrupted")

// Actuator drives the car hardware.
type Actuator interface {
	Drive(ctx context.Context, status car.Status, speed int) error
	SetSteeringAngle(ctx context.Context, angle int) error
	SetCameraTilt(ctx context.Context, angle int) error
	SetCameraPan(ctx context.Context, angle int) error
}

// Media plays audio and takes photos.
type Media interface {
	PlayMusic(ctx context.Context, path string) error
	StopMusic() error
	PlaySound(ctx context.Context, path string) error
	Speak(ctx context.Context, text string) error
	TakePhoto(ctx context.Context) (string, error)
	Close() error
}

// Publisher receives every state the controller emits.
type Publisher interface {
	Publish(State)
}

// Config holds configuration for the controller.
type Config struct {
	Actuator  Actuator
	Media     Media
	Publisher Publisher // optional
	Logger    zerolog.Logger
	Tuning    Tuning
	MusicPath string
	SoundPath string
}

// Controller manages the teleoperation control loop and key dispatch.
type Controller struct {
	act    Actuator
	media  Media
	pub    Publisher
	log    zerolog.Logger
	tuning Tuning

	musicPath string
	soundPath string

	mu           deadlock.Mutex
	state        State
	prevSpeed    int
	prevSteering int
	running      bool

	watchdog *Watchdog
	stateCh  chan State
	mediaCh  chan mediaAction
	stopOnce sync.Once
}

// NewController creates a new teleoperation controller.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Actuator == nil {
		return nil, errors.New("no actuator")
	}
	if cfg.Media == nil {
		return nil, errors.New("no media")
	}
	if err := cfg.Tuning.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning: %w", err)
	}

	c := &Controller{
		act:       cfg.Actuator,
		media:     cfg.Media,
		pub:       cfg.Publisher,
		log:       cfg.Logger,
		tuning:    cfg.Tuning,
		musicPath: cfg.MusicPath,
		soundPath: cfg.SoundPath,
		// force the first tick to write both outputs
		prevSpeed:    -1,
		prevSteering: -1,
		stateCh:      make(chan State, 1),
		mediaCh:      make(chan mediaAction, 8),
	}
	c.watchdog = NewWatchdog(cfg.Tuning.Watchdog, c.decelerate)
	return c, nil
}

// States returns a channel that receives state updates.
func (c *Controller) States() <-chan State {
	return c.stateCh
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Hz returns the control frequency.
func (c *Controller) Hz() int {
	return int(time.Second / c.tuning.Tick)
}

// Run starts the control loop and dispatches keys until the interrupt key,
// a closed key channel or ctx cancellation. The car is always brought to a
// stop before Run returns. A fault in either activity is returned.
func (c *Controller) Run(ctx context.Context, keys <-chan Key) (err error) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("already running")
	}
	c.running = true
	c.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	faults := make(chan error, 2)

	var loopWg, mediaWg sync.WaitGroup
	loopWg.Add(1)
	go func() {
		defer loopWg.Done()
		defer c.recoverInto(faults, "control loop", cancel)
		c.loop(runCtx)
	}()
	mediaWg.Add(1)
	go func() {
		defer mediaWg.Done()
		c.mediaWorker(runCtx)
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatch: %v", r)
			c.log.Error().Err(err).Msg("Unexpected fault, stopping")
		}
		cancel()
		// The car stops before any in-flight media action is waited for.
		loopWg.Wait()
		c.shutdown()
		mediaWg.Wait()
		c.release()
	}()

	c.log.Info().Int("hz", c.Hz()).Msg("Teleoperation started")

	for {
		select {
		case <-runCtx.Done():
			select {
			case err := <-faults:
				return err
			default:
			}
			c.log.Info().Msg("Interrupted")
			return nil
		case key, ok := <-keys:
			if !ok {
				return nil
			}
			if err := c.HandleKey(runCtx, key); err != nil {
				if errors.Is(err, ErrInterrupted) {
					c.log.Info().Msg("Quit")
					return nil
				}
				return err
			}
		}
	}
}

func (c *Controller) recoverInto(faults chan<- error, where string, cancel context.CancelFunc) {
	if r := recover(); r != nil {
		err := fmt.Errorf("%s: %v", where, r)
		c.log.Error().Err(err).Msg("Unexpected fault, stopping")
		faults <- err
		cancel()
	}
}

func (c *Controller) loop(ctx context.Context) {
	ticker := time.NewTicker(c.tuning.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.step(ctx)
		}
	}
}

// step advances speed and steering one tick and writes them out if either
// moved. Both writes happen under the state lock so a tick's speed is
// never paired with another tick's steering.
func (c *Controller) step(ctx context.Context) {
	c.sendState(c.advance(ctx))
}

func (c *Controller) advance(ctx context.Context) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &c.state
	if s.Throttle {
		s.Speed = Approach(s.Speed, s.TargetSpeed, c.tuning.SpeedStep)
	} else {
		s.Speed = Approach(s.Speed, 0, c.tuning.SpeedStep)
	}
	s.Steering = Approach(s.Steering, s.TargetSteering, c.tuning.SteeringStep)

	if s.Speed != c.prevSpeed || s.Steering != c.prevSteering {
		c.log.Debug().
			Bool("throttle", s.Throttle).
			Int("target_speed", s.TargetSpeed).
			Int("speed", s.Speed).
			Int("steering", s.Steering).
			Stringer("status", s.Status).
			Msg("control loop")

		if err := c.act.Drive(ctx, s.Status, car.Clamp(s.Speed, 0, car.MaxSpeed)); err != nil {
			c.log.Warn().Err(err).Msg("Drive error")
		}
		if err := c.act.SetSteeringAngle(ctx, car.Clamp(s.Steering, -car.MaxSteeringAngle, car.MaxSteeringAngle)); err != nil {
			c.log.Warn().Err(err).Msg("Steering error")
		}
		c.prevSpeed = s.Speed
		c.prevSteering = s.Steering
	}

	if s.Speed == 0 && !s.Throttle {
		s.Status = car.Stopped
	}
	return c.snapshot()
}

// decelerate is the watchdog callback.
func (c *Controller) decelerate() {
	c.mu.Lock()
	c.state.TargetSpeed = 0
	c.state.Throttle = false
	c.mu.Unlock()

	c.log.Debug().Msg("Watchdog expired, decelerating")
}

// snapshot must be called with mu held.
func (c *Controller) snapshot() State {
	s := c.state
	s.Timestamp = time.Now()
	return s
}

func (c *Controller) sendState(s State) {
	if c.pub != nil {
		c.pub.Publish(s)
	}
	select {
	case c.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-c.stateCh:
		default:
		}
		select {
		case c.stateCh <- s:
		default:
		}
	}
}

// shutdown issues the final stop. It runs once, after the control loop
// has exited.
func (c *Controller) shutdown() {
	c.stopOnce.Do(func() {
		c.watchdog.Stop()

		ctx := context.Background()
		c.mu.Lock()
		c.state.Status = car.Stopped
		c.state.Speed = 0
		c.state.TargetSpeed = 0
		c.state.Throttle = false
		c.state.Music = false
		if err := c.act.Drive(ctx, car.Stopped, 0); err != nil {
			c.log.Error().Err(err).Msg("Final stop failed")
		}
		snap := c.snapshot()
		c.mu.Unlock()

		c.sendState(snap)
	})
}

// release frees media once the media worker has exited.
func (c *Controller) release() {
	if err := c.media.Close(); err != nil {
		c.log.Warn().Err(err).Msg("Release media")
	}

	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
	c.log.Info().Msg("Teleoperation stopped")
}
