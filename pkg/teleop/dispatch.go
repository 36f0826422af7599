package teleop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gwillem/videocar/pkg/car"
	"github.com/gwillem/videocar/pkg/media"
)

const (
	directivesPause = 50 * time.Millisecond

	phraseDirectives = "Classified"
	phraseTarget     = "Target identified."
)

type mediaAction struct {
	name string
	run  func(ctx context.Context) error
}

// HandleKey applies one key press. Unknown keys change no targets, but like
// every key other than a steer key they re-centre the steering, and like
// every key they re-arm the watchdog. Media actions are queued and never
// block the caller.
func (c *Controller) HandleKey(ctx context.Context, key Key) error {
	key = key.Normalize()
	if key == KeyInterrupt {
		return ErrInterrupted
	}

	c.log.Debug().Stringer("key", key).Msg("Key press")

	action, snap := c.applyKey(ctx, key)

	// Movement keys keep the throttle alive; any other key starts the
	// countdown to deceleration.
	c.watchdog.Arm()

	c.log.Debug().
		Int("target_speed", snap.TargetSpeed).
		Stringer("status", snap.Status).
		Msg("Post key")
	c.sendState(snap)

	if action != nil {
		c.enqueue(*action)
	}
	return nil
}

func (c *Controller) applyKey(ctx context.Context, key Key) (*mediaAction, State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	action := c.apply(ctx, key)
	if !key.steers() {
		c.state.TargetSteering = 0
	}
	return action, c.snapshot()
}

// apply mutates targets for key. It must be called with mu held.
func (c *Controller) apply(ctx context.Context, key Key) *mediaAction {
	s := &c.state
	t := c.tuning

	switch key {
	case KeySpeedUp, KeySpeedUpAlt:
		if s.TargetSpeed < t.MaxAdjustSpeed {
			s.TargetSpeed = min(s.TargetSpeed+t.SpeedIncrement, t.MaxAdjustSpeed)
		}
	case KeySpeedDown:
		s.TargetSpeed = max(s.TargetSpeed-t.SpeedIncrement, 0)
		if s.TargetSpeed == 0 {
			s.Status = car.Stopped
		}

	case KeyForward:
		c.move(car.Forward)
	case KeyBackward:
		c.move(car.Backward)
	case KeyLeft:
		s.TargetSteering = -car.MaxSteeringAngle
	case KeyRight:
		s.TargetSteering = car.MaxSteeringAngle
	case KeyStop:
		s.Status = car.Stopped
		s.TargetSpeed = 0
		s.Throttle = false

	case KeyCameraUp:
		c.tilt(ctx, t.CameraStep)
	case KeyCameraDown:
		c.tilt(ctx, -t.CameraStep)
	case KeyCameraLeft:
		c.pan(ctx, -t.CameraStep)
	case KeyCameraRight:
		c.pan(ctx, t.CameraStep)

	case KeyPhoto:
		return &mediaAction{name: "photo", run: c.takePhoto}
	case KeyMusic:
		s.Music = !s.Music
		if s.Music {
			return &mediaAction{name: "music", run: func(ctx context.Context) error {
				c.log.Info().Msg("Play Music")
				return c.playFile(ctx, "music", c.musicPath, c.media.PlayMusic)
			}}
		}
		return &mediaAction{name: "music", run: func(context.Context) error {
			c.log.Info().Msg("Stop Music")
			return c.media.StopMusic()
		}}
	case KeyDirectives:
		return &mediaAction{name: "directives", run: c.directives}
	case KeySpeech:
		return &mediaAction{name: "speech", run: func(ctx context.Context) error {
			return c.media.Speak(ctx, phraseTarget)
		}}
	}
	return nil
}

// move snaps to cruise speed unless already driving that way.
func (c *Controller) move(dir car.Status) {
	s := &c.state
	if s.Status != dir || !s.Throttle {
		s.TargetSpeed = c.tuning.CruiseSpeed
	}
	s.Status = dir
	s.Throttle = true
}

func (c *Controller) tilt(ctx context.Context, delta int) {
	c.state.CameraTilt = car.Clamp(c.state.CameraTilt+delta, -car.MaxCameraAngle, car.MaxCameraAngle)
	if err := c.act.SetCameraTilt(ctx, c.state.CameraTilt); err != nil {
		c.log.Warn().Err(err).Msg("Camera tilt error")
	}
}

func (c *Controller) pan(ctx context.Context, delta int) {
	c.state.CameraPan = car.Clamp(c.state.CameraPan+delta, -car.MaxCameraAngle, car.MaxCameraAngle)
	if err := c.act.SetCameraPan(ctx, c.state.CameraPan); err != nil {
		c.log.Warn().Err(err).Msg("Camera pan error")
	}
}

func (c *Controller) takePhoto(ctx context.Context) error {
	path, err := c.media.TakePhoto(ctx)
	if err != nil {
		return err
	}
	c.log.Info().Str("path", path).Msg("Photo saved")
	return nil
}

func (c *Controller) directives(ctx context.Context) error {
	c.log.Info().Str("path", c.soundPath).Msg("Playing sound")
	if err := c.playFile(ctx, "sound", c.soundPath, c.media.PlaySound); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(directivesPause):
	}
	return c.media.Speak(ctx, phraseDirectives)
}

// playFile plays path and, if the file is missing, says so out loud.
func (c *Controller) playFile(ctx context.Context, kind, path string, play func(context.Context, string) error) error {
	err := play(ctx, path)
	if !errors.Is(err, media.ErrMissingFile) {
		return err
	}
	c.log.Warn().Err(err).Str("kind", kind).Msg("Media file missing")
	if err := c.media.Speak(ctx, fmt.Sprintf("The %s file %s is missing.", kind, path)); err != nil {
		c.log.Warn().Err(err).Msg("Announce missing file")
	}
	return nil
}

func (c *Controller) enqueue(a mediaAction) {
	select {
	case c.mediaCh <- a:
	default:
		c.log.Warn().Str("action", a.name).Msg("Media busy, dropping action")
	}
}

// mediaWorker runs media actions one at a time so a music toggle can never
// overtake the one before it.
func (c *Controller) mediaWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case a := <-c.mediaCh:
			c.runMedia(ctx, a)
		}
	}
}

func (c *Controller) runMedia(ctx context.Context, a mediaAction) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Str("action", a.name).Msg("Media fault")
		}
	}()
	if err := a.run(ctx); err != nil && ctx.Err() == nil {
		c.log.Error().Err(err).Str("action", a.name).Msg("Media error")
	}
}
