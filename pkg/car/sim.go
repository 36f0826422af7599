package car

import (
	"context"

	"github.com/rs/zerolog"
)

// Sim stands in for the chassis when no hardware is attached. It logs
// every command and remembers the last value written to each output.
type Sim struct {
	log zerolog.Logger

	Status   Status
	Speed    int
	Steering int
	Tilt     int
	Pan      int
}

// NewSim returns a log-only actuator.
func NewSim(log zerolog.Logger) *Sim {
	return &Sim{log: log.With().Str("component", "sim-car").Logger()}
}

// Drive records the drive command.
func (s *Sim) Drive(_ context.Context, status Status, speed int) error {
	s.Status, s.Speed = status, Clamp(speed, 0, MaxSpeed)
	s.log.Debug().Stringer("status", status).Int("speed", s.Speed).Msg("drive")
	return nil
}

// SetSteeringAngle records the steering angle.
func (s *Sim) SetSteeringAngle(_ context.Context, angle int) error {
	s.Steering = Clamp(angle, -MaxSteeringAngle, MaxSteeringAngle)
	s.log.Debug().Int("angle", s.Steering).Msg("steering")
	return nil
}

// SetCameraTilt records the camera tilt.
func (s *Sim) SetCameraTilt(_ context.Context, angle int) error {
	s.Tilt = Clamp(angle, -MaxCameraAngle, MaxCameraAngle)
	s.log.Debug().Int("angle", s.Tilt).Msg("camera tilt")
	return nil
}

// SetCameraPan records the camera pan.
func (s *Sim) SetCameraPan(_ context.Context, angle int) error {
	s.Pan = Clamp(angle, -MaxCameraAngle, MaxCameraAngle)
	s.log.Debug().Int("angle", s.Pan).Msg("camera pan")
	return nil
}

// Close logs the release.
func (s *Sim) Close() error {
	s.log.Info().Msg("sim car closed")
	return nil
}
