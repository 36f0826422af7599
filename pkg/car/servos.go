// Package car provides the hardware side of the video car: the drive
// motor, the steering servo and the pan/tilt camera servos.
package car

// ServoName identifies a servo on the car.
type ServoName string

// Servo names, matching servo IDs 1-3 on the bus.
const (
	Steering   ServoName = "steering"
	CameraPan  ServoName = "camera_pan"
	CameraTilt ServoName = "camera_tilt"
)

// Angle and speed limits.
const (
	MaxSpeed         = 100
	MaxSteeringAngle = 30
	MaxCameraAngle   = 35
)

// AllServos returns all servo names in order (matching servo IDs 1-3).
func AllServos() []ServoName {
	return []ServoName{
		Steering,
		CameraPan,
		CameraTilt,
	}
}

// Limit returns the symmetric angle limit in degrees for a servo.
func (n ServoName) Limit() int {
	if n == Steering {
		return MaxSteeringAngle
	}
	return MaxCameraAngle
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
