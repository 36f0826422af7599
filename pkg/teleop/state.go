package teleop

import (
	"time"

	"github.com/gwillem/videocar/pkg/car"
)

// State is a snapshot of the vehicle. The controller owns the live copy;
// everything handed out is a value.
type State struct {
	Speed          int        `json:"speed"`
	TargetSpeed    int        `json:"target_speed"`
	Steering       int        `json:"steering"`
	TargetSteering int        `json:"target_steering"`
	Status         car.Status `json:"status"`
	Throttle       bool       `json:"throttle"`
	CameraTilt     int        `json:"camera_tilt"`
	CameraPan      int        `json:"camera_pan"`
	Music          bool       `json:"music"`
	Timestamp      time.Time  `json:"timestamp"`
}

// Idle reports whether the car is at rest with no operator intent.
func (s State) Idle() bool {
	return s.Status == car.Stopped && !s.Throttle && s.Speed == 0
}

// Approach moves current toward target by at most step, never past it.
func Approach(current, target, step int) int {
	if current < target {
		return min(current+step, target)
	}
	if current > target {
		return max(current-step, target)
	}
	return current
}
