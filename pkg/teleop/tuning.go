package teleop

import (
	"errors"
	"fmt"
	"time"

	"github.com/gwillem/videocar/pkg/car"
)

// Tuning holds the control constants.
type Tuning struct {
	Tick           time.Duration `json:"tick" mapstructure:"tick"`
	SpeedStep      int           `json:"speedStep" mapstructure:"speedStep"`
	SteeringStep   int           `json:"steeringStep" mapstructure:"steeringStep"`
	CruiseSpeed    int           `json:"cruiseSpeed" mapstructure:"cruiseSpeed"`
	SpeedIncrement int           `json:"speedIncrement" mapstructure:"speedIncrement"`
	MaxAdjustSpeed int           `json:"maxAdjustSpeed" mapstructure:"maxAdjustSpeed"`
	CameraStep     int           `json:"cameraStep" mapstructure:"cameraStep"`
	Watchdog       time.Duration `json:"watchdog" mapstructure:"watchdog"`
}

// DefaultTuning returns the stock control constants.
func DefaultTuning() Tuning {
	return Tuning{
		Tick:           50 * time.Millisecond,
		SpeedStep:      5,
		SteeringStep:   5,
		CruiseSpeed:    60,
		SpeedIncrement: 10,
		MaxAdjustSpeed: 90,
		CameraStep:     5,
		Watchdog:       500 * time.Millisecond,
	}
}

// Validate rejects constants the control loop cannot work with.
func (t Tuning) Validate() error {
	var errs []error
	if t.Tick <= 0 {
		errs = append(errs, fmt.Errorf("tick must be positive, got %s", t.Tick))
	}
	if t.Watchdog <= 0 {
		errs = append(errs, fmt.Errorf("watchdog must be positive, got %s", t.Watchdog))
	}
	for name, v := range map[string]int{
		"speedStep":      t.SpeedStep,
		"steeringStep":   t.SteeringStep,
		"speedIncrement": t.SpeedIncrement,
		"cameraStep":     t.CameraStep,
	} {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}
	if t.CruiseSpeed <= 0 || t.CruiseSpeed > car.MaxSpeed {
		errs = append(errs, fmt.Errorf("cruiseSpeed must be in 1..%d, got %d", car.MaxSpeed, t.CruiseSpeed))
	}
	if t.MaxAdjustSpeed <= 0 || t.MaxAdjustSpeed > car.MaxSpeed {
		errs = append(errs, fmt.Errorf("maxAdjustSpeed must be in 1..%d, got %d", car.MaxSpeed, t.MaxAdjustSpeed))
	}
	return errors.Join(errs...)
}
