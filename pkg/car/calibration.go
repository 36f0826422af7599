package car

import (
	"errors"
	"math"
)

var ErrNotCalibrated = errors.New("servos not calibrated")

// ServoCalibration holds calibration data for a single servo.
type ServoCalibration struct {
	ID       int  `json:"id" mapstructure:"id"`
	Inverted bool `json:"inverted" mapstructure:"inverted"`
	Center   int  `json:"center" mapstructure:"center"`
	RangeMin int  `json:"range_min" mapstructure:"range_min"`
	RangeMax int  `json:"range_max" mapstructure:"range_max"`
}

// Calibration holds calibration data for all servos, keyed by servo name.
type Calibration map[ServoName]ServoCalibration

// Denormalize converts an angle in degrees within [-limit, limit] to a raw
// servo position. Zero maps to Center, each half of the range is scaled
// independently so an off-centre mount still reaches both end stops.
func (c ServoCalibration) Denormalize(angle, limit int) int {
	if limit <= 0 {
		return c.Center
	}
	angle = Clamp(angle, -limit, limit)
	if c.Inverted {
		angle = -angle
	}
	var span float64
	if angle >= 0 {
		span = float64(c.RangeMax - c.Center)
	} else {
		span = float64(c.Center - c.RangeMin)
	}
	return c.Center + int(math.Round(float64(angle)*span/float64(limit)))
}

// Normalize converts a raw servo position to an angle in degrees.
func (c ServoCalibration) Normalize(raw, limit int) int {
	var span float64
	if raw >= c.Center {
		span = float64(c.RangeMax - c.Center)
	} else {
		span = float64(c.Center - c.RangeMin)
	}
	if span == 0 {
		return 0
	}
	angle := int(math.Round(float64(raw-c.Center) * float64(limit) / span))
	if c.Inverted {
		angle = -angle
	}
	return Clamp(angle, -limit, limit)
}

// ServoIDs returns the servo IDs for all servos in the calibration.
func (c Calibration) ServoIDs() []int {
	ids := make([]int, 0, len(c))
	// Use AllServos() to ensure consistent ordering
	for _, name := range AllServos() {
		if sc, ok := c[name]; ok {
			ids = append(ids, sc.ID)
		}
	}
	return ids
}

// ByID returns servo name and calibration for a given servo ID.
func (c Calibration) ByID(id int) (ServoName, ServoCalibration, bool) {
	for name, sc := range c {
		if sc.ID == id {
			return name, sc, true
		}
	}
	return "", ServoCalibration{}, false
}

// Complete reports whether every servo has a usable range.
func (c Calibration) Complete() bool {
	for _, name := range AllServos() {
		sc, ok := c[name]
		if !ok || sc.RangeMax <= sc.RangeMin {
			return false
		}
		if sc.Center < sc.RangeMin || sc.Center > sc.RangeMax {
			return false
		}
	}
	return true
}
