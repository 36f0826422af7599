package car

// HardwareConfig holds the serial wiring of the car.
type HardwareConfig struct {
	ServoPort   string      `json:"servoPort" mapstructure:"servoPort"`
	MotorPort   string      `json:"motorPort" mapstructure:"motorPort"`
	MotorBaud   int         `json:"motorBaud" mapstructure:"motorBaud"`
	Calibration Calibration `json:"calibration,omitempty" mapstructure:"calibration"`
}

// IsCalibrated returns true if every servo has calibration data
func (h *HardwareConfig) IsCalibrated() bool {
	return len(h.Calibration) > 0 && h.Calibration.Complete()
}

// IsConfigured returns true if both serial ports are set
func (h *HardwareConfig) IsConfigured() bool {
	return h.ServoPort != "" && h.MotorPort != ""
}
