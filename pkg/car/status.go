package car

// Status is the direction of travel. It is independent of the speed
// magnitude, which is always non-negative.
type Status int

const (
	Stopped Status = iota
	Forward
	Backward
)

func (s Status) String() string {
	switch s {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return "stop"
	}
}

// MarshalText encodes the status by name so telemetry stays readable.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
