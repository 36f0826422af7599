package car

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"
)

const ServoBaud = 1_000_000

// Chassis is the physical car: a Feetech servo bus carrying the steering
// and camera servos, plus a serial motor controller for the drive wheels.
type Chassis struct {
	bus         *feetech.Bus
	group       *feetech.ServoGroup
	motor       *MotorLink
	calibration Calibration
}

// NewChassis opens the servo bus and the motor controller.
func NewChassis(cfg HardwareConfig) (*Chassis, error) {
	if !cfg.IsConfigured() {
		return nil, fmt.Errorf("serial ports not configured")
	}
	if !cfg.IsCalibrated() {
		return nil, ErrNotCalibrated
	}

	// Open serial bus
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     cfg.ServoPort,
		BaudRate: ServoBaud,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open servo bus: %w", err)
	}

	motor, err := OpenMotor(cfg.MotorPort, cfg.MotorBaud)
	if err != nil {
		bus.Close()
		return nil, err
	}

	return &Chassis{
		bus:         bus,
		group:       feetech.NewServoGroupByIDs(bus, cfg.Calibration.ServoIDs()...),
		motor:       motor,
		calibration: cfg.Calibration,
	}, nil
}

// Close stops the motors, frees the servos and closes both serial
// connections.
func (c *Chassis) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return errors.Join(c.motor.Close(), c.Disable(ctx), c.bus.Close())
}

// Enable enables torque on all servos.
func (c *Chassis) Enable(ctx context.Context) error {
	return c.group.EnableAll(ctx)
}

// Disable disables torque on all servos.
func (c *Chassis) Disable(ctx context.Context) error {
	return c.group.DisableAll(ctx)
}

// Drive sends a drive command to the motor controller.
func (c *Chassis) Drive(_ context.Context, status Status, speed int) error {
	return c.motor.Drive(status, speed)
}

// SetSteeringAngle turns the front axle, angle in [-30, 30] degrees.
func (c *Chassis) SetSteeringAngle(ctx context.Context, angle int) error {
	return c.setAngle(ctx, Steering, angle)
}

// SetCameraTilt tilts the camera, angle in [-35, 35] degrees.
func (c *Chassis) SetCameraTilt(ctx context.Context, angle int) error {
	return c.setAngle(ctx, CameraTilt, angle)
}

// SetCameraPan pans the camera, angle in [-35, 35] degrees.
func (c *Chassis) SetCameraPan(ctx context.Context, angle int) error {
	return c.setAngle(ctx, CameraPan, angle)
}

func (c *Chassis) setAngle(ctx context.Context, name ServoName, angle int) error {
	cal, ok := c.calibration[name]
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrNotCalibrated)
	}
	raw := cal.Denormalize(angle, name.Limit())
	if err := c.group.SetPositions(ctx, feetech.PositionMap{cal.ID: raw}); err != nil {
		return fmt.Errorf("write %s position: %w", name, err)
	}
	return nil
}

// ReadAngles reads current angles from all servos.
func (c *Chassis) ReadAngles(ctx context.Context) (map[ServoName]int, error) {
	// Read raw positions using sync read
	rawPositions, err := c.group.Positions(ctx)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	angles := make(map[ServoName]int, len(rawPositions))
	for id, raw := range rawPositions {
		name, cal, ok := c.calibration.ByID(id)
		if !ok {
			continue
		}
		angles[name] = cal.Normalize(raw, name.Limit())
	}

	return angles, nil
}
