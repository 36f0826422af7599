package car

import (
	"bufio"
	"fmt"
	"io"

	"github.com/sasha-s/go-deadlock"
	"go.bug.st/serial"
)

const DefaultMotorBaud = 115200

// MotorLink drives the rear DC motors through a motor controller that
// speaks a line protocol over serial:
//
//	F <speed>   forward, speed 0-100
//	B <speed>   backward, speed 0-100
//	S           stop
type MotorLink struct {
	mu      deadlock.Mutex
	port    io.WriteCloser
	w       *bufio.Writer
	stopped bool // last command sent was S
}

// OpenMotor opens the motor controller on a serial port.
func OpenMotor(port string, baud int) (*MotorLink, error) {
	if baud <= 0 {
		baud = DefaultMotorBaud
	}
	p, err := serial.Open(port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open motor port %s: %w", port, err)
	}
	return newMotorLink(p), nil
}

func newMotorLink(port io.WriteCloser) *MotorLink {
	return &MotorLink{port: port, w: bufio.NewWriter(port)}
}

// Drive sends one drive command. Speed is clamped to [0, MaxSpeed].
func (m *MotorLink) Drive(status Status, speed int) error {
	speed = Clamp(speed, 0, MaxSpeed)

	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	switch status {
	case Forward:
		_, err = fmt.Fprintf(m.w, "F %d\n", speed)
	case Backward:
		_, err = fmt.Fprintf(m.w, "B %d\n", speed)
	default:
		_, err = fmt.Fprintln(m.w, "S")
	}
	if err != nil {
		return fmt.Errorf("write drive command: %w", err)
	}
	if err := m.w.Flush(); err != nil {
		return fmt.Errorf("flush drive command: %w", err)
	}
	m.stopped = status != Forward && status != Backward
	return nil
}

// Close stops the motors, unless already stopped, and closes the port.
func (m *MotorLink) Close() error {
	m.mu.Lock()
	stopped := m.stopped
	m.mu.Unlock()

	var stopErr error
	if !stopped {
		stopErr = m.Drive(Stopped, 0)
	}
	if err := m.port.Close(); err != nil {
		return err
	}
	return stopErr
}
