package main

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"github.com/stretchr/testify/assert"

	"github.com/gwillem/videocar/pkg/car"
	"github.com/gwillem/videocar/pkg/config"
)

func TestIsCarBus(t *testing.T) {
	assert.True(t, isCarBus([]feetech.FoundServo{{ID: 3}, {ID: 1}, {ID: 2}}))
	assert.False(t, isCarBus([]feetech.FoundServo{{ID: 1}, {ID: 2}}))
	assert.False(t, isCarBus([]feetech.FoundServo{{ID: 1}, {ID: 2}, {ID: 4}}))
	assert.False(t, isCarBus(nil))
}

func TestCalibrationModel_TracksRange(t *testing.T) {
	readings := map[*feetech.Servo][]int{}
	steering := &feetech.Servo{}
	readings[steering] = []int{2048, 1800, 2300, 2040}

	m := newCalibrationModel(map[car.ServoName]*feetech.Servo{car.Steering: steering})
	m.read = func(s *feetech.Servo) (int, error) {
		r := readings[s]
		if len(r) == 0 {
			return 0, errors.New("no reply")
		}
		readings[s] = r[1:]
		return r[0], nil
	}

	var model tea.Model = m
	for i := 0; i < 5; i++ {
		model, _ = model.Update(tickMsg{})
	}
	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.IsType(t, tea.QuitMsg{}, cmd())

	cm := model.(calibrationModel)
	assert.False(t, cm.aborted)
	cal := buildCalibration(map[car.ServoName]int{car.Steering: 1}, cm.cur, cm.min, cm.max)
	assert.Equal(t, car.ServoCalibration{ID: 1, Center: 2040, RangeMin: 1800, RangeMax: 2300}, cal[car.Steering])
}

func TestCalibrationModel_Abort(t *testing.T) {
	m := newCalibrationModel(nil)
	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	assert.True(t, model.(calibrationModel).aborted)
	assert.Empty(t, model.View())
}

func TestPortRole(t *testing.T) {
	cfg := &config.Config{Hardware: car.HardwareConfig{ServoPort: "/dev/ttyACM0", MotorPort: "/dev/ttyUSB0", MotorBaud: 115200}}
	assert.Equal(t, "servo bus", portRole("/dev/ttyACM0", cfg))
	assert.Equal(t, "motor (115200 baud)", portRole("/dev/ttyUSB0", cfg))
	assert.Empty(t, portRole("/dev/ttyS0", cfg))
	assert.Empty(t, portRole("/dev/ttyS0", nil))
}

func TestRenderAngles(t *testing.T) {
	cal := car.Calibration{car.Steering: {ID: 1, Center: 2048, RangeMin: 1700, RangeMax: 2400}}
	out := renderAngles(map[car.ServoName]int{car.Steering: -12}, cal)
	assert.Contains(t, out, "-12°")
	assert.Contains(t, out, "no reply")
	assert.Contains(t, out, "1700..2400 (centre 2048)")
}
