package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/videocar/pkg/car"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 50*time.Millisecond, cfg.Control.Tick)
	assert.Equal(t, 5, cfg.Control.SpeedStep)
	assert.Equal(t, 5, cfg.Control.SteeringStep)
	assert.Equal(t, 60, cfg.Control.CruiseSpeed)
	assert.Equal(t, 10, cfg.Control.SpeedIncrement)
	assert.Equal(t, 90, cfg.Control.MaxAdjustSpeed)
	assert.Equal(t, 5, cfg.Control.CameraStep)
	assert.Equal(t, 500*time.Millisecond, cfg.Control.Watchdog)
	assert.Equal(t, "../musics/robomusic.mp3", cfg.Media.MusicPath)
	assert.Equal(t, "../sounds/directives.wav", cfg.Media.SoundPath)
	assert.Equal(t, "~/Pictures/videocar", cfg.Media.PhotoDir)
	assert.Equal(t, 100, cfg.Media.Volume)
	assert.Equal(t, []string{"aplay", "-q"}, cfg.Media.SoundCommand)
	assert.Empty(t, cfg.Media.StreamCommand)
	assert.Equal(t, car.DefaultMotorBaud, cfg.Hardware.MotorBaud)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "localhost", cfg.MQTT.Broker)
	assert.Equal(t, 1883, cfg.MQTT.Port)
	assert.Equal(t, "videocar/state", cfg.MQTT.Topic)
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	path := writeConfig(t, `{
		"logLevel": "debug",
		"control": { "tick": "20ms", "cruiseSpeed": 40, "watchdog": "1s" },
		"media": { "photoDir": "/srv/photos", "speechCommand": ["say"] },
		"hardware": {
			"servoPort": "/dev/ttyACM0",
			"motorPort": "/dev/ttyUSB0",
			"calibration": {
				"steering": { "id": 1, "center": 2048, "range_min": 1500, "range_max": 2600, "inverted": true }
			}
		},
		"mqtt": { "enabled": true, "broker": "10.0.0.2" }
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 20*time.Millisecond, cfg.Control.Tick)
	assert.Equal(t, 40, cfg.Control.CruiseSpeed)
	assert.Equal(t, time.Second, cfg.Control.Watchdog)
	assert.Equal(t, 5, cfg.Control.SpeedStep, "unset keys keep defaults")
	assert.Equal(t, "/srv/photos", cfg.Media.PhotoDir)
	assert.Equal(t, []string{"say"}, cfg.Media.SpeechCommand)
	assert.Equal(t, "/dev/ttyACM0", cfg.Hardware.ServoPort)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Hardware.MotorPort)
	assert.Equal(t, car.ServoCalibration{ID: 1, Center: 2048, RangeMin: 1500, RangeMax: 2600, Inverted: true},
		cfg.Hardware.Calibration[car.Steering])
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "10.0.0.2", cfg.MQTT.Broker)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MUSIC_PATH", "/music/theme.mp3")
	t.Setenv("SOUND_PATH", "/sounds/beep.wav")
	t.Setenv("VIDEOCAR_CONTROL_CRUISESPEED", "80")
	t.Setenv("VIDEOCAR_MQTT_BROKER", "broker.local")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/music/theme.mp3", cfg.Media.MusicPath)
	assert.Equal(t, "/sounds/beep.wav", cfg.Media.SoundPath)
	assert.Equal(t, 80, cfg.Control.CruiseSpeed)
	assert.Equal(t, "broker.local", cfg.MQTT.Broker)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_InvalidValues(t *testing.T) {
	path := writeConfig(t, `{"control": {"speedStep": 0}, "media": {"volume": 150}}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "speedStep")
	assert.Contains(t, err.Error(), "volume")
}

func TestSaveHardware_KeepsOtherKeys(t *testing.T) {
	path := writeConfig(t, `{"logLevel": "debug", "mqtt": {"enabled": false}}`)

	hw := car.HardwareConfig{
		ServoPort: "/dev/ttyACM0",
		MotorPort: "/dev/ttyUSB0",
		MotorBaud: 9600,
		Calibration: car.Calibration{
			car.Steering:   {ID: 1, Center: 2000, RangeMin: 1000, RangeMax: 3000},
			car.CameraPan:  {ID: 2, Center: 2000, RangeMin: 1000, RangeMax: 3000},
			car.CameraTilt: {ID: 3, Center: 2000, RangeMin: 1000, RangeMax: 3000},
		},
	}
	require.NoError(t, SaveHardware(path, hw))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "debug", doc["logLevel"])
	assert.Contains(t, doc, "mqtt")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, hw, cfg.Hardware)
	assert.True(t, cfg.Hardware.IsCalibrated())
}

func TestSaveHardware_NewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	assert.False(t, Exists(path))

	require.NoError(t, SaveHardware(path, car.HardwareConfig{ServoPort: "/dev/ttyACM0"}))
	assert.True(t, Exists(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", cfg.Hardware.ServoPort)
}
