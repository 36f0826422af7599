// Package config loads the video car configuration from defaults, an
// optional JSON file and the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/gwillem/videocar/pkg/car"
	"github.com/gwillem/videocar/pkg/media"
	"github.com/gwillem/videocar/pkg/telemetry"
	"github.com/gwillem/videocar/pkg/teleop"
)

const DefaultFile = "videocar.json"

// MediaConfig holds media commands plus the default tracks.
type MediaConfig struct {
	media.Config `mapstructure:",squash"`
	MusicPath    string `json:"musicPath" mapstructure:"musicPath"`
	SoundPath    string `json:"soundPath" mapstructure:"soundPath"`
}

// Config is the complete configuration.
type Config struct {
	LogLevel string             `mapstructure:"logLevel"`
	Control  teleop.Tuning      `mapstructure:"control"`
	Media    MediaConfig        `mapstructure:"media"`
	Hardware car.HardwareConfig `mapstructure:"hardware"`
	MQTT     telemetry.Config   `mapstructure:"mqtt"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")

	d := teleop.DefaultTuning()
	v.SetDefault("control.tick", d.Tick)
	v.SetDefault("control.speedStep", d.SpeedStep)
	v.SetDefault("control.steeringStep", d.SteeringStep)
	v.SetDefault("control.cruiseSpeed", d.CruiseSpeed)
	v.SetDefault("control.speedIncrement", d.SpeedIncrement)
	v.SetDefault("control.maxAdjustSpeed", d.MaxAdjustSpeed)
	v.SetDefault("control.cameraStep", d.CameraStep)
	v.SetDefault("control.watchdog", d.Watchdog)

	v.SetDefault("media.musicPath", "../musics/robomusic.mp3")
	v.SetDefault("media.soundPath", "../sounds/directives.wav")
	v.SetDefault("media.photoDir", "~/Pictures/videocar")
	v.SetDefault("media.volume", 100)
	v.SetDefault("media.musicCommand", []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", "-volume", "{volume}"})
	v.SetDefault("media.soundCommand", []string{"aplay", "-q"})
	v.SetDefault("media.speechCommand", []string{"espeak-ng", "-v", "en"})
	v.SetDefault("media.photoCommand", []string{"libcamera-still", "-n", "-t", "1", "-o", "{path}"})
	v.SetDefault("media.streamCommand", []string{})

	v.SetDefault("hardware.servoPort", "")
	v.SetDefault("hardware.motorPort", "")
	v.SetDefault("hardware.motorBaud", car.DefaultMotorBaud)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "localhost")
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.clientId", "videocar")
	v.SetDefault("mqtt.topic", "videocar/state")
}

// Load reads configuration. With an empty path the default file is used
// if it exists; an explicit path must exist. MUSIC_PATH and SOUND_PATH
// override the default tracks, and any key can be set through
// VIDEOCAR_<SECTION>_<KEY>.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("videocar")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("media.musicPath", "MUSIC_PATH"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("media.soundPath", "SOUND_PATH"); err != nil {
		return nil, err
	}

	optional := path == ""
	if optional {
		path = DefaultFile
	}
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
		if !missing || !optional {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be fixed up at use.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Control.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("control: %w", err))
	}
	if c.Media.Volume < 0 || c.Media.Volume > 100 {
		errs = append(errs, fmt.Errorf("media: volume must be in 0..100, got %d", c.Media.Volume))
	}
	if c.MQTT.Enabled && (c.MQTT.Port <= 0 || c.MQTT.Topic == "") {
		errs = append(errs, errors.New("mqtt: port and topic are required when enabled"))
	}
	return errors.Join(errs...)
}

// SaveHardware writes the hardware section into the JSON file at path,
// keeping every other key already in the file.
func SaveHardware(path string, hw car.HardwareConfig) error {
	doc := map[string]any{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return err
	}

	doc["hardware"] = hw
	data, err = json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Exists returns true if the file at path exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
