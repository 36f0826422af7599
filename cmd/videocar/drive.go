package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/gwillem/videocar/pkg/car"
	"github.com/gwillem/videocar/pkg/config"
	"github.com/gwillem/videocar/pkg/media"
	"github.com/gwillem/videocar/pkg/telemetry"
	"github.com/gwillem/videocar/pkg/teleop"
)

type DriveCommand struct {
	Config   string `long:"config" short:"c" description:"Configuration file (default videocar.json)"`
	Sim      bool   `long:"sim" description:"Log actuator and media commands instead of driving hardware"`
	Headless bool   `long:"headless" description:"Plain log output instead of the dashboard"`
	Debug    bool   `long:"debug" description:"Enable debug logging"`
}

// actuator is what drive needs from the chassis or its simulation.
type actuator interface {
	teleop.Actuator
	Close() error
}

// player is what drive needs from the media player or its simulation.
type player interface {
	teleop.Media
	StartStream(ctx context.Context) error
}

func (c *DriveCommand) Execute(args []string) error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}

	var out io.Writer = crlf{os.Stderr}
	lines := newLogLines()
	if !c.Headless {
		out = lines
	}
	log := newLogger(out, cfg.LogLevel, c.Debug, c.Headless)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	act, err := c.openActuator(ctx, cfg, log)
	if err != nil {
		if errors.Is(err, car.ErrNotCalibrated) {
			fmt.Fprintln(os.Stderr, "Servos not calibrated. Run 'videocar setup' first.")
		}
		return err
	}
	defer act.Close()

	var med player
	if c.Sim {
		med = media.NewSim(cfg.Media.PhotoDir, log)
	} else {
		med = media.NewPlayer(cfg.Media.Config, log)
	}
	if err := med.StartStream(ctx); err != nil {
		log.Warn().Err(err).Msg("Camera stream not started")
	}

	var pub teleop.Publisher
	if cfg.MQTT.Enabled {
		p, err := telemetry.Dial(cfg.MQTT, log)
		if err != nil {
			log.Warn().Err(err).Msg("Telemetry disabled")
		} else {
			defer p.Close()
			pub = p
		}
	}

	ctrl, err := teleop.NewController(teleop.Config{
		Actuator:  act,
		Media:     med,
		Publisher: pub,
		Logger:    log,
		Tuning:    cfg.Control,
		MusicPath: cfg.Media.MusicPath,
		SoundPath: cfg.Media.SoundPath,
	})
	if err != nil {
		// The controller never ran, so stop the car here.
		stopCar(act, log)
		med.Close()
		return fmt.Errorf("failed to create controller: %w", err)
	}

	keys := make(chan teleop.Key, 16)
	runErr := make(chan error, 1)

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if c.Headless {
		opts = append(opts, tea.WithoutRenderer())
		fmt.Fprint(os.Stderr, manual())
	} else {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(newDashboard(ctrl, keys, lines, c.Sim), opts...)

	go func() {
		err := ctrl.Run(ctx, keys)
		runErr <- err
		p.Send(runDoneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("Dashboard error")
	}
	// Ends Run if the dashboard exited on its own.
	stop()
	if err := <-runErr; err != nil {
		return fmt.Errorf("teleoperation fault: %w", err)
	}
	return nil
}

func (c *DriveCommand) openActuator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (actuator, error) {
	if c.Sim {
		return car.NewSim(log), nil
	}
	chassis, err := car.NewChassis(cfg.Hardware)
	if err != nil {
		return nil, err
	}
	if err := chassis.Enable(ctx); err != nil {
		stopCar(chassis, log)
		chassis.Close()
		return nil, fmt.Errorf("enable servos: %w", err)
	}
	log.Info().
		Str("servo_port", cfg.Hardware.ServoPort).
		Str("motor_port", cfg.Hardware.MotorPort).
		Msg("Chassis connected")
	return chassis, nil
}

func stopCar(act teleop.Actuator, log zerolog.Logger) {
	if err := act.Drive(context.Background(), car.Stopped, 0); err != nil {
		log.Error().Err(err).Msg("Stop failed")
	}
}
