package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gwillem/videocar/pkg/car"
	"github.com/gwillem/videocar/pkg/config"
)

type InfoCommand struct {
	Config string `long:"config" short:"c" description:"Configuration file (default videocar.json)"`
}

func (c *InfoCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("Video Car Info"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━"))
	fmt.Println()

	ports, err := usablePorts()
	if err != nil {
		return err
	}

	cfg, err := config.Load(c.Config)
	if err != nil {
		fmt.Println(dimStyle.Render("No usable configuration: " + err.Error()))
	}

	fmt.Println(renderPorts(ports, cfg))
	fmt.Println()

	if cfg == nil || !cfg.Hardware.IsCalibrated() {
		fmt.Println("Servos not calibrated. Run 'videocar setup' first.")
		return nil
	}

	chassis, err := car.NewChassis(cfg.Hardware)
	if err != nil {
		return err
	}
	defer chassis.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	angles, err := chassis.ReadAngles(ctx)
	if err != nil {
		return err
	}
	fmt.Println(renderAngles(angles, cfg.Hardware.Calibration))
	return nil
}

func portRole(port string, cfg *config.Config) string {
	if cfg == nil {
		return ""
	}
	switch port {
	case cfg.Hardware.ServoPort:
		return "servo bus"
	case cfg.Hardware.MotorPort:
		return fmt.Sprintf("motor (%d baud)", cfg.Hardware.MotorBaud)
	}
	return ""
}

func renderPorts(ports []string, cfg *config.Config) string {
	rows := make([][]string, 0, len(ports))
	for _, p := range ports {
		rows = append(rows, []string{p, portRole(p, cfg)})
	}
	if len(rows) == 0 {
		rows = append(rows, []string{"(no serial ports)", ""})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Port", "Role").
		Rows(rows...).
		Render()
}

func renderAngles(angles map[car.ServoName]int, cal car.Calibration) string {
	names := car.AllServos()
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		angle, ok := angles[name]
		reading := "no reply"
		if ok {
			reading = fmt.Sprintf("%+d°", angle)
		}
		sc := cal[name]
		rows = append(rows, []string{
			strings.ReplaceAll(string(name), "_", " "),
			fmt.Sprintf("%d", sc.ID),
			reading,
			fmt.Sprintf("%d..%d (centre %d)", sc.RangeMin, sc.RangeMax, sc.Center),
		})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Servo", "ID", "Angle", "Raw range").
		Rows(rows...).
		Render()
}
