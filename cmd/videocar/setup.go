package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.bug.st/serial"

	"github.com/gwillem/videocar/pkg/car"
	"github.com/gwillem/videocar/pkg/config"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const servoCount = 3

type SetupCommand struct {
	Config string `long:"config" short:"c" default:"videocar.json" description:"Configuration file to write"`
}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("Video Car Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━"))
	fmt.Println()

	// Step 1: Find the servo bus
	bus, err := scanForServoBus()
	if err != nil {
		return err
	}
	hw := car.HardwareConfig{ServoPort: bus.port, MotorBaud: car.DefaultMotorBaud}

	// Step 2: Name each servo
	ids, err := identifyServos(bus)
	bus.bus.Close()
	if err != nil {
		return err
	}

	// Step 3: Pick the motor controller
	hw.MotorPort, err = selectMotorPort(bus.port)
	if err != nil {
		return err
	}

	// Step 4: Calibrate
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Calibrating Servos ━━━"))
	fmt.Println()
	hw.Calibration, err = calibrateServos(hw.ServoPort, ids)
	if err != nil {
		return err
	}

	if config.Exists(c.Config) {
		fmt.Println(dimStyle.Render("Updating hardware section of " + c.Config))
	}
	if err := config.SaveHardware(c.Config, hw); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", c.Config)
	fmt.Println()
	fmt.Println("Start driving with: " + headerStyle.Render("videocar drive"))

	return nil
}

type servoBus struct {
	port   string
	servos []feetech.FoundServo
	bus    *feetech.Bus
}

func openBus(port string) (*feetech.Bus, error) {
	return feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: car.ServoBaud,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
}

// usablePorts lists serial ports, skipping Bluetooth ports on macOS.
func usablePorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("error listing ports: %w", err)
	}
	return slices.DeleteFunc(ports, func(p string) bool {
		return strings.Contains(p, "Bluetooth")
	}), nil
}

func findServoBuses() []servoBus {
	ports, err := usablePorts()
	if err != nil {
		fmt.Println(err)
		return nil
	}

	var found []servoBus
	for _, port := range ports {
		bus, err := openBus(port)
		if err != nil {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		servos, err := bus.Scan(ctx, 1, servoCount)
		cancel()

		if err != nil || !isCarBus(servos) {
			bus.Close()
			continue
		}
		fmt.Printf("  Found servo bus on %s\n", port)
		found = append(found, servoBus{port: port, servos: servos, bus: bus})
	}
	return found
}

// isCarBus reports whether servos holds exactly IDs 1 to 3.
func isCarBus(servos []feetech.FoundServo) bool {
	if len(servos) != servoCount {
		return false
	}
	ids := make(map[int]bool)
	for _, s := range servos {
		ids[s.ID] = true
	}
	for i := 1; i <= servoCount; i++ {
		if !ids[i] {
			return false
		}
	}
	return true
}

func scanForServoBus() (servoBus, error) {
	fmt.Println("Scanning for the servo bus...")
	fmt.Println()

	buses := findServoBuses()
	switch len(buses) {
	case 0:
		fmt.Println("No servo bus found.")
		fmt.Println("Make sure the car is connected and powered on.")
		return servoBus{}, errors.New("no servo bus found")
	case 1:
		return buses[0], nil
	}

	var port string
	options := make([]huh.Option[string], 0, len(buses))
	for _, b := range buses {
		options = append(options, huh.NewOption(b.port, b.port))
	}
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Several servo buses found").
			Description("Which one is the car?").
			Options(options...).
			Value(&port),
	))
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}

	var chosen servoBus
	for _, b := range buses {
		if b.port == port {
			chosen = b
		} else {
			b.bus.Close()
		}
	}
	return chosen, nil
}

// identifyServos wiggles each servo and asks which part of the car moved.
func identifyServos(b servoBus) (map[car.ServoName]int, error) {
	ctx := context.Background()
	ids := make(map[car.ServoName]int)
	remaining := car.AllServos()

	for _, s := range b.servos {
		servo := feetech.NewServo(b.bus, s.ID, s.Model)
		if err := wiggle(ctx, servo); err != nil {
			return nil, fmt.Errorf("wiggle servo %d: %w", s.ID, err)
		}

		var name car.ServoName
		options := make([]huh.Option[car.ServoName], 0, len(remaining))
		for _, n := range remaining {
			options = append(options, huh.NewOption(strings.ReplaceAll(string(n), "_", " "), n))
		}
		form := huh.NewForm(huh.NewGroup(
			huh.NewSelect[car.ServoName]().
				Title(fmt.Sprintf("Which part moved? (servo %d)", s.ID)).
				Options(options...).
				Value(&name),
		))
		if err := form.Run(); err != nil {
			fmt.Println()
			os.Exit(0)
		}

		ids[name] = s.ID
		remaining = slices.DeleteFunc(remaining, func(n car.ServoName) bool { return n == name })
	}
	return ids, nil
}

func wiggle(ctx context.Context, servo *feetech.Servo) error {
	originalPos, err := servo.Position(ctx)
	if err != nil {
		return err
	}
	if err := servo.Enable(ctx); err != nil {
		return err
	}
	defer servo.Disable(ctx)

	// Single gentle, slow movement
	wiggleAmount := 60
	moveTimeMs := 400
	for _, pos := range []int{originalPos + wiggleAmount, originalPos - wiggleAmount, originalPos} {
		servo.SetPositionWithTime(ctx, pos, moveTimeMs)
		time.Sleep(time.Duration(moveTimeMs+100) * time.Millisecond)
	}
	return nil
}

func selectMotorPort(servoPort string) (string, error) {
	ports, err := usablePorts()
	if err != nil {
		return "", err
	}
	ports = slices.DeleteFunc(ports, func(p string) bool { return p == servoPort })
	if len(ports) == 0 {
		return "", errors.New("no serial port left for the motor controller")
	}

	port := ports[0]
	options := make([]huh.Option[string], 0, len(ports))
	for _, p := range ports {
		options = append(options, huh.NewOption(p, p))
	}
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Motor controller port").
			Description(fmt.Sprintf("Line protocol at %d baud", car.DefaultMotorBaud)).
			Options(options...).
			Value(&port),
	))
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	return port, nil
}

func calibrateServos(port string, ids map[car.ServoName]int) (car.Calibration, error) {
	bus, err := openBus(port)
	if err != nil {
		return nil, fmt.Errorf("error connecting to servo bus: %w", err)
	}
	defer bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	found, err := bus.Scan(ctx, 1, servoCount)
	cancel()
	if err != nil {
		return nil, err
	}

	servoMap := make(map[car.ServoName]*feetech.Servo)
	for name, id := range ids {
		for _, s := range found {
			if s.ID == id {
				servoMap[name] = feetech.NewServo(bus, s.ID, s.Model)
			}
		}
	}
	if len(servoMap) != servoCount {
		return nil, fmt.Errorf("expected %d servos, found %d", servoCount, len(servoMap))
	}

	// Free the servos so they can be moved by hand
	for _, servo := range servoMap {
		servo.Disable(context.Background())
	}

	fmt.Println(subHeaderStyle.Render("Record range of motion"))
	fmt.Println("Turn the wheels and the camera to both ends of their travel.")
	fmt.Println("Then leave the wheels straight and the camera centred, and press Enter.")
	fmt.Println()

	model := newCalibrationModel(servoMap)
	p := tea.NewProgram(model)
	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("error running calibration: %w", err)
	}
	cm := finalModel.(calibrationModel)
	if cm.aborted {
		return nil, errors.New("calibration aborted")
	}

	return buildCalibration(ids, cm.cur, cm.min, cm.max), nil
}

// buildCalibration records each servo's range with the resting position as
// centre.
func buildCalibration(ids map[car.ServoName]int, cur, lo, hi map[car.ServoName]int) car.Calibration {
	cal := make(car.Calibration)
	for name, id := range ids {
		cal[name] = car.ServoCalibration{
			ID:       id,
			Center:   cur[name],
			RangeMin: lo[name],
			RangeMax: hi[name],
		}
	}
	return cal
}

// Calibration TUI model
type calibrationModel struct {
	servos   map[car.ServoName]*feetech.Servo
	read     func(*feetech.Servo) (int, error)
	cur      map[car.ServoName]int
	min      map[car.ServoName]int
	max      map[car.ServoName]int
	seen     map[car.ServoName]bool
	quitting bool
	aborted  bool
}

type tickMsg time.Time

func newCalibrationModel(servos map[car.ServoName]*feetech.Servo) calibrationModel {
	return calibrationModel{
		servos: servos,
		read: func(s *feetech.Servo) (int, error) {
			return s.Position(context.Background())
		},
		cur:  make(map[car.ServoName]int),
		min:  make(map[car.ServoName]int),
		max:  make(map[car.ServoName]int),
		seen: make(map[car.ServoName]bool),
	}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m calibrationModel) Init() tea.Cmd {
	return tick()
}

// record folds a position reading into the tracked range.
func (m calibrationModel) record(name car.ServoName, pos int) {
	m.cur[name] = pos
	if !m.seen[name] || pos < m.min[name] {
		m.min[name] = pos
	}
	if !m.seen[name] || pos > m.max[name] {
		m.max[name] = pos
	}
	m.seen[name] = true
}

func (m calibrationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			m.quitting = true
			return m, tea.Quit
		case "q", "ctrl+c":
			m.quitting = true
			m.aborted = true
			return m, tea.Quit
		}

	case tickMsg:
		for name, servo := range m.servos {
			pos, err := m.read(servo)
			if err != nil {
				continue
			}
			m.record(name, pos)
		}
		return m, tick()
	}

	return m, nil
}

func (m calibrationModel) View() string {
	if m.quitting {
		return ""
	}

	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableServoStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)
	tableCurrentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1)
	tableRangeGoodStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Padding(0, 1)
	tableRangeLowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)

	names := car.AllServos()
	rows := make([][]string, 0, len(names))
	ranges := make([]int, 0, len(names))
	for _, name := range names {
		rangeSize := m.max[name] - m.min[name]
		ranges = append(ranges, rangeSize)
		rows = append(rows, []string{
			string(name),
			fmt.Sprintf("%d", m.cur[name]),
			fmt.Sprintf("%d", m.min[name]),
			fmt.Sprintf("%d", m.max[name]),
			fmt.Sprintf("%d", rangeSize),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Servo", "Current", "Min", "Max", "Range").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			switch col {
			case 0:
				return tableServoStyle
			case 1:
				return tableCurrentStyle
			case 4:
				// steering and camera servos swing far less than an arm joint
				if row >= 0 && row < len(ranges) && ranges[row] > 200 {
					return tableRangeGoodStyle
				}
				return tableRangeLowStyle
			default:
				return tableCellStyle
			}
		})

	return t.Render() + "\n\n" + dimStyle.Render("Press Enter when centred, q to abort")
}
