package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/videocar/pkg/car"
	"github.com/gwillem/videocar/pkg/teleop"
)

const (
	headerHeight = 3 // title + status + blank line
	legendHeight = 2 // legend row + help
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border

	seriesSpeed    = "speed"
	seriesSteering = "steering"
)

var seriesColors = map[string]string{
	seriesSpeed:    "46", // green
	seriesSteering: "51", // cyan
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
)

// Messages from the controller
type stateMsg teleop.State
type logMsg string
type runDoneMsg struct{ err error }

type dashboard struct {
	ctrl   *teleop.Controller
	keys   chan<- teleop.Key
	lines  *logLines
	sim    bool
	chart  *streamlinechart.Model
	width  int // terminal width
	height int // terminal height
	logs   []string
	state  teleop.State
	last   *teleop.State // last charted state, nil until the first one

	stopping bool
	quitting bool
}

func newDashboard(ctrl *teleop.Controller, keys chan<- teleop.Key, lines *logLines, sim bool) dashboard {
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(-car.MaxSpeed, car.MaxSpeed),
	)
	for name, color := range seriesColors {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
		chart.SetDataSetStyles(name, runes.ThinLineStyle, style)
	}

	return dashboard{
		ctrl:  ctrl,
		keys:  keys,
		lines: lines,
		sim:   sim,
		chart: &chart,
	}
}

func (m *dashboard) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// send forwards a key to the controller without blocking the UI.
func (m *dashboard) send(k teleop.Key) {
	select {
	case m.keys <- k:
	default:
		m.addLog(fmt.Sprintf("key %s dropped", k))
	}
}

func waitForState(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-ctrl.States())
	}
}

func waitForLog(lines *logLines) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-lines.Lines())
	}
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *dashboard) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20 // default size before we know terminal size
	}
	width = max(m.width-borderSize-2, 40)
	height = max(m.height-headerHeight-legendHeight-footerHeight-borderSize, 10)
	return width, height
}

// signedSpeed plots reverse below the axis.
func signedSpeed(s teleop.State) float64 {
	if s.Status == car.Backward {
		return float64(-s.Speed)
	}
	return float64(s.Speed)
}

func (m dashboard) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.ctrl),
		waitForLog(m.lines),
	)
}

func (m dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.chart.Resize(m.chartSize())
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.stopping {
				// second press: the controller is not answering
				return m, tea.Quit
			}
			m.stopping = true
			m.send(teleop.KeyInterrupt)
			return m, nil
		}
		m.send(teleop.Key(msg.String()))
		return m, nil

	case stateMsg:
		state := teleop.State(msg)
		m.state = state
		// Freeze the chart while idle
		if m.last == nil || m.last.Speed != state.Speed || m.last.Steering != state.Steering || m.last.Status != state.Status {
			m.chart.PushDataSet(seriesSpeed, signedSpeed(state))
			m.chart.PushDataSet(seriesSteering, float64(state.Steering))
			m.chart.DrawAll()
			m.last = &state
		}
		return m, waitForState(m.ctrl)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.lines)

	case runDoneMsg:
		if msg.err != nil {
			m.addLog("fault: " + msg.err.Error())
		}
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m dashboard) View() string {
	if m.quitting {
		return "Teleoperation stopped.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render("Video Car"))
	sb.WriteString(fmt.Sprintf(" - %d Hz", m.ctrl.Hz()))
	if m.sim {
		sb.WriteString(" " + warnStyle.Render("[SIM]"))
	}
	if m.width > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%dx%d]", m.width, m.height)))
	}
	sb.WriteString("\n")
	sb.WriteString(renderStatus(m.state))
	sb.WriteString("\n\n")

	// Chart
	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	// Legend
	sb.WriteString(renderLegend())
	sb.WriteString("\n")
	sb.WriteString(statusStyle.Render(shortHelp()))
	sb.WriteString("\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(max(m.width-4, 20))

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("Press 'q' to quit")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func renderStatus(s teleop.State) string {
	throttle := "off"
	if s.Throttle {
		throttle = "on"
	}
	music := "off"
	if s.Music {
		music = "on"
	}
	return fmt.Sprintf("%-8s speed %3d/%-3d  steering %+3d/%+3d  camera tilt %+3d pan %+3d  throttle %s  music %s",
		s.Status, s.Speed, s.TargetSpeed, s.Steering, s.TargetSteering,
		s.CameraTilt, s.CameraPan, throttle, music)
}

func renderLegend() string {
	var items []string
	for _, name := range []string{seriesSpeed, seriesSteering} {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(seriesColors[name])).Bold(true)
		items = append(items, colorStyle.Render("━━")+" "+name)
	}
	return strings.Join(items, "  ")
}
