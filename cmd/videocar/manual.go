package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var controls = [][]string{
	{"w / s", "drive forward / backward at cruise speed"},
	{"a / d", "steer left / right, any other key re-centres"},
	{"space", "stop"},
	{"+ / -", "speed up / slow down"},
	{"arrows", "tilt and pan the camera"},
	{"t", "take a photo"},
	{"m", "music on / off"},
	{"r", "play the directives"},
	{"k", "announce target"},
	{"q / ctrl+c", "quit"},
}

// manual renders the key bindings as a table.
func manual() string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("KEY", "ACTION").
		Rows(controls...)
	return t.Render() + "\n"
}

// shortHelp is the one-line version shown under the chart.
func shortHelp() string {
	var items []string
	for _, c := range controls {
		items = append(items, c[0]+" "+strings.SplitN(c[1], ",", 2)[0])
	}
	return strings.Join(items, " · ")
}
