package main

import (
	"bytes"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// newLogger builds the console logger. debug overrides the configured level.
func newLogger(out io.Writer, level string, debug, color bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if debug {
		lvl = zerolog.DebugLevel
	}
	w := zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05", NoColor: !color}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// logLines feeds formatted log lines to the dashboard log box.
type logLines struct {
	ch chan string
}

func newLogLines() *logLines {
	return &logLines{ch: make(chan string, 32)}
}

func (l *logLines) Write(p []byte) (int, error) {
	select {
	case l.ch <- strings.TrimRight(string(p), "\n"):
	default:
		// Drop if channel full
	}
	return len(p), nil
}

// crlf writes log lines to a terminal in raw mode.
type crlf struct {
	w io.Writer
}

func (c crlf) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Lines returns a channel that receives log lines.
func (l *logLines) Lines() <-chan string {
	return l.ch
}
