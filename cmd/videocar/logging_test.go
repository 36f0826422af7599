package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "warn", false, false)
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	log = newLogger(&buf, "bogus", true, false)
	log.Debug().Msg("debug on")
	assert.Contains(t, buf.String(), "debug on")
}

func TestLogLines_DropsWhenFull(t *testing.T) {
	l := newLogLines()
	for i := 0; i < cap(l.ch)+10; i++ {
		n, err := l.Write([]byte("line\n"))
		require.NoError(t, err)
		assert.Equal(t, 5, n)
	}
	assert.Len(t, l.ch, cap(l.ch))
	assert.Equal(t, "line", <-l.Lines())
}

func TestCRLF(t *testing.T) {
	var buf bytes.Buffer
	n, err := crlf{&buf}.Write([]byte("a\nb\n"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "a\r\nb\r\n", buf.String())
}
