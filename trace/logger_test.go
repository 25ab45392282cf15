package trace

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWarnWritesFormattedMessage(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.Warn("unresolved property %q, falling back to %s", "x.y", "u")

	out := buf.String()
	assert.True(t, strings.Contains(out, "warn:"))
	assert.True(t, strings.Contains(out, `unresolved property "x.y", falling back to u`))
}

func TestDebugWritesFormattedMessage(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.Debug("resolving %s via strategy %s", "j.o.amount", "d")

	out := buf.String()
	assert.True(t, strings.Contains(out, "trace:"))
}

func TestNewDefaultsNilWriterToStderr(t *testing.T) {
	l := New(nil)
	assert.NotNil(t, l)
}

func TestNilLoggerMethodsAreNoOps(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Warn("ignored")
		l.Debug("ignored")
	})
}

func TestNonFileWriterDisablesColor(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.Warn("plain")
	assert.Equal(t, "warn: plain\n", buf.String())
}

func TestIsTerminalRecognizesStdoutAndStderr(t *testing.T) {
	assert.True(t, isTerminal(1))
	assert.True(t, isTerminal(2))
	assert.False(t, isTerminal(0))
	assert.False(t, isTerminal(99))
}
