// Package trace provides compiler warnings and debug tracing for the
// translate/plan/emit pipeline: missing bound-variable keys and an
// OFFSET set without an ORDER BY or a limit. It never
// aborts a compile; callers decide whether a Logger is wired in at all.
package trace

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Logger prints human-readable warnings, colorized when writing to a
// terminal.
type Logger struct {
	useColor bool
	writer   io.Writer
}

// New creates a Logger writing to w, auto-detecting color support when w
// is *os.File. A nil w defaults to os.Stderr.
func New(w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isTerminal(f.Fd())
	}
	return &Logger{useColor: useColor, writer: w}
}

// Warn prints a compiler warning: a condition the compiler tolerates (a
// bound-variable key that is missing and becomes NULL, an OFFSET with no
// ORDER BY or limit) but that a caller may want visibility into.
func (l *Logger) Warn(format string, args ...interface{}) {
	if l == nil {
		return
	}
	fmt.Fprintln(l.writer, l.colorize("warn:", color.FgYellow)+" "+fmt.Sprintf(format, args...))
}

// Debug prints a low-priority trace line; the demo CLI uses it to
// announce each scenario it runs.
func (l *Logger) Debug(format string, args ...interface{}) {
	if l == nil {
		return
	}
	fmt.Fprintln(l.writer, l.colorize("trace:", color.FgCyan)+" "+fmt.Sprintf(format, args...))
}

func (l *Logger) colorize(text string, attr color.Attribute) string {
	if !l.useColor {
		return text
	}
	return color.New(attr).Sprint(text)
}
