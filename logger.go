package http2

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Logger is the minimal logging surface the codec needs, in the shape
// of fasthttp.Logger but decoupled from it since transport is out of
// this module's scope.
type Logger interface {
	Printf(format string, args ...interface{})
}

// ColorLogger writes connection/stream lifecycle events
// (GOAWAY/RST_STREAM/SETTINGS) with severity-coded color when attached
// to a terminal, plain text otherwise.
type ColorLogger struct {
	out      io.Writer
	colorize bool
}

// NewColorLogger returns a ColorLogger writing to w, auto-detecting
// whether w is a terminal (via mattn/go-isatty) to decide whether to
// colorize.
func NewColorLogger(w io.Writer) *ColorLogger {
	colorize := false

	if f, ok := w.(*os.File); ok {
		colorize = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		w = colorable.NewColorable(f)
	}

	return &ColorLogger{out: w, colorize: colorize}
}

// Printf writes a plain event line.
func (l *ColorLogger) Printf(format string, args ...interface{}) {
	l.writeLine(color.FgWhite, format, args...)
}

// Warnf writes a yellow, warning-severity event line (e.g. RST_STREAM,
// an ignored unknown SETTINGS key).
func (l *ColorLogger) Warnf(format string, args ...interface{}) {
	l.writeLine(color.FgYellow, format, args...)
}

// Errorf writes a red, fatal-severity event line (e.g. GOAWAY, a
// ConnectionError about to close the transport).
func (l *ColorLogger) Errorf(format string, args ...interface{}) {
	l.writeLine(color.FgRed, format, args...)
}

func (l *ColorLogger) writeLine(c color.Attribute, format string, args ...interface{}) {
	if !l.colorize {
		fmt.Fprintf(l.out, format, args...)
		if len(format) == 0 || format[len(format)-1] != '\n' {
			fmt.Fprintln(l.out)
		}
		return
	}

	cl := color.New(c)
	cl.Fprintf(l.out, format, args...)
	if len(format) == 0 || format[len(format)-1] != '\n' {
		fmt.Fprintln(l.out)
	}
}

var _ Logger = (*ColorLogger)(nil)
