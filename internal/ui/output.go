// Package ui provides user interface utilities for devbox: colored status
// messages, tables and the single-line progress indicator wrapped around
// every external command. Color respects NO_COLOR and TTY detection.
package ui

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
)

// Out receives status messages and prompts. On Windows consoles the escape
// sequences are translated by go-colorable.
var Out io.Writer = colorable.NewColorableStderr()

// Progress reporter shared by every external command in a run.
var progress = newConsoleReporter(os.Stderr)

// newConsoleReporter writes through a colorable wrapper of f. Terminal
// detection uses f itself since the wrapper is not an *os.File.
func newConsoleReporter(f *os.File) *Reporter {
	return newReporter(colorable.NewColorable(f), isTerminal(f), repaintInterval)
}

// DefaultReporter returns the process-wide progress reporter.
func DefaultReporter() *Reporter {
	return progress
}

// Success prints a green-colored message.
func Success(format string, args ...interface{}) {
	color.New(color.FgGreen).Fprintf(Out, format, args...)
}

// Warning prints a yellow-colored message.
func Warning(format string, args ...interface{}) {
	color.New(color.FgYellow).Fprintf(Out, format, args...)
}

// Error prints a red-colored message.
func Error(format string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(Out, format, args...)
}

// Info prints a cyan-colored message.
func Info(format string, args ...interface{}) {
	color.New(color.FgCyan).Fprintf(Out, format, args...)
}
