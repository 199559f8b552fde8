// Package ui provides terminal output for the survaize CLI.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	stdout  io.Writer = os.Stdout
	stderr  io.Writer = os.Stderr
	verbose bool

	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	warnColor    = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	stepColor    = color.New(color.FgBlue)
	headingColor = color.New(color.Bold)
)

// Init applies the color and verbosity flags.
func Init(noColor, isVerbose bool) {
	verbose = isVerbose
	if noColor {
		color.NoColor = true
	}
}

// SetOutput redirects output, for tests.
func SetOutput(out, errOut io.Writer) {
	stdout, stderr = out, errOut
}

// Verbose reports whether --verbose was given.
func Verbose() bool { return verbose }

func Success(format string, args ...interface{}) {
	successColor.Fprintf(stdout, "✓ %s\n", fmt.Sprintf(format, args...))
}

func Error(format string, args ...interface{}) {
	errorColor.Fprintf(stderr, "✗ %s\n", fmt.Sprintf(format, args...))
}

func Warning(format string, args ...interface{}) {
	warnColor.Fprintf(stdout, "⚠ %s\n", fmt.Sprintf(format, args...))
}

func Info(format string, args ...interface{}) {
	infoColor.Fprintf(stdout, "ℹ %s\n", fmt.Sprintf(format, args...))
}

// Step displays a step indicator message.
func Step(format string, args ...interface{}) {
	stepColor.Fprintf(stdout, "→ %s\n", fmt.Sprintf(format, args...))
}

// Section displays an underlined header.
func Section(title string) {
	headingColor.Fprintf(stdout, "\n%s\n", title)
	fmt.Fprintf(stdout, "%s\n\n", strings.Repeat("=", len([]rune(title))))
}

func Newline() {
	fmt.Fprintln(stdout)
}

// Writer is where plain command output goes.
func Writer() io.Writer { return stdout }
