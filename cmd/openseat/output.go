package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	warningColor = color.New(color.FgYellow)
	stepColor    = color.New(color.FgCyan)
	boldColor    = color.New(color.Bold)
)

// stderr is where user-facing status lines go; stdout is kept for data
// and, under `serve`, for the bridge protocol.
var stderr io.Writer = os.Stderr

func colorize(c *color.Color, text string) string {
	return c.Sprint(text)
}

func printSuccess(format string, args ...any) {
	fmt.Fprintln(stderr, colorize(successColor, "✓ "+fmt.Sprintf(format, args...)))
}

func printError(format string, args ...any) {
	fmt.Fprintln(stderr, colorize(errorColor, "✗ "+fmt.Sprintf(format, args...)))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(stderr, colorize(warningColor, "⚠ "+fmt.Sprintf(format, args...)))
}

func printStep(format string, args ...any) {
	fmt.Fprintln(stderr, colorize(stepColor, "→ "+fmt.Sprintf(format, args...)))
}

func printStatus(w io.Writer, label string, format string, args ...any) {
	fmt.Fprintf(w, "  %s %s\n", colorize(boldColor, label+":"), fmt.Sprintf(format, args...))
}
