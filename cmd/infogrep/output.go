package main

import (
	"fmt"
	"os"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

// mark writes one sigil-prefixed line to stderr, colored unless --no-color.
func mark(color, sigil, format string, args ...any) {
	fmt.Fprintln(os.Stderr, colorize(color, sigil+" "+fmt.Sprintf(format, args...)))
}

func printSuccess(format string, args ...any) { mark(colorGreen, "✓", format, args...) }

func printError(format string, args ...any) { mark(colorRed, "✗", format, args...) }

func printWarning(format string, args ...any) { mark(colorYellow, "⚠", format, args...) }

func printStep(format string, args ...any) { mark(colorCyan, "→", format, args...) }

func printStatus(label string, format string, args ...any) {
	fmt.Fprintf(os.Stderr, "  %s %s\n", colorize(colorBold, label+":"), fmt.Sprintf(format, args...))
}

// shortID abbreviates a backend id for listings. Ids are UUIDs in
// practice, but display must not assume their length.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
