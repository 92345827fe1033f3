// Package output renders terminal and CI output: framed sections, status
// icons, and color handling.
package output

import "os"

// Colors for terminal output.
const (
	colorReset = "\033[0m"
	colorGray  = "\033[90m"
	colorBold  = "\033[1m"
)

// IsCI reports whether we are running inside a CI pipeline.
func IsCI() bool {
	return os.Getenv("CI") == "true"
}

// UseColor returns true if colored output should be used.
// Respects NO_COLOR env, TERM=dumb, and terminal detection.
func UseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isTerminal() || IsCI()
}

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// Bold returns bold text if color is enabled.
func Bold(text string, color bool) string {
	if !color {
		return text
	}
	return colorBold + text + colorReset
}

// Dimmed returns dimmed text if color is enabled.
func Dimmed(text string, color bool) string {
	if !color {
		return text
	}
	return colorGray + text + colorReset
}
