// Package util provides small text helpers shared by the terminal views.
package util

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Ellipsis marks text that was cut to fit.
const Ellipsis = "…"

// Fit truncates s to width visual columns, ending in Ellipsis when cut.
// ANSI escape codes and wide characters are handled, so styled text can be
// passed in. A non-positive width yields "".
func Fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, Ellipsis)
}

// ShortenPath fits a slash-separated path into width columns by replacing
// leading directories with Ellipsis, keeping the file name intact as long as
// it fits on its own.
func ShortenPath(path string, width int) string {
	if lipgloss.Width(path) <= width {
		return path
	}
	parts := strings.Split(path, "/")
	base := parts[len(parts)-1]
	if lipgloss.Width(Ellipsis+"/"+base) > width {
		return Fit(base, width)
	}

	// Keep as many trailing directories as fit.
	kept := base
	for i := len(parts) - 2; i >= 0; i-- {
		candidate := parts[i] + "/" + kept
		if lipgloss.Width(Ellipsis+"/"+candidate) > width {
			break
		}
		kept = candidate
	}
	return Ellipsis + "/" + kept
}
