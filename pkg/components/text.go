// Package components renders the small text-mode charts used by the
// dashboard: paired price sparklines, the accuracy bar, and width-aware
// text helpers. Output is styled with lipgloss; widths are measured with
// x/ansi so styled strings can be padded and clipped safely.
package components

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// VisibleLen returns the width of s in terminal cells, ignoring ANSI
// escape sequences.
func VisibleLen(s string) int {
	return ansi.StringWidth(s)
}

// Clip cuts s to at most width cells, ending with "…" when anything was
// removed.
func Clip(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "…")
}

// Fit clips or right-pads s so it is exactly width cells wide.
func Fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = Clip(s, width)
	if pad := width - VisibleLen(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}
