package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Partial cells, in eighths.
var barBlocks = [9]rune{' ', '▏', '▎', '▍', '▌', '▋', '▊', '▉', '█'}

// ScoreBar is a horizontal bar for a score where higher is better, such as
// forecast accuracy. The fill color steps down from Good to Fair to Poor as
// the ratio drops below the thresholds.
type ScoreBar struct {
	Good, Fair, Poor string // hex colors
	Track            string // hex color of the unfilled part

	FairBelow float64 // ratio under which Fair is used, e.g. 0.9
	PoorBelow float64 // ratio under which Poor is used, e.g. 0.7
}

// Render draws value/max into width cells followed by " NN%".
func (s ScoreBar) Render(value, max float64, width int) string {
	if width <= 0 {
		return ""
	}
	ratio := 0.0
	if max > 0 {
		ratio = math.Max(0, math.Min(1, value/max))
	}

	color := s.Good
	switch {
	case ratio < s.PoorBelow:
		color = s.Poor
	case ratio < s.FairBelow:
		color = s.Fair
	}

	units := int(math.Round(ratio * float64(width*8)))
	full, part := units/8, units%8

	var bar strings.Builder
	bar.WriteString(strings.Repeat(string(barBlocks[8]), full))
	if part > 0 {
		bar.WriteRune(barBlocks[part])
	}
	filled := bar.String()
	empty := strings.Repeat("░", width-VisibleLen(filled))

	fill := lipgloss.NewStyle()
	if color != "" {
		fill = fill.Foreground(lipgloss.Color(color))
	}
	track := lipgloss.NewStyle()
	if s.Track != "" {
		track = track.Foreground(lipgloss.Color(s.Track))
	}
	return fill.Render(filled) + track.Render(empty) + fmt.Sprintf(" %d%%", int(math.Round(ratio*100)))
}
