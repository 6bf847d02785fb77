package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"gitlab.com/tinyland/lab/quant-predict/pkg/notify"
)

const (
	toastWidth   = 40
	maxToasts    = 4
	toastPadding = 1
)

// renderToasts stacks the visible notifications, newest at the bottom.
// Each toast is a bubblezone so a click dismisses it.
func (m Model) renderToasts(st styles) string {
	vis := m.queue.Visible()
	if len(vis) == 0 {
		return ""
	}
	if len(vis) > maxToasts {
		vis = vis[len(vis)-maxToasts:]
	}

	width := toastWidth
	if m.width-2 < width {
		width = m.width - 2
	}
	if width < 10 {
		width = 10
	}
	inner := width - 2 - 2*toastPadding

	boxes := make([]string, 0, len(vis))
	for _, e := range vis {
		boxes = append(boxes, m.zones.Mark(toastZoneID(e.ID), renderToast(st, e.Event, inner)))
	}
	return lipgloss.JoinVertical(lipgloss.Right, boxes...)
}

func renderToast(st styles, e notify.Event, inner int) string {
	border := st.pal.Border
	titleColor := st.pal.Foreground
	if e.Variant == notify.VariantDestructive {
		border = st.pal.Destructive
		titleColor = st.pal.Destructive
	}

	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(titleColor)).
			Render(ansi.Truncate(e.Title, inner, "…")),
	}
	if e.Description != "" {
		wrapped := ansi.Wordwrap(e.Description, inner, "")
		for _, l := range strings.Split(wrapped, "\n") {
			lines = append(lines, st.muted.Render(ansi.Truncate(l, inner, "…")))
		}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Padding(0, toastPadding).
		Width(inner + 2*toastPadding).
		Render(strings.Join(lines, "\n"))
}
