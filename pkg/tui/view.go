package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"gitlab.com/tinyland/lab/quant-predict/pkg/app"
	"gitlab.com/tinyland/lab/quant-predict/pkg/components"
	"gitlab.com/tinyland/lab/quant-predict/pkg/forecast"
	"gitlab.com/tinyland/lab/quant-predict/pkg/settings"
	"gitlab.com/tinyland/lab/quant-predict/pkg/theme"
)

const (
	maxContentWidth = 96
	scoreBarWidth   = 20
	labelWidth      = 9
)

// styles is the set of lipgloss styles derived from one palette.
type styles struct {
	pal theme.Palette

	title    lipgloss.Style
	muted    lipgloss.Style
	label    lipgloss.Style
	value    lipgloss.Style
	accent   lipgloss.Style
	positive lipgloss.Style
	negative lipgloss.Style
	panel    lipgloss.Style
}

func newStyles(p theme.Palette) styles {
	return styles{
		pal:      p,
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(p.Accent)),
		muted:    lipgloss.NewStyle().Foreground(lipgloss.Color(p.Muted)),
		label:    lipgloss.NewStyle().Foreground(lipgloss.Color(p.Muted)).Width(labelWidth),
		value:    lipgloss.NewStyle().Foreground(lipgloss.Color(p.Foreground)),
		accent:   lipgloss.NewStyle().Foreground(lipgloss.Color(p.Accent)),
		positive: lipgloss.NewStyle().Foreground(lipgloss.Color(p.Positive)),
		negative: lipgloss.NewStyle().Foreground(lipgloss.Color(p.Negative)),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(p.Border)).
			Padding(0, 1),
	}
}

// View renders the dashboard.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	snap := m.ctrl.Snapshot()
	st := newStyles(theme.ForMode(snap.Settings.DarkMode))
	w := contentWidth(m.width)

	sections := []string{
		m.renderHeader(st, snap, w),
		m.renderInput(st, snap, w),
		m.renderMarket(st, snap, w),
		m.renderResult(st, snap, w),
	}
	if m.status != "" {
		sections = append(sections, st.negative.Render(components.Clip(m.status, w)))
	}
	sections = append(sections, m.help.View(m.keys))
	body := lipgloss.JoinVertical(lipgloss.Left, sections...)

	if toasts := m.renderToasts(st); toasts != "" {
		gap := m.height - lipgloss.Height(body) - lipgloss.Height(toasts)
		if gap > 0 {
			body += strings.Repeat("\n", gap)
		}
		body = lipgloss.JoinVertical(lipgloss.Left, body,
			lipgloss.PlaceHorizontal(m.width, lipgloss.Right, toasts))
	}

	return m.zones.Scan(body)
}

func (m Model) renderHeader(st styles, snap app.Snapshot, width int) string {
	s := snap.Settings
	mode := "Light"
	if s.DarkMode {
		mode = "Dark"
	}
	parts := []string{
		mode,
		"Notifications " + onOff(s.NotificationsEnabled),
		s.Language.DisplayName(),
		s.Currency.DisplayName(),
		strings.ToUpper(string(s.Timezone)),
		"Auto-refresh " + autoRefreshLabel(s.AutoRefresh, snap.Refresh),
	}
	title := st.title.Render("Quant Predict")
	line := st.muted.Render(strings.Join(parts, " · "))
	return components.Clip(title+"  "+line, width)
}

func (m Model) renderInput(st styles, snap app.Snapshot, width int) string {
	wf := snap.Workflow

	symbol := st.value.Render(wf.Symbol)
	if m.editing {
		symbol = m.symbol.View()
	}
	model := st.value.Render(wf.Model.DisplayName())
	if wf.Model == forecast.ModelUnset {
		model = st.muted.Render(wf.Model.DisplayName())
	}
	file := st.muted.Render("none (latest market data)")
	if wf.File != nil {
		file = st.value.Render(fmt.Sprintf("%s (%s)", wf.File.Name, humanBytes(wf.File.Size)))
	}
	state := st.muted.Render("Ready")
	if wf.Loading {
		state = m.spinner.View() + st.accent.Render(" Analyzing "+wf.Symbol+"...")
	}

	rows := []string{
		st.label.Render("Symbol") + symbol,
		st.label.Render("Horizon") + st.value.Render(fmt.Sprintf("%d days", wf.HorizonDays)),
		st.label.Render("Model") + model,
		st.label.Render("CSV") + file,
		st.label.Render("Status") + state,
	}
	return st.panel.Width(width - 2).Render(strings.Join(rows, "\n"))
}

// marketFigure is one headline market number. Money figures take the
// display currency symbol.
type marketFigure struct {
	title  string
	value  string
	money  bool
	change float64
}

// marketFigures is the static market snapshot shown beside the forecast.
var marketFigures = []marketFigure{
	{title: "Market Cap", value: "2.8T", money: true, change: 2.4},
	{title: "Volume", value: "89.2B", money: true, change: -1.2},
	{title: "VIX", value: "18.4", change: 0.8},
}

func (m Model) renderMarket(st styles, snap app.Snapshot, width int) string {
	cells := make([]string, 0, len(marketFigures))
	for _, f := range marketFigures {
		value := f.value
		if f.money {
			value = snap.Settings.Currency.Symbol() + value
		}
		change := st.positive.Render(fmt.Sprintf("▲ %+.1f%%", f.change))
		if f.change < 0 {
			change = st.negative.Render(fmt.Sprintf("▼ %+.1f%%", f.change))
		}
		cells = append(cells, fmt.Sprintf("%s %s %s", st.muted.Render(f.title), st.value.Render(value), change))
	}
	line := st.title.Render("Market") + "  " + strings.Join(cells, "   ")
	return st.panel.Width(width - 2).Render(components.Clip(line, width-4))
}

func (m Model) renderResult(st styles, snap app.Snapshot, width int) string {
	res := snap.Workflow.Result
	inner := width - 4
	if res == nil {
		return st.panel.Width(width - 2).Render(
			st.muted.Render("No forecast yet. Pick a model and press enter."))
	}

	cur := snap.Settings.Currency
	chart := components.PriceChart{
		Series: []components.Series{
			{Label: "Actual", Color: st.pal.ChartActual, Values: res.ActualPrices},
			{Label: "Predicted", Color: st.pal.ChartPredicted, Values: res.PredictedPrices},
		},
		Format: func(v float64) string { return formatMoney(cur, v) },
	}
	bar := components.ScoreBar{
		Good:      st.pal.Positive,
		Fair:      st.pal.Accent,
		Poor:      st.pal.Negative,
		Track:     st.pal.Border,
		FairBelow: 0.9,
		PoorBelow: 0.7,
	}
	metrics := fmt.Sprintf("%s %s   %s %s   %s %s",
		st.muted.Render("RMSE"), st.value.Render(formatMoney(cur, res.Metrics.RMSE)),
		st.muted.Render("MAE"), st.value.Render(formatMoney(cur, res.Metrics.MAE)),
		st.muted.Render("Accuracy"), bar.Render(res.Metrics.Accuracy, 100, scoreBarWidth))

	tb := m.table
	tb.SetStyles(tableStyles(st.pal))

	wf := snap.Workflow
	heading := st.title.Render(fmt.Sprintf("%s · %d days", wf.Symbol, res.Len()))
	content := lipgloss.JoinVertical(lipgloss.Left,
		heading,
		chart.Render(inner),
		components.Clip(metrics, inner),
		tb.View(),
	)
	return st.panel.Width(width - 2).Render(content)
}

func tableStyles(p theme.Palette) table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(p.Border)).
		BorderBottom(true).
		Foreground(lipgloss.Color(p.Muted))
	s.Selected = s.Selected.Foreground(lipgloss.Color(p.Accent))
	return s
}

func varianceColumns() []table.Column {
	return []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Actual", Width: 12},
		{Title: "Predicted", Width: 12},
		{Title: "Variance", Width: 10},
	}
}

// varianceTableRows formats one row per forecast day in the display
// currency and timezone.
func varianceTableRows(res *forecast.Result, s settings.Record) []table.Row {
	loc := s.Timezone.Location()
	var rows []table.Row
	for _, v := range forecast.VarianceRows(res) {
		arrow := "▲"
		if !v.Positive {
			arrow = "▼"
		}
		rows = append(rows, table.Row{
			v.Date.In(loc).Format("Jan 02 2006"),
			formatMoney(s.Currency, v.Actual),
			formatMoney(s.Currency, v.Predicted),
			fmt.Sprintf("%s %+.1f%%", arrow, v.VariancePct),
		})
	}
	return rows
}

func formatMoney(c settings.Currency, v float64) string {
	return c.Symbol() + fmt.Sprintf("%.2f", v)
}

func tableWidth(termWidth int) int {
	return contentWidth(termWidth) - 4
}

func contentWidth(termWidth int) int {
	if termWidth > maxContentWidth {
		return maxContentWidth
	}
	if termWidth < 20 {
		return 20
	}
	return termWidth
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func autoRefreshLabel(enabled bool, state app.RefreshState) string {
	if !enabled {
		return "off"
	}
	if state == app.RefreshArmed {
		return "armed"
	}
	return "on"
}

func humanBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
