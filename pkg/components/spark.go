package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Eight vertical levels per cell, lowest first.
var sparkBlocks = [8]rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Series is one named line of a PriceChart.
type Series struct {
	Label  string
	Color  string // hex
	Values []float64
}

// PriceChart renders several series as stacked sparklines sharing one
// vertical scale, so the rows can be compared cell by cell.
type PriceChart struct {
	Series []Series

	// Format renders the scale labels. Defaults to "%.2f".
	Format func(float64) string
}

// Render draws the chart into width cells. Each row is
// "<label> <sparkline>" with the labels padded to a common width, followed
// by a "low … high" scale line. Series longer than the available width are
// resampled to fit.
func (c PriceChart) Render(width int) string {
	if width <= 0 || len(c.Series) == 0 {
		return ""
	}
	format := c.Format
	if format == nil {
		format = func(v float64) string { return fmt.Sprintf("%.2f", v) }
	}

	labelW := 0
	for _, s := range c.Series {
		if w := VisibleLen(s.Label); w > labelW {
			labelW = w
		}
	}
	plotW := width - labelW - 1
	if plotW < 1 {
		plotW = width
		labelW = 0
	}

	lo, hi, ok := sharedRange(c.Series)
	if !ok {
		return ""
	}

	lines := make([]string, 0, len(c.Series)+1)
	for _, s := range c.Series {
		spark := SparkRange(Resample(s.Values, plotW), lo, hi)
		if s.Color != "" {
			spark = lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color)).Render(spark)
		}
		if labelW > 0 {
			lines = append(lines, Fit(s.Label, labelW)+" "+spark)
		} else {
			lines = append(lines, spark)
		}
	}

	scale := format(lo) + " … " + format(hi)
	if labelW > 0 {
		scale = strings.Repeat(" ", labelW+1) + scale
	}
	lines = append(lines, Clip(scale, width))
	return strings.Join(lines, "\n")
}

// SparkRange maps values onto block characters between lo and hi. Values
// outside the range are clamped; a flat range renders at mid height.
func SparkRange(values []float64, lo, hi float64) string {
	var b strings.Builder
	span := hi - lo
	for _, v := range values {
		idx := 3
		if span > 0 {
			n := (v - lo) / span
			n = math.Max(0, math.Min(1, n))
			idx = int(math.Round(n * 7))
		}
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}

// Resample returns at most n points from values, picking evenly spaced
// samples and always keeping the first and last point.
func Resample(values []float64, n int) []float64 {
	if n <= 0 || len(values) <= n {
		return values
	}
	if n == 1 {
		return []float64{values[len(values)-1]}
	}
	out := make([]float64, n)
	step := float64(len(values)-1) / float64(n-1)
	for i := range out {
		out[i] = values[int(math.Round(float64(i)*step))]
	}
	return out
}

func sharedRange(series []Series) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, v := range s.Values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
			ok = true
		}
	}
	return lo, hi, ok
}
