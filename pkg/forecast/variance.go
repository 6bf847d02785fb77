package forecast

import (
	"math"
	"time"
)

// VarianceRow is one line of the per-day forecast table.
type VarianceRow struct {
	Date        time.Time
	Actual      float64
	Predicted   float64
	VariancePct float64 // (predicted-actual)/actual*100, one decimal
	Positive    bool
}

// VarianceRows builds the per-day table. Rows with a zero actual price
// report 0% variance.
func VarianceRows(r *Result) []VarianceRow {
	if r == nil || r.Validate() != nil {
		return nil
	}
	rows := make([]VarianceRow, len(r.Dates))
	for i, d := range r.Dates {
		a, p := r.ActualPrices[i], r.PredictedPrices[i]
		v := 0.0
		if a != 0 {
			v = math.Round((p-a)/a*100*10) / 10
		}
		rows[i] = VarianceRow{
			Date:        d,
			Actual:      a,
			Predicted:   p,
			VariancePct: v,
			Positive:    v >= 0,
		}
	}
	return rows
}
