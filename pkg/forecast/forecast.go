// Package forecast defines the contract between the dashboard and the
// prediction engine: the validated request, the result series with their
// accuracy metrics, and the Predictor implementations (a local mock and an
// HTTP client for the model server).
package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Horizon bounds in days.
const (
	MinHorizonDays = 1
	MaxHorizonDays = 30
)

var (
	// ErrMismatchedSeries is returned when a result's series lengths differ.
	ErrMismatchedSeries = errors.New("forecast: series lengths differ")

	// ErrInvalidRequest wraps request validation failures.
	ErrInvalidRequest = errors.New("forecast: invalid request")
)

var validate = validator.New()

// Model names a prediction model. The zero value means none selected.
type Model string

const (
	ModelUnset   Model = ""
	ModelXGBoost Model = "xgboost"
	ModelLSTM    Model = "lstm"
)

// Models lists the selectable models in menu order.
var Models = []Model{ModelXGBoost, ModelLSTM}

// ParseModel accepts the canonical names plus "xgb", case-insensitively.
func ParseModel(s string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xgboost", "xgb":
		return ModelXGBoost, nil
	case "lstm":
		return ModelLSTM, nil
	case "":
		return ModelUnset, nil
	default:
		return ModelUnset, fmt.Errorf("forecast: unknown model %q (choose xgboost or lstm)", s)
	}
}

// DisplayName returns "XGBoost", "LSTM", or "Select model".
func (m Model) DisplayName() string {
	switch m {
	case ModelXGBoost:
		return "XGBoost"
	case ModelLSTM:
		return "LSTM"
	default:
		return "Select model"
	}
}

// Request is the input to a prediction.
type Request struct {
	Symbol      string `json:"stock" validate:"required,max=10"`
	HorizonDays int    `json:"days" validate:"gte=1,lte=30"`
	Model       Model  `json:"model" validate:"oneof=xgboost lstm"`

	// File is an optional path to a user-supplied CSV. It is passed to the
	// engine as-is and never opened by the dashboard core.
	File string `json:"-"`
}

// Validate checks field constraints.
func (r Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// Metrics summarises prediction accuracy.
type Metrics struct {
	RMSE     float64 `json:"rmse"`
	MAE      float64 `json:"mae"`
	Accuracy float64 `json:"accuracy"` // percent
}

// Result is a completed forecast. All three series have equal length.
type Result struct {
	Dates           []time.Time `json:"dates"`
	ActualPrices    []float64   `json:"actualPrices"`
	PredictedPrices []float64   `json:"predictedPrices"`
	Metrics         Metrics     `json:"metrics"`
}

// Len returns the number of forecast days.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Dates)
}

// Validate enforces the equal-length invariant.
func (r *Result) Validate() error {
	if r == nil {
		return fmt.Errorf("forecast: nil result")
	}
	if len(r.ActualPrices) != len(r.Dates) || len(r.PredictedPrices) != len(r.Dates) {
		return fmt.Errorf("%w: dates=%d actual=%d predicted=%d", ErrMismatchedSeries,
			len(r.Dates), len(r.ActualPrices), len(r.PredictedPrices))
	}
	return nil
}

// Predictor runs a forecast. Implementations must honour ctx cancellation.
type Predictor interface {
	Predict(ctx context.Context, req Request) (*Result, error)
}

// PredictorFunc adapts a function to Predictor.
type PredictorFunc func(ctx context.Context, req Request) (*Result, error)

// Predict calls f.
func (f PredictorFunc) Predict(ctx context.Context, req Request) (*Result, error) {
	return f(ctx, req)
}

// ComputeMetrics derives RMSE, MAE and accuracy (100 - MAPE, clamped to
// [0,100]) from paired series. Pairs with a zero actual price are skipped
// for MAPE.
func ComputeMetrics(actual, predicted []float64) Metrics {
	n := len(actual)
	if len(predicted) < n {
		n = len(predicted)
	}
	if n == 0 {
		return Metrics{}
	}

	var sq, abs, pct float64
	pctN := 0
	for i := 0; i < n; i++ {
		d := predicted[i] - actual[i]
		sq += d * d
		abs += math.Abs(d)
		if actual[i] != 0 {
			pct += math.Abs(d / actual[i])
			pctN++
		}
	}

	acc := 0.0
	if pctN > 0 {
		acc = 100 - pct/float64(pctN)*100
	}
	acc = math.Max(0, math.Min(100, acc))

	return Metrics{
		RMSE:     math.Sqrt(sq / float64(n)),
		MAE:      abs / float64(n),
		Accuracy: acc,
	}
}
