// Package app holds the dashboard's view-state controller: the settings
// record with write-through persistence, the auto-refresh timer, and the
// prediction workflow. It also defines the bubbletea messages and commands
// the TUI uses to drive the controller.
package app

import (
	"time"

	"gitlab.com/tinyland/lab/quant-predict/pkg/forecast"
)

// TickEvent is sent periodically by the render ticker so the view picks up
// state changed by timers and background predictions.
type TickEvent struct {
	Time time.Time
}

// PredictionDoneEvent is delivered when a prediction started by PredictCmd
// has completed. The controller state is already updated when it arrives.
type PredictionDoneEvent struct {
	Request forecast.Request
	Result  *forecast.Result
	Err     error
}

// ExportDoneEvent carries the outcome of ExportCmd.
type ExportDoneEvent struct {
	Path string
	Err  error
}
