package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickCmd returns a bubbletea Cmd that sends a TickEvent after the given
// duration. This drives the periodic UI refresh cycle.
func TickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return TickEvent{Time: t}
	})
}

// PredictCmd validates and starts a prediction synchronously (so Loading is
// visible on the next render) and returns a Cmd that runs the predictor and
// delivers a PredictionDoneEvent. It returns nil when the request was
// rejected or a prediction is already running.
func PredictCmd(c *Controller, ctx context.Context) tea.Cmd {
	req, ok := c.BeginPredict()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		res, err := c.run(ctx, req)
		return PredictionDoneEvent{Request: req, Result: res, Err: err}
	}
}

// ExportCmd writes the export file off the update loop.
func ExportCmd(c *Controller, dir string) tea.Cmd {
	return func() tea.Msg {
		path, err := c.Export(dir)
		return ExportDoneEvent{Path: path, Err: err}
	}
}
