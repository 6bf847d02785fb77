package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gitlab.com/tinyland/lab/quant-predict/pkg/forecast"
	"gitlab.com/tinyland/lab/quant-predict/pkg/metrics"
	"gitlab.com/tinyland/lab/quant-predict/pkg/notify"
)

var (
	// ErrNoPredictor is reported when a prediction runs without a predictor.
	ErrNoPredictor = errors.New("app: no predictor configured")

	// ErrNotStarted is returned by PredictSync when validation rejected the
	// request or a prediction was already running.
	ErrNotStarted = errors.New("app: prediction not started")
)

// SetSymbol sets the ticker, trimmed and upper-cased. Empty symbols are
// rejected.
func (c *Controller) SetSymbol(symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return fmt.Errorf("app: empty stock symbol")
	}
	c.mu.Lock()
	c.wf.Symbol = symbol
	c.mu.Unlock()
	return nil
}

// SetHorizon sets the forecast horizon, clamped to the supported range,
// and returns the value applied.
func (c *Controller) SetHorizon(days int) int {
	if days < forecast.MinHorizonDays {
		days = forecast.MinHorizonDays
	}
	if days > forecast.MaxHorizonDays {
		days = forecast.MaxHorizonDays
	}
	c.mu.Lock()
	c.wf.HorizonDays = days
	c.mu.Unlock()
	return days
}

// AdjustHorizon adds delta days to the horizon.
func (c *Controller) AdjustHorizon(delta int) int {
	return c.SetHorizon(c.Workflow().HorizonDays + delta)
}

// SetModel selects the model. ModelUnset clears the selection.
func (c *Controller) SetModel(m forecast.Model) {
	c.mu.Lock()
	c.wf.Model = m
	c.mu.Unlock()
}

// CycleModel steps through unset, XGBoost, LSTM.
func (c *Controller) CycleModel() forecast.Model {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.wf.Model {
	case forecast.ModelUnset:
		c.wf.Model = forecast.ModelXGBoost
	case forecast.ModelXGBoost:
		c.wf.Model = forecast.ModelLSTM
	default:
		c.wf.Model = forecast.ModelUnset
	}
	return c.wf.Model
}

// SetFile attaches a CSV reference to the next request.
func (c *Controller) SetFile(f FileRef) {
	c.mu.Lock()
	c.wf.File = &f
	c.mu.Unlock()
}

// ClearFile detaches the CSV reference.
func (c *Controller) ClearFile() {
	c.mu.Lock()
	c.wf.File = nil
	c.mu.Unlock()
}

// BeginPredict validates the workflow and, on success, marks it loading
// and returns the request to run. With no model selected it publishes a
// destructive "Model Required" event and changes nothing. A call while a
// prediction is already running is ignored.
func (c *Controller) BeginPredict() (forecast.Request, bool) {
	c.mu.Lock()
	if c.closed || c.wf.Loading {
		c.mu.Unlock()
		return forecast.Request{}, false
	}
	if c.wf.Model == forecast.ModelUnset {
		c.mu.Unlock()
		c.metrics.RecordPrediction(metrics.OutcomeRejected, 0)
		c.publish(notify.Event{
			Title:       "Model Required",
			Description: "Please select a prediction model (XGBoost or LSTM)",
			Variant:     notify.VariantDestructive,
		})
		return forecast.Request{}, false
	}

	req := forecast.Request{
		Symbol:      c.wf.Symbol,
		HorizonDays: c.wf.HorizonDays,
		Model:       c.wf.Model,
	}
	if c.wf.File != nil {
		req.File = c.wf.File.Path
	}
	c.wf.Loading = true
	c.mu.Unlock()

	c.logger.Info("prediction started", "symbol", req.Symbol, "days", req.HorizonDays, "model", req.Model)
	return req, true
}

// CompletePredict ends the running prediction. A valid result replaces the
// previous one and re-arms auto-refresh; on failure the previous result is
// kept and a destructive "Prediction Failed" event is published. Nothing is
// published once the controller is closed.
func (c *Controller) CompletePredict(req forecast.Request, res *forecast.Result, err error) {
	if err == nil {
		err = res.Validate()
	}

	c.mu.Lock()
	c.wf.Loading = false
	if err == nil {
		c.wf.Result = res
		c.reevaluateRefreshLocked()
	}
	notifyOn := c.settings.NotificationsEnabled
	closed := c.closed
	c.mu.Unlock()

	if closed {
		c.logger.Debug("prediction ended after close", "symbol", req.Symbol, "err", err)
		return
	}
	if err != nil {
		c.logger.Warn("prediction failed", "symbol", req.Symbol, "model", req.Model, "err", err)
		c.publish(notify.Event{
			Title:       "Prediction Failed",
			Description: err.Error(),
			Variant:     notify.VariantDestructive,
		})
		return
	}

	c.logger.Info("prediction complete", "symbol", req.Symbol, "days", res.Len(),
		"rmse", res.Metrics.RMSE, "accuracy", res.Metrics.Accuracy)
	if notifyOn {
		c.publish(notify.Event{
			Title:       "Analysis Complete",
			Description: fmt.Sprintf("Successfully analyzed %d days for %s", req.HorizonDays, req.Symbol),
		})
	}
}

// run calls the predictor and completes the workflow. The controller's
// own context is merged with ctx so Close aborts the call.
func (c *Controller) run(ctx context.Context, req forecast.Request) (*forecast.Result, error) {
	start := c.clock.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()

	var (
		res *forecast.Result
		err error
	)
	if c.predictor == nil {
		err = ErrNoPredictor
	} else {
		res, err = c.predictor.Predict(ctx, req)
	}

	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailure
	}
	c.metrics.RecordPrediction(outcome, c.clock.Now().Sub(start))

	c.CompletePredict(req, res, err)
	return res, err
}

// Predict starts the workflow in the background. The returned channel is
// closed once the workflow is back to idle, immediately when the request
// was rejected or ignored.
func (c *Controller) Predict(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	req, ok := c.BeginPredict()
	if !ok {
		close(done)
		return done
	}
	go func() {
		defer close(done)
		_, _ = c.run(ctx, req)
	}()
	return done
}

// PredictSync runs the workflow on the calling goroutine.
func (c *Controller) PredictSync(ctx context.Context) (*forecast.Result, error) {
	req, ok := c.BeginPredict()
	if !ok {
		return nil, ErrNotStarted
	}
	return c.run(ctx, req)
}
