// Package metrics exposes Prometheus counters for the dashboard: toasts
// shown and removed, prediction outcomes and latency, settings writes, and
// auto-refresh ticks. All Recorder methods are safe on a nil receiver.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gitlab.com/tinyland/lab/quant-predict/pkg/notify"
)

// Prediction outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)

// Recorder records dashboard metrics on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	toastsShown    *prometheus.CounterVec
	toastsRemoved  *prometheus.CounterVec
	predictions    *prometheus.CounterVec
	predictLatency prometheus.Histogram
	settingWrites  *prometheus.CounterVec
	refreshTicks   prometheus.Counter
}

// New creates a recorder with a private registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		registry: reg,
		toastsShown: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantpredict_toasts_shown_total",
				Help: "Notifications added to the visible queue",
			},
			[]string{"variant"},
		),
		toastsRemoved: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantpredict_toasts_removed_total",
				Help: "Notifications removed from the visible queue",
			},
			[]string{"reason"},
		),
		predictions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantpredict_predictions_total",
				Help: "Prediction requests by outcome",
			},
			[]string{"outcome"},
		),
		predictLatency: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "quantpredict_prediction_duration_seconds",
				Help:    "Time from request to result",
				Buckets: prometheus.DefBuckets,
			},
		),
		settingWrites: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantpredict_setting_writes_total",
				Help: "Settings written to the store",
			},
			[]string{"key", "result"},
		),
		refreshTicks: f.NewCounter(
			prometheus.CounterOpts{
				Name: "quantpredict_refresh_ticks_total",
				Help: "Auto-refresh timer firings",
			},
		),
	}
}

// Registry returns the recorder's registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// RecordPrediction records a finished (or rejected) prediction.
func (r *Recorder) RecordPrediction(outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.predictions.WithLabelValues(outcome).Inc()
	if outcome != OutcomeRejected {
		r.predictLatency.Observe(d.Seconds())
	}
}

// RecordSettingWrite records a store write for key.
func (r *Recorder) RecordSettingWrite(key string, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.settingWrites.WithLabelValues(key, result).Inc()
}

// RecordRefreshTick records one auto-refresh timer firing.
func (r *Recorder) RecordRefreshTick() {
	if r == nil {
		return
	}
	r.refreshTicks.Inc()
}

// QueueObserver returns callbacks that count queue activity.
func (r *Recorder) QueueObserver() notify.Observer {
	if r == nil {
		return notify.Observer{}
	}
	return notify.Observer{
		OnEnqueue: func(e notify.Entry) {
			r.toastsShown.WithLabelValues(e.Variant.String()).Inc()
		},
		OnRemove: func(_ notify.Entry, expired bool) {
			reason := "dismissed"
			if expired {
				reason = "expired"
			}
			r.toastsRemoved.WithLabelValues(reason).Inc()
		},
	}
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve runs a /metrics listener on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listener started", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
