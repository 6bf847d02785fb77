package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"gitlab.com/tinyland/lab/quant-predict/pkg/forecast"
)

// Predictor answers repeated requests from a Store and forwards misses to
// the wrapped engine. Requests that carry a CSV file always go to the
// engine, since the file contents are not part of the key.
type Predictor struct {
	next   forecast.Predictor
	store  *Store
	logger *slog.Logger
}

// NewPredictor wraps next. A nil logger uses slog.Default().
func NewPredictor(next forecast.Predictor, store *Store, logger *slog.Logger) *Predictor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Predictor{next: next, store: store, logger: logger}
}

// RequestKey is the cache key of a request.
func RequestKey(req forecast.Request) string {
	return fmt.Sprintf("predict|%s|%d|%s", req.Symbol, req.HorizonDays, req.Model)
}

// Predict implements forecast.Predictor.
func (p *Predictor) Predict(ctx context.Context, req forecast.Request) (*forecast.Result, error) {
	if req.File != "" {
		return p.next.Predict(ctx, req)
	}

	key := RequestKey(req)
	if data, ok := p.store.Get(key); ok {
		var res forecast.Result
		if err := json.Unmarshal(data, &res); err == nil && res.Validate() == nil {
			p.logger.Debug("forecast served from cache", "key", key)
			return &res, nil
		}
		p.store.Delete(key)
	}

	res, err := p.next.Predict(ctx, req)
	if err != nil {
		return nil, err
	}
	if res.Validate() != nil {
		return res, nil
	}

	data, err := json.Marshal(res)
	if err != nil {
		p.logger.Warn("forecast cache marshal failed", "key", key, "error", err)
		return res, nil
	}
	if err := p.store.Put(key, data); err != nil {
		p.logger.Warn("forecast cache write failed", "key", key, "error", err)
	}
	return res, nil
}
