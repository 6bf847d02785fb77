package forecast

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"gitlab.com/tinyland/lab/quant-predict/pkg/clock"
)

// DefaultMockDelay mimics the latency of a real model call.
const DefaultMockDelay = 2 * time.Second

// MockPredictor fabricates a plausible forecast after Delay. Actual prices
// fall in [150,200), predictions in [148,202).
type MockPredictor struct {
	clock clock.Clock
	delay time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewMockPredictor returns a mock. A nil clock uses clock.Real; seed 0
// seeds from the clock.
func NewMockPredictor(clk clock.Clock, delay time.Duration, seed int64) *MockPredictor {
	if clk == nil {
		clk = clock.Real{}
	}
	if seed == 0 {
		seed = clk.Now().UnixNano()
	}
	return &MockPredictor{
		clock: clk,
		delay: delay,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// Predict waits for the configured delay (or ctx) and returns a random
// series of req.HorizonDays points starting tomorrow.
func (m *MockPredictor) Predict(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if m.delay > 0 {
		ready := make(chan struct{})
		t := m.clock.AfterFunc(m.delay, func() { close(ready) })
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-ready:
		}
	}

	now := m.clock.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	n := req.HorizonDays
	res := &Result{
		Dates:           make([]time.Time, n),
		ActualPrices:    make([]float64, n),
		PredictedPrices: make([]float64, n),
	}

	m.mu.Lock()
	for i := 0; i < n; i++ {
		res.Dates[i] = today.AddDate(0, 0, i+1)
		res.ActualPrices[i] = 150 + m.rng.Float64()*50
		res.PredictedPrices[i] = 148 + m.rng.Float64()*54
	}
	m.mu.Unlock()

	res.Metrics = ComputeMetrics(res.ActualPrices, res.PredictedPrices)
	return res, nil
}
