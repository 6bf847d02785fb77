package app

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"gitlab.com/tinyland/lab/quant-predict/pkg/clock"
	"gitlab.com/tinyland/lab/quant-predict/pkg/forecast"
	"gitlab.com/tinyland/lab/quant-predict/pkg/notify"
	"gitlab.com/tinyland/lab/quant-predict/pkg/settings"
	"gitlab.com/tinyland/lab/quant-predict/pkg/theme"
)

// recorder is a Publisher that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Publish(e notify.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) all() []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Event(nil), r.events...)
}

func (r *recorder) count(title string) int {
	n := 0
	for _, e := range r.all() {
		if e.Title == title {
			n++
		}
	}
	return n
}

func (r *recorder) last() notify.Event {
	evs := r.all()
	if len(evs) == 0 {
		return notify.Event{}
	}
	return evs[len(evs)-1]
}

type harness struct {
	c       *Controller
	clk     *clock.Fake
	rec     *recorder
	backend settings.Backend

	themeMu sync.Mutex
	themes  []bool
}

func (h *harness) applied() []bool {
	h.themeMu.Lock()
	defer h.themeMu.Unlock()
	return append([]bool(nil), h.themes...)
}

func newHarness(t *testing.T, pred forecast.Predictor) *harness {
	t.Helper()
	return newHarnessWithBackend(t, pred, settings.NewMemoryBackend())
}

func newHarnessWithBackend(t *testing.T, pred forecast.Predictor, backend settings.Backend) *harness {
	t.Helper()
	h := &harness{
		clk:     clock.NewFake(time.Time{}),
		rec:     &recorder{},
		backend: backend,
	}
	h.c = NewController(Options{
		Store:     settings.NewStore(backend, nil),
		Publisher: h.rec,
		Predictor: pred,
		Clock:     h.clk,
		Theme: theme.ApplierFunc(func(dark bool) {
			h.themeMu.Lock()
			h.themes = append(h.themes, dark)
			h.themeMu.Unlock()
		}),
	})
	t.Cleanup(h.c.Close)
	return h
}

// validResult builds an n-day result.
func validResult(n int) *forecast.Result {
	r := &forecast.Result{
		Dates:           make([]time.Time, n),
		ActualPrices:    make([]float64, n),
		PredictedPrices: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		r.Dates[i] = time.Date(2024, 1, 3+i, 0, 0, 0, 0, time.UTC)
		r.ActualPrices[i] = 150 + float64(i)
		r.PredictedPrices[i] = 151 + float64(i)
	}
	return r
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("workflow did not return to idle")
	}
}

// --- Construction ---

func TestNewControllerDefaults(t *testing.T) {
	h := newHarness(t, nil)
	snap := h.c.Snapshot()

	if snap.Settings != settings.DefaultRecord() {
		t.Errorf("settings = %+v, want defaults", snap.Settings)
	}
	if snap.Workflow.Symbol != "AAPL" || snap.Workflow.HorizonDays != 10 || snap.Workflow.Model != forecast.ModelUnset {
		t.Errorf("workflow = %+v", snap.Workflow)
	}
	if snap.Workflow.Loading || snap.Workflow.Result != nil {
		t.Error("new controller should be idle with no result")
	}
	if snap.Refresh != RefreshIdle {
		t.Errorf("refresh = %v, want idle", snap.Refresh)
	}
	if got := h.applied(); len(got) != 1 || !got[0] {
		t.Errorf("theme applications = %v, want [true]", got)
	}
	if len(h.rec.all()) != 0 {
		t.Errorf("construction published %v", h.rec.all())
	}
}

func TestNewControllerLoadsStoredSettings(t *testing.T) {
	backend := settings.NewMemoryBackend()
	store := settings.NewStore(backend, nil)
	if err := store.SetBool(settings.KeyDarkMode, false); err != nil {
		t.Fatal(err)
	}
	if err := store.SetString(settings.KeyCurrency, "jpy"); err != nil {
		t.Fatal(err)
	}

	h := newHarnessWithBackend(t, nil, backend)
	s := h.c.Settings()
	if s.DarkMode || s.Currency != settings.CurrencyJPY {
		t.Errorf("loaded settings = %+v", s)
	}
	if got := h.applied(); len(got) != 1 || got[0] {
		t.Errorf("theme applications = %v, want [false]", got)
	}
}

// --- Settings setters ---

func TestSettersPublishConfirmation(t *testing.T) {
	h := newHarness(t, nil)
	tests := []struct {
		name  string
		apply func() error
		title string
		desc  string
	}{
		{"dark off", func() error { h.c.SetDarkMode(false); return nil }, "Theme Updated", "Switched to light mode"},
		{"dark on", func() error { h.c.SetDarkMode(true); return nil }, "Theme Updated", "Switched to dark mode"},
		{"notify off", func() error { h.c.SetNotificationsEnabled(false); return nil }, "Notifications Updated", "Notifications disabled"},
		{"notify on", func() error { h.c.SetNotificationsEnabled(true); return nil }, "Notifications Updated", "Notifications enabled"},
		{"language", func() error { return h.c.SetLanguage(settings.LanguageFrench) }, "Language Updated", "Language changed to Français"},
		{"currency", func() error { return h.c.SetCurrency(settings.CurrencyEUR) }, "Currency Updated", "Default currency changed to EUR"},
		{"timezone", func() error { return h.c.SetTimezone(settings.TimezoneJST) }, "Timezone Updated", "Timezone changed to JST"},
		{"refresh off", func() error { h.c.SetAutoRefresh(false); return nil }, "Auto Refresh Updated", "Auto refresh disabled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(h.rec.all())
			if err := tt.apply(); err != nil {
				t.Fatalf("setter: %v", err)
			}
			evs := h.rec.all()
			if len(evs) != before+1 {
				t.Fatalf("published %d events, want 1", len(evs)-before)
			}
			e := evs[len(evs)-1]
			if e.Title != tt.title || e.Description != tt.desc || e.Variant != notify.VariantDefault {
				t.Errorf("event = %+v, want %q / %q", e, tt.title, tt.desc)
			}
		})
	}
}

func TestSettersWriteThrough(t *testing.T) {
	h := newHarness(t, nil)
	store := settings.NewStore(h.backend, nil)

	h.c.SetDarkMode(false)
	if store.Bool(settings.KeyDarkMode, true) {
		t.Error("darkMode not persisted before setter returned")
	}
	_ = h.c.SetLanguage(settings.LanguageGerman)
	if got := store.Language(settings.LanguageEnglish); got != settings.LanguageGerman {
		t.Errorf("stored language = %q", got)
	}
	h.c.SetAutoRefresh(false)
	if store.Bool(settings.KeyAutoRefresh, true) {
		t.Error("autoRefresh not persisted")
	}
}

func TestSettingsSurviveRestart(t *testing.T) {
	backend, err := settings.NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	first := newHarnessWithBackend(t, nil, backend)
	first.c.SetDarkMode(false)
	first.c.SetNotificationsEnabled(false)
	_ = first.c.SetLanguage(settings.LanguageJapanese)
	_ = first.c.SetCurrency(settings.CurrencyGBP)
	_ = first.c.SetTimezone(settings.TimezonePST)
	first.c.SetAutoRefresh(false)
	want := first.c.Settings()
	first.c.Close()

	second := newHarnessWithBackend(t, nil, backend)
	if got := second.c.Settings(); got != want {
		t.Errorf("after restart settings = %+v, want %+v", got, want)
	}
}

func TestInvalidEnumRejected(t *testing.T) {
	h := newHarness(t, nil)
	before := h.c.Settings()

	if err := h.c.SetLanguage("klingon"); !errors.Is(err, settings.ErrInvalidValue) {
		t.Errorf("SetLanguage err = %v", err)
	}
	if err := h.c.SetCurrency("btc"); !errors.Is(err, settings.ErrInvalidValue) {
		t.Errorf("SetCurrency err = %v", err)
	}
	if err := h.c.SetTimezone("mars"); !errors.Is(err, settings.ErrInvalidValue) {
		t.Errorf("SetTimezone err = %v", err)
	}
	if h.c.Settings() != before {
		t.Error("rejected values mutated settings")
	}
	if len(h.rec.all()) != 0 {
		t.Errorf("rejected values published %v", h.rec.all())
	}
}

func TestDarkModeAppliesTheme(t *testing.T) {
	h := newHarness(t, nil)
	h.c.ToggleDarkMode()
	h.c.ToggleDarkMode()
	got := h.applied()
	want := []bool{true, false, true}
	if len(got) != len(want) {
		t.Fatalf("applied = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("applied[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCyclersWrap(t *testing.T) {
	h := newHarness(t, nil)
	for range settings.Languages {
		h.c.CycleLanguage()
	}
	if got := h.c.Settings().Language; got != settings.LanguageEnglish {
		t.Errorf("language after full cycle = %q", got)
	}
	h.c.CycleCurrency()
	if got := h.c.Settings().Currency; got != settings.CurrencyEUR {
		t.Errorf("currency after one step = %q", got)
	}
	h.c.CycleTimezone()
	if got := h.c.Settings().Timezone; got != settings.TimezoneEST {
		t.Errorf("timezone after one step = %q", got)
	}
}

// failingBackend reads nothing and refuses every write.
type failingBackend struct{}

func (failingBackend) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (failingBackend) Set(context.Context, string, string) error          { return errors.New("read-only") }
func (failingBackend) Close() error                                       { return nil }

func TestWriteFailureLeavesRecordUnchanged(t *testing.T) {
	h := newHarnessWithBackend(t, nil, failingBackend{})
	stored := func() settings.Record { return settings.NewStore(h.backend, nil).Load() }

	steps := []struct {
		name string
		set  func()
	}{
		{"dark mode", func() { h.c.SetDarkMode(false) }},
		{"notifications", func() { h.c.SetNotificationsEnabled(false) }},
		{"language", func() { _ = h.c.SetLanguage(settings.LanguageGerman) }},
		{"currency", func() { _ = h.c.SetCurrency(settings.CurrencyJPY) }},
		{"timezone", func() { _ = h.c.SetTimezone(settings.TimezonePST) }},
		{"auto refresh", func() { h.c.SetAutoRefresh(false) }},
	}
	for _, step := range steps {
		before := len(h.rec.all())
		step.set()
		if got, want := h.c.Settings(), stored(); got != want {
			t.Errorf("%s: memory %+v, store %+v", step.name, got, want)
		}
		evs := h.rec.all()
		if len(evs) != before+1 {
			t.Fatalf("%s: events = %v", step.name, evs)
		}
		if e := evs[len(evs)-1]; e.Title != "Save Failed" || e.Variant != notify.VariantDestructive {
			t.Errorf("%s: event = %+v, want destructive Save Failed", step.name, e)
		}
	}

	if got := h.applied(); len(got) != 1 || !got[0] {
		t.Errorf("theme applies = %v, want only the initial dark apply", got)
	}
	if err := h.c.SetLanguage(settings.LanguageFrench); err == nil {
		t.Error("SetLanguage should report the store error")
	}
	if err := h.c.SavePreferences(); err == nil {
		t.Error("SavePreferences should report the store error")
	}
	if h.rec.last().Variant != notify.VariantDestructive {
		t.Errorf("last event = %+v, want destructive", h.rec.last())
	}
}

func TestSavePreferences(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.c.SavePreferences(); err != nil {
		t.Fatal(err)
	}
	if h.rec.count("Preferences Saved") != 1 {
		t.Errorf("events = %v", h.rec.all())
	}
	if v, ok, _ := h.backend.Get(context.Background(), settings.KeyTimezone); !ok || v != "utc" {
		t.Errorf("stored timezone = %q, %v", v, ok)
	}
}

// --- Auto-refresh ---

func TestRefreshNeedsResult(t *testing.T) {
	h := newHarness(t, nil)
	h.clk.Advance(60 * time.Second)
	if n := h.rec.count("Data Refreshed"); n != 0 {
		t.Fatalf("refresh fired %d times without a result", n)
	}
	if h.c.RefreshState() != RefreshIdle {
		t.Fatal("refresh armed without a result")
	}
}

func TestRefreshArmingLifecycle(t *testing.T) {
	h := newHarness(t, nil)
	h.clk.Advance(60 * time.Second)

	req := forecast.Request{Symbol: "AAPL", HorizonDays: 3, Model: forecast.ModelLSTM}
	h.c.CompletePredict(req, validResult(3), nil)
	if h.c.RefreshState() != RefreshArmed {
		t.Fatal("result did not arm refresh")
	}

	h.clk.Advance(29999 * time.Millisecond)
	if n := h.rec.count("Data Refreshed"); n != 0 {
		t.Fatalf("fired %d times before the interval", n)
	}
	h.clk.Advance(time.Millisecond)
	if n := h.rec.count("Data Refreshed"); n != 1 {
		t.Fatalf("fired %d times at the interval, want 1", n)
	}
	e := h.rec.last()
	if e.Description != "Market data has been automatically updated" {
		t.Errorf("description = %q", e.Description)
	}

	h.clk.Advance(30 * time.Second)
	if n := h.rec.count("Data Refreshed"); n != 2 {
		t.Fatalf("fired %d times after two intervals, want 2", n)
	}

	h.c.SetAutoRefresh(false)
	if h.c.RefreshState() != RefreshIdle {
		t.Fatal("disabling auto-refresh left the timer armed")
	}
	h.clk.Advance(90 * time.Second)
	if n := h.rec.count("Data Refreshed"); n != 2 {
		t.Errorf("fired after disable: %d", n)
	}
	if h.clk.Pending() != 0 {
		t.Errorf("pending timers = %d, want 0", h.clk.Pending())
	}
}

func TestRefreshSingleTimer(t *testing.T) {
	h := newHarness(t, nil)
	req := forecast.Request{Symbol: "AAPL", HorizonDays: 2, Model: forecast.ModelXGBoost}
	h.c.CompletePredict(req, validResult(2), nil)
	h.c.SetAutoRefresh(true)
	h.c.CompletePredict(req, validResult(2), nil)

	if got := h.clk.Pending(); got != 1 {
		t.Fatalf("pending timers = %d, want 1", got)
	}
	h.clk.Advance(30 * time.Second)
	if n := h.rec.count("Data Refreshed"); n != 1 {
		t.Errorf("fired %d times, want 1", n)
	}
}

func TestRefreshSkippedWhileNotificationsDisabled(t *testing.T) {
	h := newHarness(t, nil)
	h.c.CompletePredict(forecast.Request{Symbol: "AAPL", HorizonDays: 1, Model: forecast.ModelLSTM}, validResult(1), nil)
	h.c.SetNotificationsEnabled(false)

	h.clk.Advance(30 * time.Second)
	if n := h.rec.count("Data Refreshed"); n != 0 {
		t.Fatalf("fired %d times with notifications disabled", n)
	}
	if h.c.RefreshState() != RefreshArmed {
		t.Fatal("skipped tick should not disarm the timer")
	}

	h.c.SetNotificationsEnabled(true)
	h.clk.Advance(30 * time.Second)
	if n := h.rec.count("Data Refreshed"); n != 1 {
		t.Errorf("fired %d times after re-enabling, want 1", n)
	}
}

func TestCloseCancelsRefresh(t *testing.T) {
	h := newHarness(t, nil)
	h.c.CompletePredict(forecast.Request{Symbol: "AAPL", HorizonDays: 1, Model: forecast.ModelLSTM}, validResult(1), nil)
	h.c.Close()
	h.c.Close()

	if h.c.RefreshState() != RefreshIdle || h.clk.Pending() != 0 {
		t.Fatalf("state=%v pending=%d after Close", h.c.RefreshState(), h.clk.Pending())
	}
	h.c.SetAutoRefresh(true)
	if h.c.RefreshState() != RefreshIdle {
		t.Error("closed controller re-armed")
	}
	h.clk.Advance(2 * time.Minute)
	if n := h.rec.count("Data Refreshed"); n != 0 {
		t.Errorf("fired %d times after Close", n)
	}
}

// --- Prediction workflow ---

func TestPredictRequiresModel(t *testing.T) {
	called := false
	h := newHarness(t, forecast.PredictorFunc(func(context.Context, forecast.Request) (*forecast.Result, error) {
		called = true
		return validResult(1), nil
	}))

	done := h.c.Predict(context.Background())
	waitDone(t, done)

	evs := h.rec.all()
	if len(evs) != 1 {
		t.Fatalf("events = %v, want exactly one", evs)
	}
	if evs[0].Title != "Model Required" || evs[0].Variant != notify.VariantDestructive {
		t.Errorf("event = %+v", evs[0])
	}
	if evs[0].Description != "Please select a prediction model (XGBoost or LSTM)" {
		t.Errorf("description = %q", evs[0].Description)
	}
	wf := h.c.Workflow()
	if wf.Loading || wf.Result != nil {
		t.Errorf("workflow = %+v, want untouched", wf)
	}
	if called {
		t.Error("predictor ran without a model")
	}
}

func TestPredictEndToEnd(t *testing.T) {
	gate := make(chan struct{})
	var mock *forecast.MockPredictor
	h := newHarness(t, forecast.PredictorFunc(func(ctx context.Context, req forecast.Request) (*forecast.Result, error) {
		<-gate
		return mock.Predict(ctx, req)
	}))
	mock = forecast.NewMockPredictor(h.clk, 0, 42)

	if err := h.c.SetSymbol("AAPL"); err != nil {
		t.Fatal(err)
	}
	h.c.SetHorizon(5)
	h.c.SetModel(forecast.ModelXGBoost)

	done := h.c.Predict(context.Background())
	if !h.c.Workflow().Loading {
		t.Fatal("Loading should be true as soon as Predict returns")
	}
	close(gate)
	waitDone(t, done)

	wf := h.c.Workflow()
	if wf.Loading {
		t.Error("Loading stuck true")
	}
	if wf.Result == nil {
		t.Fatal("no result committed")
	}
	if len(wf.Result.Dates) != 5 || len(wf.Result.ActualPrices) != 5 || len(wf.Result.PredictedPrices) != 5 {
		t.Errorf("series lengths %d/%d/%d, want 5", len(wf.Result.Dates), len(wf.Result.ActualPrices), len(wf.Result.PredictedPrices))
	}
	if n := h.rec.count("Analysis Complete"); n != 1 {
		t.Fatalf("Analysis Complete published %d times", n)
	}
	desc := h.rec.last().Description
	if !strings.Contains(desc, "5") || !strings.Contains(desc, "AAPL") {
		t.Errorf("description = %q", desc)
	}
	if desc != "Successfully analyzed 5 days for AAPL" {
		t.Errorf("description = %q", desc)
	}
	if h.c.RefreshState() != RefreshArmed {
		t.Error("successful prediction should arm auto-refresh")
	}
}

func TestPredictSilentWhenNotificationsDisabled(t *testing.T) {
	h := newHarness(t, forecast.NewMockPredictor(nil, 0, 1))
	h.c.SetNotificationsEnabled(false)
	h.c.SetModel(forecast.ModelLSTM)

	if _, err := h.c.PredictSync(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := h.rec.count("Analysis Complete"); n != 0 {
		t.Errorf("Analysis Complete published %d times with notifications off", n)
	}
	if h.c.Workflow().Result == nil {
		t.Error("result should still be committed")
	}
}

func TestPredictFailureKeepsPreviousResult(t *testing.T) {
	fail := errors.New("model server unreachable")
	h := newHarness(t, forecast.PredictorFunc(func(context.Context, forecast.Request) (*forecast.Result, error) {
		return nil, fail
	}))
	prev := validResult(2)
	h.c.CompletePredict(forecast.Request{Symbol: "AAPL", HorizonDays: 2, Model: forecast.ModelLSTM}, prev, nil)
	h.c.SetModel(forecast.ModelLSTM)

	if _, err := h.c.PredictSync(context.Background()); !errors.Is(err, fail) {
		t.Fatalf("err = %v", err)
	}
	wf := h.c.Workflow()
	if wf.Loading {
		t.Error("Loading stuck true after failure")
	}
	if wf.Result != prev {
		t.Error("failure replaced the previous result")
	}
	e := h.rec.last()
	if e.Title != "Prediction Failed" || e.Variant != notify.VariantDestructive || !strings.Contains(e.Description, "unreachable") {
		t.Errorf("event = %+v", e)
	}
}

func TestPredictRejectsMismatchedResult(t *testing.T) {
	h := newHarness(t, forecast.PredictorFunc(func(context.Context, forecast.Request) (*forecast.Result, error) {
		return &forecast.Result{Dates: make([]time.Time, 3), ActualPrices: []float64{1}}, nil
	}))
	h.c.SetModel(forecast.ModelXGBoost)
	_, _ = h.c.PredictSync(context.Background())

	if h.c.Workflow().Result != nil {
		t.Error("corrupt result was committed")
	}
	if h.rec.count("Prediction Failed") != 1 {
		t.Errorf("events = %v", h.rec.all())
	}
}

func TestPredictIgnoredWhileRunning(t *testing.T) {
	gate := make(chan struct{})
	calls := 0
	var mu sync.Mutex
	h := newHarness(t, forecast.PredictorFunc(func(context.Context, forecast.Request) (*forecast.Result, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		<-gate
		return validResult(1), nil
	}))
	h.c.SetModel(forecast.ModelLSTM)

	first := h.c.Predict(context.Background())
	second := h.c.Predict(context.Background())
	waitDone(t, second)
	if _, ok := h.c.BeginPredict(); ok {
		t.Error("BeginPredict should be ignored while loading")
	}
	close(gate)
	waitDone(t, first)

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("predictor called %d times, want 1", calls)
	}
	if n := h.rec.count("Analysis Complete"); n != 1 {
		t.Errorf("Analysis Complete = %d", n)
	}
}

func TestCloseCancelsInFlightPrediction(t *testing.T) {
	h := newHarness(t, forecast.PredictorFunc(func(ctx context.Context, _ forecast.Request) (*forecast.Result, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}))
	h.c.SetModel(forecast.ModelXGBoost)

	done := h.c.Predict(context.Background())
	before := len(h.rec.all())
	h.c.Close()
	waitDone(t, done)

	if h.c.Workflow().Loading {
		t.Error("Loading stuck after Close")
	}
	if h.c.Workflow().Result != nil {
		t.Error("cancelled prediction committed a result")
	}
	if evs := h.rec.all(); len(evs) != before {
		t.Errorf("events after Close = %v", evs[before:])
	}
}

func TestPredictWithoutPredictor(t *testing.T) {
	h := newHarness(t, nil)
	h.c.SetModel(forecast.ModelLSTM)
	if _, err := h.c.PredictSync(context.Background()); !errors.Is(err, ErrNoPredictor) {
		t.Errorf("err = %v", err)
	}
	if h.c.Workflow().Loading {
		t.Error("Loading stuck")
	}
}

func TestPredictPassesFile(t *testing.T) {
	var got forecast.Request
	h := newHarness(t, forecast.PredictorFunc(func(_ context.Context, req forecast.Request) (*forecast.Result, error) {
		got = req
		return validResult(req.HorizonDays), nil
	}))
	h.c.SetModel(forecast.ModelLSTM)
	h.c.SetFile(FileRef{Path: "/data/aapl.csv", Name: "aapl.csv"})
	_, _ = h.c.PredictSync(context.Background())
	if got.File != "/data/aapl.csv" {
		t.Errorf("request file = %q", got.File)
	}

	h.c.ClearFile()
	_, _ = h.c.PredictSync(context.Background())
	if got.File != "" {
		t.Errorf("request file after ClearFile = %q", got.File)
	}
}

// --- Workflow inputs ---

func TestSetSymbol(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.c.SetSymbol("  msft "); err != nil {
		t.Fatal(err)
	}
	if got := h.c.Workflow().Symbol; got != "MSFT" {
		t.Errorf("symbol = %q", got)
	}
	if err := h.c.SetSymbol("   "); err == nil {
		t.Error("empty symbol accepted")
	}
	if got := h.c.Workflow().Symbol; got != "MSFT" {
		t.Errorf("rejected symbol changed state to %q", got)
	}
}

func TestSetHorizonClamps(t *testing.T) {
	h := newHarness(t, nil)
	for in, want := range map[int]int{0: 1, -4: 1, 1: 1, 17: 17, 30: 30, 99: 30} {
		if got := h.c.SetHorizon(in); got != want {
			t.Errorf("SetHorizon(%d) = %d, want %d", in, got, want)
		}
	}
	h.c.SetHorizon(29)
	if got := h.c.AdjustHorizon(5); got != 30 {
		t.Errorf("AdjustHorizon = %d", got)
	}
}

func TestCycleModel(t *testing.T) {
	h := newHarness(t, nil)
	want := []forecast.Model{forecast.ModelXGBoost, forecast.ModelLSTM, forecast.ModelUnset}
	for i, w := range want {
		if got := h.c.CycleModel(); got != w {
			t.Errorf("step %d = %q, want %q", i, got, w)
		}
	}
}

// --- Export ---

func TestExport(t *testing.T) {
	h := newHarness(t, nil)
	_ = h.c.SetCurrency(settings.CurrencyCAD)
	dir := t.TempDir()

	path, err := h.c.Export(dir)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if filepath.Base(path) != "quantpredict-data-2024-01-02.json" {
		t.Errorf("file name = %q", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "\n  \"predictions\": []") {
		t.Errorf("export not indented with an empty predictions list:\n%s", data)
	}
	var doc ExportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Settings.Currency != settings.CurrencyCAD {
		t.Errorf("exported currency = %q", doc.Settings.Currency)
	}
	if doc.ExportDate != "2024-01-02T09:30:00.000Z" {
		t.Errorf("exportDate = %q", doc.ExportDate)
	}
	if h.rec.last().Title != "Export Complete" {
		t.Errorf("last event = %+v", h.rec.last())
	}
}

func TestExportFailure(t *testing.T) {
	h := newHarness(t, nil)
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := h.c.Export(filepath.Join(blocker, "sub")); err == nil {
		t.Fatal("expected error exporting beneath a regular file")
	}
	if e := h.rec.last(); e.Title != "Export Failed" || e.Variant != notify.VariantDestructive {
		t.Errorf("event = %+v", e)
	}
}

// --- bubbletea commands ---

func TestPredictCmd(t *testing.T) {
	h := newHarness(t, forecast.NewMockPredictor(nil, 0, 3))
	if cmd := PredictCmd(h.c, context.Background()); cmd != nil {
		t.Fatal("PredictCmd without a model should return nil")
	}

	h.c.SetModel(forecast.ModelXGBoost)
	h.c.SetHorizon(4)
	cmd := PredictCmd(h.c, context.Background())
	if cmd == nil {
		t.Fatal("PredictCmd returned nil")
	}
	if !h.c.Workflow().Loading {
		t.Error("Loading should be set before the command runs")
	}
	msg, ok := cmd().(PredictionDoneEvent)
	if !ok {
		t.Fatalf("cmd() returned %T", msg)
	}
	if msg.Err != nil || msg.Result.Len() != 4 {
		t.Errorf("done event = %+v", msg)
	}
	if h.c.Workflow().Loading {
		t.Error("Loading still set after completion")
	}
}

func TestExportCmd(t *testing.T) {
	h := newHarness(t, nil)
	msg, ok := ExportCmd(h.c, t.TempDir())().(ExportDoneEvent)
	if !ok || msg.Err != nil || msg.Path == "" {
		t.Errorf("export event = %+v", msg)
	}
}

func TestTickCmd(t *testing.T) {
	if TickCmd(time.Millisecond) == nil {
		t.Fatal("TickCmd returned nil")
	}
}
