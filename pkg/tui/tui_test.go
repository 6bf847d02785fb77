package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"gitlab.com/tinyland/lab/quant-predict/pkg/app"
	"gitlab.com/tinyland/lab/quant-predict/pkg/clock"
	"gitlab.com/tinyland/lab/quant-predict/pkg/forecast"
	"gitlab.com/tinyland/lab/quant-predict/pkg/notify"
	"gitlab.com/tinyland/lab/quant-predict/pkg/settings"
	"gitlab.com/tinyland/lab/quant-predict/pkg/theme"
)

type fixture struct {
	m     Model
	ctrl  *app.Controller
	queue *notify.Queue
	clk   *clock.Fake
}

func newFixture(t *testing.T, pred forecast.Predictor) *fixture {
	t.Helper()
	clk := clock.NewFake(time.Time{})
	q := notify.NewQueue(clk, notify.DefaultLifetime)
	ctrl := app.NewController(app.Options{
		Store:     settings.NewStore(settings.NewMemoryBackend(), nil),
		Publisher: q,
		Predictor: pred,
		Clock:     clk,
		Theme:     theme.Nop,
	})
	z := zone.New()
	t.Cleanup(func() {
		ctrl.Close()
		q.Close()
		z.Close()
	})
	m := New(Options{
		Controller: ctrl,
		Queue:      q,
		Context:    context.Background(),
		ExportDir:  t.TempDir(),
		Zones:      z,
	})
	return &fixture{m: m, ctrl: ctrl, queue: q, clk: clk}
}

func (f *fixture) send(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	updated, cmd := f.m.Update(msg)
	f.m = updated.(Model)
	return cmd
}

func (f *fixture) press(t *testing.T, keys string) tea.Cmd {
	t.Helper()
	return f.send(t, keyMsg(keys))
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// run executes cmd and every command nested in a BatchMsg, returning the
// leaf messages.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func titles(q *notify.Queue) []string {
	var out []string
	for _, e := range q.Visible() {
		out = append(out, e.Event.Title)
	}
	return out
}

func fixedResult() *forecast.Result {
	r := &forecast.Result{Metrics: forecast.Metrics{RMSE: 2.5, MAE: 1.75, Accuracy: 93.2}}
	for i := 0; i < 5; i++ {
		r.Dates = append(r.Dates, time.Date(2024, 1, 3+i, 0, 0, 0, 0, time.UTC))
		r.ActualPrices = append(r.ActualPrices, 150+float64(i))
		r.PredictedPrices = append(r.PredictedPrices, 152+float64(i))
	}
	return r
}

func instantPredictor() forecast.Predictor {
	return forecast.PredictorFunc(func(ctx context.Context, req forecast.Request) (*forecast.Result, error) {
		return fixedResult(), nil
	})
}

func TestNewModelInitialState(t *testing.T) {
	f := newFixture(t, nil)

	if f.m.Ready() {
		t.Error("expected ready=false before the first WindowSizeMsg")
	}
	if f.m.Editing() {
		t.Error("expected editing=false")
	}
	if got := f.m.View(); got != "Loading..." {
		t.Errorf("View() before ready = %q", got)
	}
	if f.m.Init() == nil {
		t.Error("Init should start the render ticker")
	}
}

func TestWindowSizeSetsReady(t *testing.T) {
	f := newFixture(t, nil)
	f.send(t, tea.WindowSizeMsg{Width: 120, Height: 40})

	if !f.m.Ready() || f.m.Width() != 120 || f.m.Height() != 40 {
		t.Errorf("ready=%v size=%dx%d", f.m.Ready(), f.m.Width(), f.m.Height())
	}
}

func TestTickEventReschedules(t *testing.T) {
	f := newFixture(t, nil)
	if cmd := f.send(t, app.TickEvent{Time: time.Now()}); cmd == nil {
		t.Error("TickEvent should schedule the next tick")
	}
}

func TestSettingsKeys(t *testing.T) {
	tests := []struct {
		key   string
		title string
		check func(settings.Record) bool
	}{
		{"d", "Theme Updated", func(r settings.Record) bool { return !r.DarkMode }},
		{"n", "Notifications Updated", func(r settings.Record) bool { return !r.NotificationsEnabled }},
		{"l", "Language Updated", func(r settings.Record) bool { return r.Language == settings.LanguageSpanish }},
		{"c", "Currency Updated", func(r settings.Record) bool { return r.Currency == settings.CurrencyEUR }},
		{"z", "Timezone Updated", func(r settings.Record) bool { return r.Timezone == settings.TimezoneEST }},
		{"r", "Auto Refresh Updated", func(r settings.Record) bool { return !r.AutoRefresh }},
		{"s", "Preferences Saved", func(settings.Record) bool { return true }},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			f := newFixture(t, nil)
			f.press(t, tt.key)

			if !tt.check(f.ctrl.Settings()) {
				t.Errorf("settings after %q = %+v", tt.key, f.ctrl.Settings())
			}
			got := titles(f.queue)
			if len(got) != 1 || got[0] != tt.title {
				t.Errorf("toasts = %v, want [%s]", got, tt.title)
			}
		})
	}
}

func TestWorkflowKeys(t *testing.T) {
	f := newFixture(t, nil)

	f.press(t, "m")
	if got := f.ctrl.Workflow().Model; got != forecast.ModelXGBoost {
		t.Errorf("model after m = %q, want xgboost", got)
	}
	f.press(t, "+")
	f.press(t, "+")
	f.press(t, "-")
	if got := f.ctrl.Workflow().HorizonDays; got != app.DefaultHorizonDays+1 {
		t.Errorf("horizon = %d, want %d", got, app.DefaultHorizonDays+1)
	}

	f.ctrl.SetFile(app.FileRef{Path: "/tmp/a.csv", Name: "a.csv", Size: 10})
	f.press(t, "f")
	if f.ctrl.Workflow().File != nil {
		t.Error("f should clear the attached file")
	}
}

func TestPredictWithoutModelShowsToast(t *testing.T) {
	f := newFixture(t, instantPredictor())

	if cmd := f.press(t, "enter"); cmd != nil {
		t.Error("rejected prediction should not return a command")
	}
	if f.ctrl.Workflow().Loading {
		t.Error("rejected prediction must not set Loading")
	}
	got := titles(f.queue)
	if len(got) != 1 || got[0] != "Model Required" {
		t.Errorf("toasts = %v", got)
	}
}

func TestPredictEndToEnd(t *testing.T) {
	f := newFixture(t, instantPredictor())
	f.send(t, tea.WindowSizeMsg{Width: 100, Height: 50})
	f.press(t, "m")

	cmd := f.press(t, "enter")
	if cmd == nil {
		t.Fatal("expected a prediction command")
	}
	if !f.ctrl.Workflow().Loading {
		t.Fatal("Loading should be set before the command runs")
	}

	var done bool
	for _, msg := range run(cmd) {
		if ev, ok := msg.(app.PredictionDoneEvent); ok {
			done = true
			if ev.Err != nil {
				t.Fatalf("prediction error: %v", ev.Err)
			}
		}
		f.send(t, msg)
	}
	if !done {
		t.Fatal("no PredictionDoneEvent delivered")
	}
	if f.ctrl.Workflow().Loading {
		t.Error("Loading should be cleared after completion")
	}
	if n := len(f.m.table.Rows()); n != 5 {
		t.Errorf("table rows = %d, want 5", n)
	}

	view := f.m.View()
	for _, want := range []string{"Actual", "Predicted", "RMSE", "$2.50", "Jan 03 2024", "+1.3%", "Analysis Complete"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestCurrencyChangeReformatsTable(t *testing.T) {
	f := newFixture(t, instantPredictor())
	f.ctrl.SetModel(forecast.ModelLSTM)
	if _, err := f.ctrl.PredictSync(context.Background()); err != nil {
		t.Fatal(err)
	}
	f.send(t, app.TickEvent{})

	if got := f.m.table.Rows()[0][1]; got != "$150.00" {
		t.Fatalf("actual cell = %q", got)
	}
	f.press(t, "c")
	if got := f.m.table.Rows()[0][1]; got != "€150.00" {
		t.Errorf("actual cell after currency change = %q", got)
	}
}

func TestEditSymbol(t *testing.T) {
	f := newFixture(t, nil)

	f.press(t, "/")
	if !f.m.Editing() {
		t.Fatal("expected editing after /")
	}
	if got := f.m.symbol.Value(); got != "AAPL" {
		t.Errorf("input seeded with %q, want AAPL", got)
	}

	// Keys are routed to the input, not the settings bindings.
	f.press(t, "d")
	if !f.ctrl.Settings().DarkMode {
		t.Error("d while editing must not toggle dark mode")
	}

	f.m.symbol.SetValue("  ")
	f.press(t, "enter")
	if !f.m.Editing() || f.m.Status() == "" {
		t.Error("empty symbol should keep editing and show an error")
	}

	f.m.symbol.SetValue("msft")
	f.press(t, "enter")
	if f.m.Editing() {
		t.Error("enter with a valid symbol should leave edit mode")
	}
	if got := f.ctrl.Workflow().Symbol; got != "MSFT" {
		t.Errorf("symbol = %q, want MSFT", got)
	}
}

func TestEditSymbolEscCancels(t *testing.T) {
	f := newFixture(t, nil)
	f.press(t, "i")
	f.m.symbol.SetValue("TSLA")
	f.press(t, "esc")

	if f.m.Editing() {
		t.Error("esc should leave edit mode")
	}
	if got := f.ctrl.Workflow().Symbol; got != "AAPL" {
		t.Errorf("symbol = %q, want unchanged AAPL", got)
	}
}

func TestDismissNewestToast(t *testing.T) {
	f := newFixture(t, nil)
	f.press(t, "d")
	f.press(t, "n")
	if f.queue.Len() != 2 {
		t.Fatalf("queue len = %d, want 2", f.queue.Len())
	}

	f.press(t, "x")
	got := titles(f.queue)
	if len(got) != 1 || got[0] != "Theme Updated" {
		t.Errorf("after dismiss = %v, want [Theme Updated]", got)
	}
}

func TestToastsExpireFromView(t *testing.T) {
	f := newFixture(t, nil)
	f.send(t, tea.WindowSizeMsg{Width: 100, Height: 40})
	f.press(t, "s")

	if !strings.Contains(f.m.View(), "Preferences Saved") {
		t.Fatal("toast should be rendered")
	}
	f.clk.Advance(notify.DefaultLifetime)
	if strings.Contains(f.m.View(), "Preferences Saved") {
		t.Error("toast should disappear after its lifetime")
	}
}

func TestMouseOutsideToastsIsIgnored(t *testing.T) {
	f := newFixture(t, nil)
	f.send(t, tea.WindowSizeMsg{Width: 80, Height: 30})
	f.press(t, "s")
	_ = f.m.View()

	f.send(t, tea.MouseMsg{X: 0, Y: 0, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	if f.queue.Len() != 1 {
		t.Errorf("queue len = %d, want 1", f.queue.Len())
	}
}

func TestExportKey(t *testing.T) {
	f := newFixture(t, nil)
	cmd := f.press(t, "e")
	if cmd == nil {
		t.Fatal("expected export command")
	}
	for _, msg := range run(cmd) {
		ev, ok := msg.(app.ExportDoneEvent)
		if !ok {
			t.Fatalf("unexpected message %T", msg)
		}
		if ev.Err != nil {
			t.Fatalf("export: %v", ev.Err)
		}
		f.send(t, ev)
	}
	if f.m.LastExport() == "" {
		t.Error("LastExport should record the written path")
	}
}

func TestHelpToggle(t *testing.T) {
	f := newFixture(t, nil)
	f.press(t, "?")
	if !f.m.help.ShowAll {
		t.Error("? should expand the help")
	}
	f.press(t, "?")
	if f.m.help.ShowAll {
		t.Error("? again should collapse the help")
	}
}

func TestQuit(t *testing.T) {
	for _, k := range []string{"q", "ctrl+c"} {
		f := newFixture(t, nil)
		cmd := f.press(t, k)
		if cmd == nil {
			t.Fatalf("%s: expected quit command", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s: expected tea.QuitMsg", k)
		}
	}
}

func TestViewWithoutResult(t *testing.T) {
	f := newFixture(t, nil)
	f.send(t, tea.WindowSizeMsg{Width: 100, Height: 30})
	view := f.m.View()

	for _, want := range []string{"Quant Predict", "AAPL", "10 days", "Select model", "No forecast yet"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestMarketPanelFollowsCurrency(t *testing.T) {
	f := newFixture(t, nil)
	f.send(t, tea.WindowSizeMsg{Width: 100, Height: 30})

	view := f.m.View()
	for _, want := range []string{"Market Cap", "$2.8T", "$89.2B", "VIX", "18.4", "-1.2%"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	f.press(t, "c")
	view = f.m.View()
	for _, want := range []string{"€2.8T", "€89.2B"} {
		if !strings.Contains(view, want) {
			t.Errorf("view after currency change missing %q", want)
		}
	}
}
