// Package tui renders the forecast dashboard as a bubbletea program. The
// Model owns only presentation state; everything durable or timed lives in
// the app.Controller and the notify.Queue it is given.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"gitlab.com/tinyland/lab/quant-predict/pkg/app"
	"gitlab.com/tinyland/lab/quant-predict/pkg/forecast"
	"gitlab.com/tinyland/lab/quant-predict/pkg/notify"
)

// DefaultTick is the render refresh period used when Options.Tick is zero.
const DefaultTick = 200 * time.Millisecond

// Options configures a Model.
type Options struct {
	Controller *app.Controller
	Queue      *notify.Queue

	// Context bounds predictions started from the keyboard.
	Context   context.Context
	Tick      time.Duration
	ExportDir string

	// Zones tracks clickable toast regions. A private manager is created
	// when nil.
	Zones *zone.Manager
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	ctrl      *app.Controller
	queue     *notify.Queue
	ctx       context.Context
	tick      time.Duration
	exportDir string
	zones     *zone.Manager

	keys    keyMap
	help    help.Model
	symbol  textinput.Model
	spinner spinner.Model
	table   table.Model

	width, height int
	ready         bool
	editing       bool

	// shown is the result currently loaded into the table.
	shown *forecast.Result

	status     string
	lastExport string
}

// New builds a Model. Controller and Queue are required.
func New(opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	if opts.Zones == nil {
		opts.Zones = zone.New()
	}

	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = app.DefaultSymbol
	ti.CharLimit = 10
	ti.Width = 12

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	tb := table.New(
		table.WithColumns(varianceColumns()),
		table.WithHeight(8),
	)

	return Model{
		ctrl:      opts.Controller,
		queue:     opts.Queue,
		ctx:       opts.Context,
		tick:      opts.Tick,
		exportDir: opts.ExportDir,
		zones:     opts.Zones,
		keys:      defaultKeyMap(),
		help:      help.New(),
		symbol:    ti,
		spinner:   sp,
		table:     tb,
	}
}

// Init starts the render ticker.
func (m Model) Init() tea.Cmd {
	return app.TickCmd(m.tick)
}

// Width returns the last known terminal width.
func (m Model) Width() int { return m.width }

// Height returns the last known terminal height.
func (m Model) Height() int { return m.height }

// Ready reports whether a window size has been received.
func (m Model) Ready() bool { return m.ready }

// Editing reports whether the symbol input has focus.
func (m Model) Editing() bool { return m.editing }

// Status returns the transient status line, e.g. an input error.
func (m Model) Status() string { return m.status }

// LastExport returns the path of the most recent successful export.
func (m Model) LastExport() string { return m.lastExport }

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.table.SetWidth(tableWidth(msg.Width))
		return m, nil

	case app.TickEvent:
		m.syncTable()
		return m, app.TickCmd(m.tick)

	case spinner.TickMsg:
		if !m.ctrl.Workflow().Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case app.PredictionDoneEvent:
		m.syncTable()
		return m, nil

	case app.ExportDoneEvent:
		if msg.Err == nil {
			m.lastExport = msg.Path
		}
		return m, nil

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft {
			m.dismissAt(msg)
		}
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		if err := m.ctrl.SetSymbol(m.symbol.Value()); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.status = ""
		m.editing = false
		m.symbol.Blur()
		return m, nil
	case tea.KeyEsc:
		m.editing = false
		m.symbol.Blur()
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.symbol, cmd = m.symbol.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Predict):
		cmd := app.PredictCmd(m.ctrl, m.ctx)
		if cmd == nil {
			return m, nil
		}
		return m, tea.Batch(cmd, m.spinner.Tick)

	case key.Matches(msg, m.keys.EditSymbol):
		m.editing = true
		m.status = ""
		m.symbol.SetValue(m.ctrl.Workflow().Symbol)
		m.symbol.CursorEnd()
		return m, m.symbol.Focus()

	case key.Matches(msg, m.keys.Model):
		m.ctrl.CycleModel()
	case key.Matches(msg, m.keys.HorizonUp):
		m.ctrl.AdjustHorizon(1)
	case key.Matches(msg, m.keys.HorizonDown):
		m.ctrl.AdjustHorizon(-1)
	case key.Matches(msg, m.keys.ClearFile):
		m.ctrl.ClearFile()

	case key.Matches(msg, m.keys.Dark):
		m.ctrl.ToggleDarkMode()
	case key.Matches(msg, m.keys.Notifications):
		m.ctrl.ToggleNotifications()
	case key.Matches(msg, m.keys.Language):
		m.ctrl.CycleLanguage()
	case key.Matches(msg, m.keys.Currency):
		m.ctrl.CycleCurrency()
		m.shown = nil
		m.syncTable()
	case key.Matches(msg, m.keys.Timezone):
		m.ctrl.CycleTimezone()
		m.shown = nil
		m.syncTable()
	case key.Matches(msg, m.keys.AutoRefresh):
		m.ctrl.ToggleAutoRefresh()

	case key.Matches(msg, m.keys.Save):
		if err := m.ctrl.SavePreferences(); err != nil {
			m.status = fmt.Sprintf("save: %v", err)
		}
	case key.Matches(msg, m.keys.Export):
		return m, app.ExportCmd(m.ctrl, m.exportDir)
	case key.Matches(msg, m.keys.Dismiss):
		m.dismissNewest()
	}

	return m, nil
}

// syncTable reloads the variance rows when the committed result or the
// display settings changed since the last load.
func (m *Model) syncTable() {
	snap := m.ctrl.Snapshot()
	res := snap.Workflow.Result
	if res == m.shown {
		return
	}
	m.shown = res
	m.table.SetRows(varianceTableRows(res, snap.Settings))
}

func (m *Model) dismissNewest() {
	vis := m.queue.Visible()
	if len(vis) == 0 {
		return
	}
	m.queue.Dismiss(vis[len(vis)-1].ID)
}

func (m *Model) dismissAt(msg tea.MouseMsg) {
	for _, e := range m.queue.Visible() {
		if m.zones.Get(toastZoneID(e.ID)).InBounds(msg) {
			m.queue.Dismiss(e.ID)
			m.zones.Clear(toastZoneID(e.ID))
			return
		}
	}
}

func toastZoneID(id uint64) string {
	return fmt.Sprintf("toast-%d", id)
}
