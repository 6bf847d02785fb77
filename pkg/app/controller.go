package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gitlab.com/tinyland/lab/quant-predict/pkg/clock"
	"gitlab.com/tinyland/lab/quant-predict/pkg/forecast"
	"gitlab.com/tinyland/lab/quant-predict/pkg/metrics"
	"gitlab.com/tinyland/lab/quant-predict/pkg/notify"
	"gitlab.com/tinyland/lab/quant-predict/pkg/settings"
	"gitlab.com/tinyland/lab/quant-predict/pkg/theme"
)

// DefaultRefreshInterval is the auto-refresh period.
const DefaultRefreshInterval = 30 * time.Second

// Workflow defaults.
const (
	DefaultSymbol      = "AAPL"
	DefaultHorizonDays = 10
)

// FileRef identifies a user-supplied CSV. The dashboard never reads it; the
// path is handed to the predictor.
type FileRef struct {
	Path string
	Name string
	Size int64
}

// Workflow is the transient, non-persisted state of the current forecast
// request and its result.
type Workflow struct {
	Symbol      string
	HorizonDays int
	Model       forecast.Model
	Loading     bool
	Result      *forecast.Result
	File        *FileRef
}

// Snapshot is a consistent copy of the controller state for renderers.
type Snapshot struct {
	Settings settings.Record
	Workflow Workflow
	Refresh  RefreshState
}

// Options configures a Controller. Only Store is required in practice;
// every other field has a usable zero value.
type Options struct {
	Store     *settings.Store
	Publisher notify.Publisher
	Predictor forecast.Predictor
	Clock     clock.Clock
	Theme     theme.Applier
	Logger    *slog.Logger
	Metrics   *metrics.Recorder

	// RefreshInterval defaults to DefaultRefreshInterval.
	RefreshInterval time.Duration
}

// Controller owns the settings record and workflow state. Every settings
// setter writes through to the store before returning and then publishes a
// confirmation event, or "Save Failed" with the record unchanged. All
// methods are safe for concurrent use; events are published after the
// controller's lock is released.
type Controller struct {
	store     *settings.Store
	pub       notify.Publisher
	predictor forecast.Predictor
	clock     clock.Clock
	theme     theme.Applier
	logger    *slog.Logger
	metrics   *metrics.Recorder
	interval  time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	settings settings.Record
	wf       Workflow
	refresh  clock.Timer
	refreshN uint64 // generation of the armed timer
	closed   bool
}

// NewController loads the settings record from the store, applies the
// theme once, and returns an Idle controller.
func NewController(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Store == nil {
		opts.Store = settings.NewStore(settings.NewMemoryBackend(), opts.Logger)
	}
	if opts.Publisher == nil {
		opts.Publisher = notify.Discard
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Theme == nil {
		opts.Theme = theme.Nop
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		store:     opts.Store,
		pub:       opts.Publisher,
		predictor: opts.Predictor,
		clock:     opts.Clock,
		theme:     opts.Theme,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		interval:  opts.RefreshInterval,
		ctx:       ctx,
		cancel:    cancel,
		settings:  opts.Store.Load(),
		wf: Workflow{
			Symbol:      DefaultSymbol,
			HorizonDays: DefaultHorizonDays,
		},
	}
	c.theme.Apply(c.settings.DarkMode)
	c.logger.Debug("controller ready",
		"darkMode", c.settings.DarkMode,
		"language", c.settings.Language,
		"autoRefresh", c.settings.AutoRefresh)
	return c
}

// Settings returns a copy of the settings record.
func (c *Controller) Settings() settings.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// Workflow returns a copy of the workflow state.
func (c *Controller) Workflow() Workflow {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wf
}

// Snapshot returns settings, workflow and refresh state under one lock.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Settings: c.settings,
		Workflow: c.wf,
		Refresh:  c.refreshStateLocked(),
	}
}

// Close cancels the refresh timer and any in-flight prediction. It is safe
// to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.reevaluateRefreshLocked()
	c.mu.Unlock()
	c.cancel()
	c.logger.Debug("controller closed")
}

// publish sends e to the publisher. Callers must not hold c.mu.
func (c *Controller) publish(e notify.Event) {
	c.pub.Publish(e)
}

// persist runs a store write and records its outcome. Callers update the
// in-memory record only when it returns nil, so memory and store agree
// whether or not the write went through.
func (c *Controller) persist(key string, write func() error) error {
	err := write()
	c.metrics.RecordSettingWrite(key, err)
	if err != nil {
		c.logger.Warn("failed to persist setting", "key", key, "err", err)
		return fmt.Errorf("app: save %s: %w", key, err)
	}
	return nil
}

// saveFailed reports a rejected settings write in place of its
// confirmation.
func (c *Controller) saveFailed(err error) {
	c.publish(notify.Event{
		Title:       "Save Failed",
		Description: err.Error(),
		Variant:     notify.VariantDestructive,
	})
}

func onOff(v bool, on, off string) string {
	if v {
		return on
	}
	return off
}

// --- Settings setters ---

// SetDarkMode persists the theme and applies the palette. A failed write
// leaves the current theme in place.
func (c *Controller) SetDarkMode(dark bool) {
	c.mu.Lock()
	err := c.persist(settings.KeyDarkMode, func() error { return c.store.SetBool(settings.KeyDarkMode, dark) })
	if err == nil {
		c.settings.DarkMode = dark
		c.theme.Apply(dark)
	}
	c.mu.Unlock()

	if err != nil {
		c.saveFailed(err)
		return
	}
	c.publish(notify.Event{
		Title:       "Theme Updated",
		Description: fmt.Sprintf("Switched to %s mode", onOff(dark, "dark", "light")),
	})
}

// SetNotificationsEnabled toggles the notifications preference.
func (c *Controller) SetNotificationsEnabled(enabled bool) {
	c.mu.Lock()
	err := c.persist(settings.KeyNotificationsEnabled, func() error {
		return c.store.SetBool(settings.KeyNotificationsEnabled, enabled)
	})
	if err == nil {
		c.settings.NotificationsEnabled = enabled
	}
	c.mu.Unlock()

	if err != nil {
		c.saveFailed(err)
		return
	}
	c.publish(notify.Event{
		Title:       "Notifications Updated",
		Description: "Notifications " + onOff(enabled, "enabled", "disabled"),
	})
}

// SetLanguage sets the interface language. Unknown values are rejected
// with settings.ErrInvalidValue; a failed store write is returned and the
// previous language kept.
func (c *Controller) SetLanguage(l settings.Language) error {
	if !l.Valid() {
		return fmt.Errorf("%w: language %q", settings.ErrInvalidValue, l)
	}
	c.mu.Lock()
	err := c.persist(settings.KeyLanguage, func() error { return c.store.SetString(settings.KeyLanguage, string(l)) })
	if err == nil {
		c.settings.Language = l
	}
	c.mu.Unlock()

	if err != nil {
		c.saveFailed(err)
		return err
	}
	c.publish(notify.Event{
		Title:       "Language Updated",
		Description: "Language changed to " + l.DisplayName(),
	})
	return nil
}

// SetCurrency sets the display currency.
func (c *Controller) SetCurrency(cur settings.Currency) error {
	if !cur.Valid() {
		return fmt.Errorf("%w: currency %q", settings.ErrInvalidValue, cur)
	}
	c.mu.Lock()
	err := c.persist(settings.KeyCurrency, func() error { return c.store.SetString(settings.KeyCurrency, string(cur)) })
	if err == nil {
		c.settings.Currency = cur
	}
	c.mu.Unlock()

	if err != nil {
		c.saveFailed(err)
		return err
	}
	c.publish(notify.Event{
		Title:       "Currency Updated",
		Description: "Default currency changed to " + strings.ToUpper(string(cur)),
	})
	return nil
}

// SetTimezone sets the display timezone.
func (c *Controller) SetTimezone(z settings.Timezone) error {
	if !z.Valid() {
		return fmt.Errorf("%w: timezone %q", settings.ErrInvalidValue, z)
	}
	c.mu.Lock()
	err := c.persist(settings.KeyTimezone, func() error { return c.store.SetString(settings.KeyTimezone, string(z)) })
	if err == nil {
		c.settings.Timezone = z
	}
	c.mu.Unlock()

	if err != nil {
		c.saveFailed(err)
		return err
	}
	c.publish(notify.Event{
		Title:       "Timezone Updated",
		Description: "Timezone changed to " + strings.ToUpper(string(z)),
	})
	return nil
}

// SetAutoRefresh toggles auto-refresh and re-evaluates the refresh timer.
func (c *Controller) SetAutoRefresh(enabled bool) {
	c.mu.Lock()
	err := c.persist(settings.KeyAutoRefresh, func() error { return c.store.SetBool(settings.KeyAutoRefresh, enabled) })
	if err == nil {
		c.settings.AutoRefresh = enabled
		c.reevaluateRefreshLocked()
	}
	c.mu.Unlock()

	if err != nil {
		c.saveFailed(err)
		return
	}
	c.publish(notify.Event{
		Title:       "Auto Refresh Updated",
		Description: "Auto refresh " + onOff(enabled, "enabled", "disabled"),
	})
}

// ToggleDarkMode flips dark mode.
func (c *Controller) ToggleDarkMode() { c.SetDarkMode(!c.Settings().DarkMode) }

// ToggleNotifications flips the notifications preference.
func (c *Controller) ToggleNotifications() {
	c.SetNotificationsEnabled(!c.Settings().NotificationsEnabled)
}

// ToggleAutoRefresh flips auto-refresh.
func (c *Controller) ToggleAutoRefresh() { c.SetAutoRefresh(!c.Settings().AutoRefresh) }

// CycleLanguage advances to the next language.
func (c *Controller) CycleLanguage() {
	_ = c.SetLanguage(settings.NextLanguage(c.Settings().Language))
}

// CycleCurrency advances to the next currency.
func (c *Controller) CycleCurrency() {
	_ = c.SetCurrency(settings.NextCurrency(c.Settings().Currency))
}

// CycleTimezone advances to the next timezone.
func (c *Controller) CycleTimezone() {
	_ = c.SetTimezone(settings.NextTimezone(c.Settings().Timezone))
}

// SavePreferences rewrites the full record to the store and confirms.
func (c *Controller) SavePreferences() error {
	c.mu.Lock()
	rec := c.settings
	err := c.store.Save(rec)
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("failed to save preferences", "err", err)
		c.saveFailed(err)
		return err
	}
	c.publish(notify.Event{
		Title:       "Preferences Saved",
		Description: "Your preferences have been updated successfully",
	})
	return nil
}
