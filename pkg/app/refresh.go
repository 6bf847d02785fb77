package app

import (
	"gitlab.com/tinyland/lab/quant-predict/pkg/clock"
	"gitlab.com/tinyland/lab/quant-predict/pkg/notify"
)

// RefreshState is the auto-refresh timer state.
type RefreshState int

const (
	// RefreshIdle means no timer is active.
	RefreshIdle RefreshState = iota
	// RefreshArmed means exactly one periodic timer is running.
	RefreshArmed
)

// String returns "idle" or "armed".
func (s RefreshState) String() string {
	if s == RefreshArmed {
		return "armed"
	}
	return "idle"
}

// RefreshState reports whether the periodic refresh timer is running.
func (c *Controller) RefreshState() RefreshState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshStateLocked()
}

func (c *Controller) refreshStateLocked() RefreshState {
	if c.refresh != nil {
		return RefreshArmed
	}
	return RefreshIdle
}

// reevaluateRefreshLocked moves the timer to the state implied by the
// current inputs: Armed iff auto-refresh is on, a result exists, and the
// controller is open. Re-entering Armed keeps the existing timer. Caller
// must hold c.mu.
func (c *Controller) reevaluateRefreshLocked() {
	want := c.settings.AutoRefresh && c.wf.Result != nil && !c.closed

	switch {
	case want && c.refresh == nil:
		c.refreshN++
		gen := c.refreshN
		c.refresh = clock.Every(c.clock, c.interval, func() { c.refreshTick(gen) })
		c.logger.Debug("auto-refresh armed", "interval", c.interval)
	case !want && c.refresh != nil:
		c.refresh.Stop()
		c.refresh = nil
		c.logger.Debug("auto-refresh idle")
	}
}

// refreshTick runs on each timer firing. A tick from a timer that has since
// been stopped is ignored. With notifications disabled the tick is skipped
// but the timer keeps running.
func (c *Controller) refreshTick(gen uint64) {
	c.mu.Lock()
	if c.refresh == nil || gen != c.refreshN {
		c.mu.Unlock()
		return
	}
	notifyOn := c.settings.NotificationsEnabled
	c.mu.Unlock()

	c.metrics.RecordRefreshTick()
	if !notifyOn {
		c.logger.Debug("auto-refresh tick skipped, notifications disabled")
		return
	}
	c.publish(notify.Event{
		Title:       "Data Refreshed",
		Description: "Market data has been automatically updated",
	})
}
