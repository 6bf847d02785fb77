package clock

import (
	"testing"
	"time"
)

func TestFakeAfterFuncFiresAtDeadline(t *testing.T) {
	c := NewFake(time.Time{})
	fired := 0
	c.AfterFunc(3*time.Second, func() { fired++ })

	c.Advance(2999 * time.Millisecond)
	if fired != 0 {
		t.Fatalf("fired early: %d", fired)
	}
	c.Advance(time.Millisecond)
	if fired != 1 {
		t.Fatalf("expected 1 firing, got %d", fired)
	}
	if c.Pending() != 0 {
		t.Errorf("expected no pending timers, got %d", c.Pending())
	}
}

func TestFakeStopPreventsFiring(t *testing.T) {
	c := NewFake(time.Time{})
	fired := false
	tm := c.AfterFunc(time.Second, func() { fired = true })

	if !tm.Stop() {
		t.Fatal("Stop on pending timer returned false")
	}
	if tm.Stop() {
		t.Error("second Stop returned true")
	}
	c.Advance(time.Minute)
	if fired {
		t.Error("stopped timer fired")
	}
}

func TestFakeFiresInDeadlineOrder(t *testing.T) {
	c := NewFake(time.Time{})
	var order []string
	c.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	c.AfterFunc(time.Second, func() { order = append(order, "a") })
	c.AfterFunc(2*time.Second, func() { order = append(order, "c") })

	c.Advance(5 * time.Second)

	want := []string{"a", "b", "c"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestFakeNowTracksCallbackDeadline(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	c := NewFake(start)
	var seen time.Time
	c.AfterFunc(1500*time.Millisecond, func() { seen = c.Now() })

	c.Advance(10 * time.Second)

	if !seen.Equal(start.Add(1500 * time.Millisecond)) {
		t.Errorf("callback saw %v, want %v", seen, start.Add(1500*time.Millisecond))
	}
	if !c.Now().Equal(start.Add(10 * time.Second)) {
		t.Errorf("Now() = %v after Advance", c.Now())
	}
}

func TestEveryRepeatsUntilStopped(t *testing.T) {
	c := NewFake(time.Time{})
	ticks := 0
	p := Every(c, 30*time.Second, func() { ticks++ })

	c.Advance(29 * time.Second)
	if ticks != 0 {
		t.Fatalf("ticked early: %d", ticks)
	}
	c.Advance(time.Second)
	if ticks != 1 {
		t.Fatalf("expected 1 tick at 30s, got %d", ticks)
	}
	c.Advance(60 * time.Second)
	if ticks != 3 {
		t.Fatalf("expected 3 ticks at 90s, got %d", ticks)
	}

	p.Stop()
	c.Advance(5 * time.Minute)
	if ticks != 3 {
		t.Errorf("ticked after Stop: %d", ticks)
	}
	if c.Pending() != 0 {
		t.Errorf("pending timers after Stop: %d", c.Pending())
	}
}

func TestEveryStopFromCallback(t *testing.T) {
	c := NewFake(time.Time{})
	ticks := 0
	var p Timer
	p = Every(c, time.Second, func() {
		ticks++
		if ticks == 2 {
			p.Stop()
		}
	})

	c.Advance(10 * time.Second)
	if ticks != 2 {
		t.Errorf("expected 2 ticks, got %d", ticks)
	}
}

func TestRealAfterFunc(t *testing.T) {
	done := make(chan struct{})
	Real{}.AfterFunc(5*time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("real timer never fired")
	}
}
