package theme

import (
	"io"
	"sync"

	"github.com/muesli/termenv"
)

// Applier performs the side effect of switching between dark and light mode.
type Applier interface {
	Apply(dark bool)
}

// ApplierFunc adapts a function to Applier.
type ApplierFunc func(dark bool)

// Apply calls f.
func (f ApplierFunc) Apply(dark bool) { f(dark) }

// Nop ignores every Apply call.
var Nop Applier = ApplierFunc(func(bool) {})

// Terminal recolors the host terminal through OSC 10/11 sequences so the
// area outside the rendered view follows the active palette.
type Terminal struct {
	mu      sync.Mutex
	out     *termenv.Output
	applied bool
	dark    bool

	origBg, origFg termenv.Color
}

// NewTerminal returns an applier writing to w. Extra options are passed to
// termenv, e.g. termenv.WithProfile in tests.
func NewTerminal(w io.Writer, opts ...termenv.OutputOption) *Terminal {
	return &Terminal{out: termenv.NewOutput(w, opts...)}
}

// Apply sets the terminal background and foreground to the mode's palette.
// Repeating the current mode writes nothing. Terminals without color
// support are left untouched.
func (t *Terminal) Apply(dark bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.applied && t.dark == dark {
		return
	}
	if t.out.Profile == termenv.Ascii {
		t.applied, t.dark = true, dark
		return
	}
	if !t.applied {
		t.origBg = t.out.BackgroundColor()
		t.origFg = t.out.ForegroundColor()
	}
	t.applied, t.dark = true, dark

	p := ForMode(dark)
	t.out.SetBackgroundColor(t.out.Color(p.Background))
	t.out.SetForegroundColor(t.out.Color(p.Foreground))
}

// Restore puts back the colors the terminal reported before the first
// Apply.
func (t *Terminal) Restore() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.applied {
		return
	}
	t.applied = false
	if t.out.Profile == termenv.Ascii {
		return
	}
	if known(t.origBg) {
		t.out.SetBackgroundColor(t.origBg)
	}
	if known(t.origFg) {
		t.out.SetForegroundColor(t.origFg)
	}
}

// known reports whether the terminal answered the color query.
func known(c termenv.Color) bool {
	if c == nil {
		return false
	}
	_, none := c.(termenv.NoColor)
	return !none
}
