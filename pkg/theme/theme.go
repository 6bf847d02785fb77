// Package theme holds the dashboard palettes and the terminal side effect
// that follows a dark-mode change.
package theme

import (
	"sort"
	"strings"
	"sync"
)

// Palette defines the colors used by the renderer for one mode.
type Palette struct {
	Name string

	// Base colors
	Background string // hex color e.g. "#0f172a"
	Foreground string
	Muted      string // secondary text, axis labels
	Accent     string // focused input, headings

	Border string

	// Signal colors
	Positive    string // variance >= 0
	Negative    string // variance < 0
	Destructive string // destructive toasts

	// Chart series
	ChartActual    string
	ChartPredicted string

	HelpKey string
}

// Built-in palette names. Dark mode uses "dark", light mode "light".
const (
	Dark  = "dark"
	Light = "light"
)

var (
	mu       sync.RWMutex
	registry = map[string]Palette{}
)

func init() {
	Register(darkPalette())
	Register(lightPalette())
}

// Register adds or replaces a palette under its lowercase name. Registering
// a palette named "dark" or "light" overrides the built-in for that mode.
func Register(p Palette) {
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(p.Name)] = p
}

// Get returns a named palette, falling back to the dark built-in.
func Get(name string) Palette {
	mu.RLock()
	defer mu.RUnlock()
	if p, ok := registry[strings.ToLower(name)]; ok {
		return p
	}
	return registry[Dark]
}

// ForMode returns the palette for the given dark-mode flag.
func ForMode(dark bool) Palette {
	if dark {
		return Get(Dark)
	}
	return Get(Light)
}

// Names returns all registered palette names sorted alphabetically.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// darkPalette is the slate-on-navy default.
func darkPalette() Palette {
	return Palette{
		Name:       Dark,
		Background: "#0f172a",
		Foreground: "#e2e8f0",
		Muted:      "#64748b",
		Accent:     "#3b82f6",
		Border:     "#334155",

		Positive:    "#22c55e",
		Negative:    "#ef4444",
		Destructive: "#dc2626",

		ChartActual:    "#3b82f6",
		ChartPredicted: "#10b981",

		HelpKey: "#60a5fa",
	}
}

func lightPalette() Palette {
	return Palette{
		Name:       Light,
		Background: "#f8fafc",
		Foreground: "#0f172a",
		Muted:      "#94a3b8",
		Accent:     "#2563eb",
		Border:     "#cbd5e1",

		Positive:    "#16a34a",
		Negative:    "#dc2626",
		Destructive: "#b91c1c",

		ChartActual:    "#2563eb",
		ChartPredicted: "#059669",

		HelpKey: "#1d4ed8",
	}
}
