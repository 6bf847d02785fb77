package theme

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"
)

// tomlPalette is the on-disk layout of a palette file:
//
//	name = "dark"
//	[base]
//	background = "#0f172a"
//	...
//	[signal]
//	positive = "#22c55e"
//	[chart]
//	actual = "#3b82f6"
type tomlPalette struct {
	Name   string     `toml:"name"`
	Base   tomlBase   `toml:"base"`
	Signal tomlSignal `toml:"signal"`
	Chart  tomlChart  `toml:"chart"`
}

type tomlBase struct {
	Background string `toml:"background"`
	Foreground string `toml:"foreground"`
	Muted      string `toml:"muted"`
	Accent     string `toml:"accent"`
	Border     string `toml:"border"`
	HelpKey    string `toml:"help_key"`
}

type tomlSignal struct {
	Positive    string `toml:"positive"`
	Negative    string `toml:"negative"`
	Destructive string `toml:"destructive"`
}

type tomlChart struct {
	Actual    string `toml:"actual"`
	Predicted string `toml:"predicted"`
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// LoadFromTOML parses a palette definition. Colors missing from the file
// are taken from the built-in palette of the same name (or the dark
// built-in for new names).
func LoadFromTOML(data []byte) (Palette, error) {
	var tp tomlPalette
	if err := toml.Unmarshal(data, &tp); err != nil {
		return Palette{}, fmt.Errorf("theme: parse TOML: %w", err)
	}
	if tp.Name == "" {
		return Palette{}, fmt.Errorf("theme: missing required field %q", "name")
	}

	p := Get(tp.Name)
	p.Name = tp.Name
	for _, f := range []struct {
		dst *string
		src string
	}{
		{&p.Background, tp.Base.Background},
		{&p.Foreground, tp.Base.Foreground},
		{&p.Muted, tp.Base.Muted},
		{&p.Accent, tp.Base.Accent},
		{&p.Border, tp.Base.Border},
		{&p.HelpKey, tp.Base.HelpKey},
		{&p.Positive, tp.Signal.Positive},
		{&p.Negative, tp.Signal.Negative},
		{&p.Destructive, tp.Signal.Destructive},
		{&p.ChartActual, tp.Chart.Actual},
		{&p.ChartPredicted, tp.Chart.Predicted},
	} {
		if f.src != "" {
			*f.dst = f.src
		}
	}

	if err := validatePalette(p); err != nil {
		return Palette{}, err
	}
	return p, nil
}

// LoadFile reads a palette file and registers it.
func LoadFile(path string) (Palette, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Palette{}, fmt.Errorf("theme: read %s: %w", path, err)
	}
	p, err := LoadFromTOML(data)
	if err != nil {
		return Palette{}, fmt.Errorf("%w (in %s)", err, path)
	}
	Register(p)
	return p, nil
}

// SaveToTOML serializes a palette in the layout LoadFromTOML reads.
func SaveToTOML(p Palette) ([]byte, error) {
	tp := tomlPalette{
		Name: p.Name,
		Base: tomlBase{
			Background: p.Background,
			Foreground: p.Foreground,
			Muted:      p.Muted,
			Accent:     p.Accent,
			Border:     p.Border,
			HelpKey:    p.HelpKey,
		},
		Signal: tomlSignal{
			Positive:    p.Positive,
			Negative:    p.Negative,
			Destructive: p.Destructive,
		},
		Chart: tomlChart{
			Actual:    p.ChartActual,
			Predicted: p.ChartPredicted,
		},
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(tp); err != nil {
		return nil, fmt.Errorf("theme: encode TOML: %w", err)
	}
	return buf.Bytes(), nil
}

func validatePalette(p Palette) error {
	for _, f := range []struct{ name, value string }{
		{"background", p.Background},
		{"foreground", p.Foreground},
		{"muted", p.Muted},
		{"accent", p.Accent},
		{"border", p.Border},
		{"help_key", p.HelpKey},
		{"positive", p.Positive},
		{"negative", p.Negative},
		{"destructive", p.Destructive},
		{"chart.actual", p.ChartActual},
		{"chart.predicted", p.ChartPredicted},
	} {
		if !hexColor.MatchString(f.value) {
			return fmt.Errorf("theme: invalid hex color %q for field %q (expected #RRGGBB)", f.value, f.name)
		}
	}
	return nil
}
