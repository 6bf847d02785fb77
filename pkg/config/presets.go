package config

import (
	"fmt"
	"time"

	"gitlab.com/tinyland/lab/quant-predict/pkg/settings"
)

// PresetNames lists the accepted -preset values.
var PresetNames = []string{"demo", "local", "server"}

// ApplyPreset overlays a named run profile onto cfg. Unknown names are an
// error and leave cfg untouched.
//
//	demo:   in-memory settings, mock predictor with a short delay
//	local:  file settings, mock predictor (the defaults)
//	server: sqlite settings, HTTP predictor
func ApplyPreset(cfg *Config, name string) error {
	switch name {
	case "demo":
		demoPreset(cfg)
	case "local":
		localPreset(cfg)
	case "server":
		serverPreset(cfg)
	default:
		return fmt.Errorf("config: unknown preset %q (choose %v)", name, PresetNames)
	}
	return nil
}

func demoPreset(cfg *Config) {
	cfg.Store.Backend = settings.KindMemory
	cfg.Predictor.Kind = "mock"
	cfg.Predictor.Delay = Duration{500 * time.Millisecond}
	cfg.UI.RefreshInterval = Duration{10 * time.Second}
}

func localPreset(cfg *Config) {
	def := DefaultConfig()
	cfg.Store.Backend = settings.KindFile
	if cfg.Store.Dir == "" {
		cfg.Store.Dir = def.Store.Dir
	}
	cfg.Predictor.Kind = "mock"
	cfg.Predictor.Delay = def.Predictor.Delay
}

func serverPreset(cfg *Config) {
	cfg.Store.Backend = settings.KindSQLite
	cfg.Predictor.Kind = "http"
	if cfg.Predictor.URL == "" {
		cfg.Predictor.URL = DefaultConfig().Predictor.URL
	}
}
