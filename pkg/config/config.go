package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"gitlab.com/tinyland/lab/quant-predict/pkg/settings"
)

// Config is the root configuration.
type Config struct {
	Store     StoreConfig     `toml:"store" yaml:"store"`
	Predictor PredictorConfig `toml:"predictor" yaml:"predictor"`
	UI        UIConfig        `toml:"ui" yaml:"ui"`
	Metrics   MetricsConfig   `toml:"metrics" yaml:"metrics"`
	Log       LogConfig       `toml:"log" yaml:"log"`
}

// StoreConfig selects the settings backend.
type StoreConfig struct {
	Backend    string      `toml:"backend" yaml:"backend" validate:"oneof=file sqlite redis memory"`
	Dir        string      `toml:"dir" yaml:"dir" validate:"required_if=Backend file"`
	SQLitePath string      `toml:"sqlite_path" yaml:"sqlite_path"`
	Redis      RedisConfig `toml:"redis" yaml:"redis"`
}

// RedisConfig configures the redis settings backend.
type RedisConfig struct {
	Addr     string `toml:"addr" yaml:"addr" validate:"omitempty,hostname_port"`
	Password string `toml:"password" yaml:"password"`
	DB       int    `toml:"db" yaml:"db" validate:"gte=0"`
	Prefix   string `toml:"prefix" yaml:"prefix"`
}

// PredictorConfig selects the prediction engine.
type PredictorConfig struct {
	Kind    string   `toml:"kind" yaml:"kind" validate:"oneof=mock http"`
	URL     string   `toml:"url" yaml:"url" validate:"required_if=Kind http,omitempty,url"`
	Timeout Duration `toml:"timeout" yaml:"timeout"`
	Delay   Duration `toml:"delay" yaml:"delay"` // mock only
	Seed    int64    `toml:"seed" yaml:"seed"`   // mock only; 0 = time-based

	// CacheTTL enables the on-disk result cache when positive.
	CacheTTL Duration `toml:"cache_ttl" yaml:"cache_ttl"`
	CacheDir string   `toml:"cache_dir" yaml:"cache_dir"`
}

// UIConfig holds timing for the interactive dashboard.
type UIConfig struct {
	RefreshInterval Duration `toml:"refresh_interval" yaml:"refresh_interval"`
	ToastLifetime   Duration `toml:"toast_lifetime" yaml:"toast_lifetime"`
	Tick            Duration `toml:"tick" yaml:"tick"`
	Palettes        []string `toml:"palettes" yaml:"palettes"` // extra palette TOML files
	ExportDir       string   `toml:"export_dir" yaml:"export_dir"`
}

// MetricsConfig controls the optional Prometheus listener.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Addr    string `toml:"addr" yaml:"addr" validate:"required_if=Enabled true,omitempty,hostname_port"`
}

// LogConfig sets where the process log is appended. An empty File logs
// to stderr only.
type LogConfig struct {
	File string `toml:"file" yaml:"file"`
}

var validate = validator.New()

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(xdgDataHome(home), "quant-predict")

	return &Config{
		Store: StoreConfig{
			Backend: settings.KindFile,
			Dir:     dataDir,
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Predictor: PredictorConfig{
			Kind:     "mock",
			URL:      "http://localhost:5000",
			Timeout:  Duration{60 * time.Second},
			Delay:    Duration{2 * time.Second},
			CacheDir: filepath.Join(dataDir, "cache"),
		},
		UI: UIConfig{
			RefreshInterval: Duration{30 * time.Second},
			ToastLifetime:   Duration{3 * time.Second},
			Tick:            Duration{200 * time.Millisecond},
			ExportDir:       ".",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9464",
		},
		Log: LogConfig{
			File: filepath.Join(dataDir, "quant-predict.log"),
		},
	}
}

// Validate checks field constraints and positive durations.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	for _, d := range []struct {
		name string
		v    Duration
	}{
		{"ui.refresh_interval", c.UI.RefreshInterval},
		{"ui.toast_lifetime", c.UI.ToastLifetime},
		{"ui.tick", c.UI.Tick},
		{"predictor.timeout", c.Predictor.Timeout},
	} {
		if d.v.Duration <= 0 {
			return fmt.Errorf("config: %s must be positive", d.name)
		}
	}
	if c.Predictor.CacheTTL.Duration < 0 {
		return fmt.Errorf("config: predictor.cache_ttl must not be negative")
	}
	if c.Predictor.CacheTTL.Duration > 0 && c.Predictor.CacheDir == "" {
		return fmt.Errorf("config: predictor.cache_dir is required when cache_ttl is set")
	}
	return nil
}

// StoreOptions converts the store section to settings.OpenOptions.
func (c *Config) StoreOptions() settings.OpenOptions {
	return settings.OpenOptions{
		Kind:       c.Store.Backend,
		Dir:        c.Store.Dir,
		SQLitePath: c.Store.SQLitePath,
		Redis: settings.RedisOptions{
			Addr:     c.Store.Redis.Addr,
			Password: c.Store.Redis.Password,
			DB:       c.Store.Redis.DB,
			Prefix:   c.Store.Redis.Prefix,
		},
	}
}
