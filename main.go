// quant-predict is a terminal dashboard for stock price forecasts.
//
// It keeps user preferences in a durable settings store, sends requests to a
// prediction engine (a built-in mock or an HTTP model server), and shows the
// result as a chart, accuracy metrics and a per-day variance table.
//
// Usage:
//
//	quant-predict [flags]
//
// Flags:
//
//	-config string   Path to configuration file (TOML, or YAML by extension)
//	-preset string   Apply a run preset (demo|local|server)
//	-tui             Launch the interactive dashboard (default on a terminal)
//	-use-mocks       Use the mock predictor regardless of configuration
//	-symbol string   Ticker symbol (default AAPL)
//	-days int        Forecast horizon in days, 1-30
//	-model string    Prediction model (xgboost|lstm)
//	-csv string      CSV file handed to the predictor
//	-export          Write the export file and exit
//	-verbose         Enable verbose logging
//	-version         Print version and exit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"gitlab.com/tinyland/lab/quant-predict/pkg/app"
	"gitlab.com/tinyland/lab/quant-predict/pkg/cache"
	"gitlab.com/tinyland/lab/quant-predict/pkg/clock"
	"gitlab.com/tinyland/lab/quant-predict/pkg/config"
	"gitlab.com/tinyland/lab/quant-predict/pkg/forecast"
	"gitlab.com/tinyland/lab/quant-predict/pkg/metrics"
	"gitlab.com/tinyland/lab/quant-predict/pkg/notify"
	"gitlab.com/tinyland/lab/quant-predict/pkg/settings"
	"gitlab.com/tinyland/lab/quant-predict/pkg/theme"
	"gitlab.com/tinyland/lab/quant-predict/pkg/tui"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	// Parse command line flags
	var (
		configPath  = flag.String("config", "", "Path to configuration file (TOML, or YAML by extension)")
		preset      = flag.String("preset", "", "Apply a run preset (demo|local|server)")
		runTUI      = flag.Bool("tui", false, "Launch the interactive dashboard (default on a terminal)")
		useMocks    = flag.Bool("use-mocks", false, "Use the mock predictor regardless of configuration")
		symbol      = flag.String("symbol", "", "Ticker symbol (default AAPL)")
		days        = flag.Int("days", 0, "Forecast horizon in days, 1-30")
		modelName   = flag.String("model", "", "Prediction model (xgboost|lstm)")
		csvPath     = flag.String("csv", "", "CSV file handed to the predictor")
		runExport   = flag.Bool("export", false, "Write the export file and exit")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		showVersion = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("quant-predict %s (%s) built %s\n", version, commit, date)
		os.Exit(0)
	}

	// Load configuration
	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *preset != "" {
		if err := config.ApplyPreset(cfg, *preset); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	}
	if *useMocks {
		cfg.Predictor.Kind = "mock"
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	interactive := *runTUI || (isatty.IsTerminal(os.Stdout.Fd()) && *modelName == "" && !*runExport)

	// Setup logging. The dashboard owns the screen, so in TUI mode the log
	// only goes to the file.
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	var sinks []io.Writer
	if !interactive {
		sinks = append(sinks, os.Stderr)
	}
	if cfg.Log.File != "" {
		if err := ensureLogDir(cfg.Log.File); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create log directory: %v\n", err)
			os.Exit(1)
		}
		logFile, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer logFile.Close()
		sinks = append(sinks, logFile)
	}
	if len(sinks) == 0 {
		sinks = append(sinks, io.Discard)
	}
	logger := slog.New(slog.NewTextHandler(io.MultiWriter(sinks...), &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	if err := run(ctx, cfg, logger, runOptions{
		interactive: interactive,
		symbol:      *symbol,
		days:        *days,
		model:       *modelName,
		csv:         *csvPath,
		export:      *runExport,
	}); err != nil {
		logger.Error("quant-predict failed", "error", err)
		cancel()
		os.Exit(1)
	}
}

type runOptions struct {
	interactive bool
	symbol      string
	days        int
	model       string
	csv         string
	export      bool
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts runOptions) error {
	for _, path := range cfg.UI.Palettes {
		p, err := theme.LoadFile(path)
		if err != nil {
			logger.Warn("skipping palette", "path", path, "error", err)
			continue
		}
		logger.Debug("palette registered", "name", p.Name, "path", path)
	}

	backend, err := settings.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return fmt.Errorf("open settings store: %w", err)
	}
	defer backend.Close()
	logger.Info("settings store opened", "backend", cfg.Store.Backend)

	rec := metrics.New()
	if cfg.Metrics.Enabled {
		go func() {
			if err := rec.Serve(ctx, cfg.Metrics.Addr, logger); err != nil {
				logger.Error("metrics listener failed", "addr", cfg.Metrics.Addr, "error", err)
			}
		}()
	}

	clk := clock.Real{}
	bus := notify.NewBus()

	var applier theme.Applier = theme.Nop
	var term *theme.Terminal
	if opts.interactive {
		term = theme.NewTerminal(os.Stdout)
		applier = term
	}

	predictor, err := newPredictor(cfg, clk, logger)
	if err != nil {
		return err
	}

	ctrl := app.NewController(app.Options{
		Store:           settings.NewStore(backend, logger),
		Publisher:       bus,
		Predictor:       predictor,
		Clock:           clk,
		Theme:           applier,
		Logger:          logger,
		Metrics:         rec,
		RefreshInterval: cfg.UI.RefreshInterval.Duration,
	})
	defer ctrl.Close()

	if err := applyWorkflowFlags(ctrl, opts); err != nil {
		return err
	}

	if !opts.interactive {
		unsubscribe := bus.Subscribe(func(e notify.Event) { printEvent(os.Stderr, e) })
		defer unsubscribe()
		return runHeadless(ctx, ctrl, cfg, opts)
	}

	queue := notify.NewQueue(clk, cfg.UI.ToastLifetime.Duration)
	queue.SetObserver(rec.QueueObserver())
	defer queue.Close()
	unsubscribe := bus.Subscribe(queue.Publish)
	defer unsubscribe()
	defer term.Restore()

	model := tui.New(tui.Options{
		Controller: ctrl,
		Queue:      queue,
		Context:    ctx,
		Tick:       cfg.UI.Tick.Duration,
		ExportDir:  cfg.UI.ExportDir,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

func newPredictor(cfg *config.Config, clk clock.Clock, logger *slog.Logger) (forecast.Predictor, error) {
	var p forecast.Predictor
	if cfg.Predictor.Kind == "http" {
		p = forecast.NewHTTPPredictor(cfg.Predictor.URL,
			forecast.WithTimeout(cfg.Predictor.Timeout.Duration))
	} else {
		p = forecast.NewMockPredictor(clk, cfg.Predictor.Delay.Duration, cfg.Predictor.Seed)
	}
	if cfg.Predictor.CacheTTL.Duration <= 0 {
		return p, nil
	}

	store, err := cache.NewStore(cache.StoreConfig{
		Dir:   cfg.Predictor.CacheDir,
		TTL:   cfg.Predictor.CacheTTL.Duration,
		Clock: clk,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("forecast cache enabled", "dir", cfg.Predictor.CacheDir, "ttl", cfg.Predictor.CacheTTL.Duration)
	return cache.NewPredictor(p, store, logger), nil
}

func applyWorkflowFlags(ctrl *app.Controller, opts runOptions) error {
	if opts.symbol != "" {
		if err := ctrl.SetSymbol(opts.symbol); err != nil {
			return err
		}
	}
	if opts.days != 0 {
		ctrl.SetHorizon(opts.days)
	}
	if opts.model != "" {
		m, err := forecast.ParseModel(opts.model)
		if err != nil {
			return err
		}
		ctrl.SetModel(m)
	}
	if opts.csv != "" {
		info, err := os.Stat(opts.csv)
		if err != nil {
			return fmt.Errorf("csv: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("csv: %s is a directory", opts.csv)
		}
		ctrl.SetFile(app.FileRef{Path: opts.csv, Name: filepath.Base(opts.csv), Size: info.Size()})
	}
	return nil
}

func ensureLogDir(logFile string) error {
	dir := filepath.Dir(logFile)
	return os.MkdirAll(dir, 0755)
}
