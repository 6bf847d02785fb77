package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gitlab.com/tinyland/lab/quant-predict/pkg/app"
	"gitlab.com/tinyland/lab/quant-predict/pkg/config"
	"gitlab.com/tinyland/lab/quant-predict/pkg/forecast"
	"gitlab.com/tinyland/lab/quant-predict/pkg/notify"
	"gitlab.com/tinyland/lab/quant-predict/pkg/settings"
)

// runHeadless performs the requested one-shot actions and prints the
// outcome to stdout. Notifications are printed to stderr as they arrive.
func runHeadless(ctx context.Context, ctrl *app.Controller, cfg *config.Config, opts runOptions) error {
	did := false

	if opts.model != "" {
		did = true
		res, err := ctrl.PredictSync(ctx)
		if err != nil {
			if errors.Is(err, app.ErrNotStarted) {
				return fmt.Errorf("prediction not started")
			}
			return fmt.Errorf("predict: %w", err)
		}
		snap := ctrl.Snapshot()
		printResult(os.Stdout, snap.Workflow, snap.Settings, res)
	}

	if opts.export {
		did = true
		path, err := ctrl.Export(cfg.UI.ExportDir)
		if err != nil {
			return err
		}
		fmt.Println(path)
	}

	if !did {
		printSettings(os.Stdout, ctrl.Settings())
	}
	return nil
}

func printEvent(w io.Writer, e notify.Event) {
	prefix := "•"
	if e.Variant == notify.VariantDestructive {
		prefix = "✗"
	}
	if e.Description == "" {
		fmt.Fprintf(w, "%s %s\n", prefix, e.Title)
		return
	}
	fmt.Fprintf(w, "%s %s: %s\n", prefix, e.Title, e.Description)
}

func printResult(w io.Writer, wf app.Workflow, s settings.Record, res *forecast.Result) {
	sym := s.Currency.Symbol()
	loc := s.Timezone.Location()

	fmt.Fprintf(w, "%s · %d days · %s\n", wf.Symbol, res.Len(), wf.Model.DisplayName())
	fmt.Fprintf(w, "RMSE %s%.2f  MAE %s%.2f  Accuracy %.1f%%\n\n",
		sym, res.Metrics.RMSE, sym, res.Metrics.MAE, res.Metrics.Accuracy)
	fmt.Fprintf(w, "%-12s %12s %12s %9s\n", "Date", "Actual", "Predicted", "Variance")
	fmt.Fprintln(w, strings.Repeat("─", 48))
	for _, row := range forecast.VarianceRows(res) {
		fmt.Fprintf(w, "%-12s %12s %12s %8.1f%%\n",
			row.Date.In(loc).Format("2006-01-02"),
			fmt.Sprintf("%s%.2f", sym, row.Actual),
			fmt.Sprintf("%s%.2f", sym, row.Predicted),
			row.VariancePct)
	}
}

func printSettings(w io.Writer, s settings.Record) {
	fmt.Fprintf(w, "dark mode:      %v\n", s.DarkMode)
	fmt.Fprintf(w, "notifications:  %v\n", s.NotificationsEnabled)
	fmt.Fprintf(w, "language:       %s\n", s.Language.DisplayName())
	fmt.Fprintf(w, "currency:       %s\n", s.Currency.DisplayName())
	fmt.Fprintf(w, "timezone:       %s\n", strings.ToUpper(string(s.Timezone)))
	fmt.Fprintf(w, "auto-refresh:   %v\n", s.AutoRefresh)
}
