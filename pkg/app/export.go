package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gitlab.com/tinyland/lab/quant-predict/pkg/notify"
	"gitlab.com/tinyland/lab/quant-predict/pkg/settings"
)

// exportDateLayout matches JavaScript's Date.toISOString.
const exportDateLayout = "2006-01-02T15:04:05.000Z07:00"

// ExportDocument is the layout of the exported profile. Predictions is
// always empty.
type ExportDocument struct {
	Predictions []json.RawMessage `json:"predictions"`
	Settings    settings.Record   `json:"settings"`
	ExportDate  string            `json:"exportDate"`
}

// ExportFileName returns quantpredict-data-YYYY-MM-DD.json for the UTC date
// of t.
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("quantpredict-data-%s.json", t.UTC().Format("2006-01-02"))
}

// BuildExport returns the export document for the current settings.
func (c *Controller) BuildExport() ExportDocument {
	return ExportDocument{
		Predictions: []json.RawMessage{},
		Settings:    c.Settings(),
		ExportDate:  c.clock.Now().UTC().Format(exportDateLayout),
	}
}

// Export writes the export document into dir and returns the file path.
func (c *Controller) Export(dir string) (string, error) {
	path, err := c.writeExport(dir)
	if err != nil {
		c.logger.Warn("export failed", "dir", dir, "err", err)
		c.publish(notify.Event{
			Title:       "Export Failed",
			Description: err.Error(),
			Variant:     notify.VariantDestructive,
		})
		return "", err
	}
	c.logger.Info("settings exported", "path", path)
	c.publish(notify.Event{
		Title:       "Export Complete",
		Description: "Your data has been exported successfully",
	})
	return path, nil
}

func (c *Controller) writeExport(dir string) (string, error) {
	doc := c.BuildExport()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("app: encode export: %w", err)
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("app: create export dir: %w", err)
	}
	path := filepath.Join(dir, ExportFileName(c.clock.Now()))
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("app: write export: %w", err)
	}
	return path, nil
}
