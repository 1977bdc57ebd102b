// pkg/browser/diagnostics.go
package browser

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// diagnostics writes the markup of pages where a step failed.
type diagnostics struct {
	directory string
	runID     string
	count     int
}

func (d *diagnostics) dump(logger *zap.Logger, markup string) string {
	if d.directory == "" {
		return ""
	}
	d.count++
	path := filepath.Join(d.directory, fmt.Sprintf("error-%s-%d.html", d.runID, d.count))
	if err := os.MkdirAll(d.directory, 0o755); err != nil {
		logger.Warn("diagnostic_dir_failed", zap.String("dir", d.directory), zap.Error(err))
		return ""
	}
	if err := os.WriteFile(path, []byte(markup), 0o644); err != nil {
		logger.Warn("diagnostic_write_failed", zap.String("path", path), zap.Error(err))
		return ""
	}
	return path
}
