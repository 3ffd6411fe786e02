package document

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Library looks up compliance template text by sector key. Templates
// live as {sector}.txt files in a directory; a missing or unreadable
// template degrades to a placeholder body instead of failing the
// workflow.
type Library struct {
	dir    string
	logger *zap.Logger
}

// NewLibrary creates a template library over the given directory.
func NewLibrary(dir string, logger *zap.Logger) *Library {
	return &Library{dir: dir, logger: logger}
}

// Lookup returns the template text for the sector, or the placeholder
// when none exists.
func (l *Library) Lookup(sector string) string {
	content, err := os.ReadFile(filepath.Join(l.dir, sector+".txt"))
	if err != nil {
		l.logger.Warn("No template for sector, using placeholder",
			zap.String("sector", sector),
			zap.Error(err))
		return Placeholder(sector)
	}
	return string(content)
}

// Placeholder is the degraded document body for an unknown sector.
func Placeholder(sector string) string {
	return fmt.Sprintf("⚠️ No template found for %s.", sector)
}
