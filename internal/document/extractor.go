package document

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// ErrUnreadable signals a corrupted or encrypted upload the extractor
// cannot get text out of. Callers report it to the user instead of
// producing a validation summary.
var ErrUnreadable = errors.New("document is unreadable or encrypted")

// Extractor pulls plain text out of uploaded PDF bytes.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor creates an extractor.
func NewExtractor(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract returns the concatenated text of every page.
func (e *Extractor) Extract(content []byte) (string, error) {
	doc, err := fitz.NewFromMemory(content)
	if err != nil {
		e.logger.Warn("Failed to open uploaded document", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer doc.Close()

	var sb strings.Builder
	for page := 0; page < doc.NumPage(); page++ {
		text, err := doc.Text(page)
		if err != nil {
			e.logger.Warn("Failed to extract page text",
				zap.Int("page", page),
				zap.Error(err))
			continue
		}
		sb.WriteString(text)
	}

	extracted := sb.String()
	if strings.TrimSpace(extracted) == "" {
		return "", ErrUnreadable
	}

	e.logger.Debug("Extracted document text",
		zap.Int("pages", doc.NumPage()),
		zap.Int("chars", len(extracted)))

	return extracted, nil
}
