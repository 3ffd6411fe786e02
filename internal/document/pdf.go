// Package document produces and reads the bot's document artifacts:
// generated PDF policies/templates, the audit record workbook, and text
// extraction from uploaded PDFs.
package document

import (
	"bytes"
	"fmt"
	"path/filepath"
	"time"

	"github.com/compliancehq/compliancebot/internal/storage"
	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
)

// Artifact describes one generated document.
type Artifact struct {
	Filename string
	Path     string
	URL      string
}

// PDFGenerator renders plain-text content into PDF artifacts stored in
// the artifacts directory and served over the public base URL.
// Filenames are {prefix}_{unix-milli}.pdf; artifacts are never deleted.
type PDFGenerator struct {
	outputDir string
	baseURL   string
	files     storage.FileStorage
	logger    *zap.Logger
	now       func() time.Time
}

// NewPDFGenerator creates a generator writing under outputDir and
// publishing under baseURL (e.g. https://bot.example.com/pdf/generated).
func NewPDFGenerator(outputDir, baseURL string, files storage.FileStorage, logger *zap.Logger) *PDFGenerator {
	return &PDFGenerator{
		outputDir: outputDir,
		baseURL:   baseURL,
		files:     files,
		logger:    logger,
		now:       time.Now,
	}
}

// Generate renders a titled document and returns its artifact.
func (g *PDFGenerator) Generate(title, body, prefix string) (*Artifact, error) {
	content, err := renderPDF(title, body)
	if err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}

	filename := fmt.Sprintf("%s_%d.pdf", prefix, g.now().UnixMilli())
	fullPath := filepath.Join(g.outputDir, filename)

	if err := g.files.SaveFile(fullPath, content); err != nil {
		return nil, fmt.Errorf("failed to store PDF: %w", err)
	}

	artifact := &Artifact{
		Filename: filename,
		Path:     fullPath,
		URL:      fmt.Sprintf("%s/%s", g.baseURL, filename),
	}

	g.logger.Info("Generated PDF artifact",
		zap.String("filename", filename),
		zap.Int("size", len(content)))

	return artifact, nil
}

func renderPDF(title, body string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.AddPage()

	// Core fonts are cp1252; translate so bullets survive.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.MultiCell(0, 9, tr(title), "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6, tr(body), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
