package document

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/compliancehq/compliancebot/internal/models"
	"github.com/compliancehq/compliancebot/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func newTestGenerator(t *testing.T) (*PDFGenerator, string) {
	t.Helper()
	dir := t.TempDir()
	files := storage.NewLocalFileStorage(dir, zap.NewNop())
	gen := NewPDFGenerator(dir, "https://bot.example.com/pdf/generated", files, zap.NewNop())
	return gen, dir
}

func TestPDFGenerator_Generate(t *testing.T) {
	gen, dir := newTestGenerator(t)

	artifact, err := gen.Generate("Healthcare Compliance Template", "Rule one.\nRule two.", "healthcare")

	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^healthcare_\d+\.pdf$`), artifact.Filename)
	assert.Equal(t, "https://bot.example.com/pdf/generated/"+artifact.Filename, artifact.URL)
	assert.FileExists(t, filepath.Join(dir, artifact.Filename))

	content, err := os.ReadFile(artifact.Path)
	require.NoError(t, err)
	assert.True(t, len(content) > 0)
	assert.Equal(t, []byte("%PDF"), content[:4])
}

func TestPDFGenerator_FilenamesTimestamped(t *testing.T) {
	gen, _ := newTestGenerator(t)

	fixed := time.UnixMilli(1700000000000)
	gen.now = func() time.Time { return fixed }

	artifact, err := gen.Generate("T", "body", "custom")
	require.NoError(t, err)
	assert.Equal(t, "custom_1700000000000.pdf", artifact.Filename)
}

func TestLibrary_Lookup(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "finance.txt"), []byte("FINANCE COMPLIANCE TEMPLATE\n"), 0644))

	lib := NewLibrary(dir, zap.NewNop())

	t.Run("known sector", func(t *testing.T) {
		assert.Equal(t, "FINANCE COMPLIANCE TEMPLATE\n", lib.Lookup("finance"))
	})

	t.Run("unknown sector falls back to placeholder", func(t *testing.T) {
		assert.Equal(t, "⚠️ No template found for healthcare.", lib.Lookup("healthcare"))
	})
}

func TestExtractor_RoundTrip(t *testing.T) {
	content, err := renderPDF("Policy", "Limit cap of 5000 requires manager approval.")
	require.NoError(t, err)

	ex := NewExtractor(zap.NewNop())
	text, err := ex.Extract(content)

	require.NoError(t, err)
	assert.Contains(t, text, "5000")
	assert.Contains(t, text, "approval")
}

func TestExtractor_UnreadableBytes(t *testing.T) {
	ex := NewExtractor(zap.NewNop())

	_, err := ex.Extract([]byte("not a pdf at all"))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestWorkbookBuilder_BuildAuditWorkbook(t *testing.T) {
	builder := NewWorkbookBuilder(zap.NewNop())

	records := []models.AuditRecord{
		{User: "john.doe", Amount: decimal.NewFromInt(4900), Split: true, SameDay: true},
		{User: "alice.k", Amount: decimal.NewFromInt(5200), NoReceipt: true},
	}

	content, err := builder.BuildAuditWorkbook(records)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue("Audit Records", "A1")
	require.NoError(t, err)
	assert.Equal(t, "User", header)

	firstUser, err := f.GetCellValue("Audit Records", "A2")
	require.NoError(t, err)
	assert.Equal(t, "john.doe", firstUser)

	secondUser, err := f.GetCellValue("Audit Records", "A3")
	require.NoError(t, err)
	assert.Equal(t, "alice.k", secondUser)
}
