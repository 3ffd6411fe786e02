package document

import (
	"fmt"

	"github.com/compliancehq/compliancebot/internal/models"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// WorkbookBuilder renders an audit record set into an xlsx workbook
// for upload back into the conversation.
type WorkbookBuilder struct {
	logger *zap.Logger
}

// NewWorkbookBuilder creates a builder.
func NewWorkbookBuilder(logger *zap.Logger) *WorkbookBuilder {
	return &WorkbookBuilder{logger: logger}
}

const auditSheet = "Audit Records"

// BuildAuditWorkbook writes one row per record under a header row and
// returns the workbook bytes.
func (b *WorkbookBuilder) BuildAuditWorkbook(records []models.AuditRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(auditSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	headers := []any{"User", "Amount", "Split", "Same Day", "No Receipt", "Backdated Approval", "Approver"}
	if err := f.SetSheetRow(auditSheet, "A1", &headers); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	for i, rec := range records {
		amount, _ := rec.Amount.Float64()
		row := []any{
			rec.User,
			amount,
			rec.Split,
			rec.SameDay,
			rec.NoReceipt,
			rec.BackdatedApproval,
			rec.Approver,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(auditSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write record row %d: %w", i, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	b.logger.Debug("Built audit workbook",
		zap.Int("records", len(records)),
		zap.Int("size", buf.Len()))

	return buf.Bytes(), nil
}
