package bot

import (
	"context"

	"github.com/compliancehq/compliancebot/internal/document"
	"github.com/compliancehq/compliancebot/internal/models"
)

// Messenger is the outbound platform surface the workflows use.
// Satisfied by *slack.Client; tests substitute a recording mock.
type Messenger interface {
	PostMessage(ctx context.Context, channel, threadTS, text string) (string, error)
	PostDownloadCard(ctx context.Context, channel, threadTS, title, label, url string) (string, error)
	UploadFile(ctx context.Context, channel, threadTS, filename, title string, content []byte) error
	AddReaction(ctx context.Context, channel, ts, name string) error
	UpdateMessage(ctx context.Context, channel, ts, text string) error
	DownloadFile(ctx context.Context, url string) ([]byte, error)
}

// Generator renders a titled text body into a stored PDF artifact.
type Generator interface {
	Generate(title, body, prefix string) (*document.Artifact, error)
}

// Extractor pulls plain text from uploaded document bytes. Failure
// means the upload is unreadable or encrypted.
type Extractor interface {
	Extract(content []byte) (string, error)
}

// Templates resolves sector keys to template text, degrading to a
// placeholder for unknown sectors.
type Templates interface {
	Lookup(sector string) string
}

// Workbooks renders an audit record workbook for chat upload.
type Workbooks interface {
	BuildAuditWorkbook(records []models.AuditRecord) ([]byte, error)
}
