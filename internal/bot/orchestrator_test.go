package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/compliancehq/compliancebot/internal/document"
	"github.com/compliancehq/compliancebot/internal/fraud"
	"github.com/compliancehq/compliancebot/internal/models"
	"github.com/compliancehq/compliancebot/internal/slack"
	"github.com/compliancehq/compliancebot/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordedMessage is one outbound text message.
type recordedMessage struct {
	Channel string
	Thread  string
	Text    string
}

// mockMessenger records every outbound call.
type mockMessenger struct {
	mu        sync.Mutex
	messages  []recordedMessage
	cards     []recordedMessage // Text holds "title|url"
	uploads   []string          // filenames
	reactions []string
	updates   []recordedMessage
	download  []byte
	downErr   error
	postErr   error
	tsCounter int
}

func (m *mockMessenger) nextTS() string {
	m.tsCounter++
	return fmt.Sprintf("ts-%d", m.tsCounter)
}

func (m *mockMessenger) PostMessage(_ context.Context, channel, thread, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.postErr != nil {
		return "", m.postErr
	}
	m.messages = append(m.messages, recordedMessage{channel, thread, text})
	return m.nextTS(), nil
}

func (m *mockMessenger) PostDownloadCard(_ context.Context, channel, thread, title, _, url string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cards = append(m.cards, recordedMessage{channel, thread, title + "|" + url})
	return m.nextTS(), nil
}

func (m *mockMessenger) UploadFile(_ context.Context, _, _, filename, _ string, _ []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, filename)
	return nil
}

func (m *mockMessenger) AddReaction(_ context.Context, _, _, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reactions = append(m.reactions, name)
	return nil
}

func (m *mockMessenger) UpdateMessage(_ context.Context, channel, ts, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, recordedMessage{channel, ts, text})
	return nil
}

func (m *mockMessenger) DownloadFile(_ context.Context, _ string) ([]byte, error) {
	if m.downErr != nil {
		return nil, m.downErr
	}
	return m.download, nil
}

// mockGenerator records what was generated and fabricates artifacts
// with the production naming scheme.
type mockGenerator struct {
	titles   []string
	bodies   []string
	prefixes []string
}

func (g *mockGenerator) Generate(title, body, prefix string) (*document.Artifact, error) {
	g.titles = append(g.titles, title)
	g.bodies = append(g.bodies, body)
	g.prefixes = append(g.prefixes, prefix)
	filename := fmt.Sprintf("%s_1700000000000.pdf", prefix)
	return &document.Artifact{
		Filename: filename,
		Path:     "/tmp/" + filename,
		URL:      "https://bot.example.com/pdf/generated/" + filename,
	}, nil
}

// mockExtractor returns fixed text or an error.
type mockExtractor struct {
	text string
	err  error
}

func (e *mockExtractor) Extract([]byte) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return e.text, nil
}

// emptyTemplates always falls back to the placeholder.
type emptyTemplates struct{}

func (emptyTemplates) Lookup(sector string) string { return document.Placeholder(sector) }

type mockWorkbooks struct{ built int }

func (w *mockWorkbooks) BuildAuditWorkbook([]models.AuditRecord) ([]byte, error) {
	w.built++
	return []byte("xlsx"), nil
}

type fixture struct {
	orch      *Orchestrator
	messenger *mockMessenger
	generator *mockGenerator
	extractor *mockExtractor
	workbooks *mockWorkbooks
	records   *store.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		messenger: &mockMessenger{},
		generator: &mockGenerator{},
		extractor: &mockExtractor{},
		workbooks: &mockWorkbooks{},
		records:   store.NewMemoryStore(),
	}
	logger := zap.NewNop()
	f.orch = New(f.messenger, slack.NopPacer{}, f.generator, f.extractor,
		emptyTemplates{}, f.workbooks, f.records, fraud.NewEngine(logger), logger)
	return f
}

func event(text, ts, threadTS string, files ...slack.File) *slack.MessageEvent {
	return &slack.MessageEvent{
		Type:     "message",
		Text:     text,
		User:     "U1",
		Channel:  "C1",
		TS:       ts,
		ThreadTS: threadTS,
		Files:    files,
	}
}

func TestGenerateTemplate_HealthcareFallback(t *testing.T) {
	f := newFixture(t)

	f.orch.HandleEvent(context.Background(), event("Generate template for HEALTHCARE", "100.1", ""))

	// Three staged progress messages, then the download card.
	require.Len(t, f.messenger.messages, 3)
	assert.Contains(t, f.messenger.messages[0].Text, "healthcare")
	assert.Equal(t, []string{"eyes"}, f.messenger.reactions,
		"actionable intents acknowledge the triggering message")

	require.Len(t, f.generator.bodies, 1)
	assert.Equal(t, "⚠️ No template found for healthcare.", f.generator.bodies[0])
	assert.Equal(t, "healthcare", f.generator.prefixes[0])

	require.Len(t, f.messenger.cards, 1)
	url := strings.SplitN(f.messenger.cards[0].Text, "|", 2)[1]
	assert.Regexp(t, regexp.MustCompile(`/healthcare_\d+\.pdf$`), url)
}

func TestCustomPolicy_BulletedBody(t *testing.T) {
	f := newFixture(t)

	f.orch.HandleEvent(context.Background(),
		event("create policy with rules: Keep receipts; Get manager approval", "100.2", ""))

	require.Len(t, f.generator.bodies, 1)
	assert.Equal(t, "• Keep receipts\n• Get manager approval", f.generator.bodies[0])
	assert.Equal(t, "custom", f.generator.prefixes[0])
	require.Len(t, f.messenger.cards, 1)
}

func TestCustomPolicy_MissingRulesUsageMessage(t *testing.T) {
	f := newFixture(t)

	f.orch.HandleEvent(context.Background(), event("please create a policy for us", "100.3", ""))

	require.Len(t, f.messenger.messages, 1)
	assert.Contains(t, f.messenger.messages[0].Text, "create policy with rules:")
	assert.Empty(t, f.generator.bodies)
}

func TestValidateUpload_NoFileFailsFast(t *testing.T) {
	f := newFixture(t)

	f.orch.HandleEvent(context.Background(), event("validate my policy", "100.4", ""))

	// Single instructional reply, no staged progress.
	require.Len(t, f.messenger.messages, 1)
	assert.Contains(t, f.messenger.messages[0].Text, "attach a PDF")
	assert.Empty(t, f.generator.bodies)
}

func TestValidateUpload_Summary(t *testing.T) {
	f := newFixture(t)
	f.messenger.download = []byte("%PDF")
	f.extractor.text = "Limit cap of 5000 requires manager approval and a reimbursement process."

	f.orch.HandleEvent(context.Background(), event("validate my policy", "100.5", "",
		slack.File{Filetype: "pdf", URLPrivateDownload: "https://files/x"}))

	require.Len(t, f.messenger.messages, 4) // 3 stages + summary
	summary := f.messenger.messages[3].Text
	assert.Contains(t, summary, "VALIDATION SUMMARY")
	assert.Contains(t, summary, "✅ Matched: Limit cap of ₹5000")
	assert.Contains(t, summary, "✅ Found: Reimbursement process")
	assert.Contains(t, summary, "Overall Confidence: 75%")
}

func TestValidateUpload_UnreadableFile(t *testing.T) {
	f := newFixture(t)
	f.messenger.download = []byte("garbage")
	f.extractor.err = document.ErrUnreadable

	f.orch.HandleEvent(context.Background(), event("validate my policy", "100.6", "",
		slack.File{Filetype: "pdf", URLPrivateDownload: "https://files/x"}))

	require.Len(t, f.messenger.messages, 4) // 3 stages + error reply
	assert.Contains(t, f.messenger.messages[3].Text, "corrupted or encrypted")
	// No summary after the unreadable reply.
	for _, msg := range f.messenger.messages {
		assert.NotContains(t, msg.Text, "VALIDATION SUMMARY")
	}
}

func TestRunAudit_StoresRecordsAndUploadsWorkbook(t *testing.T) {
	f := newFixture(t)

	f.orch.HandleEvent(context.Background(), event("run an audit please", "200.1", ""))

	records, ok, err := f.records.Get(context.Background(), "200.1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, records, 5)

	assert.Equal(t, 1, f.workbooks.built)
	assert.Equal(t, []string{"audit_records.xlsx"}, f.messenger.uploads)

	last := f.messenger.messages[len(f.messenger.messages)-1]
	assert.Contains(t, last.Text, "AUDIT SUMMARY")
	assert.Contains(t, last.Text, "Records processed: 5")
}

func TestFraudDetection_WithoutAuditFirst(t *testing.T) {
	f := newFixture(t)

	f.orch.HandleEvent(context.Background(), event("run fraud detection", "300.1", ""))

	require.Len(t, f.messenger.messages, 1)
	assert.Contains(t, f.messenger.messages[0].Text, `Run "audit" first`)
}

func TestFraudDetection_ThreadIsolation(t *testing.T) {
	f := newFixture(t)

	// Audit in thread T1, fraud detection in an unrelated thread T2.
	f.orch.HandleEvent(context.Background(), event("audit", "400.1", ""))
	f.orch.HandleEvent(context.Background(), event("run fraud detection", "500.9", "500.1"))

	last := f.messenger.messages[len(f.messenger.messages)-1]
	assert.Contains(t, last.Text, `Run "audit" first`)
	assert.NotContains(t, last.Text, "john.doe")
}

func TestScenarioD_AuditThenFraudDetection(t *testing.T) {
	f := newFixture(t)

	// "audit" opens thread 600.1; "run fraud detection" replies in it.
	f.orch.HandleEvent(context.Background(), event("audit", "600.1", ""))
	f.orch.HandleEvent(context.Background(), event("run fraud detection", "600.5", "600.1"))

	report := f.messenger.messages[len(f.messenger.messages)-1].Text
	assert.Contains(t, report, "FRAUD DETECTION REPORT")

	assert.Equal(t, 1, strings.Count(report, "Split claim"))
	assert.Contains(t, report, "john.doe")
	assert.Contains(t, report, "4900")

	assert.Equal(t, 2, strings.Count(report, "without receipt"))
	assert.Contains(t, report, "alice.k")
	assert.Contains(t, report, "5200")
	assert.Contains(t, report, "sam.p")
	assert.Contains(t, report, "4800")

	assert.Equal(t, 1, strings.Count(report, "Backdated approval"))
	assert.Contains(t, report, "dev.admin")
	assert.Contains(t, report, "unauthorized.user")

	assert.Contains(t, report, "Flags raised: 4")

	// The progress message was edited after the scan.
	require.Len(t, f.messenger.updates, 1)
	assert.Contains(t, f.messenger.updates[0].Text, "Scanned 5 records")
}

func TestAuditOverwrite_SecondRunWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.orch.HandleEvent(ctx, event("audit", "700.1", ""))

	// Simulate a stale set left by an earlier run, then re-audit.
	require.NoError(t, f.records.Put(ctx, "700.1", []models.AuditRecord{{User: "stale"}}))
	f.orch.HandleEvent(ctx, event("audit", "700.2", "700.1"))

	records, ok, err := f.records.Get(ctx, "700.1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, records, 5)
	assert.Equal(t, "john.doe", records[0].User)
}

func TestThanks(t *testing.T) {
	f := newFixture(t)

	f.orch.HandleEvent(context.Background(), event("ok thanks!", "800.1", ""))

	require.Len(t, f.messenger.messages, 1)
	assert.Contains(t, f.messenger.messages[0].Text, "Happy to help")
	assert.Contains(t, f.messenger.reactions, "raised_hands")
}

func TestUnknown_HelpMenu(t *testing.T) {
	f := newFixture(t)

	f.orch.HandleEvent(context.Background(), event("what can you do", "900.1", ""))

	require.Len(t, f.messenger.messages, 1)
	assert.Contains(t, f.messenger.messages[0].Text, "I can help with")
	assert.Empty(t, f.messenger.reactions, "no acknowledgment reaction for unknown intent")
}

func TestWorkflowFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	f.messenger.postErr = errors.New("network down")

	// Must not panic and must not send anything further.
	f.orch.HandleEvent(context.Background(), event("audit", "950.1", ""))

	assert.Empty(t, f.messenger.messages)
	_, ok, err := f.records.Get(context.Background(), "950.1")
	require.NoError(t, err)
	assert.False(t, ok, "failed staging must abort before records are stored")
}
