// Package bot drives the conversational compliance workflows: it
// classifies inbound message intent and sequences the staged replies,
// artifact generation, and audit/fraud passes for each one.
package bot

import (
	"context"
	"strings"

	"github.com/compliancehq/compliancebot/internal/fraud"
	"github.com/compliancehq/compliancebot/internal/intent"
	"github.com/compliancehq/compliancebot/internal/slack"
	"github.com/compliancehq/compliancebot/internal/store"
	"go.uber.org/zap"
)

// Orchestrator routes one inbound message event to its workflow.
type Orchestrator struct {
	messenger Messenger
	stager    *slack.Stager
	pacer     slack.Pacer
	generator Generator
	extractor Extractor
	templates Templates
	workbooks Workbooks
	records   store.Store
	engine    *fraud.Engine
	logger    *zap.Logger
}

// New wires an orchestrator. The pacer is shared with the stager so a
// test can zero out all delays in one place.
func New(
	messenger Messenger,
	pacer slack.Pacer,
	generator Generator,
	extractor Extractor,
	templates Templates,
	workbooks Workbooks,
	records store.Store,
	engine *fraud.Engine,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		messenger: messenger,
		stager:    slack.NewStager(messenger, pacer, logger),
		pacer:     pacer,
		generator: generator,
		extractor: extractor,
		templates: templates,
		workbooks: workbooks,
		records:   records,
		engine:    engine,
		logger:    logger,
	}
}

// HandleEvent classifies the message and runs the matching workflow.
// Workflow failures never propagate: the webhook has already been
// acknowledged, so errors end as log entries (sent stages stay up).
func (o *Orchestrator) HandleEvent(ctx context.Context, ev *slack.MessageEvent) {
	text := strings.ToLower(strings.TrimSpace(ev.Text))
	_, hasPDF := ev.FirstPDF()

	resolved := intent.Classify(text, hasPDF)

	o.logger.Info("Dispatching message",
		zap.String("channel", ev.Channel),
		zap.String("thread_id", ev.ThreadID()),
		zap.String("intent", string(resolved)))

	if resolved != intent.IntentUnknown && resolved != intent.IntentThanks {
		// Acknowledge receipt on the triggering message. Best effort:
		// a failed reaction must not stop the workflow.
		if err := o.messenger.AddReaction(ctx, ev.Channel, ev.TS, "eyes"); err != nil {
			o.logger.Warn("Failed to add acknowledgment reaction", zap.Error(err))
		}
	}

	var err error
	switch resolved {
	case intent.IntentGenerateTemplate:
		err = o.handleGenerateTemplate(ctx, ev, text)
	case intent.IntentCustomPolicy:
		err = o.handleCustomPolicy(ctx, ev)
	case intent.IntentValidateUpload:
		err = o.handleValidateUpload(ctx, ev)
	case intent.IntentRunAudit:
		err = o.handleRunAudit(ctx, ev)
	case intent.IntentFraudDetection:
		err = o.handleFraudDetection(ctx, ev)
	case intent.IntentThanks:
		err = o.handleThanks(ctx, ev)
	default:
		err = o.handleUnknown(ctx, ev)
	}

	if err != nil {
		o.logger.Error("Workflow failed",
			zap.String("intent", string(resolved)),
			zap.String("channel", ev.Channel),
			zap.String("thread_id", ev.ThreadID()),
			zap.Error(err))
	}
}
