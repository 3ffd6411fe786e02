package slack

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Sender posts a single message; satisfied by *Client.
type Sender interface {
	PostMessage(ctx context.Context, channel, threadTS, text string) (string, error)
}

// Stager sends an ordered sequence of progress messages with pacing
// between them, simulating incremental work.
type Stager struct {
	sender Sender
	pacer  Pacer
	logger *zap.Logger
}

// NewStager creates a stager.
func NewStager(sender Sender, pacer Pacer, logger *zap.Logger) *Stager {
	return &Stager{
		sender: sender,
		pacer:  pacer,
		logger: logger,
	}
}

// Run sends each stage strictly in order, waiting the pacing interval
// after every send. When threadTS is empty the first message opens the
// thread and its timestamp becomes the handle for all later replies.
// A failed send aborts the remaining stages; messages already sent stay
// up, since the platform has no transaction to roll back.
func (s *Stager) Run(ctx context.Context, channel, threadTS string, stages []string) (string, error) {
	handle := threadTS

	for i, stage := range stages {
		ts, err := s.sender.PostMessage(ctx, channel, handle, stage)
		if err != nil {
			s.logger.Error("Staged send failed, aborting remaining stages",
				zap.String("channel", channel),
				zap.Int("stage", i),
				zap.Int("total", len(stages)),
				zap.Error(err))
			return handle, fmt.Errorf("stage %d/%d failed: %w", i+1, len(stages), err)
		}

		if handle == "" {
			handle = ts
		}

		if err := s.pacer.Wait(ctx); err != nil {
			return handle, fmt.Errorf("pacing interrupted: %w", err)
		}
	}

	return handle, nil
}
