// Package webhook receives the platform's event callbacks, answers
// verification handshakes, filters out non-message noise, and hands
// real messages to the orchestrator without blocking the response.
package webhook

import (
	"context"
	"io"
	"net/http"

	"github.com/compliancehq/compliancebot/internal/slack"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Dispatcher runs the workflow for one accepted message event.
type Dispatcher interface {
	HandleEvent(ctx context.Context, ev *slack.MessageEvent)
}

// Handler handles the inbound webhook route.
type Handler struct {
	dispatcher Dispatcher
	logger     *zap.Logger
}

// NewHandler creates a webhook handler.
func NewHandler(dispatcher Dispatcher, logger *zap.Logger) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Handle processes one webhook POST. Handshakes are answered with the
// challenge token; event callbacks are acknowledged with an empty 200
// before processing so the platform's delivery window is respected.
// Only a body that is neither shape is a client error.
func (h *Handler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Error("Failed to read request body", zap.Error(err))
		c.String(http.StatusBadRequest, "failed to read request body")
		return
	}

	env, err := slack.ParseEnvelope(body)
	if err != nil {
		h.logger.Warn("Malformed webhook body", zap.Error(err))
		c.String(http.StatusBadRequest, "malformed request body")
		return
	}

	if env.Type == "url_verification" {
		if env.Challenge == "" {
			h.logger.Warn("Verification request without challenge token")
			c.String(http.StatusBadRequest, "missing challenge")
			return
		}
		h.logger.Info("Verification handshake acknowledged")
		c.String(http.StatusOK, env.Challenge)
		return
	}

	if env.Event == nil {
		h.logger.Warn("Webhook body is neither handshake nor event")
		c.String(http.StatusBadRequest, "unrecognized payload")
		return
	}

	ev := env.Event
	if !h.shouldDispatch(ev) {
		c.Status(http.StatusOK)
		return
	}

	eventID := uuid.NewString()
	h.logger.Info("Accepted message event",
		zap.String("event_id", eventID),
		zap.String("channel", ev.Channel),
		zap.String("ts", ev.TS))

	// Ack first, work after: processing runs outside the request.
	go h.process(eventID, ev)

	c.Status(http.StatusOK)
}

// shouldDispatch filters events that are acknowledged but never
// processed: non-messages, the bot's own messages, alternate subtypes,
// and messages without text.
func (h *Handler) shouldDispatch(ev *slack.MessageEvent) bool {
	switch {
	case ev.Type != "message":
		h.logger.Debug("Ignoring non-message event", zap.String("type", ev.Type))
		return false
	case ev.BotID != "":
		h.logger.Debug("Ignoring bot-authored message", zap.String("bot_id", ev.BotID))
		return false
	case ev.Subtype != "" && ev.Subtype != "file_share":
		h.logger.Debug("Ignoring message subtype", zap.String("subtype", ev.Subtype))
		return false
	case ev.Text == "":
		h.logger.Debug("Ignoring message without text")
		return false
	}
	return true
}

func (h *Handler) process(eventID string, ev *slack.MessageEvent) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Panic in event processing",
				zap.String("event_id", eventID),
				zap.Any("panic", r))
		}
	}()

	h.dispatcher.HandleEvent(context.Background(), ev)
}
