// Package slack implements the outbound messaging-platform client and
// the staged-progress messenger built on top of it.
package slack

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// Config holds client configuration.
type Config struct {
	BotToken string
	APIBase  string        // overrides the production Web API root, tests point it at httptest
	Timeout  time.Duration // defaults to 30s
}

// Client wraps the platform SDK with the operations the workflows use.
// SDK errors carry the failing method; the SDK itself checks both the
// HTTP status and the response body's ok field.
type Client struct {
	api    *slack.Client
	logger *zap.Logger
}

// NewClient creates a new Web API client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	opts := []slack.Option{
		slack.OptionHTTPClient(&http.Client{Timeout: timeout}),
	}
	if cfg.APIBase != "" {
		// The SDK joins method names onto the base, so it must end in /.
		opts = append(opts, slack.OptionAPIURL(strings.TrimSuffix(cfg.APIBase, "/")+"/"))
	}

	return &Client{
		api:    slack.New(cfg.BotToken, opts...),
		logger: logger,
	}
}

// PostMessage sends a text message to a channel, threaded under
// threadTS when non-empty. Returns the new message's timestamp.
func (c *Client) PostMessage(ctx context.Context, channel, threadTS, text string) (string, error) {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}

	_, ts, err := c.api.PostMessageContext(ctx, channel, opts...)
	if err != nil {
		c.logger.Error("chat.postMessage failed",
			zap.String("channel", channel),
			zap.Error(err))
		return "", fmt.Errorf("chat.postMessage: %w", err)
	}
	return ts, nil
}

// PostDownloadCard sends an interactive message with a titled section
// and a download button linking to the artifact URL.
func (c *Client) PostDownloadCard(ctx context.Context, channel, threadTS, title, label, url string) (string, error) {
	section := slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, title, false, false), nil, nil)

	button := slack.NewButtonBlockElement("artifact_download", "download",
		slack.NewTextBlockObject(slack.PlainTextType, label, false, false))
	button.URL = url
	button.Style = slack.StylePrimary

	opts := []slack.MsgOption{
		// fallback text for clients without block support
		slack.MsgOptionText(fmt.Sprintf("%s\n%s", title, url), false),
		slack.MsgOptionBlocks(section, slack.NewActionBlock("", button)),
	}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}

	_, ts, err := c.api.PostMessageContext(ctx, channel, opts...)
	if err != nil {
		c.logger.Error("chat.postMessage with blocks failed",
			zap.String("channel", channel),
			zap.Error(err))
		return "", fmt.Errorf("chat.postMessage: %w", err)
	}
	return ts, nil
}

// UpdateMessage edits a previously sent message identified by its
// timestamp.
func (c *Client) UpdateMessage(ctx context.Context, channel, ts, text string) error {
	if _, _, _, err := c.api.UpdateMessageContext(ctx, channel, ts, slack.MsgOptionText(text, false)); err != nil {
		c.logger.Error("chat.update failed",
			zap.String("channel", channel),
			zap.String("ts", ts),
			zap.Error(err))
		return fmt.Errorf("chat.update: %w", err)
	}
	return nil
}

// AddReaction adds an emoji reaction to a message.
func (c *Client) AddReaction(ctx context.Context, channel, ts, name string) error {
	if err := c.api.AddReactionContext(ctx, name, slack.NewRefToMessage(channel, ts)); err != nil {
		return fmt.Errorf("reactions.add: %w", err)
	}
	return nil
}

// UploadFile uploads a binary file into a channel/thread.
func (c *Client) UploadFile(ctx context.Context, channel, threadTS, filename, title string, content []byte) error {
	_, err := c.api.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Channel:         channel,
		ThreadTimestamp: threadTS,
		Filename:        filename,
		Title:           title,
		FileSize:        len(content),
		Reader:          bytes.NewReader(content),
	})
	if err != nil {
		c.logger.Error("File upload failed",
			zap.String("channel", channel),
			zap.String("filename", filename),
			zap.Error(err))
		return fmt.Errorf("files.uploadV2: %w", err)
	}

	c.logger.Debug("Uploaded file",
		zap.String("filename", filename),
		zap.Int("size", len(content)))
	return nil
}

// DownloadFile fetches a private file's bytes with bearer auth.
func (c *Client) DownloadFile(ctx context.Context, url string) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.api.GetFileContext(ctx, url, &buf); err != nil {
		c.logger.Warn("File download failed", zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("file download: %w", err)
	}

	c.logger.Debug("Downloaded file", zap.String("url", url), zap.Int("size", buf.Len()))
	return buf.Bytes(), nil
}
