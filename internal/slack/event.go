package slack

import (
	"encoding/json"
	"errors"

	"github.com/slack-go/slack/slackevents"
)

// EventEnvelope is the body of an inbound webhook call: either a
// url_verification handshake or an event_callback wrapping a message.
type EventEnvelope struct {
	Type      string
	Challenge string
	Event     *MessageEvent
}

// MessageEvent carries one inbound message.
type MessageEvent struct {
	Type     string
	Subtype  string
	Text     string
	User     string
	Channel  string
	TS       string
	ThreadTS string
	BotID    string
	Files    []File
}

// File describes an attachment on a message.
type File struct {
	ID                 string
	Name               string
	Filetype           string
	URLPrivateDownload string
}

// ThreadID returns the conversation-thread key for this message: the
// existing thread timestamp when replying inside a thread, otherwise
// the message's own timestamp (which starts a new thread).
func (e *MessageEvent) ThreadID() string {
	if e.ThreadTS != "" {
		return e.ThreadTS
	}
	return e.TS
}

// FirstPDF returns the first attached PDF file, if any.
func (e *MessageEvent) FirstPDF() (File, bool) {
	for _, f := range e.Files {
		if f.Filetype == "pdf" {
			return f, true
		}
	}
	return File{}, false
}

// ParseEnvelope decodes a webhook body via the SDK's events parser.
// Non-message inner events come back with only Type set so the caller
// can acknowledge and drop them.
func ParseEnvelope(body []byte) (*EventEnvelope, error) {
	// The SDK parser assumes a callback carries an event payload.
	var outer struct {
		Type  string           `json:"type"`
		Event *json.RawMessage `json:"event"`
	}
	if err := json.Unmarshal(body, &outer); err != nil {
		return nil, err
	}
	if outer.Type == slackevents.CallbackEvent && outer.Event == nil {
		return nil, errors.New("event_callback without event payload")
	}

	apiEvent, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		return nil, err
	}

	env := &EventEnvelope{Type: apiEvent.Type}
	switch apiEvent.Type {
	case slackevents.URLVerification:
		if v, ok := apiEvent.Data.(*slackevents.EventsAPIURLVerificationEvent); ok {
			env.Challenge = v.Challenge
		}
	case slackevents.CallbackEvent:
		if msg, ok := apiEvent.InnerEvent.Data.(*slackevents.MessageEvent); ok {
			env.Event = fromMessageEvent(msg)
		} else {
			env.Event = &MessageEvent{Type: apiEvent.InnerEvent.Type}
		}
	}
	return env, nil
}

func fromMessageEvent(msg *slackevents.MessageEvent) *MessageEvent {
	ev := &MessageEvent{
		Type:     msg.Type,
		Subtype:  msg.SubType,
		Text:     msg.Text,
		User:     msg.User,
		Channel:  msg.Channel,
		TS:       msg.TimeStamp,
		ThreadTS: msg.ThreadTimeStamp,
		BotID:    msg.BotID,
	}
	for _, f := range msg.Files {
		ev.Files = append(ev.Files, File{
			ID:                 f.ID,
			Name:               f.Name,
			Filetype:           f.Filetype,
			URLPrivateDownload: f.URLPrivateDownload,
		})
	}
	return ev
}
