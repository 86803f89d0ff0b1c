// Package notification delivers plain-text and attachment messages to chat sinks.
package notification

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNoRecipient is returned when a message has neither a channel nor a default.
var ErrNoRecipient = errors.New("notification has no channel")

// Field is a short key/value pair shown inside an attachment.
type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// Attachment is a structured block of a message.
type Attachment struct {
	Fallback string  `json:"fallback,omitempty"`
	Color    string  `json:"color,omitempty"`
	Pretext  string  `json:"pretext,omitempty"`
	Title    string  `json:"title,omitempty"`
	Text     string  `json:"text,omitempty"`
	Fields   []Field `json:"fields,omitempty"`
}

// Message is what a Notifier sends. Channel overrides the sink default.
type Message struct {
	Channel     string
	Text        string
	Attachments []Attachment
}

// Text builds a plain-text message.
func Text(text string) Message {
	return Message{Text: text}
}

// Notifier sends messages to one sink.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}

// NopNotifier drops every message.
type NopNotifier struct{}

func (NopNotifier) Send(context.Context, Message) error { return nil }
func (NopNotifier) Name() string                        { return "nop" }

// LogNotifier writes messages to a logger. It is used when no chat sink is
// configured so that briefings still leave a trace.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	attrs := []any{"channel", msg.Channel, "attachments", len(msg.Attachments)}
	if msg.Text != "" {
		attrs = append(attrs, "text", msg.Text)
	}
	for i, a := range msg.Attachments {
		attrs = append(attrs, slog.Group("attachment", "index", i, "title", a.Title, "text", a.Text))
	}
	n.logger.InfoContext(ctx, "notification", attrs...)
	return nil
}

func (n *LogNotifier) Name() string { return "log" }

// MultiNotifier fans out to several notifiers. Failures are logged and the
// first one is returned after every sink was tried.
type MultiNotifier struct {
	notifiers []Notifier
	logger    *slog.Logger
}

// NewMultiNotifier creates a MultiNotifier.
func NewMultiNotifier(logger *slog.Logger, notifiers ...Notifier) *MultiNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &MultiNotifier{notifiers: notifiers, logger: logger}
}

func (m *MultiNotifier) Send(ctx context.Context, msg Message) error {
	var first error
	for _, n := range m.notifiers {
		if err := n.Send(ctx, msg); err != nil {
			m.logger.ErrorContext(ctx, "notification send failed", "sink", n.Name(), "error", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

func (m *MultiNotifier) Name() string { return "multi" }

// Len returns the number of sinks.
func (m *MultiNotifier) Len() int { return len(m.notifiers) }
