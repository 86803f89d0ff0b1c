package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	defaultSlackAPIURL = "https://slack.com/api"
	slackTimeout       = 10 * time.Second
)

type slackPayload struct {
	Channel     string       `json:"channel,omitempty"`
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// SlackWebhookNotifier posts to a Slack incoming webhook. The webhook is
// bound to its channel, so Message.Channel is only forwarded as a hint.
type SlackWebhookNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewSlackWebhookNotifier creates a webhook notifier.
func NewSlackWebhookNotifier(webhookURL string) *SlackWebhookNotifier {
	return &SlackWebhookNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: slackTimeout},
	}
}

func (s *SlackWebhookNotifier) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(slackPayload{Channel: msg.Channel, Text: msg.Text, Attachments: msg.Attachments})
	if err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack webhook: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}

func (s *SlackWebhookNotifier) Name() string { return "slack-webhook" }

// SlackBotNotifier posts with chat.postMessage using a bot token.
type SlackBotNotifier struct {
	baseURL        string
	defaultChannel string
	client         *http.Client
}

// NewSlackBotNotifier creates a bot notifier. Messages without a channel go
// to defaultChannel.
func NewSlackBotNotifier(baseURL, token, defaultChannel string) *SlackBotNotifier {
	if baseURL == "" {
		baseURL = defaultSlackAPIURL
	}
	client := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	client.Timeout = slackTimeout
	return &SlackBotNotifier{
		baseURL:        strings.TrimRight(baseURL, "/"),
		defaultChannel: defaultChannel,
		client:         client,
	}
}

func (s *SlackBotNotifier) Send(ctx context.Context, msg Message) error {
	channel := msg.Channel
	if channel == "" {
		channel = s.defaultChannel
	}
	if channel == "" {
		return ErrNoRecipient
	}

	body, err := json.Marshal(slackPayload{Channel: channel, Text: msg.Text, Attachments: msg.Attachments})
	if err != nil {
		return fmt.Errorf("slack bot: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat.postMessage", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack bot: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack bot: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack bot: HTTP %d", resp.StatusCode)
	}

	// Slack answers 200 for API errors too.
	var result struct {
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("slack bot: decode response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("slack bot: %s", result.Error)
	}
	return nil
}

func (s *SlackBotNotifier) Name() string { return "slack-bot" }
