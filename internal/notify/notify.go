// Package notify delivers pipeline run notifications to Slack and Discord
// webhooks. Delivery failures are reported in the Result but never fail a
// run.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"newsforge/internal/logger"
)

// Level is the severity of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

var levelEmoji = map[Level]string{
	LevelInfo:    "ℹ️",
	LevelSuccess: "✅",
	LevelWarning: "⚠️",
	LevelError:   "🚨",
}

var levelColor = map[Level]int{
	LevelInfo:    0x2563eb,
	LevelSuccess: 0x10b981,
	LevelWarning: 0xf59e0b,
	LevelError:   0xef4444,
}

// Payload is one notification.
type Payload struct {
	Level     Level             `json:"level"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Result records what happened to a delivery attempt. Attempted false
// means no webhook was configured; Delivered false with a non-nil Err
// means the webhook was called and failed.
type Result struct {
	Attempted bool
	Delivered bool
	Err       error
}

// SlackMessage is the webhook body for Slack.
type SlackMessage struct {
	Text   string       `json:"text,omitempty"`
	Blocks []SlackBlock `json:"blocks,omitempty"`
}

// SlackBlock is one Block Kit element.
type SlackBlock struct {
	Type     string      `json:"type"`
	Text     *SlackText  `json:"text,omitempty"`
	Elements []SlackText `json:"elements,omitempty"`
}

// SlackText is text within a block.
type SlackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// DiscordMessage is the webhook body for Discord.
type DiscordMessage struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

// DiscordEmbed is one Discord embed.
type DiscordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Fields      []DiscordEmbedField `json:"fields,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
}

// DiscordEmbedField is a field within an embed.
type DiscordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Notifier posts payloads to the configured webhooks.
type Notifier struct {
	SlackWebhookURL   string
	DiscordWebhookURL string
	HTTPClient        *http.Client
}

// NewNotifier creates a notifier; either webhook URL may be empty.
func NewNotifier(slackURL, discordURL string) *Notifier {
	return &Notifier{
		SlackWebhookURL:   slackURL,
		DiscordWebhookURL: discordURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Send delivers the payload to every configured webhook. The Result says
// whether delivery was attempted and whether it succeeded; errors are
// logged, never propagated as run failures.
func (n *Notifier) Send(payload Payload) Result {
	if payload.Timestamp.IsZero() {
		payload.Timestamp = time.Now().UTC()
	}

	if n.SlackWebhookURL == "" && n.DiscordWebhookURL == "" {
		return Result{}
	}

	result := Result{Attempted: true, Delivered: true}

	if n.SlackWebhookURL != "" {
		if err := n.post(n.SlackWebhookURL, BuildSlackMessage(payload)); err != nil {
			logger.Warn("Slack notification failed", "error", err.Error())
			result.Delivered = false
			result.Err = err
		}
	}

	if n.DiscordWebhookURL != "" {
		if err := n.post(n.DiscordWebhookURL, BuildDiscordMessage(payload)); err != nil {
			logger.Warn("Discord notification failed", "error", err.Error())
			result.Delivered = false
			if result.Err == nil {
				result.Err = err
			}
		}
	}

	return result
}

// SendRateLimitWarning notifies that a provider's quota is nearly spent.
func (n *Notifier) SendRateLimitWarning(provider string, remaining, limit int) Result {
	return n.Send(Payload{
		Level:   LevelWarning,
		Title:   "API rate limit warning",
		Message: fmt.Sprintf("%s quota is nearly exhausted", provider),
		Details: map[string]string{
			"provider":  provider,
			"remaining": fmt.Sprintf("%d", remaining),
			"limit":     fmt.Sprintf("%d", limit),
		},
	})
}

func (n *Notifier) post(url string, message any) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook message: %w", err)
	}

	resp, err := n.HTTPClient.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		text, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(text))
	}

	return nil
}

// BuildSlackMessage renders a payload as Block Kit: header, message
// section, detail bullets, and a context timestamp.
func BuildSlackMessage(payload Payload) *SlackMessage {
	blocks := []SlackBlock{
		{
			Type: "header",
			Text: &SlackText{Type: "plain_text", Text: fmt.Sprintf("%s %s", levelEmoji[payload.Level], payload.Title)},
		},
		{
			Type: "section",
			Text: &SlackText{Type: "mrkdwn", Text: payload.Message},
		},
	}

	if len(payload.Details) > 0 {
		var b strings.Builder
		for _, key := range sortedKeys(payload.Details) {
			b.WriteString(fmt.Sprintf("• *%s*: %s\n", key, payload.Details[key]))
		}
		blocks = append(blocks, SlackBlock{
			Type: "section",
			Text: &SlackText{Type: "mrkdwn", Text: b.String()},
		})
	}

	blocks = append(blocks, SlackBlock{
		Type: "context",
		Elements: []SlackText{
			{Type: "mrkdwn", Text: payload.Timestamp.Format(time.RFC3339)},
		},
	})

	return &SlackMessage{Blocks: blocks}
}

// BuildDiscordMessage renders a payload as a single embed.
func BuildDiscordMessage(payload Payload) *DiscordMessage {
	embed := DiscordEmbed{
		Title:       fmt.Sprintf("%s %s", levelEmoji[payload.Level], payload.Title),
		Description: payload.Message,
		Color:       levelColor[payload.Level],
		Timestamp:   payload.Timestamp.Format(time.RFC3339),
	}

	for _, key := range sortedKeys(payload.Details) {
		embed.Fields = append(embed.Fields, DiscordEmbedField{
			Name:  key,
			Value: payload.Details[key],
		})
	}

	return &DiscordMessage{Embeds: []DiscordEmbed{embed}}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
