package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sentinel-metrics/sentinel/internal/alert"
)

// chatWebhookNotifier posts a rich chat-style payload to a fixed webhook
// URL; Slack and Discord differ only in their payload shape, built by
// render.
type chatWebhookNotifier struct {
	name   string
	url    string
	client *http.Client
	render func(alert.Event) interface{}
}

func (n *chatWebhookNotifier) Name() string { return n.name }

func (n *chatWebhookNotifier) Send(ctx context.Context, event alert.Event) error {
	body, err := json.Marshal(n.render(event))
	if err != nil {
		return fmt.Errorf("notify: marshal %s payload: %w", n.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build %s request: %w", n.name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: %s request: %w", n.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify: %s webhook returned status %d", n.name, resp.StatusCode)
	}
	return nil
}

type slackMessage struct {
	Text string `json:"text"`
}

func renderSlack(event alert.Event) interface{} {
	return slackMessage{Text: fmt.Sprintf("[%s] %s %s on %s (%s=%.2f, threshold=%.2f)",
		event.Severity, event.Status, event.RuleName, event.AgentID, event.MetricName, event.Value, event.Threshold)}
}

// NewSlackNotifier posts a one-line Slack-formatted message to a Slack
// incoming webhook URL.
func NewSlackNotifier(url string) Notifier {
	return &chatWebhookNotifier{name: "slack", url: url, client: &http.Client{Timeout: 10 * time.Second}, render: renderSlack}
}

type discordMessage struct {
	Content string `json:"content"`
}

func renderDiscord(event alert.Event) interface{} {
	return discordMessage{Content: fmt.Sprintf("**%s** %s `%s` on `%s` (%s=%.2f, threshold=%.2f)",
		event.Severity, event.Status, event.RuleName, event.AgentID, event.MetricName, event.Value, event.Threshold)}
}

// NewDiscordNotifier posts a Markdown-formatted message to a Discord
// incoming webhook URL.
func NewDiscordNotifier(url string) Notifier {
	return &chatWebhookNotifier{name: "discord", url: url, client: &http.Client{Timeout: 10 * time.Second}, render: renderDiscord}
}
