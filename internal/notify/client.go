// Package notify delivers platform notifications through an incoming webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aimd54/kibo-gamification/internal/config"
	"github.com/aimd54/kibo-gamification/pkg/logger"
)

// Notification is one user-facing notification.
type Notification struct {
	Title     string
	Message   string
	EntityRef string
	DueAt     time.Time
}

// Client posts notifications to a Mattermost/Slack compatible webhook.
type Client struct {
	webhookURL string
	username   string
	enabled    bool
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a new webhook client.
func NewClient(cfg *config.NotifyConfig, log *logger.Logger) *Client {
	return &Client{
		webhookURL: cfg.WebhookURL,
		username:   cfg.Username,
		enabled:    cfg.Enabled,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log.Component("notify"),
	}
}

// Message represents a webhook message payload.
type Message struct {
	Username    string       `json:"username,omitempty"`
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment represents a message attachment.
type Attachment struct {
	Fallback string `json:"fallback,omitempty"`
	Color    string `json:"color,omitempty"`
	Title    string `json:"title,omitempty"`
	Text     string `json:"text,omitempty"`
	Footer   string `json:"footer,omitempty"`
}

// Enabled reports whether notifications are delivered.
func (c *Client) Enabled() bool {
	return c.enabled
}

// Notify sends a notification once. There is no retry.
func (c *Client) Notify(ctx context.Context, n Notification) error {
	if !c.enabled {
		c.log.Debug().Str("title", n.Title).Msg("Notifications are disabled, skipping")
		return nil
	}

	attachment := Attachment{
		Fallback: n.Title,
		Color:    "#f59e0b",
		Title:    "⏰ " + n.Title,
		Text:     n.Message,
		Footer:   n.EntityRef,
	}
	return c.send(ctx, &Message{Username: c.username, Attachments: []Attachment{attachment}})
}

func (c *Client) send(ctx context.Context, msg *Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	c.log.Debug().Msg("Sent notification")
	return nil
}
