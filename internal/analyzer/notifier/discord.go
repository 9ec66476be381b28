package notifier

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// discordNotifier posts messages to a Discord channel through a webhook.
type discordNotifier struct {
	session      *discordgo.Session
	webhookID    string
	webhookToken string
}

// NewDiscord creates a Discord notifier from a full webhook URL of the form
// https://discord.com/api/webhooks/<id>/<token>.
func NewDiscord(webhookURL string) (Notifier, error) {
	id, token, err := parseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}

	// Webhook execution needs no bot token.
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	return &discordNotifier{
		session:      session,
		webhookID:    id,
		webhookToken: token,
	}, nil
}

func (d *discordNotifier) Send(ctx context.Context, message string) error {
	_, err := d.session.WebhookExecute(d.webhookID, d.webhookToken, true, &discordgo.WebhookParams{
		Content: message,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to execute discord webhook: %w", err)
	}
	return nil
}

func parseWebhookURL(webhookURL string) (id string, token string, err error) {
	parsed, err := url.Parse(webhookURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid discord webhook URL: %w", err)
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	// Path is api/webhooks/<id>/<token>.
	if len(parts) < 4 || parts[len(parts)-4] != "api" || parts[len(parts)-3] != "webhooks" {
		return "", "", fmt.Errorf("invalid discord webhook URL path: %s", parsed.Path)
	}
	return parts[len(parts)-2], parts[len(parts)-1], nil
}
