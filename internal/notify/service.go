package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"relcut/internal/config"
)

const userAgent = "relcut/0.1.0"

// Discord's hard cap on an embed description.
const maxEmbedDescription = 4096

// Embed accent colors.
const (
	colorStarted   = 0x3498db // blue
	colorPublished = 0x2ecc71 // green
	colorFailed    = 0xe74c3c // red
	colorTest      = 0x95a5a6 // grey
)

// ReleaseInfo carries the published release details into the notification.
type ReleaseInfo struct {
	TagName    string
	Title      string
	Notes      string
	URL        string
	Prerelease bool
}

// Service defines the notification surface exposed to the publish pipeline.
type Service interface {
	NotifyPublishStarted(ctx context.Context, tag string) error
	NotifyReleasePublished(ctx context.Context, rel ReleaseInfo) error
	NotifyPublishFailed(ctx context.Context, tag, stage string, cause error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by the configured Discord
// webhook. When no webhook is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	webhook := strings.TrimSpace(cfg.DiscordWebhook())
	if webhook == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Discord.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &discordService{
		webhook:   webhook,
		username:  cfg.Discord.Username,
		avatarURL: cfg.Discord.AvatarURL,
		project:   cfg.Project.Name,
		started:   cfg.Discord.Started,
		published: cfg.Discord.Published,
		failures:  cfg.Discord.Failures,
		client:    &http.Client{Timeout: timeout},
	}
}

type embed struct {
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	URL         string  `json:"url,omitempty"`
	Color       int     `json:"color,omitempty"`
	Timestamp   string  `json:"timestamp,omitempty"`
	Footer      *footer `json:"footer,omitempty"`
}

type footer struct {
	Text string `json:"text"`
}

type webhookPayload struct {
	Username  string  `json:"username,omitempty"`
	AvatarURL string  `json:"avatar_url,omitempty"`
	Embeds    []embed `json:"embeds"`
}

type discordService struct {
	webhook   string
	username  string
	avatarURL string
	project   string
	started   bool
	published bool
	failures  bool
	client    *http.Client
}

func (d *discordService) NotifyPublishStarted(ctx context.Context, tag string) error {
	if !d.started {
		return nil
	}
	return d.send(ctx, embed{
		Title:       d.titled("Publishing " + strings.TrimSpace(tag)),
		Description: "Release pipeline started.",
		Color:       colorStarted,
	})
}

func (d *discordService) NotifyReleasePublished(ctx context.Context, rel ReleaseInfo) error {
	if !d.published {
		return nil
	}
	title := strings.TrimSpace(rel.Title)
	if title == "" {
		title = strings.TrimSpace(rel.TagName)
	}
	if rel.Prerelease {
		title += " (prerelease)"
	}
	return d.send(ctx, embed{
		Title:       d.titled(title),
		Description: truncateNotes(rel.Notes),
		URL:         strings.TrimSpace(rel.URL),
		Color:       colorPublished,
	})
}

func (d *discordService) NotifyPublishFailed(ctx context.Context, tag, stage string, cause error) error {
	if !d.failures {
		return nil
	}
	var b strings.Builder
	b.WriteString("Publish failed")
	if stage = strings.TrimSpace(stage); stage != "" {
		b.WriteString(" during ")
		b.WriteString(stage)
	}
	if cause != nil {
		b.WriteString(":\n")
		b.WriteString(strings.TrimSpace(cause.Error()))
	}
	return d.send(ctx, embed{
		Title:       d.titled(strings.TrimSpace(tag)),
		Description: truncateNotes(b.String()),
		Color:       colorFailed,
	})
}

func (d *discordService) TestNotification(ctx context.Context) error {
	return d.send(ctx, embed{
		Title:       d.titled("Test"),
		Description: "Notification system test.",
		Color:       colorTest,
	})
}

func (d *discordService) titled(text string) string {
	if d.project != "" {
		return d.project + " - " + text
	}
	return text
}

func (d *discordService) send(ctx context.Context, e embed) error {
	if d == nil || d.client == nil {
		return nil
	}
	e.Timestamp = time.Now().UTC().Format(time.RFC3339)
	if d.project != "" {
		e.Footer = &footer{Text: d.project}
	}

	payload := webhookPayload{
		Username:  d.username,
		AvatarURL: d.avatarURL,
		Embeds:    []embed{e},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhook, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("send discord notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("discord returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// truncateNotes caps text at the embed description limit, cutting on a line
// boundary and appending a marker when content was dropped.
func truncateNotes(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= maxEmbedDescription {
		return text
	}
	const marker = "\n…"
	limit := maxEmbedDescription - len(marker)
	cut := text[:limit]
	if idx := strings.LastIndexByte(cut, '\n'); idx > 0 {
		cut = cut[:idx]
	}
	return cut + marker
}

type noopService struct{}

func (noopService) NotifyPublishStarted(context.Context, string) error { return nil }

func (noopService) NotifyReleasePublished(context.Context, ReleaseInfo) error { return nil }

func (noopService) NotifyPublishFailed(context.Context, string, string, error) error { return nil }

func (noopService) TestNotification(context.Context) error { return nil }

// Enabled reports whether the service actually delivers notifications.
func Enabled(s Service) bool {
	_, noop := s.(noopService)
	return !noop
}
