// Package slack posts analysis job outcomes to an incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"tara"
	"tara/jobs"
)

const notifyTimeout = 5 * time.Second

type Client struct {
	webhookURL string
	httpClient tara.HTTPClient
}

func NewClient(webhookURL string, httpClient tara.HTTPClient) *Client {
	return &Client{
		webhookURL: webhookURL,
		httpClient: httpClient,
	}
}

func (c *Client) PostMessage(ctx context.Context, channel string, message string) error {
	payload, err := json.Marshal(map[string]any{
		"channel": channel,
		"text":    message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to post message: %s", resp.Status)
	}

	return nil
}

// Notifier reports finished jobs to a channel. Its Notify method fits
// jobs.Options.OnFinish.
type Notifier struct {
	client  tara.SlackClient
	channel string
}

func NewNotifier(client tara.SlackClient, channel string) *Notifier {
	return &Notifier{client: client, channel: channel}
}

func (n *Notifier) Notify(job jobs.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	if err := n.client.PostMessage(ctx, n.channel, Message(job)); err != nil {
		slog.Warn("SLACK: Failed to post job notification", "job_id", job.ID, "error", err)
	}
}

// Message renders the one-line summary posted for job.
func Message(job jobs.Job) string {
	took := job.UpdatedAt.Sub(job.CreatedAt).Round(time.Millisecond)
	switch job.Status {
	case jobs.StatusDone:
		return fmt.Sprintf(":white_check_mark: Análise %s concluída em %s", job.ID, took)
	case jobs.StatusError:
		return fmt.Sprintf(":x: Análise %s falhou após %s: %s", job.ID, took, job.Error)
	default:
		return fmt.Sprintf("Análise %s: %s", job.ID, job.Status)
	}
}
