// Package tara holds the configuration, telemetry and attempt logging shared
// by the service, the CLI and the Lambda handler.
package tara

import (
	"context"
	"net/http"
)

// HTTPClient is the slice of *http.Client used by the completion backends
// and the Slack webhook, so tests can answer with canned responses.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

var _ HTTPClient = (*http.Client)(nil)

// SlackClient posts a message to a channel.
type SlackClient interface {
	PostMessage(ctx context.Context, channel string, message string) error
}
