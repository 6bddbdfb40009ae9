// Package openai talks to OpenAI-compatible /chat/completions endpoints,
// trying a model on each listed provider in order.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"tara"
	"tara/completion"
)

const (
	defaultMaxTokens   = 2048
	defaultTemperature = 0.2
	defaultTopP        = 0.9
)

type Options struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

type Backend struct {
	httpClient tara.HTTPClient
	catalog    Catalog
	opts       Options
}

func NewBackend(httpClient tara.HTTPClient, catalog Catalog, opts Options) *Backend {
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.TopP == 0 {
		opts.TopP = defaultTopP
	}
	return &Backend{httpClient: httpClient, catalog: catalog, opts: opts}
}

type wireRequest struct {
	Model       string               `json:"model"`
	Messages    []completion.Message `json:"messages"`
	MaxTokens   int                  `json:"max_tokens,omitempty"`
	Temperature float64              `json:"temperature,omitempty"`
	TopP        float64              `json:"top_p,omitempty"`
	Stream      bool                 `json:"stream"`
}

type wireResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete tries req.Providers in order and returns the first answer. When
// every provider rejected credentials the result is an *completion.AuthError.
func (b *Backend) Complete(ctx context.Context, req completion.Request) (completion.Response, error) {
	var lastErr, lastAuthErr error
	tried := 0

	for _, name := range req.Providers {
		if err := ctx.Err(); err != nil {
			return completion.Response{}, err
		}

		p, ok := b.catalog.Lookup(name)
		if !ok {
			slog.Debug("OPENAI: Provider not in catalog, skipping", "provider", name)
			continue
		}
		tried++

		resp, err := b.call(ctx, p, req)
		if err == nil {
			slog.Info("OPENAI: Provider answered", "provider", p.Name, "model", req.Model)
			return resp, nil
		}

		slog.Warn("OPENAI: Provider failed", "provider", p.Name, "model", req.Model, "error", err)
		var authErr *completion.AuthError
		if errors.As(err, &authErr) {
			lastAuthErr = err
		} else {
			lastErr = err
		}
	}

	switch {
	case tried == 0:
		return completion.Response{}, fmt.Errorf("no configured provider among %v", req.Providers)
	case lastErr != nil:
		return completion.Response{}, fmt.Errorf("all %d providers failed for model %s, last: %w", tried, req.Model, lastErr)
	default:
		return completion.Response{}, lastAuthErr
	}
}

func (b *Backend) call(ctx context.Context, p Provider, req completion.Request) (completion.Response, error) {
	body, err := json.Marshal(wireRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		MaxTokens:   b.opts.MaxTokens,
		Temperature: b.opts.Temperature,
		TopP:        b.opts.TopP,
	})
	if err != nil {
		return completion.Response{}, err
	}

	endpoint := strings.TrimRight(p.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return completion.Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return completion.Response{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return completion.Response{}, fmt.Errorf("%s: read response: %w", p.Name, err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return completion.Response{}, &completion.AuthError{
			Provider: p.Name,
			Err:      fmt.Errorf("%s: %s", resp.Status, truncate(raw)),
		}
	case resp.StatusCode != http.StatusOK:
		return completion.Response{}, fmt.Errorf("%s: %s: %s", p.Name, resp.Status, truncate(raw))
	}

	var wr wireResponse
	if err := json.Unmarshal(raw, &wr); err != nil {
		return completion.Response{}, fmt.Errorf("%s: decode response: %w", p.Name, err)
	}
	if wr.Error != nil {
		return completion.Response{}, fmt.Errorf("%s: %s", p.Name, wr.Error.Message)
	}
	if len(wr.Choices) == 0 {
		return completion.Response{}, fmt.Errorf("%s: response has no choices", p.Name)
	}

	out := completion.Response{Choices: make([]completion.Choice, 0, len(wr.Choices))}
	for _, c := range wr.Choices {
		out.Choices = append(out.Choices, completion.Choice{
			Message: completion.ChoiceMessage{Role: c.Message.Role, Content: c.Message.Content},
		})
	}
	return out, nil
}

func truncate(b []byte) string {
	const max = 512
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
