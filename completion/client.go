// Package completion obtains text completions from flaky generative model
// backends. Models are tried strictly in order, one at a time, each under a
// hard wall-clock timeout.
package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tara"
)

const DefaultTimeout = 25 * time.Second

// DefaultModels is the priority order, most capable first.
var DefaultModels = []string{"gpt-5.2", "gpt-5-mini", "gpt-4o"}

// DefaultProviders is tried in this order for every model.
var DefaultProviders = []string{
	"Chatai",
	"OIVSCodeSer2",
	"OIVSCodeSer0501",
	"Startnest",
	"OperaAria",
	"PollinationsAI",
	"Qwen",
	"WeWordle",
}

type Options struct {
	Models    []string
	Providers []string
	Timeout   time.Duration
	Logger    tara.AttemptLogger
}

// Client runs the model fallback loop.
type Client struct {
	factory BackendFactory
	opts    Options
	direct  bool
}

// NewClient returns a client that runs every attempt in an isolated worker
// so the timeout holds even when backend ignores its context.
func NewClient(backend Backend, opts Options) *Client {
	return newClient(func() Backend { return backend }, opts, false)
}

// NewClientWithFactory substitutes the backend factory. Attempts then call
// the backend in-process, bounded only by context cancellation.
func NewClientWithFactory(factory BackendFactory, opts Options) *Client {
	return newClient(factory, opts, true)
}

func newClient(factory BackendFactory, opts Options, direct bool) *Client {
	if opts.Models == nil {
		opts.Models = DefaultModels
	}
	if opts.Providers == nil {
		opts.Providers = DefaultProviders
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = tara.NewNoOpAttemptLogger()
	}
	return &Client{factory: factory, opts: opts, direct: direct}
}

// Models returns the configured priority order.
func (c *Client) Models() []string {
	return append([]string(nil), c.opts.Models...)
}

// Complete returns the first successful completion.
func (c *Client) Complete(ctx context.Context, messages []Message) (Response, error) {
	resp, _, err := c.CompleteWithAttempts(ctx, messages)
	return resp, err
}

// CompleteWithAttempts is Complete plus the record of every attempt made, in
// order. Once all models fail the error is an *ExhaustedError wrapping the
// last failure, or ErrNoModelAvailable when no model is configured.
func (c *Client) CompleteWithAttempts(ctx context.Context, messages []Message) (Response, []Attempt, error) {
	backend := c.factory()
	attempts := make([]Attempt, 0, len(c.opts.Models))
	var lastErr error

	for i, model := range c.opts.Models {
		if err := ctx.Err(); err != nil {
			return Response{}, attempts, err
		}

		req := Request{
			Model:     model,
			Providers: append([]string(nil), c.opts.Providers...),
			Messages:  messages,
		}

		attempt := Attempt{Number: i + 1, Model: model, Providers: req.Providers, StartedAt: time.Now()}
		var resp Response
		var err error
		if c.direct {
			resp, err = c.callDirect(ctx, backend, req)
		} else {
			resp, err = c.callIsolated(ctx, backend, req)
		}
		attempt.EndedAt = time.Now()
		attempt.Outcome = Classify(err)
		attempt.Err = err
		attempts = append(attempts, attempt)
		c.record(attempt, len(resp.Text()))

		if err == nil {
			return resp, attempts, nil
		}
		// Parent context ended: stop instead of falling back.
		if ctx.Err() != nil {
			return Response{}, attempts, ctx.Err()
		}
		lastErr = err
	}

	if lastErr == nil {
		return Response{}, attempts, ErrNoModelAvailable
	}
	return Response{}, attempts, &ExhaustedError{Attempts: attempts, Err: lastErr}
}

type result struct {
	resp Response
	err  error
}

// callIsolated runs the backend in its own goroutine and waits at most the
// client timeout for the single result. On timeout the worker's context is
// cancelled and the worker is abandoned; the buffered channel lets it exit
// whenever it returns.
func (c *Client) callIsolated(ctx context.Context, backend Backend, req Request) (Response, error) {
	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				results <- result{err: fmt.Errorf("completion worker panicked: %v", r)}
			}
		}()
		resp, err := backend.Complete(workerCtx, req)
		results <- result{resp: resp, err: err}
	}()

	timer := time.NewTimer(c.opts.Timeout)
	defer timer.Stop()

	select {
	case r := <-results:
		return r.resp, r.err
	case <-timer.C:
		return Response{}, &TimeoutError{Model: req.Model, Timeout: c.opts.Timeout}
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

func (c *Client) callDirect(ctx context.Context, backend Backend, req Request) (Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	resp, err := backend.Complete(attemptCtx, req)
	if err != nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return Response{}, &TimeoutError{Model: req.Model, Timeout: c.opts.Timeout}
	}
	return resp, err
}

func (c *Client) record(a Attempt, responseLen int) {
	entry := tara.AttemptLog{
		Attempt:     a.Number,
		Model:       a.Model,
		Providers:   a.Providers,
		StartedAt:   a.StartedAt,
		EndedAt:     a.EndedAt,
		LatencyMs:   a.Latency().Milliseconds(),
		Outcome:     string(a.Outcome),
		ResponseLen: responseLen,
	}

	switch a.Outcome {
	case OutcomeSuccess:
		slog.Info("COMPLETION: Attempt succeeded", "attempt", a.Number, "model", a.Model, "latency_ms", entry.LatencyMs)
	case OutcomeAuthFailure:
		entry.Error = a.Err.Error()
		slog.Warn("COMPLETION: Attempt failed on credentials", "attempt", a.Number, "model", a.Model, "error", a.Err)
	case OutcomeTimeout:
		entry.Error = a.Err.Error()
		slog.Warn("COMPLETION: Attempt timed out", "attempt", a.Number, "model", a.Model, "timeout", c.opts.Timeout)
	default:
		entry.Error = a.Err.Error()
		slog.Warn("COMPLETION: Attempt failed", "attempt", a.Number, "model", a.Model, "error", a.Err)
	}

	if err := c.opts.Logger.LogAttempt(entry); err != nil {
		slog.Error("COMPLETION: Failed to log attempt", "error", err)
	}
}
