package completion

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"tara"
)

// InstrumentedClient wraps a Client with a span per request, an event per
// attempt and request/attempt metrics.
type InstrumentedClient struct {
	client *Client
	tracer trace.Tracer

	requests        metric.Int64Counter
	attempts        metric.Int64Counter
	attemptsFailed  metric.Int64Counter
	requestDuration metric.Float64Histogram
	attemptDuration metric.Float64Histogram
}

// NewInstrumentedClient registers the completion instruments on meter.
func NewInstrumentedClient(client *Client, tp trace.TracerProvider, mp metric.MeterProvider) (*InstrumentedClient, error) {
	meter := mp.Meter(tara.InstrumentationCompletion)

	requests, err := meter.Int64Counter("completion_requests_total",
		metric.WithDescription("Total number of completion requests"))
	if err != nil {
		return nil, err
	}
	attempts, err := meter.Int64Counter("completion_attempts_total",
		metric.WithDescription("Total number of model attempts"))
	if err != nil {
		return nil, err
	}
	attemptsFailed, err := meter.Int64Counter("completion_attempts_failed_total",
		metric.WithDescription("Total number of model attempts that failed, by outcome"))
	if err != nil {
		return nil, err
	}
	requestDuration, err := meter.Float64Histogram("completion_duration_seconds",
		metric.WithDescription("Duration of a completion request across all attempts in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	attemptDuration, err := meter.Float64Histogram("completion_attempt_duration_seconds",
		metric.WithDescription("Duration of a single model attempt in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &InstrumentedClient{
		client:          client,
		tracer:          tp.Tracer(tara.InstrumentationCompletion),
		requests:        requests,
		attempts:        attempts,
		attemptsFailed:  attemptsFailed,
		requestDuration: requestDuration,
		attemptDuration: attemptDuration,
	}, nil
}

func (c *InstrumentedClient) Complete(ctx context.Context, messages []Message) (Response, error) {
	ctx, span := c.tracer.Start(ctx, "completion.Complete", trace.WithAttributes(
		attribute.Int("completion.messages", len(messages)),
		attribute.StringSlice("completion.models", c.client.Models()),
	))
	defer span.End()

	c.requests.Add(ctx, 1)
	start := time.Now()
	resp, attempts, err := c.client.CompleteWithAttempts(ctx, messages)
	c.requestDuration.Record(ctx, time.Since(start).Seconds())

	for _, a := range attempts {
		attrs := []attribute.KeyValue{
			attribute.String("model", a.Model),
			attribute.String("outcome", string(a.Outcome)),
		}
		c.attempts.Add(ctx, 1, metric.WithAttributes(attrs...))
		c.attemptDuration.Record(ctx, a.Latency().Seconds(), metric.WithAttributes(attrs...))
		if a.Outcome != OutcomeSuccess {
			c.attemptsFailed.Add(ctx, 1, metric.WithAttributes(attrs...))
		}

		eventAttrs := append(attrs,
			attribute.Int("attempt", a.Number),
			attribute.Int64("latency_ms", a.Latency().Milliseconds()),
		)
		if a.Err != nil {
			eventAttrs = append(eventAttrs, attribute.String("error", a.Err.Error()))
		}
		span.AddEvent("completion attempt", trace.WithAttributes(eventAttrs...))
	}

	span.SetAttributes(attribute.Int("completion.attempts", len(attempts)))
	if err != nil {
		span.SetStatus(codes.Error, "completion failed")
		span.RecordError(err)
		return Response{}, err
	}
	span.SetStatus(codes.Ok, "")
	return resp, nil
}
