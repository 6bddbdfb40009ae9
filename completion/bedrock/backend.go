// Package bedrock runs completions through the Bedrock Converse API. Bedrock
// is a single provider, so the request's provider list is ignored.
package bedrock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"

	"tara/completion"
)

const (
	providerName = "bedrock"

	defaultMaxTokens   = 2048
	defaultTemperature = 0.2
	defaultTopP        = 0.9
)

type bedrockRuntimeClient interface {
	Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type Options struct {
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

type Backend struct {
	brc  bedrockRuntimeClient
	opts Options
}

func NewBackend(brc bedrockRuntimeClient, opts Options) *Backend {
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.TopP == 0 {
		opts.TopP = defaultTopP
	}
	return &Backend{brc: brc, opts: opts}
}

func (b *Backend) Complete(ctx context.Context, req completion.Request) (completion.Response, error) {
	var sys []types.SystemContentBlock
	var msgs []types.Message
	for _, m := range req.Messages {
		if m.Role == "system" {
			sys = append(sys, &types.SystemContentBlockMemberText{Value: m.Content})
			continue
		}
		msgs = append(msgs, types.Message{
			Role:    types.ConversationRole(m.Role),
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: m.Content}},
		})
	}

	out, err := b.brc.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId:  aws.String(req.Model),
		System:   sys,
		Messages: msgs,
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(b.opts.MaxTokens),
			Temperature: aws.Float32(b.opts.Temperature),
			TopP:        aws.Float32(b.opts.TopP),
		},
	})
	if err != nil {
		slog.Error("BEDROCK: Converse failed", "model", req.Model, "error", err)
		if isAuthError(err) {
			return completion.Response{}, &completion.AuthError{Provider: providerName, Err: err}
		}
		return completion.Response{}, err
	}

	attrs := []any{"model", req.Model, "stop_reason", out.StopReason}
	if out.Usage != nil {
		attrs = append(attrs,
			"input_tokens", aws.ToInt32(out.Usage.InputTokens),
			"output_tokens", aws.ToInt32(out.Usage.OutputTokens))
	}
	slog.Info("BEDROCK: Converse succeeded", attrs...)

	switch out.StopReason {
	case types.StopReasonMaxTokens:
		return completion.Response{}, fmt.Errorf("model %s hit MaxTokens limit", req.Model)
	case types.StopReasonGuardrailIntervened, types.StopReasonContentFiltered:
		return completion.Response{}, fmt.Errorf("model %s response blocked by safety filters", req.Model)
	}

	text := textFromOutput(out)
	if text == "" {
		return completion.Response{}, fmt.Errorf("model %s returned no text", req.Model)
	}
	return completion.NewTextResponse(text), nil
}

func isAuthError(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "AccessDeniedException", "UnrecognizedClientException", "ExpiredTokenException", "InvalidSignatureException":
		return true
	}
	return false
}

// textFromOutput joins the assistant's text blocks with newlines.
func textFromOutput(out *bedrockruntime.ConverseOutput) string {
	if out == nil || out.Output == nil {
		return ""
	}
	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || msg == nil {
		return ""
	}

	var texts []string
	for _, cb := range msg.Value.Content {
		if t, ok := cb.(*types.ContentBlockMemberText); ok && t != nil && t.Value != "" {
			texts = append(texts, t.Value)
		}
	}
	return strings.Join(texts, "\n")
}
