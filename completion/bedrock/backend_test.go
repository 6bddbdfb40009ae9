package bedrock

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tara/completion"
)

// mockBedrockClient implements bedrockRuntimeClient for testing
type mockBedrockClient struct {
	response *bedrockruntime.ConverseOutput
	err      error
	input    *bedrockruntime.ConverseInput
}

func (m *mockBedrockClient) Converse(ctx context.Context, input *bedrockruntime.ConverseInput, opts ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	m.input = input
	return m.response, m.err
}

func textOutput(reason types.StopReason, blocks ...string) *bedrockruntime.ConverseOutput {
	var content []types.ContentBlock
	for _, b := range blocks {
		content = append(content, &types.ContentBlockMemberText{Value: b})
	}
	return &bedrockruntime.ConverseOutput{
		StopReason: reason,
		Output: &types.ConverseOutputMemberMessage{
			Value: types.Message{Role: types.ConversationRoleAssistant, Content: content},
		},
		Usage: &types.TokenUsage{InputTokens: aws.Int32(10), OutputTokens: aws.Int32(5)},
	}
}

func request() completion.Request {
	return completion.Request{
		Model:    "us.anthropic.claude-3-7-sonnet-20250219-v1:0",
		Messages: []completion.Message{completion.SystemMessage("sys"), completion.UserMessage("oi")},
	}
}

func TestNewBackend_Defaults(t *testing.T) {
	b := NewBackend(&mockBedrockClient{}, Options{})
	assert.Equal(t, Options{MaxTokens: defaultMaxTokens, Temperature: defaultTemperature, TopP: defaultTopP}, b.opts)

	b = NewBackend(&mockBedrockClient{}, Options{MaxTokens: 512, Temperature: 0.5, TopP: 0.8})
	assert.Equal(t, Options{MaxTokens: 512, Temperature: 0.5, TopP: 0.8}, b.opts)
}

func TestComplete(t *testing.T) {
	brc := &mockBedrockClient{response: textOutput(types.StopReasonEndTurn, "first", "second")}
	b := NewBackend(brc, Options{})

	resp, err := b.Complete(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond", resp.Text())

	require.NotNil(t, brc.input)
	assert.Equal(t, "us.anthropic.claude-3-7-sonnet-20250219-v1:0", aws.ToString(brc.input.ModelId))
	require.Len(t, brc.input.System, 1)
	require.Len(t, brc.input.Messages, 1)
	assert.Equal(t, types.ConversationRoleUser, brc.input.Messages[0].Role)
}

func TestComplete_Errors(t *testing.T) {
	tests := []struct {
		name     string
		client   *mockBedrockClient
		wantAuth bool
	}{
		{
			name:     "access denied",
			client:   &mockBedrockClient{err: &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "denied"}},
			wantAuth: true,
		},
		{
			name:     "throttled",
			client:   &mockBedrockClient{err: &smithy.GenericAPIError{Code: "ThrottlingException"}},
			wantAuth: false,
		},
		{
			name:   "network",
			client: &mockBedrockClient{err: errors.New("dial tcp: timeout")},
		},
		{
			name:   "max tokens",
			client: &mockBedrockClient{response: textOutput(types.StopReasonMaxTokens, "trunc")},
		},
		{
			name:   "filtered",
			client: &mockBedrockClient{response: textOutput(types.StopReasonContentFiltered)},
		},
		{
			name:   "empty output",
			client: &mockBedrockClient{response: textOutput(types.StopReasonEndTurn)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBackend(tt.client, Options{}).Complete(context.Background(), request())
			require.Error(t, err)

			var authErr *completion.AuthError
			assert.Equal(t, tt.wantAuth, errors.As(err, &authErr))
		})
	}
}
