package mock

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tara/completion"
	"tara/prompt"
)

func TestComplete_ExtractFoods(t *testing.T) {
	req := completion.Request{
		Model:    "gpt-5.2",
		Messages: []completion.Message{completion.UserMessage(prompt.ExtractFoodsPrompt("Arroz e feijão, frango grelhado; farofa\nsuco de laranja"))},
	}

	resp, err := NewBackend().Complete(context.Background(), req)
	require.NoError(t, err)

	var items []string
	require.NoError(t, json.Unmarshal([]byte(resp.Text()), &items))
	assert.Equal(t, []string{"arroz", "feijão", "frango grelhado", "farofa", "suco de laranja"}, items)
}

func TestComplete_Recommendation(t *testing.T) {
	req := completion.Request{
		Model: "gpt-5.2",
		Messages: []completion.Message{
			completion.SystemMessage(prompt.SystemPrompt),
			completion.UserMessage("PERFIL DO USUÁRIO: ..."),
		},
	}

	resp, err := NewBackend().Complete(context.Background(), req)
	require.NoError(t, err)

	text := resp.Text()
	assert.True(t, strings.HasPrefix(text, "```json\n"))

	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.Trim(strings.TrimPrefix(text, "```json"), "`\n")), &v))
	assert.Contains(t, v, "escolhas")
	assert.Contains(t, v, "total")
	assert.Contains(t, v, "dica")
}
