package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tara/completion"
)

// mockHTTPClient answers by request host and records what was sent.
type mockHTTPClient struct {
	responses map[string]*http.Response
	errs      map[string]error
	requests  []*http.Request
	bodies    []string
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.requests = append(m.requests, req)
	b, _ := io.ReadAll(req.Body)
	m.bodies = append(m.bodies, string(b))
	if err := m.errs[req.URL.Host]; err != nil {
		return nil, err
	}
	if resp, ok := m.responses[req.URL.Host]; ok {
		return resp, nil
	}
	return createMockResponse(http.StatusNotFound, "not found"), nil
}

func createMockResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Status:     http.StatusText(statusCode),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

const okBody = `{"choices":[{"message":{"role":"assistant","content":"olá"}}]}`

func testCatalog() Catalog {
	return Catalog{Providers: []Provider{
		{Name: "first", BaseURL: "https://first.example/v1", APIKey: "k1"},
		{Name: "second", BaseURL: "https://second.example/v1/"},
	}}
}

func request(providers ...string) completion.Request {
	return completion.Request{
		Model:     "gpt-5-mini",
		Providers: providers,
		Messages:  []completion.Message{completion.SystemMessage("sys"), completion.UserMessage("oi")},
	}
}

func TestBackend_FirstProviderAnswers(t *testing.T) {
	hc := &mockHTTPClient{responses: map[string]*http.Response{
		"first.example": createMockResponse(http.StatusOK, okBody),
	}}
	b := NewBackend(hc, testCatalog(), Options{})

	resp, err := b.Complete(context.Background(), request("first", "second"))
	require.NoError(t, err)
	assert.Equal(t, "olá", resp.Text())
	require.Len(t, hc.requests, 1)

	req := hc.requests[0]
	assert.Equal(t, "https://first.example/v1/chat/completions", req.URL.String())
	assert.Equal(t, "Bearer k1", req.Header.Get("Authorization"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

	var sent wireRequest
	require.NoError(t, json.Unmarshal([]byte(hc.bodies[0]), &sent))
	assert.Equal(t, "gpt-5-mini", sent.Model)
	assert.Len(t, sent.Messages, 2)
	assert.Equal(t, defaultMaxTokens, sent.MaxTokens)
	assert.False(t, sent.Stream)
}

func TestBackend_FallsThroughProviders(t *testing.T) {
	hc := &mockHTTPClient{responses: map[string]*http.Response{
		"first.example":  createMockResponse(http.StatusInternalServerError, "boom"),
		"second.example": createMockResponse(http.StatusOK, okBody),
	}}
	b := NewBackend(hc, testCatalog(), Options{})

	resp, err := b.Complete(context.Background(), request("first", "second"))
	require.NoError(t, err)
	assert.Equal(t, "olá", resp.Text())
	require.Len(t, hc.requests, 2)
	assert.Equal(t, "https://second.example/v1/chat/completions", hc.requests[1].URL.String())
	assert.Empty(t, hc.requests[1].Header.Get("Authorization"))
}

func TestBackend_AllAuthFailures(t *testing.T) {
	hc := &mockHTTPClient{responses: map[string]*http.Response{
		"first.example":  createMockResponse(http.StatusUnauthorized, "bad key"),
		"second.example": createMockResponse(http.StatusForbidden, "nope"),
	}}
	b := NewBackend(hc, testCatalog(), Options{})

	_, err := b.Complete(context.Background(), request("first", "second"))
	var authErr *completion.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "second", authErr.Provider)
	assert.Equal(t, completion.OutcomeAuthFailure, completion.Classify(err))
}

func TestBackend_MixedFailuresAreNotAuth(t *testing.T) {
	hc := &mockHTTPClient{
		responses: map[string]*http.Response{
			"first.example": createMockResponse(http.StatusUnauthorized, "bad key"),
		},
		errs: map[string]error{"second.example": errors.New("connection refused")},
	}
	b := NewBackend(hc, testCatalog(), Options{})

	_, err := b.Complete(context.Background(), request("first", "second"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, completion.OutcomeOtherFailure, completion.Classify(err))
}

func TestBackend_BadPayloads(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "no choices", body: `{"choices":[]}`, want: "no choices"},
		{name: "not json", body: `<html>`, want: "decode response"},
		{name: "error object", body: `{"error":{"message":"model not found"}}`, want: "model not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := &mockHTTPClient{responses: map[string]*http.Response{
				"first.example": createMockResponse(http.StatusOK, tt.body),
			}}
			b := NewBackend(hc, testCatalog(), Options{})

			_, err := b.Complete(context.Background(), request("first"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

type brokenBody struct{}

func (brokenBody) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }
func (brokenBody) Close() error             { return nil }

func TestBackend_TruncatedBody(t *testing.T) {
	resp := createMockResponse(http.StatusOK, "")
	resp.Body = brokenBody{}
	hc := &mockHTTPClient{responses: map[string]*http.Response{"first.example": resp}}
	b := NewBackend(hc, testCatalog(), Options{})

	_, err := b.Complete(context.Background(), request("first"))
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), "first: read response")
	assert.NotContains(t, err.Error(), "decode response")
}

func TestBackend_UnknownProviders(t *testing.T) {
	hc := &mockHTTPClient{}
	b := NewBackend(hc, testCatalog(), Options{})

	_, err := b.Complete(context.Background(), request("Chatai", "Qwen"))
	require.Error(t, err)
	assert.Empty(t, hc.requests)
}

func TestBackend_CancelledContext(t *testing.T) {
	hc := &mockHTTPClient{}
	b := NewBackend(hc, testCatalog(), Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Complete(ctx, request("first"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, hc.requests)
}

func TestParseCatalog(t *testing.T) {
	t.Setenv("TARA_TEST_KEY", "secret")

	c, err := ParseCatalog([]byte(`
providers:
  - name: OpenAI
    base_url: https://api.openai.com/v1
    api_key_env: TARA_TEST_KEY
  - name: Local
    base_url: http://localhost:11434/v1
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"OpenAI", "Local"}, c.Names())

	p, ok := c.Lookup("OpenAI")
	require.True(t, ok)
	assert.Equal(t, "secret", p.APIKey)

	_, ok = c.Lookup("missing")
	assert.False(t, ok)

	_, err = ParseCatalog([]byte("providers:\n  - name: x\n"))
	assert.Error(t, err)

	_, err = ParseCatalog([]byte("providers:\n  - {name: a, base_url: u}\n  - {name: a, base_url: v}\n"))
	assert.Error(t, err)
}
