package completion

import "context"

// Message is a single role-tagged chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func SystemMessage(content string) Message { return Message{Role: "system", Content: content} }
func UserMessage(content string) Message   { return Message{Role: "user", Content: content} }

// Request is what a Backend receives for one model attempt.
type Request struct {
	Model     string
	Providers []string
	Messages  []Message
}

// Response has a fixed shape regardless of the backend that produced it.
// Backends build it through NewTextResponse or by filling Choices directly.
type Response struct {
	Choices []Choice `json:"choices"`
}

type Choice struct {
	Message ChoiceMessage `json:"message"`
}

type ChoiceMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewTextResponse wraps text as a single assistant choice.
func NewTextResponse(text string) Response {
	return Response{Choices: []Choice{{Message: ChoiceMessage{Role: "assistant", Content: text}}}}
}

// Text returns the content of the first choice, or "" when there is none.
func (r Response) Text() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// Backend is the black-box text generation service. Implementations may
// ignore ctx cancellation; the Client enforces its own deadline.
type Backend interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, req Request) (Response, error)

func (f BackendFunc) Complete(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// BackendFactory builds the backend used for one Complete call.
type BackendFactory func() Backend
