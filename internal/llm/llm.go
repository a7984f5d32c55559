package llm

import (
	"context"
	"errors"
)

// Client abstracts chat completion providers.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}

// Message roles.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is a single chat turn.
type Message struct {
	Role    string
	Content string
}

// CompletionRequest captures one chat completion call.
type CompletionRequest struct {
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// Usage reports token accounting when the provider returns it.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Completion is the first choice returned by the provider.
type Completion struct {
	Content string
	Model   string
	Usage   *Usage
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("llm not configured")

// PlaceholderClient stands in when no API key is configured.
type PlaceholderClient struct{}

// Complete returns ErrNotConfigured.
func (PlaceholderClient) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	_ = ctx
	_ = req
	return Completion{}, ErrNotConfigured
}
