// Package llm wraps the chat-completion APIs used to generate answers.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyCompletion is returned when a backend answers without any text
// choice to read.
var ErrEmptyCompletion = errors.New("model returned no completion")

// Provider is a chat-completion backend.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Name() string
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Prompt is the two-message shape every answer path sends: fixed
// instructions followed by the stuffed user turn.
func Prompt(system, user string) []Message {
	return []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: user},
	}
}

// CompletionRequest is one non-streaming generation. An empty Model means
// the provider's bound model; zero MaxTokens means the provider default.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// CompletionResponse carries the generated text and whatever usage the
// backend reported. Token counts are zero when the backend omits them.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}
