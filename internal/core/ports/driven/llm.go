// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// LLMService provides language model completions for the query pipeline.
// This is an optional service - when nil, contextualisation falls back to the
// raw query and generation returns an error response.
//
// Implementations may include:
//   - OpenAI (GPT-4o, Azure OpenAI deployments)
//   - Anthropic (Claude)
//   - Ollama (local models)
//   - Google Gemini
type LLMService interface {
	// Complete sends a system prompt, optional prior turns and a user message,
	// and returns the model's reply.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CompletionRequest is a single chat completion call.
type CompletionRequest struct {
	// SystemPrompt is sent first with the "system" role.
	SystemPrompt string

	// History holds prior turns, oldest first.
	History []ChatMessage

	// UserMessage is sent last with the "user" role.
	UserMessage string

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	// Zero is sent as zero.
	Temperature float64
}

// Messages flattens the request into an ordered message list:
// system, history, user.
func (r CompletionRequest) Messages() []ChatMessage {
	messages := make([]ChatMessage, 0, len(r.History)+2)
	if r.SystemPrompt != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: r.SystemPrompt})
	}
	messages = append(messages, r.History...)
	messages = append(messages, ChatMessage{Role: "user", Content: r.UserMessage})
	return messages
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}
