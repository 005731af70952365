package ai

import (
	"context"
	"errors"
	"strings"
)

// Runtime is the minimal surface every LLM backend implements. A call is a
// single attempt; callers decide what to do on failure.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers used for runtime selection.
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrMissingAPIKey is returned by hosted runtimes built without a key.
var ErrMissingAPIKey = errors.New("API key is missing: set api_key in config or GEMINI_API_KEY")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateRequest is provider-neutral. System carries the instruction that
// frames the conversation; runtimes map it to their own field.
type GenerateRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"-"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	TopP        float64   `json:"top_p,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Choice struct {
	Message Message `json:"message"`
}

type GenerateResponse struct {
	ID        string   `json:"id"`
	Choices   []Choice `json:"choices"`
	Usage     Usage    `json:"usage"`
	RequestID string   `json:"-"`
}

// Text returns the first choice's content, trimmed. Empty when there is none.
func (r *GenerateResponse) Text() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return strings.TrimSpace(r.Choices[0].Message.Content)
}

// withSystem prepends the system instruction as a chat message for runtimes
// that have no dedicated field for it.
func withSystem(req GenerateRequest) []Message {
	if req.System == "" {
		return req.Messages
	}
	out := make([]Message, 0, len(req.Messages)+1)
	out = append(out, Message{Role: RoleSystem, Content: req.System})
	return append(out, req.Messages...)
}
