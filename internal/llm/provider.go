// Package llm wraps the hosted language models used for text generation and link suggestion.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoChoices is returned when a model answers with no content.
var ErrNoChoices = errors.New("no completion choices returned")

// Provider is a chat model backend.
type Provider interface {
	Name() string
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string, model string) (string, error)
}

// FunctionCaller is implemented by providers that support tool calling and schema output.
type FunctionCaller interface {
	CompleteWithFunctions(ctx context.Context, request FunctionCallRequest) (*FunctionCallResponse, error)
	CompleteWithStructuredOutput(ctx context.Context, systemPrompt, userPrompt string, result interface{}, model string) error
}

// Provider names accepted by NewProvider.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
)

// NewProvider builds the named provider.
func NewProvider(name, apiKey string) (Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s: API key is required", name)
	}
	switch strings.ToLower(name) {
	case "", ProviderOpenRouter:
		return NewClient(apiKey), nil
	case ProviderOpenAI:
		return NewOpenAIProvider(apiKey), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(apiKey), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

// StripCodeFence removes a surrounding ``` or ```json fence from a model answer.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
