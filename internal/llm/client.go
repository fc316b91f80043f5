package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/revrost/go-openrouter"
	"github.com/revrost/go-openrouter/jsonschema"
)

// DefaultModel is used when a request does not name a model.
const DefaultModel = "openai/gpt-4o"

// Client talks to OpenRouter. It implements Provider and FunctionCaller.
type Client struct {
	openRouterClient *openrouter.Client
}

func NewClient(apiKey string) *Client {
	client := openrouter.NewClient(apiKey)
	return &Client{
		openRouterClient: client,
	}
}

// Name identifies the provider in logs.
func (c *Client) Name() string {
	return "openrouter"
}

func messages(systemPrompt, userPrompt string) []openrouter.ChatCompletionMessage {
	var msgs []openrouter.ChatCompletionMessage
	if systemPrompt != "" {
		msgs = append(msgs, openrouter.ChatCompletionMessage{
			Role:    openrouter.ChatMessageRoleSystem,
			Content: openrouter.Content{Text: systemPrompt},
		})
	}
	return append(msgs, openrouter.ChatCompletionMessage{
		Role:    openrouter.ChatMessageRoleUser,
		Content: openrouter.Content{Text: userPrompt},
	})
}

// send runs a chat completion and returns the first choice's message.
func (c *Client) send(ctx context.Context, request openrouter.ChatCompletionRequest) (openrouter.ChatCompletionMessage, error) {
	if request.Model == "" {
		request.Model = DefaultModel
	}

	response, err := c.openRouterClient.CreateChatCompletion(ctx, request)
	if err != nil {
		return openrouter.ChatCompletionMessage{}, err
	}
	if len(response.Choices) == 0 {
		return openrouter.ChatCompletionMessage{}, ErrNoChoices
	}
	return response.Choices[0].Message, nil
}

func (c *Client) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string, model string) (string, error) {
	msg, err := c.send(ctx, openrouter.ChatCompletionRequest{
		Model:    model,
		Messages: messages(systemPrompt, userPrompt),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create completion: %w", err)
	}
	return msg.Content.Text, nil
}

// CompleteWithStructuredOutput completes with a JSON schema generated from result,
// which must be a pointer to the struct to populate.
func (c *Client) CompleteWithStructuredOutput(ctx context.Context, systemPrompt, userPrompt string, result interface{}, model string) error {
	schema, err := jsonschema.GenerateSchemaForType(result)
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	msg, err := c.send(ctx, openrouter.ChatCompletionRequest{
		Model:    model,
		Messages: messages(systemPrompt, userPrompt),
		ResponseFormat: &openrouter.ChatCompletionResponseFormat{
			Type: openrouter.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openrouter.ChatCompletionResponseFormatJSONSchema{
				Name:   "result",
				Schema: schema,
				Strict: false, // Some models don't support strict mode
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create structured completion: %w", err)
	}

	// Some models wrap JSON in a code fence even in schema mode
	if err := json.Unmarshal([]byte(StripCodeFence(msg.Content.Text)), result); err != nil {
		return fmt.Errorf("failed to unmarshal structured response: %w", err)
	}
	return nil
}

// CompleteWithFunctions performs a completion with function calling capabilities
func (c *Client) CompleteWithFunctions(ctx context.Context, request FunctionCallRequest) (*FunctionCallResponse, error) {
	orMessages := make([]openrouter.ChatCompletionMessage, len(request.Messages))
	for i, msg := range request.Messages {
		orMsg := openrouter.ChatCompletionMessage{
			Role:       msg.Role,
			Content:    openrouter.Content{Text: msg.Content},
			ToolCallID: msg.ToolCallID,
		}
		for _, tc := range msg.ToolCalls {
			orMsg.ToolCalls = append(orMsg.ToolCalls, openrouter.ToolCall{
				ID:   tc.ID,
				Type: openrouter.ToolType(tc.Type),
				Function: openrouter.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		orMessages[i] = orMsg
	}

	orTools := make([]openrouter.Tool, len(request.Tools))
	for i, tool := range request.Tools {
		orTools[i] = openrouter.Tool{
			Type: openrouter.ToolTypeFunction,
			Function: &openrouter.FunctionDefinition{
				Name:        tool.Function.Name,
				Description: tool.Function.Description,
				Parameters:  tool.Function.Parameters,
			},
		}
	}

	req := openrouter.ChatCompletionRequest{
		Model:    request.Model,
		Messages: orMessages,
	}
	// A final round without tools forces a plain answer.
	if len(orTools) > 0 {
		req.Tools = orTools
		if request.ToolChoice != "" {
			req.ToolChoice = request.ToolChoice
		}
	}

	choice, err := c.send(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create completion with functions: %w", err)
	}

	result := &FunctionCallResponse{
		Content: choice.Content.Text,
	}
	for _, tc := range choice.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, ToolCall{
			ID:   tc.ID,
			Type: string(tc.Type),
			Function: FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return result, nil
}
