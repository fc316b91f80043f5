package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"scribe/internal/llm"
)

// Registry holds the tools offered to the model
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	logger Logger
}

func NewRegistry() *Registry {
	return &Registry{
		tools:  make(map[string]Tool),
		logger: &NullLogger{},
	}
}

func (r *Registry) SetLogger(logger Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Logger returns the logger tool activity is reported to.
func (r *Registry) Logger() Logger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.logger
}

// Register adds a tool to the registry
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool '%s' already registered", name)
	}

	r.tools[name] = tool
	return nil
}

// Get retrieves a tool by name
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool '%s' not found", name)
	}
	return tool, nil
}

// List returns all registered tools sorted by name
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name() < tools[j].Name() })
	return tools
}

// Execute runs a tool by name with the given arguments
func (r *Registry) Execute(ctx context.Context, toolName string, args map[string]any) (ToolResult, error) {
	logger := r.Logger()
	logger.LogToolCall(toolName, args)
	startTime := time.Now()

	tool, err := r.Get(toolName)
	if err != nil {
		logger.LogToolError(toolName, err)
		return ToolResult{Success: false, Error: err.Error()}, err
	}

	if err := tool.ValidateArgs(args); err != nil {
		logger.LogToolError(toolName, err)
		return ToolResult{Success: false, Error: err.Error()},
			NewToolError(toolName, "invalid arguments", err)
	}

	result, err := tool.Execute(ctx, args)
	logger.LogToolResult(toolName, result, time.Since(startTime))
	if err != nil {
		logger.LogToolError(toolName, err)
	}
	return result, err
}

// ExecuteCall runs a model tool call and renders its outcome as the JSON content
// of the tool message sent back. Failures are reported to the model, not returned.
func (r *Registry) ExecuteCall(ctx context.Context, call llm.ToolCall) string {
	args := map[string]any{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return errorContent(fmt.Sprintf("invalid arguments: %v", err))
		}
	}

	result, err := r.Execute(ctx, call.Function.Name, args)
	if err != nil {
		return errorContent(err.Error())
	}
	if !result.Success {
		return errorContent(result.Error)
	}

	data, err := json.Marshal(result.Data)
	if err != nil {
		return errorContent(fmt.Sprintf("failed to encode result: %v", err))
	}
	return string(data)
}

func errorContent(message string) string {
	data, _ := json.Marshal(map[string]string{"error": message})
	return string(data)
}

// Schemas returns the function definitions of every registered tool
func (r *Registry) Schemas() []llm.Tool {
	tools := r.List()
	schemas := make([]llm.Tool, 0, len(tools))
	for _, tool := range tools {
		schemas = append(schemas, toolToSchema(tool))
	}
	return schemas
}

func toolToSchema(tool Tool) llm.Tool {
	properties := make(map[string]any)
	required := []string{}

	for _, param := range tool.Parameters() {
		paramSchema := map[string]any{
			"type":        convertTypeToJSONSchema(param.Type),
			"description": param.Description,
		}
		if param.Items != "" {
			paramSchema["items"] = map[string]any{"type": convertTypeToJSONSchema(param.Items)}
		}
		if param.Default != nil {
			paramSchema["default"] = param.Default
		}
		properties[param.Name] = paramSchema

		if param.Required {
			required = append(required, param.Name)
		}
	}

	return llm.Tool{
		Type: "function",
		Function: llm.Function{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters: map[string]any{
				"type":       "object",
				"properties": properties,
				"required":   required,
			},
		},
	}
}

func convertTypeToJSONSchema(goType string) string {
	switch goType {
	case "int", "int32", "int64":
		return "integer"
	case "float32", "float64":
		return "number"
	case "bool":
		return "boolean"
	case "array", "[]string":
		return "array"
	case "map", "object":
		return "object"
	default:
		return "string"
	}
}

// GetToolHelp returns formatted help text for a tool
func (r *Registry) GetToolHelp(toolName string) (string, error) {
	tool, err := r.Get(toolName)
	if err != nil {
		return "", err
	}

	var help strings.Builder
	help.WriteString(fmt.Sprintf("Tool: %s\n", tool.Name()))
	help.WriteString(fmt.Sprintf("Description: %s\n", tool.Description()))

	if params := tool.Parameters(); len(params) > 0 {
		help.WriteString("\nParameters:\n")
		for _, param := range params {
			required := ""
			if param.Required {
				required = " (required)"
			}
			help.WriteString(fmt.Sprintf("  - %s: %s%s\n", param.Name, param.Description, required))
			help.WriteString(fmt.Sprintf("    Type: %s\n", param.Type))
			if param.Default != nil {
				help.WriteString(fmt.Sprintf("    Default: %v\n", param.Default))
			}
		}
	}
	return help.String(), nil
}
