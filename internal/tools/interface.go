package tools

import (
	"context"
	"fmt"
)

// Tool is a single operation the model can call during link suggestion.
type Tool interface {
	// Name returns the identifier the model calls the tool by
	Name() string

	Description() string

	Parameters() []Parameter

	Execute(ctx context.Context, args map[string]any) (ToolResult, error)

	// ValidateArgs checks required and unknown arguments
	ValidateArgs(args map[string]any) error
}

// Parameter describes a single parameter for a tool
type Parameter struct {
	Name        string // Parameter name
	Type        string // string, int, bool, array or object
	Items       string // Element type when Type is array
	Required    bool
	Description string
	Default     any
}

// ToolResult is the outcome of executing a tool
type ToolResult struct {
	Success bool           // Whether the operation succeeded
	Data    any            // Result payload, marshalled back to the model
	Error   string         // Error message if failed
	Meta    map[string]any // Additional metadata
}

// ToolError represents an error that occurred during tool execution
type ToolError struct {
	Tool    string // Name of the tool that failed
	Message string
	Cause   error
}

func (e *ToolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s tool error: %s (caused by: %v)", e.Tool, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s tool error: %s", e.Tool, e.Message)
}

func (e *ToolError) Unwrap() error {
	return e.Cause
}

// NewToolError creates a new tool error
func NewToolError(tool, message string, cause error) error {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Cause:   cause,
	}
}

// BaseTool carries the metadata shared by every tool
type BaseTool struct {
	name        string
	description string
	parameters  []Parameter
}

func NewBaseTool(name, description string, parameters []Parameter) *BaseTool {
	return &BaseTool{
		name:        name,
		description: description,
		parameters:  parameters,
	}
}

func (t *BaseTool) Name() string {
	return t.name
}

func (t *BaseTool) Description() string {
	return t.description
}

func (t *BaseTool) Parameters() []Parameter {
	return t.parameters
}

// ValidateArgs rejects missing required parameters and unknown ones.
func (t *BaseTool) ValidateArgs(args map[string]any) error {
	valid := make(map[string]bool, len(t.parameters))
	for _, param := range t.parameters {
		valid[param.Name] = true
		if param.Required {
			if _, ok := args[param.Name]; !ok {
				return fmt.Errorf("required parameter '%s' not provided", param.Name)
			}
		}
	}

	for key := range args {
		if !valid[key] {
			return fmt.Errorf("unknown parameter '%s'", key)
		}
	}
	return nil
}

// GetStringSlice extracts a string slice parameter from args
func GetStringSlice(args map[string]any, key string, defaultValue []string) []string {
	val, ok := args[key]
	if !ok {
		return defaultValue
	}
	switch v := val.(type) {
	case []string:
		return v
	case []any:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				result = append(result, str)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
