package llm

// Chat roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// FunctionCallRequest is one round of a tool-calling conversation.
// A request without Tools asks for a final answer.
type FunctionCallRequest struct {
	Model      string
	Messages   []Message
	Tools      []Tool
	ToolChoice string // "auto", "none" or a tool name
}

type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// SystemMessage and UserMessage open a conversation.
func SystemMessage(content string) Message { return Message{Role: RoleSystem, Content: content} }
func UserMessage(content string) Message { return Message{Role: RoleUser, Content: content} }

// ToolResultMessage answers the tool call with the given id.
func ToolResultMessage(callID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID}
}

// Tool is a function definition offered to the model.
type Tool struct {
	Type     string   `json:"type"` // "function"
	Function Function `json:"function"`
}

type Function struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters"` // JSON Schema object
}

// ToolCall is the model asking to run a tool.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // raw JSON
}

// FunctionCallResponse is the assistant turn of one round.
type FunctionCallResponse struct {
	Content   string
	ToolCalls []ToolCall
}

// AssistantMessage replays a response in the next round's history.
func (r *FunctionCallResponse) AssistantMessage() Message {
	return Message{Role: RoleAssistant, Content: r.Content, ToolCalls: r.ToolCalls}
}
