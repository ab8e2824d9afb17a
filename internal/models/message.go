package models

type MessageType int

const (
	System MessageType = iota
	User
	Assistant
	ToolCallBatch
	ToolResult
)

func (t MessageType) String() string {
	switch t {
	case System:
		return "system"
	case User:
		return "user"
	case Assistant:
		return "assistant"
	case ToolCallBatch:
		return "tool_calls"
	case ToolResult:
		return "tool_result"
	}
	return "unknown"
}

// ToolCall is a single tool invocation requested by the model.
type ToolCall struct {
	ID        string // Correlation id, unique within one batch
	Name      string
	Arguments string // Serialized arguments exactly as sent by the model
}

// Message is one entry of the conversation transcript.
type Message struct {
	Type    MessageType
	Content string
	// Additional fields for tool calls and results
	ToolCallID string     // For ToolResult messages
	ToolCalls  []ToolCall // For ToolCallBatch messages
}

// Role returns the wire role label for the message.
func (m Message) Role() string {
	switch m.Type {
	case System:
		return "system"
	case User:
		return "user"
	case Assistant, ToolCallBatch:
		return "assistant"
	case ToolResult:
		return "tool"
	}
	return ""
}

func NewSystemMessage(content string) Message {
	return Message{Type: System, Content: content}
}

func NewUserMessage(content string) Message {
	return Message{Type: User, Content: content}
}

func NewAssistantMessage(content string) Message {
	return Message{Type: Assistant, Content: content}
}

func NewToolCallBatch(content string, calls []ToolCall) Message {
	batch := make([]ToolCall, len(calls))
	copy(batch, calls)
	return Message{Type: ToolCallBatch, Content: content, ToolCalls: batch}
}

func NewToolResult(callID, content string) Message {
	return Message{Type: ToolResult, Content: content, ToolCallID: callID}
}
