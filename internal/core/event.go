package core

import "fmt"

// EventKind tags an Event.
type EventKind int

const (
	ToolCallAnnounced EventKind = iota
	ToolResultAnnounced
	FinalAnswer
	FatalError
)

func (k EventKind) String() string {
	switch k {
	case ToolCallAnnounced:
		return "tool_call"
	case ToolResultAnnounced:
		return "tool_result"
	case FinalAnswer:
		return "answer"
	case FatalError:
		return "error"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is one step of a conversation turn as seen by the caller.
type Event struct {
	Kind EventKind

	// Tool events.
	ToolName   string
	ToolCallID string
	Arguments  map[string]interface{}

	// Result holds the tool output for ToolResultAnnounced and the answer
	// text for FinalAnswer.
	Result string

	// Err is set for FatalError.
	Err error
}

// Message renders the human-readable payload of the event.
func (e Event) Message() string {
	if e.Kind == FatalError {
		return fmt.Sprintf("Critical API Failure: %v", e.Err)
	}
	return e.Result
}
