// Package llm talks to the chat-completion service that drives the agent.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rorical/RoriAgent/internal/models"
	"github.com/Rorical/RoriAgent/internal/tools"
)

// ErrInference is matched by every error a Client returns.
var ErrInference = errors.New("inference service failure")

// InferenceError wraps a transport, API or rate-limit failure.
type InferenceError struct {
	Op  string
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InferenceError) Is(target error) bool {
	return target == ErrInference
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

// Request is one completion call.
type Request struct {
	Messages    []models.Message
	Tools       []tools.Schema
	MaxTokens   int
	Temperature float32
}

// Response is either a final answer (no ToolCalls) or a batch of tool calls,
// possibly with accompanying text.
type Response struct {
	Content   string
	ToolCalls []models.ToolCall
}

// Client is the inference service.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}
