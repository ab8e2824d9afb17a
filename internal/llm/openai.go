package llm

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/sashabaranov/go-openai"

	"github.com/Rorical/RoriAgent/internal/models"
	"github.com/Rorical/RoriAgent/internal/tools"
)

// OpenAIClient calls any OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAIClient creates a client for model. An empty baseURL keeps the
// library default.
func NewOpenAIClient(apiKey, baseURL, model string, logger *slog.Logger) *OpenAIClient {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		logger: logger,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, req Request) (*Response, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toChatMessages(req.Messages),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = toTools(req.Tools)
		chatReq.ToolChoice = "auto"
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, &InferenceError{Op: "chat completion", Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &InferenceError{Op: "chat completion", Err: errors.New("response contained no choices")}
	}

	c.logger.Debug("chat completion",
		"model", resp.Model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"finish_reason", resp.Choices[0].FinishReason,
	)

	message := resp.Choices[0].Message
	out := &Response{Content: message.Content}
	for _, call := range message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, models.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}
	return out, nil
}

func toChatMessages(messages []models.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		chatMsg := openai.ChatCompletionMessage{
			Role:    msg.Role(),
			Content: msg.Content,
		}
		switch msg.Type {
		case models.ToolCallBatch:
			for _, call := range msg.ToolCalls {
				chatMsg.ToolCalls = append(chatMsg.ToolCalls, openai.ToolCall{
					ID:   call.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      call.Name,
						Arguments: call.Arguments,
					},
				})
			}
		case models.ToolResult:
			chatMsg.ToolCallID = msg.ToolCallID
		}
		out = append(out, chatMsg)
	}
	return out
}

func toTools(schemas []tools.Schema) []openai.Tool {
	out := make([]openai.Tool, len(schemas))
	for i, schema := range schemas {
		out[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        schema.Name,
				Description: schema.Description,
				Parameters:  schema.Definition(),
			},
		}
	}
	return out
}
