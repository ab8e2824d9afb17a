package core

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/Rorical/RoriAgent/internal/llm"
	"github.com/Rorical/RoriAgent/internal/models"
	"github.com/Rorical/RoriAgent/internal/tools"
	"github.com/Rorical/RoriAgent/internal/window"
)

// Settings tune the inference loop.
type Settings struct {
	ContextLimit    int
	MaxOutputTokens int
	MaxRetries      int
	RetryDelay      time.Duration
	Temperature     float32
}

// DefaultSettings match a 128K-context model.
func DefaultSettings() Settings {
	return Settings{
		ContextLimit:    131072,
		MaxOutputTokens: 8192,
		MaxRetries:      3,
		RetryDelay:      2 * time.Second,
		Temperature:     0.1,
	}
}

type phase int

const (
	awaitingModel phase = iota
	toolPhase
	answerPhase
	terminal
)

// Orchestrator runs one conversation: it alternates between the inference
// service and tool dispatch until the model produces an answer.
type Orchestrator struct {
	client   llm.Client
	registry *tools.Registry
	window   *window.Manager
	settings Settings
	logger   *slog.Logger

	sessionID string

	// held for the duration of a turn
	turn sync.Mutex
}

// NewOrchestrator starts a conversation seeded with systemPrompt.
func NewOrchestrator(client llm.Client, registry *tools.Registry, systemPrompt string, settings Settings, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	sessionID := uuid.NewString()
	return &Orchestrator{
		client:    client,
		registry:  registry,
		window:    window.NewManager(models.NewSystemMessage(systemPrompt), window.SafeLimit(settings.ContextLimit, settings.MaxOutputTokens)),
		settings:  settings,
		logger:    logger.With("session", sessionID),
		sessionID: sessionID,
	}
}

func (o *Orchestrator) SessionID() string {
	return o.sessionID
}

// Transcript returns a copy of every message in the conversation.
func (o *Orchestrator) Transcript() []models.Message {
	return o.window.Messages()
}

// Reset clears the conversation back to the system prompt. It waits for a
// running turn to finish.
func (o *Orchestrator) Reset() {
	o.turn.Lock()
	defer o.turn.Unlock()
	o.window.Reset()
	o.logger.Info("conversation reset")
}

// Chat records input and returns the events of the resulting turn. The turn
// runs as the sequence is consumed; breaking out of the range stops it at
// the next event boundary. There is no cap on tool rounds.
func (o *Orchestrator) Chat(ctx context.Context, input string) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		o.turn.Lock()
		defer o.turn.Unlock()

		o.window.Append(models.NewUserMessage(input))
		o.logger.Info("turn started", "input_chars", len(input))

		schemas := o.registry.Discover()
		state := awaitingModel
		var resp *llm.Response

		for state != terminal {
			switch state {
			case awaitingModel:
				r, err := o.complete(ctx, schemas)
				if err != nil {
					o.logger.Error("inference failed", "error", err)
					yield(Event{Kind: FatalError, Err: err})
					state = terminal
					continue
				}
				resp = r
				if len(resp.ToolCalls) > 0 {
					state = toolPhase
				} else {
					state = answerPhase
				}

			case toolPhase:
				if !o.runTools(ctx, resp, yield) {
					o.logger.Info("turn abandoned by caller")
					return
				}
				state = awaitingModel

			case answerPhase:
				o.window.Append(models.NewAssistantMessage(resp.Content))
				o.logger.Info("turn finished", "answer_chars", len(resp.Content))
				yield(Event{Kind: FinalAnswer, Result: resp.Content})
				state = terminal
			}
		}
	}
}

// runTools executes one batch in order. It reports false when the caller
// stopped consuming events.
func (o *Orchestrator) runTools(ctx context.Context, resp *llm.Response, yield func(Event) bool) bool {
	calls := make([]models.ToolCall, len(resp.ToolCalls))
	for i, call := range resp.ToolCalls {
		if call.ID == "" {
			call.ID = "call_" + uuid.NewString()
		}
		calls[i] = call
	}
	o.window.Append(models.NewToolCallBatch(resp.Content, calls))

	for i, call := range calls {
		args := parseArguments(call.Arguments)
		if !yield(Event{Kind: ToolCallAnnounced, ToolName: call.Name, ToolCallID: call.ID, Arguments: args}) {
			o.closeBatch(calls[i:])
			return false
		}

		result := o.registry.Dispatch(ctx, call.Name, args)
		o.window.Append(models.NewToolResult(call.ID, result))

		if !yield(Event{Kind: ToolResultAnnounced, ToolName: call.Name, ToolCallID: call.ID, Result: result}) {
			o.closeBatch(calls[i+1:])
			return false
		}
	}
	return true
}

// closeBatch answers calls that will never run so every call in the
// transcript keeps a matching result.
func (o *Orchestrator) closeBatch(pending []models.ToolCall) {
	for _, call := range pending {
		o.window.Append(models.NewToolResult(call.ID, "Error: tool call cancelled before execution."))
	}
}

func (o *Orchestrator) complete(ctx context.Context, schemas []tools.Schema) (*llm.Response, error) {
	req := llm.Request{
		Messages:    o.view(),
		Tools:       schemas,
		MaxTokens:   o.settings.MaxOutputTokens,
		Temperature: o.settings.Temperature,
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = o.settings.RetryDelay
	policy.RandomizationFactor = 0
	policy.Multiplier = 2
	policy.MaxInterval = 30 * o.settings.RetryDelay
	policy.MaxElapsedTime = 0

	var resp *llm.Response
	attempt := 0
	operation := func() error {
		attempt++
		r, err := o.client.Complete(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		resp = r
		return nil
	}
	notify := func(err error, wait time.Duration) {
		o.logger.Warn("inference attempt failed", "attempt", attempt, "retry_in", wait, "error", err)
	}

	retries := max(o.settings.MaxRetries, 0)
	err := backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(retries)), ctx), notify)
	if err != nil {
		if !errors.Is(err, llm.ErrInference) {
			err = &llm.InferenceError{Op: "chat completion", Err: err}
		}
		return nil, err
	}
	return resp, nil
}

// view is the bounded transcript sent to the model. Tool results whose call
// batch fell out of the window are dropped from the front.
func (o *Orchestrator) view() []models.Message {
	msgs := o.window.Snapshot(o.window.Limit())
	i := 1
	for i < len(msgs) && msgs[i].Type == models.ToolResult {
		i++
	}
	if i == 1 {
		return msgs
	}
	o.logger.Debug("dropped orphaned tool results from window", "count", i-1)
	return append(msgs[:1], msgs[i:]...)
}

// parseArguments decodes the raw argument payload. Anything that is not a
// JSON object becomes an empty map so the tool reports what is missing.
func parseArguments(raw string) map[string]interface{} {
	args := map[string]interface{}{}
	if raw == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		return map[string]interface{}{}
	}
	return args
}
