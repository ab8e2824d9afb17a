package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Rorical/RoriAgent/internal/llm"
	"github.com/Rorical/RoriAgent/internal/models"
	"github.com/Rorical/RoriAgent/internal/sandbox"
	"github.com/Rorical/RoriAgent/internal/tools"
)

// scriptedClient replays responses in order and records every request.
type scriptedClient struct {
	mu        sync.Mutex
	responses []*llm.Response
	err       error
	requests  []llm.Request
}

func (c *scriptedClient) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	req.Messages = append([]models.Message(nil), req.Messages...)
	c.requests = append(c.requests, req)
	if c.err != nil {
		return nil, c.err
	}
	if len(c.responses) == 0 {
		return nil, errors.New("script exhausted")
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, nil
}

func (c *scriptedClient) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

func toolCall(id, name, args string) *llm.Response {
	return &llm.Response{ToolCalls: []models.ToolCall{{ID: id, Name: name, Arguments: args}}}
}

func answer(text string) *llm.Response {
	return &llm.Response{Content: text}
}

func testSettings() Settings {
	s := DefaultSettings()
	s.RetryDelay = time.Millisecond
	return s
}

func sandboxRegistry(t *testing.T) (*tools.Registry, string) {
	t.Helper()
	parent := t.TempDir()
	root := filepath.Join(parent, "project")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("# demo"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(parent, "outside.txt"), []byte("secret"), 0o644))
	gw, err := sandbox.New(root)
	require.NoError(t, err)
	return tools.NewDefaultRegistry(tools.Deps{Gateway: gw}), root
}

func collect(t *testing.T, o *Orchestrator, input string) []Event {
	t.Helper()
	var events []Event
	for event := range o.Chat(context.Background(), input) {
		events = append(events, event)
	}
	return events
}

func kinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func TestChatListFilesScenario(t *testing.T) {
	registry, _ := sandboxRegistry(t)
	client := &scriptedClient{responses: []*llm.Response{
		toolCall("call_1", "list_files", "{}"),
		answer("The project has README.md and src/."),
	}}
	o := NewOrchestrator(client, registry, "system prompt", testSettings(), nil)

	events := collect(t, o, "list files in the project root")
	require.Equal(t, []EventKind{ToolCallAnnounced, ToolResultAnnounced, FinalAnswer}, kinds(events))

	require.Equal(t, "list_files", events[0].ToolName)
	require.Equal(t, "call_1", events[0].ToolCallID)
	require.Empty(t, events[0].Arguments)
	require.Contains(t, events[1].Result, `README.md\nsrc/`)
	require.Equal(t, "The project has README.md and src/.", events[2].Result)

	transcript := o.Transcript()
	require.Equal(t, []models.MessageType{
		models.System, models.User, models.ToolCallBatch, models.ToolResult, models.Assistant,
	}, messageTypes(transcript))
	require.Equal(t, "call_1", transcript[3].ToolCallID)

	// The second request carries the tool result and every schema.
	require.Len(t, client.requests, 2)
	second := client.requests[1]
	require.Equal(t, models.System, second.Messages[0].Type)
	require.Equal(t, models.ToolResult, second.Messages[len(second.Messages)-1].Type)
	require.Len(t, second.Tools, len(registry.Discover()))
	require.Equal(t, 8192, second.MaxTokens)
	require.InDelta(t, 0.1, second.Temperature, 1e-6)
}

func TestChatSecurityViolationScenario(t *testing.T) {
	registry, _ := sandboxRegistry(t)
	client := &scriptedClient{responses: []*llm.Response{
		toolCall("call_1", "read_file", `{"file_path": "../outside.txt"}`),
		answer("I cannot read files outside the project."),
	}}
	o := NewOrchestrator(client, registry, "system prompt", testSettings(), nil)

	events := collect(t, o, "read ../outside.txt")
	require.Equal(t, []EventKind{ToolCallAnnounced, ToolResultAnnounced, FinalAnswer}, kinds(events))
	require.Equal(t, "../outside.txt", events[0].Arguments["file_path"])
	require.Contains(t, events[1].Result, "Security")
	require.NotContains(t, events[1].Result, "secret")
}

func TestChatInferenceFailureScenario(t *testing.T) {
	registry, _ := sandboxRegistry(t)
	client := &scriptedClient{err: &llm.InferenceError{Op: "chat completion", Err: errors.New("503 service unavailable")}}
	o := NewOrchestrator(client, registry, "system prompt", testSettings(), nil)

	events := collect(t, o, "hello")
	require.Equal(t, []EventKind{FatalError}, kinds(events))
	require.ErrorIs(t, events[0].Err, llm.ErrInference)
	require.True(t, strings.HasPrefix(events[0].Message(), "Critical API Failure: "))
	require.Equal(t, 4, client.calls())
}

func TestChatRetriesThenSucceeds(t *testing.T) {
	registry, _ := sandboxRegistry(t)
	var attempts atomic.Int32
	client := llmFunc(func(context.Context, llm.Request) (*llm.Response, error) {
		if attempts.Add(1) < 3 {
			return nil, errors.New("rate limited")
		}
		return answer("finally"), nil
	})
	o := NewOrchestrator(client, registry, "system prompt", testSettings(), nil)

	events := collect(t, o, "hello")
	require.Equal(t, []EventKind{FinalAnswer}, kinds(events))
	require.EqualValues(t, 3, attempts.Load())
}

func TestChatZeroRetries(t *testing.T) {
	registry, _ := sandboxRegistry(t)
	client := &scriptedClient{err: errors.New("boom")}
	settings := testSettings()
	settings.MaxRetries = 0
	o := NewOrchestrator(client, registry, "system prompt", settings, nil)

	events := collect(t, o, "hello")
	require.Equal(t, []EventKind{FatalError}, kinds(events))
	require.ErrorIs(t, events[0].Err, llm.ErrInference)
	require.Equal(t, 1, client.calls())
}

func TestChatCancelledDuringRetryWait(t *testing.T) {
	registry, _ := sandboxRegistry(t)
	client := &scriptedClient{err: errors.New("boom")}
	settings := testSettings()
	settings.RetryDelay = time.Hour
	o := NewOrchestrator(client, registry, "system prompt", settings, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	var events []Event
	for event := range o.Chat(ctx, "hello") {
		events = append(events, event)
	}
	require.Equal(t, []EventKind{FatalError}, kinds(events))
	require.Equal(t, 1, client.calls())
}

func TestChatUnparseableArguments(t *testing.T) {
	registry, _ := sandboxRegistry(t)
	client := &scriptedClient{responses: []*llm.Response{
		toolCall("call_1", "read_file", `{"file_path": `),
		answer("sorry"),
	}}
	o := NewOrchestrator(client, registry, "system prompt", testSettings(), nil)

	events := collect(t, o, "read something")
	require.Equal(t, []EventKind{ToolCallAnnounced, ToolResultAnnounced, FinalAnswer}, kinds(events))
	require.Empty(t, events[0].Arguments)
	require.Contains(t, events[1].Result, "Invalid arguments provided")
	require.Contains(t, events[1].Result, "file_path")
}

func TestChatUnknownToolKeepsLooping(t *testing.T) {
	registry, _ := sandboxRegistry(t)
	client := &scriptedClient{responses: []*llm.Response{
		toolCall("call_1", "teleport", `{}`),
		answer("ok"),
	}}
	o := NewOrchestrator(client, registry, "system prompt", testSettings(), nil)

	events := collect(t, o, "go")
	require.Equal(t, "Error: Tool 'teleport' not found. Please use one of the provided tools.", events[1].Result)
	require.Equal(t, FinalAnswer, events[2].Kind)
}

func TestChatBatchRunsInOrderAndFillsMissingIDs(t *testing.T) {
	var order []string
	recorder := func(name string) tools.Factory {
		return func(tools.Deps) (tools.Tool, error) {
			return &funcTool{name: name, fn: func() string {
				order = append(order, name)
				return name + " done"
			}}, nil
		}
	}
	registry := tools.NewBuilder(tools.Deps{}).
		Register("first", recorder("first")).
		Register("second", recorder("second")).
		Build()

	client := &scriptedClient{responses: []*llm.Response{
		{Content: "working on it", ToolCalls: []models.ToolCall{
			{ID: "", Name: "second", Arguments: "{}"},
			{ID: "call_b", Name: "first", Arguments: "{}"},
		}},
		answer("done"),
	}}
	o := NewOrchestrator(client, registry, "system prompt", testSettings(), nil)

	events := collect(t, o, "go")
	require.Len(t, events, 5)
	require.Equal(t, []string{"second", "first"}, order)
	require.True(t, strings.HasPrefix(events[0].ToolCallID, "call_"))
	require.Equal(t, events[0].ToolCallID, events[1].ToolCallID)
	require.Equal(t, "call_b", events[2].ToolCallID)

	batch := o.Transcript()[2]
	require.Equal(t, models.ToolCallBatch, batch.Type)
	require.Equal(t, "working on it", batch.Content)
	require.Equal(t, events[0].ToolCallID, batch.ToolCalls[0].ID)
}

func TestChatStopsWhenCallerBreaks(t *testing.T) {
	var runs atomic.Int32
	registry := tools.NewBuilder(tools.Deps{}).
		Register("work", func(tools.Deps) (tools.Tool, error) {
			return &funcTool{name: "work", fn: func() string {
				runs.Add(1)
				return "worked"
			}}, nil
		}).
		Build()
	client := &scriptedClient{responses: []*llm.Response{
		{ToolCalls: []models.ToolCall{
			{ID: "call_1", Name: "work", Arguments: "{}"},
			{ID: "call_2", Name: "work", Arguments: "{}"},
		}},
		answer("never reached"),
	}}
	o := NewOrchestrator(client, registry, "system prompt", testSettings(), nil)

	for event := range o.Chat(context.Background(), "go") {
		require.Equal(t, ToolCallAnnounced, event.Kind)
		break
	}
	require.Zero(t, runs.Load())
	require.Equal(t, 1, client.calls())

	// Every call in the batch still has a result in the transcript.
	transcript := o.Transcript()
	require.Equal(t, []models.MessageType{
		models.System, models.User, models.ToolCallBatch, models.ToolResult, models.ToolResult,
	}, messageTypes(transcript))
	require.Equal(t, "call_2", transcript[4].ToolCallID)
}

func TestChatWindowDropsOldTurns(t *testing.T) {
	registry, _ := sandboxRegistry(t)
	client := &scriptedClient{responses: []*llm.Response{answer("one"), answer("two")}}
	settings := testSettings()
	// SafeLimit(200, 100) leaves 95 tokens: the system prompt plus roughly
	// one turn.
	settings.ContextLimit = 200
	settings.MaxOutputTokens = 100
	o := NewOrchestrator(client, registry, "system", settings, nil)

	collect(t, o, strings.Repeat("a", 300))
	collect(t, o, strings.Repeat("b", 300))

	second := client.requests[1].Messages
	require.Equal(t, models.System, second[0].Type)
	require.Equal(t, strings.Repeat("b", 300), second[len(second)-1].Content)
	for _, msg := range second[1:] {
		require.NotEqual(t, strings.Repeat("a", 300), msg.Content)
	}
	require.Len(t, o.Transcript(), 5)
}

func TestViewDropsOrphanedToolResults(t *testing.T) {
	registry, _ := sandboxRegistry(t)
	settings := testSettings()
	settings.ContextLimit = 200
	settings.MaxOutputTokens = 100
	o := NewOrchestrator(&scriptedClient{}, registry, "system", settings, nil)

	o.window.Append(models.NewUserMessage("go"))
	o.window.Append(models.NewToolCallBatch("", []models.ToolCall{{ID: "c1", Name: "x", Arguments: strings.Repeat("z", 400)}}))
	o.window.Append(models.NewToolResult("c1", "result"))
	o.window.Append(models.NewAssistantMessage("done"))

	view := o.view()
	require.Equal(t, []models.MessageType{models.System, models.Assistant}, messageTypes(view))
}

func TestReset(t *testing.T) {
	registry, _ := sandboxRegistry(t)
	client := &scriptedClient{responses: []*llm.Response{answer("hi")}}
	o := NewOrchestrator(client, registry, "system prompt", testSettings(), nil)

	collect(t, o, "hello")
	require.Len(t, o.Transcript(), 3)
	o.Reset()
	require.Equal(t, []models.MessageType{models.System}, messageTypes(o.Transcript()))
	require.NotEmpty(t, o.SessionID())
}

func TestParseArguments(t *testing.T) {
	require.Empty(t, parseArguments(""))
	require.Empty(t, parseArguments("null"))
	require.Empty(t, parseArguments("[1,2]"))
	require.Empty(t, parseArguments("{broken"))
	require.Equal(t, map[string]interface{}{"a": 1.0}, parseArguments(`{"a": 1}`))
}

type llmFunc func(context.Context, llm.Request) (*llm.Response, error)

func (f llmFunc) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	return f(ctx, req)
}

type funcTool struct {
	name string
	fn   func() string
}

func (f *funcTool) Name() string { return f.name }

func (f *funcTool) Schema() tools.Schema { return tools.Schema{Name: f.name} }

func (f *funcTool) Execute(context.Context, map[string]interface{}) (string, error) {
	return f.fn(), nil
}

func messageTypes(msgs []models.Message) []models.MessageType {
	out := make([]models.MessageType, len(msgs))
	for i, m := range msgs {
		out[i] = m.Type
	}
	return out
}
