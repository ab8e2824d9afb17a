package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Rorical/RoriAgent/internal/config"
	"github.com/Rorical/RoriAgent/internal/eventbus"
	"github.com/Rorical/RoriAgent/internal/models"
	"github.com/Rorical/RoriAgent/internal/sandbox"
)

var ErrBusy = errors.New("a response is already in progress")

// Conversation is the part of the orchestrator the chat service drives.
type Conversation interface {
	Chat(ctx context.Context, input string) iter.Seq[Event]
	Reset()
}

// ChatService bridges the TUI event bus and a conversation. Turns run on
// their own goroutine so confirmation answers can arrive while a tool waits.
type ChatService struct {
	config       *config.Config
	eventBus     *eventbus.EventBus
	conversation Conversation
	logger       *slog.Logger
	ctx          context.Context
	cancel       context.CancelFunc

	mu      sync.Mutex
	running bool
	turns   sync.WaitGroup

	pendingConfirms map[string]chan bool
	confirmMutex    sync.Mutex
}

// NewChatService creates a ChatService regardless of config validity. With
// an invalid profile the service only shows setup instructions.
func NewChatService(cfg *config.Config, eb *eventbus.EventBus, gateway *sandbox.Gateway, logger *slog.Logger) (*ChatService, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ctx, cancel := context.WithCancel(context.Background())
	service := &ChatService{
		config:          cfg,
		eventBus:        eb,
		logger:          logger,
		ctx:             ctx,
		cancel:          cancel,
		pendingConfirms: make(map[string]chan bool),
	}

	if cfg.IsValid() {
		orchestrator, err := NewAgent(cfg, gateway, service, logger)
		if err != nil {
			cancel()
			return nil, err
		}
		service.conversation = orchestrator
	}
	return service, nil
}

// newChatServiceWith is used by tests to inject a conversation.
func newChatServiceWith(eb *eventbus.EventBus, conversation Conversation, logger *slog.Logger) *ChatService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ChatService{
		eventBus:        eb,
		conversation:    conversation,
		logger:          logger,
		ctx:             ctx,
		cancel:          cancel,
		pendingConfirms: make(map[string]chan bool),
	}
}

// Start pushes the welcome screen and runs the event loop in a goroutine.
func (cs *ChatService) Start() {
	cs.push(eventbus.StateUpdateEvent{Entries: cs.welcomeEntries()})
	go cs.eventLoop()
}

// Stop cancels any running turn and waits for it to unwind.
func (cs *ChatService) Stop() {
	cs.cancel()
	cs.turns.Wait()
}

func (cs *ChatService) IsReady() bool {
	return cs.conversation != nil
}

func (cs *ChatService) eventLoop() {
	for {
		select {
		case <-cs.ctx.Done():
			return
		case <-cs.eventBus.Done():
			return
		case event := <-cs.eventBus.UIToCore():
			cs.handleUIEvent(event)
		}
	}
}

func (cs *ChatService) handleUIEvent(event eventbus.UIEvent) {
	switch e := event.(type) {
	case eventbus.SendMessageEvent:
		cs.processMessage(e.Message)
	case eventbus.ResetEvent:
		cs.reset()
	case eventbus.ConfirmationResponseEvent:
		cs.handleConfirmationResponse(e)
	}
}

func (cs *ChatService) processMessage(message string) {
	if cs.conversation == nil {
		cs.push(eventbus.StateUpdateEvent{Error: errors.New("chat service not configured")})
		return
	}

	cs.mu.Lock()
	if cs.running {
		cs.mu.Unlock()
		cs.push(eventbus.StateUpdateEvent{IsProcessing: true, Error: ErrBusy})
		return
	}
	cs.running = true
	cs.turns.Add(1)
	cs.mu.Unlock()

	cs.push(eventbus.StateUpdateEvent{
		Entries:      []models.Entry{{Type: models.EntryUser, Content: message}},
		IsProcessing: true,
	})
	go cs.runTurn(message)
}

func (cs *ChatService) runTurn(message string) {
	defer cs.turns.Done()

	var fatal error
	for event := range cs.conversation.Chat(cs.ctx, message) {
		if event.Kind == FatalError {
			fatal = event.Err
		}
		if !cs.push(eventbus.StateUpdateEvent{Entries: []models.Entry{EntryFromEvent(event)}, IsProcessing: true}) {
			break
		}
	}

	cs.mu.Lock()
	cs.running = false
	cs.mu.Unlock()

	cs.push(eventbus.StateUpdateEvent{IsProcessing: false, Error: fatal})
}

func (cs *ChatService) reset() {
	if cs.conversation == nil {
		return
	}
	cs.mu.Lock()
	running := cs.running
	cs.mu.Unlock()
	if running {
		cs.push(eventbus.StateUpdateEvent{IsProcessing: true, Error: fmt.Errorf("cannot reset: %w", ErrBusy)})
		return
	}

	cs.conversation.Reset()
	cs.push(eventbus.StateUpdateEvent{
		Entries: []models.Entry{{Type: models.EntryProgram, Content: "Conversation reset."}},
	})
}

// push delivers an update to the UI. It reports false once the service or
// the bus has shut down.
func (cs *ChatService) push(event eventbus.CoreEvent) bool {
	if err := cs.eventBus.PublishToUI(cs.ctx, event); err != nil {
		cs.logger.Debug("dropping UI update", "error", err)
		return false
	}
	return true
}

func (cs *ChatService) welcomeEntries() []models.Entry {
	program := func(text string) models.Entry {
		return models.Entry{Type: models.EntryProgram, Content: text}
	}
	entries := []models.Entry{program("-- RORIAGENT --")}
	if cs.config == nil {
		return entries
	}

	if cs.config.IsValid() {
		entries = append(entries,
			program(fmt.Sprintf("Active Profile: %s [OK]  Model: %s  Persona: %s",
				cs.config.ActiveProfile, cs.config.GetModel(), cs.config.GetPersona())),
			program("Ready to chat! Type your message and press Enter. /reset clears the conversation."),
		)
	} else {
		entries = append(entries,
			program(fmt.Sprintf("Active Profile: %s [NOT CONFIGURED]", cs.config.ActiveProfile)),
			program("Configure your profile to start chatting:"),
			program("• Run: roriagent profile add <name>"),
			program("• Or set HF_TOKEN in the environment or a .env file"),
		)
	}
	return append(entries, program("Controls: Ctrl+C or Esc to exit"))
}

// RequestConfirmation asks the UI to approve an operation and blocks until
// the user answers or the service stops.
func (cs *ChatService) RequestConfirmation(operation, command string, dangerous bool) bool {
	id := uuid.NewString()
	responseChan := make(chan bool, 1)

	cs.confirmMutex.Lock()
	cs.pendingConfirms[id] = responseChan
	cs.confirmMutex.Unlock()

	defer func() {
		cs.confirmMutex.Lock()
		delete(cs.pendingConfirms, id)
		cs.confirmMutex.Unlock()
	}()

	request := eventbus.ConfirmationRequestEvent{
		ID:        id,
		Operation: operation,
		Command:   strings.TrimSpace(command),
		Dangerous: dangerous,
	}
	if !cs.push(request) {
		return false
	}

	select {
	case approved := <-responseChan:
		cs.logger.Info("confirmation answered", "operation", operation, "approved", approved)
		return approved
	case <-cs.ctx.Done():
		return false
	}
}

func (cs *ChatService) handleConfirmationResponse(response eventbus.ConfirmationResponseEvent) {
	cs.confirmMutex.Lock()
	responseChan, exists := cs.pendingConfirms[response.ID]
	cs.confirmMutex.Unlock()

	if !exists {
		cs.logger.Warn("confirmation response for unknown request", "id", response.ID)
		return
	}
	select {
	case responseChan <- response.Approved:
	default:
	}
}
