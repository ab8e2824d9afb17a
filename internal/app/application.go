package app

import (
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/RoriAgent/internal/config"
	"github.com/Rorical/RoriAgent/internal/core"
	"github.com/Rorical/RoriAgent/internal/dispatcher"
	"github.com/Rorical/RoriAgent/internal/eventbus"
	"github.com/Rorical/RoriAgent/internal/models"
	"github.com/Rorical/RoriAgent/internal/sandbox"
)

// Application manages the complete application lifecycle
type Application struct {
	config     *config.Config
	eventBus   *eventbus.EventBus
	dispatcher *dispatcher.EventDispatcher
	service    *core.ChatService
	model      *AppModel
	logger     *slog.Logger
}

type AppModel struct {
	appModel   models.AppModel
	dispatcher *dispatcher.EventDispatcher
}

// NewApplication wires the chat service to a TUI. File tools are confined to
// the current working directory.
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	gateway, err := sandbox.FromWorkingDir()
	if err != nil {
		return nil, fmt.Errorf("failed to open workspace: %w", err)
	}

	eb := eventbus.NewEventBus()
	eb.SetErrorCallback(func(e eventbus.EventBusError) {
		logger.Warn("event bus error", "operation", e.Operation, "error", e.Err)
	})

	disp := dispatcher.NewEventDispatcher(eb)

	// Always created; an invalid profile only shows setup instructions.
	chatService, err := core.NewChatService(cfg, eb, gateway, logger)
	if err != nil {
		eb.Close()
		return nil, fmt.Errorf("failed to initialize chat service: %w", err)
	}

	logger.Info("application created", "workspace", gateway.Root(), "ready", chatService.IsReady())

	return &Application{
		config:     cfg,
		eventBus:   eb,
		dispatcher: disp,
		service:    chatService,
		model: &AppModel{
			appModel:   createInitialAppModel(chatService),
			dispatcher: disp,
		},
		logger: logger,
	}, nil
}

func (app *Application) Start() error {
	app.service.Start()

	p := tea.NewProgram(app.model)
	_, err := p.Run()
	return err
}

func (app *Application) Stop() {
	app.eventBus.Close()
	app.service.Stop()
}

func createInitialAppModel(chatService *core.ChatService) models.AppModel {
	// Entries come from the core as the single source of truth.
	return models.AppModel{
		Status:           "Ready",
		ChatServiceReady: chatService.IsReady(),
	}
}
