package core

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Rorical/RoriAgent/internal/config"
	"github.com/Rorical/RoriAgent/internal/llm"
	"github.com/Rorical/RoriAgent/internal/models"
	"github.com/Rorical/RoriAgent/internal/prompts"
	"github.com/Rorical/RoriAgent/internal/sandbox"
	"github.com/Rorical/RoriAgent/internal/tools"
)

// SettingsFromConfig reads the agent block of cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		ContextLimit:    cfg.ContextLimit(),
		MaxOutputTokens: cfg.MaxOutputTokens(),
		MaxRetries:      cfg.MaxRetries(),
		RetryDelay:      cfg.RetryDelay(),
		Temperature:     cfg.Temperature(),
	}
}

// NewAgent wires an orchestrator for the active profile of cfg: an OpenAI
// compatible client, the built-in tools confined to gateway and the
// persona's system prompt.
func NewAgent(cfg *config.Config, gateway *sandbox.Gateway, confirmator tools.Confirmator, logger *slog.Logger) (*Orchestrator, error) {
	if !cfg.IsValid() {
		return nil, fmt.Errorf("profile '%s' has no API key", cfg.ActiveProfile)
	}
	if gateway == nil {
		return nil, fmt.Errorf("sandbox gateway is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	persona := cfg.GetPersona()
	if !prompts.Known(persona) {
		logger.Warn("unknown persona, using default", "persona", persona)
	}

	client := llm.NewOpenAIClient(cfg.GetAPIKey(), cfg.GetBaseURL(), cfg.GetModel(), logger.With("component", "llm"))
	registry := tools.NewDefaultRegistry(tools.Deps{
		Gateway:     gateway,
		Confirmator: confirmator,
		Logger:      logger.With("component", "tools"),
	})

	orchestrator := NewOrchestrator(client, registry, prompts.System(persona), SettingsFromConfig(cfg), logger.With("component", "orchestrator"))
	logger.Info("agent ready",
		"profile", cfg.ActiveProfile,
		"model", cfg.GetModel(),
		"persona", persona,
		"sandbox", gateway.Root(),
		"session", orchestrator.SessionID(),
	)
	return orchestrator, nil
}

// EntryFromEvent converts an orchestrator event into a chat view entry.
func EntryFromEvent(event Event) models.Entry {
	switch event.Kind {
	case ToolCallAnnounced:
		return models.Entry{
			Type:       models.EntryToolCall,
			Content:    formatArguments(event.Arguments),
			ToolCallID: event.ToolCallID,
			ToolName:   event.ToolName,
		}
	case ToolResultAnnounced:
		return models.Entry{
			Type:       models.EntryToolResult,
			Content:    event.Result,
			ToolCallID: event.ToolCallID,
			ToolName:   event.ToolName,
		}
	case FinalAnswer:
		return models.Entry{Type: models.EntryAssistant, Content: event.Result}
	default:
		return models.Entry{Type: models.EntryError, Content: event.Message()}
	}
}

func formatArguments(args map[string]interface{}) string {
	if len(args) == 0 {
		return "{}"
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprint(args)
	}
	return string(data)
}
