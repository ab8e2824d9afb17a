package update

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/RoriAgent/internal/eventbus"
	"github.com/Rorical/RoriAgent/internal/models"
)

const resetCommand = "/reset"

// HandleKeyMsgWithEventBus handles keyboard input using event bus
func HandleKeyMsgWithEventBus(appModel *models.AppModel, keyMsg tea.KeyMsg, eb *eventbus.EventBus, chatReady bool) tea.Cmd {
	if appModel.PendingConfirmation != nil {
		return handleConfirmationKey(appModel, keyMsg, eb)
	}

	switch keyMsg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return tea.Quit
	case tea.KeyEnter:
		return submitInput(appModel, eb, chatReady)
	case tea.KeyBackspace:
		if runes := []rune(appModel.Input); len(runes) > 0 {
			appModel.Input = string(runes[:len(runes)-1])
		}
	case tea.KeySpace:
		appModel.Input += " "
	case tea.KeyRunes:
		appModel.Input += string(keyMsg.Runes)
	}
	return nil
}

func submitInput(appModel *models.AppModel, eb *eventbus.EventBus, chatReady bool) tea.Cmd {
	input := strings.TrimSpace(appModel.Input)
	if input == "" {
		return nil
	}
	if !chatReady {
		appModel.Input = ""
		appModel.Status = "Chat service not available"
		return nil
	}

	var event eventbus.UIEvent = eventbus.SendMessageEvent{Message: input}
	if input == resetCommand {
		event = eventbus.ResetEvent{}
	}
	if err := eb.SendToCore(event); err != nil {
		appModel.Status = "Error sending message: " + err.Error()
		return nil
	}
	appModel.Input = ""
	return nil
}

func handleConfirmationKey(appModel *models.AppModel, keyMsg tea.KeyMsg, eb *eventbus.EventBus) tea.Cmd {
	var approved bool
	switch strings.ToLower(keyMsg.String()) {
	case "y":
		approved = true
	case "n", "esc":
		approved = false
	case "ctrl+c":
		return tea.Quit
	default:
		return nil
	}

	request := appModel.PendingConfirmation
	appModel.PendingConfirmation = nil
	if err := eb.SendToCore(eventbus.ConfirmationResponseEvent{ID: request.ID, Approved: approved}); err != nil {
		appModel.Status = "Error sending confirmation: " + err.Error()
		return nil
	}

	verdict := "Denied"
	if approved {
		verdict = "Approved"
	}
	appModel.Entries = append(appModel.Entries, models.Entry{
		Type:    models.EntryProgram,
		Content: verdict + ": " + request.Command,
	})
	appModel.Status = "Processing"
	return nil
}

// CoreEventMsg wraps core events for Bubble Tea
type CoreEventMsg struct {
	Event eventbus.CoreEvent
}

// HandleCoreEvent processes events from the core
func HandleCoreEvent(appModel *models.AppModel, coreEventMsg CoreEventMsg) tea.Cmd {
	switch event := coreEventMsg.Event.(type) {
	case eventbus.StateUpdateEvent:
		appModel.Entries = append(appModel.Entries, event.Entries...)
		appModel.Loading = event.IsProcessing

		switch {
		case event.Error != nil:
			appModel.Status = "Error: " + event.Error.Error()
		case event.IsProcessing:
			appModel.Status = "Processing"
		default:
			appModel.Status = "Ready"
		}
	case eventbus.ConfirmationRequestEvent:
		appModel.PendingConfirmation = &models.ConfirmationRequest{
			ID:        event.ID,
			Operation: event.Operation,
			Command:   event.Command,
			Dangerous: event.Dangerous,
		}
		appModel.Status = "Awaiting confirmation (y/n)"
	}

	return nil
}

type TickMsg time.Time

func TickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func HandleWindowSizeMsg(appModel *models.AppModel, sizeMsg tea.WindowSizeMsg) {
	appModel.Width = sizeMsg.Width
	appModel.Height = sizeMsg.Height
}

func HandleTickMsg(appModel *models.AppModel) tea.Cmd {
	if appModel.Loading {
		appModel.LoadingDots = (appModel.LoadingDots + 1) % 4
	}
	return TickCmd()
}
