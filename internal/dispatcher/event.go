package dispatcher

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/RoriAgent/internal/eventbus"
	"github.com/Rorical/RoriAgent/internal/update"
)

// EventDispatcher feeds core events into the Bubble Tea program.
type EventDispatcher struct {
	eventBus *eventbus.EventBus
}

func NewEventDispatcher(eventBus *eventbus.EventBus) *EventDispatcher {
	return &EventDispatcher{eventBus: eventBus}
}

// ListenForCoreEvents waits for the next core event. The model re-issues it
// after handling each event.
func (ed *EventDispatcher) ListenForCoreEvents() tea.Cmd {
	return func() tea.Msg {
		select {
		case event := <-ed.eventBus.CoreToUI():
			return update.CoreEventMsg{Event: event}
		case <-ed.eventBus.Done():
			return nil
		}
	}
}

func (ed *EventDispatcher) GetEventBus() *eventbus.EventBus {
	return ed.eventBus
}
