package app

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/RoriAgent/internal/update"
	"github.com/Rorical/RoriAgent/ui/components"
)

func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(
		update.TickCmd(),
		m.dispatcher.ListenForCoreEvents(),
	)
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle core events and continue listening
	if coreEvent, ok := msg.(update.CoreEventMsg); ok {
		cmd := update.HandleCoreEvent(&m.appModel, coreEvent)
		return m, tea.Batch(cmd, m.dispatcher.ListenForCoreEvents())
	}

	eventBus := m.dispatcher.GetEventBus()
	cmd := update.HandleUpdateWithEventBus(&m.appModel, msg, eventBus, m.appModel.ChatServiceReady)
	return m, cmd
}

func (m *AppModel) View() string {
	var b strings.Builder

	b.WriteString(components.RenderEntries(m.appModel.Entries, m.appModel.Width))
	if request := m.appModel.PendingConfirmation; request != nil {
		b.WriteString(components.RenderConfirmation(*request, m.appModel.Width))
		b.WriteString("\n")
	}
	b.WriteString(components.RenderInput(m.appModel.Input, m.appModel.Loading, m.appModel.LoadingDots, m.appModel.Width))
	b.WriteString("\n")
	b.WriteString(components.RenderStatus(m.appModel.Status, m.appModel.Loading, m.appModel.LoadingDots, m.appModel.Width))

	return b.String()
}
