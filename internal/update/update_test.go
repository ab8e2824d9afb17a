package update

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/Rorical/RoriAgent/internal/eventbus"
	"github.com/Rorical/RoriAgent/internal/models"
)

func typeText(m *models.AppModel, eb *eventbus.EventBus, text string) {
	for _, r := range text {
		if r == ' ' {
			HandleKeyMsgWithEventBus(m, tea.KeyMsg{Type: tea.KeySpace}, eb, true)
			continue
		}
		HandleKeyMsgWithEventBus(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}, eb, true)
	}
}

func TestTypingAndSubmit(t *testing.T) {
	eb := eventbus.NewEventBus()
	m := &models.AppModel{}

	typeText(m, eb, "héllo wq")
	HandleKeyMsgWithEventBus(m, tea.KeyMsg{Type: tea.KeyBackspace}, eb, true)
	require.Equal(t, "héllo w", m.Input)

	HandleKeyMsgWithEventBus(m, tea.KeyMsg{Type: tea.KeyEnter}, eb, true)
	require.Empty(t, m.Input)
	require.Equal(t, eventbus.SendMessageEvent{Message: "héllo w"}, <-eb.UIToCore())

	typeText(m, eb, "/reset")
	HandleKeyMsgWithEventBus(m, tea.KeyMsg{Type: tea.KeyEnter}, eb, true)
	require.Equal(t, eventbus.ResetEvent{}, <-eb.UIToCore())
}

func TestSubmitWhenNotReady(t *testing.T) {
	eb := eventbus.NewEventBus()
	m := &models.AppModel{Input: "hi"}

	HandleKeyMsgWithEventBus(m, tea.KeyMsg{Type: tea.KeyEnter}, eb, false)
	require.Equal(t, "Chat service not available", m.Status)
	require.Empty(t, m.Input)
	require.Len(t, eb.UIToCore(), 0)
}

func TestQuitKeys(t *testing.T) {
	eb := eventbus.NewEventBus()
	m := &models.AppModel{}
	require.NotNil(t, HandleKeyMsgWithEventBus(m, tea.KeyMsg{Type: tea.KeyCtrlC}, eb, true))
	require.NotNil(t, HandleKeyMsgWithEventBus(m, tea.KeyMsg{Type: tea.KeyEsc}, eb, true))
	// A typed q is just text.
	require.Nil(t, HandleKeyMsgWithEventBus(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}, eb, true))
	require.Equal(t, "q", m.Input)
}

func TestConfirmationFlow(t *testing.T) {
	eb := eventbus.NewEventBus()
	m := &models.AppModel{Input: "draft"}

	HandleCoreEvent(m, CoreEventMsg{Event: eventbus.ConfirmationRequestEvent{
		ID: "abc", Operation: "Execute shell command", Command: "rm -rf build", Dangerous: true,
	}})
	require.NotNil(t, m.PendingConfirmation)
	require.Equal(t, "Awaiting confirmation (y/n)", m.Status)

	// Other keys are ignored while a confirmation is pending.
	HandleKeyMsgWithEventBus(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")}, eb, true)
	require.Equal(t, "draft", m.Input)
	require.NotNil(t, m.PendingConfirmation)

	HandleKeyMsgWithEventBus(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")}, eb, true)
	require.Nil(t, m.PendingConfirmation)
	require.Equal(t, eventbus.ConfirmationResponseEvent{ID: "abc", Approved: true}, <-eb.UIToCore())
	require.Equal(t, "Approved: rm -rf build", m.Entries[len(m.Entries)-1].Content)
}

func TestHandleStateUpdate(t *testing.T) {
	m := &models.AppModel{Entries: []models.Entry{{Type: models.EntryProgram, Content: "welcome"}}}

	HandleCoreEvent(m, CoreEventMsg{Event: eventbus.StateUpdateEvent{
		Entries:      []models.Entry{{Type: models.EntryUser, Content: "hi"}},
		IsProcessing: true,
	}})
	require.Len(t, m.Entries, 2)
	require.True(t, m.Loading)
	require.Equal(t, "Processing", m.Status)

	HandleCoreEvent(m, CoreEventMsg{Event: eventbus.StateUpdateEvent{Error: errors.New("boom")}})
	require.False(t, m.Loading)
	require.Equal(t, "Error: boom", m.Status)

	HandleCoreEvent(m, CoreEventMsg{Event: eventbus.StateUpdateEvent{}})
	require.Equal(t, "Ready", m.Status)
}

func TestTick(t *testing.T) {
	m := &models.AppModel{Loading: true, LoadingDots: 3}
	require.NotNil(t, HandleTickMsg(m))
	require.Zero(t, m.LoadingDots)
}
