package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Rorical/RoriAgent/internal/models"
	"github.com/Rorical/RoriAgent/ui/styles"
)

// maxResultLines keeps long tool output from flooding the chat view.
const maxResultLines = 12

func RenderEntries(entries []models.Entry, width int) string {
	var b strings.Builder
	for _, entry := range entries {
		b.WriteString(RenderEntry(entry, width))
		b.WriteString("\n\n")
	}
	return b.String()
}

// RenderEntry renders a single chat entry. A width of zero disables wrapping.
func RenderEntry(entry models.Entry, width int) string {
	wrap := func(style lipgloss.Style) lipgloss.Style {
		if width > 8 {
			return style.MaxWidth(width)
		}
		return style
	}

	switch entry.Type {
	case models.EntryUser:
		return wrap(styles.UserStyle()).Render("You: " + entry.Content)
	case models.EntryAssistant:
		return wrap(styles.AssistantStyle()).Render(RenderMarkdown(entry.Content))
	case models.EntryToolCall:
		return wrap(styles.ToolCallStyle()).Render("⚙ " + entry.ToolName + " " + entry.Content)
	case models.EntryToolResult:
		return wrap(styles.ToolResultStyle()).Render(clipLines(entry.Content, maxResultLines))
	case models.EntryError:
		return wrap(styles.ErrorStyle()).Render(entry.Content)
	default:
		return wrap(styles.ProgramStyle()).Render(entry.Content)
	}
}

func RenderConfirmation(request models.ConfirmationRequest, width int) string {
	var b strings.Builder
	if request.Dangerous {
		b.WriteString("⚠ ")
	}
	b.WriteString(request.Operation + "\n")
	b.WriteString(request.Command + "\n\n")
	b.WriteString("Allow? [y]es / [n]o")

	style := styles.ConfirmStyle(request.Dangerous)
	if width > 4 {
		style = style.Width(width - 4)
	}
	return style.Render(b.String())
}

func clipLines(text string, limit int) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) <= limit {
		return strings.Join(lines, "\n")
	}
	hidden := len(lines) - limit
	return strings.Join(lines[:limit], "\n") + "\n… " + pluralLines(hidden) + " hidden"
}

func pluralLines(n int) string {
	if n == 1 {
		return "1 line"
	}
	return strconv.Itoa(n) + " lines"
}
