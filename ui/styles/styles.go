package styles

import "github.com/charmbracelet/lipgloss"

func InputStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		Width(max(width-4, 10))
}

func StatusStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Background(lipgloss.Color("235")).
		Padding(0, 1).
		Width(width)
}

func UserStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(lipgloss.Color("39")).
		Padding(0, 1).
		MarginLeft(2)
}

func AssistantStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(lipgloss.Color("214")).
		Padding(0, 1).
		MarginLeft(2)
}

func ProgramStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("141")).
		Bold(true).
		Padding(0, 2)
}

func ToolCallStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("78")).
		MarginLeft(4)
}

func ToolResultStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(lipgloss.Color("238")).
		Padding(0, 1).
		MarginLeft(4)
}

func ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")).
		Bold(true).
		Padding(0, 2)
}

func ConfirmStyle(dangerous bool) lipgloss.Style {
	color := lipgloss.Color("214")
	if dangerous {
		color = lipgloss.Color("196")
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1)
}

// Markdown styles

func CodeBlockStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Background(lipgloss.Color("236")).
		Padding(0, 1)
}

func BoldStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true)
}

func ItalicStyle() lipgloss.Style {
	return lipgloss.NewStyle().Italic(true)
}

func TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Underline(true)
}

func LinkStyle() lipgloss.Style {
	return lipgloss.NewStyle().Underline(true)
}

func ListStyle() lipgloss.Style {
	return lipgloss.NewStyle().MarginLeft(2)
}
