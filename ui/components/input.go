package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Rorical/RoriAgent/ui/styles"
)

func RenderInput(input string, loading bool, loadingDots int, width int) string {
	inputStyle := styles.InputStyle(width)
	if input == "" && loading {
		hint := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
		return inputStyle.Render(hint.Render("waiting for the agent, you can type ahead"))
	}
	return inputStyle.Render("> " + input)
}
