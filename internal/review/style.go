package review

import "github.com/charmbracelet/lipgloss"

// Styles controls how suggestions are rendered.
type Styles struct {
	Addition lipgloss.Style
	Removal  lipgloss.Style
	Current  lipgloss.Style // layered over Addition or Removal for the focused suggestion
	Header   lipgloss.Style
	Status   lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Addition: lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("120")),
		Removal:  lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("217")).Strikethrough(true),
		Current:  lipgloss.NewStyle().Bold(true).Underline(true),
		Header:   lipgloss.NewStyle().Bold(true),
		Status:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	}
}
