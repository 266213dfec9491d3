package chat

import "github.com/charmbracelet/lipgloss"

// =====================================================================================
// 🎨 Chat log styles
// =====================================================================================

const (
	userLabel      = "You"
	assistantLabel = "Talk2Trade"
	typingLabel    = "Talk2Trade is typing…"
	timeLayout     = "15:04:05"
)

var (
	userTagStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	assistantTagStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("129"))

	timeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	userMsgStyle = lipgloss.NewStyle().Padding(0, 2)

	typingStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("244")).
			Padding(0, 2)

	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("129"))

	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)
