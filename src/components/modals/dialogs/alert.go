// alert.go - Contains the AlertModal, a blocking single-button dialog in the Bubble Tea UI.
// Update logic: enter or esc dismisses; every other key is swallowed while the alert is open.

package dialogs

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ClosedMsg is emitted when a dialog is dismissed.
type ClosedMsg struct{}

// AlertModal shows a message with a single OK button.
type AlertModal struct {
	Title        string
	Message      string
	RegionWidth  int
	RegionHeight int
	closed       bool
}

// NewAlertModal creates an open alert with the given message.
func NewAlertModal(title, message string) *AlertModal {
	return &AlertModal{
		Title:        title,
		Message:      message,
		RegionWidth:  60,
		RegionHeight: 10,
	}
}

func (m *AlertModal) Init() tea.Cmd { return nil }

// Update consumes every key. Enter or Esc closes the alert.
func (m *AlertModal) Update(msg tea.Msg) tea.Cmd {
	if m.closed {
		return nil
	}
	if km, ok := msg.(tea.KeyMsg); ok && isDismissKey(km) {
		m.closed = true
		return closedCmd
	}
	return nil
}

func (m *AlertModal) Closed() bool { return m.closed }

func (m *AlertModal) View() string {
	return m.ViewRegion(m.RegionWidth, m.RegionHeight)
}

func (m *AlertModal) ViewRegion(regionWidth, regionHeight int) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("196")).
		Padding(1, 4).
		Align(lipgloss.Center)

	var content string
	if m.Title != "" {
		content = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")).Render("⚠️  "+m.Title) + "\n\n"
	}
	content += lipgloss.NewStyle().Bold(true).Render(m.Message)
	button := lipgloss.NewStyle().
		Padding(0, 2).
		Bold(true).
		Foreground(lipgloss.Color("33")).
		Background(lipgloss.Color("236")).
		Render("OK")
	content += "\n\n" + button

	return lipgloss.Place(regionWidth, regionHeight, lipgloss.Center, lipgloss.Center, boxStyle.Render(content))
}

func isDismissKey(km tea.KeyMsg) bool {
	switch km.String() {
	case "enter", "esc":
		return true
	}
	return false
}

func closedCmd() tea.Msg { return ClosedMsg{} }
