// help.go - Contains HelpModal for displaying key bindings in a modal dialog in the Bubble Tea UI.

package dialogs

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpModal is a dismissable overlay with help content.
type HelpModal struct {
	Content      string // Rendered help text
	RegionWidth  int    // Last-known or intended region width for rendering
	RegionHeight int    // Last-known or intended region height for rendering
	closed       bool
}

// NewHelpModal creates an open help overlay.
func NewHelpModal(content string) *HelpModal {
	return &HelpModal{Content: content, RegionWidth: 60, RegionHeight: 16}
}

// Update closes the overlay on enter, esc or "?".
func (m *HelpModal) Update(msg tea.Msg) tea.Cmd {
	if m.closed {
		return nil
	}
	if km, ok := msg.(tea.KeyMsg); ok && (isDismissKey(km) || km.String() == "?") {
		m.closed = true
		return closedCmd
	}
	return nil
}

func (m *HelpModal) Closed() bool { return m.closed }

// View renders the help modal centered in the stored region.
func (m *HelpModal) View() string {
	return m.ViewRegion(m.RegionWidth, m.RegionHeight)
}

// ViewRegion renders the help modal centered in the given region.
func (m *HelpModal) ViewRegion(regionWidth, regionHeight int) string {
	title := lipgloss.NewStyle().Bold(true).Render("⌨️  Keys")
	content := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("245")).
		Padding(1, 2).
		Render(title + "\n\n" + m.Content)
	return lipgloss.Place(regionWidth, regionHeight, lipgloss.Center, lipgloss.Center, content)
}
