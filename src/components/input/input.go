// input.go - Input box for the chat screen.
// Wraps a bubbles textarea: Enter submits, Alt+Enter / Ctrl+J insert a newline,
// and the height follows the content up to a fixed cap.

package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	DefaultRowUnits = 20
	DefaultMaxUnits = 120

	placeholder = "Type a message or /markets, /categories (Enter to send, Alt+Enter for newline)"
	charLimit   = 4096
)

// SubmitMsg is emitted when the user presses Enter on non-blank input.
type SubmitMsg struct {
	Text string
}

// Model is the input controller.
type Model struct {
	textarea textarea.Model
	rowUnits int
	maxUnits int
	disabled bool
}

// New creates a focused input box. Non-positive units fall back to the defaults.
func New(rowUnits, maxUnits int) Model {
	if rowUnits <= 0 {
		rowUnits = DefaultRowUnits
	}
	if maxUnits < rowUnits {
		maxUnits = DefaultMaxUnits
	}

	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.Prompt = "│ "
	ta.CharLimit = charLimit
	ta.ShowLineNumbers = false
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	// Terminals do not report Shift with Enter.
	ta.KeyMap.InsertNewline = key.NewBinding(
		key.WithKeys("alt+enter", "ctrl+j"),
		key.WithHelp("alt+enter", "newline"),
	)
	ta.SetHeight(1)
	ta.Focus()

	return Model{textarea: ta, rowUnits: rowUnits, maxUnits: maxUnits}
}

// AutoHeight converts a content row count to a box height in rows. One row is
// rowUnits tall and the box never exceeds capUnits.
func AutoHeight(rows, rowUnits, capUnits int) int {
	if rows < 1 {
		rows = 1
	}
	units := rows * rowUnits
	if units > capUnits {
		units = capUnits
	}
	if h := units / rowUnits; h > 1 {
		return h
	}
	return 1
}

// Update applies a message to the input box.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, isKey := msg.(tea.KeyMsg)
	if isKey && m.disabled {
		return m, nil
	}

	if isKey && keyMsg.Type == tea.KeyEnter && !keyMsg.Alt {
		text, ok := m.Submit()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg { return SubmitMsg{Text: text} }
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	m.resize()
	return m, cmd
}

// Submit takes the trimmed draft and clears the box. Blank drafts and a
// disabled box are left untouched.
func (m *Model) Submit() (string, bool) {
	if m.disabled {
		return "", false
	}
	text := strings.TrimSpace(m.textarea.Value())
	if text == "" {
		return "", false
	}
	m.Reset()
	return text, true
}

// Reset clears the draft and shrinks the box back to one row.
func (m *Model) Reset() {
	m.textarea.Reset()
	m.resize()
}

// SetDisabled blocks or restores keystrokes. The draft is kept either way.
func (m *Model) SetDisabled(disabled bool) tea.Cmd {
	m.disabled = disabled
	if disabled {
		m.textarea.Blur()
		return nil
	}
	return m.textarea.Focus()
}

func (m Model) Disabled() bool { return m.disabled }

func (m Model) Value() string { return m.textarea.Value() }

// SetValue replaces the draft.
func (m *Model) SetValue(s string) {
	m.textarea.SetValue(s)
	m.resize()
}

// Height is the current box height in rows.
func (m Model) Height() int { return m.textarea.Height() }

func (m *Model) SetWidth(w int) {
	m.textarea.SetWidth(w)
	m.resize()
}

func (m Model) View() string { return m.textarea.View() }

// contentRows counts rows after soft wrapping at the box width.
func (m Model) contentRows() int {
	width := m.textarea.Width()
	rows := 0
	for _, line := range strings.Split(m.textarea.Value(), "\n") {
		w := lipgloss.Width(line)
		if width <= 0 || w <= width {
			rows++
			continue
		}
		rows += (w + width - 1) / width
	}
	return rows
}

func (m *Model) resize() {
	m.textarea.SetHeight(AutoHeight(m.contentRows(), m.rowUnits, m.maxUnits))
}
