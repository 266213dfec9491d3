// model.go - Chat log for the Talk2Trade screen.
// Holds the rendered conversation, the typing indicator and the welcome
// placeholder inside a scrollable viewport that always follows the latest entry.

package chat

import (
	"fmt"
	"strings"
	"time"

	"talk2trade/src/models"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// TypingIndicatorID is the key of the single reserved typing entry.
const TypingIndicatorID = "typing-indicator"

// Log is the chat log view. It is mutated only from the Bubble Tea update loop.
type Log struct {
	messages []models.ChatMessage
	rendered []string // cache, one entry per message

	typingID       string // TypingIndicatorID while shown
	welcomeVisible bool

	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	style    string
	width    int

	now func() time.Time
}

// New creates an empty log showing the welcome placeholder. style is a glamour
// standard style name or "auto".
func New(style string) *Log {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	l := &Log{
		welcomeVisible: true,
		viewport:       viewport.New(80, 20),
		spinner:        sp,
		style:          style,
		width:          80,
		now:            time.Now,
	}
	l.renderer = newRenderer(style, l.width)
	l.refresh()
	return l
}

func newRenderer(style string, width int) *glamour.TermRenderer {
	styleOpt := glamour.WithAutoStyle()
	if style != "" && style != "auto" {
		styleOpt = glamour.WithStandardStyle(style)
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return nil
	}
	return r
}

// SetSize resizes the viewport and re-renders for the new width.
func (l *Log) SetSize(width, height int) {
	if width == l.viewport.Width && height == l.viewport.Height {
		return
	}
	l.viewport.Width = width
	l.viewport.Height = height
	if width != l.width {
		l.width = width
		l.renderer = newRenderer(l.style, width-4)
		l.rendered = l.rendered[:0]
		for _, m := range l.messages {
			l.rendered = append(l.rendered, l.renderMessage(m))
		}
	}
	l.refresh()
}

// AppendMessage adds a message, hides the welcome placeholder and scrolls to bottom.
func (l *Log) AppendMessage(role models.Role, content string) {
	msg := models.ChatMessage{Role: role, Content: content, Timestamp: l.now()}
	l.messages = append(l.messages, msg)
	l.rendered = append(l.rendered, l.renderMessage(msg))
	l.welcomeVisible = false
	l.refresh()
}

// ShowTyping shows the typing indicator. It never adds a second indicator;
// the returned command starts the spinner only when the indicator was hidden.
func (l *Log) ShowTyping() tea.Cmd {
	if l.typingID == TypingIndicatorID {
		return nil
	}
	l.typingID = TypingIndicatorID
	l.refresh()
	return l.spinner.Tick
}

// HideTyping removes the typing indicator if present.
func (l *Log) HideTyping() {
	if l.typingID == "" {
		return
	}
	l.typingID = ""
	l.refresh()
}

// Clear empties the log and brings back the welcome placeholder.
func (l *Log) Clear() {
	l.messages = nil
	l.rendered = nil
	l.typingID = ""
	l.welcomeVisible = true
	l.refresh()
}

func (l *Log) Messages() []models.ChatMessage {
	out := make([]models.ChatMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

func (l *Log) TypingVisible() bool  { return l.typingID != "" }
func (l *Log) WelcomeVisible() bool { return l.welcomeVisible }

// LastAssistant returns the most recent assistant message text.
func (l *Log) LastAssistant() (string, bool) {
	for i := len(l.messages) - 1; i >= 0; i-- {
		if !l.messages[i].IsUser() {
			return l.messages[i].Content, true
		}
	}
	return "", false
}

// Update animates the typing spinner and scrolls on PgUp/PgDn or the mouse wheel.
func (l *Log) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if l.typingID == "" {
			return nil
		}
		var cmd tea.Cmd
		l.spinner, cmd = l.spinner.Update(msg)
		l.refresh()
		return cmd
	case tea.KeyMsg:
		switch msg.String() {
		case "pgup", "pgdown":
			var cmd tea.Cmd
			l.viewport, cmd = l.viewport.Update(msg)
			return cmd
		}
	case tea.MouseMsg:
		var cmd tea.Cmd
		l.viewport, cmd = l.viewport.Update(msg)
		return cmd
	}
	return nil
}

func (l *Log) View() string {
	return l.viewport.View()
}

// refresh rebuilds the viewport content and jumps to the latest entry.
func (l *Log) refresh() {
	var parts []string
	if l.welcomeVisible {
		parts = append(parts, welcomeView(l.width))
	}
	parts = append(parts, l.rendered...)
	if l.typingID != "" {
		parts = append(parts, typingStyle.Render(l.spinner.View()+" "+typingLabel))
	}
	l.viewport.SetContent(strings.Join(parts, "\n\n"))
	l.viewport.GotoBottom()
}

func (l *Log) renderMessage(m models.ChatMessage) string {
	ts := timeStyle.Render(m.Timestamp.Format(timeLayout))
	if m.IsUser() {
		header := fmt.Sprintf("%s %s", userTagStyle.Render(userLabel), ts)
		body := userMsgStyle.Width(max(l.width-2, 10)).Render(m.Content)
		return lipgloss.JoinVertical(lipgloss.Left, header, body)
	}
	header := fmt.Sprintf("%s %s", assistantTagStyle.Render(assistantLabel), ts)
	return lipgloss.JoinVertical(lipgloss.Left, header, strings.TrimRight(l.safeRender(m.Content), "\n"))
}

// safeRender renders Markdown and falls back to the raw text if glamour fails.
func (l *Log) safeRender(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = content
		}
	}()

	if l.renderer != nil && content != "" {
		out, err := l.renderer.Render(content)
		if err == nil {
			return out
		}
	}
	return content
}
