package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	figure "github.com/common-nighthawk/go-figure"
)

var welcomeHints = []string{
	"Ask about prediction markets, prices and events.",
	"/markets      market data status",
	"/categories   event categories",
	"ctrl+r record voice · ctrl+n new chat · ctrl+y copy last reply",
}

// welcomeView renders the placeholder shown while the log is empty.
func welcomeView(width int) string {
	banner := strings.Trim(figure.NewFigure("Talk2Trade", "", true).String(), "\n")
	if width > 0 && lipgloss.Width(banner) > width {
		banner = "T A L K 2 T R A D E"
	}

	hints := make([]string, len(welcomeHints))
	for i, h := range welcomeHints {
		hints[i] = hintStyle.Render(h)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		bannerStyle.Render(banner),
		"",
		strings.Join(hints, "\n"),
	)
}
