package input

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeText(m Model, s string) Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func pressEnter(m Model) (Model, tea.Cmd) {
	return m.Update(tea.KeyMsg{Type: tea.KeyEnter})
}

func newline(m Model) Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter, Alt: true})
	return m
}

func TestAutoHeight(t *testing.T) {
	tests := []struct {
		rows int
		want int
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{6, 6},
		{7, 6},
		{40, 6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AutoHeight(tt.rows, 20, 120), "rows=%d", tt.rows)
	}
	assert.Equal(t, 3, AutoHeight(10, 20, 60))
}

func TestEnterSubmits(t *testing.T) {
	m := New(DefaultRowUnits, DefaultMaxUnits)
	m.SetWidth(60)
	m = typeText(m, "hello")

	m, cmd := pressEnter(m)
	require.NotNil(t, cmd)
	assert.Equal(t, SubmitMsg{Text: "hello"}, cmd())
	assert.Empty(t, m.Value())
	assert.Equal(t, 1, m.Height())
}

func TestEnterIgnoresBlankInput(t *testing.T) {
	m := New(DefaultRowUnits, DefaultMaxUnits)
	m = typeText(m, "   ")

	m, cmd := pressEnter(m)
	assert.Nil(t, cmd)
	assert.Equal(t, "   ", m.Value())
}

func TestNewlineGrowsBox(t *testing.T) {
	m := New(DefaultRowUnits, DefaultMaxUnits)
	m.SetWidth(60)
	m = typeText(m, "first")
	m = newline(m)
	m = typeText(m, "second")

	assert.Equal(t, "first\nsecond", m.Value())
	assert.Equal(t, 2, m.Height())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlJ})
	m = typeText(m, "third")
	assert.Equal(t, 3, m.Height())
}

func TestHeightIsCapped(t *testing.T) {
	m := New(DefaultRowUnits, DefaultMaxUnits)
	m.SetWidth(60)
	m.SetValue(strings.Repeat("line\n", 20) + "end")

	assert.Equal(t, 6, m.Height())

	m.Reset()
	assert.Equal(t, 1, m.Height())
}

func TestDisabledKeepsDraft(t *testing.T) {
	m := New(DefaultRowUnits, DefaultMaxUnits)
	m = typeText(m, "draft")

	m.SetDisabled(true)
	assert.True(t, m.Disabled())
	m = typeText(m, "more")
	m, cmd := pressEnter(m)
	assert.Nil(t, cmd)
	assert.Equal(t, "draft", m.Value())

	m.SetDisabled(false)
	m = typeText(m, "!")
	assert.Equal(t, "draft!", m.Value())
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want Command
	}{
		{"/markets", CommandMarkets},
		{"  /MARKETS  ", CommandMarkets},
		{"/categories", CommandCategories},
		{"/CATEGORIES", CommandCategories},
		{"/markets now", CommandNone},
		{"markets", CommandNone},
		{"", CommandNone},
		{"/help", CommandNone},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCommand(tt.in))
		})
	}
	assert.Equal(t, "/markets", CommandMarkets.String())
}

func TestSubmit(t *testing.T) {
	m := New(DefaultRowUnits, DefaultMaxUnits)
	m = typeText(m, "  buy BTC  ")

	m.SetDisabled(true)
	_, ok := m.Submit()
	assert.False(t, ok)
	assert.Equal(t, "  buy BTC  ", m.Value())

	m.SetDisabled(false)
	text, ok := m.Submit()
	require.True(t, ok)
	assert.Equal(t, "buy BTC", text)
	assert.Empty(t, m.Value())

	_, ok = m.Submit()
	assert.False(t, ok)
}
