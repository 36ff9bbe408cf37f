package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bissquit/incident-console/internal/view"
)

// lineInput is a single-line text editor with cursor tracking, used
// by the comment box and the incident form fields.
type lineInput struct {
	runes  []rune
	cursor int
}

// Value returns the current text.
func (input lineInput) Value() string { return string(input.runes) }

// SetValue replaces the text and moves the cursor to the end.
func (input *lineInput) SetValue(value string) {
	input.runes = []rune(value)
	input.cursor = len(input.runes)
}

// Clear empties the input.
func (input *lineInput) Clear() {
	input.runes = nil
	input.cursor = 0
}

// Update processes a key message.
func (input *lineInput) Update(message tea.KeyMsg) {
	switch message.Type {
	case tea.KeyRunes, tea.KeySpace:
		for _, character := range message.Runes {
			input.insertRune(character)
		}

	case tea.KeyBackspace:
		if input.cursor > 0 {
			input.runes = append(input.runes[:input.cursor-1], input.runes[input.cursor:]...)
			input.cursor--
		}

	case tea.KeyDelete:
		if input.cursor < len(input.runes) {
			input.runes = append(input.runes[:input.cursor], input.runes[input.cursor+1:]...)
		}

	case tea.KeyLeft:
		if input.cursor > 0 {
			input.cursor--
		}

	case tea.KeyRight:
		if input.cursor < len(input.runes) {
			input.cursor++
		}

	case tea.KeyHome, tea.KeyCtrlA:
		input.cursor = 0

	case tea.KeyEnd, tea.KeyCtrlE:
		input.cursor = len(input.runes)
	}
}

func (input *lineInput) insertRune(character rune) {
	line := make([]rune, len(input.runes)+1)
	copy(line, input.runes[:input.cursor])
	line[input.cursor] = character
	copy(line[input.cursor+1:], input.runes[input.cursor:])
	input.runes = line
	input.cursor++
}

// View renders the input at the given width, drawing the cursor when
// focused and a placeholder when empty.
func (input lineInput) View(theme view.Theme, width int, focused bool, placeholder string) string {
	textStyle := lipgloss.NewStyle().Foreground(theme.NormalText)
	cursorStyle := lipgloss.NewStyle().Reverse(true)
	placeholderStyle := lipgloss.NewStyle().Foreground(theme.FaintText)

	var content string
	switch {
	case len(input.runes) == 0 && !focused:
		content = placeholderStyle.Render(placeholder)
	case len(input.runes) == 0:
		content = cursorStyle.Render(" ")
	case focused && input.cursor >= len(input.runes):
		content = textStyle.Render(string(input.runes)) + cursorStyle.Render(" ")
	case focused:
		before := textStyle.Render(string(input.runes[:input.cursor]))
		at := cursorStyle.Render(string(input.runes[input.cursor : input.cursor+1]))
		after := textStyle.Render(string(input.runes[input.cursor+1:]))
		content = before + at + after
	default:
		content = textStyle.Render(string(input.runes))
	}

	borderColor := theme.BorderColor
	if focused {
		borderColor = theme.HeaderForeground
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Width(max(width-2, 10)).
		Render(content)
}

// trimmedValue returns the text with surrounding whitespace removed.
func (input lineInput) trimmedValue() string {
	return strings.TrimSpace(input.Value())
}
