package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// View renders the active screen plus the status bar. The form, when
// open, replaces the screen body; the confirmation prompt replaces the
// status bar.
func (m Model) View() string {
	var body string
	switch {
	case m.form != nil:
		body = m.formView()
	case m.route == routeDetail:
		body = m.detailView()
	default:
		body = m.listView()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		body,
		m.statusView(),
	)
}

func (m Model) headerView() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(m.theme.HeaderForeground).
		Render("Incident Console")

	who := lipgloss.NewStyle().
		Foreground(m.theme.FaintText).
		Render(m.session.User().Email)

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(who)
	if gap < 1 {
		gap = 1
	}
	line := title + lipgloss.NewStyle().Width(gap).Render("") + who

	rule := lipgloss.NewStyle().
		Foreground(m.theme.BorderColor).
		Render(repeatRune('─', m.width))
	return line + "\n" + rule
}

// statusView renders, in priority order: the delete confirmation, the
// active toast, or the contextual help line.
func (m Model) statusView() string {
	if m.confirm != nil {
		prompt := fmt.Sprintf("Delete %s? (y/N)", m.confirm.label)
		return lipgloss.NewStyle().
			Bold(true).
			Foreground(m.theme.ErrorText).
			Render(prompt)
	}

	if m.toast.message != "" {
		color := m.theme.SuccessText
		if m.toast.kind == toastError {
			color = m.theme.ErrorText
		}
		return lipgloss.NewStyle().Foreground(color).Render(m.toast.message)
	}

	return lipgloss.NewStyle().
		Foreground(m.theme.HelpText).
		Render(m.helpLine())
}

func (m Model) helpLine() string {
	switch {
	case m.focus == focusForm:
		return "tab next field  ←/→ change value  enter save  esc cancel"
	case m.focus == focusComment:
		return "enter post  esc cancel"
	case m.route == routeDetail:
		return "c comment  e edit  d delete comment  y copy id  r refresh  esc back  q quit"
	default:
		return "↑/↓ move  enter open  n new  e edit  d delete  y copy id  r refresh  q quit"
	}
}

// formatTime renders timestamps in the console's fixed layout.
func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

// shortID abbreviates a UUID for table display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func repeatRune(r rune, count int) string {
	if count < 0 {
		count = 0
	}
	runes := make([]rune, count)
	for i := range runes {
		runes[i] = r
	}
	return string(runes)
}
