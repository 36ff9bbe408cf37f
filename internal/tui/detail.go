package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bissquit/incident-console/internal/api"
	"github.com/bissquit/incident-console/internal/domain"
	"github.com/bissquit/incident-console/internal/store"
	"github.com/bissquit/incident-console/internal/view"
)

// detailView renders one incident with its comment thread. A deleted
// or never-existing incident renders a dedicated not-found panel,
// distinct from both the loading skeleton and the failure panel.
func (m Model) detailView() string {
	entry, ok := m.cache.Get(store.IncidentKey(m.detailID))

	switch {
	case !ok || (entry.Data == nil && entry.State != store.StateError):
		return m.loadingView("Loading incident…")
	case entry.Data == nil && entry.State == store.StateError:
		if errors.Is(entry.Err, api.ErrNotFound) {
			return m.notFoundView()
		}
		return m.errorView("Failed to load incident", entry.Err)
	}

	incident, ok := m.detailIncident()
	if !ok {
		return m.errorView("Failed to load incident", fmt.Errorf("unexpected cache payload %T", entry.Data))
	}

	var b strings.Builder
	b.WriteString(m.incidentHeader(incident))
	b.WriteString("\n\n")
	b.WriteString(m.incidentBody(incident))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().
		Foreground(m.theme.BorderColor).
		Render(repeatRune('─', m.width)))
	b.WriteString("\n")
	b.WriteString(m.commentsView())
	return b.String()
}

func (m Model) notFoundView() string {
	heading := lipgloss.NewStyle().
		Bold(true).
		Foreground(m.theme.NormalText).
		Render("Incident not found")
	hint := lipgloss.NewStyle().
		Foreground(m.theme.FaintText).
		Render("It may have been deleted. Press esc to go back.")

	return lipgloss.NewStyle().
		Width(m.width).
		Align(lipgloss.Center).
		Padding(2, 0).
		Render(heading + "\n" + hint)
}

func (m Model) incidentHeader(incident domain.Incident) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(m.theme.NormalText).
		Render(incident.Title)

	badges := strings.Join([]string{
		view.RenderStatus(m.theme, view.MapStatus(incident.Status)),
		view.RenderPriority(m.theme, view.MapPriority(incident.Priority)),
		view.RenderCategory(m.theme, view.MapCategory(incident.Category)),
	}, "  ")

	id := shortID(incident.ID)
	if m.copiedID == incident.ID {
		id = "✓ copied"
	}
	idLine := lipgloss.NewStyle().
		Foreground(m.theme.FaintText).
		Render("#" + id)
	if m.copiedID == incident.ID {
		idLine = lipgloss.NewStyle().
			Foreground(m.theme.CopiedAccent).
			Render("#" + id)
	}

	return title + "  " + idLine + "\n" + badges
}

func (m Model) incidentBody(incident domain.Incident) string {
	faint := lipgloss.NewStyle().Foreground(m.theme.FaintText)

	meta := faint.Render("Created " + formatTime(incident.CreatedAt))
	if incident.ResolvedAt != nil {
		meta += faint.Render("  ·  Resolved " + formatTime(*incident.ResolvedAt))
	}

	description := incident.Description
	if description == "" {
		return meta + "\n\n" + faint.Italic(true).Render("No description provided")
	}
	return meta + "\n\n" + lipgloss.NewStyle().
		Foreground(m.theme.NormalText).
		Width(m.width).
		Render(description)
}

// commentsView renders the thread section: heading with count, the
// comments themselves, and the input box. The thread has its own
// loading and failure renderings independent of the incident above.
func (m Model) commentsView() string {
	var b strings.Builder

	if m.thread == nil {
		return ""
	}
	entry, ok := m.cache.Get(m.thread.Key())

	switch {
	case !ok || (entry.Data == nil && entry.State != store.StateError):
		b.WriteString(lipgloss.NewStyle().
			Foreground(m.theme.FaintText).
			Render("Loading comments…"))
	case entry.Data == nil && entry.State == store.StateError:
		b.WriteString(lipgloss.NewStyle().
			Foreground(m.theme.ErrorText).
			Render("Failed to load comments: " + api.Reason(entry.Err)))
	default:
		listing, _ := entry.Data.(api.CommentList)
		b.WriteString(m.commentListView(listing))
	}

	b.WriteString("\n\n")
	b.WriteString(m.commentInput.View(m.theme, m.width, m.focus == focusComment, "Press c to write a comment"))
	if m.posting {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().
			Foreground(m.theme.FaintText).
			Render("Posting…"))
	}
	return b.String()
}

func (m Model) commentListView(listing api.CommentList) string {
	heading := lipgloss.NewStyle().
		Bold(true).
		Foreground(m.theme.HeaderForeground).
		Render(fmt.Sprintf("Comments (%d)", listing.Count))

	if len(listing.Data) == 0 {
		empty := lipgloss.NewStyle().
			Foreground(m.theme.FaintText).
			Italic(true).
			Render("No comments yet")
		return heading + "\n\n" + empty
	}

	cursor := clamp(m.commentCursor, 0, len(listing.Data)-1)

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	for i, comment := range listing.Data {
		b.WriteString("\n")
		b.WriteString(m.commentView(comment, i == cursor))
	}
	return b.String()
}

func (m Model) commentView(comment domain.Comment, selected bool) string {
	author := shortID(comment.AuthorID)
	if comment.AuthorID == m.session.User().ID {
		author = "you"
	}

	metaStyle := lipgloss.NewStyle().Foreground(m.theme.FaintText)
	meta := metaStyle.Render(author + " · " + formatTime(comment.CreatedAt))
	if selected && m.canDeleteComment(comment) {
		meta += metaStyle.Render("  ·  d to delete")
	}

	marker := "  "
	bodyStyle := lipgloss.NewStyle().Foreground(m.theme.NormalText)
	if selected {
		marker = lipgloss.NewStyle().
			Foreground(m.theme.HeaderForeground).
			Render("▎ ")
		bodyStyle = bodyStyle.Bold(true)
	}

	return marker + meta + "\n" + marker + bodyStyle.Render(comment.Content)
}
