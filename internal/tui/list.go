package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/bissquit/incident-console/internal/api"
	"github.com/bissquit/incident-console/internal/domain"
	"github.com/bissquit/incident-console/internal/store"
	"github.com/bissquit/incident-console/internal/view"
)

// listView renders the incident listing. The three failure modes are
// visually distinct: a loading skeleton while the first fetch is in
// flight, an error panel when the fetch failed with nothing cached,
// and the empty state when the server returned zero incidents. A
// stale-but-cached listing keeps rendering while its refetch runs.
func (m Model) listView() string {
	entry, ok := m.cache.Get(m.listKey())

	switch {
	case !ok || (entry.Data == nil && entry.State != store.StateError):
		return m.loadingView("Loading incidents…")
	case entry.Data == nil && entry.State == store.StateError:
		return m.errorView("Failed to load incidents", entry.Err)
	}

	listing, ok := entry.Data.(api.IncidentList)
	if !ok {
		return m.errorView("Failed to load incidents", fmt.Errorf("unexpected cache payload %T", entry.Data))
	}

	columns := []view.Column[domain.Incident]{
		{Header: "ID", Width: 10, Cell: m.idCell},
		{Header: "Title", Width: 0, Cell: func(incident domain.Incident) string {
			return lipgloss.NewStyle().Foreground(m.theme.NormalText).Render(incident.Title)
		}},
		{Header: "Status", Width: 11, Cell: func(incident domain.Incident) string {
			return view.RenderStatus(m.theme, view.MapStatus(incident.Status))
		}},
		{Header: "Priority", Width: 8, Cell: func(incident domain.Incident) string {
			return view.RenderPriority(m.theme, view.MapPriority(incident.Priority))
		}},
		{Header: "Category", Width: 15, Cell: func(incident domain.Incident) string {
			return view.RenderCategory(m.theme, view.MapCategory(incident.Category))
		}},
	}
	// On narrow terminals the description's space goes to the title;
	// the detail screen still shows the full description.
	if m.width >= 110 {
		columns = append(columns, view.Column[domain.Incident]{
			Header: "Description", Width: 24, Cell: m.descriptionCell,
		})
	}

	table := view.Table[domain.Incident]{
		Theme:      m.theme,
		EmptyTitle: "You don't have any incidents yet",
		EmptyHint:  "Add a new incident to get started",
		Columns:    columns,
	}

	body := table.Render(listing.Data, m.cursor, m.width)

	count := lipgloss.NewStyle().
		Foreground(m.theme.FaintText).
		Render(fmt.Sprintf("%d of %d incidents", len(listing.Data), listing.Count))
	if entry.Stale {
		count += lipgloss.NewStyle().
			Foreground(m.theme.FaintText).
			Render("  (refreshing…)")
	}

	return body + "\n\n" + count
}

// idCell shows the abbreviated incident ID, replaced briefly by a
// copied indicator after the ID was put on the clipboard.
func (m Model) idCell(incident domain.Incident) string {
	if m.copiedID == incident.ID {
		return lipgloss.NewStyle().
			Foreground(m.theme.CopiedAccent).
			Render("✓ copied")
	}
	return lipgloss.NewStyle().
		Foreground(m.theme.FaintText).
		Render(shortID(incident.ID))
}

// descriptionCell shows the description or a faint placeholder.
func (m Model) descriptionCell(incident domain.Incident) string {
	if incident.Description == "" {
		return lipgloss.NewStyle().
			Foreground(m.theme.FaintText).
			Italic(true).
			Render("No description")
	}
	return lipgloss.NewStyle().Foreground(m.theme.NormalText).Render(incident.Description)
}

// loadingView renders the fetch-in-flight skeleton.
func (m Model) loadingView(message string) string {
	return lipgloss.NewStyle().
		Width(m.width).
		Align(lipgloss.Center).
		Padding(2, 0).
		Foreground(m.theme.FaintText).
		Render(message)
}

// errorView renders a failed fetch with the reason and a retry hint.
func (m Model) errorView(title string, err error) string {
	heading := lipgloss.NewStyle().
		Bold(true).
		Foreground(m.theme.ErrorText).
		Render(title)
	reason := lipgloss.NewStyle().
		Foreground(m.theme.FaintText).
		Render(api.Reason(err))
	hint := lipgloss.NewStyle().
		Foreground(m.theme.HelpText).
		Render("Press r to retry")

	return lipgloss.NewStyle().
		Width(m.width).
		Align(lipgloss.Center).
		Padding(2, 0).
		Render(heading + "\n" + reason + "\n\n" + hint)
}
