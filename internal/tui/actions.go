package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bissquit/incident-console/internal/api"
	"github.com/bissquit/incident-console/internal/domain"
	"github.com/bissquit/incident-console/internal/store"
)

// listData returns the incident listing when the cache holds a ready
// payload, whether fresh or stale-but-retained.
func (m Model) listData() (api.IncidentList, bool) {
	entry, ok := m.cache.Get(m.listKey())
	if !ok || entry.Data == nil {
		return api.IncidentList{}, false
	}
	listing, ok := entry.Data.(api.IncidentList)
	return listing, ok
}

// selectedIncident returns the incident under the list cursor.
func (m Model) selectedIncident() (domain.Incident, bool) {
	listing, ok := m.listData()
	if !ok || m.cursor < 0 || m.cursor >= len(listing.Data) {
		return domain.Incident{}, false
	}
	return listing.Data[m.cursor], true
}

// detailIncident returns the incident shown on the detail screen.
func (m Model) detailIncident() (domain.Incident, bool) {
	entry, ok := m.cache.Get(store.IncidentKey(m.detailID))
	if !ok || entry.Data == nil {
		return domain.Incident{}, false
	}
	incident, ok := entry.Data.(*domain.Incident)
	if !ok || incident == nil {
		return domain.Incident{}, false
	}
	return *incident, true
}

// commentsData returns the detail screen's comment thread payload.
func (m Model) commentsData() (api.CommentList, bool) {
	if m.thread == nil {
		return api.CommentList{}, false
	}
	entry, ok := m.cache.Get(m.thread.Key())
	if !ok || entry.Data == nil {
		return api.CommentList{}, false
	}
	listing, ok := entry.Data.(api.CommentList)
	return listing, ok
}

// canModify reports whether the session user may edit or delete the
// incident.
func (m Model) canModify(incident domain.Incident) bool {
	return incident.CanModify(m.session.User().ID, m.session.IsPrivileged())
}

// canDeleteComment reports whether the session user may delete the
// comment.
func (m Model) canDeleteComment(comment domain.Comment) bool {
	return comment.CanDelete(m.session.User().ID, m.session.IsPrivileged())
}

// handleMainKey processes navigation and action keys for the active
// screen.
func (m Model) handleMainKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.route == routeList {
		return m.handleListKey(msg)
	}
	return m.handleDetailKey(msg)
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	listing, _ := m.listData()
	last := len(listing.Data) - 1

	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor = clamp(m.cursor-1, 0, last)
	case key.Matches(msg, m.keys.Down):
		m.cursor = clamp(m.cursor+1, 0, last)
	case key.Matches(msg, m.keys.PageUp):
		m.cursor = clamp(m.cursor-10, 0, last)
	case key.Matches(msg, m.keys.PageDown):
		m.cursor = clamp(m.cursor+10, 0, last)
	case key.Matches(msg, m.keys.Home):
		m.cursor = 0
	case key.Matches(msg, m.keys.End):
		m.cursor = clamp(last, 0, last)

	case key.Matches(msg, m.keys.Open):
		if incident, ok := m.selectedIncident(); ok {
			return m.navigateToDetail(incident.ID)
		}

	case key.Matches(msg, m.keys.New):
		m.form = newIncidentForm()
		m.focus = focusForm

	case key.Matches(msg, m.keys.Edit):
		if incident, ok := m.selectedIncident(); ok && m.canModify(incident) {
			m.form = editIncidentForm(incident)
			m.focus = focusForm
		}

	case key.Matches(msg, m.keys.Delete):
		if incident, ok := m.selectedIncident(); ok && m.canModify(incident) {
			m.confirm = &deleteTarget{kind: "incident", incidentID: incident.ID, label: incident.Title}
			m.focus = focusConfirm
		}

	case key.Matches(msg, m.keys.CopyID):
		if incident, ok := m.selectedIncident(); ok {
			m.copiedID = incident.ID
			return m, tea.Batch(copyToClipboard(incident.ID), fadeCopied(incident.ID))
		}

	case key.Matches(msg, m.keys.Refresh):
		m.queries.Refresh(m.listKey())
	}

	return m, nil
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	comments, _ := m.commentsData()
	last := len(comments.Data) - 1

	switch {
	case key.Matches(msg, m.keys.Back):
		m = m.navigateToList()

	case key.Matches(msg, m.keys.Up):
		m.commentCursor = clamp(m.commentCursor-1, 0, last)
	case key.Matches(msg, m.keys.Down):
		m.commentCursor = clamp(m.commentCursor+1, 0, last)
	case key.Matches(msg, m.keys.Home):
		m.commentCursor = 0
	case key.Matches(msg, m.keys.End):
		m.commentCursor = clamp(last, 0, last)

	case key.Matches(msg, m.keys.Comment):
		m.focus = focusComment

	case key.Matches(msg, m.keys.Edit):
		if incident, ok := m.detailIncident(); ok && m.canModify(incident) {
			m.form = editIncidentForm(incident)
			m.focus = focusForm
		}

	case key.Matches(msg, m.keys.Delete):
		if m.commentCursor >= 0 && m.commentCursor < len(comments.Data) {
			comment := comments.Data[m.commentCursor]
			if m.canDeleteComment(comment) {
				m.confirm = &deleteTarget{
					kind:       "comment",
					incidentID: m.detailID,
					commentID:  comment.ID,
					label:      "this comment",
				}
				m.focus = focusConfirm
			}
		}

	case key.Matches(msg, m.keys.CopyID):
		m.copiedID = m.detailID
		return m, tea.Batch(copyToClipboard(m.detailID), fadeCopied(m.detailID))

	case key.Matches(msg, m.keys.Refresh):
		m.queries.Refresh(store.IncidentKey(m.detailID))
		if m.thread != nil {
			m.queries.Refresh(m.thread.Key())
		}
	}

	return m, nil
}

// handleCommentKey drives the comment input while it has focus.
func (m Model) handleCommentKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.focus = focusMain
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		if m.posting {
			return m, nil
		}
		m.posting = true
		return m, m.addComment(m.commentInput.Value())
	}

	m.commentInput.Update(msg)
	return m, nil
}

// handleConfirmKey resolves a pending delete confirmation. Anything
// other than an explicit yes cancels.
func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	target := m.confirm
	m.confirm = nil
	m.focus = focusMain
	if target == nil {
		return m, nil
	}

	if msg.String() != "y" {
		return m, nil
	}

	switch target.kind {
	case "incident":
		return m, m.deleteIncident(target.incidentID)
	case "comment":
		return m, m.removeComment(target.commentID)
	}
	return m, nil
}

// navigateToDetail opens the detail screen for the incident. The
// comment thread controller is rebuilt so completions for a previously
// viewed incident cannot leak into this one.
func (m Model) navigateToDetail(id string) (tea.Model, tea.Cmd) {
	m.route = routeDetail
	m.detailID = id
	m.thread = store.NewCommentThread(id, m.cache, m.queries, m.mutations, m.client, m.pageSize)
	m.commentCursor = 0
	m.focus = focusMain
	m.posting = false
	return m, m.readIncident(id)
}

// navigateToList returns to the listing, dropping detail-scoped state.
func (m Model) navigateToList() Model {
	m.route = routeList
	m.detailID = ""
	m.thread = nil
	m.commentCursor = 0
	m.focus = focusMain
	m.posting = false
	m.commentInput.Clear()
	return m
}

// addComment posts a comment through the thread controller. Validation
// (including the whitespace-only guard) happens in the controller, so
// a rejected comment never produces network traffic.
func (m Model) addComment(content string) tea.Cmd {
	thread := m.thread
	return func() tea.Msg {
		_, err := thread.Add(m.ctx, content)
		return mutationDoneMsg{op: "createComment", err: err}
	}
}

func (m Model) removeComment(commentID string) tea.Cmd {
	thread := m.thread
	return func() tea.Msg {
		err := thread.Remove(m.ctx, commentID)
		return mutationDoneMsg{op: "deleteComment", err: err}
	}
}

func (m Model) deleteIncident(id string) tea.Cmd {
	return func() tea.Msg {
		err := m.mutations.DeleteIncident(m.ctx, id)
		return mutationDoneMsg{op: "deleteIncident", err: err}
	}
}

func clamp(value, low, high int) int {
	if high < low {
		return low
	}
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
