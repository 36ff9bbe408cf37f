// Package tui implements the terminal user interface for the incident
// console. Built on bubbletea (Elm architecture): a single logical
// thread processes key events and network-completion messages, so no
// operation ever blocks the event loop. Network reads go through the
// store's query controller (cache-first, de-duplicated); mutations go
// through the mutation controller, whose cache invalidations flow
// back into the model as change messages.
package tui

import (
	"context"
	"errors"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bissquit/incident-console/internal/api"
	"github.com/bissquit/incident-console/internal/auth"
	"github.com/bissquit/incident-console/internal/domain"
	"github.com/bissquit/incident-console/internal/store"
	"github.com/bissquit/incident-console/internal/view"
)

// route identifies which screen is active.
type route int

const (
	routeList route = iota
	routeDetail
)

// focusRegion identifies where keyboard input goes.
type focusRegion int

const (
	// focusMain means navigation keys drive the active screen.
	focusMain focusRegion = iota
	// focusComment means keystrokes go to the comment input.
	focusComment
	// focusForm means the create/edit incident form is active.
	focusForm
	// focusConfirm means a delete confirmation is pending.
	focusConfirm
)

// deleteTarget describes a pending delete confirmation.
type deleteTarget struct {
	kind       string // "incident" or "comment"
	incidentID string
	commentID  string
	label      string
}

// toast is the transient status-bar notification.
type toast struct {
	kind    toastKind
	message string
	seq     int
}

// Model is the bubbletea model for the console.
type Model struct {
	ctx    context.Context
	theme  view.Theme
	keys   KeyMap
	logger *slog.Logger

	cache     *store.Cache
	queries   *store.Queries
	mutations *store.Mutations
	client    *api.Client
	session   *auth.Session
	pageSize  int

	// changes receives cache change notifications; each receipt is
	// forwarded into the message loop as cacheChangedMsg.
	changes <-chan store.Key

	width  int
	height int

	route  route
	cursor int

	// Detail state. thread is scoped to detailID and rebuilt on every
	// navigation, so a late fetch completion for a previous incident
	// never repaints the current view.
	detailID      string
	thread        *store.CommentThread
	commentCursor int

	focus        focusRegion
	commentInput lineInput
	posting      bool
	form         *incidentForm
	confirm      *deleteTarget

	copiedID string
	toast    toast
	toastSeq int
}

// NewModel creates the console model. The cache, controllers and
// session are constructed by the caller so tests can substitute their
// own.
func NewModel(ctx context.Context, client *api.Client, cache *store.Cache, queries *store.Queries, mutations *store.Mutations, session *auth.Session, pageSize int, logger *slog.Logger) Model {
	return Model{
		ctx:       ctx,
		theme:     view.DefaultTheme,
		keys:      DefaultKeyMap,
		logger:    logger,
		cache:     cache,
		queries:   queries,
		mutations: mutations,
		client:    client,
		session:   session,
		pageSize:  pageSize,
		changes:   cache.Subscribe(),
		width:     80,
		height:    24,
	}
}

// listKey is the cache key for the incident listing page this model
// displays.
func (m Model) listKey() store.Key {
	return store.IncidentListKey(0, m.pageSize)
}

// Init starts the initial listing fetch and the cache change pump.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.readIncidents(), m.waitForChange())
}

// waitForChange forwards one cache notification into the loop; the
// handler re-arms it.
func (m Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		key, ok := <-m.changes
		if !ok {
			return nil
		}
		return cacheChangedMsg{key: key}
	}
}

// readIncidents reads the listing through the query controller. The
// result lands in the cache; the message only wakes the model.
func (m Model) readIncidents() tea.Cmd {
	key := m.listKey()
	return func() tea.Msg {
		_, err := store.Read(m.ctx, m.queries, key, func(ctx context.Context) (api.IncidentList, error) {
			return m.client.ListIncidents(ctx, 0, m.pageSize)
		})
		return readDoneMsg{key: key, err: err}
	}
}

// readIncident reads one incident for the detail view.
func (m Model) readIncident(id string) tea.Cmd {
	key := store.IncidentKey(id)
	return func() tea.Msg {
		_, err := store.Read(m.ctx, m.queries, key, func(ctx context.Context) (*domain.Incident, error) {
			return m.client.GetIncident(ctx, id)
		})
		return readDoneMsg{key: key, err: err}
	}
}

// readComments reads the comment thread. The thread controller gates
// the fetch on the parent incident being loaded.
func (m Model) readComments() tea.Cmd {
	thread := m.thread
	if thread == nil {
		return nil
	}
	key := thread.Key()
	return func() tea.Msg {
		_, err := thread.Load(m.ctx)
		if errors.Is(err, store.ErrParentNotLoaded) {
			// Parent fetch still in flight; the incident's readDoneMsg
			// re-triggers the thread load.
			return nil
		}
		return readDoneMsg{key: key, err: err}
	}
}

// Update is the single dispatch point for every event.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case cacheChangedMsg:
		cmds := []tea.Cmd{m.waitForChange()}
		if cmd := m.refetchIfStale(msg.key); cmd != nil {
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case readDoneMsg:
		return m.handleReadDone(msg)

	case mutationDoneMsg:
		return m.handleMutationDone(msg)

	case toastMsg:
		m.toastSeq++
		m.toast = toast{kind: msg.kind, message: msg.message, seq: m.toastSeq}
		return m, fadeToast(m.toastSeq)

	case toastFadeMsg:
		if m.toast.seq == msg.seq {
			m.toast = toast{}
		}
		return m, nil

	case copiedFadeMsg:
		if m.copiedID == msg.id {
			m.copiedID = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// refetchIfStale triggers a refetch when a key relevant to the
// current screen went stale (mutation invalidation or manual
// refresh). Irrelevant keys are left stale until a view needs them.
func (m Model) refetchIfStale(key store.Key) tea.Cmd {
	entry, ok := m.cache.Get(key)
	if !ok || !entry.Stale || entry.State == store.StateLoading {
		return nil
	}

	switch m.route {
	case routeList:
		if key == m.listKey() {
			return m.readIncidents()
		}
	case routeDetail:
		if key == store.IncidentKey(m.detailID) {
			return m.readIncident(m.detailID)
		}
		if m.thread != nil && key == m.thread.Key() {
			return m.readComments()
		}
		if key == m.listKey() {
			// Keep the listing warm so going back is instant.
			return m.readIncidents()
		}
	}
	return nil
}

// handleReadDone applies a completed read. Reads for keys the model
// is no longer interested in (navigated away) are ignored; the cache
// keeps the payload but nothing repaints.
func (m Model) handleReadDone(msg readDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Warn("read failed", "key", msg.key.String(), "error", msg.err)
	}

	if m.route == routeDetail && msg.key == store.IncidentKey(m.detailID) && msg.err == nil {
		// Parent confirmed; the comment thread may now load.
		return m, m.readComments()
	}
	return m, nil
}

// handleMutationDone finalizes a mutation command: clears transient
// input on success, leaves it untouched on failure so the user can
// retry without retyping. Toasts arrive separately via the notifier.
func (m Model) handleMutationDone(msg mutationDoneMsg) (tea.Model, tea.Cmd) {
	m.posting = false

	if msg.err != nil {
		return m, nil
	}

	switch msg.op {
	case "createComment":
		m.commentInput.Clear()
		m.focus = focusMain
	case "createIncident", "updateIncident":
		m.form = nil
		m.focus = focusMain
	case "deleteIncident":
		if m.route == routeDetail {
			m = m.navigateToList()
		}
	}
	return m, nil
}

// handleKey routes keystrokes by focus region.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.focus {
	case focusForm:
		return m.handleFormKey(msg)
	case focusConfirm:
		return m.handleConfirmKey(msg)
	case focusComment:
		return m.handleCommentKey(msg)
	default:
		return m.handleMainKey(msg)
	}
}
