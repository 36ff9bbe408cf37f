package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bissquit/incident-console/internal/store"
)

// readDoneMsg reports a completed query read. The payload itself lives
// in the cache; the message only wakes the model so the view re-reads
// current state. Key identifies which read finished so a model that
// has navigated away can ignore it.
type readDoneMsg struct {
	key store.Key
	err error
}

// mutationDoneMsg reports a completed mutation command.
type mutationDoneMsg struct {
	op  string
	err error
}

// cacheChangedMsg wakes the model when a cache entry changes (set,
// fetch lifecycle, invalidation) so bound views re-render and stale
// keys refetch.
type cacheChangedMsg struct {
	key store.Key
}

// toastMsg surfaces a success or error notification in the status bar.
type toastMsg struct {
	kind    toastKind
	message string
}

// toastFadeMsg clears the toast after its display period.
type toastFadeMsg struct {
	seq int
}

// copiedFadeMsg reverts the "copied" acknowledgement on the id column.
type copiedFadeMsg struct {
	id string
}

type toastKind int

const (
	toastSuccess toastKind = iota
	toastError
)

const (
	toastFadeDelay  = 4 * time.Second
	copiedFadeDelay = 2 * time.Second
)

// fadeToast schedules the toast with the given sequence number to
// clear; a newer toast keeps its own fade timer.
func fadeToast(seq int) tea.Cmd {
	return tea.Tick(toastFadeDelay, func(time.Time) tea.Msg {
		return toastFadeMsg{seq: seq}
	})
}

// fadeCopied schedules the copied acknowledgement for id to revert.
func fadeCopied(id string) tea.Cmd {
	return tea.Tick(copiedFadeDelay, func(time.Time) tea.Msg {
		return copiedFadeMsg{id: id}
	})
}
