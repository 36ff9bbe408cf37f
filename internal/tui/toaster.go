package tui

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

// Toaster delivers mutation outcomes into the bubbletea message loop.
// It implements store.Notifier. Create it before the program, then
// call SetProgram once the tea.Program exists; notifications arriving
// before that are dropped.
type Toaster struct {
	program atomic.Pointer[tea.Program]
}

// NewToaster creates an unconnected toaster.
func NewToaster() *Toaster {
	return &Toaster{}
}

// SetProgram connects the toaster to the running program. Safe to
// call from any goroutine.
func (t *Toaster) SetProgram(program *tea.Program) {
	t.program.Store(program)
}

// Success surfaces a success notification in the status bar.
func (t *Toaster) Success(message string) {
	t.send(toastMsg{kind: toastSuccess, message: message})
}

// Error surfaces an error notification in the status bar.
func (t *Toaster) Error(message string) {
	t.send(toastMsg{kind: toastError, message: message})
}

func (t *Toaster) send(message toastMsg) {
	if program := t.program.Load(); program != nil {
		program.Send(message)
	}
}
