package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bissquit/incident-console/internal/api"
	"github.com/bissquit/incident-console/internal/domain"
	"github.com/bissquit/incident-console/internal/view"
)

// formField indexes the focusable fields of the incident form.
type formField int

const (
	fieldTitle formField = iota
	fieldDescription
	fieldStatus
	fieldPriority
	fieldCategory
	fieldCount
)

var (
	formStatuses = []domain.IncidentStatus{
		domain.IncidentStatusOpen,
		domain.IncidentStatusInProgress,
		domain.IncidentStatusResolved,
	}
	formPriorities = []domain.IncidentPriority{
		domain.IncidentPriorityLow,
		domain.IncidentPriorityMedium,
		domain.IncidentPriorityHigh,
		domain.IncidentPriorityCritical,
	}
	formCategories = []domain.IncidentCategory{
		domain.IncidentCategoryBug,
		domain.IncidentCategoryFeatureRequest,
		domain.IncidentCategoryQuestion,
		domain.IncidentCategoryDocumentation,
	}
)

// incidentForm holds the state of the create/edit incident form.
// Creating leaves status at the server default; editing exposes it so
// incidents can be moved to resolved (the server stamps resolved_at).
// The option slices are per-form: editing an incident carrying an enum
// value this build does not know keeps that value selectable, so
// saving other fields never rewrites it to a default.
type incidentForm struct {
	editing    bool
	incidentID string

	title       lineInput
	description lineInput
	statuses    []domain.IncidentStatus
	priorities  []domain.IncidentPriority
	categories  []domain.IncidentCategory
	status      int
	priority    int
	category    int

	field formField
}

// newIncidentForm creates a blank form with the server defaults
// preselected.
func newIncidentForm() *incidentForm {
	form := &incidentForm{}
	form.statuses, form.status = formOptions(formStatuses, "", domain.DefaultStatus)
	form.priorities, form.priority = formOptions(formPriorities, "", domain.DefaultPriority)
	form.categories, form.category = formOptions(formCategories, "", domain.DefaultCategory)
	return form
}

// editIncidentForm creates a form prefilled from an existing incident.
func editIncidentForm(incident domain.Incident) *incidentForm {
	form := &incidentForm{
		editing:    true,
		incidentID: incident.ID,
	}
	form.statuses, form.status = formOptions(formStatuses, incident.Status, domain.DefaultStatus)
	form.priorities, form.priority = formOptions(formPriorities, incident.Priority, domain.DefaultPriority)
	form.categories, form.category = formOptions(formCategories, incident.Category, domain.DefaultCategory)
	form.title.SetValue(incident.Title)
	form.description.SetValue(incident.Description)
	return form
}

// formOptions resolves the selectable values for one enum field. An
// unrecognized value is appended rather than mapped to a default, so
// it survives a round trip through the form untouched.
func formOptions[T ~string](known []T, value, fallback T) ([]T, int) {
	if value == "" {
		value = fallback
	}
	for i, v := range known {
		if v == value {
			return known, i
		}
	}
	return append(append([]T{}, known...), value), len(known)
}

// nextField advances focus, skipping the status row when creating.
func (f *incidentForm) nextField() {
	for {
		f.field = (f.field + 1) % fieldCount
		if f.field == fieldStatus && !f.editing {
			continue
		}
		return
	}
}

// cycle shifts the focused enum field by delta.
func (f *incidentForm) cycle(delta int) {
	switch f.field {
	case fieldStatus:
		f.status = wrap(f.status+delta, len(f.statuses))
	case fieldPriority:
		f.priority = wrap(f.priority+delta, len(f.priorities))
	case fieldCategory:
		f.category = wrap(f.category+delta, len(f.categories))
	}
}

func wrap(value, size int) int {
	return ((value % size) + size) % size
}

// onTextField reports whether keystrokes should go to a line input.
func (f *incidentForm) onTextField() bool {
	return f.field == fieldTitle || f.field == fieldDescription
}

func (f *incidentForm) focusedInput() *lineInput {
	if f.field == fieldDescription {
		return &f.description
	}
	return &f.title
}

// handleFormKey drives the incident form while it has focus.
func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	form := m.form
	if form == nil {
		m.focus = focusMain
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.form = nil
		m.focus = focusMain
		return m, nil

	case key.Matches(msg, m.keys.Next):
		form.nextField()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		if m.posting {
			return m, nil
		}
		m.posting = true
		return m, m.submitForm(*form)
	}

	if form.onTextField() {
		form.focusedInput().Update(msg)
		return m, nil
	}

	switch msg.Type {
	case tea.KeyLeft:
		form.cycle(-1)
	case tea.KeyRight:
		form.cycle(1)
	}
	return m, nil
}

// submitForm issues the create or update through the mutation
// controller. Validation failures surface as toasts via the notifier;
// the form stays open so the input is not lost.
func (m Model) submitForm(form incidentForm) tea.Cmd {
	if form.editing {
		title := form.title.trimmedValue()
		description := strings.TrimSpace(form.description.Value())
		status := form.statuses[form.status]
		priority := form.priorities[form.priority]
		category := form.categories[form.category]
		payload := api.IncidentUpdate{
			Title:       &title,
			Description: &description,
			Status:      &status,
			Priority:    &priority,
			Category:    &category,
		}
		return func() tea.Msg {
			_, err := m.mutations.UpdateIncident(m.ctx, form.incidentID, payload)
			return mutationDoneMsg{op: "updateIncident", err: err}
		}
	}

	payload := api.IncidentCreate{
		Title:       form.title.trimmedValue(),
		Description: strings.TrimSpace(form.description.Value()),
		Priority:    form.priorities[form.priority],
		Category:    form.categories[form.category],
	}
	return func() tea.Msg {
		_, err := m.mutations.CreateIncident(m.ctx, payload)
		return mutationDoneMsg{op: "createIncident", err: err}
	}
}

// formView renders the incident form.
func (m Model) formView() string {
	form := m.form
	if form == nil {
		return ""
	}

	heading := "New Incident"
	if form.editing {
		heading = "Edit Incident"
	}

	labelStyle := lipgloss.NewStyle().Foreground(m.theme.FaintText)
	width := min(m.width, 72)

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().
		Bold(true).
		Foreground(m.theme.HeaderForeground).
		Render(heading))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Title"))
	b.WriteString("\n")
	b.WriteString(form.title.View(m.theme, width, m.focus == focusForm && form.field == fieldTitle, "What happened?"))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Description"))
	b.WriteString("\n")
	b.WriteString(form.description.View(m.theme, width, m.focus == focusForm && form.field == fieldDescription, "Optional details"))
	b.WriteString("\n\n")

	if form.editing {
		b.WriteString(m.enumRow("Status", view.RenderStatus(m.theme, view.MapStatus(form.statuses[form.status])), form.field == fieldStatus))
		b.WriteString("\n")
	}
	b.WriteString(m.enumRow("Priority", view.RenderPriority(m.theme, view.MapPriority(form.priorities[form.priority])), form.field == fieldPriority))
	b.WriteString("\n")
	b.WriteString(m.enumRow("Category", view.RenderCategory(m.theme, view.MapCategory(form.categories[form.category])), form.field == fieldCategory))

	if m.posting {
		b.WriteString("\n\n")
		b.WriteString(labelStyle.Render("Saving…"))
	}
	return b.String()
}

// enumRow renders a cycling enum field with a focus marker.
func (m Model) enumRow(label, value string, focused bool) string {
	marker := "  "
	if focused {
		marker = lipgloss.NewStyle().
			Foreground(m.theme.HeaderForeground).
			Render("▸ ")
		value = "◂ " + value + " ▸"
	}
	labelStyle := lipgloss.NewStyle().Foreground(m.theme.FaintText).Width(10)
	return marker + labelStyle.Render(label) + value
}
