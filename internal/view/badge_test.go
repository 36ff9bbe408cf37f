package view

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bissquit/incident-console/internal/domain"
)

func TestMapStatus(t *testing.T) {
	tests := []struct {
		name    string
		value   domain.IncidentStatus
		label   string
		variant BadgeVariant
		known   bool
	}{
		{"open", domain.IncidentStatusOpen, "Open", VariantOutline, true},
		{"in progress", domain.IncidentStatusInProgress, "In Progress", VariantSolid, true},
		{"resolved", domain.IncidentStatusResolved, "Resolved", VariantSecondary, true},
		{"absent takes default", "", "Open", VariantOutline, true},
		{"unknown passes through", "escalated", "escalated", VariantNeutral, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			badge := MapStatus(tt.value)
			assert.Equal(t, tt.label, badge.Label)
			assert.Equal(t, tt.variant, badge.Variant)
			assert.Equal(t, tt.known, badge.Known)
		})
	}
}

func TestMapPriority(t *testing.T) {
	tests := []struct {
		name  string
		value domain.IncidentPriority
		label string
		tone  PriorityTone
		known bool
	}{
		{"low", domain.IncidentPriorityLow, "Low", ToneLow, true},
		{"medium", domain.IncidentPriorityMedium, "Medium", ToneMedium, true},
		{"high", domain.IncidentPriorityHigh, "High", ToneHigh, true},
		{"critical", domain.IncidentPriorityCritical, "Critical", ToneCritical, true},
		{"absent takes default", "", "Medium", ToneMedium, true},
		{"unknown passes through", "blocker", "blocker", ToneNeutral, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			badge := MapPriority(tt.value)
			assert.Equal(t, tt.label, badge.Label)
			assert.Equal(t, tt.tone, badge.Tone)
			assert.Equal(t, tt.known, badge.Known)
		})
	}
}

func TestMapCategory(t *testing.T) {
	tests := []struct {
		name  string
		value domain.IncidentCategory
		label string
		known bool
	}{
		{"bug", domain.IncidentCategoryBug, "Bug", true},
		{"feature request", domain.IncidentCategoryFeatureRequest, "Feature Request", true},
		{"question", domain.IncidentCategoryQuestion, "Question", true},
		{"documentation", domain.IncidentCategoryDocumentation, "Documentation", true},
		{"absent takes default", "", "Bug", true},
		{"unknown passes through", "outage", "outage", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label := MapCategory(tt.value)
			assert.Equal(t, tt.label, label.Label)
			assert.Equal(t, tt.known, label.Known)
		})
	}
}

func TestRenderUnknownValuesNeverPanic(t *testing.T) {
	theme := DefaultTheme

	// Every mapping must be total: any server value renders something.
	for _, raw := range []string{"", "open", "whatever", "in_progress", "??"} {
		assert.NotEmpty(t, RenderStatus(theme, MapStatus(domain.IncidentStatus(raw))))
		assert.NotEmpty(t, RenderPriority(theme, MapPriority(domain.IncidentPriority(raw))))
		assert.NotEmpty(t, RenderCategory(theme, MapCategory(domain.IncidentCategory(raw))))
	}
}
