package view

import "github.com/bissquit/incident-console/internal/domain"

// BadgeVariant is the visual treatment of a status badge.
type BadgeVariant string

const (
	VariantOutline   BadgeVariant = "outline"
	VariantSolid     BadgeVariant = "solid"
	VariantSecondary BadgeVariant = "secondary"
	// VariantNeutral is the fallback treatment for enum values this
	// client does not recognize.
	VariantNeutral BadgeVariant = "neutral"
)

// PriorityTone selects the color treatment of a priority badge.
type PriorityTone string

const (
	ToneLow      PriorityTone = "low"
	ToneMedium   PriorityTone = "medium"
	ToneHigh     PriorityTone = "high"
	ToneCritical PriorityTone = "critical"
	ToneNeutral  PriorityTone = "neutral"
)

// StatusBadge is the display form of an incident status.
type StatusBadge struct {
	Label   string
	Variant BadgeVariant
	// Known is false when the server sent a value this client has no
	// mapping for; Label then carries the raw value unchanged.
	Known bool
}

// PriorityBadge is the display form of an incident priority.
type PriorityBadge struct {
	Label string
	Tone  PriorityTone
	Known bool
}

// CategoryLabel is the display form of an incident category.
type CategoryLabel struct {
	Label string
	Known bool
}

var statusBadges = map[domain.IncidentStatus]StatusBadge{
	domain.IncidentStatusOpen:       {Label: "Open", Variant: VariantOutline, Known: true},
	domain.IncidentStatusInProgress: {Label: "In Progress", Variant: VariantSolid, Known: true},
	domain.IncidentStatusResolved:   {Label: "Resolved", Variant: VariantSecondary, Known: true},
}

var priorityBadges = map[domain.IncidentPriority]PriorityBadge{
	domain.IncidentPriorityLow:      {Label: "Low", Tone: ToneLow, Known: true},
	domain.IncidentPriorityMedium:   {Label: "Medium", Tone: ToneMedium, Known: true},
	domain.IncidentPriorityHigh:     {Label: "High", Tone: ToneHigh, Known: true},
	domain.IncidentPriorityCritical: {Label: "Critical", Tone: ToneCritical, Known: true},
}

var categoryLabels = map[domain.IncidentCategory]CategoryLabel{
	domain.IncidentCategoryBug:            {Label: "Bug", Known: true},
	domain.IncidentCategoryFeatureRequest: {Label: "Feature Request", Known: true},
	domain.IncidentCategoryQuestion:       {Label: "Question", Known: true},
	domain.IncidentCategoryDocumentation:  {Label: "Documentation", Known: true},
}

// MapStatus maps a raw status to its badge. An absent value takes the
// default status; an unrecognized value passes through as the label
// with neutral styling so server-added statuses render instead of
// erroring.
func MapStatus(value domain.IncidentStatus) StatusBadge {
	if value == "" {
		value = domain.DefaultStatus
	}
	if badge, ok := statusBadges[value]; ok {
		return badge
	}
	return StatusBadge{Label: string(value), Variant: VariantNeutral}
}

// MapPriority maps a raw priority to its badge, defaulting absent
// values and passing unknown values through.
func MapPriority(value domain.IncidentPriority) PriorityBadge {
	if value == "" {
		value = domain.DefaultPriority
	}
	if badge, ok := priorityBadges[value]; ok {
		return badge
	}
	return PriorityBadge{Label: string(value), Tone: ToneNeutral}
}

// MapCategory maps a raw category to its label, defaulting absent
// values and passing unknown values through.
func MapCategory(value domain.IncidentCategory) CategoryLabel {
	if value == "" {
		value = domain.DefaultCategory
	}
	if label, ok := categoryLabels[value]; ok {
		return label
	}
	return CategoryLabel{Label: string(value)}
}
