package domain

import "time"

type IncidentStatus string

const (
	IncidentStatusOpen       IncidentStatus = "open"
	IncidentStatusInProgress IncidentStatus = "in_progress"
	IncidentStatusResolved   IncidentStatus = "resolved"
)

type IncidentPriority string

const (
	IncidentPriorityLow      IncidentPriority = "low"
	IncidentPriorityMedium   IncidentPriority = "medium"
	IncidentPriorityHigh     IncidentPriority = "high"
	IncidentPriorityCritical IncidentPriority = "critical"
)

type IncidentCategory string

const (
	IncidentCategoryBug            IncidentCategory = "bug"
	IncidentCategoryFeatureRequest IncidentCategory = "feature_request"
	IncidentCategoryQuestion       IncidentCategory = "question"
	IncidentCategoryDocumentation  IncidentCategory = "documentation"
)

// Defaults substituted when the server omits a field. The API may grow
// new enum values at any time; clients must render unknown values as-is
// rather than reject them.
const (
	DefaultStatus   = IncidentStatusOpen
	DefaultPriority = IncidentPriorityMedium
	DefaultCategory = IncidentCategoryBug
)

// Incident mirrors the API wire shape. Status, priority and category
// may be empty when the server omits them; display code substitutes
// the defaults above.
type Incident struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Status      IncidentStatus   `json:"status,omitempty"`
	Priority    IncidentPriority `json:"priority,omitempty"`
	Category    IncidentCategory `json:"category,omitempty"`
	OwnerID     string           `json:"owner_id,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	ResolvedAt  *time.Time       `json:"resolved_at,omitempty"`
}

// CanModify reports whether the given user may edit or delete the
// incident: its owner, or a privileged user.
func (i Incident) CanModify(userID string, privileged bool) bool {
	return privileged || i.OwnerID == userID
}
