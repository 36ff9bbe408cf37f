package api

import "github.com/bissquit/incident-console/internal/domain"

// IncidentCreate is the request body for creating an incident.
// Validate tags are enforced client-side before the request is issued.
type IncidentCreate struct {
	Title       string                  `json:"title" validate:"required,max=255"`
	Description string                  `json:"description,omitempty" validate:"max=255"`
	Status      domain.IncidentStatus   `json:"status,omitempty"`
	Priority    domain.IncidentPriority `json:"priority,omitempty"`
	Category    domain.IncidentCategory `json:"category,omitempty"`
}

// IncidentUpdate is the request body for updating an incident. Nil
// fields are omitted from the payload and left unchanged server-side.
type IncidentUpdate struct {
	Title       *string                  `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string                  `json:"description,omitempty" validate:"omitempty,max=255"`
	Status      *domain.IncidentStatus   `json:"status,omitempty"`
	Priority    *domain.IncidentPriority `json:"priority,omitempty"`
	Category    *domain.IncidentCategory `json:"category,omitempty"`
}

// CommentCreate is the request body for adding a comment.
type CommentCreate struct {
	Content string `json:"content" validate:"required,max=10000"`
}

// IncidentList is the collection envelope for incident listings.
type IncidentList struct {
	Data  []domain.Incident `json:"data"`
	Count int               `json:"count"`
}

// CommentList is the collection envelope for comment listings.
type CommentList struct {
	Data  []domain.Comment `json:"data"`
	Count int              `json:"count"`
}

// Token is the response body of the login endpoint.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}
