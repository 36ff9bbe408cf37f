package domain

import "time"

// Comment belongs to exactly one incident. Comments are immutable
// after creation; the only mutations are create and delete.
type Comment struct {
	ID         string    `json:"id"`
	IncidentID string    `json:"incident_id"`
	AuthorID   string    `json:"author_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// CanDelete reports whether the given user may delete the comment:
// the comment's author, or a privileged user. The server enforces the
// same rule; this gates the UI affordance.
func (c Comment) CanDelete(userID string, privileged bool) bool {
	return privileged || c.AuthorID == userID
}
