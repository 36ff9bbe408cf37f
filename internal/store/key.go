// Package store implements the client-side data layer: an in-memory
// entity cache with explicit invalidation, read de-duplication, and
// mutation handling that keeps the cache consistent with the server.
package store

import "fmt"

// Kind identifies the category of a cached resource.
type Kind string

const (
	KindIncident Kind = "incident"
	KindComment  Kind = "comment"
)

// Key identifies one cached unit of data: either a collection listing
// (Query set) or a single entity (ID set). Keys are comparable and
// used directly as map keys.
type Key struct {
	Kind Kind

	// ID is set for single-entity keys.
	ID string

	// Query is the stable query signature for collection keys.
	Query string

	// ParentID scopes nested collections (comments) to their parent
	// incident, so one mutation can invalidate everything derived
	// from that parent.
	ParentID string
}

// IsCollection reports whether the key targets a collection listing.
func (k Key) IsCollection() bool { return k.Query != "" }

// String returns a stable textual form, used as the de-duplication key
// for in-flight fetches.
func (k Key) String() string {
	if k.IsCollection() {
		if k.ParentID != "" {
			return fmt.Sprintf("%s/%s?%s", k.Kind, k.ParentID, k.Query)
		}
		return fmt.Sprintf("%s?%s", k.Kind, k.Query)
	}
	return fmt.Sprintf("%s/%s", k.Kind, k.ID)
}

// IncidentListKey is the cache key for a page of the incident listing.
func IncidentListKey(skip, limit int) Key {
	return Key{Kind: KindIncident, Query: fmt.Sprintf("skip=%d&limit=%d", skip, limit)}
}

// IncidentKey is the cache key for a single incident.
func IncidentKey(id string) Key {
	return Key{Kind: KindIncident, ID: id}
}

// CommentListKey is the cache key for an incident's comment thread.
func CommentListKey(incidentID string, skip, limit int) Key {
	return Key{
		Kind:     KindComment,
		ParentID: incidentID,
		Query:    fmt.Sprintf("skip=%d&limit=%d", skip, limit),
	}
}
