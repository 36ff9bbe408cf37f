package store

import (
	"context"
	"errors"

	"github.com/bissquit/incident-console/internal/api"
	"github.com/bissquit/incident-console/internal/domain"
)

// ErrParentNotLoaded means a comment thread was read before its parent
// incident was confirmed to exist. Comments are never fetched ahead of
// the incident itself.
var ErrParentNotLoaded = errors.New("parent incident not loaded")

// CommentLister is the read side of the comment API.
type CommentLister interface {
	ListComments(ctx context.Context, incidentID string, skip, limit int) (api.CommentList, error)
}

// CommentThread composes the query and mutation controllers for the
// comment resource nested under one incident.
type CommentThread struct {
	incidentID string
	cache      *Cache
	queries    *Queries
	mutations  *Mutations
	lister     CommentLister
	pageSize   int
}

// NewCommentThread creates a controller for the given incident's
// comment thread.
func NewCommentThread(incidentID string, cache *Cache, queries *Queries, mutations *Mutations, lister CommentLister, pageSize int) *CommentThread {
	return &CommentThread{
		incidentID: incidentID,
		cache:      cache,
		queries:    queries,
		mutations:  mutations,
		lister:     lister,
		pageSize:   pageSize,
	}
}

// Key returns the cache key for this thread's listing.
func (t *CommentThread) Key() Key {
	return CommentListKey(t.incidentID, 0, t.pageSize)
}

// Load reads the comment collection, served from cache when fresh.
// Returns ErrParentNotLoaded until the parent incident has a ready
// cache entry.
func (t *CommentThread) Load(ctx context.Context) (api.CommentList, error) {
	parent, ok := t.cache.Get(IncidentKey(t.incidentID))
	if !ok || parent.State != StateReady {
		return api.CommentList{}, ErrParentNotLoaded
	}

	return Read(ctx, t.queries, t.Key(), func(ctx context.Context) (api.CommentList, error) {
		return t.lister.ListComments(ctx, t.incidentID, 0, t.pageSize)
	})
}

// Add appends a comment authored by the current user.
func (t *CommentThread) Add(ctx context.Context, content string) (*domain.Comment, error) {
	return t.mutations.CreateComment(ctx, t.incidentID, content)
}

// Remove deletes a comment from the thread.
func (t *CommentThread) Remove(ctx context.Context, commentID string) error {
	return t.mutations.DeleteComment(ctx, t.incidentID, commentID)
}
