package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bissquit/incident-console/internal/api"
	"github.com/bissquit/incident-console/internal/domain"
)

type fakeRemote struct {
	createIncidents int
	updateIncidents int
	deleteIncidents int
	createComments  int
	deleteComments  int
	err             error
}

func (f *fakeRemote) CreateIncident(_ context.Context, payload api.IncidentCreate) (*domain.Incident, error) {
	f.createIncidents++
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Incident{ID: "inc-new", Title: payload.Title}, nil
}

func (f *fakeRemote) UpdateIncident(_ context.Context, id string, _ api.IncidentUpdate) (*domain.Incident, error) {
	f.updateIncidents++
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Incident{ID: id}, nil
}

func (f *fakeRemote) DeleteIncident(context.Context, string) error {
	f.deleteIncidents++
	return f.err
}

func (f *fakeRemote) CreateComment(_ context.Context, incidentID string, payload api.CommentCreate) (*domain.Comment, error) {
	f.createComments++
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Comment{ID: "com-new", IncidentID: incidentID, Content: payload.Content}, nil
}

func (f *fakeRemote) DeleteComment(context.Context, string, string) error {
	f.deleteComments++
	return f.err
}

type fakeNotifier struct {
	successes []string
	errors    []string
}

func (f *fakeNotifier) Success(message string) { f.successes = append(f.successes, message) }
func (f *fakeNotifier) Error(message string)   { f.errors = append(f.errors, message) }

func seededCache() *Cache {
	cache := NewCache()
	cache.Set(IncidentListKey(0, 100), "listing")
	cache.Set(IncidentKey("inc-1"), "incident one")
	cache.Set(IncidentKey("inc-2"), "incident two")
	cache.Set(CommentListKey("inc-1", 0, 100), "comments one")
	cache.Set(CommentListKey("inc-2", 0, 100), "comments two")
	return cache
}

func stale(t *testing.T, cache *Cache, key Key) bool {
	t.Helper()
	entry, ok := cache.Get(key)
	require.True(t, ok)
	return entry.Stale
}

func TestMutations_CreateIncidentInvalidatesCollections(t *testing.T) {
	cache := seededCache()
	remote := &fakeRemote{}
	notifier := &fakeNotifier{}
	mutations := NewMutations(remote, cache, notifier)

	incident, err := mutations.CreateIncident(context.Background(), api.IncidentCreate{Title: "  disk full  "})
	require.NoError(t, err)
	assert.Equal(t, "disk full", incident.Title, "title is trimmed before sending")

	assert.True(t, stale(t, cache, IncidentListKey(0, 100)))
	assert.False(t, stale(t, cache, IncidentKey("inc-1")), "single entries are unaffected by create")
	assert.False(t, stale(t, cache, CommentListKey("inc-1", 0, 100)))
	assert.Equal(t, []string{"Incident created"}, notifier.successes)
}

func TestMutations_CreateIncidentRejectsBlankTitle(t *testing.T) {
	cache := seededCache()
	remote := &fakeRemote{}
	notifier := &fakeNotifier{}
	mutations := NewMutations(remote, cache, notifier)

	_, err := mutations.CreateIncident(context.Background(), api.IncidentCreate{Title: "   "})
	require.Error(t, err)

	assert.Zero(t, remote.createIncidents, "invalid input must not reach the network")
	assert.False(t, stale(t, cache, IncidentListKey(0, 100)))
	assert.Equal(t, []string{"Title is required"}, notifier.errors)
}

func TestMutations_UpdateIncidentInvalidatesDependents(t *testing.T) {
	cache := seededCache()
	mutations := NewMutations(&fakeRemote{}, cache, &fakeNotifier{})

	title := "new title"
	_, err := mutations.UpdateIncident(context.Background(), "inc-1", api.IncidentUpdate{Title: &title})
	require.NoError(t, err)

	assert.True(t, stale(t, cache, IncidentListKey(0, 100)))
	assert.True(t, stale(t, cache, IncidentKey("inc-1")))
	assert.True(t, stale(t, cache, CommentListKey("inc-1", 0, 100)))
	assert.False(t, stale(t, cache, IncidentKey("inc-2")), "unrelated incidents stay fresh")
	assert.False(t, stale(t, cache, CommentListKey("inc-2", 0, 100)))
}

func TestMutations_DeleteIncidentInvalidatesDependents(t *testing.T) {
	cache := seededCache()
	notifier := &fakeNotifier{}
	mutations := NewMutations(&fakeRemote{}, cache, notifier)

	require.NoError(t, mutations.DeleteIncident(context.Background(), "inc-1"))

	assert.True(t, stale(t, cache, IncidentListKey(0, 100)))
	assert.True(t, stale(t, cache, IncidentKey("inc-1")))
	assert.True(t, stale(t, cache, CommentListKey("inc-1", 0, 100)))
	assert.False(t, stale(t, cache, IncidentKey("inc-2")))
	assert.Equal(t, []string{"Incident deleted"}, notifier.successes)
}

func TestMutations_CreateCommentWhitespaceOnly(t *testing.T) {
	cache := seededCache()
	remote := &fakeRemote{}
	notifier := &fakeNotifier{}
	mutations := NewMutations(remote, cache, notifier)

	_, err := mutations.CreateComment(context.Background(), "inc-1", "   \n\t  ")
	require.Error(t, err)

	assert.Zero(t, remote.createComments, "whitespace-only comments never reach the network")
	assert.False(t, stale(t, cache, CommentListKey("inc-1", 0, 100)))
	assert.Equal(t, []string{"Comment must not be empty"}, notifier.errors)
}

func TestMutations_CreateCommentInvalidatesThread(t *testing.T) {
	cache := seededCache()
	mutations := NewMutations(&fakeRemote{}, cache, &fakeNotifier{})

	comment, err := mutations.CreateComment(context.Background(), "inc-1", "  looks resolved  ")
	require.NoError(t, err)
	assert.Equal(t, "looks resolved", comment.Content)

	assert.True(t, stale(t, cache, CommentListKey("inc-1", 0, 100)))
	assert.False(t, stale(t, cache, CommentListKey("inc-2", 0, 100)))
	assert.False(t, stale(t, cache, IncidentListKey(0, 100)), "comments do not invalidate incident listings")
}

// checkThenActRemote deletes comments the way a remote does from the
// client's perspective: existence check, a window of latency, then the
// delete. Without per-target serialization two concurrent deletes both
// pass the check and both report success.
type checkThenActRemote struct {
	fakeRemote
	mu       sync.Mutex
	comments map[string]bool
}

func (r *checkThenActRemote) DeleteComment(_ context.Context, _, commentID string) error {
	r.mu.Lock()
	exists := r.comments[commentID]
	r.mu.Unlock()
	if !exists {
		return api.ErrNotFound
	}

	time.Sleep(5 * time.Millisecond)

	r.mu.Lock()
	delete(r.comments, commentID)
	r.mu.Unlock()
	return nil
}

func TestMutations_DuplicateDeletesSerialize(t *testing.T) {
	cache := seededCache()
	remote := &checkThenActRemote{comments: map[string]bool{"com-1": true}}
	mutations := NewMutations(remote, cache, &fakeNotifier{})

	results := make([]error, 2)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = mutations.DeleteComment(context.Background(), "inc-1", "com-1")
		}(i)
	}
	wg.Wait()

	var succeeded, notFound int
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, api.ErrNotFound):
			notFound++
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one of the duplicate deletes wins")
	assert.Equal(t, 1, notFound, "the other observes the first delete's effect")
}

func TestMutations_RemoteFailureLeavesCacheUntouched(t *testing.T) {
	cache := seededCache()
	remote := &fakeRemote{err: errors.New("connection refused")}
	notifier := &fakeNotifier{}
	mutations := NewMutations(remote, cache, notifier)

	require.Error(t, mutations.DeleteIncident(context.Background(), "inc-1"))

	assert.False(t, stale(t, cache, IncidentListKey(0, 100)), "failed mutations must not invalidate")
	assert.False(t, stale(t, cache, IncidentKey("inc-1")))
	assert.Len(t, notifier.errors, 1)
	assert.Empty(t, notifier.successes)
}
