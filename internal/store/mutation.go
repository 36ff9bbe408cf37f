package store

import (
	"context"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/bissquit/incident-console/internal/api"
	"github.com/bissquit/incident-console/internal/domain"
	"github.com/bissquit/incident-console/internal/pkg/ctxlog"
)

// Notifier surfaces mutation outcomes to the user. The TUI implements
// this with status-bar toasts.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Remote is the slice of the API client the mutation controller needs.
// Narrowed to an interface so tests can substitute a fake.
type Remote interface {
	CreateIncident(ctx context.Context, payload api.IncidentCreate) (*domain.Incident, error)
	UpdateIncident(ctx context.Context, id string, payload api.IncidentUpdate) (*domain.Incident, error)
	DeleteIncident(ctx context.Context, id string) error
	CreateComment(ctx context.Context, incidentID string, payload api.CommentCreate) (*domain.Comment, error)
	DeleteComment(ctx context.Context, incidentID, commentID string) error
}

// Mutations executes create/update/delete operations against the API
// and reconciles the cache afterward. On success the dependent cache
// keys are invalidated so the next read refetches; on failure the
// cache is left untouched and the error is surfaced via the notifier.
type Mutations struct {
	remote   Remote
	cache    *Cache
	validate *validator.Validate
	notifier Notifier

	// Mutations are serialized per logical target so a duplicated
	// delete observes the first delete's effect instead of racing it.
	targetMu sync.Mutex
	targets  map[string]*sync.Mutex
}

// NewMutations creates a mutation controller.
func NewMutations(remote Remote, cache *Cache, notifier Notifier) *Mutations {
	return &Mutations{
		remote:   remote,
		cache:    cache,
		validate: validator.New(),
		notifier: notifier,
		targets:  make(map[string]*sync.Mutex),
	}
}

// lockTarget acquires the per-target mutex, creating it on first use.
func (m *Mutations) lockTarget(target string) func() {
	m.targetMu.Lock()
	mu, ok := m.targets[target]
	if !ok {
		mu = &sync.Mutex{}
		m.targets[target] = mu
	}
	m.targetMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// CreateIncident validates and creates an incident. Dependent keys:
// every incident collection listing.
func (m *Mutations) CreateIncident(ctx context.Context, payload api.IncidentCreate) (*domain.Incident, error) {
	payload.Title = strings.TrimSpace(payload.Title)
	if err := m.validate.Struct(payload); err != nil {
		m.notifier.Error("Title is required")
		return nil, err
	}

	unlock := m.lockTarget("incident")
	defer unlock()

	incident, err := m.remote.CreateIncident(ctx, payload)
	if err != nil {
		m.fail(ctx, "create incident", err)
		return nil, err
	}

	m.cache.Invalidate(incidentCollections)
	m.notifier.Success("Incident created")
	return incident, nil
}

// UpdateIncident validates and applies a partial update. Dependent
// keys: incident collections plus the single-incident entry.
func (m *Mutations) UpdateIncident(ctx context.Context, id string, payload api.IncidentUpdate) (*domain.Incident, error) {
	if payload.Title != nil {
		trimmed := strings.TrimSpace(*payload.Title)
		payload.Title = &trimmed
	}
	if err := m.validate.Struct(payload); err != nil {
		m.notifier.Error("Title must not be empty")
		return nil, err
	}

	unlock := m.lockTarget("incident/" + id)
	defer unlock()

	incident, err := m.remote.UpdateIncident(ctx, id, payload)
	if err != nil {
		m.fail(ctx, "update incident", err)
		return nil, err
	}

	m.cache.Invalidate(dependsOnIncident(id))
	m.notifier.Success("Incident updated")
	return incident, nil
}

// DeleteIncident removes an incident. Dependent keys: incident
// collections, the single-incident entry, and the incident's comment
// thread.
func (m *Mutations) DeleteIncident(ctx context.Context, id string) error {
	unlock := m.lockTarget("incident/" + id)
	defer unlock()

	if err := m.remote.DeleteIncident(ctx, id); err != nil {
		m.fail(ctx, "delete incident", err)
		return err
	}

	m.cache.Invalidate(dependsOnIncident(id))
	m.notifier.Success("Incident deleted")
	return nil
}

// CreateComment validates and adds a comment. Whitespace-only content
// never reaches the network. Dependent keys: the incident's comment
// collections (listing and count travel together in the payload).
func (m *Mutations) CreateComment(ctx context.Context, incidentID string, content string) (*domain.Comment, error) {
	payload := api.CommentCreate{Content: strings.TrimSpace(content)}
	if err := m.validate.Struct(payload); err != nil {
		m.notifier.Error("Comment must not be empty")
		return nil, err
	}

	unlock := m.lockTarget("comments/" + incidentID)
	defer unlock()

	comment, err := m.remote.CreateComment(ctx, incidentID, payload)
	if err != nil {
		m.fail(ctx, "create comment", err)
		return nil, err
	}

	m.cache.Invalidate(commentCollections(incidentID))
	m.notifier.Success("Comment added")
	return comment, nil
}

// DeleteComment removes a comment from an incident's thread.
func (m *Mutations) DeleteComment(ctx context.Context, incidentID, commentID string) error {
	unlock := m.lockTarget("comment/" + commentID)
	defer unlock()

	if err := m.remote.DeleteComment(ctx, incidentID, commentID); err != nil {
		m.fail(ctx, "delete comment", err)
		return err
	}

	m.cache.Invalidate(commentCollections(incidentID))
	m.notifier.Success("Comment deleted")
	return nil
}

// fail surfaces a mutation failure without touching the cache, so the
// user can retry against unmodified state.
func (m *Mutations) fail(ctx context.Context, op string, err error) {
	ctxlog.FromContext(ctx).Warn("mutation failed", "op", op, "error", err)
	m.notifier.Error(api.Reason(err))
}

// incidentCollections matches every incident listing key.
func incidentCollections(key Key) bool {
	return key.Kind == KindIncident && key.IsCollection()
}

// dependsOnIncident matches everything derived from one incident: the
// listing pages, the single-incident entry, and its comment thread.
func dependsOnIncident(id string) func(Key) bool {
	return func(key Key) bool {
		if key.Kind == KindIncident && (key.IsCollection() || key.ID == id) {
			return true
		}
		return key.Kind == KindComment && key.ParentID == id
	}
}

// commentCollections matches comment listing keys for one incident.
func commentCollections(incidentID string) func(Key) bool {
	return func(key Key) bool {
		return key.Kind == KindComment && key.ParentID == incidentID
	}
}
