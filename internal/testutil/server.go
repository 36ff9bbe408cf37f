// Package testutil provides testing utilities: an in-memory incident
// API server and an OpenAPI validator for checking traffic against the
// contract.
package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/bissquit/incident-console/internal/domain"
)

// Server is an in-memory rendition of the incident-tracker API. It
// speaks the same wire contract as the real service: bearer auth,
// {data, count} collection envelopes, {"detail": ...} error bodies,
// and server-side defaulting of status, priority and category.
type Server struct {
	mu sync.Mutex

	router *chi.Mux

	users     map[string]domain.User // token -> user
	passwords map[string]string      // email -> password
	tokens    map[string]string      // email -> token

	incidents []domain.Incident
	comments  map[string][]domain.Comment

	requests map[string]int

	// FailWith, when non-zero, makes every subsequent request fail
	// with that status code. Used to exercise error paths.
	FailWith int
}

// NewServer creates an empty fake API server.
func NewServer() *Server {
	s := &Server{
		users:     make(map[string]domain.User),
		passwords: make(map[string]string),
		tokens:    make(map[string]string),
		comments:  make(map[string][]domain.Comment),
		requests:  make(map[string]int),
	}

	r := chi.NewRouter()
	r.Post("/api/v1/login/access-token", s.handleLogin)
	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/api/v1/users/me", s.handleCurrentUser)
		r.Get("/api/v1/incidents/", s.handleListIncidents)
		r.Post("/api/v1/incidents/", s.handleCreateIncident)
		r.Get("/api/v1/incidents/{id}", s.handleGetIncident)
		r.Put("/api/v1/incidents/{id}", s.handleUpdateIncident)
		r.Delete("/api/v1/incidents/{id}", s.handleDeleteIncident)
		r.Get("/api/v1/incidents/{id}/comments/", s.handleListComments)
		r.Post("/api/v1/incidents/{id}/comments/", s.handleCreateComment)
		r.Delete("/api/v1/incidents/{id}/comments/{commentID}", s.handleDeleteComment)
	})
	s.router = r
	return s
}

// ServeHTTP dispatches to the API routes, counting requests per
// method and path so tests can assert on fetch de-duplication.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests[r.Method+" "+r.URL.Path]++
	fail := s.FailWith
	s.mu.Unlock()

	if fail != 0 {
		writeDetail(w, fail, "simulated failure")
		return
	}
	s.router.ServeHTTP(w, r)
}

// RequestCount returns how many requests hit the given method and
// path since the server was created.
func (s *Server) RequestCount(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[method+" "+path]
}

// AddUser registers a user with credentials and returns a bearer
// token valid for one hour.
func (s *Server) AddUser(user domain.User, password string) string {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	claims := jwt.MapClaims{
		"sub": user.ID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("testutil-secret"))
	if err != nil {
		panic(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[token] = user
	s.passwords[user.Email] = password
	s.tokens[user.Email] = token
	return token
}

// SeedIncident inserts an incident directly into the store, filling
// in an ID, defaults and a creation time when absent.
func (s *Server) SeedIncident(incident domain.Incident) domain.Incident {
	if incident.ID == "" {
		incident.ID = uuid.NewString()
	}
	if incident.Status == "" {
		incident.Status = domain.DefaultStatus
	}
	if incident.Priority == "" {
		incident.Priority = domain.DefaultPriority
	}
	if incident.Category == "" {
		incident.Category = domain.DefaultCategory
	}
	if incident.CreatedAt.IsZero() {
		incident.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.incidents = append(s.incidents, incident)
	return incident
}

// SeedComment inserts a comment directly into the store.
func (s *Server) SeedComment(comment domain.Comment) domain.Comment {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[comment.IncidentID] = append(s.comments[comment.IncidentID], comment)
	return comment
}

// Incidents returns a snapshot of the incident store.
func (s *Server) Incidents() []domain.Incident {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Incident(nil), s.incidents...)
}

// Comments returns a snapshot of one incident's comments.
func (s *Server) Comments(incidentID string) []domain.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Comment(nil), s.comments[incidentID]...)
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const prefix = "Bearer "
		header := r.Header.Get("Authorization")
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		s.mu.Lock()
		user, ok := s.users[header[len(prefix):]]
		s.mu.Unlock()
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid form")
		return
	}
	email := r.PostFormValue("username")
	password := r.PostFormValue("password")

	s.mu.Lock()
	stored, ok := s.passwords[email]
	token := s.tokens[email]
	s.mu.Unlock()

	if !ok || stored != password {
		writeDetail(w, http.StatusBadRequest, "Incorrect email or password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFrom(r.Context()))
}

func (s *Server) handleListIncidents(w http.ResponseWriter, r *http.Request) {
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 100)

	s.mu.Lock()
	defer s.mu.Unlock()

	total := len(s.incidents)
	page := []domain.Incident{}
	for i := skip; i < total && len(page) < limit; i++ {
		page = append(page, s.incidents[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": page, "count": total})
}

func (s *Server) handleCreateIncident(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Title       string                  `json:"title"`
		Description string                  `json:"description"`
		Status      domain.IncidentStatus   `json:"status"`
		Priority    domain.IncidentPriority `json:"priority"`
		Category    domain.IncidentCategory `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	if payload.Title == "" {
		writeFieldErrors(w, "title", "field required")
		return
	}

	incident := domain.Incident{
		Title:       payload.Title,
		Description: payload.Description,
		Status:      payload.Status,
		Priority:    payload.Priority,
		Category:    payload.Category,
		OwnerID:     userFrom(r.Context()).ID,
	}
	incident = s.SeedIncident(incident)
	writeJSON(w, http.StatusOK, incident)
}

func (s *Server) handleGetIncident(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if incident, i := s.findIncident(chi.URLParam(r, "id")); i >= 0 {
		writeJSON(w, http.StatusOK, incident)
		return
	}
	writeDetail(w, http.StatusNotFound, "Incident not found")
}

func (s *Server) handleUpdateIncident(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Title       *string                  `json:"title"`
		Description *string                  `json:"description"`
		Status      *domain.IncidentStatus   `json:"status"`
		Priority    *domain.IncidentPriority `json:"priority"`
		Category    *domain.IncidentCategory `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	incident, i := s.findIncident(chi.URLParam(r, "id"))
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Incident not found")
		return
	}
	if !incident.CanModify(userFrom(r.Context()).ID, userFrom(r.Context()).IsSuperuser) {
		writeDetail(w, http.StatusForbidden, "Not enough permissions")
		return
	}

	if payload.Title != nil {
		if *payload.Title == "" {
			writeFieldErrors(w, "title", "field required")
			return
		}
		incident.Title = *payload.Title
	}
	if payload.Description != nil {
		incident.Description = *payload.Description
	}
	if payload.Priority != nil {
		incident.Priority = *payload.Priority
	}
	if payload.Category != nil {
		incident.Category = *payload.Category
	}
	if payload.Status != nil {
		incident.Status = *payload.Status
		if incident.Status == domain.IncidentStatusResolved {
			now := time.Now().UTC().Truncate(time.Second)
			incident.ResolvedAt = &now
		} else {
			incident.ResolvedAt = nil
		}
	}

	s.incidents[i] = incident
	writeJSON(w, http.StatusOK, incident)
}

func (s *Server) handleDeleteIncident(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	incident, i := s.findIncident(chi.URLParam(r, "id"))
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Incident not found")
		return
	}
	if !incident.CanModify(userFrom(r.Context()).ID, userFrom(r.Context()).IsSuperuser) {
		writeDetail(w, http.StatusForbidden, "Not enough permissions")
		return
	}

	s.incidents = append(s.incidents[:i], s.incidents[i+1:]...)
	delete(s.comments, incident.ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Incident deleted successfully"})
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 100)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, i := s.findIncident(chi.URLParam(r, "id")); i < 0 {
		writeDetail(w, http.StatusNotFound, "Incident not found")
		return
	}

	thread := s.comments[chi.URLParam(r, "id")]
	total := len(thread)
	page := []domain.Comment{}
	for i := skip; i < total && len(page) < limit; i++ {
		page = append(page, thread[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": page, "count": total})
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	if payload.Content == "" {
		writeFieldErrors(w, "content", "field required")
		return
	}

	incidentID := chi.URLParam(r, "id")

	s.mu.Lock()
	_, i := s.findIncident(incidentID)
	s.mu.Unlock()
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Incident not found")
		return
	}

	comment := s.SeedComment(domain.Comment{
		IncidentID: incidentID,
		AuthorID:   userFrom(r.Context()).ID,
		Content:    payload.Content,
	})
	writeJSON(w, http.StatusOK, comment)
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	incidentID := chi.URLParam(r, "id")
	commentID := chi.URLParam(r, "commentID")

	s.mu.Lock()
	defer s.mu.Unlock()

	thread := s.comments[incidentID]
	for i, comment := range thread {
		if comment.ID != commentID {
			continue
		}
		if !comment.CanDelete(userFrom(r.Context()).ID, userFrom(r.Context()).IsSuperuser) {
			writeDetail(w, http.StatusForbidden, "Not enough permissions")
			return
		}
		s.comments[incidentID] = append(thread[:i], thread[i+1:]...)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Comment deleted successfully"})
		return
	}
	writeDetail(w, http.StatusNotFound, "Comment not found")
}

// findIncident returns the incident and its index, or -1. Callers hold
// the mutex.
func (s *Server) findIncident(id string) (domain.Incident, int) {
	for i, incident := range s.incidents {
		if incident.ID == id {
			return incident, i
		}
	}
	return domain.Incident{}, -1
}

type userKey struct{}

func withUser(ctx context.Context, user domain.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

func userFrom(ctx context.Context) domain.User {
	user, _ := ctx.Value(userKey{}).(domain.User)
	return user
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeFieldErrors mimics the structured 422 validation body: a detail
// array of {loc, msg} objects.
func writeFieldErrors(w http.ResponseWriter, field, message string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"detail": []map[string]any{
			{"loc": []string{"body", field}, "msg": message},
		},
	})
}
