package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bissquit/incident-console/internal/domain"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultRateLimit = 10 // requests per second
	defaultBurst     = 5
)

// Config holds API client configuration.
type Config struct {
	BaseURL   string        // e.g. "https://tracker.example.com"
	Token     string        // bearer token; empty for unauthenticated calls
	Timeout   time.Duration // per-request timeout, applied via http.Client
	RateLimit float64       // client-side requests per second, 0 for default
	Burst     int
}

// Client talks to the incident-tracker API. All methods honor the
// request context and return errors from the taxonomy in errors.go.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client for the given API endpoint.
func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	if config.RateLimit == 0 {
		config.RateLimit = defaultRateLimit
	}
	if config.Burst == 0 {
		config.Burst = defaultBurst
	}

	return &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		token:   config.Token,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), config.Burst),
	}
}

// WithToken returns a copy of the client using the given bearer token.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

// ListIncidents retrieves a page of incidents, newest first.
func (c *Client) ListIncidents(ctx context.Context, skip, limit int) (IncidentList, error) {
	var list IncidentList
	path := fmt.Sprintf("/api/v1/incidents/?skip=%d&limit=%d", skip, limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return IncidentList{}, fmt.Errorf("list incidents: %w", err)
	}
	return list, nil
}

// GetIncident retrieves a single incident. Returns ErrNotFound when
// the id has no server-side match.
func (c *Client) GetIncident(ctx context.Context, id string) (*domain.Incident, error) {
	var incident domain.Incident
	if err := c.do(ctx, http.MethodGet, "/api/v1/incidents/"+url.PathEscape(id), nil, &incident); err != nil {
		return nil, fmt.Errorf("get incident %s: %w", id, err)
	}
	return &incident, nil
}

// CreateIncident creates a new incident owned by the current user.
func (c *Client) CreateIncident(ctx context.Context, payload IncidentCreate) (*domain.Incident, error) {
	var incident domain.Incident
	if err := c.do(ctx, http.MethodPost, "/api/v1/incidents/", payload, &incident); err != nil {
		return nil, fmt.Errorf("create incident: %w", err)
	}
	return &incident, nil
}

// UpdateIncident applies a partial update. The server sets resolved_at
// when status transitions to resolved and clears it otherwise.
func (c *Client) UpdateIncident(ctx context.Context, id string, payload IncidentUpdate) (*domain.Incident, error) {
	var incident domain.Incident
	if err := c.do(ctx, http.MethodPut, "/api/v1/incidents/"+url.PathEscape(id), payload, &incident); err != nil {
		return nil, fmt.Errorf("update incident %s: %w", id, err)
	}
	return &incident, nil
}

// DeleteIncident removes an incident and its comments.
func (c *Client) DeleteIncident(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/v1/incidents/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete incident %s: %w", id, err)
	}
	return nil
}

// ListComments retrieves a page of an incident's comments, oldest first.
func (c *Client) ListComments(ctx context.Context, incidentID string, skip, limit int) (CommentList, error) {
	var list CommentList
	path := fmt.Sprintf("/api/v1/incidents/%s/comments/?skip=%d&limit=%d", url.PathEscape(incidentID), skip, limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return CommentList{}, fmt.Errorf("list comments for %s: %w", incidentID, err)
	}
	return list, nil
}

// CreateComment adds a comment authored by the current user.
func (c *Client) CreateComment(ctx context.Context, incidentID string, payload CommentCreate) (*domain.Comment, error) {
	var comment domain.Comment
	path := "/api/v1/incidents/" + url.PathEscape(incidentID) + "/comments/"
	if err := c.do(ctx, http.MethodPost, path, payload, &comment); err != nil {
		return nil, fmt.Errorf("create comment on %s: %w", incidentID, err)
	}
	return &comment, nil
}

// DeleteComment removes a comment from an incident.
func (c *Client) DeleteComment(ctx context.Context, incidentID, commentID string) error {
	path := "/api/v1/incidents/" + url.PathEscape(incidentID) + "/comments/" + url.PathEscape(commentID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete comment %s: %w", commentID, err)
	}
	return nil
}

// CurrentUser resolves the authenticated user for the client's token.
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodGet, "/api/v1/users/me", nil, &user); err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	return &user, nil
}

// Login exchanges credentials for a bearer token. The endpoint takes
// form-encoded fields rather than JSON.
func (c *Client) Login(ctx context.Context, username, password string) (Token, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	if err := c.limiter.Wait(ctx); err != nil {
		return Token{}, &NetworkError{Op: "login", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/login/access-token", strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, fmt.Errorf("create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Token{}, &NetworkError{Op: "login", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Token{}, &NetworkError{Op: "read login response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return Token{}, fmt.Errorf("login: %w", classifyResponse(resp.StatusCode, body))
	}

	var token Token
	if err := json.Unmarshal(body, &token); err != nil {
		return Token{}, fmt.Errorf("decode login response: %w", err)
	}
	return token, nil
}

// do issues a request and decodes a successful JSON response into out
// (out may be nil for responses the caller discards). Non-2xx responses
// are classified into the error taxonomy; transport failures, including
// the client timeout, become NetworkError.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &NetworkError{Op: "rate limit wait", Err: err}
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: fmt.Sprintf("%s %s", method, path), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: "read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyResponse(resp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
