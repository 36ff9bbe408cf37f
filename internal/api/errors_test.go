package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyResponse(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "404 with string detail",
			status: http.StatusNotFound,
			body:   `{"detail": "Incident not found"}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrNotFound)
				assert.Contains(t, err.Error(), "Incident not found")
			},
		},
		{
			name:   "404 with empty body",
			status: http.StatusNotFound,
			body:   ``,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrNotFound)
			},
		},
		{
			name:   "401",
			status: http.StatusUnauthorized,
			body:   `{"detail": "Not authenticated"}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrUnauthorized)
			},
		},
		{
			name:   "403 maps to the same sentinel",
			status: http.StatusForbidden,
			body:   `{"detail": "Not enough permissions"}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrUnauthorized)
			},
		},
		{
			name:   "422 with field locations",
			status: http.StatusUnprocessableEntity,
			body:   `{"detail": [{"loc": ["body", "title"], "msg": "field required"}]}`,
			check: func(t *testing.T, err error) {
				var validationErr *ValidationError
				require.ErrorAs(t, err, &validationErr)
				require.Len(t, validationErr.Fields, 1)
				assert.Equal(t, "title", validationErr.Fields[0].Field)
				assert.Equal(t, "field required", validationErr.Fields[0].Message)
			},
		},
		{
			name:   "400 with string detail",
			status: http.StatusBadRequest,
			body:   `{"detail": "Incorrect email or password"}`,
			check: func(t *testing.T, err error) {
				var validationErr *ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Equal(t, "Incorrect email or password", validationErr.Detail)
			},
		},
		{
			name:   "unknown status keeps the body",
			status: http.StatusBadGateway,
			body:   `upstream unavailable`,
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "502")
				assert.Contains(t, err.Error(), "upstream unavailable")
			},
		},
		{
			name:   "malformed body still classifies by status",
			status: http.StatusNotFound,
			body:   `<html>not json</html>`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyResponse(tt.status, []byte(tt.body))
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestReason(t *testing.T) {
	validation := &ValidationError{Fields: []FieldError{{Field: "title", Message: "field required"}}}
	assert.Contains(t, Reason(validation), "title: field required")

	network := &NetworkError{Op: "GET /api/v1/incidents/", Err: errors.New("connection refused")}
	assert.Contains(t, Reason(network), "network failure")

	assert.Equal(t, "plain", Reason(errors.New("plain")))
}
