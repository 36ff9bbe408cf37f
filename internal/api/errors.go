// Package api implements the HTTP client for the incident-tracker API.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for API outcomes that callers branch on.
var (
	// ErrNotFound means the requested entity has no server-side match.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized means the server rejected the action despite any
	// client-side gating (expired token, insufficient permissions).
	ErrUnauthorized = errors.New("unauthorized")
)

// FieldError describes a single rejected field in a validation failure.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError indicates the API rejected the request payload.
type ValidationError struct {
	Detail string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("validation failed: %s", e.Detail)
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(parts, "; "))
}

// NetworkError indicates a transport-level failure, including timeout.
// The request may or may not have reached the server.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// errorBody is the API error envelope. FastAPI-style servers return
// {"detail": "..."} for simple failures and {"detail": [{loc, msg}]}
// for field-level validation errors.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type detailItem struct {
	Loc []json.RawMessage `json:"loc"`
	Msg string            `json:"msg"`
}

// classifyResponse maps a non-2xx response to the error taxonomy.
// Unknown statuses become plain errors carrying the server's message
// so nothing is silently swallowed.
func classifyResponse(status int, body []byte) error {
	detail, fields := parseDetail(body)

	switch status {
	case http.StatusNotFound:
		if detail != "" {
			return fmt.Errorf("%w: %s", ErrNotFound, detail)
		}
		return ErrNotFound

	case http.StatusUnauthorized, http.StatusForbidden:
		if detail != "" {
			return fmt.Errorf("%w: %s", ErrUnauthorized, detail)
		}
		return ErrUnauthorized

	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &ValidationError{Detail: detail, Fields: fields}

	default:
		if detail == "" {
			detail = strings.TrimSpace(string(body))
		}
		return fmt.Errorf("unexpected status %d: %s", status, detail)
	}
}

// parseDetail extracts a human-readable message and any field errors
// from the error envelope. Malformed bodies yield an empty detail; the
// status code still drives classification.
func parseDetail(body []byte) (string, []FieldError) {
	var envelope errorBody
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return "", nil
	}

	var message string
	if err := json.Unmarshal(envelope.Detail, &message); err == nil {
		return message, nil
	}

	var items []detailItem
	if err := json.Unmarshal(envelope.Detail, &items); err != nil {
		return "", nil
	}

	fields := make([]FieldError, 0, len(items))
	for _, item := range items {
		field := ""
		if len(item.Loc) > 0 {
			// loc is ["body", "title", ...]; the last element names the field.
			var s string
			if err := json.Unmarshal(item.Loc[len(item.Loc)-1], &s); err == nil {
				field = s
			}
		}
		fields = append(fields, FieldError{Field: field, Message: item.Msg})
	}
	return "", fields
}

// Reason returns a human-readable message for surfacing an API failure
// to the user, without the wrapping chain noise.
func Reason(err error) string {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Error()
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return fmt.Sprintf("network failure: %v", netErr.Err)
	}
	return err.Error()
}
