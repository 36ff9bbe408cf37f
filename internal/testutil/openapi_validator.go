package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

// OpenAPIValidator checks client traffic against the incident-tracker
// OpenAPI contract, so a drifting request or response shape fails the
// test instead of silently decoding to zero values.
type OpenAPIValidator struct {
	doc    *openapi3.T
	router routers.Router
}

// NewOpenAPIValidator loads and validates the spec at specPath.
func NewOpenAPIValidator(t *testing.T, specPath string) *OpenAPIValidator {
	t.Helper()

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(specPath)
	if err != nil {
		t.Fatalf("load OpenAPI spec from %s: %v", specPath, err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("validate OpenAPI spec: %v", err)
	}

	router, err := legacy.NewRouter(doc)
	if err != nil {
		t.Fatalf("create OpenAPI router: %v", err)
	}

	return &OpenAPIValidator{doc: doc, router: router}
}

// Middleware wraps a handler so every request/response pair through it
// is validated. Validation failures are reported on t but do not alter
// the traffic.
func (v *OpenAPIValidator) Middleware(t *testing.T, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		v.validate(t, r, recorder)
	})
}

func (v *OpenAPIValidator) validate(t *testing.T, req *http.Request, recorder *responseRecorder) {
	t.Helper()

	route, pathParams, err := v.router.FindRoute(req)
	if err != nil {
		t.Errorf("OpenAPI: no route for %s %s: %v", req.Method, req.URL.Path, err)
		return
	}

	requestInput := &openapi3filter.RequestValidationInput{
		Request:    req,
		PathParams: pathParams,
		Route:      route,
	}
	responseInput := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: requestInput,
		Status:                 recorder.status,
		Header:                 recorder.Header(),
		Body:                   io.NopCloser(bytes.NewReader(recorder.body.Bytes())),
		Options: &openapi3filter.Options{
			MultiError:            true,
			IncludeResponseStatus: true,
		},
	}

	if err := openapi3filter.ValidateResponse(context.Background(), responseInput); err != nil {
		t.Errorf("OpenAPI response validation failed for %s %s (status %d): %v\nbody: %s",
			req.Method, req.URL.Path, recorder.status, truncate(err.Error(), 500), truncate(recorder.body.String(), 200))
	}
}

// responseRecorder tees the response so it can be validated after
// being written to the real client.
type responseRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	r.body.Write(p)
	return r.ResponseWriter.Write(p)
}

func truncate(s string, limit int) string {
	if len(s) > limit {
		return fmt.Sprintf("%s...", s[:limit])
	}
	return s
}
