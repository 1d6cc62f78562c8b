package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/pdftextworker/internal/models"
	"github.com/Lllllllleong/pdftextworker/internal/services"
)

type emptyStore struct{}

func (emptyStore) Scheme() string { return "s3" }

func (emptyStore) Get(_ context.Context, bucket, key string) ([]byte, error) {
	return nil, fmt.Errorf("s3://%s/%s: %w", bucket, key, models.ErrObjectNotFound)
}

func (emptyStore) Put(context.Context, string, string, []byte, string) error { return nil }

// usePipeline skips environment-driven setup and serves requests from a
// pipeline backed by an empty store.
func usePipeline(t *testing.T) {
	t.Helper()
	once.Do(func() {})
	prev := pipeline
	pipeline = services.NewPipeline(services.PipelineConfig{OutputBucket: "pdf-text-output"}, emptyStore{}, services.NewTextExtractor(false))
	t.Cleanup(func() { pipeline = prev })
}

func TestExtractTextHTTP(t *testing.T) {
	missing := `{\"Records\":[{\"s3\":{\"bucket\":{\"name\":\"uploads\"},\"object\":{\"key\":\"gone.pdf\"}}}]}`

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "batch without storage records",
			body:       `{"Records":[{"messageId":"m1","body":"{\"Records\":[]}"},{"messageId":"m2","body":""}]}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "malformed payload",
			body:       `not json`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "invalid batch payload",
		},
		{
			name:       "missing source object",
			body:       `{"Records":[{"messageId":"m1","body":"` + missing + `"}]}`,
			wantStatus: http.StatusInternalServerError,
			wantBody:   "object not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usePipeline(t)

			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			extractTextHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
				return
			}

			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var result models.InvocationResult
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
			assert.Equal(t, models.InvocationResult{StatusCode: 200, Body: "OK"}, result)
		})
	}
}
