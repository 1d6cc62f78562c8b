package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"github.com/Lllllllleong/pdftextworker/internal/models"
)

// GCSStore reads source documents from and writes artifacts to Cloud Storage.
type GCSStore struct {
	client *storage.Client
}

// NewGCSStore creates a Storage client using application default credentials.
func NewGCSStore(ctx context.Context) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	return &GCSStore{client: client}, nil
}

func (s *GCSStore) Scheme() string { return "gs" }

// Get streams the whole object into memory.
func (s *GCSStore) Get(ctx context.Context, bucket, object string) ([]byte, error) {
	gcsReader, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("gs://%s/%s: %w", bucket, object, models.ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", bucket, object, err)
	}
	defer gcsReader.Close()

	var buf bytes.Buffer
	if gcsReader.Attrs.Size > 0 {
		buf.Grow(int(gcsReader.Attrs.Size))
	}
	if _, err := io.Copy(&buf, gcsReader); err != nil {
		return nil, fmt.Errorf("failed to read GCS object gs://%s/%s: %w", bucket, object, err)
	}
	return buf.Bytes(), nil
}

// Put writes content to the object, overwriting any previous version so that
// reprocessing the same source replaces its artifact.
func (s *GCSStore) Put(ctx context.Context, bucket, object string, content []byte, contentType string) error {
	writer := s.client.Bucket(bucket).Object(object).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, bytes.NewReader(content)); err != nil {
		_ = writer.Close()
		slog.Error("Failed to copy content to GCS object", "bucket", bucket, "object", object, "error", err)
		return fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := writer.Close(); err != nil {
		slog.Error("Failed to close GCS writer", "bucket", bucket, "object", object, "error", err)
		return fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

func isNotFound(err error) bool {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return true
	}
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
