// Package config loads the worker configuration once at process start.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

const (
	BackendS3  = "s3"
	BackendGCS = "gcs"
)

// Config holds all configuration for the worker. It is built once by Load and
// passed by reference into the pipeline; nothing downstream reads the environment.
type Config struct {
	StorageBackend string
	AWSRegion      string
	AWSEndpointURL string
	OutputBucket   string

	// ResultDestination selects the completion transport. Empty disables emission.
	ResultDestination string

	ProjectID           string
	FirestoreCollection string

	NormalizePDF bool

	SourceQueueURL  string
	PollMaxMessages int
	PollWaitSeconds int
	MetricsAddr     string

	LogLevel slog.Level
}

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// Load reads and validates the worker configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		StorageBackend:      strings.ToLower(GetEnv("STORAGE_BACKEND", BackendS3)),
		AWSRegion:           GetEnv("AWS_DEFAULT_REGION", "us-east-1"),
		AWSEndpointURL:      GetEnv("AWS_ENDPOINT_URL", ""),
		OutputBucket:        GetEnv("OUTPUT_BUCKET", "pdf-text-output"),
		ResultDestination:   strings.TrimSpace(GetEnv("RESULT_QUEUE_URL", "")),
		ProjectID:           GetEnv("PROJECT_ID", ""),
		FirestoreCollection: GetEnv("FIRESTORE_COLLECTION", ""),
		SourceQueueURL:      GetEnv("SOURCE_QUEUE_URL", ""),
		MetricsAddr:         GetEnv("METRICS_ADDR", ":9090"),
	}

	var err error
	if cfg.NormalizePDF, err = strconv.ParseBool(GetEnv("NORMALIZE_PDF", "true")); err != nil {
		return nil, fmt.Errorf("NORMALIZE_PDF must be a boolean: %w", err)
	}
	if cfg.PollMaxMessages, err = strconv.Atoi(GetEnv("POLL_MAX_MESSAGES", "10")); err != nil {
		return nil, fmt.Errorf("POLL_MAX_MESSAGES must be an integer: %w", err)
	}
	if cfg.PollWaitSeconds, err = strconv.Atoi(GetEnv("POLL_WAIT_SECONDS", "20")); err != nil {
		return nil, fmt.Errorf("POLL_WAIT_SECONDS must be an integer: %w", err)
	}
	if cfg.LogLevel, err = parseLevel(GetEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case BackendS3, BackendGCS:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", BackendS3, BackendGCS, c.StorageBackend)
	}
	if c.OutputBucket == "" {
		return fmt.Errorf("OUTPUT_BUCKET environment variable must be set")
	}
	if c.FirestoreCollection != "" && c.ProjectID == "" {
		return fmt.Errorf("PROJECT_ID environment variable must be set when FIRESTORE_COLLECTION is set")
	}
	if c.PollMaxMessages < 1 || c.PollMaxMessages > 10 {
		return fmt.Errorf("POLL_MAX_MESSAGES must be between 1 and 10, got %d", c.PollMaxMessages)
	}
	if c.PollWaitSeconds < 0 || c.PollWaitSeconds > 20 {
		return fmt.Errorf("POLL_WAIT_SECONDS must be between 0 and 20, got %d", c.PollWaitSeconds)
	}
	return nil
}

// NotificationsEnabled reports whether a completion destination is configured.
func (c *Config) NotificationsEnabled() bool {
	return c.ResultDestination != ""
}

// LedgerEnabled reports whether the Firestore status ledger is configured.
func (c *Config) LedgerEnabled() bool {
	return c.FirestoreCollection != ""
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL %q is not a valid level: %w", s, err)
	}
	return level, nil
}
