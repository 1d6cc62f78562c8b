package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Lllllllleong/pdftextworker/internal/config"
	"github.com/Lllllllleong/pdftextworker/internal/logging"
	"github.com/Lllllllleong/pdftextworker/internal/models"
	"github.com/Lllllllleong/pdftextworker/internal/services"
)

var (
	pipeline *services.Pipeline
	once     sync.Once
	initErr  error
	logLevel = new(slog.LevelVar)
)

func init() {
	logging.Setup(os.Stdout, logLevel)

	functions.CloudEvent("ExtractText", extractText)
	functions.HTTP("ExtractTextHTTP", extractTextHTTP)
	functions.HTTP("Metrics", promhttp.Handler().ServeHTTP)
}

// main is required by the Go Functions Framework.
func main() {}

func setup() (*services.Pipeline, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logLevel.Set(cfg.LogLevel)

	p, _, err := services.NewPipelineFromConfig(context.Background(), cfg, prometheus.DefaultRegisterer)
	return p, err
}

// extractText receives one batch of queued storage notifications. Returning an
// error fails the whole invocation so the runtime redelivers the batch.
func extractText(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		pipeline, initErr = setup()
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var batch models.QueueBatch
	if err := json.Unmarshal(e.Data(), &batch); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	if _, err := pipeline.ProcessBatch(ctx, batch); err != nil {
		return err
	}

	ack := services.OKResult()
	slog.Info("Batch acknowledged.", "eventId", e.ID(), "statusCode", ack.StatusCode, "body", ack.Body)
	return nil
}

// extractTextHTTP accepts the same batch as a POSTed JSON body and answers with
// the invocation result, or a 500 so the caller retries the batch.
func extractTextHTTP(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		pipeline, initErr = setup()
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		http.Error(w, "initialization failed", http.StatusInternalServerError)
		return
	}

	var batch models.QueueBatch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		slog.Error("Failed to decode request body", "error", err)
		http.Error(w, "invalid batch payload", http.StatusBadRequest)
		return
	}

	if _, err := pipeline.ProcessBatch(r.Context(), batch); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(services.OKResult()); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
