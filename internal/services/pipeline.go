package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Lllllllleong/pdftextworker/internal/models"
)

// ObjectStore fetches source documents and stores artifacts.
type ObjectStore interface {
	// Scheme is the URI scheme used to render object locations, e.g. "s3".
	Scheme() string
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, content []byte, contentType string) error
}

// Notifier delivers a serialized completion event to its configured destination.
type Notifier interface {
	Destination() string
	Send(ctx context.Context, body string) error
}

// StatusLedger records per-object processing status for operators.
type StatusLedger interface {
	Begin(ctx context.Context, doc models.Document) error
	Complete(ctx context.Context, doc models.Document) error
	Fail(ctx context.Context, sourceURI, details string) error
}

// PipelineConfig holds the settings the pipeline needs at run time.
type PipelineConfig struct {
	OutputBucket string
}

// Pipeline decodes queued notifications and turns each referenced PDF into a text artifact.
type Pipeline struct {
	store     ObjectStore
	notifier  Notifier
	ledger    StatusLedger
	extractor *TextExtractor
	metrics   *Metrics
	config    PipelineConfig
}

type PipelineOption func(*Pipeline)

// WithNotifier enables completion events. A nil notifier leaves emission disabled.
func WithNotifier(n Notifier) PipelineOption {
	return func(p *Pipeline) { p.notifier = n }
}

// WithLedger enables the status ledger.
func WithLedger(l StatusLedger) PipelineOption {
	return func(p *Pipeline) { p.ledger = l }
}

func WithMetrics(m *Metrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

func NewPipeline(config PipelineConfig, store ObjectStore, extractor *TextExtractor, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		store:     store,
		extractor: extractor,
		config:    config,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = NewMetrics(prometheus.NewRegistry())
	}
	return p
}

type OutcomeStatus string

const (
	OutcomeCompleted OutcomeStatus = "completed"
	OutcomeFailed    OutcomeStatus = "failed"
)

// Outcome is the tagged result of one descriptor.
type Outcome struct {
	Descriptor models.StorageObjectDescriptor
	Status     OutcomeStatus
	Event      *models.CompletionEvent
	Err        error
	// NotifyErr is set when the artifact was stored but the event could not be delivered.
	NotifyErr error
}

// MessageResult groups the outcomes of one queue message. Err is set when the
// message body could not be decoded, in which case Outcomes is empty.
type MessageResult struct {
	MessageID     string
	ReceiptHandle string
	Err           error
	Outcomes      []Outcome
}

// Failed reports whether the message needs redelivery.
func (m MessageResult) Failed() bool {
	if m.Err != nil {
		return true
	}
	for _, o := range m.Outcomes {
		if o.Status == OutcomeFailed {
			return true
		}
	}
	return false
}

// BatchResult aggregates every message of one invocation.
type BatchResult struct {
	Messages []MessageResult
}

// Err joins all fatal errors of the batch; nil means the batch can be acknowledged.
func (b *BatchResult) Err() error {
	var errs []error
	for _, m := range b.Messages {
		if m.Err != nil {
			errs = append(errs, fmt.Errorf("message %s: %w", m.MessageID, m.Err))
		}
		for _, o := range m.Outcomes {
			if o.Err != nil {
				errs = append(errs, fmt.Errorf("message %s: %w", m.MessageID, o.Err))
			}
		}
	}
	return errors.Join(errs...)
}

// Counts returns the number of completed and failed descriptors.
func (b *BatchResult) Counts() (completed, failed int) {
	for _, m := range b.Messages {
		for _, o := range m.Outcomes {
			if o.Status == OutcomeCompleted {
				completed++
			} else {
				failed++
			}
		}
	}
	return completed, failed
}

// Succeeded returns the messages that can be acknowledged individually.
func (b *BatchResult) Succeeded() []MessageResult {
	var ok []MessageResult
	for _, m := range b.Messages {
		if !m.Failed() {
			ok = append(ok, m)
		}
	}
	return ok
}

// OKResult is the acknowledgement returned to the runtime for a successful batch.
func OKResult() models.InvocationResult {
	return models.InvocationResult{StatusCode: 200, Body: "OK"}
}

// ProcessBatch handles every message in order. Failures never stop later messages;
// side effects of completed descriptors are kept even when the batch fails.
func (p *Pipeline) ProcessBatch(ctx context.Context, batch models.QueueBatch) (*BatchResult, error) {
	slog.Info("Processing batch.", "messageCount", len(batch.Records))

	result := &BatchResult{Messages: make([]MessageResult, 0, len(batch.Records))}
	for _, msg := range batch.Records {
		result.Messages = append(result.Messages, p.ProcessMessage(ctx, msg))
	}

	completed, failed := result.Counts()
	err := result.Err()
	if err != nil {
		slog.Error("Batch finished with failures; it will be redelivered.", "completed", completed, "failed", failed, "error", err)
		return result, err
	}
	slog.Info("Batch complete.", "completed", completed)
	return result, nil
}

// ProcessMessage decodes one message and processes each of its descriptors.
func (p *Pipeline) ProcessMessage(ctx context.Context, msg models.QueueMessage) MessageResult {
	res := MessageResult{MessageID: msg.MessageID, ReceiptHandle: msg.ReceiptHandle}

	descriptors, err := DecodeNotification(msg.Body)
	if err != nil {
		p.metrics.messagesTotal.WithLabelValues("decode_failed").Inc()
		slog.Error("Failed to decode notification", "messageId", msg.MessageID, "error", err, "body", msg.Body)
		res.Err = err
		return res
	}
	p.metrics.messagesTotal.WithLabelValues("decoded").Inc()
	if len(descriptors) == 0 {
		slog.Info("Message carries no storage records. Skipping.", "messageId", msg.MessageID)
		return res
	}

	for _, d := range descriptors {
		res.Outcomes = append(res.Outcomes, p.ProcessObject(ctx, msg.MessageID, d))
	}
	return res
}

// ProcessObject runs fetch, extract, compose, store and notify for one descriptor.
func (p *Pipeline) ProcessObject(ctx context.Context, messageID string, d models.StorageObjectDescriptor) Outcome {
	start := time.Now()
	defer func() { p.metrics.processingDuration.Observe(time.Since(start).Seconds()) }()

	logCtx := slog.With("messageId", messageID, "bucket", d.Bucket, "key", d.Key)
	logCtx.Info("Processing object.", "declaredSize", d.Size)

	outcome := Outcome{Descriptor: d, Status: OutcomeFailed}
	sourceURI := ObjectURI(p.store.Scheme(), d.Bucket, d.Key)
	p.beginLedger(ctx, logCtx, messageID, sourceURI)

	content, err := p.store.Get(ctx, d.Bucket, d.Key)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			logCtx.Warn("Source object does not exist.")
		}
		outcome.Err = p.handleError(ctx, logCtx, sourceURI, newError(KindFetch, d.Bucket, d.Key, err))
		return outcome
	}
	fileSize := int64(len(content))
	logCtx.Info("Fetched source object.", "fileSize", fileSize)

	doc := p.extractor.Extract(content)
	if doc.ExtractionError != "" {
		p.metrics.extractionFailures.Inc()
		logCtx.Warn("Text extraction failed; recording the error in the output.",
			"error", newError(KindExtraction, d.Bucket, d.Key, errors.New(doc.ExtractionError)))
	}
	p.metrics.pagesExtracted.Add(float64(doc.PageCount))

	text := JoinPages(doc)
	artifact := ComposeArtifact(p.store.Scheme(), d.Bucket, d.Key, fileSize, doc.PageCount, text)

	if err := p.store.Put(ctx, p.config.OutputBucket, artifact.Key, artifact.Content, artifact.ContentType); err != nil {
		outcome.Err = p.handleError(ctx, logCtx, sourceURI, newError(KindStore, p.config.OutputBucket, artifact.Key, err))
		return outcome
	}
	outputURI := ObjectURI(p.store.Scheme(), p.config.OutputBucket, artifact.Key)
	logCtx.Info("Stored extracted text.", "outputUri", outputURI, "pages", doc.PageCount)

	event := &models.CompletionEvent{
		Status:       string(OutcomeCompleted),
		SourceBucket: d.Bucket,
		SourceKey:    d.Key,
		OutputBucket: p.config.OutputBucket,
		OutputKey:    artifact.Key,
		FileSize:     fileSize,
		Pages:        doc.PageCount,
		TextLength:   utf8.RuneCountInString(text),
	}
	outcome.NotifyErr = p.notify(ctx, logCtx, event)

	if p.ledger != nil {
		record := models.Document{
			SourceURI:  sourceURI,
			OutputURI:  outputURI,
			FileHash:   contentHash(content),
			Status:     models.StatusCompleted,
			FileSize:   fileSize,
			PageCount:  doc.PageCount,
			TextLength: event.TextLength,
			UpdatedAt:  time.Now(),
		}
		if err := p.ledger.Complete(ctx, record); err != nil {
			logCtx.Error("Failed to record completion in ledger", "error", newError(KindLedger, d.Bucket, d.Key, err))
		}
	}

	p.metrics.objectsTotal.WithLabelValues(string(OutcomeCompleted)).Inc()
	outcome.Status = OutcomeCompleted
	outcome.Event = event
	return outcome
}

// notify emits the completion event. Delivery failures are logged and returned
// for observability but never fail the descriptor.
func (p *Pipeline) notify(ctx context.Context, logCtx *slog.Logger, event *models.CompletionEvent) error {
	if p.notifier == nil {
		p.metrics.notificationsTotal.WithLabelValues("disabled").Inc()
		logCtx.Info("No result destination configured; completion notification skipped.")
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.metrics.notificationsTotal.WithLabelValues("failed").Inc()
		err = newError(KindNotify, event.SourceBucket, event.SourceKey, fmt.Errorf("failed to marshal completion event: %w", err))
		logCtx.Error("Failed to build completion notification", "error", err)
		return err
	}
	if err := p.notifier.Send(ctx, string(body)); err != nil {
		p.metrics.notificationsTotal.WithLabelValues("failed").Inc()
		err = newError(KindNotify, event.SourceBucket, event.SourceKey, err)
		logCtx.Error("Failed to send completion notification", "destination", p.notifier.Destination(), "error", err)
		return err
	}
	p.metrics.notificationsTotal.WithLabelValues("sent").Inc()
	logCtx.Info("Completion notification sent.", "destination", p.notifier.Destination())
	return nil
}

func (p *Pipeline) beginLedger(ctx context.Context, logCtx *slog.Logger, messageID, sourceURI string) {
	if p.ledger == nil {
		return
	}
	now := time.Now()
	doc := models.Document{
		SourceURI: sourceURI,
		Status:    models.StatusProcessing,
		MessageID: messageID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.ledger.Begin(ctx, doc); err != nil {
		logCtx.Error("Failed to record processing start in ledger", "error", err)
	}
}

// handleError logs a fatal descriptor error, marks the ledger record FAILED and
// returns the error for the batch boundary.
func (p *Pipeline) handleError(ctx context.Context, logCtx *slog.Logger, sourceURI string, err *ProcessingError) error {
	p.metrics.objectsTotal.WithLabelValues(string(OutcomeFailed)).Inc()
	logCtx.Error("Failed to process object", "kind", err.Kind, "error", err)
	if p.ledger != nil {
		if lerr := p.ledger.Fail(ctx, sourceURI, err.Error()); lerr != nil {
			logCtx.Error("CRITICAL: Failed to update ledger status to FAILED after a processing error.", "updateError", lerr)
		}
	}
	return err
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
