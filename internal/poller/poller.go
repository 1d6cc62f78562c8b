// Package poller drives the pipeline from a long-polled queue, acknowledging
// each message on its own once every descriptor in it has completed.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Lllllllleong/pdftextworker/internal/models"
	"github.com/Lllllllleong/pdftextworker/internal/services"
)

// Source is a queue that hands out batches and accepts acknowledgements.
type Source interface {
	Receive(ctx context.Context, maxMessages, waitSeconds int) (models.QueueBatch, error)
	Delete(ctx context.Context, receiptHandle string) error
}

// Processor handles one batch.
type Processor interface {
	ProcessBatch(ctx context.Context, batch models.QueueBatch) (*services.BatchResult, error)
}

type Config struct {
	MaxMessages int
	WaitSeconds int
	// RetryDelay is the pause after a failed receive, and after an empty
	// receive when WaitSeconds is 0.
	RetryDelay time.Duration
}

type Poller struct {
	source    Source
	processor Processor
	config    Config
}

func New(source Source, processor Processor, config Config) *Poller {
	if config.RetryDelay <= 0 {
		config.RetryDelay = 5 * time.Second
	}
	return &Poller{source: source, processor: processor, config: config}
}

// Run polls until ctx is cancelled. Receive errors are logged and retried.
func (p *Poller) Run(ctx context.Context) error {
	slog.Info("Poller started.", "maxMessages", p.config.MaxMessages, "waitSeconds", p.config.WaitSeconds)
	for {
		received, err := p.PollOnce(ctx)
		if ctx.Err() != nil {
			slog.Info("Poller stopped.")
			return nil
		}

		wait := time.Duration(0)
		switch {
		case err != nil:
			slog.Error("Failed to receive messages; retrying.", "error", err, "retryIn", p.config.RetryDelay)
			wait = p.config.RetryDelay
		case received == 0 && p.config.WaitSeconds == 0:
			// Short polling returns at once on an empty queue.
			wait = p.config.RetryDelay
		}
		if wait == 0 {
			continue
		}
		select {
		case <-ctx.Done():
			slog.Info("Poller stopped.")
			return nil
		case <-time.After(wait):
		}
	}
}

// PollOnce receives one batch, processes it and deletes the messages that
// succeeded. Failed messages stay on the queue for redelivery. It returns the
// number of messages received.
func (p *Poller) PollOnce(ctx context.Context) (int, error) {
	batch, err := p.source.Receive(ctx, p.config.MaxMessages, p.config.WaitSeconds)
	if err != nil {
		return 0, err
	}
	if len(batch.Records) == 0 {
		return 0, nil
	}

	result, err := p.processor.ProcessBatch(ctx, batch)
	if err != nil {
		slog.Warn("Some messages failed and will be redelivered.", "error", err)
	}
	if result == nil {
		return len(batch.Records), nil
	}

	var deleteErrs []error
	for _, m := range result.Succeeded() {
		if m.ReceiptHandle == "" {
			continue
		}
		if err := p.source.Delete(ctx, m.ReceiptHandle); err != nil {
			slog.Error("Failed to delete processed message", "messageId", m.MessageID, "error", err)
			deleteErrs = append(deleteErrs, err)
		}
	}
	if len(deleteErrs) > 0 {
		slog.Warn("Processed messages could not be acknowledged and will be redelivered.", "count", len(deleteErrs), "error", errors.Join(deleteErrs...))
	}
	return len(batch.Records), nil
}
