package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Lllllllleong/pdftextworker/internal/awsclient"
	"github.com/Lllllllleong/pdftextworker/internal/config"
	"github.com/Lllllllleong/pdftextworker/internal/gcp"
	"github.com/Lllllllleong/pdftextworker/internal/natsbus"
)

// NewPipelineFromConfig builds the storage backend, completion notifier and
// status ledger named by cfg. The returned close function releases every client.
func NewPipelineFromConfig(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*Pipeline, func() error, error) {
	var closers []io.Closer
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i].Close())
		}
		return errors.Join(errs...)
	}
	fail := func(err error) (*Pipeline, func() error, error) {
		_ = closeAll()
		return nil, nil, err
	}

	store, err := newStore(ctx, cfg, &closers)
	if err != nil {
		return fail(err)
	}

	opts := []PipelineOption{WithMetrics(NewMetrics(reg))}

	if cfg.NotificationsEnabled() {
		notifier, err := newNotifier(ctx, cfg, &closers)
		if err != nil {
			return fail(err)
		}
		opts = append(opts, WithNotifier(notifier))
	}

	if cfg.LedgerEnabled() {
		client, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, client)
		opts = append(opts, WithLedger(gcp.NewFirestoreLedger(client, cfg.FirestoreCollection)))
	}

	slog.Info("Pipeline initialized.",
		"storageBackend", cfg.StorageBackend,
		"outputBucket", cfg.OutputBucket,
		"resultDestination", cfg.ResultDestination,
		"ledgerCollection", cfg.FirestoreCollection,
		"normalizePdf", cfg.NormalizePDF,
	)

	p := NewPipeline(PipelineConfig{OutputBucket: cfg.OutputBucket}, store, NewTextExtractor(cfg.NormalizePDF), opts...)
	return p, closeAll, nil
}

func newStore(ctx context.Context, cfg *config.Config, closers *[]io.Closer) (ObjectStore, error) {
	switch cfg.StorageBackend {
	case config.BackendGCS:
		store, err := gcp.NewGCSStore(ctx)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, store)
		return store, nil
	case config.BackendS3:
		awsCfg, err := awsclient.LoadConfig(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		return awsclient.NewS3Store(awsCfg, cfg.AWSEndpointURL), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
	}
}

// newNotifier picks the transport from the shape of the destination: a workflow
// resource name, a nats:// URL, or otherwise an SQS queue URL.
func newNotifier(ctx context.Context, cfg *config.Config, closers *[]io.Closer) (Notifier, error) {
	dest := cfg.ResultDestination
	switch {
	case gcp.IsWorkflowName(dest):
		n, err := gcp.NewWorkflowNotifier(ctx, dest)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, n)
		return n, nil
	case strings.HasPrefix(dest, natsbus.Scheme+"://"):
		n, err := natsbus.NewPublisher(dest)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, n)
		return n, nil
	default:
		awsCfg, err := awsclient.LoadConfig(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		return awsclient.NewQueue(awsclient.NewSQSClient(awsCfg, cfg.AWSEndpointURL), dest), nil
	}
}
