package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/pdftextworker/internal/awsclient"
	"github.com/Lllllllleong/pdftextworker/internal/config"
	"github.com/Lllllllleong/pdftextworker/internal/logging"
	"github.com/Lllllllleong/pdftextworker/internal/poller"
	"github.com/Lllllllleong/pdftextworker/internal/services"
)

var (
	envFile     string
	queueURL    string
	metricsAddr string
)

var rootCmd = &cobra.Command{
	Use:   "queue-poller",
	Short: "Long-poll an SQS queue and extract text from the PDFs it announces",
	Long: `queue-poller receives storage notifications from an SQS queue, writes a text
artifact for every referenced PDF and deletes each message once all of its
objects have been processed. Configuration comes from the environment; the
flags below override the matching variables.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.Flags().StringVar(&queueURL, "queue-url", "", "source queue URL (overrides SOURCE_QUEUE_URL)")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "metrics listen address (overrides METRICS_ADDR)")
}

func main() {
	logging.Setup(os.Stdout, slog.LevelInfo)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(envFile); err != nil && cmd.Flags().Changed("env-file") {
		return fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if queueURL != "" {
		cfg.SourceQueueURL = queueURL
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}
	if cfg.SourceQueueURL == "" {
		return errors.New("SOURCE_QUEUE_URL environment variable or --queue-url must be set")
	}
	logging.Setup(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	pipeline, closePipeline, err := services.NewPipelineFromConfig(ctx, cfg, reg)
	if err != nil {
		return fmt.Errorf("initialize pipeline: %w", err)
	}
	defer func() {
		if err := closePipeline(); err != nil {
			slog.Error("Failed to close clients", "error", err)
		}
	}()

	awsCfg, err := awsclient.LoadConfig(ctx, cfg.AWSRegion)
	if err != nil {
		return err
	}
	source := awsclient.NewQueue(awsclient.NewSQSClient(awsCfg, cfg.AWSEndpointURL), cfg.SourceQueueURL)
	p := poller.New(source, pipeline, poller.Config{
		MaxMessages: cfg.PollMaxMessages,
		WaitSeconds: cfg.PollWaitSeconds,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	server := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Metrics server listening.", "addr", cfg.MetricsAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return p.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
