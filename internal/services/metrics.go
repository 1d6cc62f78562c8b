package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's Prometheus collectors.
type Metrics struct {
	messagesTotal      *prometheus.CounterVec
	objectsTotal       *prometheus.CounterVec
	pagesExtracted     prometheus.Counter
	extractionFailures prometheus.Counter
	notificationsTotal *prometheus.CounterVec
	processingDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		messagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pdftext_messages_total",
				Help: "Queue messages handled, by decode status",
			},
			[]string{"status"},
		),
		objectsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pdftext_objects_total",
				Help: "Source objects processed, by outcome",
			},
			[]string{"status"},
		),
		pagesExtracted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pdftext_pages_extracted_total",
				Help: "Pages enumerated across all processed documents",
			},
		),
		extractionFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pdftext_extraction_failures_total",
				Help: "Documents whose container could not be parsed",
			},
		),
		notificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pdftext_notifications_total",
				Help: "Completion notifications, by delivery status",
			},
			[]string{"status"},
		),
		processingDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pdftext_processing_duration_seconds",
				Help:    "Time taken to process one source object",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
		),
	}
}
