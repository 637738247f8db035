package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/princekumarofficial/asset-service/internal/ingest"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports upload and ingestion metrics. A nil *Collector is a
// valid no-op.
type Collector struct {
	uploadDuration *prometheus.HistogramVec
	uploadErrors   *prometheus.CounterVec
	uploadBytes    prometheus.Counter
	ingestRows     *prometheus.CounterVec
	ingestBatches  *prometheus.CounterVec
}

// New registers the collectors on reg (the default registerer when nil).
func New(namespace string, reg prometheus.Registerer) (*Collector, error) {
	if namespace == "" {
		namespace = "asset_service"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		uploadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_duration_seconds",
			Help:      "Latency of storing an uploaded image and its record.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend"}),
		uploadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_errors_total",
			Help:      "Count of failed uploads.",
		}, []string{"backend"}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Cumulative payload size successfully stored.",
		}),
		ingestRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_rows_total",
			Help:      "Ingestion rows by outcome.",
		}, []string{"result"}),
		ingestBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_batches_total",
			Help:      "Ingestion batches by outcome.",
		}, []string{"result"}),
	}

	var err error
	if c.uploadDuration, err = register(reg, c.uploadDuration); err != nil {
		return nil, err
	}
	if c.uploadErrors, err = register(reg, c.uploadErrors); err != nil {
		return nil, err
	}
	if c.uploadBytes, err = register(reg, c.uploadBytes); err != nil {
		return nil, err
	}
	if c.ingestRows, err = register(reg, c.ingestRows); err != nil {
		return nil, err
	}
	if c.ingestBatches, err = register(reg, c.ingestBatches); err != nil {
		return nil, err
	}

	return c, nil
}

// register adds collector to reg, reusing the one already registered
// under the same descriptor.
func register[T prometheus.Collector](reg prometheus.Registerer, collector T) (T, error) {
	if err := reg.Register(collector); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return collector, fmt.Errorf("register metric: %w", err)
	}
	return collector, nil
}

// RecordUpload tracks one upload through the given storage backend.
func (c *Collector) RecordUpload(backend string, duration time.Duration, size int, err error) {
	if c == nil {
		return
	}
	c.uploadDuration.WithLabelValues(backend).Observe(duration.Seconds())
	if err != nil {
		c.uploadErrors.WithLabelValues(backend).Inc()
		return
	}
	c.uploadBytes.Add(float64(size))
}

func (c *Collector) BatchStarted(int) {}

func (c *Collector) RowDone(outcome ingest.RowOutcome) {
	if c == nil {
		return
	}
	result := "success"
	if outcome.Err != nil {
		result = "failure"
	}
	c.ingestRows.WithLabelValues(result).Inc()
}

func (c *Collector) BatchFinished(summary *ingest.Summary) {
	if c == nil {
		return
	}
	result := "completed"
	switch {
	case summary.Aborted:
		result = "aborted"
	case summary.Failed > 0:
		result = "partial"
	}
	c.ingestBatches.WithLabelValues(result).Inc()
}

var _ ingest.Observer = (*Collector)(nil)
