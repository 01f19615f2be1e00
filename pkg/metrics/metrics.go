package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config represents metrics configuration
type Config struct {
	Enabled      bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Namespace    string `json:"namespace" yaml:"namespace" mapstructure:"namespace"`
	TextfilePath string `json:"textfile_path" yaml:"textfile_path" mapstructure:"textfile_path"`
}

// Collector manages all metrics for a generator run
type Collector struct {
	namespace string
	registry  *prometheus.Registry

	// Generation metrics
	RecordsGenerated   *prometheus.CounterVec
	FlagsEmbedded      *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec

	// Verification metrics
	VerificationFailures *prometheus.CounterVec

	// Output metrics
	FilesWritten *prometheus.CounterVec
	SinkWrites   *prometheus.CounterVec
	ErrorsTotal  *prometheus.CounterVec

	StartTime prometheus.Gauge
}

// NewCollector creates a new metrics collector
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		namespace: namespace,
		registry:  registry,
	}

	c.initializeMetrics()
	c.registerMetrics()

	return c
}

// initializeMetrics initializes all metrics
func (c *Collector) initializeMetrics() {
	c.RecordsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: c.namespace,
			Name:      "records_generated_total",
			Help:      "Total number of synthesized records",
		},
		[]string{"exercise", "table"},
	)

	c.FlagsEmbedded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: c.namespace,
			Name:      "flag_records_total",
			Help:      "Records carrying a flag token",
		},
		[]string{"exercise"},
	)

	c.GenerationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: c.namespace,
			Name:      "generation_duration_seconds",
			Help:      "Time spent composing one exercise dataset",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		},
		[]string{"exercise"},
	)

	c.VerificationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: c.namespace,
			Name:      "verification_failures_total",
			Help:      "Failed dataset checks",
		},
		[]string{"exercise"},
	)

	c.FilesWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: c.namespace,
			Name:      "files_written_total",
			Help:      "Table files written to disk",
		},
		[]string{"format"},
	)

	c.SinkWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: c.namespace,
			Name:      "sink_writes_total",
			Help:      "Dataset publications per sink",
		},
		[]string{"sink", "status"},
	)

	c.ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: c.namespace,
			Name:      "errors_total",
			Help:      "Total number of errors",
		},
		[]string{"error_type", "component"},
	)

	c.StartTime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: c.namespace,
			Name:      "start_time_seconds",
			Help:      "Start time of the run since unix epoch in seconds",
		},
	)
}

// registerMetrics registers all metrics with the registry
func (c *Collector) registerMetrics() {
	c.registry.MustRegister(c.RecordsGenerated)
	c.registry.MustRegister(c.FlagsEmbedded)
	c.registry.MustRegister(c.GenerationDuration)
	c.registry.MustRegister(c.VerificationFailures)
	c.registry.MustRegister(c.FilesWritten)
	c.registry.MustRegister(c.SinkWrites)
	c.registry.MustRegister(c.ErrorsTotal)
	c.registry.MustRegister(c.StartTime)

	c.StartTime.SetToCurrentTime()
}

// RecordGeneration records the outcome of composing one exercise
func (c *Collector) RecordGeneration(exercise string, tableCounts map[string]int, flagRecords int, duration time.Duration) {
	for table, n := range tableCounts {
		c.RecordsGenerated.WithLabelValues(exercise, table).Add(float64(n))
	}
	c.FlagsEmbedded.WithLabelValues(exercise).Add(float64(flagRecords))
	c.GenerationDuration.WithLabelValues(exercise).Observe(duration.Seconds())
}

// RecordVerificationFailure records a failed dataset check
func (c *Collector) RecordVerificationFailure(exercise string) {
	c.VerificationFailures.WithLabelValues(exercise).Inc()
}

// RecordFileWritten records a persisted table file
func (c *Collector) RecordFileWritten(format string) {
	c.FilesWritten.WithLabelValues(format).Inc()
}

// RecordSinkWrite records a sink publication
func (c *Collector) RecordSinkWrite(sink string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.SinkWrites.WithLabelValues(sink, status).Inc()
}

// RecordError records error metrics
func (c *Collector) RecordError(errorType, component string) {
	c.ErrorsTotal.WithLabelValues(errorType, component).Inc()
}

// WriteTextfile dumps the registry in the node_exporter textfile format
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// Timer helps measure operation duration
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed duration
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
