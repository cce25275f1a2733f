// Package metrics records batch validation metrics with Prometheus and
// writes them in the node-exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/abhisek/quizprep/internal/validation"
)

// Collector implements batch.Recorder on its own registry.
type Collector struct {
	registry *prometheus.Registry

	records      *prometheus.CounterVec
	issues       *prometheus.CounterVec
	conversions  prometheus.Counter
	recordTime   prometheus.Histogram
	runs         *prometheus.CounterVec
	runDuration  prometheus.Histogram
	lastRunSize  prometheus.Gauge
	lastRunEpoch prometheus.Gauge
}

// New returns a Collector with all quizprep metrics registered.
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		records: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quizprep",
			Name:      "records_total",
			Help:      "Records validated, by question type and status",
		}, []string{"type", "status"}),
		issues: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quizprep",
			Name:      "issues_total",
			Help:      "Validation issues found, by severity and code",
		}, []string{"severity", "code"}),
		conversions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "quizprep",
			Name:      "unicode_conversions_total",
			Help:      "Unicode symbols rewritten to markup-math",
		}),
		recordTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quizprep",
			Name:      "record_duration_seconds",
			Help:      "Time spent validating one record",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
		}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quizprep",
			Name:      "runs_total",
			Help:      "Batch runs, by whether they were cancelled",
		}, []string{"cancelled"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quizprep",
			Name:      "run_duration_seconds",
			Help:      "Duration of batch runs",
			Buckets:   prometheus.DefBuckets,
		}),
		lastRunSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "quizprep",
			Name:      "last_run_records",
			Help:      "Records completed by the most recent run",
		}),
		lastRunEpoch: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "quizprep",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the most recent run finished",
		}),
	}
}

// ObserveRecord counts one validated record.
func (c *Collector) ObserveRecord(res validation.Result, elapsed time.Duration) {
	typ := string(res.Type)
	if typ == "" {
		typ = "unknown"
	}
	c.records.WithLabelValues(typ, string(res.Status)).Inc()
	for _, is := range res.Issues {
		c.issues.WithLabelValues(string(is.Severity), string(is.Code)).Inc()
	}
	c.conversions.Add(float64(len(res.Conversions)))
	c.recordTime.Observe(elapsed.Seconds())
}

// ObserveRun records the end of a batch run.
func (c *Collector) ObserveRun(records int, elapsed time.Duration, cancelled bool) {
	c.runs.WithLabelValues(fmt.Sprint(cancelled)).Inc()
	c.runDuration.Observe(elapsed.Seconds())
	c.lastRunSize.Set(float64(records))
	c.lastRunEpoch.SetToCurrentTime()
}

// WriteTextfile writes all metrics to path atomically in the Prometheus
// text format.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
