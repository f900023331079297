// Package prometheus records process metrics for the analytics CLI.  A CLI
// invocation is short lived, so metrics are flushed to a node_exporter
// textfile rather than served over HTTP.
package prometheus

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/turtacn/SHG-Insights/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SHG-Insights/pkg/errors"
)

// MetricsCollector owns a private registry and the metric families
// registered on it during one invocation.
type MetricsCollector interface {
	RegisterCounter(name, help string, labels ...string) CounterVec
	RegisterGauge(name, help string, labels ...string) GaugeVec
	RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec
	Gather() ([]*dto.MetricFamily, error)
	// WriteTextfile stamps the last-run gauge and writes every family in the
	// text exposition format.
	WriteTextfile(path string) error
}

type CounterVec interface {
	WithLabelValues(lvs ...string) Counter
}

type Counter interface {
	Inc()
	Add(delta float64)
}

type GaugeVec interface {
	WithLabelValues(lvs ...string) Gauge
}

type Gauge interface {
	Set(value float64)
	Add(delta float64)
}

type HistogramVec interface {
	WithLabelValues(lvs ...string) Histogram
}

type Histogram interface {
	Observe(value float64)
}

// CollectorConfig names the metric families and the labels attached to every
// sample.  Subsystem is optional.
type CollectorConfig struct {
	Namespace   string
	Subsystem   string
	ConstLabels map[string]string
	// Buckets is used by RegisterHistogram when the caller passes nil.
	Buckets []float64
}

type registry struct {
	cfg     CollectorConfig
	reg     *prometheus.Registry
	lastRun prometheus.Gauge
	logger  logging.Logger

	mu       sync.Mutex
	families map[string]prometheus.Collector
}

// NewMetricsCollector creates a collector over a fresh registry.
func NewMetricsCollector(cfg CollectorConfig, logger logging.Logger) (MetricsCollector, error) {
	if cfg.Namespace == "" {
		return nil, errors.Validation("metrics namespace is required")
	}
	if cfg.Buckets == nil {
		cfg.Buckets = prometheus.DefBuckets
	}
	r := &registry{
		cfg:      cfg,
		reg:      prometheus.NewRegistry(),
		logger:   logger.Named("metrics"),
		families: make(map[string]prometheus.Collector),
	}
	r.lastRun = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   cfg.Namespace,
		Subsystem:   cfg.Subsystem,
		Name:        "last_run_timestamp_seconds",
		Help:        "Unix time at which the metrics file was last written",
		ConstLabels: cfg.ConstLabels,
	})
	r.reg.MustRegister(r.lastRun)
	return r, nil
}

func (r *registry) Gather() ([]*dto.MetricFamily, error) {
	return r.reg.Gather()
}

// WriteTextfile goes through a temporary file and a rename, so a scraper
// never reads a partial file.
func (r *registry) WriteTextfile(path string) error {
	r.lastRun.SetToCurrentTime()
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to write metrics textfile "+path)
	}
	r.logger.Debug("Wrote metrics textfile", logging.String("path", path))
	return nil
}

func (r *registry) RegisterCounter(name, help string, labels ...string) CounterVec {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts(r.opts(name, help)), labels)
	if got, ok := lookupOrRegister(r, name, vec); ok {
		return counterVec{got}
	}
	return noopCounterVec{}
}

func (r *registry) RegisterGauge(name, help string, labels ...string) GaugeVec {
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts(r.opts(name, help)), labels)
	if got, ok := lookupOrRegister(r, name, vec); ok {
		return gaugeVec{got}
	}
	return noopGaugeVec{}
}

func (r *registry) RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec {
	if buckets == nil {
		buckets = r.cfg.Buckets
	}
	o := r.opts(name, help)
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   o.Namespace,
		Subsystem:   o.Subsystem,
		Name:        o.Name,
		Help:        o.Help,
		ConstLabels: o.ConstLabels,
		Buckets:     buckets,
	}, labels)
	if got, ok := lookupOrRegister(r, name, vec); ok {
		return histogramVec{got}
	}
	return noopHistogramVec{}
}

func (r *registry) opts(name, help string) prometheus.Opts {
	return prometheus.Opts{
		Namespace:   r.cfg.Namespace,
		Subsystem:   r.cfg.Subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: r.cfg.ConstLabels,
	}
}

// lookupOrRegister returns the family already registered under name, or
// registers fresh.  ok is false when registration fails or the existing
// family has a different type; metrics then degrade to no-ops.
func lookupOrRegister[V prometheus.Collector](r *registry, name string, fresh V) (V, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fq := prometheus.BuildFQName(r.cfg.Namespace, r.cfg.Subsystem, name)
	existing, seen := r.families[fq]
	if !seen {
		if err := r.reg.Register(fresh); err != nil {
			r.logger.Error("Failed to register metric", logging.String("name", fq), logging.Err(err))
			return fresh, false
		}
		r.families[fq] = fresh
		return fresh, true
	}
	v, ok := existing.(V)
	if !ok {
		r.logger.Warn("Metric registered with another type", logging.String("name", fq))
	}
	return v, ok
}

type counterVec struct{ *prometheus.CounterVec }

func (v counterVec) WithLabelValues(lvs ...string) Counter { return v.CounterVec.WithLabelValues(lvs...) }

type gaugeVec struct{ *prometheus.GaugeVec }

func (v gaugeVec) WithLabelValues(lvs ...string) Gauge { return v.GaugeVec.WithLabelValues(lvs...) }

type histogramVec struct{ *prometheus.HistogramVec }

func (v histogramVec) WithLabelValues(lvs ...string) Histogram {
	return v.HistogramVec.WithLabelValues(lvs...)
}

type noopCounterVec struct{}

func (noopCounterVec) WithLabelValues(...string) Counter { return noop{} }

type noopGaugeVec struct{}

func (noopGaugeVec) WithLabelValues(...string) Gauge { return noop{} }

type noopHistogramVec struct{}

func (noopHistogramVec) WithLabelValues(...string) Histogram { return noop{} }

type noop struct{}

func (noop) Inc()            {}
func (noop) Add(float64)     {}
func (noop) Set(float64)     {}
func (noop) Observe(float64) {}

// Timer measures one operation into a histogram.  A nil histogram only
// measures.
type Timer struct {
	h     Histogram
	start time.Time
}

func NewTimer(h Histogram) *Timer {
	return &Timer{h: h, start: time.Now()}
}

// ObserveDuration records the elapsed seconds and returns the duration.
func (t *Timer) ObserveDuration() time.Duration {
	d := time.Since(t.start)
	if t.h != nil {
		t.h.Observe(d.Seconds())
	}
	return d
}
