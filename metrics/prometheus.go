package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics wraps an isolated Prometheus registry plus the structures'
// standard instrumentation, so each call site doesn't re-declare counters.
type Metrics struct {
	registry *prometheus.Registry

	BloomAddTotal      prometheus.Counter
	BloomContainsTotal prometheus.Counter
	CuckooInsertTotal  *prometheus.CounterVec // labels: result (success|full)
	CuckooDeleteTotal  *prometheus.CounterVec // labels: result (success|absent)
	CuckooKicksTotal   prometheus.Counter
	CuckooLoadFactor   prometheus.Gauge
	SkipListSize       prometheus.Gauge
	SkipListOpDuration *prometheus.HistogramVec // labels: op (add|remove|search|range)
}

// NewMetrics initializes the registry and registers Go runtime/process
// collectors plus the structures' domain metrics.
func NewMetrics(serviceName string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: reg}

	m.BloomAddTotal = m.NewCounter(prometheus.CounterOpts{
		Name: "bloom_add_total",
		Help: "Total number of Bloom filter Add calls",
	})

	m.BloomContainsTotal = m.NewCounter(prometheus.CounterOpts{
		Name: "bloom_contains_total",
		Help: "Total number of Bloom filter Contains calls",
	})

	m.CuckooInsertTotal = m.NewCounterVec(prometheus.CounterOpts{
		Name: "cuckoo_insert_total",
		Help: "Total number of Cuckoo filter Insert calls by outcome",
	}, []string{"result"})

	m.CuckooDeleteTotal = m.NewCounterVec(prometheus.CounterOpts{
		Name: "cuckoo_delete_total",
		Help: "Total number of Cuckoo filter Delete calls by outcome",
	}, []string{"result"})

	m.CuckooKicksTotal = m.NewCounter(prometheus.CounterOpts{
		Name: "cuckoo_kicks_total",
		Help: "Total number of cuckoo eviction kicks performed across all inserts",
	})

	m.CuckooLoadFactor = m.NewGauge(prometheus.GaugeOpts{
		Name: "cuckoo_load_factor",
		Help: "Current occupied-slot fraction of a Cuckoo filter",
	})

	m.SkipListSize = m.NewGauge(prometheus.GaugeOpts{
		Name: "skiplist_size",
		Help: "Current logically-present element count of a skip list",
	})

	m.SkipListOpDuration = m.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "skiplist_op_duration_seconds",
		Help:    "Skip list operation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	slog.Info("filter metrics registry initialized", "service", serviceName)
	return m
}

func (m *Metrics) NewCounter(opts prometheus.CounterOpts) prometheus.Counter {
	c := prometheus.NewCounter(opts)
	m.registry.MustRegister(c)
	return c
}

func (m *Metrics) NewGauge(opts prometheus.GaugeOpts) prometheus.Gauge {
	g := prometheus.NewGauge(opts)
	m.registry.MustRegister(g)
	return g
}

func (m *Metrics) NewCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(opts, labelNames)
	m.registry.MustRegister(cv)
	return cv
}

func (m *Metrics) NewGaugeVec(opts prometheus.GaugeOpts, labelNames []string) *prometheus.GaugeVec {
	gv := prometheus.NewGaugeVec(opts, labelNames)
	m.registry.MustRegister(gv)
	return gv
}

func (m *Metrics) NewHistogramVec(opts prometheus.HistogramOpts, labelNames []string) *prometheus.HistogramVec {
	hv := prometheus.NewHistogramVec(opts, labelNames)
	m.registry.MustRegister(hv)
	return hv
}

// Handler returns the HTTP handler that exposes the registry in the
// Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ExposeHttp starts a standalone HTTP server serving Handler() on port and
// returns a shutdown function.
func (m *Metrics) ExposeHttp(port string) func() {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: m.Handler(),
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown metrics server", "error", err)
		}
	}
}
