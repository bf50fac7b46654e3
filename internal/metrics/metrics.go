// Package metrics provides Prometheus metrics for pasta
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for decode activity.
// It implements ndb.Recorder.
type Metrics struct {
	PagesReadTotal    *prometheus.CounterVec
	BlocksReadTotal   *prometheus.CounterVec
	CorruptionsTotal  *prometheus.CounterVec
	LookupsTotal      *prometheus.CounterVec
	LookupDuration    *prometheus.HistogramVec
	VerifyNodesTotal  prometheus.Counter
	VerifyDuration    prometheus.Histogram
	OpenFilesInFlight prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	m := &Metrics{}

	m.PagesReadTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pst_pages_read_total",
			Help: "Total number of B+Tree pages read",
		},
		[]string{"tree"},
	)

	m.BlocksReadTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pst_blocks_read_total",
			Help: "Total number of blocks read",
		},
		[]string{"kind"},
	)

	m.CorruptionsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pst_corruptions_total",
			Help: "Total number of corrupt structures found",
		},
		[]string{"cause"},
	)

	m.LookupsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pst_lookups_total",
			Help: "Total number of tree lookups",
		},
		[]string{"tree", "result"},
	)

	m.LookupDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pst_lookup_duration_seconds",
			Help:    "Duration of tree lookups in seconds",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
		},
		[]string{"tree"},
	)

	m.VerifyNodesTotal = f.NewCounter(
		prometheus.CounterOpts{
			Name: "pst_verify_nodes_total",
			Help: "Total number of nodes checked by integrity scans",
		},
	)

	m.VerifyDuration = f.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pst_verify_duration_seconds",
			Help:    "Duration of integrity scans in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	m.OpenFilesInFlight = f.NewGauge(
		prometheus.GaugeOpts{
			Name: "pst_open_files",
			Help: "Number of PST files currently open",
		},
	)

	return m
}

// PageRead records a B+Tree page read
func (m *Metrics) PageRead(tree string) {
	m.PagesReadTotal.WithLabelValues(tree).Inc()
}

// BlockRead records a block read
func (m *Metrics) BlockRead(kind string) {
	m.BlocksReadTotal.WithLabelValues(kind).Inc()
}

// Lookup records a tree lookup and its outcome
func (m *Metrics) Lookup(tree string, found bool, d time.Duration) {
	m.LookupsTotal.WithLabelValues(tree, strconv.FormatBool(found)).Inc()
	m.LookupDuration.WithLabelValues(tree).Observe(d.Seconds())
}

// Corruption records a corruption by cause
func (m *Metrics) Corruption(cause string) {
	m.CorruptionsTotal.WithLabelValues(cause).Inc()
}

// RecordVerify records a completed integrity scan
func (m *Metrics) RecordVerify(nodes int, d time.Duration) {
	m.VerifyNodesTotal.Add(float64(nodes))
	m.VerifyDuration.Observe(d.Seconds())
}

// FileOpened increments the open files gauge
func (m *Metrics) FileOpened() {
	m.OpenFilesInFlight.Inc()
}

// FileClosed decrements the open files gauge
func (m *Metrics) FileClosed() {
	m.OpenFilesInFlight.Dec()
}
