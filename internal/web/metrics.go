package web

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/csvclean/internal/core"
	"github.com/JonMunkholm/csvclean/internal/sink"
)

const namespace = "csvclean"

// Metrics holds the Prometheus collectors for the service. Each Server
// gets its own registry so tests do not share global state.
type Metrics struct {
	registry *prometheus.Registry

	runs         *prometheus.CounterVec
	rowsIn       prometheus.Counter
	rowsOut      prometheus.Counter
	runDuration  prometheus.Histogram
	sinkRows     *prometheus.CounterVec
	limiterInUse prometheus.GaugeFunc
}

// NewMetrics registers the service collectors plus the Go runtime and
// process collectors on a fresh registry.
func NewMetrics(limiter *Limiter) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Cleaning runs by outcome",
		}, []string{"outcome"}),
		rowsIn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_in_total",
			Help:      "Rows loaded before cleaning",
		}),
		rowsOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_out_total",
			Help:      "Rows remaining after cleaning",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Pipeline duration",
			Buckets:   prometheus.DefBuckets,
		}),
		sinkRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_rows_total",
			Help:      "Rows forwarded to sinks by sink and result",
		}, []string{"sink", "result"}),
	}
	m.limiterInUse = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_requests",
		Help:      "Cleaning requests holding a limiter slot",
	}, func() float64 { return float64(limiter.ActiveCount()) })

	m.registry.MustRegister(
		m.runs, m.rowsIn, m.rowsOut, m.runDuration, m.sinkRows, m.limiterInUse,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRun records a finished pipeline run. report may be nil when the
// run failed before the pipeline started.
func (m *Metrics) ObserveRun(report *core.Report, err error) {
	if err != nil {
		m.runs.WithLabelValues("error").Inc()
		return
	}
	m.runs.WithLabelValues("ok").Inc()
	if report == nil {
		return
	}
	m.rowsIn.Add(float64(report.RowsIn))
	m.rowsOut.Add(float64(report.RowsOut))
	m.runDuration.Observe(report.Duration.Seconds())
}

// ObserveSinks records per-sink row outcomes.
func (m *Metrics) ObserveSinks(results []*sink.Result) {
	for _, r := range results {
		m.sinkRows.WithLabelValues(r.Sink, "written").Add(float64(r.Written))
		m.sinkRows.WithLabelValues(r.Sink, "failed").Add(float64(r.Failed()))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
