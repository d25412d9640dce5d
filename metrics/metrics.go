// Package metrics counts what a loader run created and writes the counts in
// the Prometheus text format for the node exporter textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters of one run. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	entitiesCreated *prometheus.CounterVec
	rowsRead        *prometheus.CounterVec
	lastRun         prometheus.Gauge
	runDuration     prometheus.Gauge
}

// New registers the loader's metrics on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		entitiesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "metadata_loader_entities_created_total",
			Help: "Entities created in the repository, by kind.",
		}, []string{"kind"}),
		rowsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "metadata_loader_rows_read_total",
			Help: "CSV data rows read, by table.",
		}, []string{"table"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "metadata_loader_last_run_timestamp_seconds",
			Help: "Unix time the last run finished.",
		}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "metadata_loader_run_duration_seconds",
			Help: "Wall time of the last run.",
		}),
	}

	m.registry.MustRegister(m.entitiesCreated, m.rowsRead, m.lastRun, m.runDuration)

	return m
}

// EntityCreated counts one created entity of kind.
func (m *Metrics) EntityCreated(kind string) {
	if m == nil {
		return
	}
	m.entitiesCreated.WithLabelValues(kind).Inc()
}

// RowRead counts one data row of table.
func (m *Metrics) RowRead(table string) {
	if m == nil {
		return
	}
	m.rowsRead.WithLabelValues(table).Inc()
}

// RunFinished records the end of a run that started at start.
func (m *Metrics) RunFinished(start, end time.Time) {
	if m == nil {
		return
	}
	m.lastRun.Set(float64(end.Unix()))
	m.runDuration.Set(end.Sub(start).Seconds())
}

// Gatherer exposes the registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile atomically writes all metrics to path.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
