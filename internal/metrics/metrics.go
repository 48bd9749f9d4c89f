// Package metrics exposes Prometheus collectors for cycles, connectors,
// the event store and the live channel.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentstation/osiris/internal/cycle"
)

const namespace = "osiris"

// Metrics owns a private registry so multiple instances can coexist.
type Metrics struct {
	registry *prometheus.Registry

	cycles          prometheus.Counter
	cycleDuration   prometheus.Histogram
	connectorEvents *prometheus.CounterVec
	connectorErrors *prometheus.CounterVec
	connectorTime   *prometheus.HistogramVec
	storeSize       prometheus.Gauge
	subscribers     prometheus.Gauge
	pushes          prometheus.Counter
	drops           prometheus.Counter
}

// New creates and registers the collectors. Go runtime and process
// collectors are included.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.cycles = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cycles_total",
		Help:      "Completed aggregation cycles",
	})
	m.cycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "cycle_duration_seconds",
		Help:      "Wall time of a full cycle",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	})
	m.connectorEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "connector_events_total",
		Help:      "Events ingested per connector",
	}, []string{"connector", "source"})
	m.connectorErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "connector_errors_total",
		Help:      "Connector failures by result",
	}, []string{"connector", "result"})
	m.connectorTime = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "connector_duration_seconds",
		Help:      "Fetch plus enrichment time per connector",
		Buckets:   prometheus.DefBuckets,
	}, []string{"connector"})
	m.storeSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "store_events",
		Help:      "Events held in the bounded store",
	})
	m.subscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "live_subscribers",
		Help:      "Registered live subscribers",
	})
	m.pushes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "live_pushes_total",
		Help:      "Successful live pushes",
	})
	m.drops = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "live_drops_total",
		Help:      "Subscribers dropped after a failed push",
	})

	m.registry.MustRegister(
		m.cycles, m.cycleDuration,
		m.connectorEvents, m.connectorErrors, m.connectorTime,
		m.storeSize, m.subscribers, m.pushes, m.drops,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveCycle records a completed cycle.
func (m *Metrics) ObserveCycle(r *cycle.Report) {
	m.cycles.Inc()
	m.cycleDuration.Observe(r.Duration.Seconds())
	for _, o := range r.Outcomes {
		m.connectorTime.WithLabelValues(o.Connector).Observe(o.Duration.Seconds())
		switch o.Result {
		case cycle.ResultOK:
			m.connectorEvents.WithLabelValues(o.Connector, string(o.Source)).Add(float64(o.Events))
		case cycle.ResultFetchError, cycle.ResultEnrichError:
			m.connectorErrors.WithLabelValues(o.Connector, string(o.Result)).Inc()
		}
	}
}

// SetStoreSize records the store length.
func (m *Metrics) SetStoreSize(n int) { m.storeSize.Set(float64(n)) }

// SetSubscribers records the live subscriber count.
func (m *Metrics) SetSubscribers(n int) { m.subscribers.Set(float64(n)) }

// AddPushes counts successful pushes.
func (m *Metrics) AddPushes(n int) { m.pushes.Add(float64(n)) }

// IncDrops counts one pruned subscriber.
func (m *Metrics) IncDrops() { m.drops.Inc() }

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
