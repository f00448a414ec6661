// Package metrics exposes broker and gateway counters as Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wspubsub"

// Metrics implements broker.Recorder and the gateway connection hooks.
type Metrics struct {
	reg *prometheus.Registry

	topics       prometheus.Gauge
	subscribers  prometheus.Gauge
	published    *prometheus.CounterVec
	delivered    *prometheus.CounterVec
	dropped      *prometheus.CounterVec
	unsubscribed *prometheus.CounterVec
	connections  prometheus.Gauge
	connected    prometheus.Counter
	rejected     *prometheus.CounterVec
	frames       *prometheus.CounterVec
}

// New creates and registers all collectors on a fresh registry, together
// with the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		topics: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "broker", Name: "topics",
			Help: "Number of existing topics.",
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "broker", Name: "subscribers",
			Help: "Number of active subscriptions across all topics.",
		}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "broker", Name: "published_total",
			Help: "Messages accepted for publication.",
		}, []string{"topic"}),
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "broker", Name: "delivered_total",
			Help: "Event frames written to subscribers.",
		}, []string{"topic"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "broker", Name: "dropped_total",
			Help: "Messages evicted from full subscriber queues.",
		}, []string{"topic"}),
		unsubscribed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "broker", Name: "unsubscribed_total",
			Help: "Subscriptions removed, by reason.",
		}, []string{"reason"}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "gateway", Name: "connections",
			Help: "Open WebSocket connections.",
		}),
		connected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "gateway", Name: "connections_total",
			Help: "Accepted WebSocket connections.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "gateway", Name: "rejected_total",
			Help: "Connections refused, by reason.",
		}, []string{"reason"}),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "gateway", Name: "frames_total",
			Help: "Inbound frames, by type.",
		}, []string{"type"}),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.topics, m.subscribers,
		m.published, m.delivered, m.dropped, m.unsubscribed,
		m.connections, m.connected, m.rejected, m.frames,
	)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) TopicCreated(string) { m.topics.Inc() }

// TopicDeleted also drops the per-topic series so deleted topics do not linger.
func (m *Metrics) TopicDeleted(topic string) {
	m.topics.Dec()
	m.published.DeleteLabelValues(topic)
	m.delivered.DeleteLabelValues(topic)
	m.dropped.DeleteLabelValues(topic)
}

func (m *Metrics) Published(topic string) { m.published.WithLabelValues(topic).Inc() }
func (m *Metrics) Delivered(topic string) { m.delivered.WithLabelValues(topic).Inc() }
func (m *Metrics) Dropped(topic string)   { m.dropped.WithLabelValues(topic).Inc() }
func (m *Metrics) Subscribed(string)      { m.subscribers.Inc() }

func (m *Metrics) Unsubscribed(_, reason string) {
	m.subscribers.Dec()
	m.unsubscribed.WithLabelValues(reason).Inc()
}

// ConnectionOpened counts an upgraded WebSocket connection.
func (m *Metrics) ConnectionOpened() {
	m.connected.Inc()
	m.connections.Inc()
}

// ConnectionClosed is the counterpart of ConnectionOpened.
func (m *Metrics) ConnectionClosed() { m.connections.Dec() }

// ConnectionRejected counts a refused connection attempt.
func (m *Metrics) ConnectionRejected(reason string) { m.rejected.WithLabelValues(reason).Inc() }

// FrameReceived counts an inbound frame by its type field.
func (m *Metrics) FrameReceived(frameType string) { m.frames.WithLabelValues(frameType).Inc() }
