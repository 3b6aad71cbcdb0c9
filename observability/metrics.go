package observability

import (
	"chat-relay/domain/chat"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chat_relay"

// Metrics groups every collector exposed on /metrics.
// Each instance owns its registry so tests never collide on the default one.
type Metrics struct {
	registry *prometheus.Registry

	OnlineUsers       prometheus.Gauge
	Connections       prometheus.Gauge
	InboundEvents     *prometheus.CounterVec
	InvalidEvents     prometheus.Counter
	RateLimited       prometheus.Counter
	DispatchedEvents  *prometheus.CounterVec
	DroppedDispatches *prometheus.CounterVec
	PersistedMessages prometheus.Counter
	StorageErrors     prometheus.Counter
	RecipientOffline  prometheus.Counter
	CensoredMessages  prometheus.Counter
	HTTPRequests      *prometheus.CounterVec
	ProcessCPU        prometheus.Gauge
	ProcessMemory     prometheus.Gauge
	WorkerRestarts    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		OnlineUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "online_users",
			Help: "Users currently registered in the presence registry.",
		}),
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "connections",
			Help: "Live real-time connections, joined or not.",
		}),
		InboundEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "inbound_events_total",
			Help: "Inbound real-time events handled, by event name.",
		}, []string{"event"}),
		InvalidEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "invalid_events_total",
			Help: "Inbound events dropped because they were malformed.",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "rate_limited_events_total",
			Help: "Inbound frames discarded because a connection exceeded its rate.",
		}),
		DispatchedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "dispatched_events_total",
			Help: "Outbound events handed to a connection, by event name.",
		}, []string{"event"}),
		DroppedDispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "dropped_dispatches_total",
			Help: "Outbound events a connection refused, by event name.",
		}, []string{"event"}),
		PersistedMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "persisted_messages_total",
			Help: "Direct messages appended to the message store.",
		}),
		StorageErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "storage_errors_total",
			Help: "Message appends abandoned because the store failed.",
		}),
		RecipientOffline: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "recipient_offline_total",
			Help: "Messages stored without live delivery.",
		}),
		CensoredMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "censored_messages_total",
			Help: "Messages in which at least one forbidden word was replaced.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests served, by route and status code.",
		}, []string{"route", "code"}),
		ProcessCPU: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "process_cpu_percent",
			Help: "CPU usage of the server process.",
		}),
		ProcessMemory: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "process_memory_percent",
			Help: "Memory usage of the server process.",
		}),
		WorkerRestarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "worker_restarts_total",
			Help: "Background worker restarts after an error or a panic, by worker.",
		}, []string{"worker"}),
	}
	m.registry.MustRegister(
		m.OnlineUsers, m.Connections, m.InboundEvents, m.InvalidEvents, m.RateLimited,
		m.DispatchedEvents, m.DroppedDispatches, m.PersistedMessages,
		m.StorageErrors, m.RecipientOffline, m.CensoredMessages,
		m.HTTPRequests, m.ProcessCPU, m.ProcessMemory, m.WorkerRestarts,
		prometheus.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Inbound(name chat.EventName) {
	m.InboundEvents.WithLabelValues(string(name)).Inc()
}

func (m *Metrics) Dispatched(name chat.EventName) {
	m.DispatchedEvents.WithLabelValues(string(name)).Inc()
}

func (m *Metrics) Dropped(name chat.EventName) {
	m.DroppedDispatches.WithLabelValues(string(name)).Inc()
}
