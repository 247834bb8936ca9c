package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tallbag",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tallbag",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	connsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tallbag",
			Subsystem: "protocol",
			Name:      "connections_started_total",
			Help:      "Connections that entered the starting state.",
		},
	)
	connsEnded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tallbag",
			Subsystem: "protocol",
			Name:      "connections_ended_total",
			Help:      "Connections that reached the ended state, by outcome.",
		},
		[]string{"outcome"},
	)
	connsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tallbag",
			Subsystem: "protocol",
			Name:      "connections_active",
			Help:      "Connections started and not yet ended.",
		},
	)
	messages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tallbag",
			Subsystem: "protocol",
			Name:      "messages_total",
			Help:      "Messages accepted by the handshake engine.",
		},
		[]string{"kind", "direction"},
	)
	violations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tallbag",
			Subsystem: "protocol",
			Name:      "violations_total",
			Help:      "Protocol violations rejected by the engine or a guard.",
		},
		[]string{"reason"},
	)
	metaSignals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tallbag",
			Subsystem: "protocol",
			Name:      "metadata_signals_total",
			Help:      "Metadata channel invocations, by whether they were delivered.",
		},
		[]string{"delivered"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			connsStarted,
			connsEnded,
			connsActive,
			messages,
			violations,
			metaSignals,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordConnStarted() {
	RegisterMetrics()
	connsStarted.Inc()
	connsActive.Inc()
}

// RecordConnEnded counts an ended connection. started tells whether the
// connection was counted by RecordConnStarted; only those leave the active
// gauge.
func RecordConnEnded(outcome string, started bool) {
	RegisterMetrics()
	connsEnded.WithLabelValues(outcome).Inc()
	if started {
		connsActive.Dec()
	}
}

func RecordMessage(kind, direction string) {
	RegisterMetrics()
	messages.WithLabelValues(kind, direction).Inc()
}

func RecordViolation(reason string) {
	RegisterMetrics()
	violations.WithLabelValues(reason).Inc()
}

func RecordMetaSignal(delivered bool) {
	RegisterMetrics()
	metaSignals.WithLabelValues(strconv.FormatBool(delivered)).Inc()
}
