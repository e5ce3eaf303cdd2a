package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskhub_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "taskhub_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskhub_mutations_total",
		Help: "Count of collection mutations by collection, operation and result",
	}, []string{"collection", "op", "result"})

	broadcastsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskhub_broadcasts_total",
		Help: "Count of full-collection broadcasts pushed to connected clients",
	}, []string{"event"})

	droppedClients = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskhub_slow_clients_dropped_total",
		Help: "Count of WebSocket sessions dropped because their outbound queue overflowed",
	})

	connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "taskhub_connected_clients",
		Help: "Number of WebSocket sessions currently connected",
	})

	tasksByStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "taskhub_tasks_by_status",
		Help: "Number of tasks per status",
	}, []string{"status"})

	overdueTasks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "taskhub_overdue_tasks",
		Help: "Number of tasks past their due date and not completed",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveMutation records a mutation attempt against a collection.
func ObserveMutation(collection, op, result string) {
	mutationsTotal.WithLabelValues(collection, op, result).Inc()
}

// ObserveBroadcast increments the broadcast counter for an event topic.
func ObserveBroadcast(event string) {
	broadcastsTotal.WithLabelValues(event).Inc()
}

// ObserveSlowClientDrop records a session dropped for falling behind.
func ObserveSlowClientDrop() {
	droppedClients.Inc()
}

// ClientConnected increments the connected sessions gauge.
func ClientConnected() {
	connectedClients.Inc()
}

// ClientDisconnected decrements the connected sessions gauge.
func ClientDisconnected() {
	connectedClients.Dec()
}

// SetTasksByStatus sets the per-status task gauge.
func SetTasksByStatus(status string, count int) {
	tasksByStatus.WithLabelValues(status).Set(float64(count))
}

// SetOverdueTasks sets the overdue task gauge.
func SetOverdueTasks(count int) {
	if count < 0 {
		count = 0
	}
	overdueTasks.Set(float64(count))
}
