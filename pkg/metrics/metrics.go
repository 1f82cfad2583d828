package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of in-flight HTTP requests",
		},
	)

	conversationTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_turns_total",
			Help: "Conversation turns by resulting intent",
		},
		[]string{"intent"},
	)

	generationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_generation_duration_seconds",
			Help:    "Language model latency by provider and outcome",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "outcome"},
	)

	bookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appointment_bookings_total",
			Help: "Booking attempts by outcome",
		},
		[]string{"outcome"},
	)

	leadsCaptured = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leads_captured_total",
			Help: "Total number of leads captured",
		},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Notifications by channel and status",
		},
		[]string{"channel", "status"},
	)

	integrationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "integration_errors_total",
			Help: "Total number of integration errors",
		},
		[]string{"service"},
	)

	websocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_clients",
			Help: "Connected realtime clients",
		},
	)
)

func ObserveHTTP(method, path, status string, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

func IncActiveConnections() { activeConnections.Inc() }
func DecActiveConnections() { activeConnections.Dec() }

func RecordTurn(intent string) {
	conversationTurns.WithLabelValues(intent).Inc()
}

func ObserveGeneration(provider string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	generationDuration.WithLabelValues(provider, outcome).Observe(elapsed.Seconds())
}

// RecordBooking outcome is one of booked, conflict, rejected.
func RecordBooking(outcome string) {
	bookingsTotal.WithLabelValues(outcome).Inc()
}

func RecordLeadCaptured() {
	leadsCaptured.Inc()
}

func RecordNotification(channel string, err error) {
	status := "sent"
	if err != nil {
		status = "failed"
	}
	notificationsTotal.WithLabelValues(channel, status).Inc()
}

func RecordIntegrationError(service string) {
	integrationErrors.WithLabelValues(service).Inc()
}

func SetWebsocketClients(n int) {
	websocketClients.Set(float64(n))
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
