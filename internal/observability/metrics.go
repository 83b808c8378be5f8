package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type moduleMetrics struct {
	connectedSessions prometheus.Gauge

	messagesDelivered prometheus.Counter
	signalsDelivered  prometheus.Counter
	persistTotal      *prometheus.CounterVec
	persistDuration   prometheus.Histogram
	historyDuration   prometheus.Histogram

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	authTotal *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			connectedSessions: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "chat_connected_sessions",
					Help: "Current number of live chat sessions.",
				},
			),
			messagesDelivered: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "chat_messages_delivered_total",
					Help: "Total private message deliveries to sessions.",
				},
			),
			signalsDelivered: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "chat_signals_delivered_total",
					Help: "Total signaling payload deliveries to sessions.",
				},
			),
			persistTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "chat_message_persist_total",
					Help: "Total message persistence attempts by status.",
				},
				[]string{"status"},
			),
			persistDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "chat_message_persist_duration_seconds",
					Help:    "Message persistence duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			historyDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "chat_history_fetch_duration_seconds",
					Help:    "Conversation history fetch duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			httpRequestsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total HTTP requests by route and status class.",
				},
				[]string{"route", "status"},
			),
			httpRequestDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request duration in seconds by route.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"route"},
			),
			authTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "auth_attempts_total",
					Help: "Total authentication attempts by outcome.",
				},
				[]string{"outcome"},
			),
		}

		prometheus.MustRegister(
			m.connectedSessions,
			m.messagesDelivered,
			m.signalsDelivered,
			m.persistTotal,
			m.persistDuration,
			m.historyDuration,
			m.httpRequestsTotal,
			m.httpRequestDuration,
			m.authTotal,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

func SetConnectedSessions(count int) {
	getMetrics().connectedSessions.Set(float64(count))
}

func AddMessagesDelivered(count int) {
	if count > 0 {
		getMetrics().messagesDelivered.Add(float64(count))
	}
}

func AddSignalsDelivered(count int) {
	if count > 0 {
		getMetrics().signalsDelivered.Add(float64(count))
	}
}

func ObservePersistDuration(duration time.Duration, success bool) {
	m := getMetrics()
	status := "error"
	if success {
		status = "success"
	}
	m.persistTotal.WithLabelValues(status).Inc()
	m.persistDuration.Observe(duration.Seconds())
}

func ObserveHistoryFetch(duration time.Duration) {
	getMetrics().historyDuration.Observe(duration.Seconds())
}

func RecordHTTPRequest(route string, statusClass string, duration time.Duration) {
	m := getMetrics()
	m.httpRequestsTotal.WithLabelValues(route, statusClass).Inc()
	m.httpRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func RecordAuthAttempt(outcome string) {
	getMetrics().authTotal.WithLabelValues(outcome).Inc()
}
