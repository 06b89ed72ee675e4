package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_http_requests_total",
			Help: "Total number of HTTP requests processed by the presence hub.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hub_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_ws_active_connections",
			Help: "Number of connections currently registered with the hub.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_ws_events_total",
			Help: "Total number of websocket lifecycle events.",
		},
		[]string{"event"},
	)
	messagesSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_messages_submitted_total",
			Help: "Total number of messages accepted by the pipeline.",
		},
		[]string{"room"},
	)
	deliveryFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_broadcast_delivery_failures_total",
			Help: "Total number of per-recipient broadcast delivery failures.",
		},
		[]string{"event"},
	)
	storageFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_storage_failures_total",
			Help: "Total number of storage collaborator failures after retry.",
		},
		[]string{"op"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		wsActiveConnections,
		wsEventsTotal,
		messagesSubmittedTotal,
		deliveryFailuresTotal,
		storageFailuresTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncActiveConnection() {
	wsActiveConnections.Inc()
}

func DecActiveConnection() {
	wsActiveConnections.Dec()
}

func IncWSEvent(event string) {
	wsEventsTotal.WithLabelValues(event).Inc()
}

func IncMessageSubmitted(room string) {
	messagesSubmittedTotal.WithLabelValues(room).Inc()
}

func IncDeliveryFailure(event string) {
	deliveryFailuresTotal.WithLabelValues(event).Inc()
}

func IncStorageFailure(op string) {
	storageFailuresTotal.WithLabelValues(op).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
