package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements the Collector interface using Prometheus metrics.
type PrometheusCollector struct {
	// Connection metrics
	connectionsTotal  *prometheus.CounterVec
	connectionsActive *prometheus.GaugeVec

	// Command metrics
	commandsTotal *prometheus.CounterVec

	// Authentication metrics
	authAttemptsTotal *prometheus.CounterVec

	// Message metrics
	messagesAcceptedTotal  prometheus.Counter
	messagesRetrievedTotal prometheus.Counter
	messagesDeletedTotal   prometheus.Counter
	messagesSizeBytes      prometheus.Histogram
}

// NewPrometheusCollector creates a new PrometheusCollector with all metrics registered.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	c := &PrometheusCollector{
		connectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailspool_connections_total",
			Help: "Total number of connections opened.",
		}, []string{"service"}),
		connectionsActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mailspool_connections_active",
			Help: "Number of currently active connections.",
		}, []string{"service"}),

		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailspool_commands_total",
			Help: "Total number of protocol commands processed.",
		}, []string{"service", "command"}),

		authAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailspool_auth_attempts_total",
			Help: "Total number of POP3 authentication attempts.",
		}, []string{"result"}),

		messagesAcceptedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailspool_messages_accepted_total",
			Help: "Total number of messages accepted by the SMTP receiver.",
		}),
		messagesRetrievedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailspool_messages_retrieved_total",
			Help: "Total number of messages retrieved over POP3.",
		}),
		messagesDeletedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailspool_messages_deleted_total",
			Help: "Total number of messages marked for deletion over POP3.",
		}),
		messagesSizeBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mailspool_messages_size_bytes",
			Help:    "Size of accepted and retrieved messages in bytes.",
			Buckets: []float64{1024, 10240, 102400, 1048576, 10485760, 26214400, 52428800},
		}),
	}

	// Register all metrics
	reg.MustRegister(
		c.connectionsTotal,
		c.connectionsActive,
		c.commandsTotal,
		c.authAttemptsTotal,
		c.messagesAcceptedTotal,
		c.messagesRetrievedTotal,
		c.messagesDeletedTotal,
		c.messagesSizeBytes,
	)

	return c
}

// ConnectionOpened increments the connection counter and active gauge.
func (c *PrometheusCollector) ConnectionOpened(service string) {
	c.connectionsTotal.WithLabelValues(service).Inc()
	c.connectionsActive.WithLabelValues(service).Inc()
}

// ConnectionClosed decrements the active connections gauge.
func (c *PrometheusCollector) ConnectionClosed(service string) {
	c.connectionsActive.WithLabelValues(service).Dec()
}

// CommandProcessed increments the command counter.
func (c *PrometheusCollector) CommandProcessed(service, command string) {
	c.commandsTotal.WithLabelValues(service, command).Inc()
}

// AuthAttempt increments the authentication attempts counter.
func (c *PrometheusCollector) AuthAttempt(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.authAttemptsTotal.WithLabelValues(result).Inc()
}

// MessageAccepted increments the accepted counter and observes message size.
func (c *PrometheusCollector) MessageAccepted(sizeBytes int64) {
	c.messagesAcceptedTotal.Inc()
	c.messagesSizeBytes.Observe(float64(sizeBytes))
}

// MessageRetrieved increments the retrieved counter and observes message size.
func (c *PrometheusCollector) MessageRetrieved(sizeBytes int64) {
	c.messagesRetrievedTotal.Inc()
	c.messagesSizeBytes.Observe(float64(sizeBytes))
}

// MessageDeleted increments the message deleted counter.
func (c *PrometheusCollector) MessageDeleted() {
	c.messagesDeletedTotal.Inc()
}
