package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for the conversational booking flow.
type ChatMetrics struct {
	messagesTotal  *prometheus.CounterVec
	remoteCalls    *prometheus.CounterVec
	bookingsTotal  *prometheus.CounterVec
	handlerLatency *prometheus.HistogramVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medichat",
			Subsystem: "chat",
			Name:      "messages_total",
			Help:      "Total messages appended to conversation logs",
		}, []string{"sender"}),
		remoteCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medichat",
			Subsystem: "booking",
			Name:      "remote_calls_total",
			Help:      "Total calls to the remote booking service",
		}, []string{"operation", "status"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medichat",
			Subsystem: "booking",
			Name:      "appointments_total",
			Help:      "Total appointment booking outcomes",
		}, []string{"status"}),
		handlerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "medichat",
			Subsystem: "chat",
			Name:      "handler_latency_seconds",
			Help:      "Latency of chat request handling",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.messagesTotal, m.remoteCalls, m.bookingsTotal, m.handlerLatency)
	return m
}

func (m *ChatMetrics) ObserveMessage(sender string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(sender).Inc()
}

func (m *ChatMetrics) ObserveRemoteCall(operation string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.remoteCalls.WithLabelValues(operation, status).Inc()
}

func (m *ChatMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status).Inc()
}

func (m *ChatMetrics) ObserveHandlerLatency(route string, seconds float64) {
	if m == nil {
		return
	}
	m.handlerLatency.WithLabelValues(route).Observe(seconds)
}
