package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(transportErrorsTotal, transportSendLatency) }

var (
	transportErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_transport_errors_total",
			Help: "Failed Telegram API calls by operation.",
		},
		[]string{"op"}, // e.g. 'send_text', 'send_photo', 'edit_buttons'
	)

	transportSendLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_transport_latency_ms",
			Help:    "Telegram API call latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"op"},
	)
)

func IncTransportError(op string) {
	transportErrorsTotal.WithLabelValues(norm(op)).Inc()
}

func ObserveTransportLatency(op string, ms int64) {
	transportSendLatency.WithLabelValues(norm(op)).Observe(float64(ms))
}
