package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		updatesReceivedTotal,
		messagesForwardedTotal,
		repliesDeliveredTotal,
		blocklistMutationsTotal,
		rejectionsTotal,
		correlationEntries,
		handlerPanicsTotal,
	)
}

var (
	updatesReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_updates_received_total",
			Help: "Inbound events by type (command/content/reply/button).",
		},
		[]string{"type"},
	)

	messagesForwardedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_messages_forwarded_total",
			Help: "End-user messages forwarded to the operator, by content kind.",
		},
		[]string{"kind"},
	)

	repliesDeliveredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_replies_delivered_total",
			Help: "Operator replies routed back to end-users, by content kind and result.",
		},
		[]string{"kind", "result"}, // result: 'ok', 'failed'
	)

	blocklistMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_blocklist_mutations_total",
			Help: "Effective block/unblock operations.",
		},
		[]string{"action"},
	)

	rejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_rejections_total",
			Help: "Events refused by the router, by reason.",
		},
		[]string{"reason"}, // e.g. 'blocked', 'unauthorized', 'self_block', 'invalid_argument'
	)

	correlationEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_correlation_entries",
			Help: "Live entries in the forwarded-message correlation table.",
		},
	)

	handlerPanicsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_handler_panics_total",
			Help: "Panics recovered while handling an event.",
		},
	)
)

func IncUpdate(eventType string) {
	updatesReceivedTotal.WithLabelValues(norm(eventType)).Inc()
}

func IncForwarded(kind string) {
	messagesForwardedTotal.WithLabelValues(norm(kind)).Inc()
}

func IncReplyDelivered(kind string, ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	repliesDeliveredTotal.WithLabelValues(norm(kind), result).Inc()
}

func IncBlocklistMutation(action string) {
	blocklistMutationsTotal.WithLabelValues(norm(action)).Inc()
}

func IncRejection(reason string) {
	rejectionsTotal.WithLabelValues(norm(reason)).Inc()
}

func SetCorrelationEntries(n int) {
	correlationEntries.Set(float64(n))
}

func IncHandlerPanic() {
	handlerPanicsTotal.Inc()
}
