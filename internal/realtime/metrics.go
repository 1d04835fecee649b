package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricActiveSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notify_active_subscriptions",
		Help: "Open streaming subscriptions across all tenants.",
	})

	metricEvictedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notify_evicted_subscriptions_total",
		Help: "Subscriptions removed by the staleness sweeper.",
	})

	metricPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_published_total",
		Help: "Notifications accepted for delivery, by transport path.",
	}, []string{"path"})

	metricDeliveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notify_delivered_total",
		Help: "Successful per-subscriber sink deliveries.",
	})

	metricDeliveryErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notify_delivery_errors_total",
		Help: "Sink deliveries that errored or panicked.",
	})

	metricBusFallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notify_bus_fallback_total",
		Help: "Publishes that fell back to local-only delivery because the bus was unavailable.",
	})

	metricBusDecodeErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notify_bus_decode_errors_total",
		Help: "Inbound bus envelopes dropped because they failed to decode.",
	})
)
